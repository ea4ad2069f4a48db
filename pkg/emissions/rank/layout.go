package rank

// Layout maps ranked entries to bar positions on the x axis. Every group
// reserves room for PerGroup bars whether or not it has that many entries,
// so short groups never shift their neighbours.
type Layout struct {
	BarWidth     float64
	GroupSpacing float64
	MaxAlpha     float64 // opacity of the first bar in a group
	MinAlpha     float64 // opacity of the last possible bar
}

// DefaultLayout matches the dashboard's historic spacing.
func DefaultLayout() Layout {
	return Layout{BarWidth: 0.25, GroupSpacing: 0.5, MaxAlpha: 0.7, MinAlpha: 0.3}
}

// Bar is an entry with its computed center and opacity.
type Bar struct {
	Entry
	Slot  int // index of the group in the group order
	X     float64
	Alpha float64
}

// Tick marks the center of a group's slot.
type Tick struct {
	Group string
	X     float64
}

// stride is the distance between the starts of two adjacent group slots.
func (l Layout) stride(perGroup int) float64 {
	return float64(perGroup)*l.BarWidth + l.GroupSpacing
}

// Place positions entries produced by Rank. Entries whose group is not in
// groups are dropped. One tick is returned per group, including empty ones.
func (l Layout) Place(entries []Entry, groups []string, perGroup int) ([]Bar, []Tick) {
	if perGroup < 1 {
		perGroup = 1
	}
	slot := make(map[string]int, len(groups))
	ticks := make([]Tick, len(groups))
	for i, g := range groups {
		slot[g] = i
		ticks[i] = Tick{
			Group: g,
			X:     float64(i)*l.stride(perGroup) + float64(perGroup-1)*l.BarWidth/2,
		}
	}

	bars := make([]Bar, 0, len(entries))
	for _, e := range entries {
		i, ok := slot[e.Group]
		if !ok {
			continue
		}
		bars = append(bars, Bar{
			Entry: e,
			Slot:  i,
			X:     float64(i)*l.stride(perGroup) + float64(e.Position-1)*l.BarWidth,
			Alpha: l.Alpha(e.Position, perGroup),
		})
	}
	return bars, ticks
}

// Alpha fades linearly from MaxAlpha at position 1 to MinAlpha at position
// perGroup.
func (l Layout) Alpha(position, perGroup int) float64 {
	if perGroup <= 1 || position <= 1 {
		return l.MaxAlpha
	}
	step := (l.MaxAlpha - l.MinAlpha) / float64(perGroup-1)
	a := l.MaxAlpha - float64(position-1)*step
	if a < l.MinAlpha {
		a = l.MinAlpha
	}
	return a
}

// Span returns the x extent covered by all group slots, including the half
// bar overhang at both ends.
func (l Layout) Span(groups, perGroup int) (min, max float64) {
	if groups == 0 {
		return 0, 0
	}
	min = -l.BarWidth / 2
	max = float64(groups-1)*l.stride(perGroup) + float64(perGroup-1)*l.BarWidth + l.BarWidth/2
	return min, max
}
