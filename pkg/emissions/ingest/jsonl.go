package ingest

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/cognicore/emissions/pkg/emissions/internalerr"
	"github.com/cognicore/emissions/pkg/emissions/record"
)

const maxLine = 1 << 20

// ReadJSONL reads one JSON object per line. Keys follow the same matching
// rules as CSV headers; values may be strings or numbers.
func ReadJSONL(r io.Reader) (*record.Table, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLine)

	var out []record.Record
	line := 0
	for sc.Scan() {
		line++
		raw := bytes.TrimSpace(sc.Bytes())
		if len(raw) == 0 {
			continue
		}

		f, err := objectFields(raw)
		if err != nil {
			return nil, &internalerr.InputError{Row: line, Err: fmt.Errorf("%w: %v", internalerr.ErrInvalidInput, err)}
		}
		if err := checkColumns(func(col string) bool {
			_, ok := f[col]
			return ok
		}); err != nil {
			return nil, err
		}
		rec, ok, err := decode(f, line)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, rec)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read jsonl: %w", err)
	}
	return record.NewTable(out), nil
}

func objectFields(raw []byte) (fields, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, err
	}
	f := make(fields, len(obj))
	for k, v := range obj {
		col := canonical(k)
		if col == "" {
			continue
		}
		var s string
		switch {
		case bytes.Equal(v, []byte("null")):
		case len(v) > 0 && v[0] == '"':
			if err := json.Unmarshal(v, &s); err != nil {
				return nil, err
			}
		default:
			s = string(v)
		}
		f[col] = s
	}
	return f, nil
}

func readJSONLFile(path string) (*record.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadJSONL(f)
}
