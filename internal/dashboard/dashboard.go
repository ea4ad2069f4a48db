// Package dashboard serves the assembled charts over HTTP.
package dashboard

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cognicore/emissions/pkg/emissions/internalerr"
	"github.com/cognicore/emissions/pkg/emissions/report"
)

// Reporter builds charts from a fresh snapshot on every call.
type Reporter interface {
	Report(ctx context.Context) (*report.Report, error)
	Chart(ctx context.Context, name string) (report.Chart, error)
}

type Handler struct {
	Reporter Reporter
}

func NewHandler(r Reporter) *Handler {
	return &Handler{Reporter: r}
}

const pageName = "charts.html"

var page = template.Must(template.New(pageName).Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>CO2 Emissions Dashboard</title>
<style>
body { font-family: sans-serif; margin: 2em; }
figure { margin: 0 0 2em 0; }
figure img { max-width: 100%; }
figure.failed { border: 1px solid #d62728; padding: 1em; }
</style>
</head>
<body>
<h1>CO2 Emissions Dashboard</h1>
<p class="meta">Report {{.ID}} for {{.Year}}</p>
{{range .Charts}}<figure id="{{.Name}}"{{if .Failed}} class="failed"{{end}}>
{{if .Src}}<img src="{{.Src}}" alt="{{.Title}}">{{else}}<h2>{{.Title}}</h2>{{end}}
{{if .Text}}<figcaption>{{.Text}}</figcaption>{{end}}
</figure>
{{end}}</body>
</html>
`))

type pageChart struct {
	Name   string
	Title  string
	Src    template.URL
	Text   string
	Failed bool
}

// TrustedProxies are the only peers whose forwarding headers are honoured.
var TrustedProxies = []string{"127.0.0.1"}

// Router builds a gin engine with the dashboard routes. middleware runs
// before gin.Recovery.
func (h *Handler) Router(middleware ...gin.HandlerFunc) (*gin.Engine, error) {
	router := gin.New()
	router.Use(middleware...)
	router.Use(gin.Recovery())
	if err := router.SetTrustedProxies(TrustedProxies); err != nil {
		return nil, fmt.Errorf("trusted proxies: %w", err)
	}
	router.SetHTMLTemplate(page)
	h.RegisterRoutes(&router.RouterGroup)
	return router, nil
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/", h.index)            // GET /
	rg.GET("/chart/:slot", h.chart) // GET /chart/top-region.png
	rg.GET("/health", h.health)     // GET /health
}

func (h *Handler) index(c *gin.Context) {
	rep, err := h.Reporter.Report(c.Request.Context())
	if err != nil {
		c.JSON(status(err), gin.H{"error": err.Error()})
		return
	}

	charts := make([]pageChart, 0, len(rep.Charts))
	for _, ch := range rep.Charts {
		pc := pageChart{Name: ch.Name, Title: ch.Title, Text: ch.Text, Failed: ch.Failed()}
		if len(ch.Image) > 0 {
			pc.Src = template.URL("data:image/png;base64," + base64.StdEncoding.EncodeToString(ch.Image))
		}
		charts = append(charts, pc)
	}
	c.HTML(http.StatusOK, pageName, gin.H{
		"ID":     rep.ID,
		"Year":   rep.Year,
		"Charts": charts,
	})
}

func (h *Handler) chart(c *gin.Context) {
	name := strings.TrimSuffix(c.Param("slot"), ".png")
	ch, err := h.Reporter.Chart(c.Request.Context(), name)
	if err != nil {
		c.JSON(status(err), gin.H{"error": err.Error(), "chart": name})
		return
	}
	c.Data(http.StatusOK, "image/png", ch.Image)
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func status(err error) int {
	switch {
	case errors.Is(err, internalerr.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, internalerr.ErrInvalidInput),
		errors.Is(err, internalerr.ErrMissingColumn),
		errors.Is(err, internalerr.ErrUnknownCategory):
		return http.StatusUnprocessableEntity
	case errors.Is(err, internalerr.ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}
