package site

import (
	"embed"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/Zachkp/folio/internal/content"
	"github.com/Zachkp/folio/internal/kpi"
)

//go:embed templates/*.html
var templateFS embed.FS

func templateFuncs(now func() time.Time) template.FuncMap {
	return template.FuncMap{
		"ago":       humanize.Time,
		"comma":     humanize.Comma,
		"ordinal":   humanize.Ordinal,
		"dateLabel": content.DateLabel,
		"kpi":       kpi.Format,
		"join":      strings.Join,
		"add1":      func(i int) int { return i + 1 },
		"year":      func() int { return now().Year() },
	}
}

func parseTemplates(now func() time.Time) (*template.Template, error) {
	t, err := template.New("").Funcs(templateFuncs(now)).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parsing templates: %w", err)
	}
	return t, nil
}
