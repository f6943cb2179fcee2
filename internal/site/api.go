package site

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Zachkp/folio/internal/content"
	"github.com/Zachkp/folio/internal/kpi"
	"github.com/Zachkp/folio/internal/palette"
)

type kpiResponse struct {
	ID        string    `json:"id"`
	Slug      string    `json:"slug"`
	KPIs      []kpi.KPI `json:"kpis"`
	Formatted []string  `json:"formatted"`
}

func newKPIResponse(e content.Experience) kpiResponse {
	r := kpiResponse{
		ID:        e.ID,
		Slug:      content.Slug(e),
		KPIs:      kpi.Extract(e.Achievements),
		Formatted: []string{},
	}
	if r.KPIs == nil {
		r.KPIs = []kpi.KPI{}
	}
	for _, k := range r.KPIs {
		r.Formatted = append(r.Formatted, kpi.Format(k))
	}
	return r
}

func (s *Server) setupAPIRoutes(r *gin.Engine) {
	api := r.Group("/api")

	api.GET("/timeline", func(c *gin.Context) {
		p := s.content.Get()
		if slug := c.Query("exp"); slug != "" {
			if _, err := p.ExperienceBySlug(slug); err != nil {
				c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
				return
			}
		}
		data, err := buildTimeline(p, c.Query("exp"), s.now())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, data)
	})

	api.GET("/kpis", func(c *gin.Context) {
		p := s.content.Get()
		if id := c.Query("exp"); id != "" {
			e, err := p.ExperienceByID(id)
			if err != nil {
				c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusOK, newKPIResponse(e))
			return
		}
		out := make([]kpiResponse, 0, len(p.Experience))
		for _, e := range p.Experience {
			out = append(out, newKPIResponse(e))
		}
		c.JSON(http.StatusOK, out)
	})

	api.GET("/commands", func(c *gin.Context) {
		c.JSON(http.StatusOK, palette.Search(palette.Commands(s.content.Get().User), c.Query("q")))
	})
}
