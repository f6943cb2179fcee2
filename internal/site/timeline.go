package site

import (
	"html/template"
	"time"

	"github.com/Zachkp/folio/internal/content"
	"github.com/Zachkp/folio/internal/kpi"
)

// timelineCard is one experience as the timeline renders it.
type timelineCard struct {
	ID           string            `json:"id"`
	Slug         string            `json:"slug"`
	Title        string            `json:"title"`
	Company      string            `json:"company"`
	Location     string            `json:"location"`
	Period       string            `json:"period"`
	Tenure       string            `json:"tenure,omitempty"`
	LogoPath     string            `json:"logo_path,omitempty"`
	Description  template.HTML     `json:"description"`
	Achievements []string          `json:"achievements"`
	Technologies []string          `json:"technologies"`
	Projects     []content.Project `json:"projects,omitempty"`
	KPIs         []kpi.KPI         `json:"kpis"`
	Skills       []content.Skill   `json:"skills,omitempty"`
	Active       bool              `json:"active"`
}

type timelineYear struct {
	Year  string         `json:"year"`
	Cards []timelineCard `json:"cards"`
}

type timelineData struct {
	Years  []timelineYear `json:"years"`
	Active *timelineCard  `json:"active,omitempty"`
}

// buildTimeline groups the portfolio's experience by year. The card whose
// slug is activeSlug is marked active, or the first card when activeSlug is
// empty or matches nothing.
func buildTimeline(p *content.Portfolio, activeSlug string, now time.Time) (timelineData, error) {
	if _, err := p.ExperienceBySlug(activeSlug); err != nil {
		activeSlug = ""
	}

	var data timelineData
	for _, g := range content.GroupByYear(p.Experience) {
		y := timelineYear{Year: g.Year}
		for _, e := range g.Experiences {
			card, err := newCard(p, e, now)
			if err != nil {
				return timelineData{}, err
			}
			y.Cards = append(y.Cards, card)
		}
		data.Years = append(data.Years, y)
	}

	for i := range data.Years {
		for j := range data.Years[i].Cards {
			c := &data.Years[i].Cards[j]
			if data.Active == nil && (activeSlug == "" || c.Slug == activeSlug) {
				c.Active = true
				data.Active = c
			}
		}
	}
	return data, nil
}

func newCard(p *content.Portfolio, e content.Experience, now time.Time) (timelineCard, error) {
	desc, err := content.Markdown(e.Description)
	if err != nil {
		return timelineCard{}, err
	}
	card := timelineCard{
		ID:           e.ID,
		Slug:         content.Slug(e),
		Title:        e.Title,
		Company:      e.Company,
		Location:     e.Location,
		Period:       content.DateLabel(e.Date),
		LogoPath:     e.LogoPath,
		Description:  desc,
		Achievements: e.Achievements,
		Technologies: e.Technologies,
		Projects:     e.Projects,
		KPIs:         kpi.Extract(e.Achievements),
		Skills:       p.SkillsFor(e.ID),
	}
	if period, err := content.ParsePeriod(e.Date); err == nil {
		card.Tenure = period.Tenure(now)
	}
	return card, nil
}
