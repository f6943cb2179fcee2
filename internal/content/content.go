// Package content holds the portfolio's static content: the owner's bio,
// experience, education and skills, plus the helpers the pages need to
// present them (slugs, date labels, grouping, markdown).
package content

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// ErrNotFound is returned when an experience or skill id is unknown.
var ErrNotFound = errors.New("content: not found")

type SocialLink struct {
	Name string `yaml:"name" json:"name"`
	URL  string `yaml:"url" json:"url"`
}

type User struct {
	FullName    string       `yaml:"full_name" json:"full_name"`
	BioLine     string       `yaml:"bio_line" json:"bio_line"`
	About       string       `yaml:"about" json:"about"`
	PhotoURL    string       `yaml:"photo_url" json:"photo_url"`
	Email       string       `yaml:"email" json:"email"`
	Phone       string       `yaml:"phone" json:"phone,omitempty"`
	Location    string       `yaml:"location" json:"location"`
	SocialLinks []SocialLink `yaml:"social_links" json:"social_links"`
	ResumeURL   string       `yaml:"resume_url" json:"resume_url"`
}

type Project struct {
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description" json:"description"`
	URL         string `yaml:"url" json:"url,omitempty"`
}

type Experience struct {
	ID           string    `yaml:"id" json:"id"`
	Title        string    `yaml:"title" json:"title"`
	Company      string    `yaml:"company" json:"company"`
	Location     string    `yaml:"location" json:"location"`
	Date         string    `yaml:"date" json:"date"`
	Description  string    `yaml:"description" json:"description"`
	LogoPath     string    `yaml:"logo_path" json:"logo_path,omitempty"`
	Achievements []string  `yaml:"achievements" json:"achievements"`
	Technologies []string  `yaml:"technologies" json:"technologies"`
	Projects     []Project `yaml:"projects" json:"projects,omitempty"`
	SkillIDs     []string  `yaml:"skill_ids" json:"skill_ids,omitempty"`
}

type Education struct {
	Degree      string   `yaml:"degree" json:"degree"`
	Institution string   `yaml:"institution" json:"institution"`
	Date        string   `yaml:"date" json:"date"`
	LogoPath    string   `yaml:"logo_path" json:"logo_path,omitempty"`
	Highlights  []string `yaml:"highlights" json:"highlights"`
}

// Tier is the depth of competence claimed for a skill.
type Tier string

const (
	TierExpert     Tier = "Expert"
	TierProficient Tier = "Proficient"
	TierFamiliar   Tier = "Familiar"
)

// Category groups skills in the skills matrix.
type Category string

const (
	CategoryLanguages  Category = "languages_runtimes"
	CategoryFrameworks Category = "frameworks_libraries"
	CategoryAITooling  Category = "ai_ml_tooling"
	CategoryInfra      Category = "infra_devops"
	CategoryDesign     Category = "design_ux"
)

// Categories lists every category in display order.
var Categories = []Category{
	CategoryLanguages,
	CategoryFrameworks,
	CategoryAITooling,
	CategoryInfra,
	CategoryDesign,
}

var categoryLabels = map[Category]string{
	CategoryLanguages:  "Languages & Runtimes",
	CategoryFrameworks: "Frameworks & Libraries",
	CategoryAITooling:  "AI/ML & Tooling",
	CategoryInfra:      "Infra & DevOps",
	CategoryDesign:     "Design & UX",
}

// Label returns the display name of the category.
func (c Category) Label() string {
	if l, ok := categoryLabels[c]; ok {
		return l
	}
	return string(c)
}

type Skill struct {
	ID            string   `yaml:"id" json:"id"`
	Name          string   `yaml:"name" json:"name"`
	Tier          Tier     `yaml:"tier" json:"tier,omitempty"`
	Evidence      string   `yaml:"evidence" json:"evidence,omitempty"`
	Category      Category `yaml:"category" json:"category,omitempty"`
	ExperienceIDs []string `yaml:"experience_ids" json:"experience_ids,omitempty"`
}

// Portfolio is everything the site renders.
type Portfolio struct {
	User       User         `yaml:"user" json:"user"`
	Experience []Experience `yaml:"experience" json:"experience"`
	Education  []Education  `yaml:"education" json:"education"`
	Projects   []Project    `yaml:"projects" json:"projects"`
	Skills     []Skill      `yaml:"skills" json:"skills"`
}

// Validate checks ids and cross references.
func (p *Portfolio) Validate() error {
	if p.User.FullName == "" {
		return fmt.Errorf("user.full_name is required")
	}

	expIDs := make(map[string]bool, len(p.Experience))
	for i, e := range p.Experience {
		if e.ID == "" {
			return fmt.Errorf("experience[%d]: id is required", i)
		}
		if expIDs[e.ID] {
			return fmt.Errorf("experience[%d]: duplicate id %q", i, e.ID)
		}
		expIDs[e.ID] = true
		if e.Date != "" {
			if _, err := ParsePeriod(e.Date); err != nil {
				return fmt.Errorf("experience %q: %w", e.ID, err)
			}
		}
	}

	skillIDs := make(map[string]bool, len(p.Skills))
	for i, s := range p.Skills {
		if s.ID == "" {
			return fmt.Errorf("skills[%d]: id is required", i)
		}
		if skillIDs[s.ID] {
			return fmt.Errorf("skills[%d]: duplicate id %q", i, s.ID)
		}
		skillIDs[s.ID] = true
		switch s.Tier {
		case "", TierExpert, TierProficient, TierFamiliar:
		default:
			return fmt.Errorf("skill %q: invalid tier %q", s.ID, s.Tier)
		}
		if s.Category != "" && !slices.Contains(Categories, s.Category) {
			return fmt.Errorf("skill %q: invalid category %q", s.ID, s.Category)
		}
		for _, id := range s.ExperienceIDs {
			if !expIDs[id] {
				return fmt.Errorf("skill %q: unknown experience %q", s.ID, id)
			}
		}
	}

	for _, e := range p.Experience {
		for _, id := range e.SkillIDs {
			if !skillIDs[id] {
				return fmt.Errorf("experience %q: unknown skill %q", e.ID, id)
			}
		}
	}
	return nil
}

// ExperienceByID looks up an experience.
func (p *Portfolio) ExperienceByID(id string) (Experience, error) {
	for _, e := range p.Experience {
		if e.ID == id {
			return e, nil
		}
	}
	return Experience{}, fmt.Errorf("experience %q: %w", id, ErrNotFound)
}

// ExperienceBySlug looks up an experience by its Slug.
func (p *Portfolio) ExperienceBySlug(slug string) (Experience, error) {
	for _, e := range p.Experience {
		if Slug(e) == slug {
			return e, nil
		}
	}
	return Experience{}, fmt.Errorf("experience slug %q: %w", slug, ErrNotFound)
}

// Social returns the link with the given name, ignoring case.
func (u User) Social(name string) (SocialLink, bool) {
	for _, l := range u.SocialLinks {
		if strings.EqualFold(l.Name, name) {
			return l, true
		}
	}
	return SocialLink{}, false
}
