package content

import (
	"slices"
	"sort"
)

// YearGroup is the experiences that started in one year.
type YearGroup struct {
	Year        string
	Experiences []Experience
}

// GroupByYear groups experiences by start year, newest year first. Entries
// without a recognisable year are collected under "na" at the end.
func GroupByYear(exps []Experience) []YearGroup {
	index := make(map[string]int)
	var groups []YearGroup
	for _, e := range exps {
		y := Year(e.Date)
		i, ok := index[y]
		if !ok {
			i = len(groups)
			index[y] = i
			groups = append(groups, YearGroup{Year: y})
		}
		groups[i].Experiences = append(groups[i].Experiences, e)
	}

	sort.SliceStable(groups, func(i, j int) bool {
		a, b := groups[i].Year, groups[j].Year
		if a == "na" || b == "na" {
			return b == "na" && a != "na"
		}
		return a > b
	})
	for _, g := range groups {
		sort.SliceStable(g.Experiences, func(i, j int) bool {
			return startKey(g.Experiences[i]) > startKey(g.Experiences[j])
		})
	}
	return groups
}

func startKey(e Experience) int {
	p, err := ParsePeriod(e.Date)
	if err != nil {
		return 0
	}
	return p.Start.Year*100 + int(p.Start.Month)
}

// SkillGroup is one category of the skills matrix.
type SkillGroup struct {
	Category Category
	Label    string
	Skills   []Skill
}

// GroupSkills buckets skills by category in display order, skipping empty
// categories. Uncategorised skills are dropped.
func GroupSkills(skills []Skill) []SkillGroup {
	var groups []SkillGroup
	for _, c := range Categories {
		g := SkillGroup{Category: c, Label: c.Label(), Skills: FilterSkills(skills, c)}
		if len(g.Skills) > 0 {
			groups = append(groups, g)
		}
	}
	return groups
}

// FilterSkills returns the skills in category; "" or "all" returns every
// skill.
func FilterSkills(skills []Skill, category Category) []Skill {
	if category == "" || category == "all" {
		return skills
	}
	var out []Skill
	for _, s := range skills {
		if s.Category == category {
			out = append(out, s)
		}
	}
	return out
}

// SkillsFor returns the skills linked to an experience from either side.
func (p *Portfolio) SkillsFor(expID string) []Skill {
	var linked []string
	for _, e := range p.Experience {
		if e.ID == expID {
			linked = e.SkillIDs
			break
		}
	}
	var out []Skill
	for _, s := range p.Skills {
		if slices.Contains(s.ExperienceIDs, expID) || slices.Contains(linked, s.ID) {
			out = append(out, s)
		}
	}
	return out
}
