// Package palette builds the site's command palette and answers fuzzy
// searches against it.
package palette

import (
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/Zachkp/folio/internal/content"
)

// Kind says how the client should carry out a command.
type Kind string

const (
	KindNavigate Kind = "navigate" // scroll to an anchor on the page
	KindOpen     Kind = "open"     // open a URL
	KindCopy     Kind = "copy"     // copy Value to the clipboard
	KindDownload Kind = "download"
)

type Command struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Keywords string `json:"keywords"`
	Kind     Kind   `json:"kind"`
	Value    string `json:"value"`
}

// Result is a command with its match score; higher is better.
type Result struct {
	Command
	Score   int   `json:"score"`
	Matched []int `json:"matched,omitempty"`
}

var socialKeywords = map[string]string{
	"linkedin": "social network professional connect",
	"github":   "code repository projects source",
}

// Commands returns the palette for a user in display order.
func Commands(u content.User) []Command {
	cmds := []Command{
		{ID: "resume", Name: "Download Resume", Keywords: "resume cv download pdf", Kind: KindDownload, Value: u.ResumeURL},
		{ID: "experience", Name: "View Timeline", Keywords: "experience timeline history career work jobs", Kind: KindNavigate, Value: "#timeline"},
		{ID: "skills", Name: "View Skills", Keywords: "skills expertise abilities technologies", Kind: KindNavigate, Value: "#skills"},
		{ID: "email", Name: "Copy Email", Keywords: "contact mail reach", Kind: KindCopy, Value: u.Email},
		{ID: "contact", Name: "Send a Message", Keywords: "contact form message hire", Kind: KindNavigate, Value: "#contact"},
	}
	if u.ResumeURL == "" {
		cmds = cmds[1:]
	}
	for _, l := range u.SocialLinks {
		id := content.Slugify(l.Name)
		kw, ok := socialKeywords[id]
		if !ok {
			kw = "social link " + strings.ToLower(l.Name)
		}
		cmds = append(cmds, Command{ID: id, Name: l.Name + " Profile", Keywords: kw, Kind: KindOpen, Value: l.URL})
	}
	return cmds
}

type source []Command

func (s source) String(i int) string { return s[i].Name + " " + s[i].Keywords }
func (s source) Len() int            { return len(s) }

// Search fuzzy-matches query against each command's name and keywords. An
// empty query returns every command in order.
func Search(cmds []Command, query string) []Result {
	query = strings.TrimSpace(query)
	if query == "" {
		out := make([]Result, len(cmds))
		for i, c := range cmds {
			out[i] = Result{Command: c}
		}
		return out
	}

	matches := fuzzy.FindFrom(query, source(cmds))
	out := make([]Result, 0, len(matches))
	for _, m := range matches {
		out = append(out, Result{Command: cmds[m.Index], Score: m.Score, Matched: m.MatchedIndexes})
	}
	return out
}
