package notion

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// TitleStrategy extracts a title from one of the page layouts Notion has sent.
type TitleStrategy func(p *Page) (string, bool)

// PropertyTitle reads the first fragment of a title property.
func PropertyTitle(name string) TitleStrategy {
	return func(p *Page) (string, bool) {
		prop, ok := p.Properties[name]
		if !ok || len(prop.Title) == 0 {
			return "", false
		}
		return clean(prop.Title[0].Content())
	}
}

// PageTitle reads the first fragment of the page-level title.
func PageTitle(p *Page) (string, bool) {
	if len(p.Title) == 0 {
		return "", false
	}
	return clean(p.Title[0].Content())
}

var (
	// ProjectTitle is tried in order on project pages.
	ProjectTitle = []TitleStrategy{PropertyTitle("Project name"), PropertyTitle("Name"), PageTitle}
	// TaskTitle is tried in order on task pages.
	TaskTitle = []TitleStrategy{PropertyTitle("Task name"), PropertyTitle("Name"), PageTitle}
)

// ExtractTitle returns the first title produced by strategies.
func ExtractTitle(p *Page, strategies []TitleStrategy) (string, bool) {
	for _, strategy := range strategies {
		if title, ok := strategy(p); ok {
			return title, true
		}
	}
	return "", false
}

// ProjectName returns the project title or "Project {id}".
func ProjectName(p *Page) string {
	if title, ok := ExtractTitle(p, ProjectTitle); ok {
		return title
	}
	return "Project " + p.ID
}

// TaskName returns the task title or "Task {id}".
func TaskName(p *Page) string {
	if title, ok := ExtractTitle(p, TaskTitle); ok {
		return title
	}
	return "Task " + p.ID
}

func clean(s string) (string, bool) {
	s = norm.NFC.String(strings.TrimSpace(s))
	return s, s != ""
}
