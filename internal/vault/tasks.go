package vault

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	appLog "jarvis/internal/log"
	"jarvis/internal/source"
)

// Task is one checkbox entry from the vault's Tasks.md.
type Task struct {
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
	DueDate   string `json:"due_date,omitempty"`
	Priority  string `json:"priority"`
}

var (
	taskRe    = regexp.MustCompile(`(?m)^\s*-\s*\[([ xX])\]\s*(.+)$`)
	dueDateRe = regexp.MustCompile(`📅\s*(\d{4}-\d{2}-\d{2})`)
)

// Tasks parses Tasks.md at the vault root. Completed entries are
// filtered out unless requested. A missing file yields no tasks.
func (a *Adapter) Tasks(ctx context.Context, includeCompleted bool) ([]Task, error) {
	if !a.connected {
		return nil, source.FetchError(sourceName, "not connected", nil)
	}

	raw, err := os.ReadFile(filepath.Join(a.root, "Tasks.md"))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []Task{}, nil
		}
		return nil, source.FetchError(sourceName, "read tasks", err)
	}

	tasks := []Task{}
	for _, m := range taskRe.FindAllStringSubmatch(string(raw), -1) {
		completed := strings.EqualFold(m[1], "x")
		if completed && !includeCompleted {
			continue
		}
		text := strings.TrimSpace(m[2])

		due := ""
		if dm := dueDateRe.FindStringSubmatch(text); dm != nil {
			due = dm[1]
		}

		priority := "normal"
		switch {
		case strings.Contains(text, "⏫"):
			priority = "high"
		case strings.Contains(text, "🔼"):
			priority = "medium"
		case strings.Contains(text, "🔽"):
			priority = "low"
		}

		tasks = append(tasks, Task{
			Text:      text,
			Completed: completed,
			DueDate:   due,
			Priority:  priority,
		})
	}

	return tasks, nil
}

// AppendToDaily appends content under a section of the daily note,
// creating the note and the section as needed.
func (a *Adapter) AppendToDaily(ctx context.Context, date, section, content string) error {
	if !a.connected {
		return source.FetchError(sourceName, "not connected", nil)
	}

	path := a.dailyNotePath(date)

	var existing string
	raw, err := os.ReadFile(path)
	switch {
	case err == nil:
		existing = string(raw)
	case errors.Is(err, fs.ErrNotExist):
		if mkErr := os.MkdirAll(filepath.Dir(path), 0o700); mkErr != nil {
			return source.FetchError(sourceName, "create daily notes folder", mkErr)
		}
		existing = "# " + date + "\n\n"
	default:
		return source.FetchError(sourceName, "read daily note", err)
	}

	updated := appendToSection(existing, section, content)
	if err := os.WriteFile(path, []byte(updated), 0o600); err != nil {
		return source.FetchError(sourceName, "write daily note", err)
	}

	appLog.Info("updated daily note", "date", date, "section", section)
	return nil
}

// appendToSection inserts content at the end of the named section, or
// appends a new section when none exists.
func appendToSection(existing, section, content string) string {
	sectionRe := regexp.MustCompile(`(?im)^#+\s*` + regexp.QuoteMeta(section) + `\s*$`)
	if !sectionRe.MatchString(existing) {
		return existing + "\n## " + section + "\n" + content + "\n"
	}

	lines := strings.Split(existing, "\n")
	out := make([]string, 0, len(lines)+1)
	inSection := false
	added := false

	for _, line := range lines {
		if inSection && !added && headingRe.MatchString(line) {
			out = append(out, content)
			added = true
			inSection = false
		}
		out = append(out, line)
		if sectionRe.MatchString(line) {
			inSection = true
		}
	}
	if !added {
		out = append(out, content)
	}

	return strings.Join(out, "\n")
}
