// Package vault reads and writes a local markdown notes vault: daily
// notes with YAML frontmatter, food logs, training plans, checkbox
// tasks, and full-text search.
package vault

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	appLog "jarvis/internal/log"
	"jarvis/internal/source"
)

const sourceName = "vault"

// ErrNotFound reports a note that does not exist in the vault.
var ErrNotFound = errors.New("note not found")

// Adapter is the notes-vault source. It is "connected" when the vault
// root exists and is a directory.
type Adapter struct {
	root        string
	dailyFolder string
	dailyLayout string
	connected   bool
}

// Config holds the vault location and daily-note conventions.
type Config struct {
	Path        string
	DailyFolder string // folder holding daily notes, relative to the root
	DailyLayout string // Go time layout for daily note filenames
}

func New(cfg Config) *Adapter {
	if cfg.DailyFolder == "" {
		cfg.DailyFolder = "Daily Notes"
	}
	if cfg.DailyLayout == "" {
		cfg.DailyLayout = "2006-01-02"
	}
	return &Adapter{
		root:        cfg.Path,
		dailyFolder: cfg.DailyFolder,
		dailyLayout: cfg.DailyLayout,
	}
}

func (a *Adapter) Name() string    { return sourceName }
func (a *Adapter) Connected() bool { return a.connected }

// Connect verifies the vault root exists.
func (a *Adapter) Connect(ctx context.Context) error {
	info, err := os.Stat(a.root)
	if err != nil {
		appLog.Warn("vault not found", err, "path", a.root)
		return source.ConnectionError(sourceName, "vault not found", err)
	}
	if !info.IsDir() {
		return source.ConnectionError(sourceName, "vault path is not a directory", nil)
	}
	a.connected = true
	appLog.Info("connected to vault", "path", a.root)
	return nil
}

func (a *Adapter) Disconnect(ctx context.Context) error {
	a.connected = false
	return nil
}

func (a *Adapter) HealthCheck(ctx context.Context) bool {
	info, err := os.Stat(a.root)
	return err == nil && info.IsDir()
}

// FoodEntry is one parsed food-log line.
type FoodEntry struct {
	Meal string `json:"meal"`
	Food string `json:"food"`
}

// DailyNote is the fetched content of one day's note.
type DailyNote struct {
	Date           string         `json:"date"`
	Source         string         `json:"source"`
	Exists         bool           `json:"exists"`
	Frontmatter    map[string]any `json:"frontmatter,omitempty"`
	ContentPreview string         `json:"content_preview,omitempty"`
	Food           []FoodEntry    `json:"food,omitempty"`
	FoodRaw        string         `json:"food_raw,omitempty"`
	Training       string         `json:"training,omitempty"`
}

// dailyNotePath maps a canonical ISO date onto the vault's daily-note
// filename convention.
func (a *Adapter) dailyNotePath(date string) string {
	name := date
	if a.dailyLayout != source.DateFormat {
		if t, err := time.Parse(source.DateFormat, date); err == nil {
			name = t.Format(a.dailyLayout)
		}
	}
	return filepath.Join(a.root, a.dailyFolder, name+".md")
}

// FetchDaily reads the daily note for a date, splitting frontmatter and
// extracting the Food and Training sections. A missing note is not an
// error; Exists reports it.
func (a *Adapter) FetchDaily(ctx context.Context, date string) (DailyNote, error) {
	if !a.connected {
		return DailyNote{}, source.FetchError(sourceName, "not connected", nil)
	}

	note := DailyNote{Date: date, Source: sourceName}
	path := a.dailyNotePath(date)

	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return note, nil
		}
		return DailyNote{}, source.FetchError(sourceName, "read daily note", err)
	}

	note.Exists = true
	frontmatter, body := splitFrontmatter(string(raw))
	note.Frontmatter = frontmatter
	note.ContentPreview = preview(body, 500)

	if food := extractSection(body, "Food"); food != "" {
		note.Food = parseFoodSection(food)
		note.FoodRaw = food
	}
	note.Training = extractSection(body, "Training")

	appLog.Debug("fetched daily note", "date", date, "exists", note.Exists)
	return note, nil
}

// Note is a single vault note by path.
type Note struct {
	Name    string `json:"name"`
	Path    string `json:"path"`
	Content string `json:"content"`
}

// TrainingPlan finds a plan note whose filename contains the given name
// (case-insensitive) and returns its body with frontmatter stripped.
func (a *Adapter) TrainingPlan(ctx context.Context, planName string) (Note, error) {
	if !a.connected {
		return Note{}, source.FetchError(sourceName, "not connected", nil)
	}

	lower := strings.ToLower(planName)
	var found Note
	err := filepath.WalkDir(a.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(d.Name(), ".md") {
			return nil
		}
		stem := strings.TrimSuffix(d.Name(), ".md")
		if !strings.Contains(strings.ToLower(stem), lower) {
			return nil
		}
		raw, rerr := os.ReadFile(path)
		if rerr != nil {
			return nil
		}
		_, body := splitFrontmatter(string(raw))
		rel, _ := filepath.Rel(a.root, path)
		found = Note{Name: stem, Path: rel, Content: body}
		return fs.SkipAll
	})
	if err != nil {
		return Note{}, source.FetchError(sourceName, "scan vault", err)
	}
	if found.Name == "" {
		return Note{}, fmt.Errorf("training plan %q: %w", planName, ErrNotFound)
	}
	return found, nil
}

// ReadNote reads a note by vault-relative path.
func (a *Adapter) ReadNote(ctx context.Context, rel string) (Note, error) {
	if !a.connected {
		return Note{}, source.FetchError(sourceName, "not connected", nil)
	}
	path := filepath.Join(a.root, filepath.FromSlash(rel))
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Note{}, fmt.Errorf("%s: %w", rel, ErrNotFound)
		}
		return Note{}, source.FetchError(sourceName, "read note", err)
	}
	stem := strings.TrimSuffix(filepath.Base(path), ".md")
	return Note{Name: stem, Path: rel, Content: string(raw)}, nil
}

// SearchMatch is one matching line inside a note.
type SearchMatch struct {
	Line int    `json:"line"`
	Text string `json:"text"`
}

// SearchResult is one note matching a search query.
type SearchResult struct {
	Path    string        `json:"path"`
	Title   string        `json:"title"`
	Matches []SearchMatch `json:"matches"`
}

// SearchNotes scans the vault for notes containing the query,
// case-insensitively. At most maxResults notes are returned, each with
// its first three matching lines. Hidden folders are skipped.
func (a *Adapter) SearchNotes(ctx context.Context, query string, maxResults int) ([]SearchResult, error) {
	if !a.connected {
		return nil, source.FetchError(sourceName, "not connected", nil)
	}
	if maxResults <= 0 {
		maxResults = 10
	}

	lower := strings.ToLower(query)
	results := []SearchResult{}

	err := filepath.WalkDir(a.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && path != a.root {
				return fs.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(d.Name(), ".md") {
			return nil
		}

		raw, rerr := os.ReadFile(path)
		if rerr != nil {
			return nil
		}
		content := string(raw)
		if !strings.Contains(strings.ToLower(content), lower) {
			return nil
		}

		matches := []SearchMatch{}
		for i, line := range strings.Split(content, "\n") {
			if strings.Contains(strings.ToLower(line), lower) {
				matches = append(matches, SearchMatch{
					Line: i + 1,
					Text: preview(strings.TrimSpace(line), 200),
				})
				if len(matches) == 3 {
					break
				}
			}
		}

		rel, _ := filepath.Rel(a.root, path)
		results = append(results, SearchResult{
			Path:    rel,
			Title:   strings.TrimSuffix(d.Name(), ".md"),
			Matches: matches,
		})
		if len(results) >= maxResults {
			return fs.SkipAll
		}
		return nil
	})
	if err != nil {
		return nil, source.FetchError(sourceName, "scan vault", err)
	}
	return results, nil
}

var (
	headingRe = regexp.MustCompile(`^#+\s+`)
	foodRe    = regexp.MustCompile(`^-\s*\*\*(.+?)\*\*:\s*(.+)$`)
)

// splitFrontmatter separates a leading YAML frontmatter block from the
// note body. Malformed frontmatter is left in place.
func splitFrontmatter(content string) (map[string]any, string) {
	if !strings.HasPrefix(content, "---") {
		return nil, content
	}
	parts := strings.SplitN(content, "---", 3)
	if len(parts) < 3 {
		return nil, content
	}
	var fm map[string]any
	if err := yaml.Unmarshal([]byte(parts[1]), &fm); err != nil {
		return nil, content
	}
	return fm, strings.TrimSpace(parts[2])
}

// extractSection returns the content under a "## Name" heading (any
// level, case-insensitive), up to the next heading.
func extractSection(body, section string) string {
	sectionRe := regexp.MustCompile(`(?i)^#+\s*` + regexp.QuoteMeta(section) + `\s*$`)

	var collected []string
	inSection := false
	for _, line := range strings.Split(body, "\n") {
		if sectionRe.MatchString(line) {
			inSection = true
			continue
		}
		if inSection {
			if headingRe.MatchString(line) {
				break
			}
			collected = append(collected, line)
		}
	}
	return strings.TrimSpace(strings.Join(collected, "\n"))
}

// parseFoodSection parses "- **Meal**: items" lines, falling back to
// plain "- item" entries with an unspecified meal.
func parseFoodSection(section string) []FoodEntry {
	var items []FoodEntry
	for _, line := range strings.Split(section, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if m := foodRe.FindStringSubmatch(line); m != nil {
			items = append(items, FoodEntry{Meal: m[1], Food: m[2]})
		} else if strings.HasPrefix(line, "- ") {
			items = append(items, FoodEntry{Meal: "unspecified", Food: line[2:]})
		}
	}
	return items
}

func preview(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
