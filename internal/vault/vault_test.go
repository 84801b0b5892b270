package vault

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newTestVault(t *testing.T, files map[string]string) *Adapter {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatal(err)
		}
	}

	a := New(Config{Path: root})
	if err := a.Connect(context.Background()); err != nil {
		t.Fatalf("connect: %v", err)
	}
	return a
}

const sampleDaily = `---
mood: good
sleep_note: woke up early
---
# Monday

## Food
- **Breakfast**: oatmeal with berries
- **Lunch**: ramen
- snack bar

## Training
5k easy run, zone 2

## Journal
Long day.
`

func TestFetchDailyParsesNote(t *testing.T) {
	a := newTestVault(t, map[string]string{
		"Daily Notes/2025-06-02.md": sampleDaily,
	})

	note, err := a.FetchDaily(context.Background(), "2025-06-02")
	if err != nil {
		t.Fatal(err)
	}

	if !note.Exists {
		t.Fatal("note should exist")
	}
	if note.Frontmatter["mood"] != "good" {
		t.Errorf("frontmatter mood = %v", note.Frontmatter["mood"])
	}
	if len(note.Food) != 3 {
		t.Fatalf("food entries = %d, want 3", len(note.Food))
	}
	if note.Food[0].Meal != "Breakfast" || note.Food[0].Food != "oatmeal with berries" {
		t.Errorf("first food entry = %+v", note.Food[0])
	}
	if note.Food[2].Meal != "unspecified" || note.Food[2].Food != "snack bar" {
		t.Errorf("plain list entry = %+v", note.Food[2])
	}
	if note.Training != "5k easy run, zone 2" {
		t.Errorf("training = %q", note.Training)
	}
	if strings.Contains(note.ContentPreview, "mood:") {
		t.Error("frontmatter must not leak into the content preview")
	}
}

func TestFetchDailyMissingNote(t *testing.T) {
	a := newTestVault(t, nil)

	note, err := a.FetchDaily(context.Background(), "2025-06-02")
	if err != nil {
		t.Fatalf("missing note must not error, got %v", err)
	}
	if note.Exists {
		t.Error("note must report absent")
	}
}

func TestConnectRejectsMissingRoot(t *testing.T) {
	a := New(Config{Path: filepath.Join(t.TempDir(), "nope")})
	if err := a.Connect(context.Background()); err == nil {
		t.Fatal("connect must fail for a missing vault root")
	}
	if a.Connected() {
		t.Error("adapter must stay disconnected")
	}
}

func TestTrainingPlanLookup(t *testing.T) {
	a := newTestVault(t, map[string]string{
		"Training/Marathon Plan.md": "---\ntags: [training]\n---\nWeek 4: intervals",
		"Other/Unrelated.md":        "nothing here",
	})

	plan, err := a.TrainingPlan(context.Background(), "marathon")
	if err != nil {
		t.Fatal(err)
	}
	if plan.Name != "Marathon Plan" {
		t.Errorf("name = %q", plan.Name)
	}
	if plan.Content != "Week 4: intervals" {
		t.Errorf("content = %q, frontmatter must be stripped", plan.Content)
	}

	if _, err := a.TrainingPlan(context.Background(), "triathlon"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing plan err = %v, want ErrNotFound", err)
	}
}

func TestTasksParsing(t *testing.T) {
	a := newTestVault(t, map[string]string{
		"Tasks.md": strings.Join([]string{
			"- [ ] call the dentist 📅 2025-06-05 ⏫",
			"- [x] file taxes",
			"- [ ] water plants 🔽",
			"not a task line",
		}, "\n"),
	})

	open, err := a.Tasks(context.Background(), false)
	if err != nil {
		t.Fatal(err)
	}
	if len(open) != 2 {
		t.Fatalf("open tasks = %d, want 2", len(open))
	}
	if open[0].DueDate != "2025-06-05" || open[0].Priority != "high" {
		t.Errorf("first task = %+v", open[0])
	}
	if open[1].Priority != "low" {
		t.Errorf("second task = %+v", open[1])
	}

	all, err := a.Tasks(context.Background(), true)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 {
		t.Errorf("all tasks = %d, want 3", len(all))
	}
}

func TestAppendToDailyCreatesAndExtends(t *testing.T) {
	a := newTestVault(t, nil)
	ctx := context.Background()

	if err := a.AppendToDaily(ctx, "2025-06-02", "Food", "- **Dinner**: soup"); err != nil {
		t.Fatal(err)
	}

	note, err := a.FetchDaily(ctx, "2025-06-02")
	if err != nil {
		t.Fatal(err)
	}
	if len(note.Food) != 1 || note.Food[0].Meal != "Dinner" {
		t.Fatalf("food after create = %+v", note.Food)
	}

	// Appending again must extend the existing section, not duplicate it.
	if err := a.AppendToDaily(ctx, "2025-06-02", "Food", "- **Late snack**: tea"); err != nil {
		t.Fatal(err)
	}
	note, err = a.FetchDaily(ctx, "2025-06-02")
	if err != nil {
		t.Fatal(err)
	}
	if len(note.Food) != 2 {
		t.Errorf("food after append = %+v", note.Food)
	}
}

func TestSearchNotes(t *testing.T) {
	a := newTestVault(t, map[string]string{
		"Ideas.md":           "Build a bike repair stand\nbike maintenance checklist",
		"Journal/March.md":   "Rode the BIKE to work",
		".obsidian/state.md": "bike internals, must not be searched",
		"Recipes.md":         "tomato soup",
	})

	results, err := a.SearchNotes(context.Background(), "bike", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("results = %+v, want 2 notes", results)
	}
	for _, r := range results {
		if strings.HasPrefix(r.Path, ".obsidian") {
			t.Errorf("hidden folder leaked into results: %+v", r)
		}
	}

	limited, err := a.SearchNotes(context.Background(), "bike", 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(limited) != 1 {
		t.Errorf("limited results = %d, want 1", len(limited))
	}
}
