package agent

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/packages/param"
	"github.com/openai/openai-go/responses"
	"github.com/tidwall/gjson"

	"jarvis/internal/calendar"
	"jarvis/internal/health"
	appLog "jarvis/internal/log"
	"jarvis/internal/source"
	"jarvis/internal/vault"
)

const systemPrompt = `You are a personal assistant with access to the user's notes vault,
health trackers, calendars, and smart home. Use the available tools to answer questions
about the user's day, health, schedule, tasks, and food log, and to update the daily note
or speak through the home speakers when asked. Be concise and concrete; prefer tool data
over guessing. Dates are YYYY-MM-DD; an omitted date means today.`

// Notes is the vault slice the agent's tools need.
type Notes interface {
	FetchDaily(ctx context.Context, date string) (vault.DailyNote, error)
	SearchNotes(ctx context.Context, query string, maxResults int) ([]vault.SearchResult, error)
	Tasks(ctx context.Context, includeCompleted bool) ([]vault.Task, error)
	AppendToDaily(ctx context.Context, date, section, content string) error
}

// Health is the health-aggregator slice the agent's tools need.
type Health interface {
	Summary(ctx context.Context, day time.Time) (health.Summary, error)
}

// Calendar is the calendar-aggregator slice the agent's tools need.
type Calendar interface {
	MergedEvents(ctx context.Context, day time.Time) (calendar.Merged, error)
	FreeSlotsFor(ctx context.Context, day time.Time, window calendar.Window) ([]calendar.FreeSlot, error)
	NextEvent(ctx context.Context) (*source.CalendarEvent, error)
}

// Speaker delivers spoken messages through the home.
type Speaker interface {
	Speak(ctx context.Context, message, mediaPlayer string) error
}

// Deps are the tool backends. Any of them may be nil; the matching
// tools then report unavailability to the model.
type Deps struct {
	Notes    Notes
	Health   Health
	Calendar Calendar
	Speaker  Speaker
}

// Agent runs the tool-call loop over a persistent conversation history.
type Agent struct {
	client *Client
	deps   Deps
	window calendar.Window
	loc    *time.Location

	mu      sync.Mutex
	history []responses.ResponseInputItemUnionParam
}

func New(client *Client, deps Deps, window calendar.Window, loc *time.Location) *Agent {
	if loc == nil {
		loc = time.Local
	}
	return &Agent{
		client:  client,
		deps:    deps,
		window:  window,
		loc:     loc,
		history: []responses.ResponseInputItemUnionParam{},
	}
}

// Chat sends one user message and runs the model until it stops calling
// tools, returning the final answer. History accumulates across calls.
func (a *Agent) Chat(ctx context.Context, message string) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.history = append(a.history, userMessage(message))

	for {
		res, err := a.client.getResponse(ctx, &responseInput{
			SystemPrompt: systemPrompt,
			History:      a.history,
			Tools:        a.tools(),
		})
		if err != nil {
			return "", err
		}

		if len(res.ToolCalls) == 0 {
			a.history = append(a.history, assistantMessage(res.Answer))
			return res.Answer, nil
		}

		for _, call := range res.ToolCalls {
			a.history = append(a.history, responses.ResponseInputItemParamOfFunctionCall(call.Arguments, call.CallID, call.Name))
			output := a.dispatch(ctx, call.Name, call.Arguments)
			a.history = append(a.history, responses.ResponseInputItemParamOfFunctionCallOutput(call.CallID, output))
		}
	}
}

func (a *Agent) tools() []openai.FunctionDefinitionParam {
	dateParam := map[string]any{"type": "string", "description": "Date as YYYY-MM-DD; omit for today."}

	return []openai.FunctionDefinitionParam{
		{
			Name:        "get_daily_note",
			Description: param.NewOpt("Read the daily note for a date: frontmatter, content preview, food log, training section."),
			Parameters: openai.FunctionParameters{
				"type":       "object",
				"properties": map[string]any{"date": dateParam},
			},
		},
		{
			Name:        "search_notes",
			Description: param.NewOpt("Full-text search across the notes vault."),
			Parameters: openai.FunctionParameters{
				"type": "object",
				"properties": map[string]any{
					"query":       map[string]any{"type": "string"},
					"max_results": map[string]any{"type": "integer"},
				},
				"required": []string{"query"},
			},
		},
		{
			Name:        "get_tasks",
			Description: param.NewOpt("List tasks from the vault's task list."),
			Parameters: openai.FunctionParameters{
				"type": "object",
				"properties": map[string]any{
					"include_completed": map[string]any{"type": "boolean"},
				},
			},
		},
		{
			Name:        "get_food_log",
			Description: param.NewOpt("Read the food log entries from a day's daily note."),
			Parameters: openai.FunctionParameters{
				"type":       "object",
				"properties": map[string]any{"date": dateParam},
			},
		},
		{
			Name:        "get_health_summary",
			Description: param.NewOpt("Merged health summary for a date: sleep, recovery, activity, heart rate, workouts."),
			Parameters: openai.FunctionParameters{
				"type":       "object",
				"properties": map[string]any{"date": dateParam},
			},
		},
		{
			Name:        "get_calendar_events",
			Description: param.NewOpt("Merged personal and work calendar for a date, with conflicts and counts."),
			Parameters: openai.FunctionParameters{
				"type":       "object",
				"properties": map[string]any{"date": dateParam},
			},
		},
		{
			Name:        "get_next_event",
			Description: param.NewOpt("The next upcoming timed calendar event today, if any."),
			Parameters: openai.FunctionParameters{
				"type":       "object",
				"properties": map[string]any{},
			},
		},
		{
			Name:        "get_free_slots",
			Description: param.NewOpt("Free time slots in the work-hour window for a date."),
			Parameters: openai.FunctionParameters{
				"type":       "object",
				"properties": map[string]any{"date": dateParam},
			},
		},
		{
			Name:        "append_to_daily_note",
			Description: param.NewOpt("Append content under a section of a day's daily note."),
			Parameters: openai.FunctionParameters{
				"type": "object",
				"properties": map[string]any{
					"date":    dateParam,
					"section": map[string]any{"type": "string"},
					"content": map[string]any{"type": "string"},
				},
				"required": []string{"section", "content"},
			},
		},
		{
			Name:        "speak",
			Description: param.NewOpt("Speak a message through a home media player."),
			Parameters: openai.FunctionParameters{
				"type": "object",
				"properties": map[string]any{
					"message":      map[string]any{"type": "string"},
					"media_player": map[string]any{"type": "string"},
				},
				"required": []string{"message"},
			},
		},
	}
}

// dispatch runs one tool call. Tool failures are returned to the model
// as error strings, never surfaced as Chat errors.
func (a *Agent) dispatch(ctx context.Context, name, args string) string {
	parsed := gjson.Parse(args)

	switch name {
	case "get_daily_note":
		if a.deps.Notes == nil {
			return toolError("notes vault not available")
		}
		note, err := a.deps.Notes.FetchDaily(ctx, a.dateArg(parsed))
		return toolResult(note, err)

	case "search_notes":
		if a.deps.Notes == nil {
			return toolError("notes vault not available")
		}
		results, err := a.deps.Notes.SearchNotes(ctx, parsed.Get("query").String(), int(parsed.Get("max_results").Int()))
		return toolResult(results, err)

	case "get_tasks":
		if a.deps.Notes == nil {
			return toolError("notes vault not available")
		}
		tasks, err := a.deps.Notes.Tasks(ctx, parsed.Get("include_completed").Bool())
		return toolResult(tasks, err)

	case "get_food_log":
		if a.deps.Notes == nil {
			return toolError("notes vault not available")
		}
		note, err := a.deps.Notes.FetchDaily(ctx, a.dateArg(parsed))
		if err != nil {
			return toolError(err.Error())
		}
		return toolResult(note.Food, nil)

	case "get_health_summary":
		if a.deps.Health == nil {
			return toolError("health sources not available")
		}
		summary, err := a.deps.Health.Summary(ctx, a.dayArg(parsed))
		return toolResult(summary, err)

	case "get_calendar_events":
		if a.deps.Calendar == nil {
			return toolError("calendar sources not available")
		}
		merged, err := a.deps.Calendar.MergedEvents(ctx, a.dayArg(parsed))
		return toolResult(merged, err)

	case "get_next_event":
		if a.deps.Calendar == nil {
			return toolError("calendar sources not available")
		}
		next, err := a.deps.Calendar.NextEvent(ctx)
		if err != nil {
			return toolError(err.Error())
		}
		if next == nil {
			return `{"next_event":null}`
		}
		return toolResult(next, nil)

	case "get_free_slots":
		if a.deps.Calendar == nil {
			return toolError("calendar sources not available")
		}
		slots, err := a.deps.Calendar.FreeSlotsFor(ctx, a.dayArg(parsed), a.window)
		return toolResult(slots, err)

	case "append_to_daily_note":
		if a.deps.Notes == nil {
			return toolError("notes vault not available")
		}
		err := a.deps.Notes.AppendToDaily(ctx, a.dateArg(parsed), parsed.Get("section").String(), parsed.Get("content").String())
		if err != nil {
			return toolError(err.Error())
		}
		return `{"ok":true}`

	case "speak":
		if a.deps.Speaker == nil {
			return toolError("smart home not available")
		}
		err := a.deps.Speaker.Speak(ctx, parsed.Get("message").String(), parsed.Get("media_player").String())
		if err != nil {
			return toolError(err.Error())
		}
		return `{"ok":true}`

	default:
		appLog.Warn("agent requested unknown tool", nil, "tool", name)
		return toolError("unknown tool: " + name)
	}
}

// dateArg reads the date argument as a string, defaulting to today.
func (a *Agent) dateArg(parsed gjson.Result) string {
	if v := parsed.Get("date").String(); v != "" {
		return v
	}
	return time.Now().In(a.loc).Format("2006-01-02")
}

// dayArg reads the date argument as a time, defaulting to today. A
// malformed date falls back to today rather than failing the call.
func (a *Agent) dayArg(parsed gjson.Result) time.Time {
	if v := parsed.Get("date").String(); v != "" {
		if day, err := time.ParseInLocation("2006-01-02", v, a.loc); err == nil {
			return day
		}
	}
	return time.Now().In(a.loc)
}

func toolResult(v any, err error) string {
	if err != nil {
		return toolError(err.Error())
	}
	data, merr := json.Marshal(v)
	if merr != nil {
		return toolError("encode tool result: " + merr.Error())
	}
	return string(data)
}

func toolError(msg string) string {
	data, _ := json.Marshal(map[string]string{"error": msg})
	return string(data)
}
