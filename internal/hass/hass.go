// Package hass is a REST adapter for a Home Assistant instance:
// entity-state reads, service calls, and TTS delivery.
package hass

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	appLog "jarvis/internal/log"
	"jarvis/internal/source"
)

const sourceName = "home_assistant"

// Adapter talks to the Home Assistant REST API with a long-lived access
// token.
type Adapter struct {
	baseURL   string
	token     string
	client    *http.Client
	connected bool
}

func New(baseURL, token string) *Adapter {
	return &Adapter{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (a *Adapter) Name() string    { return sourceName }
func (a *Adapter) Connected() bool { return a.connected }

// Connect verifies the API is reachable and the token is accepted.
func (a *Adapter) Connect(ctx context.Context) error {
	if a.baseURL == "" || a.token == "" {
		return source.ConnectionError(sourceName, "credentials not configured", nil)
	}

	status, _, err := a.get(ctx, "/api/")
	if err != nil {
		return source.ConnectionError(sourceName, "unreachable", err)
	}
	switch status {
	case http.StatusOK:
		a.connected = true
		appLog.Info("connected to home assistant", "url", a.baseURL)
		return nil
	case http.StatusUnauthorized, http.StatusForbidden:
		return source.AuthError(sourceName, "token rejected", nil)
	default:
		return source.ConnectionError(sourceName, fmt.Sprintf("unexpected status %d", status), nil)
	}
}

func (a *Adapter) Disconnect(ctx context.Context) error {
	a.connected = false
	return nil
}

func (a *Adapter) HealthCheck(ctx context.Context) bool {
	if !a.connected {
		return false
	}
	status, _, err := a.get(ctx, "/api/")
	return err == nil && status == http.StatusOK
}

// EntityState is one entity's current state.
type EntityState struct {
	EntityID    string         `json:"entity_id"`
	State       string         `json:"state"`
	Attributes  map[string]any `json:"attributes"`
	LastChanged string         `json:"last_changed"`
}

// Attr returns a named attribute, or nil when absent.
func (s EntityState) Attr(name string) any {
	if s.Attributes == nil {
		return nil
	}
	return s.Attributes[name]
}

// FetchEntityState reads the current state of one entity.
func (a *Adapter) FetchEntityState(ctx context.Context, entityID string) (EntityState, error) {
	if !a.connected {
		return EntityState{}, source.FetchError(sourceName, "not connected", nil)
	}

	status, body, err := a.get(ctx, "/api/states/"+entityID)
	if err != nil {
		return EntityState{}, source.FetchError(sourceName, "state request failed", err)
	}
	if status != http.StatusOK {
		return EntityState{}, source.FetchError(sourceName, fmt.Sprintf("entity %s: status %d", entityID, status), nil)
	}

	parsed := gjson.ParseBytes(body)
	state := EntityState{
		EntityID:    parsed.Get("entity_id").String(),
		State:       parsed.Get("state").String(),
		LastChanged: parsed.Get("last_changed").String(),
	}
	if attrs, ok := parsed.Get("attributes").Value().(map[string]any); ok {
		state.Attributes = attrs
	}
	return state, nil
}

// CallService invokes a Home Assistant service, e.g. light.turn_on.
func (a *Adapter) CallService(ctx context.Context, domain, service string, data map[string]any) error {
	if !a.connected {
		return source.FetchError(sourceName, "not connected", nil)
	}

	payload, err := json.Marshal(data)
	if err != nil {
		return source.FetchError(sourceName, "encode service data", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		a.baseURL+"/api/services/"+domain+"/"+service, bytes.NewReader(payload))
	if err != nil {
		return source.FetchError(sourceName, "build service request", err)
	}
	a.authorize(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return source.FetchError(sourceName, "service request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return source.FetchError(sourceName, fmt.Sprintf("%s.%s: status %d", domain, service, resp.StatusCode), nil)
	}

	appLog.Info("called home assistant service", "domain", domain, "service", service)
	return nil
}

// Speak delivers a message to a media player via TTS. Failures are
// reported but callers generally treat speech as best effort.
func (a *Adapter) Speak(ctx context.Context, message, mediaPlayer string) error {
	if mediaPlayer == "" {
		mediaPlayer = "media_player.living_room"
	}
	return a.CallService(ctx, "tts", "speak", map[string]any{
		"entity_id": mediaPlayer,
		"message":   message,
	})
}

// TurnOn switches an entity on; the service domain is derived from the
// entity id.
func (a *Adapter) TurnOn(ctx context.Context, entityID string) error {
	return a.CallService(ctx, entityDomain(entityID), "turn_on", map[string]any{"entity_id": entityID})
}

// TurnOff switches an entity off.
func (a *Adapter) TurnOff(ctx context.Context, entityID string) error {
	return a.CallService(ctx, entityDomain(entityID), "turn_off", map[string]any{"entity_id": entityID})
}

// Toggle flips an entity's state.
func (a *Adapter) Toggle(ctx context.Context, entityID string) error {
	return a.CallService(ctx, entityDomain(entityID), "toggle", map[string]any{"entity_id": entityID})
}

func entityDomain(entityID string) string {
	if i := strings.IndexByte(entityID, '.'); i > 0 {
		return entityID[:i]
	}
	return entityID
}

func (a *Adapter) get(ctx context.Context, path string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+path, nil)
	if err != nil {
		return 0, nil, err
	}
	a.authorize(req)

	resp, err := a.client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, err
	}
	return resp.StatusCode, body, nil
}

func (a *Adapter) authorize(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+a.token)
}
