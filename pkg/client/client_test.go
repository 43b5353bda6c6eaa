package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/urmzd/shadepanel/pkg/api/types"
	"github.com/urmzd/shadepanel/pkg/device"
)

type recordedRequest struct {
	Method string
	Path   string
	Body   types.PositionRequest
}

func newCommandServer(t *testing.T, status int) (*httptest.Server, func() []recordedRequest) {
	t.Helper()
	var mu sync.Mutex
	var seen []recordedRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body types.PositionRequest
		_ = json.NewDecoder(r.Body).Decode(&body)
		mu.Lock()
		seen = append(seen, recordedRequest{Method: r.Method, Path: r.URL.EscapedPath(), Body: body})
		mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status == http.StatusOK {
			_ = json.NewEncoder(w).Encode(types.CommandResponse{Status: types.StatusSuccess, Count: 2})
		} else {
			_ = json.NewEncoder(w).Encode(types.ErrorResponse{Error: "not_found", Message: "Actor 'x' not found"})
		}
	}))
	t.Cleanup(srv.Close)

	return srv, func() []recordedRequest {
		mu.Lock()
		defer mu.Unlock()
		return append([]recordedRequest(nil), seen...)
	}
}

func TestSendPaths(t *testing.T) {
	tests := []struct {
		name string
		cmd  device.Command
		path string
	}{
		{"bulk position", device.Command{Scope: device.ScopeAll, Kind: device.KindPosition, Value: 0}, "/api/actors/all/position"},
		{"bulk tilt", device.Command{Scope: device.ScopeAll, Target: "all", Kind: device.KindTilt, Value: 50}, "/api/actors/all/tilt"},
		{"group slat", device.Command{Scope: device.ScopeGroup, Target: "ground floor", Kind: device.KindSlat, Value: 30}, "/api/groups/ground%20floor/slat"},
		{"actor position", device.Command{Scope: device.ScopeActor, Target: "kitchen", Kind: device.KindPosition, Value: 20}, "/api/actors/kitchen/position"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, seen := newCommandServer(t, http.StatusOK)
			c := New(srv.URL)

			if err := c.Send(context.Background(), tt.cmd); err != nil {
				t.Fatalf("Send: %v", err)
			}
			got := seen()
			if len(got) != 1 {
				t.Fatalf("got %d requests", len(got))
			}
			if got[0].Method != http.MethodPost || got[0].Path != tt.path {
				t.Errorf("request = %s %s, want POST %s", got[0].Method, got[0].Path, tt.path)
			}
			if got[0].Body.Position != tt.cmd.Value {
				t.Errorf("position = %d, want %d", got[0].Body.Position, tt.cmd.Value)
			}
		})
	}
}

func TestSendStatusError(t *testing.T) {
	srv, _ := newCommandServer(t, http.StatusNotFound)
	c := New(srv.URL)

	err := c.Send(context.Background(), device.Command{Scope: device.ScopeActor, Target: "x", Kind: device.KindPosition, Value: 1})
	var se *StatusError
	if !errors.As(err, &se) || se.Code != http.StatusNotFound {
		t.Fatalf("err = %v, want StatusError 404", err)
	}
	if !errors.Is(err, device.ErrNotFound) {
		t.Error("404 should unwrap to device.ErrNotFound")
	}
}

func TestSendValidatesBeforeRequest(t *testing.T) {
	srv, seen := newCommandServer(t, http.StatusOK)
	c := New(srv.URL)

	err := c.Send(context.Background(), device.Command{Scope: device.ScopeActor, Target: "x", Kind: device.KindPosition, Value: 101})
	if !errors.Is(err, device.ErrInvalidPosition) {
		t.Errorf("err = %v", err)
	}
	if len(seen()) != 0 {
		t.Error("invalid command must not reach the server")
	}
}

func TestSendTransportError(t *testing.T) {
	srv, _ := newCommandServer(t, http.StatusOK)
	url := srv.URL
	srv.Close()

	err := New(url).Send(context.Background(), device.Command{Scope: device.ScopeAll, Kind: device.KindPosition})
	if err == nil {
		t.Fatal("expected transport error")
	}
	var se *StatusError
	if errors.As(err, &se) {
		t.Error("transport failure should not be a StatusError")
	}
}

func TestActorsAndSettings(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/actors":
			_ = json.NewEncoder(w).Encode([]device.ActorStatus{{Name: "kitchen", Position: 40}})
		case "/api/settings":
			gotUA = r.Header.Get("User-Agent")
			_ = json.NewEncoder(w).Encode(types.SettingsResponse{SafeMode: true, ConfirmTimeoutMs: 3000})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()
	c := New(srv.URL)

	actors, err := c.Actors(context.Background())
	if err != nil || len(actors) != 1 || actors[0].Position != 40 {
		t.Fatalf("Actors = %+v, %v", actors, err)
	}

	settings, err := c.Settings(context.Background(), "iPhone")
	if err != nil {
		t.Fatal(err)
	}
	if !settings.SafeMode || settings.ConfirmTimeoutMs != 3000 || gotUA != "iPhone" {
		t.Errorf("settings = %+v, ua = %q", settings, gotUA)
	}

	if _, err := c.Groups(context.Background()); !errors.Is(err, device.ErrNotFound) {
		t.Errorf("Groups err = %v", err)
	}
}

func TestNewAddsScheme(t *testing.T) {
	if got := New("localhost:3000/").baseURL; got != "http://localhost:3000" {
		t.Errorf("baseURL = %q", got)
	}
}
