package web

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ritzau/gridlights/pkg/grid"
	"github.com/ritzau/gridlights/pkg/pubsub"
	"github.com/ritzau/gridlights/pkg/sim"
)

func newTestServer(t *testing.T) (*Server, *sim.Loop) {
	t.Helper()
	opts := sim.DefaultOptions()
	opts.Shape = grid.Square
	opts.CellSize = 40
	state := sim.New(opts, rand.New(rand.NewSource(7)))
	loop := sim.NewLoop(state, 60)
	return NewServer(loop), loop
}

func do(t *testing.T, s *Server, method, path string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestResizeAppliesOnNextTick(t *testing.T) {
	s, loop := newTestServer(t)

	rec := do(t, s, "POST", "/api/resize", []byte(`{"width":120,"height":120}`))
	if rec.Code != http.StatusAccepted {
		t.Fatalf("Expected 202, got %d: %s", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("Expected request id header")
	}

	var lines sim.GridLines
	if err := json.Unmarshal(do(t, s, "GET", "/api/grid", nil).Body.Bytes(), &lines); err != nil {
		t.Fatalf("Bad grid response: %v", err)
	}
	if len(lines.Segments) != 0 {
		t.Fatalf("Resize applied before a tick: %d segments", len(lines.Segments))
	}

	loop.Start()
	loop.Step(time.Now())

	if err := json.Unmarshal(do(t, s, "GET", "/api/grid", nil).Body.Bytes(), &lines); err != nil {
		t.Fatalf("Bad grid response: %v", err)
	}
	if lines.Nodes != 25 || len(lines.Segments) != 40 || lines.Shape != "square" {
		t.Errorf("Expected 5x5 square lattice, got %d nodes, %d segments, shape %q",
			lines.Nodes, len(lines.Segments), lines.Shape)
	}

	var frame sim.Frame
	if err := json.Unmarshal(do(t, s, "GET", "/api/frame", nil).Body.Bytes(), &frame); err != nil {
		t.Fatalf("Bad frame response: %v", err)
	}
	if frame.Frame != 1 || frame.GridVersion != lines.Version {
		t.Errorf("Unexpected frame %d for grid version %d (lines %d)", frame.Frame, frame.GridVersion, lines.Version)
	}
}

func TestResizeRejectsBadInput(t *testing.T) {
	s, _ := newTestServer(t)

	tests := []struct {
		name string
		body string
	}{
		{"not json", `width=3`},
		{"negative", `{"width":-1,"height":10}`},
		{"huge", `{"width":1e9,"height":10}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, "POST", "/api/resize", []byte(tt.body))
			if rec.Code != http.StatusBadRequest {
				t.Errorf("Expected 400, got %d", rec.Code)
			}
		})
	}
}

func TestStartStop(t *testing.T) {
	s, loop := newTestServer(t)

	var status pubsub.Status
	rec := do(t, s, "POST", "/api/start", nil)
	if err := json.Unmarshal(rec.Body.Bytes(), &status); err != nil {
		t.Fatalf("Bad status: %v", err)
	}
	if !status.Running || !loop.Running() {
		t.Error("Expected loop to be running after /api/start")
	}

	rec = do(t, s, "POST", "/api/stop", nil)
	if err := json.Unmarshal(rec.Body.Bytes(), &status); err != nil {
		t.Fatalf("Bad status: %v", err)
	}
	if status.Running || loop.Running() {
		t.Error("Expected loop to be stopped after /api/stop")
	}

	if rec := do(t, s, "GET", "/api/start", nil); rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected 405 for GET /api/start, got %d", rec.Code)
	}
}

func TestConfigEndpoint(t *testing.T) {
	s, _ := newTestServer(t)

	var resp ConfigResponse
	if err := json.Unmarshal(do(t, s, "GET", "/api/config", nil).Body.Bytes(), &resp); err != nil {
		t.Fatalf("Bad config response: %v", err)
	}
	if resp.Running || resp.Options.CellSize != 40 || resp.Options.Shape != grid.Square {
		t.Errorf("Unexpected config: %+v", resp)
	}
}

func TestIndexServed(t *testing.T) {
	s, _ := newTestServer(t)
	rec := do(t, s, "GET", "/", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "<canvas") {
		t.Errorf("Expected index page, got %d", rec.Code)
	}
}

// firstGridLines subscribes to the grid topic and decodes the first lines event
func firstGridLines(t *testing.T, s *Server) sim.GridLines {
	t.Helper()
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, "GET", ts.URL+"/api/subscribe/grid", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Unexpected content type %q", ct)
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	var sawType bool
	for scanner.Scan() {
		line := scanner.Text()
		if line == "event: "+pubsub.EventLines {
			sawType = true
			continue
		}
		data, ok := strings.CutPrefix(line, "data: ")
		if !ok {
			continue
		}
		if !sawType {
			t.Fatalf("Data before event type: %q", line)
		}
		var event pubsub.Event
		if err := json.Unmarshal([]byte(data), &event); err != nil {
			t.Fatalf("Bad event: %v", err)
		}
		var lines sim.GridLines
		if err := json.Unmarshal(event.Data, &lines); err != nil {
			t.Fatalf("Bad lines payload: %v", err)
		}
		return lines
	}
	t.Fatalf("Stream ended without a lines event: %v", scanner.Err())
	return sim.GridLines{}
}

func TestSubscribeGridReplaysLines(t *testing.T) {
	s, loop := newTestServer(t)
	loop.Resize(200, 80)
	loop.Start()
	loop.Step(time.Now())

	lines := firstGridLines(t, s)
	if lines.Width != 200 || lines.Height != 80 {
		t.Errorf("Unexpected replayed lines: %vx%v", lines.Width, lines.Height)
	}
}

func TestSubscribeGridBeforeFirstTick(t *testing.T) {
	s, loop := newTestServer(t)

	lines := firstGridLines(t, s)
	if want := loop.Lines(); lines.Version != want.Version || lines.Width != want.Width {
		t.Errorf("Expected the initial grid v%d, got v%d", want.Version, lines.Version)
	}
}
