package surface_test

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/vsariola/sketch"
	"github.com/vsariola/sketch/hub"
	"github.com/vsariola/sketch/surface"
	"gopkg.in/yaml.v3"
)

const script = `
hue:
  type: slider
  range: [0, 1]
  default: 0.5
grid_size:
  type: select
  options: [small, large]
`

func post(t *testing.T, url, body string) int {
	t.Helper()
	resp, err := http.Post(url+"/command", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	return resp.StatusCode
}

func TestCommandStatus(t *testing.T) {
	logger, _ := test.NewNullLogger()
	broker := hub.NewBroker()
	srv := httptest.NewServer(surface.NewServer(broker, logger).Handler())
	defer srv.Close()
	if code := post(t, srv.URL, `{"event": "set_value", "payload": {"name": "hue", "value": 0.25}}`); code != http.StatusAccepted {
		t.Fatalf("valid command gave %d", code)
	}
	select {
	case msg := <-broker.ToHub:
		if m, ok := msg.(*hub.SetValueMsg); !ok || m.Name != "hue" {
			t.Fatalf("queued %#v", msg)
		}
	default:
		t.Fatal("command was not queued")
	}
	for _, body := range []string{`{"event": "warp"}`, `{`, `{"event": "set_tempo", "payload": []}`} {
		if code := post(t, srv.URL, body); code != http.StatusBadRequest {
			t.Errorf("%s gave %d, want 400", body, code)
		}
	}
	full := &hub.Broker{ToHub: make(chan any), Controller: make(chan hub.ControlChange), ToSurface: make(chan hub.Event)}
	srv2 := httptest.NewServer(surface.NewServer(full, logger).Handler())
	defer srv2.Close()
	if code := post(t, srv2.URL, `{"event": "play"}`); code != http.StatusServiceUnavailable {
		t.Errorf("full queue gave %d, want 503", code)
	}
}

// runHub runs a frame loop owning the hub until the test ends.
func runHub(t *testing.T, broker *hub.Broker) {
	t.Helper()
	s, err := sketch.ReadScript(strings.NewReader(script))
	if err != nil {
		t.Fatal(err)
	}
	logger, _ := test.NewNullLogger()
	h, _ := hub.New(broker, s, nil, logger, hub.DefaultOptions())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		for ctx.Err() == nil {
			h.Frame(time.Millisecond)
			time.Sleep(time.Millisecond)
		}
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
}

func TestControlsAndState(t *testing.T) {
	logger, _ := test.NewNullLogger()
	broker := hub.NewBroker()
	runHub(t, broker)
	srv := httptest.NewServer(surface.NewServer(broker, logger).Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/controls")
	if err != nil {
		t.Fatal(err)
	}
	var controls []hub.ControlDescriptor
	err = json.NewDecoder(resp.Body).Decode(&controls)
	resp.Body.Close()
	if err != nil {
		t.Fatal(err)
	}
	if len(controls) != 2 || controls[1].Label != "Grid Size" || controls[0].Value != sketch.FloatValue(0.5) {
		t.Fatalf("controls = %+v", controls)
	}

	resp, err = http.Get(srv.URL + "/state")
	if err != nil {
		t.Fatal(err)
	}
	var state hub.State
	err = yaml.NewDecoder(resp.Body).Decode(&state)
	resp.Body.Close()
	if err != nil {
		t.Fatal(err)
	}
	if state.Values["grid_size"] != sketch.StringValue("small") || state.BPM != 120 {
		t.Fatalf("state = %+v", state)
	}
}

func TestControlsWithoutHub(t *testing.T) {
	logger, _ := test.NewNullLogger()
	broker := &hub.Broker{ToHub: make(chan any), Controller: make(chan hub.ControlChange), ToSurface: make(chan hub.Event)}
	srv := httptest.NewServer(surface.NewServer(broker, logger).Handler())
	defer srv.Close()
	resp, err := http.Get(srv.URL + "/controls")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("got %d without a frame loop, want 503", resp.StatusCode)
	}
}

func TestEventStream(t *testing.T) {
	logger, _ := test.NewNullLogger()
	broker := hub.NewBroker()
	s := surface.NewServer(broker, logger)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Pump(ctx)
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/events", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("content type %q", ct)
	}
	lines := make(chan string, 64)
	go func() {
		sc := bufio.NewScanner(resp.Body)
		for sc.Scan() {
			lines <- sc.Text()
		}
		close(lines)
	}()
	// the subscription is registered after the headers are flushed, so keep
	// publishing until something arrives
	ev := hub.Event{Name: hub.EventValueChanged, Payload: hub.ValueChanged{Name: "hue", Value: sketch.FloatValue(0.75)}}
	tick := time.NewTicker(10 * time.Millisecond)
	defer tick.Stop()
	timeout := time.After(5 * time.Second)
	var got []string
	for len(got) < 2 {
		select {
		case <-tick.C:
			hub.TrySend(broker.ToSurface, ev)
		case l, ok := <-lines:
			if !ok {
				t.Fatal("stream closed")
			}
			if l != "" {
				got = append(got, l)
			}
		case <-timeout:
			t.Fatal("no event received")
		}
	}
	if got[0] != "event: value_changed" || got[1] != `data: {"name":"hue","value":0.75}` {
		t.Fatalf("received %q", got)
	}
}
