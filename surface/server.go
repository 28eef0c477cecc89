// Package surface is the transport between the hub and a control surface
// (the control panel, a browser, a script). Commands come in as JSON
// envelopes over HTTP and outbound events go out as server-sent events.
package surface

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/vsariola/sketch/hub"
	"gopkg.in/yaml.v3"
)

const (
	maxCommandSize  = 1 << 20
	subscriberQueue = 256
	requestTimeout  = 2 * time.Second
)

// Server serves the control surface API:
//
//	POST /command   a command envelope, queued for the next frame
//	GET  /events    outbound events as server-sent events
//	GET  /controls  control descriptors as JSON
//	GET  /state     the persisted state as YAML
type Server struct {
	broker *hub.Broker
	log    logrus.FieldLogger
	router *chi.Mux

	mu          sync.Mutex
	subscribers map[chan hub.Event]struct{}
}

func NewServer(broker *hub.Broker, log logrus.FieldLogger) *Server {
	s := &Server{
		broker:      broker,
		log:         log,
		router:      chi.NewRouter(),
		subscribers: map[chan hub.Event]struct{}{},
	}
	r := s.router
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Post("/command", s.handleCommand)
	r.Get("/events", s.handleEvents)
	r.Get("/controls", s.handleControls)
	r.Get("/state", s.handleState)
	return s
}

func (s *Server) Handler() http.Handler { return s.router }

// Run serves HTTP on addr and fans the outbound events out to the
// subscribers until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:        addr,
		Handler:     s.router,
		ReadTimeout: 30 * time.Second,
		IdleTimeout: 60 * time.Second,
	}
	go s.Pump(ctx)
	done := make(chan struct{})
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.log.WithError(err).Error("surface shutdown failed")
		}
		close(done)
	}()
	s.log.WithField("addr", addr).Info("control surface listening")
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		return errors.Wrap(err, "control surface server failed")
	}
	<-done
	return nil
}

// Pump forwards the events of the broker to every subscriber until ctx is
// cancelled. A subscriber that lags behind misses events.
func (s *Server) Pump(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case e := <-s.broker.ToSurface:
			s.mu.Lock()
			for ch := range s.subscribers {
				hub.TrySend(ch, e)
			}
			s.mu.Unlock()
		}
	}
}

func (s *Server) subscribe() chan hub.Event {
	ch := make(chan hub.Event, subscriberQueue)
	s.mu.Lock()
	s.subscribers[ch] = struct{}{}
	s.mu.Unlock()
	return ch
}

func (s *Server) unsubscribe(ch chan hub.Event) {
	s.mu.Lock()
	delete(s.subscribers, ch)
	s.mu.Unlock()
}

func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxCommandSize))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	msg, err := hub.DecodeCommand(data)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if !hub.TrySend(s.broker.ToHub, msg) {
		http.Error(w, "command queue is full", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "SSE not supported", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()
	ch := s.subscribe()
	defer s.unsubscribe(ch)
	for {
		select {
		case <-r.Context().Done():
			return
		case e := <-ch:
			data, err := json.Marshal(e.Payload)
			if err != nil {
				s.log.WithError(err).WithField("event", e.Name).Warn("could not marshal event")
				continue
			}
			fmt.Fprintf(w, "event: %s\n", e.Name)
			fmt.Fprintf(w, "data: %s\n\n", data)
			flusher.Flush()
		}
	}
}

func (s *Server) handleControls(w http.ResponseWriter, r *http.Request) {
	reply := make(chan []hub.ControlDescriptor, 1)
	controls, ok := request(s.broker, &hub.ControlsRequestMsg{Reply: reply}, reply)
	if !ok {
		http.Error(w, "hub did not answer", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(controls); err != nil {
		s.log.WithError(err).Warn("could not write controls")
	}
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	reply := make(chan hub.State, 1)
	state, ok := request(s.broker, &hub.StateRequestMsg{Reply: reply}, reply)
	if !ok {
		http.Error(w, "hub did not answer", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/yaml")
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(state); err != nil {
		s.log.WithError(err).Warn("could not write state")
	}
	enc.Close()
}

// request asks the frame loop a question and waits for the answer.
func request[T any](broker *hub.Broker, msg any, reply chan T) (T, bool) {
	if !hub.TrySend(broker.ToHub, msg) {
		var zero T
		return zero, false
	}
	return hub.TimeoutReceive(reply, requestTimeout)
}
