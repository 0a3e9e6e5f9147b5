package ipc

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
)

// Command is one of the control messages the shell sends to the
// worker process (spec §4.9: "accepting a pause/resume/stop control
// message over the same loopback transport" C10 uses for events).
type Command string

const (
	CommandPause  Command = "pause"
	CommandResume Command = "resume"
	CommandStop   Command = "stop"
)

// ControlMessage is the typed JSON envelope sent over the control endpoint.
type ControlMessage struct {
	Command Command `json:"command"`
}

// Handlers is the worker-side set of callbacks invoked for each command.
type Handlers struct {
	OnPause  func()
	OnResume func()
	OnStop   func()
}

// ControlServer exposes a single POST /control endpoint on the worker's
// loopback HTTP server, sharing the mux router instance the event
// transport already owns so only one port is opened per worker.
type ControlServer struct {
	handlers Handlers
}

// NewControlServer registers the control route on router.
func NewControlServer(router *mux.Router, handlers Handlers) *ControlServer {
	s := &ControlServer{handlers: handlers}
	router.HandleFunc("/control", s.handle).Methods(http.MethodPost)
	return s
}

func (s *ControlServer) handle(w http.ResponseWriter, r *http.Request) {
	var msg ControlMessage
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
		http.Error(w, "bad control message", http.StatusBadRequest)
		return
	}

	switch msg.Command {
	case CommandPause:
		if s.handlers.OnPause != nil {
			s.handlers.OnPause()
		}
	case CommandResume:
		if s.handlers.OnResume != nil {
			s.handlers.OnResume()
		}
	case CommandStop:
		if s.handlers.OnStop != nil {
			s.handlers.OnStop()
		}
	default:
		http.Error(w, "unknown command", http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ControlClient sends control messages to a worker's control endpoint,
// used by the shell's hotkey and tray handlers.
type ControlClient struct {
	addr string
	http *http.Client
}

// NewControlClient targets the worker's loopback address (host:port).
func NewControlClient(addr string) *ControlClient {
	return &ControlClient{addr: addr, http: &http.Client{Timeout: 2 * time.Second}}
}

// Send posts cmd to the worker, ignoring the response body.
func (c *ControlClient) Send(cmd Command) error {
	body, err := json.Marshal(ControlMessage{Command: cmd})
	if err != nil {
		return err
	}
	resp, err := c.http.Post("http://"+c.addr+"/control", "application/json", bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return nil
}
