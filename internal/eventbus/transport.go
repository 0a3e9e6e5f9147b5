package eventbus

import (
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
)

// Server exposes a Channel over a loopback websocket so the shell
// process can read worker events without sharing memory (spec §5:
// worker and shell are separate OS processes). JSON framing was
// chosen over a binary codec because nothing in this module generates
// protobuf bindings; see SPEC_FULL.md.
type Server struct {
	router   *mux.Router
	channel  *Channel
	upgrader websocket.Upgrader
}

// NewServer wraps channel with an HTTP+websocket endpoint at /events.
func NewServer(channel *Channel) *Server {
	s := &Server{
		router:  mux.NewRouter(),
		channel: channel,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true }, // loopback only
		},
	}
	s.router.HandleFunc("/events", s.handleEvents)
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
	return s
}

// ListenAndServe starts the HTTP server on addr (e.g. "127.0.0.1:0").
func (s *Server) ListenAndServe(addr string) error {
	return http.ListenAndServe(addr, s.router)
}

// Serve runs the HTTP server on an already-bound listener, so the
// caller can discover the OS-assigned port before serving (spec §5:
// the shell needs the worker's loopback address to connect to it).
func (s *Server) Serve(listener net.Listener) error {
	return http.Serve(listener, s.router)
}

// Router exposes the underlying mux.Router so other loopback endpoints
// (e.g. ipc's control message route) can share the same listener.
func (s *Server) Router() *mux.Router {
	return s.router
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// handleEvents drains the channel and pushes each event as a JSON
// frame whenever Send wakes the channel up; this is the only place
// that reads the channel on the server side.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	done := r.Context().Done()
	for {
		if !s.channel.Wait(done) {
			return
		}
		for _, ev := range s.channel.Drain() {
			if err := conn.WriteJSON(ev); err != nil {
				return
			}
		}
	}
}

// Client reads events from a worker's Server over a websocket
// connection, for use by the shell's preview/tray UI.
type Client struct {
	conn *websocket.Conn
}

// Dial connects to a worker event server at ws://addr/events.
func Dial(addr string) (*Client, error) {
	conn, _, err := websocket.DefaultDialer.Dial("ws://"+addr+"/events", nil)
	if err != nil {
		return nil, err
	}
	conn.SetReadDeadline(time.Time{})
	return &Client{conn: conn}, nil
}

// Next blocks for the next event frame.
func (c *Client) Next() (Event, error) {
	var ev Event
	err := c.conn.ReadJSON(&ev)
	return ev, err
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	return c.conn.Close()
}
