// Package web exposes a session over HTTP: a JSON command surface that
// feeds the app event loop and a websocket feed of rendered frames.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/guidoenr/chromafield/internal/engine"
)

// CommandKind names a request forwarded to the event loop.
type CommandKind string

const (
	CommandPlayhead CommandKind = "playhead"
	CommandTrack    CommandKind = "track"
	CommandSeek     CommandKind = "seek"
	CommandBeat     CommandKind = "beat"
	CommandReset    CommandKind = "reset"
)

// Command is applied to the session by whoever drains Commands.
type Command struct {
	Kind    CommandKind
	T       float64
	Playing bool
	Track   *engine.Track
}

// Config configures a Server.
type Config struct {
	Addr      string
	QueueSize int
	Log       *log.Logger
}

// Server is the HTTP and websocket surface.
type Server struct {
	cfg      Config
	log      *log.Logger
	commands chan Command
	frame    atomic.Pointer[[]byte]

	mu        sync.Mutex
	clients   map[*websocketClient]bool
	broadcast chan []byte
	upgrader  websocket.Upgrader
}

type websocketClient struct {
	conn   *websocket.Conn
	send   chan []byte
	server *Server
}

type playheadRequest struct {
	T       *float64 `json:"t"`
	Playing *bool    `json:"playing,omitempty"`
}

type seekRequest struct {
	T *float64 `json:"t"`
}

var errMissingT = errors.New(`missing field "t"`)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
)

// NewServer builds a server. Nothing listens until ListenAndServe.
func NewServer(cfg Config) *Server {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 64
	}
	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}
	logger := cfg.Log
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Server{
		cfg:       cfg,
		log:       logger,
		commands:  make(chan Command, cfg.QueueSize),
		clients:   make(map[*websocketClient]bool),
		broadcast: make(chan []byte, 16),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Commands is drained by the event loop.
func (s *Server) Commands() <-chan Command { return s.commands }

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/frame", s.handleFrame)
	mux.HandleFunc("POST /api/playhead", s.handlePlayhead)
	mux.HandleFunc("POST /api/track", s.handleTrack)
	mux.HandleFunc("POST /api/seek", s.handleSeek)
	mux.HandleFunc("POST /api/beat", s.handleBeat)
	mux.HandleFunc("POST /api/reset", s.handleReset)
	mux.HandleFunc("GET /ws", s.handleWebSocket)
	return mux
}

// ListenAndServe serves until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go s.Run(ctx)
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.log.Printf("[web] listening on %s", s.cfg.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("web server: %w", err)
	}
	return nil
}

// Run fans published frames out to websocket clients until ctx is done.
func (s *Server) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			s.mu.Lock()
			for client := range s.clients {
				close(client.send)
				delete(s.clients, client)
			}
			s.mu.Unlock()
			return
		case message := <-s.broadcast:
			s.mu.Lock()
			for client := range s.clients {
				select {
				case client.send <- message:
				default:
					// slow client
					close(client.send)
					delete(s.clients, client)
				}
			}
			s.mu.Unlock()
		}
	}
}

// Publish records f as the latest frame and queues it for websocket
// clients. It never blocks; a frame is dropped if the fan-out is behind.
func (s *Server) Publish(f engine.Frame) error {
	data, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("encode frame: %w", err)
	}
	s.frame.Store(&data)
	select {
	case s.broadcast <- data:
	default:
	}
	return nil
}

func (s *Server) handleFrame(w http.ResponseWriter, r *http.Request) {
	data := s.frame.Load()
	if data == nil {
		http.Error(w, "no frame rendered yet", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(*data)
}

func (s *Server) handlePlayhead(w http.ResponseWriter, r *http.Request) {
	var req playheadRequest
	if err := decodeBody(w, r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.T == nil {
		http.Error(w, errMissingT.Error(), http.StatusBadRequest)
		return
	}
	playing := true
	if req.Playing != nil {
		playing = *req.Playing
	}
	s.enqueue(w, Command{Kind: CommandPlayhead, T: *req.T, Playing: playing})
}

func (s *Server) handleTrack(w http.ResponseWriter, r *http.Request) {
	var track engine.Track
	if err := decodeBody(w, r, &track); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.enqueue(w, Command{Kind: CommandTrack, Track: &track})
}

func (s *Server) handleSeek(w http.ResponseWriter, r *http.Request) {
	var req seekRequest
	if err := decodeBody(w, r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.T == nil {
		http.Error(w, errMissingT.Error(), http.StatusBadRequest)
		return
	}
	s.enqueue(w, Command{Kind: CommandSeek, T: *req.T})
}

func (s *Server) handleBeat(w http.ResponseWriter, r *http.Request) {
	s.enqueue(w, Command{Kind: CommandBeat})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	s.enqueue(w, Command{Kind: CommandReset})
}

func (s *Server) enqueue(w http.ResponseWriter, cmd Command) {
	select {
	case s.commands <- cmd:
	default:
		http.Error(w, "command queue full", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "queued", "command": string(cmd.Kind)})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	body := http.MaxBytesReader(w, r.Body, 8<<20)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Printf("[web] websocket upgrade error: %v", err)
		return
	}

	client := &websocketClient{
		conn:   conn,
		send:   make(chan []byte, 32),
		server: s,
	}
	// new subscribers start from the latest frame
	if data := s.frame.Load(); data != nil {
		client.send <- *data
	}

	s.mu.Lock()
	s.clients[client] = true
	s.mu.Unlock()

	go client.writePump()
	go client.readPump()
}

func (c *websocketClient) readPump() {
	defer func() {
		c.server.mu.Lock()
		if c.server.clients[c] {
			delete(c.server.clients, c)
			close(c.send)
		}
		c.server.mu.Unlock()
		c.conn.Close()
	}()

	c.conn.SetReadLimit(4096)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *websocketClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
