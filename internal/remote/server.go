// ABOUTME: WebSocket remote control server
// ABOUTME: Accepts transport commands and pushes status snapshots to clients
package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/loopdeck/loopdeck-go/internal/engine"
	"github.com/loopdeck/loopdeck-go/internal/log"
)

// ProtocolVersion identifies the remote control protocol.
const ProtocolVersion = 1

// statusInterval is the cadence of unsolicited status pushes.
const statusInterval = 500 * time.Millisecond

// Player is the playback surface the remote drives.
type Player interface {
	Play()
	Pause()
	Seek(pos float64)
	SetLoop(enabled bool)
	SetTrim(start, end float64)
	SetSpeed(ratio float64)
	SetVolume(v float64)
	OpenPath(path string) error
	Snapshot() engine.Snapshot
}

// Config holds remote server configuration.
type Config struct {
	Port int
	Name string
}

// Server exposes the player over a websocket endpoint at /loopdeck.
type Server struct {
	cfg      Config
	serverID string
	player   Player
	logger   *logrus.Entry

	upgrader   websocket.Upgrader
	httpServer *http.Server

	clients   map[string]*client
	clientsMu sync.Mutex

	stopOnce sync.Once
	stopChan chan struct{}
	wg       sync.WaitGroup
}

type client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
}

// NewServer creates a remote control server for the given player.
func NewServer(cfg Config, player Player) *Server {
	return &Server{
		cfg:      cfg,
		serverID: uuid.New().String(),
		player:   player,
		logger:   log.Component("remote"),
		upgrader: websocket.Upgrader{
			// Local-network control surface; no browser origin policy.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients:  make(map[string]*client),
		stopChan: make(chan struct{}),
	}
}

// Start begins listening. It returns once the listener is running; transport
// errors after that are logged.
func (s *Server) Start() error {
	mux := http.NewServeMux()
	mux.HandleFunc("/loopdeck", s.handleWebSocket)

	s.httpServer = &http.Server{
		Addr:    fmt.Sprintf(":%d", s.cfg.Port),
		Handler: mux,
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.httpServer.ListenAndServe(); err != http.ErrServerClosed {
			s.logger.WithError(err).Error("remote server failed")
		}
	}()

	s.wg.Add(1)
	go s.broadcastLoop()

	s.logger.WithField("port", s.cfg.Port).Info("remote control listening")
	return nil
}

// Stop shuts the server down and disconnects all clients.
func (s *Server) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopChan)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.logger.WithError(err).Warn("remote shutdown")
		}

		s.clientsMu.Lock()
		for _, c := range s.clients {
			c.conn.Close()
		}
		s.clientsMu.Unlock()

		s.wg.Wait()
	})
}

// broadcastLoop pushes the current snapshot to every client on a timer.
func (s *Server) broadcastLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(statusInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.broadcastStatus()
		}
	}
}

func (s *Server) broadcastStatus() {
	data, err := encodeStatus(s.player.Snapshot())
	if err != nil {
		return
	}

	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	for _, c := range s.clients {
		select {
		case c.send <- data:
		default:
			// Slow consumer; it catches up on the next tick.
		}
	}
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.WithError(err).Warn("websocket upgrade failed")
		return
	}

	c := &client{
		id:   uuid.New().String(),
		conn: conn,
		send: make(chan []byte, 16),
	}

	s.clientsMu.Lock()
	s.clients[c.id] = c
	s.clientsMu.Unlock()

	s.logger.WithField("client", c.id).WithField("addr", r.RemoteAddr).Info("remote client connected")

	hello, _ := encodeMessage(TypeHello, Hello{
		ServerID: s.serverID,
		Name:     s.cfg.Name,
		Version:  ProtocolVersion,
	})
	c.send <- hello

	s.wg.Add(1)
	go s.writePump(c)
	s.readPump(c)
}

// readPump decodes and applies commands until the connection drops.
func (s *Server) readPump(c *client) {
	defer func() {
		s.clientsMu.Lock()
		delete(s.clients, c.id)
		s.clientsMu.Unlock()
		close(c.send)
		c.conn.Close()
		s.logger.WithField("client", c.id).Info("remote client disconnected")
	}()

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			s.sendError(c, "bad_message", err.Error())
			continue
		}
		if msg.Type != TypeCommand {
			s.sendError(c, "unexpected_type", msg.Type)
			continue
		}

		var cmd Command
		if err := json.Unmarshal(msg.Payload, &cmd); err != nil {
			s.sendError(c, "bad_command", err.Error())
			continue
		}

		if err := s.apply(cmd); err != nil {
			s.sendError(c, "command_failed", err.Error())
			continue
		}

		// Commands answer with a fresh status so the client sees the effect
		// without waiting for the broadcast tick.
		if data, err := encodeStatus(s.player.Snapshot()); err == nil {
			select {
			case c.send <- data:
			default:
			}
		}
	}
}

func (s *Server) writePump(c *client) {
	defer s.wg.Done()
	for data := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			return
		}
	}
}

// apply dispatches one command to the player.
func (s *Server) apply(cmd Command) error {
	switch cmd.Command {
	case CmdPlay:
		s.player.Play()
	case CmdPause:
		s.player.Pause()
	case CmdSeek:
		if cmd.Pos == nil {
			return fmt.Errorf("seek requires pos")
		}
		s.player.Seek(*cmd.Pos)
	case CmdLoop:
		if cmd.Enabled == nil {
			return fmt.Errorf("loop requires enabled")
		}
		s.player.SetLoop(*cmd.Enabled)
	case CmdTrim:
		if cmd.Start == nil || cmd.End == nil {
			return fmt.Errorf("trim requires start and end")
		}
		s.player.SetTrim(*cmd.Start, *cmd.End)
	case CmdSpeed:
		if cmd.Ratio == nil {
			return fmt.Errorf("speed requires ratio")
		}
		s.player.SetSpeed(*cmd.Ratio)
	case CmdVolume:
		if cmd.Volume == nil {
			return fmt.Errorf("volume requires volume")
		}
		s.player.SetVolume(*cmd.Volume)
	case CmdOpen:
		if cmd.Path == "" {
			return fmt.Errorf("open requires path")
		}
		return s.player.OpenPath(cmd.Path)
	case CmdStatus:
		// Status is sent after every command anyway.
	default:
		return fmt.Errorf("unknown command %q", cmd.Command)
	}
	return nil
}

func (s *Server) sendError(c *client, code, detail string) {
	data, err := encodeMessage(TypeError, ErrorPayload{Error: code, Message: detail})
	if err != nil {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

func encodeStatus(snap engine.Snapshot) ([]byte, error) {
	return encodeMessage(TypeStatus, snap)
}

func encodeMessage(msgType string, payload interface{}) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Message{Type: msgType, Payload: raw})
}
