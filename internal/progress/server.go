package progress

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/backmassage/clipsmith/internal/logging"
)

const (
	clientBuffer = 64
	writeTimeout = 10 * time.Second
)

// Server publishes events to websocket clients on GET /events. It is an
// owned handle: Start returns it running, Close stops it, and Running
// reports which of the two happened last.
type Server struct {
	log      *logging.Logger
	http     *http.Server
	ln       net.Listener
	upgrader websocket.Upgrader
	running  atomic.Bool
	served   chan struct{}

	mu      sync.Mutex
	clients map[*client]struct{}
	last    *Event
}

type client struct {
	conn *websocket.Conn
	send chan []byte
	once sync.Once
}

func (c *client) close() {
	c.once.Do(func() {
		close(c.send)
	})
}

// Start listens on addr and serves in the background.
func Start(addr string, log *logging.Logger) (*Server, error) {
	if log == nil {
		log = logging.Nop()
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	s := &Server{
		log: log,
		ln:  ln,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		served:  make(chan struct{}),
		clients: make(map[*client]struct{}),
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	s.RegisterRoutes(router.Group("/"))

	s.http = &http.Server{Handler: router, ReadHeaderTimeout: 5 * time.Second}
	s.running.Store(true)
	go func() {
		defer close(s.served)
		if err := s.http.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("progress server: %v", err)
		}
		s.running.Store(false)
	}()
	s.log.Info("progress server listening on ws://%s/events", s.Addr())
	return s, nil
}

// RegisterRoutes mounts the server's handlers on a router group.
func (s *Server) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/healthz", s.handleHealth)
	rg.GET("/status", s.handleStatus)
	rg.GET("/events", s.handleEvents)
}

// Addr is the bound listen address, useful when addr used port 0.
func (s *Server) Addr() string { return s.ln.Addr().String() }

// Running reports whether the server is still serving.
func (s *Server) Running() bool { return s.running.Load() }

// Clients returns the number of connected websocket clients.
func (s *Server) Clients() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

// Emit implements Sink. Slow clients whose buffer is full miss the event.
func (s *Server) Emit(e Event) {
	data, err := json.Marshal(e)
	if err != nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = &e
	for c := range s.clients {
		select {
		case c.send <- data:
		default:
		}
	}
}

// Close stops accepting connections, disconnects every client, and waits
// for the serve loop to exit or ctx to end.
func (s *Server) Close(ctx context.Context) error {
	err := s.http.Shutdown(ctx)

	s.mu.Lock()
	for c := range s.clients {
		delete(s.clients, c)
		c.close()
		_ = c.conn.Close()
	}
	s.mu.Unlock()

	select {
	case <-s.served:
	case <-ctx.Done():
		if err == nil {
			err = ctx.Err()
		}
	}
	s.running.Store(false)
	return err
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"clients": s.Clients(),
	})
}

func (s *Server) handleStatus(c *gin.Context) {
	s.mu.Lock()
	last := s.last
	s.mu.Unlock()
	if last == nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "no events yet",
		})
		return
	}
	c.JSON(http.StatusOK, last)
}

func (s *Server) handleEvents(c *gin.Context) {
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed: %v", err)
		return
	}
	cl := &client{conn: conn, send: make(chan []byte, clientBuffer)}

	s.mu.Lock()
	s.clients[cl] = struct{}{}
	s.mu.Unlock()
	s.log.Debug("progress client connected from %s", conn.RemoteAddr())

	go s.writeLoop(cl)
	s.readLoop(cl)
}

// readLoop drains client frames until the connection drops, then
// unregisters the client.
func (s *Server) readLoop(cl *client) {
	defer func() {
		s.mu.Lock()
		if _, ok := s.clients[cl]; ok {
			delete(s.clients, cl)
			cl.close()
		}
		s.mu.Unlock()
		_ = cl.conn.Close()
	}()
	for {
		if _, _, err := cl.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *Server) writeLoop(cl *client) {
	for data := range cl.send {
		_ = cl.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := cl.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			_ = cl.conn.Close()
			return
		}
	}
	_ = cl.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
}
