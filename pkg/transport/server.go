package transport

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"nhooyr.io/websocket"

	"github.com/devicelab-dev/agent-bridge/pkg/agent"
	"github.com/devicelab-dev/agent-bridge/pkg/core"
	"github.com/devicelab-dev/agent-bridge/pkg/logger"
)

// MaxInFlight bounds concurrently executing commands per connection.
const MaxInFlight = 8

// Handler executes one raw command for a connection.
type Handler interface {
	Handle(ctx context.Context, session string, raw []byte) agent.Response
}

// ServerConfig configures the WebSocket endpoint.
type ServerConfig struct {
	Addr  string
	Path  string // Defaults to /agent
	Token string // Empty disables authentication
}

// Server accepts agent connections and feeds their commands to a Handler.
type Server struct {
	cfg     ServerConfig
	handler Handler

	mu    sync.Mutex
	addr  net.Addr
	conns map[string]*WSWriter
}

// NewServer creates a Server.
func NewServer(cfg ServerConfig, handler Handler) *Server {
	if cfg.Path == "" {
		cfg.Path = "/agent"
	}
	return &Server{
		cfg:     cfg,
		handler: handler,
		conns:   make(map[string]*WSWriter),
	}
}

// Handler returns the HTTP handler serving the agent endpoint.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(s.cfg.Path, s.handleAgent)
	return mux
}

// Addr returns the listening address once Run has bound it.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// Connections returns the number of open agent connections.
func (s *Server) Connections() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}

// Run listens on the configured address and serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.cfg.Addr, err)
	}
	s.mu.Lock()
	s.addr = ln.Addr()
	s.mu.Unlock()

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("agent endpoint listening on ws://%s%s", ln.Addr(), s.cfg.Path)

	// Shut down gracefully when ctx is cancelled.
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		s.closeAll()
	}()

	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("websocket server: %w", err)
	}
	return nil
}

func (s *Server) authorized(r *http.Request) bool {
	if s.cfg.Token == "" {
		return true
	}
	token := r.URL.Query().Get("token")
	if token == "" {
		token = strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(s.cfg.Token)) == 1
}

func (s *Server) handleAgent(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(r) {
		http.Error(w, core.ErrUnauthorized.Message, http.StatusUnauthorized)
		return
	}

	wsConn, err := websocket.Accept(w, r, nil)
	if err != nil {
		logger.Error("websocket accept error: %v", err)
		return
	}
	wsConn.SetReadLimit(-1)

	session := uuid.NewString()
	ctx := r.Context()
	reader := NewWSReader(ctx, wsConn)
	writer := NewWSWriter(ctx, wsConn)

	s.track(session, writer)
	defer s.untrack(session)

	log := logger.WithFields(logrus.Fields{"session": session, "remote": r.RemoteAddr})
	log.Info("agent connected")
	err = s.serveConn(ctx, session, reader, writer)
	if err != nil {
		log.Warnf("agent connection ended: %v", err)
	} else {
		log.Info("agent disconnected")
	}
	writer.Close()
}

// serveConn reads commands until the peer closes. Commands run concurrently,
// so responses may arrive out of order; agents match them by id.
func (s *Server) serveConn(ctx context.Context, session string, reader *WSReader, writer *WSWriter) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(MaxInFlight)

	var readErr error
	for {
		msg, err := reader.ReadMessage()
		if err != nil {
			if !errors.Is(err, io.EOF) && ctx.Err() == nil {
				readErr = err
			}
			break
		}
		g.Go(func() error {
			resp := s.handler.Handle(gctx, session, msg)
			if err := writer.WriteJSON(resp); err != nil {
				return fmt.Errorf("writing response: %w", err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil && readErr == nil {
		return err
	}
	return readErr
}

func (s *Server) track(session string, w *WSWriter) {
	s.mu.Lock()
	s.conns[session] = w
	s.mu.Unlock()
}

func (s *Server) untrack(session string) {
	s.mu.Lock()
	delete(s.conns, session)
	s.mu.Unlock()
}

func (s *Server) closeAll() {
	s.mu.Lock()
	writers := make([]*WSWriter, 0, len(s.conns))
	for _, w := range s.conns {
		writers = append(writers, w)
	}
	s.mu.Unlock()

	for _, w := range writers {
		_ = w.conn.Close(websocket.StatusGoingAway, "server shutting down")
	}
}
