package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/kinet-dev/kinet/pkg/protocol"
)

// EventMiddleware wraps event handling. Implementations run before the
// handler lookup; next continues the chain with the (possibly derived) ctx.
type EventMiddleware func(ctx Ctx, next func(Ctx) error) error

// handshakeTimeout bounds the wait for the client hello after upgrade.
const handshakeTimeout = 10 * time.Second

// Server owns the session population, the default component registry, and
// the WebSocket endpoint.
type Server struct {
	cfg      Config
	logger   *slog.Logger
	manager  *Manager
	registry *Registry
	upgrader websocket.Upgrader

	middleware  []EventMiddleware
	rootFactory Factory
}

// New creates a server from cfg with defaults applied.
func New(cfg Config) *Server {
	cfg = cfg.withDefaults()
	logger := cfg.Logger.With("component", "server")

	checkOrigin := cfg.CheckOrigin
	if checkOrigin == nil {
		checkOrigin = func(*http.Request) bool { return true }
	}

	return &Server{
		cfg:      cfg,
		logger:   logger,
		manager:  newManager(cfg, logger),
		registry: NewRegistry(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     checkOrigin,
		},
	}
}

// Registry returns the server-wide default component registry. It is the
// root of every session's resolution chain.
func (s *Server) Registry() *Registry {
	return s.registry
}

// Register binds a descriptor on the default registry.
func (s *Server) Register(descriptor string, f Factory) {
	s.registry.Register(descriptor, f)
}

// Use appends event middleware. Sessions created afterwards run it; call
// before serving.
func (s *Server) Use(mw ...EventMiddleware) {
	s.middleware = append(s.middleware, mw...)
}

// SetRootFactory sets the component mounted for hello handshakes that carry
// no session ID (clients connecting without a server-rendered page).
func (s *Server) SetRootFactory(f Factory) {
	s.rootFactory = f
}

// SessionCount returns the number of live sessions.
func (s *Server) SessionCount() int {
	return s.manager.Len()
}

// CreateSession builds a detached session: default registry installed on its
// scope, middleware attached, event loop running. The caller mounts a root
// and later attaches a connection.
func (s *Server) CreateSession() (*Session, error) {
	sess := newSession(s.cfg, s.middleware)
	sess.owner.SetValue(registryKey, s.registry)
	sess.onDisconnect = s.manager.Detach

	if err := s.manager.Put(sess); err != nil {
		return nil, err
	}
	s.cfg.Hooks.sessionStarted()

	go sess.EventLoop()

	sess.logger.Info("session created")
	return sess, nil
}

// HandleWebSocket upgrades the connection, performs the hello handshake,
// and binds the connection to a new or resumed session.
func (s *Server) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	hello, err := readClientHello(conn)
	if err != nil {
		s.logger.Warn("handshake failed", "error", err)
		conn.Close()
		return
	}

	if hello.Version.Major != protocol.CurrentVersion.Major {
		s.logger.Warn("protocol version mismatch",
			"client", hello.Version,
			"server", protocol.CurrentVersion)
		writeServerHello(conn, s.cfg.WriteTimeout, &protocol.ServerHello{
			Status: protocol.HelloVersionMismatch,
		})
		conn.Close()
		return
	}

	if hello.SessionID != "" {
		s.resumeSession(conn, hello)
		return
	}
	s.startFreshSession(conn, hello)
}

// resumeSession binds conn to the session named in the hello, or tells the
// client its session is gone so it reloads for a fresh one.
func (s *Server) resumeSession(conn *websocket.Conn, hello *protocol.ClientHello) {
	sess, err := s.manager.Resume(hello.SessionID)
	if err != nil {
		s.logger.Info("session resume rejected",
			"session_id", hello.SessionID,
			"error", err)
		writeServerHello(conn, s.cfg.WriteTimeout, &protocol.ServerHello{
			Status:    protocol.HelloSessionExpired,
			SessionID: hello.SessionID,
		})
		conn.Close()
		return
	}

	writeServerHello(conn, s.cfg.WriteTimeout, &protocol.ServerHello{
		Status:     protocol.HelloOK,
		SessionID:  sess.ID,
		NextSeq:    sess.sendSeq.Load() + 1,
		ServerTime: uint64(time.Now().UnixMilli()),
	})
	sess.Resume(conn, hello.LastSeq)
	sess.startAttached()
}

// startFreshSession serves a hello without a session ID: a client talking
// to the server without a server-rendered page. The root factory's
// component, when set, is mounted over the wire.
func (s *Server) startFreshSession(conn *websocket.Conn, hello *protocol.ClientHello) {
	sess, err := s.CreateSession()
	if err != nil {
		s.logger.Warn("session create failed", "error", err)
		writeServerHello(conn, s.cfg.WriteTimeout, &protocol.ServerHello{
			Status: protocol.HelloServerBusy,
		})
		conn.Close()
		return
	}

	writeServerHello(conn, s.cfg.WriteTimeout, &protocol.ServerHello{
		Status:     protocol.HelloOK,
		SessionID:  sess.ID,
		NextSeq:    1,
		ServerTime: uint64(time.Now().UnixMilli()),
	})
	sess.Attach(conn)
	s.manager.Claim(sess.ID)

	if s.rootFactory != nil {
		sess.Dispatch(func() {
			root := newComponentInstance(sess, s.rootFactory(), nil)
			sess.root = root
			root.DetectChanges()
		})
	}
	sess.startAttached()
}

// readClientHello reads and decodes the hello frame.
func readClientHello(conn *websocket.Conn) (*protocol.ClientHello, error) {
	conn.SetReadDeadline(time.Now().Add(handshakeTimeout))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return nil, err
	}

	frame, err := protocol.DecodeFrame(msg)
	if err != nil {
		return nil, err
	}
	if frame.Type != protocol.FrameHello {
		return nil, ErrInvalidHandshake
	}
	return protocol.DecodeClientHello(frame.Payload)
}

// writeServerHello sends the handshake reply.
func writeServerHello(conn *websocket.Conn, timeout time.Duration, sh *protocol.ServerHello) {
	frame := protocol.NewFrame(protocol.FrameHello, protocol.EncodeServerHello(sh))
	conn.SetWriteDeadline(time.Now().Add(timeout))
	conn.WriteMessage(websocket.BinaryMessage, frame.Encode())
}

// Shutdown closes every session and stops the sweeper. The context bounds
// how long to wait for close frames to drain; since writes carry deadlines
// this returns promptly.
func (s *Server) Shutdown(ctx context.Context) error {
	s.manager.CloseAll(protocol.CloseServerShutdown, "server shutting down")
	s.manager.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}
