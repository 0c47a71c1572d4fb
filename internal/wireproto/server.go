package wireproto

import (
	"encoding/json"
	"errors"
	"io"
	"net"

	"github.com/habemusne/swarmshare/internal/portpool"
	"github.com/habemusne/swarmshare/internal/swarmlog"
)

// HandlerFunc serves one decoded request and returns a response body ready
// for framing (either a JSON-marshalable value, or a []byte when the
// action's ResponseEncoding is EncodingBytes) plus any handler error.
type HandlerFunc func(args map[string]interface{}) (response interface{}, err error)

// Server accepts connections on a listener and dispatches each request to
// a registered HandlerFunc according to the action dispatch table, in the
// style of a registered-handler TCP server: one accept loop, one goroutine
// per connection, each connection's owner responsible for closing it.
type Server struct {
	listener net.Listener
	role     Role
	handlers map[string]HandlerFunc
	ports    *portpool.Pool
	log      swarmlog.Logger
}

// NewServer wraps listener as a dispatching server for role.
func NewServer(listener net.Listener, role Role, log swarmlog.Logger) *Server {
	return &Server{
		listener: listener,
		role:     role,
		handlers: make(map[string]HandlerFunc),
		log:      log,
	}
}

// WithPortPool attaches a dynamic port range pool: each accepted connection
// reserves a tracking handle for its lifetime and releases it on close
// (spec.md §5). Purely a debugging aid; nil (the default) disables it.
func (s *Server) WithPortPool(pool *portpool.Pool) *Server {
	s.ports = pool
	return s
}

// Handle registers fn as the handler for action. It panics if action is
// not in the Registry or is not servable by this server's role, since
// that is a wiring mistake caught at startup, not a runtime condition.
func (s *Server) Handle(action string, fn HandlerFunc) {
	spec, ok := Lookup(action)
	if !ok {
		panic("wireproto: unknown action " + action)
	}
	if !spec.ServedBy(s.role) {
		panic("wireproto: action " + action + " is not servable by role " + s.role.String())
	}
	s.handlers[action] = fn
}

// Serve runs the accept loop until the listener is closed.
func (s *Server) Serve() error {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			return err
		}
		go s.handleConn(conn)
	}
}

// Addr returns the address the server is listening on.
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

// Close stops accepting new connections.
func (s *Server) Close() error {
	return s.listener.Close()
}

func (s *Server) handleConn(conn net.Conn) {
	defer conn.Close()

	if s.ports != nil {
		handle, err := s.ports.Acquire()
		if err != nil {
			s.log.Warnf("port pool exhausted, serving %s without a tracking handle: %v", conn.RemoteAddr(), err)
		} else {
			defer s.ports.Release(handle)
		}
	}

	payload, err := ReadFrame(conn)
	if err != nil {
		if !errors.Is(err, io.EOF) {
			s.log.Debugf("framing error from %s: %v", conn.RemoteAddr(), err)
		}
		return
	}

	action, args, err := DecodeRequest(payload)
	if err != nil {
		s.log.Warnf("malformed request from %s: %v", conn.RemoteAddr(), err)
		return
	}

	spec, ok := Lookup(action)
	if !ok || !spec.ServedBy(s.role) {
		_ = WriteFrame(conn, NotFoundResponse)
		return
	}

	fn, ok := s.handlers[action]
	if !ok {
		_ = WriteFrame(conn, NotFoundResponse)
		return
	}

	resp, err := fn(args)
	if err != nil {
		s.log.Errorf("handler %q failed for %s: %v", action, conn.RemoteAddr(), err)
		return
	}

	var body []byte
	switch spec.ResponseEncoding {
	case EncodingBytes:
		b, ok := resp.([]byte)
		if !ok {
			s.log.Errorf("handler %q returned non-[]byte for byte-encoded response", action)
			return
		}
		body = b
	default:
		body, err = json.Marshal(resp)
		if err != nil {
			s.log.Errorf("handler %q response marshal failed: %v", action, err)
			return
		}
	}

	if err := WriteFrame(conn, body); err != nil {
		s.log.Debugf("write response to %s failed: %v", conn.RemoteAddr(), err)
	}
}
