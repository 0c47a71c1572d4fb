// Package peerserver binds a peer's local chunk store to the wire
// protocol's dispatch table, serving download and inspect requests from
// other peers (spec.md §4.5).
package peerserver

import (
	"net"

	"github.com/habemusne/swarmshare/internal/peerstore"
	"github.com/habemusne/swarmshare/internal/portpool"
	"github.com/habemusne/swarmshare/internal/swarmlog"
	"github.com/habemusne/swarmshare/internal/wireproto"
)

// Inspectable is satisfied by whatever the peer wants to expose through
// the inspect debugging action. Production deployments should pass an
// implementation that refuses everything, per spec.md §4.5's warning that
// inspect "MUST be restricted or removed in hostile environments".
type Inspectable interface {
	Inspect(variable string) (interface{}, bool)
}

// Server is a peer process's listening endpoint.
type Server struct {
	store *peerstore.Store
	ws    *wireproto.Server
	log   swarmlog.Logger
}

// New binds listener and registers the peer-servable actions against
// store. inspect may be nil, in which case it always reports not found.
func New(listener net.Listener, store *peerstore.Store, inspect Inspectable, log swarmlog.Logger) *Server {
	s := &Server{store: store, log: log}
	s.ws = wireproto.NewServer(listener, wireproto.RolePeer, log)
	s.ws.Handle(wireproto.ActionDownload, s.handleDownload)
	s.ws.Handle(wireproto.ActionInspect, func(args map[string]interface{}) (interface{}, error) {
		return handleInspect(inspect, args)
	})
	return s
}

// WithPortPool attaches a dynamic port range pool for connection tracking
// (spec.md §5); see wireproto.Server.WithPortPool.
func (s *Server) WithPortPool(pool *portpool.Pool) *Server {
	s.ws.WithPortPool(pool)
	return s
}

// Serve runs the accept loop until the listener closes.
func (s *Server) Serve() error {
	s.log.Infof("peer listening on %s", s.ws.Addr())
	return s.ws.Serve()
}

// Close stops accepting new connections.
func (s *Server) Close() error { return s.ws.Close() }

type downloadArgs struct {
	Filename string `json:"filename"`
	ChunkID  int    `json:"chunkid"`
}

func (s *Server) handleDownload(args map[string]interface{}) (interface{}, error) {
	var a downloadArgs
	if err := wireproto.ArgsToStruct(args, &a); err != nil {
		return nil, err
	}
	data, err := s.store.Read(a.Filename, a.ChunkID)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return []byte{}, nil
	}
	return data, nil
}

type inspectArgs struct {
	Variable string `json:"variable"`
}

func handleInspect(inspect Inspectable, args map[string]interface{}) (interface{}, error) {
	var a inspectArgs
	if err := wireproto.ArgsToStruct(args, &a); err != nil {
		return nil, err
	}
	if inspect == nil {
		return map[string]interface{}{"value": nil}, nil
	}
	value, ok := inspect.Inspect(a.Variable)
	if !ok {
		return map[string]interface{}{"value": nil}, nil
	}
	return map[string]interface{}{"value": value}, nil
}
