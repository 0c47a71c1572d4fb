// Package trackerserver wires the tracker's in-memory index
// (internal/tracker) to the wire protocol's dispatch table, serving every
// tracker-side action over a listening TCP socket (spec.md §4.5).
package trackerserver

import (
	"net"

	"github.com/habemusne/swarmshare/internal/portpool"
	"github.com/habemusne/swarmshare/internal/swarmlog"
	"github.com/habemusne/swarmshare/internal/tracker"
	"github.com/habemusne/swarmshare/internal/wireproto"
)

// Server is a tracker process's listening endpoint.
type Server struct {
	idx *tracker.Index
	ws  *wireproto.Server
	log swarmlog.Logger
}

// New binds listener and registers handlers for every tracker-servable
// action against idx.
func New(listener net.Listener, idx *tracker.Index, log swarmlog.Logger) *Server {
	s := &Server{idx: idx, log: log}
	s.ws = wireproto.NewServer(listener, wireproto.RoleTracker, log)
	s.ws.Handle(wireproto.ActionRegFile, s.handleRegFile)
	s.ws.Handle(wireproto.ActionList, s.handleList)
	s.ws.Handle(wireproto.ActionLoc, s.handleLoc)
	s.ws.Handle(wireproto.ActionRegChunk, s.handleRegChunk)
	s.ws.Handle(wireproto.ActionLeave, s.handleLeave)
	s.ws.Handle(wireproto.ActionInspect, s.handleInspect)
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
	s.log.Infof("tracker listening on %s", s.ws.Addr())
	return s.ws.Serve()
}

// Close stops accepting new connections.
func (s *Server) Close() error { return s.ws.Close() }

type regFileArgs struct {
	Files []struct {
		Filename  string   `json:"filename"`
		Bytes     int64    `json:"bytes"`
		MD5Full   string   `json:"md5_full"`
		MD5Chunks []string `json:"md5_chunks"`
	} `json:"files"`
}

func (s *Server) handleRegFile(args map[string]interface{}) (interface{}, error) {
	var a regFileArgs
	if err := wireproto.ArgsToStruct(args, &a); err != nil {
		return nil, err
	}
	address := wireproto.AddressOf(args)

	submissions := make([]tracker.FileSubmission, len(a.Files))
	for i, f := range a.Files {
		submissions[i] = tracker.FileSubmission{
			Filename:  f.Filename,
			Bytes:     f.Bytes,
			MD5Full:   f.MD5Full,
			MD5Chunks: f.MD5Chunks,
		}
	}
	return s.idx.RegisterFiles(address, submissions), nil
}

func (s *Server) handleList(args map[string]interface{}) (interface{}, error) {
	files := s.idx.ListFiles()
	return tracker.FileListResult{Count: len(files), Result: files}, nil
}

type locArgs struct {
	Filename   string `json:"filename"`
	IncludeMD5 bool   `json:"include_md5"`
}

func (s *Server) handleLoc(args map[string]interface{}) (interface{}, error) {
	var a locArgs
	if err := wireproto.ArgsToStruct(args, &a); err != nil {
		return nil, err
	}
	return s.idx.Locate(a.Filename, a.IncludeMD5), nil
}

type regChunkArgs struct {
	Filename string `json:"filename"`
	ChunkID  int    `json:"chunkid"`
	MD5      string `json:"md5"`
}

type regChunkResult struct {
	Result bool `json:"result"`
}

func (s *Server) handleRegChunk(args map[string]interface{}) (interface{}, error) {
	var a regChunkArgs
	if err := wireproto.ArgsToStruct(args, &a); err != nil {
		return nil, err
	}
	address := wireproto.AddressOf(args)
	ok := s.idx.RegisterChunk(address, a.Filename, a.ChunkID, a.MD5)
	return regChunkResult{Result: ok}, nil
}

func (s *Server) handleLeave(args map[string]interface{}) (interface{}, error) {
	address := wireproto.AddressOf(args)
	s.idx.Leave(address)
	return struct{}{}, nil
}

type inspectArgs struct {
	Variable string `json:"variable"`
}

func (s *Server) handleInspect(args map[string]interface{}) (interface{}, error) {
	var a inspectArgs
	if err := wireproto.ArgsToStruct(args, &a); err != nil {
		return nil, err
	}
	switch a.Variable {
	case "file_count":
		return map[string]int{"value": len(s.idx.ListFiles())}, nil
	default:
		return map[string]interface{}{"value": nil}, nil
	}
}
