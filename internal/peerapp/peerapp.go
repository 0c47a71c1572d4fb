// Package peerapp is the peer-side command dispatcher: it turns a decoded
// "<action> <json-args>" command into a tracker RPC, a download-engine
// run, or a peer-local inspect, the way the reference peer's run loop
// chooses between requesting the server and requesting other peers
// (spec.md §4.7).
package peerapp

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/habemusne/swarmshare/internal/chunkio"
	"github.com/habemusne/swarmshare/internal/downloadengine"
	"github.com/habemusne/swarmshare/internal/peerstore"
	"github.com/habemusne/swarmshare/internal/rpcclient"
	"github.com/habemusne/swarmshare/internal/swarmlog"
	"github.com/habemusne/swarmshare/internal/wireproto"
)

// App binds one peer's identity, tracker address, local chunk store, and
// download engine together so command dispatch is a single call.
type App struct {
	ownAddress  string
	trackerAddr string
	client      *rpcclient.Client
	store       *peerstore.Store
	engine      *downloadengine.Engine
	log         swarmlog.Logger
}

// New returns an App ready to dispatch commands.
func New(ownAddress, trackerAddr string, numDownloadThreads int, store *peerstore.Store, log swarmlog.Logger) *App {
	client := rpcclient.New(ownAddress)
	engine := downloadengine.New(client, store, trackerAddr, numDownloadThreads, log)
	return &App{
		ownAddress:  ownAddress,
		trackerAddr: trackerAddr,
		client:      client,
		store:       store,
		engine:      engine,
		log:         log,
	}
}

// regFileRequest is the top-level command shape for reg_file: a list of
// local file paths the peer expands into digests before sending.
type regFileRequest struct {
	Files []string `json:"files"`
}

// downloadRequest is the top-level command shape for download: a
// peer-local command that drives the download engine (spec.md §6),
// distinct from the peer→peer "download {filename, chunkid}" RPC.
type downloadRequest struct {
	Filename    string `json:"filename"`
	Destination string `json:"destination"`
	Scheme      string `json:"scheme"`
}

type locRequest struct {
	Filename   string `json:"filename"`
	IncludeMD5 bool   `json:"include_md5"`
}

type inspectRequest struct {
	Address  string `json:"address"`
	Variable string `json:"variable"`
}

// Dispatch runs one decoded command and returns a value suitable for
// logging back to the operator.
func (a *App) Dispatch(action string, rawArgs map[string]interface{}) (interface{}, error) {
	switch action {
	case "reg_file":
		var req regFileRequest
		if err := decodeArgs(rawArgs, &req); err != nil {
			return nil, err
		}
		return a.regFile(req.Files)

	case "list":
		return a.client.ListFiles(a.trackerAddr)

	case "loc":
		var req locRequest
		if err := decodeArgs(rawArgs, &req); err != nil {
			return nil, err
		}
		return a.client.Locate(a.trackerAddr, req.Filename, req.IncludeMD5)

	case "leave":
		return nil, a.client.Leave(a.trackerAddr)

	case "download":
		var req downloadRequest
		if err := decodeArgs(rawArgs, &req); err != nil {
			return nil, err
		}
		scheme := downloadengine.SchemeNormal
		if req.Scheme == string(downloadengine.SchemeRarestFirst) {
			scheme = downloadengine.SchemeRarestFirst
		}
		return a.engine.Run(req.Filename, req.Destination, scheme)

	case "inspect":
		var req inspectRequest
		if err := decodeArgs(rawArgs, &req); err != nil {
			return nil, err
		}
		return a.client.Inspect(req.Address, req.Variable)

	default:
		return nil, fmt.Errorf("peerapp: unrecognized command %q", action)
	}
}

// regFile expands each local path into a reg_file entry the way the
// reference peer's preprocessing step does: missing paths are silently
// dropped (spec.md §7 "MissingFile"), and every chunk of each file the
// tracker accepted is written into this peer's own store since the
// registrant is the original seeder. Chunks of a rejected file are not
// written.
func (a *App) regFile(paths []string) ([]map[string]bool, error) {
	files := make([]rpcclient.FileArg, 0, len(paths))
	type pending struct {
		filename string
		chunks   []chunkio.Chunk
	}
	var toWrite []pending

	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			a.log.Warnf("file does not exist, dropping: %s", path)
			continue
		}
		chunks, manifest, err := a.store.SplitAndRegister(path)
		if err != nil {
			return nil, err
		}
		filename := filepath.Base(path)
		files = append(files, rpcclient.FileArg{
			Filename:  filename,
			Bytes:     manifest.Bytes,
			MD5Full:   manifest.MD5,
			MD5Chunks: manifest.ChunkMD5s,
		})
		toWrite = append(toWrite, pending{filename: filename, chunks: chunks})
	}

	results, err := a.client.RegFile(a.trackerAddr, files)
	if err != nil {
		return nil, err
	}

	for i, p := range toWrite {
		if i >= len(results) || !results[i][p.filename] {
			continue
		}
		for _, c := range p.chunks {
			if err := a.store.Write(p.filename, c.ID, c.Data); err != nil {
				return results, err
			}
		}
	}
	return results, nil
}

func decodeArgs(raw map[string]interface{}, out interface{}) error {
	return wireproto.ArgsToStruct(raw, out)
}
