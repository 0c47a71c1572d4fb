// Package rpcclient is the outbound half of the wire protocol: it dials a
// remote address, sends one framed request, and decodes the framed
// response, for both tracker-bound and peer-bound actions (spec.md §4.1).
package rpcclient

import (
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/habemusne/swarmshare/internal/tracker"
	"github.com/habemusne/swarmshare/internal/wireproto"
)

// DialTimeout bounds how long a single call waits to establish a
// connection; spec.md §5 leaves connection timeouts to the implementer.
const DialTimeout = 5 * time.Second

// Client issues requests on behalf of one node, tagging every outbound
// request with that node's own address.
type Client struct {
	ownAddress string
}

// New returns a Client that will stamp ownAddress on every request.
func New(ownAddress string) *Client {
	return &Client{ownAddress: ownAddress}
}

// call dials address, sends action with args, and returns the raw
// response body along with the ActionSpec used (so callers can tell JSON
// from byte responses apart).
func (c *Client) call(address, action string, args interface{}) ([]byte, wireproto.ActionSpec, error) {
	spec, ok := wireproto.Lookup(action)
	if !ok {
		return nil, spec, fmt.Errorf("rpcclient: unknown action %q", action)
	}

	payload, err := wireproto.EncodeRequest(action, args, c.ownAddress)
	if err != nil {
		return nil, spec, err
	}

	conn, err := net.DialTimeout("tcp", address, DialTimeout)
	if err != nil {
		return nil, spec, err
	}
	defer conn.Close()

	if err := wireproto.WriteFrame(conn, payload); err != nil {
		return nil, spec, err
	}
	body, err := wireproto.ReadFrame(conn)
	if err != nil {
		return nil, spec, err
	}
	return body, spec, nil
}

func (c *Client) callJSON(address, action string, args interface{}, out interface{}) error {
	body, _, err := c.call(address, action, args)
	if err != nil {
		return err
	}
	return json.Unmarshal(body, out)
}

// FileArg is one local file a peer wants to register, already expanded
// into digests (spec.md §6).
type FileArg struct {
	Filename  string   `json:"filename"`
	Bytes     int64    `json:"bytes"`
	MD5Full   string   `json:"md5_full"`
	MD5Chunks []string `json:"md5_chunks"`
}

// RegFile calls reg_file on trackerAddr.
func (c *Client) RegFile(trackerAddr string, files []FileArg) ([]map[string]bool, error) {
	var out []map[string]bool
	err := c.callJSON(trackerAddr, wireproto.ActionRegFile, map[string]interface{}{"files": files}, &out)
	return out, err
}

// ListFiles calls list on trackerAddr.
func (c *Client) ListFiles(trackerAddr string) (tracker.FileListResult, error) {
	var out tracker.FileListResult
	err := c.callJSON(trackerAddr, wireproto.ActionList, map[string]interface{}{}, &out)
	return out, err
}

// Locate calls loc on trackerAddr.
func (c *Client) Locate(trackerAddr, filename string, includeMD5 bool) (tracker.LocResult, error) {
	var out tracker.LocResult
	args := map[string]interface{}{"filename": filename, "include_md5": includeMD5}
	err := c.callJSON(trackerAddr, wireproto.ActionLoc, args, &out)
	return out, err
}

// RegChunk calls reg_chunk on trackerAddr.
func (c *Client) RegChunk(trackerAddr, filename string, chunkID int, md5 string) (bool, error) {
	var out struct {
		Result bool `json:"result"`
	}
	args := map[string]interface{}{"filename": filename, "chunkid": chunkID, "md5": md5}
	err := c.callJSON(trackerAddr, wireproto.ActionRegChunk, args, &out)
	return out.Result, err
}

// Leave calls leave on trackerAddr.
func (c *Client) Leave(trackerAddr string) error {
	_, _, err := c.call(trackerAddr, wireproto.ActionLeave, map[string]interface{}{})
	return err
}

// DownloadChunk calls download on peerAddr and returns the raw chunk
// bytes (an empty, non-nil slice means the peer does not have the
// chunk).
func (c *Client) DownloadChunk(peerAddr, filename string, chunkID int) ([]byte, error) {
	args := map[string]interface{}{"filename": filename, "chunkid": chunkID}
	body, _, err := c.call(peerAddr, wireproto.ActionDownload, args)
	return body, err
}

// Inspect calls inspect on addr.
func (c *Client) Inspect(addr, variable string) (interface{}, error) {
	var out struct {
		Value interface{} `json:"value"`
	}
	err := c.callJSON(addr, wireproto.ActionInspect, map[string]interface{}{"variable": variable}, &out)
	return out.Value, err
}
