// Package chunkio splits files into fixed-size chunks, computes per-chunk
// and whole-file MD5 digests, writes verified chunks to the on-disk chunk
// store, and reassembles a file from its chunks.
package chunkio

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
)

// ChunkSize is the network-wide constant chunk length in bytes. Every peer
// participating in the network must use the same value, or digests will
// disagree (spec.md §4.3).
const ChunkSize = 1024

// Chunk is a single fixed-size (except possibly the last) slice of a file.
type Chunk struct {
	ID   int
	MD5  string
	Data []byte
}

// Manifest describes the result of splitting a local file: the ordered
// per-chunk digests and the whole-file digest and size.
type Manifest struct {
	Bytes      int64
	MD5        string
	ChunkCount int
	ChunkMD5s  []string
}

// NumChunks returns ceil(size / ChunkSize), the dense chunk count for a
// file of the given byte size (0 for an empty file).
func NumChunks(size int64) int {
	if size <= 0 {
		return 0
	}
	return int(math.Ceil(float64(size) / float64(ChunkSize)))
}

// Split reads path in ChunkSize increments, returning one Chunk per read (the
// last chunk may be shorter) along with a Manifest of digests. It does not
// persist anything to disk; callers decide what to do with the data.
func Split(path string) ([]Chunk, Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, Manifest{}, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, Manifest{}, err
	}

	fullHash := md5.New()
	var chunks []Chunk
	buf := make([]byte, ChunkSize)
	id := 0
	for {
		n, rerr := io.ReadFull(f, buf)
		if n > 0 {
			data := make([]byte, n)
			copy(data, buf[:n])
			sum := md5.Sum(data)
			chunks = append(chunks, Chunk{ID: id, MD5: hex.EncodeToString(sum[:]), Data: data})
			fullHash.Write(data)
			id++
		}
		if rerr == io.EOF || rerr == io.ErrUnexpectedEOF {
			break
		}
		if rerr != nil {
			return nil, Manifest{}, rerr
		}
	}

	chunkMD5s := make([]string, len(chunks))
	for i, c := range chunks {
		chunkMD5s[i] = c.MD5
	}
	m := Manifest{
		Bytes:      info.Size(),
		MD5:        hex.EncodeToString(fullHash.Sum(nil)),
		ChunkCount: len(chunks),
		ChunkMD5s:  chunkMD5s,
	}
	return chunks, m, nil
}

// Digest returns the MD5 hex digest of b.
func Digest(b []byte) string {
	sum := md5.Sum(b)
	return hex.EncodeToString(sum[:])
}

// ChunkPath returns the on-disk path of a persisted chunk, following
// spec.md §3: "<tmp_dir>/<filename>/<chunkid>.chunk".
func ChunkPath(tmpDir, filename string, chunkID int) string {
	return filepath.Join(tmpDir, filename, fmt.Sprintf("%d.chunk", chunkID))
}

// WriteChunk persists a verified chunk's bytes to the chunk store,
// creating the per-file directory if needed.
func WriteChunk(tmpDir, filename string, chunkID int, data []byte) error {
	path := ChunkPath(tmpDir, filename, chunkID)
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0640)
}

// ReadChunk reads a locally stored chunk. A missing chunk returns a nil
// slice and no error: spec.md §4.5 treats an absent chunk as an empty byte
// response, leaving verification (and failover) to the caller.
func ReadChunk(tmpDir, filename string, chunkID int) ([]byte, error) {
	path := ChunkPath(tmpDir, filename, chunkID)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

// DigestStoredChunks recomputes the whole-file MD5 by hashing every chunk
// file for filename, in chunkID order, without reassembling them to disk.
func DigestStoredChunks(tmpDir, filename string, chunkIDs []int) (string, error) {
	ids := append([]int(nil), chunkIDs...)
	sort.Ints(ids)
	h := md5.New()
	for _, id := range ids {
		data, err := ReadChunk(tmpDir, filename, id)
		if err != nil {
			return "", err
		}
		h.Write(data)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Reassemble concatenates the chunk files for filename, in chunkID order,
// into dest. The destination directory is created if necessary.
func Reassemble(tmpDir, filename string, chunkIDs []int, dest string) error {
	ids := append([]int(nil), chunkIDs...)
	sort.Ints(ids)

	if err := os.MkdirAll(filepath.Dir(dest), 0750); err != nil {
		return err
	}
	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer out.Close()

	for _, id := range ids {
		data, err := ReadChunk(tmpDir, filename, id)
		if err != nil {
			return err
		}
		if _, err := out.Write(data); err != nil {
			return err
		}
	}
	return nil
}
