// Package peerstore is a peer's exclusive owner of its local chunk store
// (spec.md §3: "Each peer exclusively owns its local chunk store"). It
// binds a tmp_dir to the chunkio primitives so callers never pass paths
// around by hand.
package peerstore

import "github.com/habemusne/swarmshare/internal/chunkio"

// Store is a chunk store rooted at a single tmp_dir.
type Store struct {
	tmpDir string
}

// New returns a Store rooted at tmpDir. tmpDir is created lazily by the
// first Write call.
func New(tmpDir string) *Store {
	return &Store{tmpDir: tmpDir}
}

// TmpDir returns the root directory this store writes under.
func (s *Store) TmpDir() string { return s.tmpDir }

// Read returns a locally stored chunk's bytes, or nil with no error if
// the chunk is not present.
func (s *Store) Read(filename string, chunkID int) ([]byte, error) {
	return chunkio.ReadChunk(s.tmpDir, filename, chunkID)
}

// Write persists a verified chunk's bytes.
func (s *Store) Write(filename string, chunkID int, data []byte) error {
	return chunkio.WriteChunk(s.tmpDir, filename, chunkID, data)
}

// DigestAll recomputes the whole-file MD5 across chunkIDs in order.
func (s *Store) DigestAll(filename string, chunkIDs []int) (string, error) {
	return chunkio.DigestStoredChunks(s.tmpDir, filename, chunkIDs)
}

// Reassemble concatenates chunkIDs in order into dest.
func (s *Store) Reassemble(filename string, chunkIDs []int, dest string) error {
	return chunkio.Reassemble(s.tmpDir, filename, chunkIDs, dest)
}

// SplitAndRegister reads a local source file, returning its chunk slices
// and manifest for the caller to hand to reg_file and to seed its own
// store with (a seeder already holds the bytes on disk, so it writes
// through Write once per chunk after a successful Split).
func (s *Store) SplitAndRegister(sourcePath string) ([]chunkio.Chunk, chunkio.Manifest, error) {
	return chunkio.Split(sourcePath)
}
