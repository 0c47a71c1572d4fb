package chunkio

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSplitAndDigest_MultiChunk(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "source.bin")
	content := make([]byte, ChunkSize*2+100)
	for i := range content {
		content[i] = byte(i % 251)
	}
	require.NoError(t, os.WriteFile(src, content, 0640))

	chunks, manifest, err := Split(src)
	require.NoError(t, err)
	require.Len(t, chunks, 3)
	require.Equal(t, int64(len(content)), manifest.Bytes)
	require.Equal(t, Digest(content), manifest.MD5)
	require.Len(t, chunks[2].Data, 100)

	for _, c := range chunks {
		require.Equal(t, Digest(c.Data), c.MD5)
	}
}

func TestSplit_EmptyFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "empty.bin")
	require.NoError(t, os.WriteFile(src, nil, 0640))

	chunks, manifest, err := Split(src)
	require.NoError(t, err)
	require.Empty(t, chunks)
	require.Equal(t, Digest(nil), manifest.MD5)
	require.Equal(t, 0, manifest.ChunkCount)
}

func TestWriteReadReassemble_RoundTrip(t *testing.T) {
	tmpDir := t.TempDir()
	content := []byte("Hello, world!\n")

	require.NoError(t, WriteChunk(tmpDir, "hello.txt", 0, content))

	got, err := ReadChunk(tmpDir, "hello.txt", 0)
	require.NoError(t, err)
	require.Equal(t, content, got)

	dest := filepath.Join(tmpDir, "out", "hello.txt")
	require.NoError(t, Reassemble(tmpDir, "hello.txt", []int{0}, dest))

	out, err := os.ReadFile(dest)
	require.NoError(t, err)
	require.Equal(t, content, out)

	digest, err := DigestStoredChunks(tmpDir, "hello.txt", []int{0})
	require.NoError(t, err)
	require.Equal(t, Digest(content), digest)
}

func TestReadChunk_MissingReturnsNilNoError(t *testing.T) {
	tmpDir := t.TempDir()
	data, err := ReadChunk(tmpDir, "nope.txt", 7)
	require.NoError(t, err)
	require.Nil(t, data)
}

func TestNumChunks(t *testing.T) {
	require.Equal(t, 0, NumChunks(0))
	require.Equal(t, 1, NumChunks(1))
	require.Equal(t, 1, NumChunks(ChunkSize))
	require.Equal(t, 2, NumChunks(ChunkSize+1))
}
