package tracker

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func sampleFiles() []FileSubmission {
	return []FileSubmission{
		{
			Filename:  "a.txt",
			Bytes:     2048,
			MD5Full:   "fullmd5a",
			MD5Chunks: []string{"chunk0", "chunk1"},
		},
	}
}

func TestRegisterFiles_NewAndDuplicate(t *testing.T) {
	idx := NewIndex()
	res := idx.RegisterFiles("1.2.3.4:9001", sampleFiles())
	require.Equal(t, []map[string]bool{{"a.txt": true}}, res)

	res2 := idx.RegisterFiles("5.6.7.8:9002", sampleFiles())
	require.Equal(t, []map[string]bool{{"a.txt": false}}, res2)
}

func TestListFiles(t *testing.T) {
	idx := NewIndex()
	idx.RegisterFiles("1.2.3.4:9001", sampleFiles())
	out := idx.ListFiles()
	require.Len(t, out, 1)
	require.Equal(t, FileSummary{Filename: "a.txt", Bytes: 2048}, out[0])
}

func TestLocate_UnknownFile(t *testing.T) {
	idx := NewIndex()
	loc := idx.Locate("nope.txt", false)
	require.Equal(t, 0, loc.Count)
	require.Empty(t, loc.Addresses)
}

func TestLocate_GroupsByAddressAndOptionallyIncludesMD5(t *testing.T) {
	idx := NewIndex()
	idx.RegisterFiles("1.2.3.4:9001", sampleFiles())
	require.True(t, idx.RegisterChunk("5.6.7.8:9002", "a.txt", 1, "chunk1"))

	loc := idx.Locate("a.txt", false)
	require.Equal(t, int64(2048), loc.Bytes)
	require.Equal(t, "fullmd5a", loc.MD5)
	require.Equal(t, 2, loc.Count)
	for _, am := range loc.Addresses {
		for _, c := range am.Chunks {
			require.Empty(t, c.MD5)
		}
	}

	withMD5 := idx.Locate("a.txt", true)
	found := false
	for _, am := range withMD5.Addresses {
		if am.Address == "1.2.3.4:9001" {
			found = true
			require.Equal(t, "chunk0", am.Chunks[0].MD5)
		}
	}
	require.True(t, found)
}

func TestRegisterChunk_WrongDigestOrRangeFails(t *testing.T) {
	idx := NewIndex()
	idx.RegisterFiles("1.2.3.4:9001", sampleFiles())

	require.False(t, idx.RegisterChunk("5.6.7.8:9002", "a.txt", 0, "wrong-digest"))
	require.False(t, idx.RegisterChunk("5.6.7.8:9002", "a.txt", 99, "chunk0"))
	require.False(t, idx.RegisterChunk("5.6.7.8:9002", "missing.txt", 0, "chunk0"))

	require.True(t, idx.RegisterChunk("5.6.7.8:9002", "a.txt", 0, "chunk0"))
	loc := idx.Locate("a.txt", false)
	require.Equal(t, 2, loc.Count)
}

func TestLeave_RemovesAddressAndDeletesEmptiedFile(t *testing.T) {
	idx := NewIndex()
	idx.RegisterFiles("1.2.3.4:9001", sampleFiles())
	idx.RegisterChunk("5.6.7.8:9002", "a.txt", 0, "chunk0")
	idx.RegisterChunk("5.6.7.8:9002", "a.txt", 1, "chunk1")

	// 1.2.3.4 leaving still leaves 5.6.7.8 holding every chunk.
	idx.Leave("1.2.3.4:9001")
	loc := idx.Locate("a.txt", false)
	require.Equal(t, 1, loc.Count)
	require.Equal(t, "5.6.7.8:9002", loc.Addresses[0].Address)

	// The last holder leaving must erase the file entirely.
	idx.Leave("5.6.7.8:9002")
	out := idx.ListFiles()
	require.Empty(t, out)
	loc = idx.Locate("a.txt", false)
	require.Equal(t, 0, loc.Count)
}

func TestLeave_UnknownAddressIsNoop(t *testing.T) {
	idx := NewIndex()
	idx.RegisterFiles("1.2.3.4:9001", sampleFiles())
	idx.Leave("9.9.9.9:1")
	out := idx.ListFiles()
	require.Len(t, out, 1)
}
