package peerapp

import (
	"net"
	"os"
	"path/filepath"
	"testing"

	"github.com/habemusne/swarmshare/internal/peerstore"
	"github.com/habemusne/swarmshare/internal/swarmlog"
	"github.com/habemusne/swarmshare/internal/tracker"
	"github.com/habemusne/swarmshare/internal/trackerserver"
	"github.com/stretchr/testify/require"
)

func startTracker(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	srv := trackerserver.New(l, tracker.NewIndex(), swarmlog.New("test-tracker"))
	go srv.Serve()
	t.Cleanup(func() { srv.Close() })
	return l.Addr().String()
}

func TestDispatch_RegFile_DropsMissingPathsAndRegisters(t *testing.T) {
	trackerAddr := startTracker(t)
	store := peerstore.New(t.TempDir())
	app := New("127.0.0.1:19991", trackerAddr, 2, store, swarmlog.New("test-peer"))

	srcDir := t.TempDir()
	path := filepath.Join(srcDir, "a.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0640))
	missing := filepath.Join(srcDir, "does-not-exist.txt")

	resp, err := app.Dispatch("reg_file", map[string]interface{}{
		"files": []string{path, missing},
	})
	require.NoError(t, err)
	results, ok := resp.([]map[string]bool)
	require.True(t, ok)
	require.Equal(t, []map[string]bool{{"a.txt": true}}, results)

	data, err := store.Read("a.txt", 0)
	require.NoError(t, err)
	require.Equal(t, []byte("hello"), data)
}

func TestDispatch_UnrecognizedAction(t *testing.T) {
	trackerAddr := startTracker(t)
	store := peerstore.New(t.TempDir())
	app := New("127.0.0.1:19990", trackerAddr, 2, store, swarmlog.New("test-peer"))

	_, err := app.Dispatch("not_a_real_action", map[string]interface{}{})
	require.Error(t, err)
}

func TestDispatch_ListAfterRegFile(t *testing.T) {
	trackerAddr := startTracker(t)
	store := peerstore.New(t.TempDir())
	app := New("127.0.0.1:19989", trackerAddr, 2, store, swarmlog.New("test-peer"))

	srcDir := t.TempDir()
	path := filepath.Join(srcDir, "b.txt")
	require.NoError(t, os.WriteFile(path, []byte("some content"), 0640))
	_, err := app.Dispatch("reg_file", map[string]interface{}{"files": []string{path}})
	require.NoError(t, err)

	resp, err := app.Dispatch("list", map[string]interface{}{})
	require.NoError(t, err)
	result, ok := resp.(tracker.FileListResult)
	require.True(t, ok)
	require.Equal(t, 1, result.Count)
	require.Equal(t, "b.txt", result.Result[0].Filename)
}
