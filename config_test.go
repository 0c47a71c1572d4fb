package swarmshare

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadPeerConfig_MissingFileReturnsDefaults(t *testing.T) {
	c, err := LoadPeerConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	require.Equal(t, DefaultPeerConfig, *c)
}

func TestLoadPeerConfig_OverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "peer.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: 9999\nname: alice\nnum_download_threads: 8\n"), 0640))

	c, err := LoadPeerConfig(path)
	require.NoError(t, err)
	require.EqualValues(t, 9999, c.Port)
	require.Equal(t, "alice", c.Name)
	require.Equal(t, 8, c.NumDownloadThreads)
	require.Equal(t, DefaultPeerConfig.TrackerHost, c.TrackerHost)
}

func TestLoadTrackerConfig_OverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tracker.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: 7000\n"), 0640))

	c, err := LoadTrackerConfig(path)
	require.NoError(t, err)
	require.EqualValues(t, 7000, c.Port)
}

func TestPeerConfig_TmpDir(t *testing.T) {
	c := PeerConfig{}
	dir, err := c.TmpDir()
	require.NoError(t, err)
	require.Empty(t, dir)

	c.Name = "alice"
	dir, err = c.TmpDir()
	require.NoError(t, err)
	require.Contains(t, dir, filepath.Join("chunks", "alice"))
}
