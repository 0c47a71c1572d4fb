package swarmshare

import (
	"os"

	homedir "github.com/mitchellh/go-homedir"
	"gopkg.in/yaml.v3"
)

// TrackerConfig is a tracker process's configuration (spec.md §6).
type TrackerConfig struct {
	Host           string `yaml:"host"`
	Port           uint16 `yaml:"port"`
	PortRangeBegin uint16 `yaml:"port_range_begin"`
	PortRangeEnd   uint16 `yaml:"port_range_end"`
}

// DefaultTrackerConfig is applied before any config file or flag override.
var DefaultTrackerConfig = TrackerConfig{
	Host:           "127.0.0.1",
	Port:           9000,
	PortRangeBegin: 9100,
	PortRangeEnd:   9200,
}

// LoadTrackerConfig layers filename's YAML contents over
// DefaultTrackerConfig. A missing file is not an error: the defaults are
// returned as-is.
func LoadTrackerConfig(filename string) (*TrackerConfig, error) {
	c := DefaultTrackerConfig
	b, err := os.ReadFile(filename)
	if os.IsNotExist(err) {
		return &c, nil
	}
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// PeerConfig is a peer process's configuration (spec.md §6).
type PeerConfig struct {
	Host               string `yaml:"host"`
	Port               uint16 `yaml:"port"`
	TrackerHost        string `yaml:"tracker_host"`
	TrackerPort        uint16 `yaml:"tracker_port"`
	PortRangeBegin     uint16 `yaml:"port_range_begin"`
	PortRangeEnd       uint16 `yaml:"port_range_end"`
	NumDownloadThreads int    `yaml:"num_download_threads"`
	Name               string `yaml:"name"`
	Mode               string `yaml:"mode"`
	Script             string `yaml:"script"`
}

// DefaultPeerConfig is applied before any config file or flag override.
var DefaultPeerConfig = PeerConfig{
	Host:               "127.0.0.1",
	Port:               9001,
	TrackerHost:        "127.0.0.1",
	TrackerPort:        9000,
	PortRangeBegin:     9300,
	PortRangeEnd:       9400,
	NumDownloadThreads: 4,
	Mode:               "interactive",
}

// LoadPeerConfig layers filename's YAML contents over DefaultPeerConfig, in
// the same permissive style as LoadTrackerConfig.
func LoadPeerConfig(filename string) (*PeerConfig, error) {
	c := DefaultPeerConfig
	b, err := os.ReadFile(filename)
	if os.IsNotExist(err) {
		return &c, nil
	}
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// TmpDir resolves a peer's chunk-store root: "chunks/<name>" when name is
// set (passed through homedir.Expand, which only rewrites a leading "~", so
// the path stays relative to the working directory), or an empty string
// when the caller must fall back to a freshly created unique directory
// (spec.md §6).
func (c PeerConfig) TmpDir() (string, error) {
	if c.Name == "" {
		return "", nil
	}
	return homedir.Expand("chunks/" + c.Name)
}
