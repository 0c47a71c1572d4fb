// Command tracker runs the central directory for a swarmshare network: it
// holds no chunk bytes, only the file/chunk/peer metadata peers consult
// before downloading (spec.md §4.7).
package main

import (
	"fmt"
	"net"
	"os"

	"github.com/habemusne/swarmshare"
	"github.com/habemusne/swarmshare/internal/portpool"
	"github.com/habemusne/swarmshare/internal/swarmlog"
	"github.com/habemusne/swarmshare/internal/tracker"
	"github.com/habemusne/swarmshare/internal/trackerserver"
	"github.com/spf13/cobra"
)

var (
	host       string
	port       uint16
	configPath string
	logLevel   string
)

func main() {
	root := &cobra.Command{
		Use:   "tracker",
		Short: "Run a swarmshare tracker",
		RunE:  run,
	}
	root.Flags().StringVarP(&host, "host", "H", "", "address to listen on (overrides config)")
	root.Flags().Uint16VarP(&port, "port", "p", 0, "port to listen on (overrides config)")
	root.Flags().StringVarP(&configPath, "config", "c", "tracker.yaml", "path to a YAML config file")
	root.Flags().StringVarP(&logLevel, "log-level", "l", "info", "debug, info, warn, or error")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	swarmlog.SetLevel(logLevel)
	log := swarmlog.New("tracker")

	cfg, err := swarmshare.LoadTrackerConfig(configPath)
	if err != nil {
		return err
	}
	if host != "" {
		cfg.Host = host
	}
	if port != 0 {
		cfg.Port = port
	}

	addr := net.JoinHostPort(cfg.Host, fmt.Sprintf("%d", cfg.Port))
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	idx := tracker.NewIndex()
	srv := trackerserver.New(listener, idx, log)
	srv.WithPortPool(portpool.New(cfg.PortRangeBegin, cfg.PortRangeEnd))
	return srv.Serve()
}
