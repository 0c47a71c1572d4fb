// Command peer runs a swarmshare peer: it serves chunks from local
// storage and, on command, downloads files by consulting a tracker and
// fetching chunks directly from other peers (spec.md §4.7).
package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/habemusne/swarmshare"
	"github.com/habemusne/swarmshare/internal/peerapp"
	"github.com/habemusne/swarmshare/internal/peerserver"
	"github.com/habemusne/swarmshare/internal/peerstore"
	"github.com/habemusne/swarmshare/internal/portpool"
	"github.com/habemusne/swarmshare/internal/swarmlog"
	"github.com/spf13/cobra"
)

var (
	host        string
	port        uint16
	trackerHost string
	trackerPort uint16
	numThreads  int
	name        string
	mode        string
	script      string
	configPath  string
	logLevel    string
)

func main() {
	root := &cobra.Command{
		Use:   "peer",
		Short: "Run a swarmshare peer",
		RunE:  run,
	}
	root.Flags().StringVarP(&host, "host", "H", "", "address to listen on (overrides config)")
	root.Flags().Uint16VarP(&port, "port", "p", 0, "port to listen on (overrides config)")
	root.Flags().StringVar(&trackerHost, "tracker-host", "", "tracker address (overrides config)")
	root.Flags().Uint16Var(&trackerPort, "tracker-port", 0, "tracker port (overrides config)")
	root.Flags().IntVarP(&numThreads, "num-download-threads", "t", 0, "download worker count (overrides config)")
	root.Flags().StringVarP(&name, "name", "n", "", "peer name, used as the tmp_dir suffix")
	root.Flags().StringVarP(&mode, "mode", "m", "", "interactive, scripted, or step (overrides config)")
	root.Flags().StringVarP(&script, "script", "s", "", "scripted/step mode: a file path or inline JSON command list")
	root.Flags().StringVarP(&configPath, "config", "c", "peer.yaml", "path to a YAML config file")
	root.Flags().StringVarP(&logLevel, "log-level", "l", "info", "debug, info, warn, or error")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	swarmlog.SetLevel(logLevel)
	log := swarmlog.New("peer")

	cfg, err := swarmshare.LoadPeerConfig(configPath)
	if err != nil {
		return err
	}
	applyOverrides(cfg)

	tmpDir, err := cfg.TmpDir()
	if err != nil {
		return err
	}
	if tmpDir == "" {
		tmpDir = "chunks/" + uuid.NewString()
	}
	if err := os.MkdirAll(tmpDir, 0750); err != nil {
		return err
	}
	log.Infof("chunk store: %s", tmpDir)

	ownAddr := net.JoinHostPort(cfg.Host, fmt.Sprintf("%d", cfg.Port))
	trackerAddr := net.JoinHostPort(cfg.TrackerHost, fmt.Sprintf("%d", cfg.TrackerPort))

	store := peerstore.New(tmpDir)
	listener, err := net.Listen("tcp", ownAddr)
	if err != nil {
		return err
	}
	srv := peerserver.New(listener, store, nil, log.With("server"))
	srv.WithPortPool(portpool.New(cfg.PortRangeBegin, cfg.PortRangeEnd))
	go srv.Serve()

	app := peerapp.New(ownAddr, trackerAddr, cfg.NumDownloadThreads, store, log.With("app"))

	switch cfg.Mode {
	case "scripted", "step":
		return runScripted(app, cfg.Script, cfg.Mode == "step", log)
	default:
		return runInteractive(app, log)
	}
}

func applyOverrides(cfg *swarmshare.PeerConfig) {
	if host != "" {
		cfg.Host = host
	}
	if port != 0 {
		cfg.Port = port
	}
	if trackerHost != "" {
		cfg.TrackerHost = trackerHost
	}
	if trackerPort != 0 {
		cfg.TrackerPort = trackerPort
	}
	if numThreads != 0 {
		cfg.NumDownloadThreads = numThreads
	}
	if name != "" {
		cfg.Name = name
	}
	if mode != "" {
		cfg.Mode = mode
	}
	if script != "" {
		cfg.Script = script
	}
}

// scriptEntry is one scheduled command, mirroring the reference peer's
// scripted command file shape: a wire-style "<action> <json-args>" string
// plus how long to wait before issuing it.
type scriptEntry struct {
	Command     string  `json:"command"`
	WaitSeconds float64 `json:"wait_seconds"`
}

func runScripted(app *peerapp.App, script string, step bool, log swarmlog.Logger) error {
	var raw []byte
	if strings.HasPrefix(strings.TrimSpace(script), "[") {
		raw = []byte(script)
	} else {
		b, err := os.ReadFile(script)
		if err != nil {
			return err
		}
		raw = b
	}

	var entries []scriptEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return err
	}

	for _, entry := range entries {
		if step {
			fmt.Fprint(os.Stderr, "Press ENTER to continue: ")
			bufio.NewReader(os.Stdin).ReadString('\n')
		} else if entry.WaitSeconds > 0 {
			time.Sleep(time.Duration(entry.WaitSeconds * float64(time.Second)))
		}
		log.Infof("request sent: %s", entry.Command)
		dispatchLine(app, entry.Command, log)
	}
	return nil
}

func runInteractive(app *peerapp.App, log swarmlog.Logger) error {
	scanner := bufio.NewScanner(os.Stdin)
	fmt.Println("Please enter command:")
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		dispatchLine(app, line, log)
	}
	return scanner.Err()
}

func dispatchLine(app *peerapp.App, line string, log swarmlog.Logger) {
	action, argsJSON, ok := strings.Cut(line, " ")
	if !ok {
		argsJSON = "{}"
	}
	var args map[string]interface{}
	if err := json.Unmarshal([]byte(argsJSON), &args); err != nil {
		log.Errorf("malformed command args: %v", err)
		return
	}
	resp, err := app.Dispatch(action, args)
	if err != nil {
		log.Errorf("response: error: %v", err)
		return
	}
	log.Infof("response received: %+v", resp)
}
