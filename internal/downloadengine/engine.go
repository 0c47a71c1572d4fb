package downloadengine

import (
	"net"
	"os"
	"sync"
	"sync/atomic"

	"github.com/habemusne/swarmshare/internal/chunkio"
	"github.com/habemusne/swarmshare/internal/downloadqueue"
	"github.com/habemusne/swarmshare/internal/peerstore"
	"github.com/habemusne/swarmshare/internal/rpcclient"
	"github.com/habemusne/swarmshare/internal/swarmlog"
	"github.com/rcrowley/go-metrics"
)

// Engine drives one download at a time: consult the tracker, build a
// priority task queue, run workers and a supervisor against it, then
// recompose and verify the result (spec.md §4.6).
type Engine struct {
	client      *rpcclient.Client
	store       *peerstore.Store
	trackerAddr string
	numWorkers  int
	log         swarmlog.Logger
}

// New returns an Engine that fetches chunks via client and persists them
// through store, consulting trackerAddr and running numWorkers workers per
// download.
func New(client *rpcclient.Client, store *peerstore.Store, trackerAddr string, numWorkers int, log swarmlog.Logger) *Engine {
	return &Engine{client: client, store: store, trackerAddr: trackerAddr, numWorkers: numWorkers, log: log}
}

// Run downloads filename to destination using scheme, blocking until the
// download reaches a terminal outcome.
func (e *Engine) Run(filename, destination string, scheme Scheme) (Result, error) {
	loc, err := e.client.Locate(e.trackerAddr, filename, true)
	if err != nil {
		return Result{}, err
	}
	if len(loc.Addresses) == 0 {
		return Result{Outcome: OutcomeFileUnavailable}, nil
	}

	candidatesByChunk := map[int]map[string]struct{}{}
	for _, am := range loc.Addresses {
		addr := net.JoinHostPort(am.Host, am.Port)
		for _, c := range am.Chunks {
			if candidatesByChunk[c.ID] == nil {
				candidatesByChunk[c.ID] = map[string]struct{}{}
			}
			candidatesByChunk[c.ID][addr] = struct{}{}
		}
	}
	chunkMD5 := map[int]string{}
	for _, am := range loc.Addresses {
		for _, c := range am.Chunks {
			if c.MD5 != "" {
				chunkMD5[c.ID] = c.MD5
			}
		}
	}

	total := chunkio.NumChunks(loc.Bytes)
	queue := downloadqueue.New()
	for id := 0; id < total; id++ {
		candidates := candidatesByChunk[id]
		if candidates == nil {
			candidates = map[string]struct{}{}
		}
		priority := id
		if scheme == SchemeRarestFirst {
			priority = len(candidates)
		}
		queue.Push(&downloadqueue.Task{
			Filename:    filename,
			ChunkID:     id,
			ExpectedMD5: chunkMD5[id],
			Candidates:  candidates,
			Priority:    priority,
		})
	}

	var failFlag int32
	progress := &progressLog{}
	speed := metrics.NewEWMA1()
	done := make(chan struct{})
	go supervisor(queue, progress, &failFlag, total, speed, done, e.log)

	var wg sync.WaitGroup
	for i := 0; i < e.numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			worker(e.client, e.store, queue, progress, &failFlag, scheme, e.trackerAddr, filename, speed, e.log)
		}()
	}
	wg.Wait()
	close(done)

	if atomic.LoadInt32(&failFlag) == 1 {
		return Result{Outcome: OutcomeDownloadFailed, Chunks: reportable(progress.snapshot())}, nil
	}

	ids := make([]int, total)
	for i := range ids {
		ids[i] = i
	}

	gotMD5, err := e.store.DigestAll(filename, ids)
	if err != nil {
		return Result{}, err
	}
	if gotMD5 != loc.MD5 {
		return Result{Outcome: OutcomeMD5Mismatch}, nil
	}

	if err := e.store.Reassemble(filename, ids, destination); err != nil {
		return Result{}, err
	}

	info, err := os.Stat(destination)
	if err != nil {
		return Result{}, err
	}
	if info.Size() != loc.Bytes {
		os.Remove(destination)
		return Result{Outcome: OutcomeSizeMismatch}, nil
	}

	entries, truncated := truncateEntries(progress.snapshot())
	return Result{Outcome: OutcomeSuccess, Bytes: info.Size(), Chunks: entries, Truncated: truncated}, nil
}

func reportable(entries []ProgressEntry) []ProgressEntry {
	out, _ := truncateEntries(entries)
	return out
}

func truncateEntries(entries []ProgressEntry) ([]ProgressEntry, bool) {
	if len(entries) <= maxReportedChunks {
		return entries, false
	}
	return entries[:maxReportedChunks], true
}
