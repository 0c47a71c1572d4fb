package downloadengine

import (
	"sync/atomic"
	"time"

	"github.com/habemusne/swarmshare/internal/chunkio"
	"github.com/habemusne/swarmshare/internal/downloadqueue"
	"github.com/habemusne/swarmshare/internal/peerstore"
	"github.com/habemusne/swarmshare/internal/rpcclient"
	"github.com/habemusne/swarmshare/internal/swarmlog"
	"github.com/rcrowley/go-metrics"
)

// popTimeout bounds each blocking queue pop, so a worker notices a global
// failure signal or an empty, fully-drained queue promptly (spec.md §5).
const popTimeout = 200 * time.Millisecond

// worker runs one download worker's loop: pop a task, pick a candidate,
// fetch, verify, and either finish or re-queue it, per spec.md §4.6.
func worker(
	client *rpcclient.Client,
	store *peerstore.Store,
	queue *downloadqueue.Queue,
	progress *progressLog,
	failFlag *int32,
	scheme Scheme,
	trackerAddr, filename string,
	speed metrics.EWMA,
	log swarmlog.Logger,
) {
	for {
		task, ok := queue.Pop(popTimeout)
		if !ok {
			if queue.Pending() == 0 {
				return
			}
			continue
		}

		if atomic.LoadInt32(failFlag) == 1 {
			queue.MarkDone()
			continue
		}

		addr, ok := pickCandidate(task.Candidates)
		if !ok {
			// Should be unreachable: an empty candidate set is handled at
			// the point of removal, below. Guard anyway.
			atomic.StoreInt32(failFlag, 1)
			queue.MarkDone()
			continue
		}

		data, err := client.DownloadChunk(addr, filename, task.ChunkID)
		if err != nil || len(data) == 0 || chunkDigest(data) != task.ExpectedMD5 {
			if err != nil {
				log.Debugf("download chunk %d from %s failed: %v", task.ChunkID, addr, err)
			}
			delete(task.Candidates, addr)
			if len(task.Candidates) == 0 {
				atomic.StoreInt32(failFlag, 1)
				queue.MarkDone()
				continue
			}
			if scheme == SchemeRarestFirst {
				task.Priority--
			}
			queue.Requeue(task)
			continue
		}

		if err := store.Write(filename, task.ChunkID, data); err != nil {
			log.Errorf("persisting chunk %d failed: %v", task.ChunkID, err)
			atomic.StoreInt32(failFlag, 1)
			queue.MarkDone()
			continue
		}
		if _, err := client.RegChunk(trackerAddr, filename, task.ChunkID, task.ExpectedMD5); err != nil {
			log.Warnf("reg_chunk for chunk %d failed: %v", task.ChunkID, err)
		}

		progress.append(ProgressEntry{
			ChunkID:          task.ChunkID,
			DownloadedFrom:   addr,
			CandidatesAtTime: len(task.Candidates),
		})
		speed.Update(1)
		queue.MarkDone()
	}
}

func pickCandidate(candidates map[string]struct{}) (string, bool) {
	for addr := range candidates {
		return addr, true
	}
	return "", false
}

func chunkDigest(data []byte) string {
	return chunkio.Digest(data)
}
