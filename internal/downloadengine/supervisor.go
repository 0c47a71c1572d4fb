package downloadengine

import (
	"sync/atomic"
	"time"

	"github.com/habemusne/swarmshare/internal/downloadqueue"
	"github.com/habemusne/swarmshare/internal/swarmlog"
	"github.com/rcrowley/go-metrics"
)

// tickInterval is how often the supervisor renders progress and checks
// for a failure signal (spec.md §4.6: "on a tick, e.g. every 100ms").
const tickInterval = 100 * time.Millisecond

// supervisor watches the shared progress log and fail flag until done is
// closed. On a tick it logs a progress line; the first tick that observes
// the fail flag set drains the queue once so every remaining task reaches
// a terminal ("cancelled") state and workers can exit their pop loop.
func supervisor(
	queue *downloadqueue.Queue,
	progress *progressLog,
	failFlag *int32,
	total int,
	speed metrics.EWMA,
	done <-chan struct{},
	log swarmlog.Logger,
) {
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()
	// go-metrics EWMAs compute their per-second rate assuming one Tick
	// every five seconds.
	speedTicker := time.NewTicker(5 * time.Second)
	defer speedTicker.Stop()

	drained := false
	for {
		select {
		case <-speedTicker.C:
			speed.Tick()
		case <-ticker.C:
			log.Debugf("progress: %d/%d chunks, %.1f chunks/s", progress.len(), total, speed.Rate())
			if atomic.LoadInt32(failFlag) == 1 && !drained {
				queue.DrainAll()
				drained = true
			}
		case <-done:
			return
		}
	}
}
