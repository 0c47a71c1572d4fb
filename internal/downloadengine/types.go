// Package downloadengine is the concurrent multi-peer chunk download
// engine: a priority task queue, a worker pool, and a supervisor that
// coordinates progress reporting and failure (spec.md §4.6, the "hard
// core" of the system).
package downloadengine

import "sync"

// Scheme is the chunk selection policy during a download (spec.md
// GLOSSARY).
type Scheme string

const (
	// SchemeNormal fetches chunks in file order.
	SchemeNormal Scheme = "normal"
	// SchemeRarestFirst fetches chunks with the fewest candidate seeders
	// first.
	SchemeRarestFirst Scheme = "rarest_first"
)

// Outcome names mirror the exact strings spec.md §4.6/§7 surfaces to the
// caller.
const (
	OutcomeSuccess        = "success"
	OutcomeFileUnavailable = "file not available"
	OutcomeDownloadFailed = "download failed"
	OutcomeMD5Mismatch    = "md5 mismatch"
	OutcomeSizeMismatch   = "size mismatch"
)

// maxReportedChunks bounds how many progress entries a Result carries, per
// spec.md §4.6 ("up to 20 chunk entries ... truncation indicator if
// more").
const maxReportedChunks = 20

// ProgressEntry records one chunk's successful completion: which address
// served it, and how many candidates were still live at the time.
type ProgressEntry struct {
	ChunkID          int
	DownloadedFrom   string
	CandidatesAtTime int
}

// Result is what Run returns once every chunk task has reached a terminal
// state.
type Result struct {
	Outcome   string
	Bytes     int64
	Chunks    []ProgressEntry
	Truncated bool
}

// progressLog is the supervisor's shared, append-only record of completed
// chunks, guarded by its own mutex since workers append concurrently.
type progressLog struct {
	mu      sync.Mutex
	entries []ProgressEntry
}

func (p *progressLog) append(e ProgressEntry) {
	p.mu.Lock()
	p.entries = append(p.entries, e)
	p.mu.Unlock()
}

func (p *progressLog) len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.entries)
}

func (p *progressLog) snapshot() []ProgressEntry {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]ProgressEntry, len(p.entries))
	copy(out, p.entries)
	return out
}
