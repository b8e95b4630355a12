// internal/crawl/status.go
package crawl

import (
	"sync"
	"time"
)

// Status tracks collector progress for the operational API. All methods
// are safe for concurrent use; the collector writes, the HTTP handler
// reads.
type Status struct {
	mu             sync.Mutex
	phase          string
	totalUsers     int
	processedUsers int
	shardsWritten  int
	recordsWritten int
	startedAt      time.Time
}

// Snapshot is a point-in-time copy of the collector's progress.
type Snapshot struct {
	Phase          string    `json:"phase"`
	TotalUsers     int       `json:"total_users"`
	ProcessedUsers int       `json:"processed_users"`
	ShardsWritten  int       `json:"shards_written"`
	RecordsWritten int       `json:"records_written"`
	StartedAt      time.Time `json:"started_at"`
}

// NewStatus returns a status tracker in the idle phase.
func NewStatus() *Status {
	return &Status{phase: "idle", startedAt: time.Now()}
}

func (s *Status) setPhase(phase string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.phase = phase
}

func (s *Status) setTotalUsers(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.totalUsers = n
}

func (s *Status) addProcessed(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.processedUsers += n
}

func (s *Status) addShard(records int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shardsWritten++
	s.recordsWritten += records
}

// Snapshot returns a copy of the current progress counters.
func (s *Status) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		Phase:          s.phase,
		TotalUsers:     s.totalUsers,
		ProcessedUsers: s.processedUsers,
		ShardsWritten:  s.shardsWritten,
		RecordsWritten: s.recordsWritten,
		StartedAt:      s.startedAt,
	}
}
