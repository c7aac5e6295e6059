package monitoring

import (
	"sync"
	"time"
)

// A ProgressBar tracks how far a long-running sweep or classification
// pass has advanced. It is safe for concurrent use.
type ProgressBar struct {
	sync.Mutex
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	StartTime time.Time `json:"start_time"`
	Total     uint64    `json:"total"`
	Finished  uint64    `json:"finished"`
}

// IncrementFinished adds a certain amount to the finished count.
func (b *ProgressBar) IncrementFinished(amount uint64) {
	b.Lock()
	defer b.Unlock()

	b.Finished += amount
}

// IsCompleted returns true once every element is finished.
func (b *ProgressBar) IsCompleted() bool {
	b.Lock()
	defer b.Unlock()

	return b.Finished >= b.Total
}
