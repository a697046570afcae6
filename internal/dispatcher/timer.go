package dispatcher

import (
	"sync"
	"time"
)

// Timer runs fn once after d. Every Reset cancels the previously scheduled fn.
type Timer interface {
	Reset(d time.Duration, fn func())
	Stop()
}

type RealTimer struct {
	mu    sync.Mutex
	timer *time.Timer
}

func NewTimer() *RealTimer {
	return &RealTimer{}
}

func (r *RealTimer) Reset(d time.Duration, fn func()) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.timer != nil {
		r.timer.Stop()
	}
	r.timer = time.AfterFunc(d, fn)
}

func (r *RealTimer) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
}
