package notify

import (
	"sync"
	"time"
)

// TimerScheduler runs work on time.AfterFunc and lets callers wait until
// every scheduled function, including ones scheduled from callbacks, is done.
type TimerScheduler struct {
	wg sync.WaitGroup
}

func NewTimerScheduler() *TimerScheduler { return &TimerScheduler{} }

func (s *TimerScheduler) AfterFunc(d time.Duration, f func()) {
	s.wg.Add(1)
	time.AfterFunc(d, func() {
		defer s.wg.Done()
		f()
	})
}

// Wait blocks until no scheduled work is pending.
func (s *TimerScheduler) Wait() { s.wg.Wait() }
