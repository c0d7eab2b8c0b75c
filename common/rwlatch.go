package common

import (
	"time"

	"github.com/sasha-s/go-deadlock"
)

func init() {
	deadlock.Opts.Disable = true
}

type ReaderWriterLatch interface {
	WLock()
	WUnlock()
	RLock()
	RUnlock()
}

// readerWriterLatch is backed by go-deadlock's RWMutex, a drop-in replacement
// for sync.RWMutex with optional lock-order checking. Detection is off unless
// a test arms it via EnableDeadlockDetection.
type readerWriterLatch struct {
	mutex deadlock.RWMutex
}

func NewRWLatch() ReaderWriterLatch {
	return &readerWriterLatch{}
}

func (l *readerWriterLatch) WLock() {
	l.mutex.Lock()
}

func (l *readerWriterLatch) WUnlock() {
	l.mutex.Unlock()
}

func (l *readerWriterLatch) RLock() {
	l.mutex.RLock()
}

func (l *readerWriterLatch) RUnlock() {
	l.mutex.RUnlock()
}

// EnableDeadlockDetection arms go-deadlock's global detector for every latch
// and mutex in the process.
func EnableDeadlockDetection(timeout time.Duration) {
	deadlock.Opts.Disable = false
	deadlock.Opts.DeadlockTimeout = timeout
}

// DisableDeadlockDetection returns latches to plain RWMutex behavior.
func DisableDeadlockDetection() {
	deadlock.Opts.Disable = true
}
