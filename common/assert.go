package common

import (
	"runtime"

	"github.com/devlights/gomy/output"
	"github.com/sasha-s/go-deadlock"
)

func SH_Assert(condition bool, msg string) {
	if !condition {
		if EnableDebug {
			RuntimeStack()
		}
		panic(msg)
	}
}

type SH_Mutex struct {
	mutex    *deadlock.Mutex
	isLocked bool
}

func NewSH_Mutex() *SH_Mutex {
	return &SH_Mutex{new(deadlock.Mutex), false}
}

func (m *SH_Mutex) Lock() {
	SH_Assert(!m.isLocked, "Mutex is already locked")
	m.mutex.Lock()
	m.isLocked = true
}

func (m *SH_Mutex) Unlock() {
	SH_Assert(m.isLocked, "Mutex is not locked")
	m.mutex.Unlock()
	m.isLocked = false
}

// RuntimeStack dumps the stacks of all goroutines to stdout. Called on
// assertion failure when EnableDebug is set.
func RuntimeStack() error {
	getStack := func(all bool) []byte {
		buf := make([]byte, 1024)
		for {
			n := runtime.Stack(buf, all)
			if n < len(buf) {
				return buf[:n]
			}
			buf = make([]byte, 2*len(buf))
		}
	}

	chAll := make(chan []byte, 1)
	go func(ch chan<- []byte) {
		defer close(ch)
		ch <- getStack(true)
	}(chAll)

	for v := range chAll {
		output.Stdoutl("=== stack-all   ", string(v))
	}

	return nil
}
