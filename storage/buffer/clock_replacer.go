package buffer

import (
	"github.com/sasha-s/go-deadlock"
)

// FrameID is the type for frame id
type FrameID uint32

// frameInfo is the clock state of one frame: free means the frame is a
// victim candidate (its page is unpinned), ref is the second-chance bit.
type frameInfo struct {
	free bool
	ref  bool
}

// ClockReplacer picks eviction victims with the clock algorithm. It holds
// frame indices only; pages and frames stay owned by the buffer pool.
type ClockReplacer struct {
	frameInfos []frameInfo
	clockHand  FrameID
	size       uint32
	mutex      deadlock.Mutex
}

// NewClockReplacer instantiates a new clock replacer over poolSize frames.
// Every frame starts outside the candidate set: frames begin life in the
// buffer pool's free list, not here.
func NewClockReplacer(poolSize uint32) *ClockReplacer {
	return &ClockReplacer{
		frameInfos: make([]frameInfo, poolSize),
	}
}

// Victim chooses an evictable frame and removes it from the candidate set.
// Returns nil when no frame is evictable.
func (c *ClockReplacer) Victim() *FrameID {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.size == 0 {
		return nil
	}

	// A candidate exists, so at most two revolutions terminate: one sweep
	// clears every ref bit, the next finds a cleared candidate.
	for {
		info := &c.frameInfos[c.clockHand]
		if info.free {
			if info.ref {
				info.ref = false
			} else {
				victim := c.clockHand
				info.free = false
				c.size--
				c.step()
				return &victim
			}
		}
		c.step()
	}
}

// Pin removes a frame from the candidate set. No-op when the frame is
// already ineligible.
func (c *ClockReplacer) Pin(id FrameID) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if !c.frameInfos[id].free {
		return
	}
	c.frameInfos[id].free = false
	c.size--
}

// Unpin adds a frame to the candidate set with its reference bit set. No-op
// when the frame is already a candidate.
func (c *ClockReplacer) Unpin(id FrameID) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.frameInfos[id].free {
		return
	}
	c.frameInfos[id].free = true
	c.frameInfos[id].ref = true
	c.size++
}

// Size returns the count of currently evictable frames.
func (c *ClockReplacer) Size() uint32 {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.size
}

func (c *ClockReplacer) step() {
	c.clockHand = (c.clockHand + 1) % FrameID(len(c.frameInfos))
}

// isContain reports whether the frame is currently a victim candidate.
func (c *ClockReplacer) isContain(id FrameID) bool {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.frameInfos[id].free
}
