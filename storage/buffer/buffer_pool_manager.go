package buffer

import (
	"github.com/golang-collections/collections/queue"
	"github.com/sasha-s/go-deadlock"

	"github.com/masudb/MasuDB/common"
	"github.com/masudb/MasuDB/recovery"
	"github.com/masudb/MasuDB/storage/disk"
	"github.com/masudb/MasuDB/storage/page"
	"github.com/masudb/MasuDB/types"
)

// BufferPoolManager manages a fixed set of in-memory frames over the disk
// manager. All metadata (page table, free list, replacer) is guarded by one
// mutex; page contents are guarded by each page's own latch.
type BufferPoolManager struct {
	diskManager disk.DiskManager
	pages       []*page.Page // index is FrameID
	replacer    *ClockReplacer
	freeList    *queue.Queue // FIFO of FrameID
	pageTable   map[types.PageID]FrameID
	logManager  *recovery.LogManager
	mutex       deadlock.Mutex
}

// NewBufferPoolManager returns an empty buffer pool manager with poolSize
// frames, all on the free list.
func NewBufferPoolManager(poolSize uint32, diskManager disk.DiskManager, logManager *recovery.LogManager) *BufferPoolManager {
	freeList := queue.New()
	for i := uint32(0); i < poolSize; i++ {
		freeList.Enqueue(FrameID(i))
	}

	return &BufferPoolManager{
		diskManager: diskManager,
		pages:       make([]*page.Page, poolSize),
		replacer:    NewClockReplacer(poolSize),
		freeList:    freeList,
		pageTable:   make(map[types.PageID]FrameID),
		logManager:  logManager,
	}
}

// FetchPage fetches the requested page from the buffer pool, reading it from
// disk on a miss. Returns nil when every frame is pinned or the read fails.
// Every successful fetch must be paired with exactly one UnpinPage.
func (b *BufferPoolManager) FetchPage(pageID types.PageID) *page.Page {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	if frameID, ok := b.pageTable[pageID]; ok {
		pg := b.pages[frameID]
		if pg.PinCount() == 0 {
			b.replacer.Pin(frameID)
		}
		pg.IncPinCount()
		common.ShPrintf(common.DEBUG_INFO, "FetchPage: pageID=%d pinCount=%d\n", pageID, pg.PinCount())
		return pg
	}

	frameID := b.getUsableFrame()
	if frameID == nil {
		return nil
	}

	data := new([common.PageSize]byte)
	if err := b.diskManager.ReadPage(pageID, data[:]); err != nil {
		common.ShPrintf(common.DEBUG_INFO, "FetchPage: read of pageID=%d failed: %v\n", pageID, err)
		// the frame was already scrubbed by getUsableFrame; hand it back
		b.pages[*frameID] = nil
		b.freeList.Enqueue(*frameID)
		return nil
	}

	pg := page.New(pageID, false, data)
	b.pageTable[pageID] = *frameID
	b.pages[*frameID] = pg
	b.replacer.Pin(*frameID)

	common.ShPrintf(common.DEBUG_INFO, "FetchPage: cache in pageID=%d\n", pageID)
	return pg
}

// NewPage allocates a brand new page in the buffer pool. The zero image is
// written through to disk so a later fetch observes a valid page. Returns
// nil when every frame is pinned.
func (b *BufferPoolManager) NewPage() *page.Page {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	frameID := b.getUsableFrame()
	if frameID == nil {
		return nil
	}

	pageID := b.diskManager.AllocatePage()
	pg := page.NewEmpty(pageID)
	if err := b.diskManager.WritePage(pageID, pg.Data()[:]); err != nil {
		common.ShPrintf(common.DEBUG_INFO, "NewPage: zero write of pageID=%d failed: %v\n", pageID, err)
		b.pages[*frameID] = nil
		b.freeList.Enqueue(*frameID)
		return nil
	}

	b.pageTable[pageID] = *frameID
	b.pages[*frameID] = pg
	b.replacer.Pin(*frameID)

	common.ShPrintf(common.DEBUG_INFO, "NewPage: pageID=%d\n", pageID)
	return pg
}

// UnpinPage unpins the target page from the buffer pool. isDirty marks the
// page dirty; an unpin never downgrades a prior dirty mark. Returns false
// when the page is not resident or not pinned.
func (b *BufferPoolManager) UnpinPage(pageID types.PageID, isDirty bool) bool {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	frameID, ok := b.pageTable[pageID]
	if !ok {
		return false
	}

	pg := b.pages[frameID]
	if pg.PinCount() <= 0 {
		return false
	}

	pg.DecPinCount()
	if pg.PinCount() == 0 {
		b.replacer.Unpin(frameID)
	}
	if isDirty {
		pg.SetIsDirty(true)
	}
	return true
}

// FlushPage writes the target page's bytes to disk and clears its dirty
// flag. Returns false when the page is not resident or the write fails.
func (b *BufferPoolManager) FlushPage(pageID types.PageID) bool {
	if !pageID.IsValid() {
		return false
	}

	b.mutex.Lock()
	defer b.mutex.Unlock()
	return b.flushPageLocked(pageID)
}

func (b *BufferPoolManager) flushPageLocked(pageID types.PageID) bool {
	frameID, ok := b.pageTable[pageID]
	if !ok {
		return false
	}

	// no page latch here: the caller may legitimately hold latches on its
	// pinned pages, and the metadata mutex must not wait on them
	pg := b.pages[frameID]
	b.logManager.Flush()
	if err := b.diskManager.WritePage(pageID, pg.Data()[:]); err != nil {
		common.ShPrintf(common.WARN, "FlushPage: write of pageID=%d failed: %v\n", pageID, err)
		return false
	}
	pg.SetIsDirty(false)
	return true
}

// FlushAllPages flushes every resident page to disk.
func (b *BufferPoolManager) FlushAllPages() {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	for pageID := range b.pageTable {
		b.flushPageLocked(pageID)
	}
}

// FlushAllDirtyPages flushes only the resident pages marked dirty. Returns
// false when any write fails.
func (b *BufferPoolManager) FlushAllDirtyPages() bool {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	for pageID, frameID := range b.pageTable {
		if b.pages[frameID].IsDirty() {
			if !b.flushPageLocked(pageID) {
				return false
			}
		}
	}
	return true
}

// DeletePage drops a page from the buffer pool and deallocates its id.
// Deleting a page that is not resident is a no-op on the pool but still
// deallocates; deleting a pinned page fails.
func (b *BufferPoolManager) DeletePage(pageID types.PageID) bool {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	frameID, ok := b.pageTable[pageID]
	if !ok {
		b.diskManager.DeallocatePage(pageID)
		return true
	}

	pg := b.pages[frameID]
	if pg.PinCount() > 0 {
		return false
	}

	if pg.IsDirty() {
		b.logManager.Flush()
		b.diskManager.WritePage(pageID, pg.Data()[:])
		pg.SetIsDirty(false)
	}

	delete(b.pageTable, pageID)
	b.replacer.Pin(frameID)
	b.pages[frameID] = nil
	b.freeList.Enqueue(frameID)
	b.diskManager.DeallocatePage(pageID)
	return true
}

// getUsableFrame returns an empty frame, preferring the free list and
// falling back to evicting a replacer victim. The caller must hold the
// metadata mutex and is responsible for re-populating the frame.
func (b *BufferPoolManager) getUsableFrame() *FrameID {
	if b.freeList.Len() > 0 {
		frameID := b.freeList.Dequeue().(FrameID)
		return &frameID
	}

	frameID := b.replacer.Victim()
	if frameID == nil {
		return nil
	}

	victim := b.pages[*frameID]
	if victim != nil {
		common.SH_Assert(victim.PinCount() == 0, "BPM: victim page must not be pinned")
		if victim.IsDirty() {
			// WAL first, then the page bytes
			b.logManager.Flush()
			victim.RLatch()
			b.diskManager.WritePage(victim.GetPageId(), victim.Data()[:])
			victim.RUnlatch()
			victim.SetIsDirty(false)
		}
		common.ShPrintf(common.DEBUG_INFO, "getUsableFrame: cache out pageID=%d\n", victim.GetPageId())
		delete(b.pageTable, victim.GetPageId())
		b.pages[*frameID] = nil
	}
	return frameID
}

// GetPages exposes the frame array for tests asserting pin-count baselines.
func (b *BufferPoolManager) GetPages() []*page.Page {
	return b.pages
}

// GetPoolSize returns the number of frames.
func (b *BufferPoolManager) GetPoolSize() int {
	return len(b.pages)
}
