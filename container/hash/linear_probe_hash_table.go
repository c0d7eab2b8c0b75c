package hash

import (
	pair "github.com/notEpsilon/go-pair"

	"github.com/masudb/MasuDB/common"
	"github.com/masudb/MasuDB/storage/buffer"
	"github.com/masudb/MasuDB/storage/page"
	"github.com/masudb/MasuDB/types"
)

// HashFunc maps a key to its probe-start hash.
type HashFunc[K any] func(key K) uint64

// CompareFunc orders keys; 0 means equal.
type CompareFunc[K any] func(a, b K) int

/**
 * Implementation of a linear probing hash table that is backed by the buffer
 * pool manager. Non-unique keys are supported: duplicate keys with distinct
 * values coexist, only exact (key, value) duplicates are rejected. The table
 * doubles itself once a probe cycles the whole table without finding a home.
 *
 * Latch order: table latch, then at most one block page latch at a time, in
 * probe order. Resize is the writer on the table latch; everything else
 * reads. The header page of the live table is never modified outside Resize.
 */
type LinearProbeHashTable[K any, V comparable] struct {
	headerPageId types.PageID
	bpm          *buffer.BufferPoolManager
	tableLatch   common.ReaderWriterLatch
	hashFn       HashFunc[K]
	cmp          CompareFunc[K]
	keySerde     types.Serde[K]
	valueSerde   types.Serde[V]
	// cached per-block slot count for the fixed slot width
	blockArraySize uint64
	size           uint64
}

// NewLinearProbeHashTable creates a hash table of numBuckets buckets: one
// header page plus ceil(numBuckets/B) zeroed block pages.
func NewLinearProbeHashTable[K any, V comparable](
	bpm *buffer.BufferPoolManager,
	numBuckets uint64,
	hashFn HashFunc[K],
	cmp CompareFunc[K],
	keySerde types.Serde[K],
	valueSerde types.Serde[V],
) (*LinearProbeHashTable[K, V], error) {
	ht := &LinearProbeHashTable[K, V]{
		bpm:            bpm,
		tableLatch:     common.NewRWLatch(),
		hashFn:         hashFn,
		cmp:            cmp,
		keySerde:       keySerde,
		valueSerde:     valueSerde,
		blockArraySize: page.BlockArraySize(keySerde.Size() + valueSerde.Size()),
		size:           numBuckets,
	}

	headerPage := bpm.NewPage()
	if headerPage == nil {
		return nil, ErrNoFreeFrame
	}
	headerPage.WLatch()
	header := page.CastAsHashTableHeaderPage(headerPage.Data())
	header.SetPageId(headerPage.GetPageId())
	header.SetSize(numBuckets)

	numBlocks := (numBuckets + ht.blockArraySize - 1) / ht.blockArraySize
	for i := uint64(0); i < numBlocks; i++ {
		blockPage := bpm.NewPage()
		if blockPage == nil {
			headerPage.WUnlatch()
			bpm.UnpinPage(headerPage.GetPageId(), true)
			return nil, ErrNoFreeFrame
		}
		header.AddBlockPageId(blockPage.GetPageId())
		bpm.UnpinPage(blockPage.GetPageId(), true)
	}

	ht.headerPageId = headerPage.GetPageId()
	headerPage.WUnlatch()
	bpm.UnpinPage(headerPage.GetPageId(), true)
	return ht, nil
}

// NewLinearProbeHashTableWithHeader reopens the table persisted under
// headerPageId.
func NewLinearProbeHashTableWithHeader[K any, V comparable](
	bpm *buffer.BufferPoolManager,
	headerPageId types.PageID,
	hashFn HashFunc[K],
	cmp CompareFunc[K],
	keySerde types.Serde[K],
	valueSerde types.Serde[V],
) (*LinearProbeHashTable[K, V], error) {
	headerPage := bpm.FetchPage(headerPageId)
	if headerPage == nil {
		return nil, ErrNoFreeFrame
	}
	headerPage.RLatch()
	header := page.CastAsHashTableHeaderPage(headerPage.Data())
	size := header.GetSize()
	headerPage.RUnlatch()
	bpm.UnpinPage(headerPageId, false)

	return &LinearProbeHashTable[K, V]{
		headerPageId:   headerPageId,
		bpm:            bpm,
		tableLatch:     common.NewRWLatch(),
		hashFn:         hashFn,
		cmp:            cmp,
		keySerde:       keySerde,
		valueSerde:     valueSerde,
		blockArraySize: page.BlockArraySize(keySerde.Size() + valueSerde.Size()),
		size:           size,
	}, nil
}

// GetHeaderPageId returns the page id that identifies the table on disk.
func (ht *LinearProbeHashTable[K, V]) GetHeaderPageId() types.PageID {
	ht.tableLatch.RLock()
	defer ht.tableLatch.RUnlock()
	return ht.headerPageId
}

// GetSize returns the current number of buckets.
func (ht *LinearProbeHashTable[K, V]) GetSize() uint64 {
	ht.tableLatch.RLock()
	defer ht.tableLatch.RUnlock()
	return ht.size
}

// GetValue collects every value stored under key. The bool result is false
// only when a page fetch fails.
func (ht *LinearProbeHashTable[K, V]) GetValue(key K) ([]V, bool) {
	ht.tableLatch.RLock()
	defer ht.tableLatch.RUnlock()

	headerPage := ht.bpm.FetchPage(ht.headerPageId)
	if headerPage == nil {
		return nil, false
	}
	headerPage.RLatch()
	defer func() {
		headerPage.RUnlatch()
		ht.bpm.UnpinPage(headerPage.GetPageId(), false)
	}()
	header := page.CastAsHashTableHeaderPage(headerPage.Data())

	numBuckets := header.GetSize()
	numBlocks := header.NumBlocks()
	slot := ht.hashFn(key) % numBuckets
	startBlock := slot / ht.blockArraySize
	startBucket := slot % ht.blockArraySize

	result := make([]V, 0)
	curBlock, curBucket := startBlock, startBucket
	first := true
	cycle := false

	for !cycle {
		blockPageId := header.GetBlockPageId(curBlock)
		blockPage := ht.bpm.FetchPage(blockPageId)
		if blockPage == nil {
			return nil, false
		}
		blockPage.RLatch()
		block := page.CastAsHashTableBlockPage[K, V](blockPage.Data(), ht.keySerde, ht.valueSerde)

		maxBucket := ht.maxBucketIndex(numBuckets, numBlocks, curBlock)
		for i := curBucket; i < maxBucket; i++ {
			if curBlock == startBlock && i == startBucket {
				if first {
					first = false
				} else {
					cycle = true
					break
				}
			}
			if !block.IsOccupied(i) {
				// end of the probe chain
				blockPage.RUnlatch()
				ht.bpm.UnpinPage(blockPageId, false)
				return result, true
			}
			if block.IsReadable(i) && ht.cmp(key, block.KeyAt(i)) == 0 {
				result = append(result, block.ValueAt(i))
			}
		}

		blockPage.RUnlatch()
		ht.bpm.UnpinPage(blockPageId, false)
		curBlock = (curBlock + 1) % numBlocks
		curBucket = 0
	}

	return result, true
}

// Insert adds (key, value) to the table. An exact duplicate pair is rejected
// with false when the probe meets it before the first non-readable slot; the
// pair is written into that slot, so a duplicate lying past a tombstone is
// not detected. When a probe cycles the full table without finding a home,
// the table is doubled and the insert retried.
func (ht *LinearProbeHashTable[K, V]) Insert(key K, value V) bool {
	for {
		inserted, needResize := ht.insertInternal(key, value)
		if !needResize {
			return inserted
		}
		ht.Resize(ht.GetSize() * 2)
	}
}

func (ht *LinearProbeHashTable[K, V]) insertInternal(key K, value V) (inserted bool, needResize bool) {
	ht.tableLatch.RLock()
	defer ht.tableLatch.RUnlock()

	headerPage := ht.bpm.FetchPage(ht.headerPageId)
	if headerPage == nil {
		return false, false
	}
	headerPage.RLatch()
	defer func() {
		headerPage.RUnlatch()
		ht.bpm.UnpinPage(headerPage.GetPageId(), false)
	}()
	header := page.CastAsHashTableHeaderPage(headerPage.Data())

	ok, full := ht.probeInsert(header, key, value)
	return ok, full
}

// probeInsert walks the probe sequence under the caller's table latch and
// claims the first non-readable slot. Returns (false, true) when the whole
// table cycled without a home.
func (ht *LinearProbeHashTable[K, V]) probeInsert(header *page.HashTableHeaderPage, key K, value V) (inserted bool, full bool) {
	numBuckets := header.GetSize()
	numBlocks := header.NumBlocks()
	slot := ht.hashFn(key) % numBuckets
	startBlock := slot / ht.blockArraySize
	startBucket := slot % ht.blockArraySize

	curBlock, curBucket := startBlock, startBucket
	first := true
	cycle := false

	for !cycle {
		blockPageId := header.GetBlockPageId(curBlock)
		blockPage := ht.bpm.FetchPage(blockPageId)
		if blockPage == nil {
			return false, false
		}
		blockPage.WLatch()
		block := page.CastAsHashTableBlockPage[K, V](blockPage.Data(), ht.keySerde, ht.valueSerde)

		maxBucket := ht.maxBucketIndex(numBuckets, numBlocks, curBlock)
		for i := curBucket; i < maxBucket; i++ {
			if curBlock == startBlock && i == startBucket {
				if first {
					first = false
				} else {
					cycle = true
					break
				}
			}
			if block.IsReadable(i) {
				if ht.cmp(key, block.KeyAt(i)) == 0 && value == block.ValueAt(i) {
					// exact pair already present
					blockPage.WUnlatch()
					ht.bpm.UnpinPage(blockPageId, false)
					return false, false
				}
				continue
			}
			// tombstoned or empty slots are both claimable
			block.Insert(i, key, value)
			blockPage.WUnlatch()
			ht.bpm.UnpinPage(blockPageId, true)
			return true, false
		}

		blockPage.WUnlatch()
		ht.bpm.UnpinPage(blockPageId, false)
		curBlock = (curBlock + 1) % numBlocks
		curBucket = 0
	}

	return false, true
}

// Remove deletes the exact (key, value) pair, leaving a tombstone so probe
// chains through the slot stay intact. Returns false when the pair is not
// present.
func (ht *LinearProbeHashTable[K, V]) Remove(key K, value V) bool {
	ht.tableLatch.RLock()
	defer ht.tableLatch.RUnlock()

	headerPage := ht.bpm.FetchPage(ht.headerPageId)
	if headerPage == nil {
		return false
	}
	headerPage.RLatch()
	defer func() {
		headerPage.RUnlatch()
		ht.bpm.UnpinPage(headerPage.GetPageId(), false)
	}()
	header := page.CastAsHashTableHeaderPage(headerPage.Data())

	numBuckets := header.GetSize()
	numBlocks := header.NumBlocks()
	slot := ht.hashFn(key) % numBuckets
	startBlock := slot / ht.blockArraySize
	startBucket := slot % ht.blockArraySize

	curBlock, curBucket := startBlock, startBucket
	first := true
	cycle := false

	for !cycle {
		blockPageId := header.GetBlockPageId(curBlock)
		blockPage := ht.bpm.FetchPage(blockPageId)
		if blockPage == nil {
			return false
		}
		blockPage.WLatch()
		block := page.CastAsHashTableBlockPage[K, V](blockPage.Data(), ht.keySerde, ht.valueSerde)

		maxBucket := ht.maxBucketIndex(numBuckets, numBlocks, curBlock)
		for i := curBucket; i < maxBucket; i++ {
			if curBlock == startBlock && i == startBucket {
				if first {
					first = false
				} else {
					cycle = true
					break
				}
			}
			if !block.IsOccupied(i) {
				blockPage.WUnlatch()
				ht.bpm.UnpinPage(blockPageId, false)
				return false
			}
			if block.IsReadable(i) && ht.cmp(key, block.KeyAt(i)) == 0 && value == block.ValueAt(i) {
				block.Remove(i)
				blockPage.WUnlatch()
				ht.bpm.UnpinPage(blockPageId, true)
				return true
			}
		}

		blockPage.WUnlatch()
		ht.bpm.UnpinPage(blockPageId, false)
		curBlock = (curBlock + 1) % numBlocks
		curBucket = 0
	}

	return false
}

// Resize grows the table to initialSize buckets: a brand new header and
// block set is built, every live pair re-inserted, and the old pages
// deleted. Exclusive against all other operations via the table latch, so
// readers never observe a torn header.
func (ht *LinearProbeHashTable[K, V]) Resize(initialSize uint64) {
	ht.tableLatch.WLock()
	defer ht.tableLatch.WUnlock()

	if initialSize <= ht.size {
		return
	}

	oldHeaderPageId := ht.headerPageId
	oldHeaderPage := ht.bpm.FetchPage(oldHeaderPageId)
	if oldHeaderPage == nil {
		return
	}
	oldHeader := page.CastAsHashTableHeaderPage(oldHeaderPage.Data())

	newHeaderPage := ht.bpm.NewPage()
	if newHeaderPage == nil {
		ht.bpm.UnpinPage(oldHeaderPageId, false)
		return
	}
	newHeaderPage.WLatch()
	newHeader := page.CastAsHashTableHeaderPage(newHeaderPage.Data())
	newHeader.SetPageId(newHeaderPage.GetPageId())
	newHeader.SetSize(initialSize)

	// initialSize/B + 1 blocks: one spare block when initialSize is a
	// multiple of B, exactly ceil(initialSize/B) otherwise
	numBlocks := initialSize/ht.blockArraySize + 1
	for i := uint64(0); i < numBlocks; i++ {
		blockPage := ht.bpm.NewPage()
		if blockPage == nil {
			newHeaderPage.WUnlatch()
			ht.bpm.UnpinPage(newHeaderPage.GetPageId(), true)
			ht.bpm.UnpinPage(oldHeaderPageId, false)
			return
		}
		newHeader.AddBlockPageId(blockPage.GetPageId())
		ht.bpm.UnpinPage(blockPage.GetPageId(), true)
	}

	// carry every live pair over into the new block set
	for blk := uint64(0); blk < oldHeader.NumBlocks(); blk++ {
		blockPageId := oldHeader.GetBlockPageId(blk)
		blockPage := ht.bpm.FetchPage(blockPageId)
		if blockPage == nil {
			continue
		}
		blockPage.RLatch()
		block := page.CastAsHashTableBlockPage[K, V](blockPage.Data(), ht.keySerde, ht.valueSerde)

		live := make([]pair.Pair[K, V], 0)
		for i := uint64(0); i < block.ArraySize(); i++ {
			if block.IsReadable(i) {
				live = append(live, pair.Pair[K, V]{First: block.KeyAt(i), Second: block.ValueAt(i)})
			}
		}
		blockPage.RUnlatch()
		ht.bpm.UnpinPage(blockPageId, false)

		for _, p := range live {
			ht.probeInsert(newHeader, p.First, p.Second)
		}
	}

	// retire the old table
	for blk := uint64(0); blk < oldHeader.NumBlocks(); blk++ {
		ht.bpm.DeletePage(oldHeader.GetBlockPageId(blk))
	}
	ht.bpm.UnpinPage(oldHeaderPageId, false)
	ht.bpm.DeletePage(oldHeaderPageId)

	ht.headerPageId = newHeaderPage.GetPageId()
	ht.size = initialSize

	newHeaderPage.WUnlatch()
	ht.bpm.UnpinPage(newHeaderPage.GetPageId(), true)
}

// maxBucketIndex bounds the slot scan for a block: the last block addresses
// only numBuckets mod B slots when the bucket count is not block-aligned.
func (ht *LinearProbeHashTable[K, V]) maxBucketIndex(numBuckets uint64, numBlocks uint64, blockIndex uint64) uint64 {
	if numBuckets%ht.blockArraySize != 0 && blockIndex == numBlocks-1 {
		return numBuckets % ht.blockArraySize
	}
	return ht.blockArraySize
}
