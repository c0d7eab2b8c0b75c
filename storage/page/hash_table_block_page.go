package page

import (
	"github.com/masudb/MasuDB/common"
	"github.com/masudb/MasuDB/types"
)

/**
 * Store indexed key and value together within a block page. Supports
 * non-unique keys.
 *
 * Block page format:
 *  ----------------------------------------------------------------
 * | occupied bitmap | readable bitmap | KEY(1)+VALUE(1) | ... | KEY(n)+VALUE(n)
 *  ----------------------------------------------------------------
 *
 * Bit i of byte i/8 corresponds to slot i; bit 0 is the least significant
 * bit. occupied=1 means the slot has ever held a pair (tombstones keep it
 * set so probe chains stay connected); readable=1 means the slot holds a
 * live pair.
 *
 * Key and value widths come from the serdes fixed at table construction, so
 * the accessor addresses raw page bytes rather than casting to a struct.
 */
type HashTableBlockPage[K any, V any] struct {
	data       *[common.PageSize]byte
	keySerde   types.Serde[K]
	valueSerde types.Serde[V]
	slotSize   uint32
	arraySize  uint64
	bitmapLen  uint32
}

// BlockArraySize returns the slot count B for a given slot width: the largest
// B such that two bitmap bits per slot plus the slot bytes fit in a page.
func BlockArraySize(slotSize uint32) uint64 {
	b := 4 * uint32(common.PageSize) / (4*slotSize + 1)
	for 2*((b+7)/8)+b*slotSize > common.PageSize {
		b--
	}
	return uint64(b)
}

// CastAsHashTableBlockPage wraps a fetched page's bytes with the block
// layout. The accessor is valid only while the backing page stays pinned.
func CastAsHashTableBlockPage[K any, V any](data *[common.PageSize]byte, keySerde types.Serde[K], valueSerde types.Serde[V]) *HashTableBlockPage[K, V] {
	slotSize := keySerde.Size() + valueSerde.Size()
	arraySize := BlockArraySize(slotSize)
	return &HashTableBlockPage[K, V]{
		data:       data,
		keySerde:   keySerde,
		valueSerde: valueSerde,
		slotSize:   slotSize,
		arraySize:  arraySize,
		bitmapLen:  uint32((arraySize + 7) / 8),
	}
}

// ArraySize returns the number of slots in the block.
func (page *HashTableBlockPage[K, V]) ArraySize() uint64 {
	return page.arraySize
}

func (page *HashTableBlockPage[K, V]) slotOffset(index uint64) uint32 {
	return 2*page.bitmapLen + uint32(index)*page.slotSize
}

// KeyAt gets the key at an index in the block
func (page *HashTableBlockPage[K, V]) KeyAt(index uint64) K {
	off := page.slotOffset(index)
	return page.keySerde.ReadFrom(page.data[off : off+page.keySerde.Size()])
}

// ValueAt gets the value at an index in the block
func (page *HashTableBlockPage[K, V]) ValueAt(index uint64) V {
	off := page.slotOffset(index) + page.keySerde.Size()
	return page.valueSerde.ReadFrom(page.data[off : off+page.valueSerde.Size()])
}

// Insert attempts to write a pair into a slot. A slot can be claimed whenever
// it is not readable; tombstoned slots are reused.
func (page *HashTableBlockPage[K, V]) Insert(index uint64, key K, value V) bool {
	if page.IsReadable(index) {
		return false
	}

	off := page.slotOffset(index)
	page.keySerde.WriteTo(page.data[off:off+page.keySerde.Size()], key)
	page.valueSerde.WriteTo(page.data[off+page.keySerde.Size():off+page.slotSize], value)
	page.data[index/8] |= 1 << (index % 8)
	page.data[uint64(page.bitmapLen)+index/8] |= 1 << (index % 8)
	return true
}

// Remove clears the readable bit, leaving the occupied bit set as a
// tombstone so later probes keep walking past the slot.
func (page *HashTableBlockPage[K, V]) Remove(index uint64) {
	if !page.IsReadable(index) {
		return
	}
	page.data[uint64(page.bitmapLen)+index/8] &^= 1 << (index % 8)
}

// IsOccupied reports whether the slot has ever held a pair.
func (page *HashTableBlockPage[K, V]) IsOccupied(index uint64) bool {
	return page.data[index/8]&(1<<(index%8)) != 0
}

// IsReadable reports whether the slot currently holds a live pair.
func (page *HashTableBlockPage[K, V]) IsReadable(index uint64) bool {
	return page.data[uint64(page.bitmapLen)+index/8]&(1<<(index%8)) != 0
}
