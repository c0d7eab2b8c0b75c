package index

import (
	"github.com/masudb/MasuDB/container/hash"
	"github.com/masudb/MasuDB/storage/buffer"
	"github.com/masudb/MasuDB/storage/page"
	"github.com/masudb/MasuDB/types"
)

// LinearProbeHashTableIndex exposes the hash container as a key -> RID
// index. Serialized tuple keys are folded to a murmur hash before they reach
// the container, so hash collisions can surface false-positive RIDs; the
// executor above re-checks the fetched tuples against the predicate.
type LinearProbeHashTableIndex struct {
	container *hash.LinearProbeHashTable[uint64, page.RID]
}

func identityHash(key uint64) uint64 { return key }

func compareUint64(a, b uint64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// NewLinearProbeHashTableIndex creates an index with numBuckets buckets.
func NewLinearProbeHashTableIndex(bpm *buffer.BufferPoolManager, numBuckets uint64) (*LinearProbeHashTableIndex, error) {
	container, err := hash.NewLinearProbeHashTable[uint64, page.RID](
		bpm, numBuckets, identityHash, compareUint64, types.Uint64Serde{}, page.RIDSerde{})
	if err != nil {
		return nil, err
	}
	return &LinearProbeHashTableIndex{container}, nil
}

// NewLinearProbeHashTableIndexWithHeader reopens an index persisted under
// headerPageId.
func NewLinearProbeHashTableIndexWithHeader(bpm *buffer.BufferPoolManager, headerPageId types.PageID) (*LinearProbeHashTableIndex, error) {
	container, err := hash.NewLinearProbeHashTableWithHeader[uint64, page.RID](
		bpm, headerPageId, identityHash, compareUint64, types.Uint64Serde{}, page.RIDSerde{})
	if err != nil {
		return nil, err
	}
	return &LinearProbeHashTableIndex{container}, nil
}

// GetHeaderPageId returns the container's header page id for persistence.
func (idx *LinearProbeHashTableIndex) GetHeaderPageId() types.PageID {
	return idx.container.GetHeaderPageId()
}

// InsertEntry maps a serialized key to a record id.
func (idx *LinearProbeHashTableIndex) InsertEntry(key []byte, rid page.RID) bool {
	return idx.container.Insert(hash.GenHashMurMur(key), rid)
}

// DeleteEntry removes one key -> rid mapping.
func (idx *LinearProbeHashTableIndex) DeleteEntry(key []byte, rid page.RID) bool {
	return idx.container.Remove(hash.GenHashMurMur(key), rid)
}

// ScanKey returns every RID stored under the key.
func (idx *LinearProbeHashTableIndex) ScanKey(key []byte) []page.RID {
	result, _ := idx.container.GetValue(hash.GenHashMurMur(key))
	return result
}
