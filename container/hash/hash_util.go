package hash

import (
	"encoding/binary"

	"github.com/spaolacci/murmur3"
)

// GenHashMurMur hashes arbitrary key bytes to a uint64 probe-start value.
func GenHashMurMur(key []byte) uint64 {
	h := murmur3.New128()
	h.Write(key)
	sum := h.Sum(nil)
	return binary.LittleEndian.Uint64(sum)
}

func hashBytes(data []byte) uint32 {
	// https://github.com/greenplum-db/gpos/blob/b53c1acd6285de94044ff91fbee91589543feba1/libgpos/src/utils.cpp#L126
	var hash uint32 = uint32(len(data))
	for i := 0; i < len(data); i++ {
		hash = ((hash << 5) ^ (hash >> 27)) ^ uint32(data[i])
	}
	return hash
}

// CombineHashes folds two hashes into one; used when a key spans columns.
func CombineHashes(l uint32, r uint32) uint32 {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint32(buf, l)
	binary.LittleEndian.PutUint32(buf[4:], r)
	return hashBytes(buf)
}
