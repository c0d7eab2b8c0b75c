package page

import (
	"unsafe"

	"github.com/masudb/MasuDB/common"
	"github.com/masudb/MasuDB/types"
)

const sizeOfHeaderPrefix = types.SizeOfPageID + types.SizeOfLSN + 8 + 8

// MaxNumBlockPages is the capacity of the header's block-id array: whatever
// fits in the page after the fixed prefix.
const MaxNumBlockPages = (common.PageSize - sizeOfHeaderPrefix) / types.SizeOfPageID

/**
 * Header format (size in bytes):
 * -----------------------------------------------------------------
 * | PageId (4) | LSN (4) | Size (8) | NextIndex (8) | BlockPageIds |
 * -----------------------------------------------------------------
 */
type HashTableHeaderPage struct {
	pageId    types.PageID
	lsn       types.LSN
	size      uint64 // the number of buckets the hash table can hold
	nextIndex uint64 // the next index to add a new entry to blockPageIds
	blockPageIds [MaxNumBlockPages]types.PageID
}

// CastAsHashTableHeaderPage overlays the header layout on a fetched page's
// bytes. The result is valid only while the backing page stays pinned.
func CastAsHashTableHeaderPage(data *[common.PageSize]byte) *HashTableHeaderPage {
	return (*HashTableHeaderPage)(unsafe.Pointer(data))
}

func (page *HashTableHeaderPage) GetBlockPageId(index uint64) types.PageID {
	return page.blockPageIds[index]
}

func (page *HashTableHeaderPage) GetPageId() types.PageID {
	return page.pageId
}

func (page *HashTableHeaderPage) SetPageId(pageId types.PageID) {
	page.pageId = pageId
}

func (page *HashTableHeaderPage) GetLSN() types.LSN {
	return page.lsn
}

func (page *HashTableHeaderPage) SetLSN(lsn types.LSN) {
	page.lsn = lsn
}

// AddBlockPageId appends a block page to the directory.
func (page *HashTableHeaderPage) AddBlockPageId(pageId types.PageID) {
	common.SH_Assert(page.nextIndex < MaxNumBlockPages, "hash table header page is full")
	page.blockPageIds[page.nextIndex] = pageId
	page.nextIndex++
}

// NumBlocks returns the number of block pages currently attached.
func (page *HashTableHeaderPage) NumBlocks() uint64 {
	return page.nextIndex
}

func (page *HashTableHeaderPage) SetSize(size uint64) {
	page.size = size
}

// GetSize returns the number of buckets in the table.
func (page *HashTableHeaderPage) GetSize() uint64 {
	return page.size
}
