package disk

import (
	"github.com/masudb/MasuDB/types"
)

// DiskManager is responsible for interacting with disk
type DiskManager interface {
	ReadPage(types.PageID, []byte) error
	WritePage(types.PageID, []byte) error
	AllocatePage() types.PageID
	DeallocatePage(types.PageID)
	GetNumWrites() uint64
	ShutDown()
	Size() int64
	// WriteLog appends WAL bytes to the log file and syncs before returning.
	WriteLog([]byte) error
	// ReadLog reads from the log file at offset; false means end of log.
	ReadLog([]byte, int32) (bool, error)
}
