package recovery

import (
	"github.com/masudb/MasuDB/common"
	"github.com/masudb/MasuDB/storage/disk"
	"github.com/masudb/MasuDB/types"
)

/**
 * LogManager owns the in-memory WAL buffer. Its one obligation toward the
 * buffer pool is the write-ahead contract: all records up through a dirty
 * page's LSN must be on stable storage before that page's bytes are. The
 * buffer pool calls Flush, which writes out the whole log buffer, at every
 * dirty write-back boundary.
 */
type LogManager struct {
	offset        uint32
	logBufferLSN  types.LSN
	// the next log sequence number to hand out
	nextLSN types.LSN
	// records before and including persistentLSN have been written to disk
	persistentLSN types.LSN
	logBuffer     []byte
	flushBuffer   []byte
	latch         common.ReaderWriterLatch
	diskManager   disk.DiskManager
}

func NewLogManager(diskManager disk.DiskManager) *LogManager {
	return &LogManager{
		nextLSN:       0,
		persistentLSN: common.InvalidLSN,
		logBuffer:     make([]byte, common.LogBufferSize),
		flushBuffer:   make([]byte, common.LogBufferSize),
		latch:         common.NewRWLatch(),
		diskManager:   diskManager,
	}
}

func (l *LogManager) GetNextLSN() types.LSN       { return l.nextLSN }
func (l *LogManager) GetPersistentLSN() types.LSN { return l.persistentLSN }

// AppendRecord copies a serialized log record into the log buffer and
// assigns it the next LSN. The record becomes durable at the next Flush.
func (l *LogManager) AppendRecord(record []byte) types.LSN {
	l.latch.WLock()
	defer l.latch.WUnlock()

	if l.offset+uint32(len(record)) > common.LogBufferSize {
		l.flushLocked()
	}
	copy(l.logBuffer[l.offset:], record)
	l.offset += uint32(len(record))

	lsn := l.nextLSN
	l.nextLSN++
	l.logBufferLSN = lsn
	return lsn
}

// Flush forces the current log buffer to stable storage.
func (l *LogManager) Flush() {
	l.latch.WLock()
	defer l.latch.WUnlock()
	l.flushLocked()
}

// FlushUpTo makes every record up through lsn durable. A no-op when those
// records were already flushed.
func (l *LogManager) FlushUpTo(lsn types.LSN) {
	if lsn <= l.persistentLSN {
		return
	}
	l.Flush()
}

func (l *LogManager) flushLocked() {
	lsn := l.logBufferLSN
	offset := l.offset
	l.offset = 0
	if offset == 0 {
		return
	}

	// swap the two buffers so appends can continue into the other one
	l.flushBuffer, l.logBuffer = l.logBuffer, l.flushBuffer

	l.diskManager.WriteLog(l.flushBuffer[:offset])
	l.persistentLSN = lsn
}
