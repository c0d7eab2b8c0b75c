package disk

import (
	"io"
	"os"
	"strings"

	"github.com/ncw/directio"
	"github.com/pkg/errors"
	"github.com/sasha-s/go-deadlock"

	"github.com/masudb/MasuDB/common"
	"github.com/masudb/MasuDB/types"
)

// DiskManagerImpl is the disk implementation of DiskManager
type DiskManagerImpl struct {
	db          *os.File
	fileName    string
	log         *os.File
	fileNameLog string
	nextPageID  types.PageID
	numWrites   uint64
	size        int64
	numFlushes  uint64
	dbFileMutex deadlock.Mutex
	logFileMutex deadlock.Mutex
}

// NewDiskManagerImpl returns a DiskManager instance backed by dbFilename and
// a sibling ".log" file for WAL records.
func NewDiskManagerImpl(dbFilename string) (DiskManager, error) {
	file, err := os.OpenFile(dbFilename, os.O_RDWR|os.O_CREATE, 0666)
	if err != nil {
		return nil, errors.Wrapf(err, "can't open db file %s", dbFilename)
	}

	logfnameBase := dbFilename
	if periodIdx := strings.LastIndex(dbFilename, "."); periodIdx != -1 {
		logfnameBase = dbFilename[:periodIdx]
	}
	logfname := logfnameBase + ".log"
	logFile, err := os.OpenFile(logfname, os.O_RDWR|os.O_CREATE, 0666)
	if err != nil {
		file.Close()
		return nil, errors.Wrapf(err, "can't open log file %s", logfname)
	}

	fileInfo, err := file.Stat()
	if err != nil {
		return nil, errors.Wrap(err, "db file info error")
	}

	logFileInfo, err := logFile.Stat()
	if err != nil {
		return nil, errors.Wrap(err, "log file info error")
	}
	logFile.Seek(logFileInfo.Size(), io.SeekStart)

	fileSize := fileInfo.Size()
	nextPageID := types.PageID(fileSize / common.PageSize)

	return &DiskManagerImpl{
		db:          file,
		fileName:    dbFilename,
		log:         logFile,
		fileNameLog: logfname,
		nextPageID:  nextPageID,
		size:        fileSize,
	}, nil
}

// ShutDown closes the database and log files
func (d *DiskManagerImpl) ShutDown() {
	d.db.Close()
	d.log.Close()
}

// WritePage writes a page to the database file
func (d *DiskManagerImpl) WritePage(pageId types.PageID, pageData []byte) error {
	d.dbFileMutex.Lock()
	defer d.dbFileMutex.Unlock()

	offset := int64(pageId) * common.PageSize
	if _, err := d.db.Seek(offset, io.SeekStart); err != nil {
		return errors.Wrapf(err, "seek to page %d failed", pageId)
	}
	bytesWritten, err := d.db.Write(pageData)
	if err != nil {
		return errors.Wrapf(err, "write of page %d failed", pageId)
	}
	if bytesWritten != common.PageSize {
		return errors.Errorf("short write of page %d: %d bytes", pageId, bytesWritten)
	}

	if offset >= d.size {
		d.size = offset + int64(bytesWritten)
	}

	d.numWrites++
	d.db.Sync()
	return nil
}

// ReadPage reads a page from the database file. A read past the materialized
// tail of a page returns a zero-filled remainder, matching the zero image
// NewPage wrote for ids allocated but not yet flushed.
func (d *DiskManagerImpl) ReadPage(pageID types.PageID, pageData []byte) error {
	d.dbFileMutex.Lock()
	defer d.dbFileMutex.Unlock()

	offset := int64(pageID) * common.PageSize

	fileInfo, err := d.db.Stat()
	if err != nil {
		return errors.Wrap(err, "db file info error")
	}
	if offset > fileInfo.Size() {
		return errors.Errorf("I/O error past end of file: page %d", pageID)
	}

	if _, err := d.db.Seek(offset, io.SeekStart); err != nil {
		return errors.Wrapf(err, "seek to page %d failed", pageID)
	}

	// aligned intermediate keeps reads page-granular
	buf := directio.AlignedBlock(common.PageSize)
	bytesRead, err := d.db.Read(buf)
	if err != nil && err != io.EOF {
		return errors.Wrapf(err, "read of page %d failed", pageID)
	}
	for i := bytesRead; i < common.PageSize; i++ {
		buf[i] = 0
	}
	copy(pageData, buf)
	return nil
}

// AllocatePage allocates a new page id. Just an increasing counter for now.
func (d *DiskManagerImpl) AllocatePage() types.PageID {
	d.dbFileMutex.Lock()
	defer d.dbFileMutex.Unlock()

	ret := d.nextPageID
	d.nextPageID++
	return ret
}

// DeallocatePage deallocates a page id. Tracking freed file space would need
// a bitmap in a header page; the file-backed manager leaves the hole.
func (d *DiskManagerImpl) DeallocatePage(pageID types.PageID) {
}

// GetNumWrites returns the number of disk writes
func (d *DiskManagerImpl) GetNumWrites() uint64 {
	return d.numWrites
}

// Size returns the size of the file in disk
func (d *DiskManagerImpl) Size() int64 {
	d.dbFileMutex.Lock()
	defer d.dbFileMutex.Unlock()
	return d.size
}

// RemoveDBFile may only be called after ShutDown
func (d *DiskManagerImpl) RemoveDBFile() {
	os.Remove(d.fileName)
}

// RemoveLogFile may only be called after ShutDown
func (d *DiskManagerImpl) RemoveLogFile() {
	os.Remove(d.fileNameLog)
}

// WriteLog appends the contents of the log buffer to the log file. Only
// returns when the sync is done; writes are strictly sequential.
func (d *DiskManagerImpl) WriteLog(logData []byte) error {
	d.logFileMutex.Lock()
	defer d.logFileMutex.Unlock()

	if len(logData) == 0 {
		return nil
	}

	d.numFlushes++
	// ReadLog moves the shared position; always append at the tail
	if _, err := d.log.Seek(0, io.SeekEnd); err != nil {
		return errors.Wrap(err, "seek to log tail failed")
	}
	if _, err := d.log.Write(logData); err != nil {
		return errors.Wrap(err, "I/O error while writing log")
	}
	return d.log.Sync()
}

// ReadLog reads len(logData) bytes of the log file starting at offset.
// Returns false when offset is at or past the end of the log.
func (d *DiskManagerImpl) ReadLog(logData []byte, offset int32) (bool, error) {
	d.logFileMutex.Lock()
	defer d.logFileMutex.Unlock()

	if int64(offset) >= d.logFileSize() {
		return false, nil
	}

	if _, err := d.log.Seek(int64(offset), io.SeekStart); err != nil {
		return false, errors.Wrap(err, "seek in log file failed")
	}
	readBytes, err := d.log.Read(logData)
	if err != nil && err != io.EOF {
		return false, errors.Wrap(err, "I/O error while reading log")
	}
	for i := readBytes; i < len(logData); i++ {
		logData[i] = 0
	}
	return true, nil
}

// GetNumFlushes returns the number of log flushes
func (d *DiskManagerImpl) GetNumFlushes() uint64 {
	return d.numFlushes
}

func (d *DiskManagerImpl) logFileSize() int64 {
	fileInfo, err := d.log.Stat()
	if err != nil {
		return -1
	}
	return fileInfo.Size()
}
