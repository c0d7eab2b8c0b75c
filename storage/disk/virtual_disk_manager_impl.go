package disk

import (
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/dsnet/golib/memfile"
	"github.com/pkg/errors"
	"github.com/sasha-s/go-deadlock"

	"github.com/masudb/MasuDB/common"
	"github.com/masudb/MasuDB/types"
)

// VirtualDiskManagerImpl keeps the database "file" in memory, so tests and
// embedders can run without touching the filesystem. Unlike the file-backed
// manager, it rejects reads on deallocated ids and reuses their file space.
type VirtualDiskManagerImpl struct {
	db              *memfile.File
	fileName        string
	log             *memfile.File
	nextPageID      types.PageID
	numWrites       uint64
	size            int64
	numFlushes      uint64
	dbFileMutex     deadlock.Mutex
	logFileMutex    deadlock.Mutex
	reusableSpaceIDs []types.PageID
	spaceIDConvMap  map[types.PageID]types.PageID
	deallocatedIDs  mapset.Set[types.PageID]
}

func NewVirtualDiskManagerImpl(dbFilename string) DiskManager {
	return &VirtualDiskManagerImpl{
		db:              memfile.New(make([]byte, 0)),
		fileName:        dbFilename,
		log:             memfile.New(make([]byte, 0)),
		nextPageID:      0,
		reusableSpaceIDs: make([]types.PageID, 0),
		spaceIDConvMap:  make(map[types.PageID]types.PageID),
		deallocatedIDs:  mapset.NewSet[types.PageID](),
	}
}

// ShutDown does nothing: the backing store dies with the process.
func (d *VirtualDiskManagerImpl) ShutDown() {
}

// spaceID conversion lets a new page id reuse the file space of a
// deallocated one.
func (d *VirtualDiskManagerImpl) convToSpaceID(pageID types.PageID) types.PageID {
	if convedID, exist := d.spaceIDConvMap[pageID]; exist {
		return convedID
	}
	return pageID
}

// WritePage writes a page to the in-memory file
func (d *VirtualDiskManagerImpl) WritePage(pageId types.PageID, pageData []byte) error {
	d.dbFileMutex.Lock()
	defer d.dbFileMutex.Unlock()

	offset := int64(d.convToSpaceID(pageId)) * common.PageSize
	if _, err := d.db.WriteAt(pageData, offset); err != nil {
		return errors.Wrapf(err, "write of page %d failed", pageId)
	}

	if offset >= d.size {
		d.size = offset + int64(len(pageData))
	}

	d.numWrites++
	return nil
}

// ReadPage reads a page from the in-memory file
func (d *VirtualDiskManagerImpl) ReadPage(pageID types.PageID, pageData []byte) error {
	d.dbFileMutex.Lock()
	defer d.dbFileMutex.Unlock()

	if d.deallocatedIDs.Contains(pageID) {
		return types.DeallocatedPageErr
	}

	offset := int64(d.convToSpaceID(pageID)) * common.PageSize
	if offset > d.size || offset+int64(len(pageData)) > d.size {
		return errors.Errorf("I/O error past end of file: page %d", pageID)
	}

	if _, err := d.db.ReadAt(pageData, offset); err != nil {
		return errors.Wrapf(err, "read of page %d failed", pageID)
	}
	return nil
}

// AllocatePage allocates a new page id, reusing the space of a deallocated
// page when one is available.
func (d *VirtualDiskManagerImpl) AllocatePage() types.PageID {
	d.dbFileMutex.Lock()
	defer d.dbFileMutex.Unlock()

	ret := d.nextPageID
	if len(d.reusableSpaceIDs) > 0 {
		reuseID := d.reusableSpaceIDs[0]
		d.reusableSpaceIDs = d.reusableSpaceIDs[1:]
		d.spaceIDConvMap[ret] = reuseID
	}
	d.nextPageID++
	return ret
}

// DeallocatePage marks a page id dead and queues its space for reuse.
func (d *VirtualDiskManagerImpl) DeallocatePage(pageID types.PageID) {
	d.dbFileMutex.Lock()
	defer d.dbFileMutex.Unlock()

	d.deallocatedIDs.Add(pageID)
	if convedID, exist := d.spaceIDConvMap[pageID]; exist {
		d.reusableSpaceIDs = append(d.reusableSpaceIDs, convedID)
		delete(d.spaceIDConvMap, pageID)
	} else {
		d.reusableSpaceIDs = append(d.reusableSpaceIDs, pageID)
	}
}

// GetNumWrites returns the number of page writes
func (d *VirtualDiskManagerImpl) GetNumWrites() uint64 {
	return d.numWrites
}

// Size returns the size of the in-memory file
func (d *VirtualDiskManagerImpl) Size() int64 {
	d.dbFileMutex.Lock()
	defer d.dbFileMutex.Unlock()
	return d.size
}

// WriteLog appends the contents of the log buffer to the in-memory log file
func (d *VirtualDiskManagerImpl) WriteLog(logData []byte) error {
	d.logFileMutex.Lock()
	defer d.logFileMutex.Unlock()

	if len(logData) == 0 {
		return nil
	}

	d.numFlushes++
	logSize := int64(len(d.log.Bytes()))
	_, err := d.log.WriteAt(logData, logSize)
	return err
}

// ReadLog reads len(logData) bytes of the log starting at offset. Returns
// false when offset is at or past the end of the log.
func (d *VirtualDiskManagerImpl) ReadLog(logData []byte, offset int32) (bool, error) {
	d.logFileMutex.Lock()
	defer d.logFileMutex.Unlock()

	logBytes := d.log.Bytes()
	if int64(offset) >= int64(len(logBytes)) {
		return false, nil
	}

	n := copy(logData, logBytes[offset:])
	for i := n; i < len(logData); i++ {
		logData[i] = 0
	}
	return true, nil
}

// GetNumFlushes returns the number of log flushes
func (d *VirtualDiskManagerImpl) GetNumFlushes() uint64 {
	return d.numFlushes
}
