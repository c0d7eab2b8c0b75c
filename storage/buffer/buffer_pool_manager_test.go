package buffer

import (
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/masudb/MasuDB/common"
	"github.com/masudb/MasuDB/recovery"
	"github.com/masudb/MasuDB/storage/disk"
	"github.com/masudb/MasuDB/types"
)

func newTestBPM(poolSize uint32, dm disk.DiskManager) *BufferPoolManager {
	return NewBufferPoolManager(poolSize, dm, recovery.NewLogManager(dm))
}

func TestSample(t *testing.T) {
	poolSize := uint32(10)

	dm := disk.NewDiskManagerTest()
	defer dm.ShutDown()
	bpm := newTestBPM(poolSize, dm)

	page0 := bpm.NewPage()
	require.NotNil(t, page0)

	// Scenario: The buffer pool is empty. We should be able to create a new page.
	require.Equal(t, types.PageID(0), page0.GetPageId())

	// Scenario: Once we have a page, we should be able to read and write content.
	page0.Copy(0, []byte("Hello"))
	require.Equal(t, [common.PageSize]byte{'H', 'e', 'l', 'l', 'o'}, *page0.Data())

	// Scenario: We should be able to create new pages until we fill up the buffer pool.
	for i := uint32(1); i < poolSize; i++ {
		p := bpm.NewPage()
		require.NotNil(t, p)
		require.Equal(t, types.PageID(i), p.GetPageId())
	}

	// Scenario: Once the buffer pool is full, we should not be able to create any new pages.
	for i := poolSize; i < poolSize*2; i++ {
		require.Nil(t, bpm.NewPage())
	}

	// Scenario: After unpinning pages {0, 1, 2, 3, 4} and pinning another 4 new pages,
	// there would still be one buffer frame left for reading page 0.
	for i := 0; i < 5; i++ {
		require.True(t, bpm.UnpinPage(types.PageID(i), true))
		bpm.FlushPage(types.PageID(i))
	}
	for i := 0; i < 4; i++ {
		require.NotNil(t, bpm.NewPage())
	}

	// Scenario: We should be able to fetch the data we wrote a while ago.
	page0 = bpm.FetchPage(types.PageID(0))
	require.NotNil(t, page0)
	require.Equal(t, [common.PageSize]byte{'H', 'e', 'l', 'l', 'o'}, *page0.Data())

	// Scenario: If we unpin page 0 and then make a new page, all the buffer
	// pages should now be pinned. Fetching page 0 again should fail.
	require.True(t, bpm.UnpinPage(types.PageID(0), true))
	require.Equal(t, types.PageID(14), bpm.NewPage().GetPageId())
	require.Nil(t, bpm.NewPage())
	require.Nil(t, bpm.FetchPage(types.PageID(0)))
}

func TestBinaryData(t *testing.T) {
	poolSize := uint32(10)

	dm := disk.NewDiskManagerTest()
	defer dm.ShutDown()
	bpm := newTestBPM(poolSize, dm)

	page0 := bpm.NewPage()
	require.NotNil(t, page0)
	require.Equal(t, types.PageID(0), page0.GetPageId())

	randomBinaryData := make([]byte, common.PageSize)
	rand.Read(randomBinaryData)

	// terminal characters both in the middle and at the end
	randomBinaryData[common.PageSize/2] = '0'
	randomBinaryData[common.PageSize-1] = '0'

	var fixedRandomBinaryData [common.PageSize]byte
	copy(fixedRandomBinaryData[:], randomBinaryData)

	page0.Copy(0, randomBinaryData)
	require.Equal(t, fixedRandomBinaryData, *page0.Data())

	for i := uint32(1); i < poolSize; i++ {
		p := bpm.NewPage()
		require.NotNil(t, p)
		require.Equal(t, types.PageID(i), p.GetPageId())
	}
	for i := poolSize; i < poolSize*2; i++ {
		require.Nil(t, bpm.NewPage())
	}

	for i := 0; i < 5; i++ {
		require.True(t, bpm.UnpinPage(types.PageID(i), true))
		bpm.FlushPage(types.PageID(i))
	}
	for i := 0; i < 4; i++ {
		p := bpm.NewPage()
		require.NotNil(t, p)
		require.True(t, bpm.UnpinPage(p.GetPageId(), false))
	}

	// data written before eviction comes back intact
	page0 = bpm.FetchPage(types.PageID(0))
	require.NotNil(t, page0)
	require.Equal(t, fixedRandomBinaryData, *page0.Data())
	require.True(t, bpm.UnpinPage(types.PageID(0), true))
}

// Pool of one frame: the second NewPage must fail until the first page is
// unpinned, and the evicted page leaves the page table.
func TestPoolSizeOne(t *testing.T) {
	dm := disk.NewDiskManagerTest()
	defer dm.ShutDown()
	bpm := newTestBPM(1, dm)

	page1 := bpm.NewPage()
	require.NotNil(t, page1)
	p1 := page1.GetPageId()

	require.Nil(t, bpm.NewPage())

	require.True(t, bpm.UnpinPage(p1, false))

	page2 := bpm.NewPage()
	require.NotNil(t, page2)
	require.NotEqual(t, p1, page2.GetPageId())

	// p1 was evicted: unpinning it again reports not-resident
	require.False(t, bpm.UnpinPage(p1, false))
}

// A dirty page evicted from a one-frame pool must reach disk first.
func TestDirtyEvictionFlushes(t *testing.T) {
	dm := disk.NewDiskManagerTest()
	defer dm.ShutDown()
	bpm := newTestBPM(1, dm)

	page1 := bpm.NewPage()
	require.NotNil(t, page1)
	p1 := page1.GetPageId()
	page1.Copy(0, []byte("mutated"))
	require.True(t, bpm.UnpinPage(p1, true))

	page2 := bpm.NewPage()
	require.NotNil(t, page2)

	data := make([]byte, common.PageSize)
	require.NoError(t, dm.ReadPage(p1, data))
	require.Equal(t, []byte("mutated"), data[:7])
}

func TestUnpinContract(t *testing.T) {
	dm := disk.NewDiskManagerTest()
	defer dm.ShutDown()
	bpm := newTestBPM(3, dm)

	// not resident
	require.False(t, bpm.UnpinPage(types.PageID(42), false))

	pg := bpm.NewPage()
	require.NotNil(t, pg)
	id := pg.GetPageId()

	require.True(t, bpm.UnpinPage(id, false))
	// already at pin count zero
	require.False(t, bpm.UnpinPage(id, false))

	// a later clean unpin must not downgrade the dirty mark
	pg = bpm.FetchPage(id)
	require.NotNil(t, pg)
	pg.IncPinCount()
	require.True(t, bpm.UnpinPage(id, true))
	require.True(t, bpm.UnpinPage(id, false))
	require.True(t, pg.IsDirty())
}

func TestFlushPage(t *testing.T) {
	dm := disk.NewDiskManagerTest()
	defer dm.ShutDown()
	bpm := newTestBPM(3, dm)

	require.False(t, bpm.FlushPage(types.InvalidPageID))
	require.False(t, bpm.FlushPage(types.PageID(7)))

	pg := bpm.NewPage()
	require.NotNil(t, pg)
	pg.Copy(0, []byte("flush me"))
	require.True(t, bpm.UnpinPage(pg.GetPageId(), true))
	require.True(t, bpm.FlushPage(pg.GetPageId()))
	require.False(t, pg.IsDirty())

	data := make([]byte, common.PageSize)
	require.NoError(t, dm.ReadPage(pg.GetPageId(), data))
	require.Equal(t, []byte("flush me"), data[:8])
}

func TestFlushAllPages(t *testing.T) {
	dm := disk.NewDiskManagerTest()
	defer dm.ShutDown()
	bpm := newTestBPM(5, dm)

	ids := make([]types.PageID, 0, 5)
	for i := 0; i < 5; i++ {
		pg := bpm.NewPage()
		require.NotNil(t, pg)
		pg.Copy(0, []byte{byte('a' + i)})
		require.True(t, bpm.UnpinPage(pg.GetPageId(), true))
		ids = append(ids, pg.GetPageId())
	}

	bpm.FlushAllPages()

	// each frame flushed under its own page id
	data := make([]byte, common.PageSize)
	for i, id := range ids {
		require.NoError(t, dm.ReadPage(id, data))
		require.Equal(t, byte('a'+i), data[0])
	}
}

func TestDeletePage(t *testing.T) {
	dm := disk.NewDiskManagerTest()
	defer dm.ShutDown()
	bpm := newTestBPM(3, dm)

	// deleting a non-resident page is idempotent
	require.True(t, bpm.DeletePage(types.PageID(99)))

	pg := bpm.NewPage()
	require.NotNil(t, pg)
	id := pg.GetPageId()

	// pinned pages cannot be deleted
	require.False(t, bpm.DeletePage(id))

	require.True(t, bpm.UnpinPage(id, true))
	require.True(t, bpm.DeletePage(id))

	// the frame went back to the free list: three new pages fit again
	for i := 0; i < 3; i++ {
		require.NotNil(t, bpm.NewPage())
	}
}
