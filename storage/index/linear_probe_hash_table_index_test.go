package index

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/masudb/MasuDB/recovery"
	"github.com/masudb/MasuDB/storage/buffer"
	"github.com/masudb/MasuDB/storage/disk"
	"github.com/masudb/MasuDB/storage/page"
)

func TestHashTableIndex(t *testing.T) {
	dm := disk.NewVirtualDiskManagerImpl("index.db")
	bpm := buffer.NewBufferPoolManager(32, dm, recovery.NewLogManager(dm))

	idx, err := NewLinearProbeHashTableIndex(bpm, 64)
	require.NoError(t, err)

	ridA := page.RID{PageId: 3, SlotNum: 1}
	ridB := page.RID{PageId: 3, SlotNum: 2}

	require.True(t, idx.InsertEntry([]byte("alice"), ridA))
	require.True(t, idx.InsertEntry([]byte("bob"), ridB))
	// same key, second location
	ridC := page.RID{PageId: 9, SlotNum: 0}
	require.True(t, idx.InsertEntry([]byte("alice"), ridC))

	require.ElementsMatch(t, []page.RID{ridA, ridC}, idx.ScanKey([]byte("alice")))
	require.Equal(t, []page.RID{ridB}, idx.ScanKey([]byte("bob")))
	require.Empty(t, idx.ScanKey([]byte("carol")))

	require.True(t, idx.DeleteEntry([]byte("alice"), ridA))
	require.Equal(t, []page.RID{ridC}, idx.ScanKey([]byte("alice")))
	require.False(t, idx.DeleteEntry([]byte("alice"), ridA))

	// duplicate entry is rejected
	require.False(t, idx.InsertEntry([]byte("bob"), ridB))
}

func TestHashTableIndexReopen(t *testing.T) {
	dm := disk.NewVirtualDiskManagerImpl("index.db")
	bpm := buffer.NewBufferPoolManager(32, dm, recovery.NewLogManager(dm))

	idx, err := NewLinearProbeHashTableIndex(bpm, 64)
	require.NoError(t, err)

	rid := page.RID{PageId: 5, SlotNum: 4}
	require.True(t, idx.InsertEntry([]byte("durable"), rid))
	bpm.FlushAllPages()

	reopened, err := NewLinearProbeHashTableIndexWithHeader(bpm, idx.GetHeaderPageId())
	require.NoError(t, err)
	require.Equal(t, []page.RID{rid}, reopened.ScanKey([]byte("durable")))
}
