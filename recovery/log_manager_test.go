package recovery

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/masudb/MasuDB/common"
	"github.com/masudb/MasuDB/storage/disk"
	"github.com/masudb/MasuDB/types"
)

func TestLogManagerFlush(t *testing.T) {
	dm := disk.NewVirtualDiskManagerImpl("wal.db")
	lm := NewLogManager(dm)

	require.Equal(t, types.LSN(common.InvalidLSN), lm.GetPersistentLSN())

	lsn0 := lm.AppendRecord([]byte("begin txn 1;"))
	lsn1 := lm.AppendRecord([]byte("update page 3;"))
	require.Equal(t, types.LSN(0), lsn0)
	require.Equal(t, types.LSN(1), lsn1)

	// nothing durable until a flush
	require.Equal(t, types.LSN(common.InvalidLSN), lm.GetPersistentLSN())

	lm.Flush()
	require.Equal(t, lsn1, lm.GetPersistentLSN())

	buffer := make([]byte, 26)
	ok, err := dm.ReadLog(buffer, 0)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("begin txn 1;update page 3;"), buffer)

	// an empty flush leaves the persistent LSN alone
	lm.Flush()
	require.Equal(t, lsn1, lm.GetPersistentLSN())
}

func TestLogManagerFlushUpTo(t *testing.T) {
	dm := disk.NewVirtualDiskManagerImpl("wal.db")
	lm := NewLogManager(dm)

	lsn := lm.AppendRecord([]byte("record a"))
	lm.FlushUpTo(lsn)
	require.Equal(t, lsn, lm.GetPersistentLSN())

	// already durable: no further disk flush happens
	flushes := dm.(*disk.VirtualDiskManagerImpl).GetNumFlushes()
	lm.FlushUpTo(lsn)
	require.Equal(t, flushes, dm.(*disk.VirtualDiskManagerImpl).GetNumFlushes())
}
