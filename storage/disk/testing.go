package disk

import (
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// DiskManagerTest is the disk implementation of DiskManager for testing
// purposes. It writes to a uniquely named file under the OS temp dir and
// removes it on shutdown.
type DiskManagerTest struct {
	path string
	DiskManager
}

// NewDiskManagerTest returns a DiskManager instance for testing purposes
func NewDiskManagerTest() *DiskManagerTest {
	path := filepath.Join(os.TempDir(), "masudb-test-"+uuid.NewString()+".db")

	diskManager, err := NewDiskManagerImpl(path)
	if err != nil {
		panic(err)
	}
	return &DiskManagerTest{path, diskManager}
}

// ShutDown closes the database file and removes it
func (d *DiskManagerTest) ShutDown() {
	defer func() {
		os.Remove(d.path)
		logPath := d.path[:len(d.path)-len(filepath.Ext(d.path))] + ".log"
		os.Remove(logPath)
	}()
	d.DiskManager.ShutDown()
}
