package hash

import (
	"github.com/masudb/MasuDB/errors"
)

// ErrNoFreeFrame is surfaced when the buffer pool cannot pin a page the
// table needs; the caller may retry after unpinning elsewhere.
const ErrNoFreeFrame = errors.Error("no usable frame in buffer pool")
