package page

import (
	"encoding/binary"

	"github.com/masudb/MasuDB/types"
)

// RID is the record identifier for a tuple: the page it lives on and the slot
// within that page. It is the value type index entries point at.
type RID struct {
	PageId  types.PageID
	SlotNum uint32
}

func (r *RID) Set(pageId types.PageID, slot uint32) {
	r.PageId = pageId
	r.SlotNum = slot
}

func (r *RID) GetPageId() types.PageID {
	return r.PageId
}

func (r *RID) GetSlotNum() uint32 {
	return r.SlotNum
}

const SizeOfRID = types.SizeOfPageID + 4

// RIDSerde lays a RID out as page id then slot number, little endian.
type RIDSerde struct{}

func (RIDSerde) Size() uint32 { return SizeOfRID }

func (RIDSerde) WriteTo(buf []byte, v RID) {
	binary.LittleEndian.PutUint32(buf, uint32(v.PageId))
	binary.LittleEndian.PutUint32(buf[types.SizeOfPageID:], v.SlotNum)
}

func (RIDSerde) ReadFrom(buf []byte) RID {
	return RID{
		PageId:  types.PageID(binary.LittleEndian.Uint32(buf)),
		SlotNum: binary.LittleEndian.Uint32(buf[types.SizeOfPageID:]),
	}
}
