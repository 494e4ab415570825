package fat

import (
	"fmt"

	neoos "github.com/dani2318/NeoOS"
	"github.com/dani2318/NeoOS/drivers/common"
)

// DefaultMaxHandles is the number of files that can be open at once besides
// the root directory.
const DefaultMaxHandles = 10

// HandleTable is the fixed-size set of open files of one volume. The root
// directory never occupies a slot.
type HandleTable struct {
	pool  common.SlotPool
	files []*File
}

func NewHandleTable(capacity uint) *HandleTable {
	return &HandleTable{
		pool:  common.NewSlotPool(capacity),
		files: make([]*File, capacity),
	}
}

// Capacity returns the number of slots in the table.
func (h *HandleTable) Capacity() int {
	return len(h.files)
}

// InUse returns the number of open handles.
func (h *HandleTable) InUse() int {
	return int(h.pool.InUse())
}

// Allocate reserves the lowest free slot.
func (h *HandleTable) Allocate() (neoos.HandleID, error) {
	slot, err := h.pool.Allocate()
	if err != nil {
		return 0, err
	}
	return neoos.HandleID(slot), nil
}

// Attach stores the open file for an allocated slot.
func (h *HandleTable) Attach(id neoos.HandleID, file *File) {
	h.files[id] = file
}

// Release frees a slot so it can be allocated again.
func (h *HandleTable) Release(id neoos.HandleID) error {
	if id < 0 || int(id) >= len(h.files) {
		return neoos.ErrBadHandle.WithMessage(
			fmt.Sprintf("handle %d not in range [0, %d)", id, len(h.files)))
	}
	err := h.pool.Release(common.SlotID(id))
	if err != nil {
		return err
	}
	h.files[id] = nil
	return nil
}

// Get returns the open file in slot `id`.
func (h *HandleTable) Get(id neoos.HandleID) (*File, error) {
	if id < 0 || !h.pool.IsAllocated(common.SlotID(id)) || h.files[id] == nil {
		return nil, neoos.ErrBadHandle.WithMessage(fmt.Sprintf("handle %d is not open", id))
	}
	return h.files[id], nil
}

// Open returns every open file, lowest slot first.
func (h *HandleTable) Open() []*File {
	var files []*File
	for i, file := range h.files {
		if file != nil && h.pool.IsAllocated(common.SlotID(i)) {
			files = append(files, file)
		}
	}
	return files
}

// Reset frees every slot without closing anything.
func (h *HandleTable) Reset() {
	h.pool.Reset()
	for i := range h.files {
		h.files[i] = nil
	}
}
