package common

import (
	"fmt"

	"github.com/boljen/go-bitmap"
	neoos "github.com/dani2318/NeoOS"
	"github.com/dani2318/NeoOS/errors"
)

// SlotPool hands out integer slots from a fixed-size arena. Allocation is a
// first-fit linear scan over an allocation bitmap.
type SlotPool struct {
	AllocationBitmap bitmap.Bitmap
	totalSlots       uint
	inUse            uint
}

func NewSlotPool(totalSlots uint) SlotPool {
	return SlotPool{
		AllocationBitmap: bitmap.New(int(totalSlots)),
		totalSlots:       totalSlots,
	}
}

// Capacity returns the number of slots in the pool.
func (pool *SlotPool) Capacity() uint {
	return pool.totalSlots
}

// InUse returns the number of allocated slots.
func (pool *SlotPool) InUse() uint {
	return pool.inUse
}

// IsAllocated reports whether `slot` is currently in use. Out-of-range slots
// are never allocated.
func (pool *SlotPool) IsAllocated(slot SlotID) bool {
	if uint(slot) >= pool.totalSlots {
		return false
	}
	return pool.AllocationBitmap.Get(int(slot))
}

// Allocate allocates the first available slot it finds and returns its index.
// If every slot is in use, it returns [neoos.ErrOutOfHandles].
func (pool *SlotPool) Allocate() (SlotID, error) {
	for i := uint(0); i < pool.totalSlots; i++ {
		if !pool.AllocationBitmap.Get(int(i)) {
			pool.AllocationBitmap.Set(int(i), true)
			pool.inUse++
			return SlotID(i), nil
		}
	}

	return 0, neoos.ErrOutOfHandles.WithMessage(
		fmt.Sprintf("all %d slots are in use", pool.totalSlots))
}

// Release frees an allocated slot. Trying to free a slot that is already free
// returns an error with the errno code EALREADY.
func (pool *SlotPool) Release(slot SlotID) error {
	if uint(slot) >= pool.totalSlots {
		msg := fmt.Sprintf(
			"invalid slot id: %d not in range [0, %d)",
			slot,
			pool.totalSlots)
		return neoos.ErrBadHandle.WithMessage(msg)
	}
	if !pool.AllocationBitmap.Get(int(slot)) {
		msg := fmt.Sprintf("slot %d is already free", slot)
		return errors.ErrAlreadyInProgress.WithMessage(msg)
	}

	pool.AllocationBitmap.Set(int(slot), false)
	pool.inUse--
	return nil
}

// Reset marks every slot as free.
func (pool *SlotPool) Reset() {
	pool.AllocationBitmap = bitmap.New(int(pool.totalSlots))
	pool.inUse = 0
}
