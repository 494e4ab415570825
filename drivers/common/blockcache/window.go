// Package blockcache provides a bounded, read-only view of a sliding run of
// consecutive blocks from a larger region, such as a file allocation table
// that is far too big to keep in memory at boot time.
//
// All block indexes are relative to the start of the region and begin at 0.
package blockcache

import (
	"fmt"

	neoos "github.com/dani2318/NeoOS"
)

// FetchBlocksCallback is a pointer to a function that writes the contents of
// `count` consecutive blocks, beginning at `start`, into `buffer`. `buffer` is
// guaranteed to be exactly `count` blocks long.
type FetchBlocksCallback func(start uint, count uint, buffer []byte) error

// Window caches at most `capacity` consecutive blocks of a region of
// `totalBlocks` blocks. It's reloaded as a whole whenever a caller asks for
// bytes it doesn't hold.
type Window struct {
	fetch         FetchBlocksCallback
	bytesPerBlock uint
	capacity      uint
	totalBlocks   uint
	start         uint
	loadedBlocks  uint
	isLoaded      bool
	reloads       uint
	data          []byte
	spare         []byte
}

// New creates a new, empty Window. Nothing is read until the first call to
// Load or Slice.
func New(
	bytesPerBlock uint,
	capacity uint,
	totalBlocks uint,
	fetchCb FetchBlocksCallback,
) (*Window, error) {
	if bytesPerBlock == 0 || capacity == 0 {
		return nil, neoos.ErrInvalidArgument.WithMessage(
			fmt.Sprintf(
				"window needs a nonzero block size and capacity, got %d B x %d",
				bytesPerBlock,
				capacity))
	}
	return &Window{
		fetch:         fetchCb,
		bytesPerBlock: bytesPerBlock,
		capacity:      capacity,
		totalBlocks:   totalBlocks,
		data:          make([]byte, bytesPerBlock*capacity),
		spare:         make([]byte, bytesPerBlock*capacity),
	}, nil
}

// BytesPerBlock returns the size of a single block, in bytes.
func (w *Window) BytesPerBlock() uint {
	return w.bytesPerBlock
}

// Capacity returns the maximum number of blocks the window holds at once.
func (w *Window) Capacity() uint {
	return w.capacity
}

// TotalBlocks returns the size of the backing region, in blocks.
func (w *Window) TotalBlocks() uint {
	return w.totalBlocks
}

// Start returns the index of the first block in the window. It's meaningless
// if IsLoaded returns false.
func (w *Window) Start() uint {
	return w.start
}

// LoadedBlocks returns how many blocks the window currently holds. This is
// less than the capacity when the window touches the end of the region.
func (w *Window) LoadedBlocks() uint {
	if !w.isLoaded {
		return 0
	}
	return w.loadedBlocks
}

// IsLoaded reports whether the window holds any data.
func (w *Window) IsLoaded() bool {
	return w.isLoaded
}

// Reloads returns the number of successful loads since the window was created.
func (w *Window) Reloads() uint {
	return w.reloads
}

// Contains reports whether block `index` is currently held by the window.
func (w *Window) Contains(index uint) bool {
	return w.isLoaded && index >= w.start && index < w.start+w.loadedBlocks
}

// Invalidate drops the window's contents so the next access reloads it.
func (w *Window) Invalidate() {
	w.isLoaded = false
}

// Load fills the window starting at block `start`. The window is clamped to the
// end of the region. On failure the previous contents are left untouched.
func (w *Window) Load(start uint) error {
	if start >= w.totalBlocks {
		return neoos.ErrInvalidArgument.WithMessage(
			fmt.Sprintf("block %d not in range [0, %d)", start, w.totalBlocks))
	}

	count := w.capacity
	if start+count > w.totalBlocks {
		count = w.totalBlocks - start
	}

	buffer := w.spare[:count*w.bytesPerBlock]
	err := w.fetch(start, count, buffer)
	if err != nil {
		return err
	}

	w.data, w.spare = w.spare, w.data
	w.start = start
	w.loadedBlocks = count
	w.isLoaded = true
	w.reloads++
	return nil
}

// Slice returns `length` bytes beginning at byte `offset` from the start of
// the region, reloading the window first if any of those bytes are outside it.
// The returned slice aliases the window's storage and is only valid until the
// next reload.
func (w *Window) Slice(offset uint, length uint) ([]byte, error) {
	if length == 0 || length > w.bytesPerBlock*w.capacity {
		return nil, neoos.ErrInvalidArgument.WithMessage(
			fmt.Sprintf(
				"can't read %d bytes through a window of %d B",
				length,
				w.bytesPerBlock*w.capacity))
	}

	firstBlock := offset / w.bytesPerBlock
	lastBlock := (offset + length - 1) / w.bytesPerBlock
	if lastBlock >= w.totalBlocks {
		return nil, neoos.ErrInvalidArgument.WithMessage(
			fmt.Sprintf(
				"bytes [%d, %d) extend past the end of the region (%d blocks)",
				offset,
				offset+length,
				w.totalBlocks))
	}

	if !w.Contains(firstBlock) || !w.Contains(lastBlock) {
		err := w.Load(firstBlock)
		if err != nil {
			return nil, err
		}
		if !w.Contains(lastBlock) {
			return nil, neoos.ErrInvalidArgument.WithMessage(
				fmt.Sprintf(
					"bytes [%d, %d) span more than %d blocks",
					offset,
					offset+length,
					w.capacity))
		}
	}

	relative := offset - w.start*w.bytesPerBlock
	return w.data[relative : relative+length], nil
}
