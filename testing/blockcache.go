package testing

import (
	"crypto/rand"
	"fmt"
	"testing"

	neoos "github.com/dani2318/NeoOS"
	"github.com/dani2318/NeoOS/drivers/common/blockcache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Create an image with the given number of blocks and bytes per block. It is
// guaranteed to either return a valid slice or fail the test and abort.
func CreateRandomImage(bytesPerBlock, totalBlocks uint, t *testing.T) []byte {
	backingData := make([]byte, bytesPerBlock*totalBlocks)

	_, err := rand.Read(backingData)
	require.NoErrorf(
		t,
		err,
		"failed to initialize %d blocks of size %d with random bytes",
		totalBlocks,
		bytesPerBlock,
	)
	return backingData
}

// FetchLog records every call made to a window's fetch callback.
type FetchLog struct {
	Starts []uint
	Counts []uint
	// FailNext makes the next fetch return an I/O error without touching the
	// buffer. It's cleared after one failure.
	FailNext bool
}

// CreateDefaultWindow creates a window over `backingData` (random if nil).
//
// The fetch handler checks bounds for you and fails the test with an
// appropriate error message. Every call is recorded in the returned FetchLog.
func CreateDefaultWindow(
	bytesPerBlock,
	capacity,
	totalBlocks uint,
	backingData []byte,
	t *testing.T,
) (*blockcache.Window, *FetchLog) {
	if backingData == nil {
		backingData = CreateRandomImage(bytesPerBlock, totalBlocks, t)
	}
	log := &FetchLog{}

	fetchCallback := func(start, count uint, buffer []byte) error {
		if start+count > totalBlocks {
			message := fmt.Sprintf(
				"attempted to read outside bounds: blocks [%d, %d) not in [0, %d)",
				start,
				start+count,
				totalBlocks,
			)
			t.Error(message)
			return neoos.ErrDeviceRead.WithMessage(message)
		}
		if log.FailNext {
			log.FailNext = false
			return neoos.ErrDeviceRead.WithMessage("injected failure")
		}

		log.Starts = append(log.Starts, start)
		log.Counts = append(log.Counts, count)
		offset := start * bytesPerBlock
		copy(buffer, backingData[offset:offset+count*bytesPerBlock])
		return nil
	}

	window, err := blockcache.New(bytesPerBlock, capacity, totalBlocks, fetchCallback)
	require.NoError(t, err)
	assert.EqualValues(t, bytesPerBlock, window.BytesPerBlock(), "wrong bytes per block")
	assert.EqualValues(t, capacity, window.Capacity(), "wrong capacity")
	assert.EqualValues(t, totalBlocks, window.TotalBlocks(), "wrong total blocks")
	assert.False(t, window.IsLoaded(), "new window shouldn't hold data")
	return window, log
}
