package common

import (
	"fmt"
	"io"

	neoos "github.com/dani2318/NeoOS"
)

// SectorDevice is a [neoos.BlockSource] over a seekable stream such as an
// image file or an in-memory buffer.
//
// The exposed fields are for informational purposes only and should never be
// changed.
type SectorDevice struct {
	// TotalSectors is the number of sectors readable through this device. Zero
	// means the device is unbounded and reads stop wherever the stream ends.
	TotalSectors uint32
	// StartOffset is an offset from the beginning of the stream, in bytes, that
	// will be considered the beginning of sector 0 for the device. This is useful
	// for skipping over MBRs or other volumes stored on the same image.
	StartOffset int64
	stream      io.ReadSeeker
}

// NewSectorDevice creates a device covering `totalSectors` sectors of `stream`,
// starting `startOffset` bytes into it.
func NewSectorDevice(stream io.ReadSeeker, totalSectors uint32, startOffset int64) *SectorDevice {
	return &SectorDevice{
		TotalSectors: totalSectors,
		StartOffset:  startOffset,
		stream:       stream,
	}
}

// NewSectorDeviceFromStream creates a device covering everything in `stream`
// from `startOffset` to the end. A trailing partial sector is ignored.
func NewSectorDeviceFromStream(stream io.ReadSeeker, startOffset int64) (*SectorDevice, error) {
	end, err := stream.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, neoos.ErrDeviceRead.Wrap(err)
	}
	if end < startOffset {
		message := fmt.Sprintf(
			"start offset %d is past the end of the stream (%d B)", startOffset, end)
		return nil, neoos.ErrInvalidArgument.WithMessage(message)
	}
	return NewSectorDevice(stream, uint32((end-startOffset)/neoos.SectorSize), startOffset), nil
}

// SectorToStreamOffset returns the byte offset in the underlying stream where
// sector `lba` begins.
func (device *SectorDevice) SectorToStreamOffset(lba LBA) int64 {
	return device.StartOffset + int64(lba)*neoos.SectorSize
}

func (device *SectorDevice) checkIOBounds(lba uint32, count uint8, bufferSize int) error {
	if bufferSize < int(count)*neoos.SectorSize {
		message := fmt.Sprintf(
			"buffer of %d B can't hold %d sectors", bufferSize, count)
		return neoos.ErrInvalidArgument.WithMessage(message)
	}
	if device.TotalSectors != 0 && uint64(lba)+uint64(count) > uint64(device.TotalSectors) {
		message := fmt.Sprintf(
			"sectors [%d, %d) not in range [0, %d)",
			lba,
			uint64(lba)+uint64(count),
			device.TotalSectors)
		return neoos.ErrDeviceRead.WithMessage(message)
	}
	return nil
}

// ReadSectors implements [neoos.BlockSource].
func (device *SectorDevice) ReadSectors(lba uint32, count uint8, buffer []byte) error {
	err := device.checkIOBounds(lba, count, len(buffer))
	if err != nil {
		return err
	}

	_, err = device.stream.Seek(device.SectorToStreamOffset(LBA(lba)), io.SeekStart)
	if err != nil {
		return neoos.ErrDeviceRead.Wrap(err)
	}

	_, err = io.ReadFull(device.stream, buffer[:int(count)*neoos.SectorSize])
	if err != nil {
		return neoos.ErrDeviceRead.Wrap(err).WithMessage(
			fmt.Sprintf("reading %d sectors at LBA %d", count, lba))
	}
	return nil
}
