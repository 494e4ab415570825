// Package neoos holds the interfaces shared by the read-only FAT boot driver
// and the block sources it reads from.
package neoos

import (
	"io"
	"os"
)

// SectorSize is the only sector size the driver supports, in bytes.
const SectorSize = 512

//go:generate mockgen -destination=testing/mock_blocksource.go -package=testing github.com/dani2318/NeoOS BlockSource

// BlockSource is the device the driver reads from. LBAs are relative to the
// start of the volume; any partition offset is applied by the implementation.
type BlockSource interface {
	// ReadSectors copies `count` consecutive 512-byte sectors starting at `lba`
	// into `buffer`, which is at least count*SectorSize bytes long. Any error
	// is reported to the caller as a device read failure.
	ReadSectors(lba uint32, count uint8, buffer []byte) error
}

// HandleID identifies an open file within one mounted volume. Non-negative IDs
// are slots in the handle table.
type HandleID int

// RootHandle is the reserved ID of the root directory. It is never allocated
// from the handle table and stays valid for as long as the volume is mounted.
const RootHandle HandleID = -1

// FileHandle is an open file or directory on a mounted volume.
type FileHandle interface {
	io.Reader
	io.Seeker
	io.Closer

	ID() HandleID
	IsDir() bool
	// Size is the file size in bytes. Directories other than a FAT12/16 root
	// report 0, meaning "until the end of the cluster chain".
	Size() int64
	// Position is the offset of the next byte Read will return.
	Position() int64
	Stat() (os.FileInfo, error)
}
