package fat

import (
	"encoding/binary"
	"fmt"
	"log/slog"

	neoos "github.com/dani2318/NeoOS"
	"github.com/dani2318/NeoOS/drivers/common/blockcache"
)

// EndOfChain is the smallest value NextCluster returns for the last cluster of
// a chain, whatever the variant.
const EndOfChain uint32 = 0xFFFFFFF8

const (
	fat12EndOfChain = 0xFF8
	fat16EndOfChain = 0xFFF8
	fat32EndOfChain = 0x0FFFFFF8
	fat32EntryMask  = 0x0FFFFFFF
)

// IsEndOfChain reports whether a value returned by NextCluster terminates the
// chain.
func IsEndOfChain(cluster uint32) bool {
	return cluster >= EndOfChain
}

// Table walks cluster chains through a bounded window over the first copy of
// the file allocation table.
type Table struct {
	variant       Variant
	totalClusters uint32
	window        *blockcache.Window
	logger        *slog.Logger
}

// NewTable creates a walker reading the FAT described by `geometry` from
// `source`, caching `windowSectors` sectors of it at a time.
func NewTable(
	source neoos.BlockSource,
	geometry Geometry,
	windowSectors uint,
	logger *slog.Logger,
) (*Table, error) {
	if windowSectors < 2 || windowSectors > 255 {
		return nil, neoos.ErrInvalidArgument.WithMessage(
			fmt.Sprintf("FAT window must be 2-255 sectors, got %d", windowSectors))
	}

	fetch := func(start, count uint, buffer []byte) error {
		lba := geometry.FATRegionLBA + uint32(start)
		err := source.ReadSectors(lba, uint8(count), buffer)
		if err != nil {
			return neoos.ErrDeviceRead.Wrap(err).WithMessage(
				fmt.Sprintf("loading %d FAT sectors at LBA %d", count, lba))
		}
		return nil
	}

	window, err := blockcache.New(
		neoos.SectorSize, windowSectors, uint(geometry.SectorsPerFAT), fetch)
	if err != nil {
		return nil, err
	}

	return &Table{
		variant:       geometry.Variant,
		totalClusters: geometry.TotalClusters,
		window:        window,
		logger:        logger,
	}, nil
}

// Variant returns the entry format the table decodes.
func (t *Table) Variant() Variant {
	return t.variant
}

// Window exposes the FAT cache, mostly for inspection in tests and tools.
func (t *Table) Window() *blockcache.Window {
	return t.window
}

// IsValidCluster reports whether `cluster` addresses a cluster in the data
// region.
func (t *Table) IsValidCluster(cluster uint32) bool {
	return cluster >= 2 && cluster < t.totalClusters+2
}

func (t *Table) entry(offset uint, width uint) ([]byte, error) {
	reloadsBefore := t.window.Reloads()
	data, err := t.window.Slice(offset, width)
	if err != nil {
		return nil, err
	}
	if t.window.Reloads() != reloadsBefore {
		debug(
			t.logger,
			"FAT window reloaded",
			slog.Uint64("start_sector", uint64(t.window.Start())),
			slog.Uint64("sectors", uint64(t.window.LoadedBlocks())))
	}
	return data, nil
}

// NextCluster returns the FAT entry for `current`. Values at or above the
// variant's end-of-chain threshold are widened so that IsEndOfChain can test
// them; everything else is returned as stored.
func (t *Table) NextCluster(current uint32) (uint32, error) {
	if !t.IsValidCluster(current) {
		return 0, neoos.ErrCorruptChain.WithMessage(
			fmt.Sprintf(
				"cluster %d not in range [2, %d)", current, uint64(t.totalClusters)+2))
	}

	switch t.variant {
	case FAT12:
		data, err := t.entry(uint(current)*3/2, 2)
		if err != nil {
			return 0, err
		}
		word := uint32(binary.LittleEndian.Uint16(data))
		var value uint32
		if current%2 == 0 {
			value = word & 0x0FFF
		} else {
			value = word >> 4
		}
		if value >= fat12EndOfChain {
			return 0xFFFFF000 | value, nil
		}
		return value, nil

	case FAT16:
		data, err := t.entry(uint(current)*2, 2)
		if err != nil {
			return 0, err
		}
		value := uint32(binary.LittleEndian.Uint16(data))
		if value >= fat16EndOfChain {
			return 0xFFFF0000 | value, nil
		}
		return value, nil

	case FAT32:
		data, err := t.entry(uint(current)*4, 4)
		if err != nil {
			return 0, err
		}
		value := binary.LittleEndian.Uint32(data) & fat32EntryMask
		if value >= fat32EndOfChain {
			return 0xF0000000 | value, nil
		}
		return value, nil
	}

	return 0, neoos.ErrIncompatible.WithMessage(
		fmt.Sprintf("unsupported FAT variant %s", t.variant))
}
