package common

import (
	"encoding/binary"
	"fmt"
	"math"

	neoos "github.com/dani2318/NeoOS"
)

const (
	partitionTableOffset = 0x1BE
	partitionEntrySize   = 16
	// MaxPartitions is the number of primary partition entries in an MBR.
	MaxPartitions = 4
)

// PartitionEntry is one decoded entry of a classic MBR partition table.
type PartitionEntry struct {
	Attributes   uint8
	Type         uint8
	StartLBA     uint32
	TotalSectors uint32
}

// IsBootable reports whether the entry carries the active flag.
func (e PartitionEntry) IsBootable() bool {
	return e.Attributes&0x80 != 0
}

// IsEmpty reports whether the slot is unused.
func (e PartitionEntry) IsEmpty() bool {
	return e.Type == 0 || e.TotalSectors == 0
}

// IsFAT reports whether the partition type byte is one of the FAT IDs.
func (e PartitionEntry) IsFAT() bool {
	switch e.Type {
	case 0x01, 0x04, 0x06, 0x0B, 0x0C, 0x0E:
		return true
	}
	return false
}

// ParsePartitionTable decodes the four primary entries of an MBR sector.
func ParsePartitionTable(sector []byte) ([MaxPartitions]PartitionEntry, error) {
	var entries [MaxPartitions]PartitionEntry

	if len(sector) < neoos.SectorSize {
		return entries, neoos.ErrInvalidArgument.WithMessage(
			fmt.Sprintf("MBR must be %d bytes, got %d", neoos.SectorSize, len(sector)))
	}
	if sector[510] != 0x55 || sector[511] != 0xAA {
		return entries, neoos.ErrIncompatible.WithMessage(
			fmt.Sprintf(
				"MBR signature is %02X %02X, expected 55 AA", sector[510], sector[511]))
	}

	for i := range entries {
		raw := sector[partitionTableOffset+i*partitionEntrySize:]
		entries[i] = PartitionEntry{
			Attributes:   raw[0],
			Type:         raw[4],
			StartLBA:     binary.LittleEndian.Uint32(raw[8:12]),
			TotalSectors: binary.LittleEndian.Uint32(raw[12:16]),
		}
	}
	return entries, nil
}

// ReadPartitionTable reads sector 0 of `source` and decodes its partition table.
func ReadPartitionTable(source neoos.BlockSource) ([MaxPartitions]PartitionEntry, error) {
	sector := make([]byte, neoos.SectorSize)
	err := source.ReadSectors(0, 1, sector)
	if err != nil {
		return [MaxPartitions]PartitionEntry{}, err
	}
	return ParsePartitionTable(sector)
}

// Partition is a [neoos.BlockSource] restricted to one range of sectors on a
// larger device. LBAs passed to ReadSectors are relative to the start of the
// partition.
type Partition struct {
	Offset uint32
	Size   uint32
	device neoos.BlockSource
}

// NewPartition creates a view of `size` sectors of `device` beginning at
// `offset`. A size of zero leaves the upper end unchecked.
func NewPartition(device neoos.BlockSource, offset, size uint32) *Partition {
	return &Partition{Offset: offset, Size: size, device: device}
}

// OpenPartition reads the MBR of `device` and returns a view of partition
// `index` (0-3).
func OpenPartition(device neoos.BlockSource, index int) (*Partition, PartitionEntry, error) {
	if index < 0 || index >= MaxPartitions {
		return nil, PartitionEntry{}, neoos.ErrInvalidArgument.WithMessage(
			fmt.Sprintf("partition index %d not in range [0, %d)", index, MaxPartitions))
	}

	entries, err := ReadPartitionTable(device)
	if err != nil {
		return nil, PartitionEntry{}, err
	}

	entry := entries[index]
	if entry.IsEmpty() {
		return nil, entry, neoos.ErrNotFound.WithMessage(
			fmt.Sprintf("partition %d is empty", index))
	}
	return NewPartition(device, entry.StartLBA, entry.TotalSectors), entry, nil
}

// ReadSectors implements [neoos.BlockSource].
func (p *Partition) ReadSectors(lba uint32, count uint8, buffer []byte) error {
	if p.Size != 0 && uint64(lba)+uint64(count) > uint64(p.Size) {
		return neoos.ErrDeviceRead.WithMessage(
			fmt.Sprintf(
				"sectors [%d, %d) extend past end of partition (%d sectors)",
				lba,
				uint64(lba)+uint64(count),
				p.Size))
	}
	absolute := uint64(lba) + uint64(p.Offset)
	if absolute+uint64(count) > math.MaxUint32+1 {
		return neoos.ErrDeviceRead.WithMessage(
			fmt.Sprintf(
				"sectors [%d, %d) of partition at LBA %d are past the 32-bit LBA limit",
				lba,
				uint64(lba)+uint64(count),
				p.Offset))
	}
	return p.device.ReadSectors(uint32(absolute), count, buffer)
}
