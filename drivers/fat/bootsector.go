// Package fat implements a read-only driver for FAT12, FAT16 and FAT32 volumes,
// sized for boot-time use: one sector buffer per open file, a bounded window
// over the allocation table and a fixed number of handles.
package fat

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strings"

	neoos "github.com/dani2318/NeoOS"
)

// Variant is the FAT version of a volume, named after its entry width in bits.
type Variant int

const (
	FAT12 Variant = 12
	FAT16 Variant = 16
	FAT32 Variant = 32
)

func (v Variant) String() string {
	switch v {
	case FAT12, FAT16, FAT32:
		return fmt.Sprintf("FAT%d", int(v))
	}
	return fmt.Sprintf("Variant(%d)", int(v))
}

// fat12ClusterLimit is the smallest data cluster count that isn't FAT12.
const fat12ClusterLimit = 0xFF5

// RawBootSector is the on-disk representation of the BIOS parameter block
// common to all FAT versions. It occupies bytes 0-35 of sector 0.
type RawBootSector struct {
	JmpBoot           [3]byte
	OEMName           [8]byte
	BytesPerSector    uint16
	SectorsPerCluster uint8
	ReservedSectors   uint16
	NumFATs           uint8
	RootEntryCount    uint16
	TotalSectors16    uint16
	Media             uint8
	SectorsPerFAT16   uint16
	SectorsPerTrack   uint16
	NumHeads          uint16
	HiddenSectors     uint32
	TotalSectors32    uint32
}

// RawExtendedBootRecord follows the BPB on FAT12 and FAT16 volumes.
type RawExtendedBootRecord struct {
	DriveNumber    uint8
	Reserved       uint8
	BootSignature  uint8
	VolumeID       uint32
	VolumeLabel    [11]byte
	FileSystemType [8]byte
}

// RawFAT32Extension follows the BPB on FAT32 volumes.
type RawFAT32Extension struct {
	SectorsPerFAT32  uint32
	ExtFlags         uint16
	FSVersion        uint16
	RootCluster      uint32
	FSInfoSector     uint16
	BackupBootSector uint16
	Reserved         [12]byte
	EBR              RawExtendedBootRecord
}

// BootSector is a decoded sector 0. Both interpretations of the bytes after
// the BPB are kept; which one applies depends on IsFAT32.
type BootSector struct {
	RawBootSector
	EBR   RawExtendedBootRecord
	FAT32 RawFAT32Extension
}

// DecodeBootSector decodes the fields of a boot sector from their fixed
// little-endian offsets. It doesn't validate anything.
func DecodeBootSector(sector []byte) (BootSector, error) {
	var bs BootSector

	if len(sector) < neoos.SectorSize {
		return bs, neoos.ErrInvalidArgument.WithMessage(
			fmt.Sprintf("boot sector must be %d bytes, got %d", neoos.SectorSize, len(sector)))
	}

	bpbSize := binary.Size(bs.RawBootSector)
	err := binary.Read(bytes.NewReader(sector), binary.LittleEndian, &bs.RawBootSector)
	if err != nil {
		return bs, neoos.ErrIncompatible.Wrap(err)
	}
	err = binary.Read(bytes.NewReader(sector[bpbSize:]), binary.LittleEndian, &bs.EBR)
	if err != nil {
		return bs, neoos.ErrIncompatible.Wrap(err)
	}
	err = binary.Read(bytes.NewReader(sector[bpbSize:]), binary.LittleEndian, &bs.FAT32)
	if err != nil {
		return bs, neoos.ErrIncompatible.Wrap(err)
	}
	return bs, nil
}

// TotalSectors returns the 16-bit total if it's set, the 32-bit one otherwise.
func (bs *BootSector) TotalSectors() uint32 {
	if bs.TotalSectors16 != 0 {
		return uint32(bs.TotalSectors16)
	}
	return bs.TotalSectors32
}

// IsFAT32 reports whether the volume uses the FAT32 layout, i.e. the 16-bit
// sectors-per-FAT field is zero and the root directory is a cluster chain.
func (bs *BootSector) IsFAT32() bool {
	return bs.SectorsPerFAT16 == 0
}

// SectorsPerFAT returns the size of one FAT copy, in sectors.
func (bs *BootSector) SectorsPerFAT() uint32 {
	if bs.IsFAT32() {
		return bs.FAT32.SectorsPerFAT32
	}
	return uint32(bs.SectorsPerFAT16)
}

// ExtendedBootRecord returns whichever EBR applies to this volume's layout.
func (bs *BootSector) ExtendedBootRecord() RawExtendedBootRecord {
	if bs.IsFAT32() {
		return bs.FAT32.EBR
	}
	return bs.EBR
}

// VolumeLabel returns the label stored in the extended boot record, without
// padding. Volumes whose EBR signature is missing have no label.
func (bs *BootSector) VolumeLabel() string {
	ebr := bs.ExtendedBootRecord()
	if ebr.BootSignature != 0x28 && ebr.BootSignature != 0x29 {
		return ""
	}
	return strings.TrimRight(string(ebr.VolumeLabel[:]), " \x00")
}

// Geometry is the layout of a volume, derived once at mount time.
type Geometry struct {
	Variant           Variant
	SectorsPerCluster uint32
	ReservedSectors   uint32
	FATCount          uint32
	SectorsPerFAT     uint32
	TotalSectors      uint32
	// FATRegionLBA is the first sector of the first FAT copy.
	FATRegionLBA uint32
	// RootDirLBA and RootDirByteSize locate the fixed root directory on FAT12
	// and FAT16. Both are zero on FAT32.
	RootDirLBA      uint32
	RootDirByteSize uint32
	// RootDirFirstCluster is the root directory's first cluster on FAT32, and
	// zero otherwise.
	RootDirFirstCluster uint32
	DataRegionStartLBA  uint32
	// TotalClusters is the number of clusters in the data region.
	TotalClusters uint32
}

// HasFixedRoot reports whether the root directory is a contiguous run of
// sectors outside the data region.
func (g Geometry) HasFixedRoot() bool {
	return g.RootDirFirstCluster == 0
}

// BytesPerCluster returns the size of one cluster, in bytes.
func (g Geometry) BytesPerCluster() uint32 {
	return g.SectorsPerCluster * neoos.SectorSize
}

// ClusterToLba returns the first sector of data cluster `cluster`. Cluster
// numbers start at 2.
func (g Geometry) ClusterToLba(cluster uint32) uint32 {
	return g.DataRegionStartLBA + (cluster-2)*g.SectorsPerCluster
}

// Detect determines the FAT version from the number of clusters in the data
// region. A 16-bit sectors-per-FAT field of zero only means FAT32 once the
// cluster count rules out FAT12. A layout with no data clusters, or with zero
// sectors per cluster, is FAT12.
func Detect(totalSectors, dataRegionStart, sectorsPerCluster, sectorsPerFAT16 uint32) Variant {
	if sectorsPerCluster == 0 || totalSectors <= dataRegionStart {
		return FAT12
	}
	dataClusters := (totalSectors - dataRegionStart) / sectorsPerCluster
	if dataClusters < fat12ClusterLimit {
		return FAT12
	}
	if sectorsPerFAT16 != 0 {
		return FAT16
	}
	return FAT32
}

// ResolveGeometry validates a boot sector and computes the volume layout.
func ResolveGeometry(bs BootSector) (Geometry, error) {
	if bs.BytesPerSector != neoos.SectorSize {
		return Geometry{}, neoos.ErrIncompatible.WithMessage(
			fmt.Sprintf(
				"bytes per sector must be %d, got %d", neoos.SectorSize, bs.BytesPerSector))
	}
	if bs.SectorsPerCluster == 0 {
		return Geometry{}, neoos.ErrIncompatible.WithMessage("sectors per cluster is 0")
	}
	if bs.NumFATs == 0 {
		return Geometry{}, neoos.ErrIncompatible.WithMessage("volume has no FAT copies")
	}

	geometry := Geometry{
		SectorsPerCluster: uint32(bs.SectorsPerCluster),
		ReservedSectors:   uint32(bs.ReservedSectors),
		FATCount:          uint32(bs.NumFATs),
		SectorsPerFAT:     bs.SectorsPerFAT(),
		TotalSectors:      bs.TotalSectors(),
		FATRegionLBA:      uint32(bs.ReservedSectors),
	}
	if geometry.SectorsPerFAT == 0 {
		return Geometry{}, neoos.ErrIncompatible.WithMessage("sectors per FAT is 0")
	}

	fatRegionEnd := uint64(geometry.ReservedSectors) +
		uint64(geometry.SectorsPerFAT)*uint64(geometry.FATCount)

	if bs.IsFAT32() {
		if bs.FAT32.RootCluster < 2 {
			return Geometry{}, neoos.ErrIncompatible.WithMessage(
				fmt.Sprintf("root directory cluster %d is reserved", bs.FAT32.RootCluster))
		}
		geometry.RootDirFirstCluster = bs.FAT32.RootCluster
		geometry.DataRegionStartLBA = uint32(fatRegionEnd)
	} else {
		if bs.RootEntryCount == 0 {
			return Geometry{}, neoos.ErrIncompatible.WithMessage(
				"fixed root directory has no entries")
		}
		geometry.RootDirLBA = uint32(fatRegionEnd)
		geometry.RootDirByteSize = DirentSize * uint32(bs.RootEntryCount)
		rootDirSectors := (geometry.RootDirByteSize + neoos.SectorSize - 1) / neoos.SectorSize
		geometry.DataRegionStartLBA = geometry.RootDirLBA + rootDirSectors
	}

	if fatRegionEnd > uint64(geometry.TotalSectors) ||
		geometry.DataRegionStartLBA >= geometry.TotalSectors {
		return Geometry{}, neoos.ErrIncompatible.WithMessage(
			fmt.Sprintf(
				"data region starts at sector %d but the volume has only %d sectors",
				geometry.DataRegionStartLBA,
				geometry.TotalSectors))
	}

	geometry.TotalClusters =
		(geometry.TotalSectors - geometry.DataRegionStartLBA) / geometry.SectorsPerCluster
	geometry.Variant = Detect(
		geometry.TotalSectors,
		geometry.DataRegionStartLBA,
		geometry.SectorsPerCluster,
		uint32(bs.SectorsPerFAT16))

	if geometry.Variant != FAT32 && bs.IsFAT32() {
		return Geometry{}, neoos.ErrIncompatible.WithMessage(
			fmt.Sprintf(
				"FAT32 layout with only %d clusters", geometry.TotalClusters))
	}
	return geometry, nil
}
