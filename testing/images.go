package testing

import (
	_ "embed"
	"encoding/binary"
	"fmt"
	"strings"
	"testing"

	"github.com/boljen/go-bitmap"
	"github.com/dani2318/NeoOS/disks"
	"github.com/dani2318/NeoOS/drivers/common"
	"github.com/gocarina/gocsv"
	"github.com/noxer/bytewriter"
	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/bytesextra"
)

const sectorSize = 512

// Layout is the shape of a synthetic FAT volume. A SectorsPerFAT of 0 is
// replaced by the smallest size that covers every cluster.
type Layout struct {
	Name              string `csv:"name"`
	FATBits           int    `csv:"fat_bits"`
	TotalSectors      uint32 `csv:"total_sectors"`
	SectorsPerCluster uint8  `csv:"sectors_per_cluster"`
	ReservedSectors   uint16 `csv:"reserved_sectors"`
	FATCount          uint8  `csv:"fat_count"`
	RootEntries       uint16 `csv:"root_entries"`
	SectorsPerFAT     uint32 `csv:"sectors_per_fat"`
	Media             uint8  `csv:"media"`
	Label             string `csv:"label"`
}

//go:embed layouts.csv
var layoutsRawCSV string

// GetLayout returns one of the layouts in layouts.csv, failing the test if it
// doesn't exist.
func GetLayout(t *testing.T, name string) Layout {
	var layouts []Layout
	err := gocsv.UnmarshalString(layoutsRawCSV, &layouts)
	require.NoError(t, err, "layouts.csv is malformed")

	for _, layout := range layouts {
		if layout.Name == name {
			return layout
		}
	}
	require.FailNowf(t, "unknown layout", "no layout named %q", name)
	return Layout{}
}

// LayoutFromFormat converts a standard floppy format into a Layout.
func LayoutFromFormat(format disks.FATFormat) Layout {
	return Layout{
		Name:              format.Slug,
		FATBits:           12,
		TotalSectors:      format.TotalSectors,
		SectorsPerCluster: format.SectorsPerCluster,
		ReservedSectors:   format.ReservedSectors,
		FATCount:          format.FATCount,
		RootEntries:       format.RootEntries,
		SectorsPerFAT:     uint32(format.SectorsPerFAT),
		Media:             format.Media,
	}
}

// Entry is a directory entry to add to an image.
type Entry struct {
	// Name is converted to an upper-case 8.3 name unless RawName is set.
	Name         string
	RawName      []byte
	Attributes   uint8
	FirstCluster uint32
	Size         uint32
	Date         uint16
	Time         uint16
}

type rawDirent struct {
	Name             [11]byte
	Attributes       uint8
	NTReserved       uint8
	CreatedTenths    uint8
	CreatedTime      uint16
	CreatedDate      uint16
	LastAccessedDate uint16
	FirstClusterHigh uint16
	ModifiedTime     uint16
	ModifiedDate     uint16
	FirstClusterLow  uint16
	Size             uint32
}

type directory struct {
	clusters []uint32
	entries  []Entry
	isRoot   bool
}

// ImageBuilder assembles a FAT volume in memory.
type ImageBuilder struct {
	t           *testing.T
	Layout      Layout
	rootSectors uint32
	dataStart   uint32
	clusters    uint32
	image       []byte
	fat         []uint32
	used        bitmap.Bitmap
	directories map[string]*directory
}

func shortName(name string) [11]byte {
	var result [11]byte
	copy(result[:], "           ")
	switch name {
	case ".", "..":
		copy(result[:], name)
		return result
	}

	base, extension := name, ""
	if dot := strings.IndexByte(name, '.'); dot >= 0 {
		base, extension = name[:dot], name[dot+1:]
	}
	if len(base) > 8 {
		base = base[:8]
	}
	if len(extension) > 3 {
		extension = extension[:3]
	}
	copy(result[:8], strings.ToUpper(base))
	copy(result[8:], strings.ToUpper(extension))
	return result
}

func normalizePath(path string) string {
	return strings.ToUpper(strings.Trim(path, "/"))
}

func splitParent(path string) (string, string) {
	path = strings.Trim(path, "/")
	slash := strings.LastIndexByte(path, '/')
	if slash < 0 {
		return "", path
	}
	return path[:slash], path[slash+1:]
}

func (b *ImageBuilder) rootDirSectors() uint32 {
	return (uint32(b.Layout.RootEntries)*32 + sectorSize - 1) / sectorSize
}

func (b *ImageBuilder) fatBytesNeeded(clusters uint32) uint32 {
	return ((clusters+2)*uint32(b.Layout.FATBits) + 7) / 8
}

// NewImageBuilder lays out an empty volume. A volume label entry is added to
// the root directory if the layout has a label.
func NewImageBuilder(t *testing.T, layout Layout) *ImageBuilder {
	require.Contains(t, []int{12, 16, 32}, layout.FATBits, "bad FAT width")
	require.NotZero(t, layout.SectorsPerCluster)
	require.NotZero(t, layout.FATCount)

	b := &ImageBuilder{
		t:           t,
		Layout:      layout,
		directories: make(map[string]*directory),
	}
	b.rootSectors = b.rootDirSectors()

	fixed := uint32(layout.ReservedSectors) + b.rootSectors
	if layout.SectorsPerFAT == 0 {
		for spf := uint32(1); ; spf++ {
			require.Less(t, fixed+uint32(layout.FATCount)*spf, layout.TotalSectors, "volume too small")
			clusters := (layout.TotalSectors - fixed - uint32(layout.FATCount)*spf) /
				uint32(layout.SectorsPerCluster)
			if b.fatBytesNeeded(clusters) <= spf*sectorSize {
				b.Layout.SectorsPerFAT = spf
				break
			}
		}
	}

	b.dataStart = fixed + uint32(layout.FATCount)*b.Layout.SectorsPerFAT
	require.Less(t, b.dataStart, layout.TotalSectors, "volume too small")
	b.clusters = (layout.TotalSectors - b.dataStart) / uint32(layout.SectorsPerCluster)
	require.LessOrEqual(
		t,
		b.fatBytesNeeded(b.clusters),
		b.Layout.SectorsPerFAT*sectorSize,
		"FAT too small for %d clusters",
		b.clusters)

	b.image = make([]byte, int(layout.TotalSectors)*sectorSize)
	b.fat = make([]uint32, b.clusters+2)
	b.used = bitmap.New(int(b.clusters + 2))
	b.used.Set(0, true)
	b.used.Set(1, true)
	b.fat[0] = b.EndOfChain()&^0xFF | uint32(layout.Media)
	b.fat[1] = b.EndOfChain()

	root := &directory{isRoot: true}
	if layout.FATBits == 32 {
		root.clusters = b.Allocate(1)
	}
	b.directories[""] = root

	if layout.Label != "" {
		label := []byte(fmt.Sprintf("%-11s", strings.ToUpper(layout.Label)))
		b.AddEntry("/", Entry{RawName: label[:11], Attributes: 0x08})
	}
	return b
}

// EndOfChain returns the end-of-chain value this volume writes.
func (b *ImageBuilder) EndOfChain() uint32 {
	switch b.Layout.FATBits {
	case 12:
		return 0xFFF
	case 16:
		return 0xFFFF
	}
	return 0x0FFFFFFF
}

// DataStart returns the first sector of the data region.
func (b *ImageBuilder) DataStart() uint32 {
	return b.dataStart
}

// TotalClusters returns the number of clusters in the data region.
func (b *ImageBuilder) TotalClusters() uint32 {
	return b.clusters
}

// BytesPerCluster returns the size of one cluster, in bytes.
func (b *ImageBuilder) BytesPerCluster() int {
	return int(b.Layout.SectorsPerCluster) * sectorSize
}

// ClusterOffset returns the byte offset of `cluster` in the image.
func (b *ImageBuilder) ClusterOffset(cluster uint32) int {
	lba := b.dataStart + (cluster-2)*uint32(b.Layout.SectorsPerCluster)
	return int(lba) * sectorSize
}

// Allocate marks `count` free clusters as used, preferring a contiguous run,
// and chains them together.
func (b *ImageBuilder) Allocate(count int) []uint32 {
	run := 0
	for c := uint32(2); c < b.clusters+2; c++ {
		if b.used.Get(int(c)) {
			run = 0
			continue
		}
		run++
		if run == count {
			chain := make([]uint32, count)
			for i := range chain {
				chain[i] = c - uint32(count) + 1 + uint32(i)
			}
			b.claim(chain)
			return chain
		}
	}
	require.FailNowf(b.t, "image full", "no run of %d free clusters", count)
	return nil
}

// claim marks the clusters as used and links them in order.
func (b *ImageBuilder) claim(chain []uint32) {
	for i, c := range chain {
		require.Less(b.t, c, b.clusters+2, "cluster %d out of range", c)
		require.GreaterOrEqual(b.t, c, uint32(2), "cluster %d is reserved", c)
		require.False(b.t, b.used.Get(int(c)), "cluster %d is already in use", c)
		b.used.Set(int(c), true)
		if i+1 < len(chain) {
			b.fat[c] = chain[i+1]
		} else {
			b.fat[c] = b.EndOfChain()
		}
	}
}

// SetFATEntry overwrites one FAT entry, e.g. to cut a chain short.
func (b *ImageBuilder) SetFATEntry(cluster, value uint32) {
	b.fat[cluster] = value
}

func (b *ImageBuilder) clusterCount(size int) int {
	return (size + b.BytesPerCluster() - 1) / b.BytesPerCluster()
}

func (b *ImageBuilder) writeData(chain []uint32, data []byte) {
	perCluster := b.BytesPerCluster()
	for i, c := range chain {
		start := i * perCluster
		if start >= len(data) {
			break
		}
		end := start + perCluster
		if end > len(data) {
			end = len(data)
		}
		copy(b.image[b.ClusterOffset(c):], data[start:end])
	}
}

// AddFile stores `data` in the first free run of clusters and adds an entry
// for it. It returns the file's first cluster, or 0 for an empty file.
func (b *ImageBuilder) AddFile(path string, data []byte) uint32 {
	var chain []uint32
	if len(data) > 0 {
		chain = b.Allocate(b.clusterCount(len(data)))
	}
	return b.AddFileChain(path, data, chain)
}

// AddFileAt stores `data` in consecutive clusters beginning at `firstCluster`.
func (b *ImageBuilder) AddFileAt(path string, data []byte, firstCluster uint32) uint32 {
	chain := make([]uint32, b.clusterCount(len(data)))
	for i := range chain {
		chain[i] = firstCluster + uint32(i)
	}
	b.claim(chain)
	return b.AddFileChain(path, data, chain)
}

// AddFileChain stores `data` in exactly the clusters given, which may be
// fragmented. Clusters not yet claimed are claimed and linked in order.
func (b *ImageBuilder) AddFileChain(path string, data []byte, chain []uint32) uint32 {
	require.GreaterOrEqual(
		b.t, len(chain)*b.BytesPerCluster(), len(data), "chain too short for data")

	if len(chain) > 0 && !b.used.Get(int(chain[0])) {
		b.claim(chain)
	}
	b.writeData(chain, data)

	var first uint32
	if len(chain) > 0 {
		first = chain[0]
	}
	parent, name := splitParent(path)
	b.AddEntry(parent, Entry{
		Name:         name,
		Attributes:   0x20,
		FirstCluster: first,
		Size:         uint32(len(data)),
		Date:         0x5A8F, // 2025-04-15
		Time:         0x6000, // 12:00:00
	})
	return first
}

// AddDirectory creates an empty directory with `.` and `..` entries and returns
// its first cluster.
func (b *ImageBuilder) AddDirectory(path string) uint32 {
	parent, name := splitParent(path)
	parentDir, ok := b.directories[normalizePath(parent)]
	require.True(b.t, ok, "parent directory %q doesn't exist", parent)

	chain := b.Allocate(1)
	var parentCluster uint32
	if !parentDir.isRoot {
		parentCluster = parentDir.clusters[0]
	}

	b.directories[normalizePath(path)] = &directory{
		clusters: chain,
		entries: []Entry{
			{Name: ".", Attributes: 0x10, FirstCluster: chain[0]},
			{Name: "..", Attributes: 0x10, FirstCluster: parentCluster},
		},
	}
	b.AddEntry(parent, Entry{Name: name, Attributes: 0x10, FirstCluster: chain[0]})
	return chain[0]
}

// AddEntry appends a raw entry to the directory at `dirPath`, growing the
// directory's cluster chain if it's full.
func (b *ImageBuilder) AddEntry(dirPath string, entry Entry) {
	dir, ok := b.directories[normalizePath(dirPath)]
	require.True(b.t, ok, "directory %q doesn't exist", dirPath)

	if dir.isRoot && b.Layout.FATBits != 32 {
		require.Less(
			b.t, len(dir.entries), int(b.Layout.RootEntries), "root directory is full")
	} else {
		perCluster := b.BytesPerCluster() / 32
		if len(dir.entries) == len(dir.clusters)*perCluster {
			next := b.Allocate(1)
			b.fat[dir.clusters[len(dir.clusters)-1]] = next[0]
			dir.clusters = append(dir.clusters, next[0])
		}
	}
	dir.entries = append(dir.entries, entry)
}

// DirectoryClusters returns the cluster chain of a directory. It's empty for
// a FAT12/16 root directory.
func (b *ImageBuilder) DirectoryClusters(path string) []uint32 {
	dir, ok := b.directories[normalizePath(path)]
	require.True(b.t, ok, "directory %q doesn't exist", path)
	return append([]uint32(nil), dir.clusters...)
}

func (b *ImageBuilder) entryOffset(dir *directory, index int) int {
	if dir.isRoot && b.Layout.FATBits != 32 {
		rootLBA := uint32(b.Layout.ReservedSectors) + uint32(b.Layout.FATCount)*b.Layout.SectorsPerFAT
		return int(rootLBA)*sectorSize + index*32
	}
	perCluster := b.BytesPerCluster() / 32
	return b.ClusterOffset(dir.clusters[index/perCluster]) + (index%perCluster)*32
}

func (b *ImageBuilder) writeStruct(offset int, size int, value any) {
	writer := bytewriter.New(b.image[offset : offset+size])
	err := binary.Write(writer, binary.LittleEndian, value)
	require.NoError(b.t, err)
}

func (b *ImageBuilder) writeDirectories() {
	for _, dir := range b.directories {
		for i, entry := range dir.entries {
			raw := rawDirent{
				Attributes:       entry.Attributes,
				FirstClusterHigh: uint16(entry.FirstCluster >> 16),
				FirstClusterLow:  uint16(entry.FirstCluster),
				Size:             entry.Size,
				ModifiedDate:     entry.Date,
				ModifiedTime:     entry.Time,
				CreatedDate:      entry.Date,
				CreatedTime:      entry.Time,
				LastAccessedDate: entry.Date,
			}
			if entry.RawName != nil {
				copy(raw.Name[:], entry.RawName)
			} else {
				raw.Name = shortName(entry.Name)
			}
			b.writeStruct(b.entryOffset(dir, i), 32, &raw)
		}
	}
}

func (b *ImageBuilder) encodeFAT() []byte {
	table := make([]byte, int(b.Layout.SectorsPerFAT)*sectorSize)
	for c, value := range b.fat {
		switch b.Layout.FATBits {
		case 12:
			PutFAT12Entry(table, uint32(c), value)
		case 16:
			binary.LittleEndian.PutUint16(table[c*2:], uint16(value))
		case 32:
			binary.LittleEndian.PutUint32(table[c*4:], value)
		}
	}
	return table
}

// PutFAT12Entry packs a 12-bit value into a FAT12 table.
func PutFAT12Entry(table []byte, cluster uint32, value uint32) {
	offset := cluster * 3 / 2
	word := uint32(binary.LittleEndian.Uint16(table[offset:]))
	if cluster%2 == 0 {
		word = word&0xF000 | value&0x0FFF
	} else {
		word = word&0x000F | (value&0x0FFF)<<4
	}
	binary.LittleEndian.PutUint16(table[offset:], uint16(word))
}

type rawBootSector struct {
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

type rawExtendedBootRecord struct {
	DriveNumber    uint8
	Reserved       uint8
	BootSignature  uint8
	VolumeID       uint32
	VolumeLabel    [11]byte
	FileSystemType [8]byte
}

type rawFAT32Extension struct {
	SectorsPerFAT32  uint32
	ExtFlags         uint16
	FSVersion        uint16
	RootCluster      uint32
	FSInfoSector     uint16
	BackupBootSector uint16
	Reserved         [12]byte
	EBR              rawExtendedBootRecord
}

func (b *ImageBuilder) writeBootSector() {
	layout := b.Layout
	bpb := rawBootSector{
		JmpBoot:           [3]byte{0xEB, 0x3C, 0x90},
		BytesPerSector:    sectorSize,
		SectorsPerCluster: layout.SectorsPerCluster,
		ReservedSectors:   layout.ReservedSectors,
		NumFATs:           layout.FATCount,
		RootEntryCount:    layout.RootEntries,
		Media:             layout.Media,
		SectorsPerTrack:   63,
		NumHeads:          255,
	}
	copy(bpb.OEMName[:], "NEOOS   ")
	if layout.TotalSectors < 0x10000 && layout.FATBits != 32 {
		bpb.TotalSectors16 = uint16(layout.TotalSectors)
	} else {
		bpb.TotalSectors32 = layout.TotalSectors
	}

	ebr := rawExtendedBootRecord{
		DriveNumber:   0x80,
		BootSignature: 0x29,
		VolumeID:      0x1234ABCD,
	}
	copy(ebr.VolumeLabel[:], fmt.Sprintf("%-11s", strings.ToUpper(layout.Label)))
	copy(ebr.FileSystemType[:], fmt.Sprintf("FAT%-5d", layout.FATBits))

	bpbSize := binary.Size(bpb)
	if layout.FATBits == 32 {
		bpb.JmpBoot[1] = 0x58
		ext := rawFAT32Extension{
			SectorsPerFAT32:  layout.SectorsPerFAT,
			RootCluster:      b.directories[""].clusters[0],
			FSInfoSector:     1,
			BackupBootSector: 6,
			EBR:              ebr,
		}
		b.writeStruct(bpbSize, binary.Size(ext), &ext)
	} else {
		bpb.SectorsPerFAT16 = uint16(layout.SectorsPerFAT)
		b.writeStruct(bpbSize, binary.Size(ebr), &ebr)
	}
	b.writeStruct(0, bpbSize, &bpb)
	b.image[510] = 0x55
	b.image[511] = 0xAA
}

// Bytes writes the boot sector, every FAT copy and every directory, and
// returns a copy of the finished image.
func (b *ImageBuilder) Bytes() []byte {
	b.writeBootSector()

	table := b.encodeFAT()
	for i := 0; i < int(b.Layout.FATCount); i++ {
		lba := int(b.Layout.ReservedSectors) + i*int(b.Layout.SectorsPerFAT)
		copy(b.image[lba*sectorSize:], table)
	}
	b.writeDirectories()

	return append([]byte(nil), b.image...)
}

// Device returns a block source over a snapshot of the image.
func (b *ImageBuilder) Device() *common.SectorDevice {
	return NewImageDevice(b.Bytes())
}

// NewImageDevice serves `image` as a block source.
func NewImageDevice(image []byte) *common.SectorDevice {
	stream := bytesextra.NewReadWriteSeeker(image)
	return common.NewSectorDevice(stream, uint32(len(image)/sectorSize), 0)
}

// PartitionedImage places `volume` in the first slot of a fresh MBR, starting
// at `startLBA`.
func PartitionedImage(volume []byte, startLBA uint32, partitionType uint8) []byte {
	image := make([]byte, int(startLBA)*sectorSize+len(volume))
	entry := image[0x1BE:]
	entry[0] = 0x80
	entry[4] = partitionType
	binary.LittleEndian.PutUint32(entry[8:], startLBA)
	binary.LittleEndian.PutUint32(entry[12:], uint32(len(volume)/sectorSize))
	image[510] = 0x55
	image[511] = 0xAA
	copy(image[int(startLBA)*sectorSize:], volume)
	return image
}

// PatternData returns `size` bytes where every byte depends on its offset,
// so misplaced sectors show up in comparisons.
func PatternData(size int, seed byte) []byte {
	data := make([]byte, size)
	for i := range data {
		data[i] = byte(i/sectorSize)*31 + byte(i) + seed
	}
	return data
}
