package fat

import (
	"encoding/binary"
	"fmt"
	"os"
	"time"
)

const (
	// AttrReadOnly is an attribute flag marking a directory entry as read-only.
	AttrReadOnly = 1

	// AttrHidden is an attribute flag marking a directory entry as "hidden", meaning it
	// wouldn't show up in normal directory listings.
	AttrHidden = 2

	// AttrSystem is an attribute flag marking a directory entry as essential to the
	// operating system.
	AttrSystem = 4

	// AttrVolumeLabel is an attribute flag that marks an entry in the root directory as
	// holding the volume label in its name field.
	AttrVolumeLabel = 8

	// AttrDirectory is an attribute flag marking a directory entry as being a directory.
	AttrDirectory = 16

	// AttrArchived is an attribute flag set whenever the directory entry is created or
	// modified.
	AttrArchived = 32

	// AttrDevice is an attribute flag marking a directory entry as abstracting a device.
	// This is typically only found on in-memory file systems.
	AttrDevice = 64

	// AttrLongName is the combination of flags marking a long file name record. These
	// precede the short-name entry they belong to and never match a path component.
	AttrLongName = AttrReadOnly | AttrHidden | AttrSystem | AttrVolumeLabel
)

// DirentSize is the size of a single raw directory entry, in bytes.
const DirentSize = 32

const (
	direntEndMarker = 0x00
	direntDeleted   = 0xE5
	// A first name byte of 0x05 stands for a real 0xE5 (a KANJI lead byte).
	direntKanjiE5 = 0x05
)

// RawDirent is the on-disk representation of a directory entry, broken down into its
// constituent fields.
type RawDirent struct {
	Name              [8]byte
	Extension         [3]byte
	AttributeFlags    uint8
	NTReserved        uint8
	CreatedTimeTenths uint8
	CreatedTime       uint16
	CreatedDate       uint16
	LastAccessedDate  uint16
	FirstClusterHigh  uint16
	LastModifiedTime  uint16
	LastModifiedDate  uint16
	FirstClusterLow   uint16
	FileSize          uint32
}

// NewRawDirentFromBytes decodes a 32-byte directory record.
func NewRawDirentFromBytes(data []byte) (RawDirent, error) {
	if len(data) < DirentSize {
		return RawDirent{}, fmt.Errorf(
			"directory entry must be %d bytes, got %d", DirentSize, len(data))
	}

	dirent := RawDirent{
		AttributeFlags:    data[11],
		NTReserved:        data[12],
		CreatedTimeTenths: data[13],
		CreatedTime:       binary.LittleEndian.Uint16(data[14:16]),
		CreatedDate:       binary.LittleEndian.Uint16(data[16:18]),
		LastAccessedDate:  binary.LittleEndian.Uint16(data[18:20]),
		FirstClusterHigh:  binary.LittleEndian.Uint16(data[20:22]),
		LastModifiedTime:  binary.LittleEndian.Uint16(data[22:24]),
		LastModifiedDate:  binary.LittleEndian.Uint16(data[24:26]),
		FirstClusterLow:   binary.LittleEndian.Uint16(data[26:28]),
		FileSize:          binary.LittleEndian.Uint32(data[28:32]),
	}

	copy(dirent.Name[:], data[:8])
	copy(dirent.Extension[:], data[8:11])
	return dirent, nil
}

// ShortName returns the raw 11-byte name of the entry.
func (d *RawDirent) ShortName() ShortName {
	var name ShortName
	copy(name[:8], d.Name[:])
	copy(name[8:], d.Extension[:])
	if name[0] == direntKanjiE5 {
		name[0] = direntDeleted
	}
	return name
}

// FirstCluster combines the high and low halves of the first cluster number.
func (d *RawDirent) FirstCluster() uint32 {
	return uint32(d.FirstClusterHigh)<<16 | uint32(d.FirstClusterLow)
}

// IsEndMarker reports whether this entry and every one after it are unused.
func (d *RawDirent) IsEndMarker() bool {
	return d.Name[0] == direntEndMarker
}

func (d *RawDirent) IsDeleted() bool {
	return d.Name[0] == direntDeleted
}

func (d *RawDirent) IsLongNameRecord() bool {
	return d.AttributeFlags&AttrLongName == AttrLongName
}

func (d *RawDirent) IsVolumeLabel() bool {
	return !d.IsLongNameRecord() && d.AttributeFlags&AttrVolumeLabel != 0
}

func (d *RawDirent) IsDir() bool {
	return !d.IsLongNameRecord() && d.AttributeFlags&AttrDirectory != 0
}

// IsVisible reports whether the entry names a file or directory that path lookup
// and listings should see.
func (d *RawDirent) IsVisible() bool {
	return !d.IsEndMarker() && !d.IsDeleted() && !d.IsLongNameRecord() && !d.IsVolumeLabel()
}

// Dirent is a representation of a FAT directory entry's data in a user-friendly format.
// It implements os.FileInfo.
type Dirent struct {
	RawDirent
	name string
}

// NewDirent wraps a decoded record.
func NewDirent(raw RawDirent) *Dirent {
	name := raw.ShortName()
	return &Dirent{RawDirent: raw, name: name.String()}
}

func newRootDirent(size uint32) *Dirent {
	return &Dirent{
		RawDirent: RawDirent{AttributeFlags: AttrDirectory, FileSize: size},
		name:      "/",
	}
}

// Name returns the 8.3 name of the entry as NAME.EXT, without padding.
func (d *Dirent) Name() string {
	return d.name
}

// Size returns the size of a file in bytes. Directories report 0 except the
// fixed FAT12/16 root directory.
func (d *Dirent) Size() int64 {
	return int64(d.FileSize)
}

func (d *Dirent) Mode() os.FileMode {
	return AttrFlagsToFileMode(d.AttributeFlags)
}

func (d *Dirent) ModTime() time.Time {
	return TimestampFromParts(d.LastModifiedDate, d.LastModifiedTime, 0)
}

func (d *Dirent) IsDir() bool {
	return d.RawDirent.IsDir()
}

// Sys returns the underlying RawDirent.
func (d *Dirent) Sys() any {
	return d.RawDirent
}

// CreatedAt returns the timestamp at which the directory entry was created.
func (d *Dirent) CreatedAt() time.Time {
	return TimestampFromParts(d.CreatedDate, d.CreatedTime, d.CreatedTimeTenths)
}

// LastAccessedAt returns the date on which the directory entry was last accessed.
func (d *Dirent) LastAccessedAt() time.Time {
	return DateFromInt(d.LastAccessedDate)
}

// DateFromInt converts the FAT on-disk representation of a date into a Go time.Time
// object. FAT timestamps carry no time zone; they're returned as UTC.
func DateFromInt(value uint16) time.Time {
	day := int(value & 0x001f)
	month := time.Month((value >> 5) & 0x000f)
	year := int(1980 + (value >> 9))

	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// TimestampFromParts converts a FAT timestamp into a time.Time object. datePart is
// required; timePart and hundredths should be 0 if they're not present in the source
// field(s).
func TimestampFromParts(datePart uint16, timePart uint16, hundredths uint8) time.Time {
	dateDt := DateFromInt(datePart)

	seconds := int(timePart&0x001f) * 2
	if hundredths >= 100 {
		seconds++
		hundredths -= 100
	}

	minutes := int((timePart >> 5) & 0x003f)
	hours := int(timePart >> 11)
	nanoseconds := int(hundredths) * int(10*time.Millisecond)

	return time.Date(
		dateDt.Year(), dateDt.Month(), dateDt.Day(), hours, minutes, seconds, nanoseconds, time.UTC)
}

// AttrFlagsToFileMode converts FAT attribute flags into os.FileMode bits.
func AttrFlagsToFileMode(flags uint8) os.FileMode {
	var mode os.FileMode

	// FAT has no way to mark files as executable or not, so the executable bit is always set.
	if (flags & AttrReadOnly) != 0 {
		mode = 0o555
	} else {
		mode = 0o777
	}

	if (flags & AttrDirectory) != 0 {
		mode |= os.ModeDir
	} else if (flags & AttrDevice) != 0 {
		mode |= os.ModeDevice
	}

	return mode
}
