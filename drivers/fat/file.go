package fat

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	neoos "github.com/dani2318/NeoOS"
)

// File is an open file or directory. It reads one sector at a time into its
// own buffer, following the cluster chain through the volume's FAT window, or
// walking consecutive sectors for the fixed FAT12/16 root directory.
//
// A File is only valid until it is closed; after that every method fails with
// an EBADF error. The root directory is the exception: closing it rewinds it.
type File struct {
	volume      *Volume
	id          neoos.HandleID
	dirent      *Dirent
	isDirectory bool
	isFixedRoot bool
	isOpen      bool

	position     uint32
	size         uint32
	declaredSize uint32
	firstCluster uint32
	// currentCluster is a raw LBA when isFixedRoot is set.
	currentCluster  uint32
	sectorInCluster uint32

	buffer [neoos.SectorSize]byte
	// isLoaded means buffer holds the sector identified by currentCluster and
	// sectorInCluster.
	isLoaded bool
	// needsAdvance means position sits on a sector boundary and the sector it
	// points into hasn't been located yet.
	needsAdvance bool
}

func newFile(volume *Volume, id neoos.HandleID, dirent *Dirent) *File {
	f := &File{
		volume:       volume,
		id:           id,
		dirent:       dirent,
		isDirectory:  dirent.IsDir(),
		isOpen:       true,
		declaredSize: dirent.FileSize,
		firstCluster: dirent.FirstCluster(),
	}
	f.rewind()
	return f
}

func newRootFile(volume *Volume) *File {
	geometry := volume.geometry
	f := &File{
		volume:      volume,
		id:          neoos.RootHandle,
		isDirectory: true,
		isOpen:      true,
	}
	if geometry.HasFixedRoot() {
		f.isFixedRoot = true
		f.firstCluster = geometry.RootDirLBA
		f.declaredSize = geometry.RootDirByteSize
	} else {
		f.firstCluster = geometry.RootDirFirstCluster
	}
	f.dirent = newRootDirent(f.declaredSize)
	f.rewind()
	return f
}

// ID returns the handle of this file in its volume's handle table.
func (f *File) ID() neoos.HandleID {
	return f.id
}

// Name returns the 8.3 name of the file, or "/" for the root directory.
func (f *File) Name() string {
	return f.dirent.Name()
}

func (f *File) IsDir() bool {
	return f.isDirectory
}

// Size returns the number of bytes the file holds. It shrinks if the cluster
// chain turns out to be shorter than the directory entry claims.
func (f *File) Size() int64 {
	return int64(f.size)
}

func (f *File) Position() int64 {
	return int64(f.position)
}

// IsOpen reports whether the handle is still usable.
func (f *File) IsOpen() bool {
	return f.isOpen
}

// Stat returns the directory entry of the file.
func (f *File) Stat() (os.FileInfo, error) {
	if !f.isOpen {
		return nil, f.errClosed()
	}
	return f.dirent, nil
}

func (f *File) errClosed() error {
	return neoos.ErrBadHandle.WithMessage(
		fmt.Sprintf("handle %d (%s) is closed", f.id, f.dirent.Name()))
}

// isUnbounded reports whether the file has no declared size and ends only
// where its cluster chain does.
func (f *File) isUnbounded() bool {
	return f.isDirectory && f.size == 0
}

func (f *File) rewind() {
	f.position = 0
	f.size = f.declaredSize
	f.currentCluster = f.firstCluster
	f.sectorInCluster = 0
	f.isLoaded = false
	f.needsAdvance = false
}

func (f *File) currentLBA() uint32 {
	if f.isFixedRoot {
		return f.currentCluster
	}
	return f.volume.geometry.ClusterToLba(f.currentCluster) + f.sectorInCluster
}

// load reads the current sector into the buffer.
func (f *File) load() error {
	if !f.isFixedRoot && !f.volume.table.IsValidCluster(f.currentCluster) {
		return neoos.ErrCorruptChain.WithMessage(
			fmt.Sprintf("%s: cluster %d is not a data cluster", f.dirent.Name(), f.currentCluster))
	}

	lba := f.currentLBA()
	err := f.volume.source.ReadSectors(lba, 1, f.buffer[:])
	if err != nil {
		logerror(
			f.volume.logger,
			"sector read failed",
			slog.String("file", f.dirent.Name()),
			slog.Uint64("lba", uint64(lba)),
			slog.String("error", err.Error()))
		return neoos.ErrDeviceRead.Wrap(err)
	}
	f.isLoaded = true
	return nil
}

// advance moves to the sector following the current one. It returns false
// without an error when the cluster chain has ended, after truncating the
// file to the current position.
func (f *File) advance() (bool, error) {
	if f.isFixedRoot {
		f.currentCluster++
	} else if f.sectorInCluster+1 < f.volume.geometry.SectorsPerCluster {
		f.sectorInCluster++
	} else {
		next, err := f.volume.table.NextCluster(f.currentCluster)
		if err != nil {
			return false, err
		}
		if IsEndOfChain(next) {
			if !f.isUnbounded() && f.position < f.size {
				warn(
					f.volume.logger,
					"cluster chain ended before end of file",
					slog.String("file", f.dirent.Name()),
					slog.Uint64("declared_size", uint64(f.size)),
					slog.Uint64("chain_size", uint64(f.position)))
			}
			f.size = f.position
			return false, nil
		}
		if !f.volume.table.IsValidCluster(next) {
			return false, neoos.ErrCorruptChain.WithMessage(
				fmt.Sprintf(
					"%s: cluster %d links to %#x", f.dirent.Name(), f.currentCluster, next))
		}
		f.currentCluster = next
		f.sectorInCluster = 0
	}

	f.needsAdvance = false
	f.isLoaded = false
	return true, nil
}

// Read copies up to len(p) bytes from the current position.
//
// A short count with a nil error means the data ran out; the next call
// returns 0 and io.EOF. A device or chain failure stops the read early and is
// returned together with the number of bytes copied before it.
func (f *File) Read(p []byte) (int, error) {
	if !f.isOpen {
		return 0, f.errClosed()
	}

	remaining := uint32(len(p))
	if uint64(len(p)) > uint64(^uint32(0)) {
		remaining = ^uint32(0)
	}
	if !f.isUnbounded() {
		if f.position >= f.size {
			remaining = 0
		} else if remaining > f.size-f.position {
			remaining = f.size - f.position
		}
	}
	if remaining == 0 {
		if len(p) == 0 {
			return 0, nil
		}
		return 0, io.EOF
	}

	copied := 0
	for remaining > 0 {
		if f.needsAdvance {
			more, err := f.advance()
			if err != nil {
				return copied, err
			}
			if !more {
				break
			}
		}
		if !f.isLoaded {
			err := f.load()
			if err != nil {
				return copied, err
			}
		}

		offset := f.position % neoos.SectorSize
		chunk := neoos.SectorSize - offset
		if chunk > remaining {
			chunk = remaining
		}
		copy(p[copied:], f.buffer[offset:offset+chunk])

		copied += int(chunk)
		remaining -= chunk
		f.position += chunk
		if f.position%neoos.SectorSize == 0 {
			f.needsAdvance = true
		}
	}

	if copied == 0 {
		return 0, io.EOF
	}
	return copied, nil
}

// Seek sets the position of the next Read. The chain is walked again from the
// first cluster, so seeking is linear in the target offset. Offsets past the
// end of a file are rejected; on a directory without a size the position stops
// where the chain ends.
func (f *File) Seek(offset int64, whence int) (int64, error) {
	if !f.isOpen {
		return 0, f.errClosed()
	}

	var target int64
	switch whence {
	case io.SeekStart:
		target = offset
	case io.SeekCurrent:
		target = int64(f.position) + offset
	case io.SeekEnd:
		target = int64(f.size) + offset
	default:
		return int64(f.position), neoos.ErrInvalidArgument.WithMessage(
			fmt.Sprintf("invalid whence %d", whence))
	}

	if target < 0 || target > int64(^uint32(0)) || (!f.isUnbounded() && target > int64(f.size)) {
		return int64(f.position), neoos.ErrIllegalSeek.WithMessage(
			fmt.Sprintf("offset %d not in range [0, %d]", target, f.size))
	}

	f.rewind()
	goal := uint32(target)
	for f.position < goal {
		if f.needsAdvance {
			more, err := f.advance()
			if err != nil {
				return int64(f.position), err
			}
			if !more {
				break
			}
		}

		step := goal - f.position
		if room := neoos.SectorSize - f.position%neoos.SectorSize; step > room {
			step = room
		}
		f.position += step
		if f.position%neoos.SectorSize == 0 {
			f.needsAdvance = true
		}
	}
	return int64(f.position), nil
}

// ReadAt reads len(p) bytes starting at `offset` without moving the current
// position.
func (f *File) ReadAt(p []byte, offset int64) (int, error) {
	saved := int64(f.position)
	_, err := f.Seek(offset, io.SeekStart)
	if err != nil {
		return 0, err
	}

	n, err := io.ReadFull(f, p)
	if err == io.ErrUnexpectedEOF {
		err = io.EOF
	}

	_, seekErr := f.Seek(saved, io.SeekStart)
	if err == nil {
		err = seekErr
	}
	return n, err
}

// Close releases the handle. Closing the root directory rewinds it instead;
// it stays open until the volume is unmounted.
func (f *File) Close() error {
	if !f.isOpen {
		return f.errClosed()
	}
	if f.id == neoos.RootHandle {
		f.rewind()
		return nil
	}

	err := f.volume.handles.Release(f.id)
	f.isOpen = false
	return err
}

// nextDirent returns the next entry that names a file or directory. It returns
// io.EOF at the end-of-directory marker or when the data runs out.
func (f *File) nextDirent() (*Dirent, error) {
	var record [DirentSize]byte

	for {
		_, err := io.ReadFull(f, record[:])
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, io.EOF
		}
		if err != nil {
			return nil, err
		}

		raw, err := NewRawDirentFromBytes(record[:])
		if err != nil {
			return nil, err
		}
		if raw.IsEndMarker() {
			return nil, io.EOF
		}
		if raw.IsVisible() {
			return NewDirent(raw), nil
		}
	}
}

// find scans forward from the current position for an entry named `name`.
func (f *File) find(name ShortName) (*Dirent, error) {
	for {
		dirent, err := f.nextDirent()
		if err != nil {
			return nil, err
		}
		if dirent.ShortName() == name {
			return dirent, nil
		}
	}
}

// Readdir returns up to `count` entries from the directory, or all remaining
// ones if count <= 0. The `.` and `..` entries are left out.
func (f *File) Readdir(count int) ([]os.FileInfo, error) {
	if !f.isOpen {
		return nil, f.errClosed()
	}
	if !f.isDirectory {
		return nil, neoos.ErrNotADirectory.WithMessage(f.dirent.Name())
	}

	var entries []os.FileInfo
	for count <= 0 || len(entries) < count {
		dirent, err := f.nextDirent()
		if err == io.EOF {
			break
		}
		if err != nil {
			return entries, err
		}

		name := dirent.ShortName()
		if name == dotName || name == dotDotName {
			continue
		}
		entries = append(entries, dirent)
	}

	if count > 0 && len(entries) == 0 {
		return nil, io.EOF
	}
	return entries, nil
}

// Readdirnames is like Readdir but only returns the names.
func (f *File) Readdirnames(count int) ([]string, error) {
	entries, err := f.Readdir(count)
	names := make([]string, len(entries))
	for i, entry := range entries {
		names[i] = entry.Name()
	}
	return names, err
}
