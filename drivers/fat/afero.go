package fat

import (
	"os"
	"time"

	neoos "github.com/dani2318/NeoOS"
	"github.com/spf13/afero"
)

// Fs exposes a mounted volume as a read-only afero.Fs. Every call that would
// modify the volume fails with an EROFS error.
type Fs struct {
	volume *Volume
}

var _ afero.Fs = (*Fs)(nil)
var _ afero.File = (*File)(nil)
var _ neoos.FileHandle = (*File)(nil)

// NewFs wraps `volume`.
func NewFs(volume *Volume) *Fs {
	return &Fs{volume: volume}
}

// Volume returns the wrapped volume.
func (fs *Fs) Volume() *Volume {
	return fs.volume
}

func readOnly(name string) error {
	return neoos.ErrReadOnly.WithMessage(name)
}

func (fs *Fs) Name() string {
	return "FAT"
}

func (fs *Fs) Open(name string) (afero.File, error) {
	file, err := fs.volume.Open(name)
	if err != nil {
		return nil, &os.PathError{Op: "open", Path: name, Err: err}
	}
	return file, nil
}

// OpenFile only accepts read-only flags.
func (fs *Fs) OpenFile(name string, flag int, perm os.FileMode) (afero.File, error) {
	if flag&(os.O_WRONLY|os.O_RDWR|os.O_CREATE|os.O_TRUNC|os.O_APPEND) != 0 {
		return nil, &os.PathError{Op: "open", Path: name, Err: readOnly(name)}
	}
	return fs.Open(name)
}

func (fs *Fs) Stat(name string) (os.FileInfo, error) {
	fileInfo, err := fs.volume.Stat(name)
	if err != nil {
		return nil, &os.PathError{Op: "stat", Path: name, Err: err}
	}
	return fileInfo, nil
}

func (fs *Fs) Create(name string) (afero.File, error) {
	return nil, readOnly(name)
}

func (fs *Fs) Mkdir(name string, perm os.FileMode) error {
	return readOnly(name)
}

func (fs *Fs) MkdirAll(path string, perm os.FileMode) error {
	return readOnly(path)
}

func (fs *Fs) Remove(name string) error {
	return readOnly(name)
}

func (fs *Fs) RemoveAll(path string) error {
	return readOnly(path)
}

func (fs *Fs) Rename(oldname, newname string) error {
	return readOnly(oldname)
}

func (fs *Fs) Chmod(name string, mode os.FileMode) error {
	return readOnly(name)
}

func (fs *Fs) Chown(name string, uid, gid int) error {
	return readOnly(name)
}

func (fs *Fs) Chtimes(name string, atime time.Time, mtime time.Time) error {
	return readOnly(name)
}

// The write half of afero.File. None of it is supported.

func (f *File) Write(p []byte) (int, error) {
	return 0, readOnly(f.Name())
}

func (f *File) WriteAt(p []byte, off int64) (int, error) {
	return 0, readOnly(f.Name())
}

func (f *File) WriteString(s string) (int, error) {
	return 0, readOnly(f.Name())
}

func (f *File) Truncate(size int64) error {
	return readOnly(f.Name())
}

func (f *File) Sync() error {
	return nil
}
