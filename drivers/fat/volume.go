package fat

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	neoos "github.com/dani2318/NeoOS"
	"github.com/hashicorp/go-multierror"
)

// DefaultFATCacheSectors is the default size of the FAT window, in sectors.
const DefaultFATCacheSectors = 5

// Options tunes a mount. Zero values select the defaults.
type Options struct {
	// MaxHandles is the number of files that can be open at the same time,
	// not counting the root directory.
	MaxHandles uint
	// FATCacheSectors is the number of FAT sectors kept in memory, 2 to 255.
	FATCacheSectors uint
	// Logger receives diagnostics. Nil discards them.
	Logger *slog.Logger
}

// DefaultOptions returns the sizing a boot loader would use.
func DefaultOptions() Options {
	return Options{
		MaxHandles:      DefaultMaxHandles,
		FATCacheSectors: DefaultFATCacheSectors,
	}
}

func (o Options) withDefaults() Options {
	if o.MaxHandles == 0 {
		o.MaxHandles = DefaultMaxHandles
	}
	if o.FATCacheSectors == 0 {
		o.FATCacheSectors = DefaultFATCacheSectors
	}
	if o.Logger == nil {
		o.Logger = discardLogger
	}
	return o
}

// Volume is one mounted FAT file system. It owns the geometry, the FAT window
// and the handle table; separate volumes share nothing.
type Volume struct {
	source     neoos.BlockSource
	bootSector BootSector
	geometry   Geometry
	table      *Table
	handles    *HandleTable
	root       *File
	logger     *slog.Logger
	isMounted  bool
}

// Mount reads the boot sector from `source`, works out the layout of the
// volume and opens the root directory. If anything fails no volume is
// returned.
func Mount(source neoos.BlockSource, options Options) (*Volume, error) {
	options = options.withDefaults()

	sector := make([]byte, neoos.SectorSize)
	err := source.ReadSectors(0, 1, sector)
	if err != nil {
		logerror(options.Logger, "can't read boot sector", slog.String("error", err.Error()))
		return nil, neoos.ErrDeviceRead.Wrap(err).WithMessage("reading boot sector")
	}

	bootSector, err := DecodeBootSector(sector)
	if err != nil {
		return nil, err
	}
	geometry, err := ResolveGeometry(bootSector)
	if err != nil {
		logerror(options.Logger, "unsupported volume", slog.String("error", err.Error()))
		return nil, err
	}

	table, err := NewTable(source, geometry, options.FATCacheSectors, options.Logger)
	if err != nil {
		return nil, err
	}

	volume := &Volume{
		source:     source,
		bootSector: bootSector,
		geometry:   geometry,
		table:      table,
		handles:    NewHandleTable(options.MaxHandles),
		logger:     options.Logger,
	}
	volume.root = newRootFile(volume)

	err = volume.root.load()
	if err != nil {
		return nil, err
	}
	volume.isMounted = true

	info(
		volume.logger,
		"mounted volume",
		slog.String("variant", geometry.Variant.String()),
		slog.String("label", bootSector.VolumeLabel()),
		slog.Uint64("total_sectors", uint64(geometry.TotalSectors)),
		slog.Uint64("sectors_per_cluster", uint64(geometry.SectorsPerCluster)),
		slog.Uint64("data_start", uint64(geometry.DataRegionStartLBA)),
		slog.Uint64("clusters", uint64(geometry.TotalClusters)))
	return volume, nil
}

func (v *Volume) Geometry() Geometry {
	return v.geometry
}

func (v *Volume) BootSector() BootSector {
	return v.bootSector
}

func (v *Volume) Variant() Variant {
	return v.geometry.Variant
}

// Label returns the volume label from the boot sector.
func (v *Volume) Label() string {
	return v.bootSector.VolumeLabel()
}

// Table returns the cluster-chain walker of the volume.
func (v *Volume) Table() *Table {
	return v.table
}

// Root returns the permanently open root directory.
func (v *Volume) Root() *File {
	return v.root
}

// OpenHandles returns the number of open files, not counting the root.
func (v *Volume) OpenHandles() int {
	return v.handles.InUse()
}

func (v *Volume) checkMounted() error {
	if !v.isMounted {
		return neoos.ErrBadHandle.WithMessage("volume is not mounted")
	}
	return nil
}

// Handle returns the open file with the given ID.
func (v *Volume) Handle(id neoos.HandleID) (*File, error) {
	if err := v.checkMounted(); err != nil {
		return nil, err
	}
	if id == neoos.RootHandle {
		return v.root, nil
	}
	return v.handles.Get(id)
}

// splitPath drops one leading separator and any empty components.
func splitPath(path string) []string {
	path = strings.TrimPrefix(path, "/")

	var components []string
	for _, component := range strings.Split(path, "/") {
		if component != "" {
			components = append(components, component)
		}
	}
	return components
}

// openEntry opens a new handle for a directory entry. A directory whose first
// cluster is 0 is the root directory.
func (v *Volume) openEntry(dirent *Dirent) (*File, error) {
	if dirent.IsDir() && dirent.FirstCluster() == 0 {
		v.root.rewind()
		return v.root, nil
	}

	id, err := v.handles.Allocate()
	if err != nil {
		logerror(
			v.logger,
			"out of file handles",
			slog.String("file", dirent.Name()),
			slog.Int("open", v.handles.InUse()))
		return nil, err
	}

	file := newFile(v, id, dirent)
	v.handles.Attach(id, file)
	return file, nil
}

// closeIntermediate closes a directory opened while walking a path. Close can
// only fail here if the handle table no longer agrees with the open file.
func (v *Volume) closeIntermediate(dir *File) {
	err := dir.Close()
	if err != nil {
		warn(
			v.logger,
			"can't close directory during path lookup",
			slog.String("dir", dir.Name()),
			slog.Int("handle", int(dir.ID())),
			slog.String("error", err.Error()))
	}
}

// Open resolves a slash-separated path of 8.3 names, case-insensitively,
// starting at the root directory. An empty path or "/" returns the root
// directory itself.
func (v *Volume) Open(path string) (*File, error) {
	if err := v.checkMounted(); err != nil {
		return nil, err
	}

	components := splitPath(path)
	current := v.root
	current.rewind()

	for i, component := range components {
		name := NewShortName(component)
		debug(v.logger, "looking up path component", slog.String("name", name.String()))

		dirent, err := current.find(name)
		if err != nil {
			v.closeIntermediate(current)
			if err == io.EOF {
				return nil, neoos.ErrNotFound.WithMessage(path)
			}
			return nil, err
		}

		if i < len(components)-1 && !dirent.IsDir() {
			v.closeIntermediate(current)
			return nil, neoos.ErrNotADirectory.WithMessage(
				fmt.Sprintf("%s: %s is a file", path, dirent.Name()))
		}

		v.closeIntermediate(current)
		current, err = v.openEntry(dirent)
		if err != nil {
			return nil, err
		}
	}
	return current, nil
}

// Read reads from the open file with the given ID.
func (v *Volume) Read(id neoos.HandleID, p []byte) (int, error) {
	file, err := v.Handle(id)
	if err != nil {
		return 0, err
	}
	return file.Read(p)
}

// Close closes the open file with the given ID.
func (v *Volume) Close(id neoos.HandleID) error {
	file, err := v.Handle(id)
	if err != nil {
		return err
	}
	return file.Close()
}

// Stat returns the directory entry at `path`.
func (v *Volume) Stat(path string) (os.FileInfo, error) {
	file, err := v.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return file.Stat()
}

// ReadDir lists the directory at `path`.
func (v *Volume) ReadDir(path string) ([]os.FileInfo, error) {
	file, err := v.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return file.Readdir(0)
}

// ReadFile returns the whole contents of the file at `path`.
func (v *Volume) ReadFile(path string) ([]byte, error) {
	file, err := v.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	if file.IsDir() {
		return nil, neoos.ErrIsADirectory.WithMessage(path)
	}

	data := make([]byte, 0, file.Size())
	buffer := make([]byte, neoos.SectorSize)
	for {
		n, err := file.Read(buffer)
		data = append(data, buffer[:n]...)
		if errors.Is(err, io.EOF) {
			return data, nil
		}
		if err != nil {
			return data, err
		}
	}
}

// Unmount closes every open file. The volume can't be used afterwards.
func (v *Volume) Unmount() error {
	if err := v.checkMounted(); err != nil {
		return err
	}

	var result error
	for _, file := range v.handles.Open() {
		err := file.Close()
		if err != nil {
			result = multierror.Append(result, err)
		}
	}
	v.handles.Reset()
	v.root.isOpen = false
	v.isMounted = false
	return result
}
