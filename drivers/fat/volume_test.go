package fat_test

import (
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	neoos "github.com/dani2318/NeoOS"
	"github.com/dani2318/NeoOS/drivers/common"
	"github.com/dani2318/NeoOS/drivers/fat"
	fattest "github.com/dani2318/NeoOS/testing"
	"github.com/golang/mock/gomock"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mountImage(t *testing.T, builder *fattest.ImageBuilder) *fat.Volume {
	volume, err := fat.Mount(builder.Device(), fat.Options{})
	require.NoError(t, err, "mount failed")
	return volume
}

// newKernelImage builds the FAT16 volume boot loaders are tested against: a
// 3000-byte KERNEL.BIN at cluster 5 with one sector per cluster.
func newKernelImage(t *testing.T) (*fattest.ImageBuilder, []byte) {
	builder := fattest.NewImageBuilder(t, fattest.GetLayout(t, "fat16-small"))
	kernel := fattest.PatternData(3000, 7)
	builder.AddFileAt("/KERNEL.BIN", kernel, 5)
	return builder, kernel
}

func TestMount__Geometry(t *testing.T) {
	builder, _ := newKernelImage(t)
	volume := mountImage(t, builder)

	assert.Equal(t, fat.FAT16, volume.Variant())
	assert.Equal(t, "NEOOS16", volume.Label())
	geometry := volume.Geometry()
	assert.EqualValues(t, 35, geometry.RootDirLBA)
	assert.EqualValues(t, 67, geometry.DataRegionStartLBA)
	assert.EqualValues(t, builder.DataStart(), geometry.DataRegionStartLBA)
	assert.EqualValues(t, builder.TotalClusters(), geometry.TotalClusters)
	assert.EqualValues(t, 70, geometry.ClusterToLba(5))
	assert.Equal(t, 0, volume.OpenHandles())
}

func TestOpen__Root(t *testing.T) {
	builder, _ := newKernelImage(t)
	volume := mountImage(t, builder)

	for _, path := range []string{"", "/", "//"} {
		file, err := volume.Open(path)
		require.NoError(t, err, "path %q", path)
		assert.Same(t, volume.Root(), file, "path %q", path)
		assert.Equal(t, neoos.RootHandle, file.ID())
		assert.True(t, file.IsDir())
	}
	assert.Equal(t, 0, volume.OpenHandles())
}

func TestRead__KernelScenario(t *testing.T) {
	builder, kernel := newKernelImage(t)
	volume := mountImage(t, builder)

	file, err := volume.Open("/kernel.bin")
	require.NoError(t, err)
	assert.EqualValues(t, 3000, file.Size())
	assert.False(t, file.IsDir())

	var contents []byte
	var counts []int
	buffer := make([]byte, 512)
	for i := 0; i < 7; i++ {
		n, err := volume.Read(file.ID(), buffer)
		if n == 0 {
			assert.ErrorIs(t, err, io.EOF)
		} else {
			assert.NoError(t, err)
		}
		counts = append(counts, n)
		contents = append(contents, buffer[:n]...)
	}

	assert.Equal(t, []int{512, 512, 512, 512, 512, 440, 0}, counts)
	if diff := cmp.Diff(kernel, contents); diff != "" {
		t.Errorf("file contents differ (-want +got):\n%s", diff)
	}
	require.NoError(t, volume.Close(file.ID()))
	assert.Equal(t, 0, volume.OpenHandles())
}

func TestRead__SingleCall(t *testing.T) {
	builder, kernel := newKernelImage(t)
	volume := mountImage(t, builder)

	file, err := volume.Open("KERNEL.BIN")
	require.NoError(t, err)

	buffer := make([]byte, 4096)
	n, err := file.Read(buffer)
	require.NoError(t, err)
	assert.Equal(t, 3000, n)
	assert.Equal(t, kernel, buffer[:n])

	n, err = file.Read(buffer)
	assert.Equal(t, 0, n)
	assert.ErrorIs(t, err, io.EOF)

	n, err = file.Read(nil)
	assert.Equal(t, 0, n)
	assert.NoError(t, err)
}

func TestOpen__PathResolution(t *testing.T) {
	builder, _ := newKernelImage(t)
	volume := mountImage(t, builder)

	for _, path := range []string{
		"/kernel.bin",
		"kernel.bin",
		"/KeRnEl.BiN",
		"//kernel.bin",
		"/kernel.binary",
	} {
		file, err := volume.Open(path)
		require.NoError(t, err, "path %q", path)
		assert.Equal(t, "KERNEL.BIN", file.Name())
		require.NoError(t, file.Close())
	}
}

func TestOpen__NotADirectory(t *testing.T) {
	builder, _ := newKernelImage(t)
	volume := mountImage(t, builder)

	_, err := volume.Open("/kernel.bin/x")
	assert.ErrorIs(t, err, neoos.ErrNotADirectory)
	assert.Equal(t, 0, volume.OpenHandles(), "intermediate handles must be closed")
}

func TestOpen__NotFound(t *testing.T) {
	builder, _ := newKernelImage(t)
	builder.AddDirectory("/BOOT")
	volume := mountImage(t, builder)

	for _, path := range []string{"/missing.bin", "/boot/kernel.bin", "/kernel", "/NEOOS16"} {
		_, err := volume.Open(path)
		assert.ErrorIs(t, err, neoos.ErrNotFound, "path %q", path)
	}
	assert.Equal(t, 0, volume.OpenHandles())
}

func TestOpen__OutOfHandles(t *testing.T) {
	builder := fattest.NewImageBuilder(t, fattest.GetLayout(t, "fat16-small"))
	for i := 0; i <= fat.DefaultMaxHandles; i++ {
		builder.AddFile(fmt.Sprintf("/FILE%d.TXT", i), []byte(fmt.Sprintf("file %d", i)))
	}
	volume := mountImage(t, builder)

	files := make([]*fat.File, 0, fat.DefaultMaxHandles)
	for i := 0; i < fat.DefaultMaxHandles; i++ {
		file, err := volume.Open(fmt.Sprintf("/file%d.txt", i))
		require.NoError(t, err, "file %d", i)
		files = append(files, file)
	}
	assert.Equal(t, fat.DefaultMaxHandles, volume.OpenHandles())

	last := fmt.Sprintf("/file%d.txt", fat.DefaultMaxHandles)
	_, err := volume.Open(last)
	assert.ErrorIs(t, err, neoos.ErrOutOfHandles)

	// The root directory doesn't count against the limit.
	root, err := volume.Open("/")
	require.NoError(t, err)
	assert.Same(t, volume.Root(), root)

	require.NoError(t, volume.Close(files[3].ID()))
	file, err := volume.Open(last)
	require.NoError(t, err)
	assert.Equal(t, files[3].ID(), file.ID(), "freed slot is reused")

	data := make([]byte, 32)
	n, err := file.Read(data)
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("file %d", fat.DefaultMaxHandles), string(data[:n]))
}

func TestOpen__MaxHandlesOption(t *testing.T) {
	builder, _ := newKernelImage(t)
	volume, err := fat.Mount(builder.Device(), fat.Options{MaxHandles: 2})
	require.NoError(t, err)

	_, err = volume.Open("/kernel.bin")
	require.NoError(t, err)
	_, err = volume.Open("/kernel.bin")
	require.NoError(t, err)
	_, err = volume.Open("/kernel.bin")
	assert.ErrorIs(t, err, neoos.ErrOutOfHandles)
}

func TestOpen__Subdirectories(t *testing.T) {
	builder, kernel := newKernelImage(t)
	builder.AddDirectory("/BOOT")
	builder.AddDirectory("/BOOT/GRUB")
	config := []byte("default=0\ntimeout=5\n")
	builder.AddFile("/BOOT/GRUB/GRUB.CFG", config)
	loader := fattest.PatternData(1300, 3)
	builder.AddFile("/BOOT/LOADER.SYS", loader)
	volume := mountImage(t, builder)

	data, err := volume.ReadFile("/boot/grub/grub.cfg")
	require.NoError(t, err)
	assert.Equal(t, config, data)

	data, err = volume.ReadFile("/boot/loader.sys")
	require.NoError(t, err)
	assert.Equal(t, loader, data)

	data, err = volume.ReadFile("/boot/grub/../../kernel.bin")
	require.NoError(t, err)
	assert.Equal(t, kernel, data)

	data, err = volume.ReadFile("/boot/./loader.sys")
	require.NoError(t, err)
	assert.Equal(t, loader, data)

	parent, err := volume.Open("/boot/..")
	require.NoError(t, err)
	assert.Same(t, volume.Root(), parent)

	_, err = volume.ReadFile("/boot")
	assert.ErrorIs(t, err, neoos.ErrIsADirectory)

	names := []string{}
	entries, err := volume.ReadDir("/boot")
	require.NoError(t, err)
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	assert.Equal(t, []string{"GRUB", "LOADER.SYS"}, names)
	assert.Equal(t, 0, volume.OpenHandles())
}

func TestReadDir__Root(t *testing.T) {
	builder, _ := newKernelImage(t)
	builder.AddDirectory("/BOOT")
	builder.AddEntry("/", fattest.Entry{RawName: []byte("\xe5ELETED TXT"), Attributes: 0x20})
	builder.AddEntry("/", fattest.Entry{RawName: []byte("Ak\x00e\x00r\x00n\x00e\x00"), Attributes: 0x0F})
	builder.AddFile("/README.TXT", []byte("hello"))
	volume := mountImage(t, builder)

	entries, err := volume.ReadDir("/")
	require.NoError(t, err)

	var names []string
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	assert.Equal(t, []string{"KERNEL.BIN", "BOOT", "README.TXT"}, names)

	assert.False(t, entries[0].IsDir())
	assert.EqualValues(t, 3000, entries[0].Size())
	assert.Equal(t, time.Date(2025, time.April, 15, 12, 0, 0, 0, time.UTC), entries[0].ModTime())
	assert.True(t, entries[1].IsDir())
}

func TestReaddir__Paged(t *testing.T) {
	builder := fattest.NewImageBuilder(t, fattest.GetLayout(t, "fat12-floppy"))
	for i := 0; i < 5; i++ {
		builder.AddFile(fmt.Sprintf("/F%d", i), []byte{byte(i)})
	}
	volume := mountImage(t, builder)

	root := volume.Root()
	names, err := root.Readdirnames(2)
	require.NoError(t, err)
	assert.Equal(t, []string{"F0", "F1"}, names)
	names, err = root.Readdirnames(2)
	require.NoError(t, err)
	assert.Equal(t, []string{"F2", "F3"}, names)
	names, err = root.Readdirnames(2)
	require.NoError(t, err)
	assert.Equal(t, []string{"F4"}, names)
	_, err = root.Readdirnames(2)
	assert.ErrorIs(t, err, io.EOF)

	require.NoError(t, root.Close())
	assert.EqualValues(t, 0, root.Position())
	names, err = root.Readdirnames(0)
	require.NoError(t, err)
	assert.Len(t, names, 5)
}

func TestOpen__HiddenByEndMarker(t *testing.T) {
	builder, _ := newKernelImage(t)
	builder.AddEntry("/", fattest.Entry{RawName: make([]byte, 11)})
	builder.AddFile("/LATE.TXT", []byte("unreachable"))
	volume := mountImage(t, builder)

	_, err := volume.Open("/late.txt")
	assert.ErrorIs(t, err, neoos.ErrNotFound)
}

func TestRead__EmptyFile(t *testing.T) {
	builder, _ := newKernelImage(t)
	builder.AddFile("/EMPTY.TXT", nil)
	volume := mountImage(t, builder)

	file, err := volume.Open("/empty.txt")
	require.NoError(t, err)
	assert.EqualValues(t, 0, file.Size())

	n, err := file.Read(make([]byte, 16))
	assert.Equal(t, 0, n)
	assert.ErrorIs(t, err, io.EOF)
}

// A FAT32 root directory has no size and ends where its chain ends, which may
// be spread over many clusters.
func TestOpen__FAT32RootChain(t *testing.T) {
	builder := fattest.NewImageBuilder(t, fattest.GetLayout(t, "fat32-small"))
	expected := map[string][]byte{}
	for i := 0; i < 40; i++ {
		name := fmt.Sprintf("FILE%02d.DAT", i)
		expected[name] = fattest.PatternData(100+i*37, byte(i))
		builder.AddFile("/"+name, expected[name])
	}
	require.Greater(t, len(builder.DirectoryClusters("/")), 2)
	volume := mountImage(t, builder)
	assert.Equal(t, fat.FAT32, volume.Variant())

	for name, data := range expected {
		contents, err := volume.ReadFile("/" + name)
		require.NoError(t, err, name)
		assert.Equal(t, data, contents, name)
	}

	entries, err := volume.ReadDir("/")
	require.NoError(t, err)
	assert.Len(t, entries, 40)
	assert.Equal(t, 0, volume.OpenHandles())
}

func TestRead__FragmentedChain(t *testing.T) {
	builder, _ := newKernelImage(t)
	data := fattest.PatternData(4*512-100, 11)
	builder.AddFileChain("/FRAG.BIN", data, []uint32{40, 17, 33, 25})
	volume := mountImage(t, builder)

	contents, err := volume.ReadFile("/frag.bin")
	require.NoError(t, err)
	if diff := cmp.Diff(data, contents); diff != "" {
		t.Errorf("fragmented file differs (-want +got):\n%s", diff)
	}
}

// A chain that ends before the size in the directory entry does is not an
// error: the file is cut short at the end of its last cluster.
func TestRead__TruncatedChain(t *testing.T) {
	builder, kernel := newKernelImage(t)
	builder.SetFATEntry(7, builder.EndOfChain())
	volume := mountImage(t, builder)

	file, err := volume.Open("/kernel.bin")
	require.NoError(t, err)

	contents := make([]byte, 4096)
	n, err := file.Read(contents)
	require.NoError(t, err)
	assert.Equal(t, 3*512, n)
	assert.Equal(t, kernel[:n], contents[:n])
	assert.EqualValues(t, 3*512, file.Size())

	n, err = file.Read(contents)
	assert.Equal(t, 0, n)
	assert.ErrorIs(t, err, io.EOF)
}

func TestRead__CorruptChain(t *testing.T) {
	builder, kernel := newKernelImage(t)
	builder.SetFATEntry(6, 0)
	volume := mountImage(t, builder)

	file, err := volume.Open("/kernel.bin")
	require.NoError(t, err)

	contents := make([]byte, 4096)
	n, err := file.Read(contents)
	assert.ErrorIs(t, err, neoos.ErrCorruptChain)
	assert.Equal(t, 2*512, n)
	assert.Equal(t, kernel[:n], contents[:n])
}

func TestSeek(t *testing.T) {
	builder, kernel := newKernelImage(t)
	volume := mountImage(t, builder)

	file, err := volume.Open("/kernel.bin")
	require.NoError(t, err)

	position, err := file.Seek(1000, io.SeekStart)
	require.NoError(t, err)
	assert.EqualValues(t, 1000, position)

	buffer := make([]byte, 100)
	_, err = io.ReadFull(file, buffer)
	require.NoError(t, err)
	assert.Equal(t, kernel[1000:1100], buffer)

	position, err = file.Seek(-588, io.SeekCurrent)
	require.NoError(t, err)
	assert.EqualValues(t, 512, position)
	_, err = io.ReadFull(file, buffer)
	require.NoError(t, err)
	assert.Equal(t, kernel[512:612], buffer)

	position, err = file.Seek(-40, io.SeekEnd)
	require.NoError(t, err)
	assert.EqualValues(t, 2960, position)
	n, err := file.Read(buffer)
	require.NoError(t, err)
	assert.Equal(t, 40, n)
	assert.Equal(t, kernel[2960:], buffer[:n])

	position, err = file.Seek(0, io.SeekEnd)
	require.NoError(t, err)
	assert.EqualValues(t, 3000, position)
	_, err = file.Read(buffer)
	assert.ErrorIs(t, err, io.EOF)

	_, err = file.Seek(3001, io.SeekStart)
	assert.ErrorIs(t, err, neoos.ErrIllegalSeek)
	_, err = file.Seek(-1, io.SeekStart)
	assert.ErrorIs(t, err, neoos.ErrIllegalSeek)
	_, err = file.Seek(0, 42)
	assert.ErrorIs(t, err, neoos.ErrInvalidArgument)
	assert.EqualValues(t, 3000, file.Position(), "failed seeks don't move")
}

func TestReadAt(t *testing.T) {
	builder, kernel := newKernelImage(t)
	volume := mountImage(t, builder)

	file, err := volume.Open("/kernel.bin")
	require.NoError(t, err)
	_, err = file.Seek(10, io.SeekStart)
	require.NoError(t, err)

	buffer := make([]byte, 700)
	n, err := file.ReadAt(buffer, 1200)
	require.NoError(t, err)
	assert.Equal(t, 700, n)
	assert.Equal(t, kernel[1200:1900], buffer)
	assert.EqualValues(t, 10, file.Position())

	n, err = file.ReadAt(buffer, 2900)
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, 100, n)
	assert.Equal(t, kernel[2900:], buffer[:n])
	assert.EqualValues(t, 10, file.Position())
}

func TestClose__Twice(t *testing.T) {
	builder, _ := newKernelImage(t)
	volume := mountImage(t, builder)

	file, err := volume.Open("/kernel.bin")
	require.NoError(t, err)
	id := file.ID()

	require.NoError(t, file.Close())
	assert.False(t, file.IsOpen())

	err = file.Close()
	assert.ErrorIs(t, err, neoos.ErrBadHandle)
	err = volume.Close(id)
	assert.ErrorIs(t, err, neoos.ErrBadHandle)
	_, err = volume.Read(id, make([]byte, 8))
	assert.ErrorIs(t, err, neoos.ErrBadHandle)
	_, err = file.Read(make([]byte, 8))
	assert.ErrorIs(t, err, neoos.ErrBadHandle)
	_, err = file.Stat()
	assert.ErrorIs(t, err, neoos.ErrBadHandle)
}

// A closed File stays dead even after its slot is handed to another open.
func TestClose__StaleFile(t *testing.T) {
	builder, _ := newKernelImage(t)
	builder.AddFile("/OTHER.TXT", []byte("other"))
	volume := mountImage(t, builder)

	stale, err := volume.Open("/kernel.bin")
	require.NoError(t, err)
	require.NoError(t, stale.Close())

	other, err := volume.Open("/other.txt")
	require.NoError(t, err)
	assert.Equal(t, stale.ID(), other.ID())

	_, err = stale.Read(make([]byte, 8))
	assert.ErrorIs(t, err, neoos.ErrBadHandle)

	buffer := make([]byte, 8)
	n, err := volume.Read(other.ID(), buffer)
	require.NoError(t, err)
	assert.Equal(t, "other", string(buffer[:n]))
}

func TestClose__RootRewinds(t *testing.T) {
	builder, _ := newKernelImage(t)
	volume := mountImage(t, builder)

	root := volume.Root()
	_, err := io.ReadFull(root, make([]byte, 64))
	require.NoError(t, err)
	assert.EqualValues(t, 64, root.Position())

	require.NoError(t, volume.Close(neoos.RootHandle))
	assert.True(t, root.IsOpen())
	assert.EqualValues(t, 0, root.Position())
	require.NoError(t, root.Close())
}

func TestStat(t *testing.T) {
	builder, _ := newKernelImage(t)
	volume := mountImage(t, builder)

	info, err := volume.Stat("/kernel.bin")
	require.NoError(t, err)
	assert.Equal(t, "KERNEL.BIN", info.Name())
	assert.EqualValues(t, 3000, info.Size())
	assert.False(t, info.IsDir())

	info, err = volume.Stat("/")
	require.NoError(t, err)
	assert.Equal(t, "/", info.Name())
	assert.True(t, info.IsDir())
	assert.Equal(t, 0, volume.OpenHandles())
}

func TestUnmount(t *testing.T) {
	builder, _ := newKernelImage(t)
	volume := mountImage(t, builder)

	first, err := volume.Open("/kernel.bin")
	require.NoError(t, err)
	second, err := volume.Open("/kernel.bin")
	require.NoError(t, err)

	require.NoError(t, volume.Unmount())
	assert.False(t, first.IsOpen())
	assert.False(t, second.IsOpen())
	assert.Equal(t, 0, volume.OpenHandles())

	_, err = volume.Open("/kernel.bin")
	assert.ErrorIs(t, err, neoos.ErrBadHandle)
	assert.ErrorIs(t, volume.Unmount(), neoos.ErrBadHandle)
}

func TestRead__AllLayouts(t *testing.T) {
	layouts := []string{
		"fat12-floppy",
		"fat12-clusters",
		"fat16-small",
		"fat16-clusters",
		"fat32-small",
		"fat32-clusters",
	}

	for _, name := range layouts {
		t.Run(name, func(t *testing.T) {
			builder := fattest.NewImageBuilder(t, fattest.GetLayout(t, name))
			kernel := fattest.PatternData(9000, 1)
			builder.AddFile("/KERNEL.BIN", kernel)
			builder.AddDirectory("/SYS")
			driver := fattest.PatternData(1300, 2)
			builder.AddFile("/SYS/DRIVER.SYS", driver)
			volume := mountImage(t, builder)

			file, err := volume.Open("/kernel.bin")
			require.NoError(t, err)

			// Odd chunk sizes cross sector and cluster boundaries mid-read.
			var contents []byte
			buffer := make([]byte, 777)
			for {
				n, err := file.Read(buffer)
				contents = append(contents, buffer[:n]...)
				if errors.Is(err, io.EOF) {
					break
				}
				require.NoError(t, err)
			}
			assert.Equal(t, kernel, contents)

			data, err := volume.ReadFile("/sys/driver.sys")
			require.NoError(t, err)
			assert.Equal(t, driver, data)
		})
	}
}

func TestRead__DeviceFailureMidFile(t *testing.T) {
	builder, kernel := newKernelImage(t)
	device := builder.Device()
	mediaError := errors.New("media error")

	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()
	source := fattest.NewMockBlockSource(mockCtrl)
	// Cluster 7, the third sector of the file.
	source.EXPECT().
		ReadSectors(uint32(72), uint8(1), gomock.Any()).
		Return(mediaError).
		Times(1)
	source.EXPECT().
		ReadSectors(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(device.ReadSectors).
		AnyTimes()

	volume, err := fat.Mount(source, fat.Options{})
	require.NoError(t, err)
	file, err := volume.Open("/kernel.bin")
	require.NoError(t, err)

	contents := make([]byte, 3000)
	n, err := file.Read(contents)
	assert.Equal(t, 1024, n)
	assert.ErrorIs(t, err, neoos.ErrDeviceRead)
	assert.ErrorIs(t, err, mediaError)
	assert.EqualValues(t, 1024, file.Position())

	// The failed sector is retried on the next call.
	rest, err := file.Read(contents[n:])
	require.NoError(t, err)
	assert.Equal(t, 3000-n, rest)
	assert.Equal(t, kernel, contents)
}

func TestMount__DeviceFailure(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()
	source := fattest.NewMockBlockSource(mockCtrl)
	source.EXPECT().
		ReadSectors(uint32(0), uint8(1), gomock.Any()).
		Return(errors.New("no medium"))

	volume, err := fat.Mount(source, fat.Options{})
	assert.Nil(t, volume)
	assert.ErrorIs(t, err, neoos.ErrDeviceRead)
}

func TestMount__Incompatible(t *testing.T) {
	volume, err := fat.Mount(fattest.NewImageDevice(make([]byte, 64*512)), fat.Options{})
	assert.Nil(t, volume)
	assert.ErrorIs(t, err, neoos.ErrIncompatible)
}

func TestMount__BadWindowSize(t *testing.T) {
	builder, _ := newKernelImage(t)
	_, err := fat.Mount(builder.Device(), fat.Options{FATCacheSectors: 1})
	assert.ErrorIs(t, err, neoos.ErrInvalidArgument)
}

func TestMount__Partition(t *testing.T) {
	builder, kernel := newKernelImage(t)
	image := fattest.PartitionedImage(builder.Bytes(), 63, 0x06)

	partition, entry, err := common.OpenPartition(fattest.NewImageDevice(image), 0)
	require.NoError(t, err)
	assert.True(t, entry.IsFAT())
	assert.True(t, entry.IsBootable())

	volume, err := fat.Mount(partition, fat.DefaultOptions())
	require.NoError(t, err)
	data, err := volume.ReadFile("/kernel.bin")
	require.NoError(t, err)
	assert.Equal(t, kernel, data)
}
