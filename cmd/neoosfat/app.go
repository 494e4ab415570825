package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	neoos "github.com/dani2318/NeoOS"
	"github.com/dani2318/NeoOS/disks"
	"github.com/dani2318/NeoOS/drivers/common"
	"github.com/dani2318/NeoOS/drivers/fat"
	"github.com/dani2318/NeoOS/utilities/compression"
	"github.com/gocarina/gocsv"
	"github.com/urfave/cli/v2"
)

func newApp(stdout, stderr io.Writer) *cli.App {
	return &cli.App{
		Name:      "neoosfat",
		Usage:     "Read files from FAT12/16/32 boot volumes",
		Writer:    stdout,
		ErrWriter: stderr,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "partition",
				Usage: "mount MBR partition `N` (0-3) instead of the whole image",
				Value: -1,
			},
			&cli.Int64Flag{
				Name:  "offset",
				Usage: "skip `BYTES` at the start of the image",
			},
			&cli.UintFlag{
				Name:  "handles",
				Usage: "size of the handle table",
				Value: fat.DefaultMaxHandles,
			},
			&cli.UintFlag{
				Name:  "fat-cache",
				Usage: "number of FAT sectors kept in memory (2-255)",
				Value: fat.DefaultFATCacheSectors,
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "log driver activity to stderr",
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "info",
				Usage:     "Show the layout of a volume",
				ArgsUsage: "IMAGE",
				Action:    showInfo,
			},
			{
				Name:      "ls",
				Usage:     "List a directory",
				ArgsUsage: "IMAGE [PATH]",
				Action:    listDirectory,
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "csv", Usage: "print CSV instead of a table"},
				},
			},
			{
				Name:      "cat",
				Usage:     "Write a file to stdout",
				ArgsUsage: "IMAGE PATH",
				Action:    catFile,
			},
			{
				Name:      "load",
				Usage:     "Stream a file the way the boot loader does and report each read",
				ArgsUsage: "IMAGE PATH",
				Action:    loadFile,
				Flags: []cli.Flag{
					&cli.UintFlag{
						Name:  "chunk",
						Usage: "bytes requested per read",
						Value: neoos.SectorSize,
					},
				},
			},
			{
				Name:      "pack",
				Usage:     "Compress an image with RLE8 and gzip",
				ArgsUsage: "INPUT OUTPUT",
				Action:    packImage,
			},
			{
				Name:      "unpack",
				Usage:     "Expand an image compressed with pack",
				ArgsUsage: "INPUT OUTPUT",
				Action:    unpackImage,
			},
		},
	}
}

func newLogger(c *cli.Context) *slog.Logger {
	level := slog.LevelWarn
	if c.Bool("verbose") {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(c.App.ErrWriter, &slog.HandlerOptions{Level: level}))
}

func requireArgs(c *cli.Context, min, max int) error {
	if c.NArg() < min || c.NArg() > max {
		return cli.Exit(
			fmt.Sprintf("usage: %s %s %s", c.App.Name, c.Command.Name, c.Command.ArgsUsage), 2)
	}
	return nil
}

// mountImage opens the image named by the first argument, uncompressing it if
// needed, and mounts it with the global options.
func mountImage(c *cli.Context) (*fat.Volume, error) {
	image, err := compression.OpenImage(c.Args().First())
	if err != nil {
		return nil, err
	}

	device, err := common.NewSectorDeviceFromStream(bytes.NewReader(image), c.Int64("offset"))
	if err != nil {
		return nil, err
	}

	var source neoos.BlockSource = device
	if index := c.Int("partition"); index >= 0 {
		partition, entry, err := common.OpenPartition(device, index)
		if err != nil {
			return nil, err
		}
		if !entry.IsFAT() {
			newLogger(c).Warn(
				"partition type isn't FAT", slog.Int("index", index), slog.Any("type", entry.Type))
		}
		source = partition
	}

	return fat.Mount(source, fat.Options{
		MaxHandles:      c.Uint("handles"),
		FATCacheSectors: c.Uint("fat-cache"),
		Logger:          newLogger(c),
	})
}

func showInfo(c *cli.Context) error {
	if err := requireArgs(c, 1, 1); err != nil {
		return err
	}
	volume, err := mountImage(c)
	if err != nil {
		return err
	}
	defer volume.Unmount()

	g := volume.Geometry()
	out := c.App.Writer
	fmt.Fprintf(out, "Variant:             %s\n", g.Variant)
	fmt.Fprintf(out, "Label:               %s\n", volume.Label())
	fmt.Fprintf(out, "Total sectors:       %d\n", g.TotalSectors)
	fmt.Fprintf(out, "Sectors per cluster: %d\n", g.SectorsPerCluster)
	fmt.Fprintf(out, "Reserved sectors:    %d\n", g.ReservedSectors)
	fmt.Fprintf(out, "FATs:                %d x %d sectors\n", g.FATCount, g.SectorsPerFAT)
	if g.HasFixedRoot() {
		fmt.Fprintf(out, "Root directory:      LBA %d, %d B\n", g.RootDirLBA, g.RootDirByteSize)
	} else {
		fmt.Fprintf(out, "Root directory:      cluster %d\n", g.RootDirFirstCluster)
	}
	fmt.Fprintf(out, "Data region:         LBA %d\n", g.DataRegionStartLBA)
	fmt.Fprintf(out, "Clusters:            %d\n", g.TotalClusters)
	if format, ok := disks.IdentifyFormat(g.TotalSectors); ok {
		fmt.Fprintf(out, "Format:              %s\n", format.Name)
	}
	return nil
}

type listing struct {
	Name     string `csv:"name"`
	Size     int64  `csv:"size"`
	IsDir    bool   `csv:"is_dir"`
	Mode     string `csv:"mode"`
	Modified string `csv:"modified"`
}

func listDirectory(c *cli.Context) error {
	if err := requireArgs(c, 1, 2); err != nil {
		return err
	}
	volume, err := mountImage(c)
	if err != nil {
		return err
	}
	defer volume.Unmount()

	entries, err := volume.ReadDir(c.Args().Get(1))
	if err != nil {
		return err
	}

	rows := make([]listing, 0, len(entries))
	for _, entry := range entries {
		rows = append(rows, listing{
			Name:     entry.Name(),
			Size:     entry.Size(),
			IsDir:    entry.IsDir(),
			Mode:     entry.Mode().String(),
			Modified: entry.ModTime().Format(time.DateTime),
		})
	}

	if c.Bool("csv") {
		text, err := gocsv.MarshalString(&rows)
		if err != nil {
			return err
		}
		_, err = io.WriteString(c.App.Writer, text)
		return err
	}

	for _, row := range rows {
		name := row.Name
		if row.IsDir {
			name += "/"
		}
		fmt.Fprintf(c.App.Writer, "%s %10d %s %s\n", row.Mode, row.Size, row.Modified, name)
	}
	return nil
}

func catFile(c *cli.Context) error {
	if err := requireArgs(c, 2, 2); err != nil {
		return err
	}
	volume, err := mountImage(c)
	if err != nil {
		return err
	}
	defer volume.Unmount()

	data, err := volume.ReadFile(c.Args().Get(1))
	if err != nil {
		return err
	}
	_, err = c.App.Writer.Write(data)
	return err
}

// loadFile reads a file in fixed-size requests, printing the size of each
// result, until a read comes back empty.
func loadFile(c *cli.Context) error {
	if err := requireArgs(c, 2, 2); err != nil {
		return err
	}
	chunk := c.Uint("chunk")
	if chunk == 0 {
		return cli.Exit("--chunk must be positive", 2)
	}

	volume, err := mountImage(c)
	if err != nil {
		return err
	}
	defer volume.Unmount()

	file, err := volume.Open(c.Args().Get(1))
	if err != nil {
		return err
	}
	defer volume.Close(file.ID())

	buffer := make([]byte, chunk)
	total := 0
	for {
		n, err := volume.Read(file.ID(), buffer)
		fmt.Fprintf(c.App.Writer, "read %d\n", n)
		total += n
		if errors.Is(err, io.EOF) || (err == nil && n == 0) {
			break
		}
		if err != nil {
			return err
		}
	}
	fmt.Fprintf(c.App.Writer, "loaded %d of %d bytes\n", total, file.Size())
	return nil
}

func packImage(c *cli.Context) error {
	return transformFile(c, compression.CompressImage)
}

func unpackImage(c *cli.Context) error {
	return transformFile(c, compression.DecompressImage)
}

func transformFile(c *cli.Context, transform func(io.Reader, io.Writer) (int64, error)) error {
	if err := requireArgs(c, 2, 2); err != nil {
		return err
	}

	input, err := os.Open(c.Args().Get(0))
	if err != nil {
		return err
	}
	defer input.Close()

	output, err := os.Create(c.Args().Get(1))
	if err != nil {
		return err
	}
	defer output.Close()

	n, err := transform(input, output)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "%s: %d bytes of image data\n", c.Args().Get(1), n)
	return output.Sync()
}
