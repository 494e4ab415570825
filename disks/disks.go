// Package disks holds the standard FAT12 floppy formats, for recognizing
// boot media and for building test images of the right shape.
package disks

import (
	_ "embed"
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/jszwec/csvutil"
)

// FATFormat is the BIOS parameter block of a standard preformatted disk.
type FATFormat struct {
	Slug              string `csv:"slug"`
	Name              string `csv:"name"`
	FormFactor        string `csv:"form_factor"`
	TotalSectors      uint32 `csv:"total_sectors"`
	SectorsPerCluster uint8  `csv:"sectors_per_cluster"`
	ReservedSectors   uint16 `csv:"reserved_sectors"`
	FATCount          uint8  `csv:"fat_count"`
	RootEntries       uint16 `csv:"root_entries"`
	SectorsPerFAT     uint16 `csv:"sectors_per_fat"`
	// Media is the media descriptor byte, also stored in FAT entry 0.
	Media           uint8  `csv:"media"`
	SectorsPerTrack uint16 `csv:"sectors_per_track"`
	Heads           uint16 `csv:"heads"`
}

// TotalSizeBytes gives the size of the disk, which is the minimum size of an
// image file holding it.
func (f *FATFormat) TotalSizeBytes() int64 {
	return int64(f.TotalSectors) * 512
}

// https://en.wikipedia.org/wiki/List_of_floppy_disk_formats
//
//go:embed fat-formats.csv
var fatFormatsRawCSV string
var fatFormats map[string]FATFormat

// GetPredefinedFormat returns the format with the given slug, e.g. "fd1440".
func GetPredefinedFormat(slug string) (FATFormat, error) {
	format, ok := fatFormats[slug]
	if ok {
		return format, nil
	}

	err := fmt.Errorf("no predefined disk format exists with slug %q", slug)
	return FATFormat{}, err
}

// IdentifyFormat returns the standard format whose size is `totalSectors`, if
// there is one.
func IdentifyFormat(totalSectors uint32) (FATFormat, bool) {
	for _, format := range fatFormats {
		if format.TotalSectors == totalSectors {
			return format, true
		}
	}
	return FATFormat{}, false
}

// Slugs returns the slugs of every predefined format in sorted order.
func Slugs() []string {
	slugs := make([]string, 0, len(fatFormats))
	for slug := range fatFormats {
		slugs = append(slugs, slug)
	}
	sort.Strings(slugs)
	return slugs
}

func init() {
	reader := strings.NewReader(fatFormatsRawCSV)
	csvReader := csv.NewReader(reader)
	csvReader.Comma = '|'

	decoder, err := csvutil.NewDecoder(csvReader)
	if err != nil {
		panic(fmt.Errorf("failed to create CSV decoder: %w", err))
	}

	fatFormats = make(map[string]FATFormat)

	for {
		var row FATFormat
		if err = decoder.Decode(&row); err == io.EOF {
			break
		} else if err != nil {
			panic(
				fmt.Errorf("failed to decode row %d: %w", len(fatFormats)+1, err))
		}

		_, exists := fatFormats[row.Slug]
		if exists {
			message := fmt.Errorf(
				"duplicate definition for disk %q found on row %d",
				row.Slug,
				len(fatFormats)+1)
			panic(message)
		}
		fatFormats[row.Slug] = row
	}
}
