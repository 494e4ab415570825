package fat

import (
	"strings"
)

// ShortName is an 8.3 name as stored on disk: eight name bytes and three
// extension bytes, space-padded, no terminator.
type ShortName [11]byte

var (
	dotName    = ShortName{'.', ' ', ' ', ' ', ' ', ' ', ' ', ' ', ' ', ' ', ' '}
	dotDotName = ShortName{'.', '.', ' ', ' ', ' ', ' ', ' ', ' ', ' ', ' ', ' '}
)

func toUpperASCII(c byte) byte {
	if c >= 'a' && c <= 'z' {
		return c - ('a' - 'A')
	}
	return c
}

// NewShortName converts one path component to its 8.3 form. Everything before
// the first dot goes into the name and up to three bytes after it into the
// extension, with ASCII letters upper-cased. Excess bytes are dropped and
// nothing is rejected.
func NewShortName(component string) ShortName {
	switch component {
	case ".":
		return dotName
	case "..":
		return dotDotName
	}

	var name ShortName
	for i := range name {
		name[i] = ' '
	}

	base, extension := component, ""
	if dot := strings.IndexByte(component, '.'); dot >= 0 {
		base, extension = component[:dot], component[dot+1:]
	}

	for i := 0; i < len(base) && i < 8; i++ {
		name[i] = toUpperASCII(base[i])
	}
	for i := 0; i < len(extension) && i < 3; i++ {
		name[8+i] = toUpperASCII(extension[i])
	}
	return name
}

// String renders the name as NAME.EXT with the padding removed.
func (n ShortName) String() string {
	base := strings.TrimRight(string(n[:8]), " ")
	extension := strings.TrimRight(string(n[8:]), " ")
	if extension == "" {
		return base
	}
	return base + "." + extension
}
