package compression

import (
	"bufio"
	"errors"
	"fmt"
	"io"
)

const maxRunLength = 257

// CompressRLE8 encodes everything in `input` and writes it to `output`. It
// returns the number of bytes written.
func CompressRLE8(input io.Reader, output io.Writer) (int64, error) {
	source := bufio.NewReader(input)
	written := int64(0)

	emit := func(value byte, length int) error {
		var chunk []byte
		if length == 1 {
			chunk = []byte{value}
		} else {
			chunk = []byte{value, value, byte(length - 2)}
		}
		n, err := output.Write(chunk)
		written += int64(n)
		return err
	}

	current, err := source.ReadByte()
	if errors.Is(err, io.EOF) {
		return 0, nil
	} else if err != nil {
		return 0, err
	}

	length := 1
	for {
		next, err := source.ReadByte()
		if errors.Is(err, io.EOF) {
			return written, emit(current, length)
		} else if err != nil {
			return written, err
		}

		if next == current && length < maxRunLength {
			length++
			continue
		}
		if err := emit(current, length); err != nil {
			return written, err
		}
		current = next
		length = 1
	}
}

// DecompressRLE8 decodes everything in `input` and writes it to `output`. It
// returns the number of bytes written.
func DecompressRLE8(input io.Reader, output io.Writer) (int64, error) {
	source := bufio.NewReader(input)
	sink := bufio.NewWriter(output)
	written := int64(0)
	previous := -1

	for {
		value, err := source.ReadByte()
		if errors.Is(err, io.EOF) {
			return written, sink.Flush()
		} else if err != nil {
			return written, err
		}

		if int(value) != previous {
			previous = int(value)
			sink.WriteByte(value)
			written++
			continue
		}

		// Second byte of a pair: a repeat count follows.
		count, err := source.ReadByte()
		if errors.Is(err, io.EOF) {
			return written, fmt.Errorf(
				"%w: no repeat count after two %#02x bytes", io.ErrUnexpectedEOF, value)
		} else if err != nil {
			return written, err
		}
		for i := 0; i <= int(count); i++ {
			sink.WriteByte(value)
		}
		written += int64(count) + 1
		previous = -1
	}
}
