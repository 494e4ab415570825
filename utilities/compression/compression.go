package compression

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"io"
	"os"
)

// CompressImage run-length encodes `input` and gzips the result into
// `output`. It returns the number of uncompressed bytes consumed.
func CompressImage(input io.Reader, output io.Writer) (int64, error) {
	gzWriter, err := gzip.NewWriterLevel(output, gzip.BestCompression)
	if err != nil {
		return 0, err
	}

	counter := &countingReader{source: input}
	_, err = CompressRLE8(counter, gzWriter)
	if err != nil {
		gzWriter.Close()
		return counter.total, err
	}
	return counter.total, gzWriter.Close()
}

// DecompressImage reverses CompressImage. It returns the size of the
// decompressed image.
func DecompressImage(input io.Reader, output io.Writer) (int64, error) {
	gzReader, err := gzip.NewReader(input)
	if err != nil {
		return 0, err
	}
	defer gzReader.Close()
	return DecompressRLE8(gzReader, output)
}

// DecompressImageToBytes is DecompressImage into a new byte slice.
func DecompressImageToBytes(input io.Reader) ([]byte, error) {
	var buffer bytes.Buffer
	_, err := DecompressImage(input, &buffer)
	if err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}

// IsCompressed reports whether `header` starts with the gzip magic number.
func IsCompressed(header []byte) bool {
	return len(header) >= 2 && header[0] == 0x1f && header[1] == 0x8b
}

// OpenImage reads the image at `path` into memory, unpacking it first if
// it's compressed.
func OpenImage(path string) ([]byte, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader := bufio.NewReader(file)
	header, err := reader.Peek(2)
	if err != nil && err != io.EOF {
		return nil, err
	}
	if IsCompressed(header) {
		return DecompressImageToBytes(reader)
	}
	return io.ReadAll(reader)
}

type countingReader struct {
	source io.Reader
	total  int64
}

func (r *countingReader) Read(p []byte) (int, error) {
	n, err := r.source.Read(p)
	r.total += int64(n)
	return n, err
}
