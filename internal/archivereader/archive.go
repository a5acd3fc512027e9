// Package archivereader streams bzip2-compressed tar archives entry by
// entry (spec.md §4.A). Entries are consumed in archive order; there is
// no random access. Each entry yields a reader bounded by its declared
// tar header size.
package archivereader

import (
	"archive/tar"
	"bufio"
	"compress/bzip2"
	"errors"
	"io"
	"os"
)

// Entry is one archive member: its path, its declared size, and a
// reader bounded to exactly that many bytes.
type Entry struct {
	Path string
	Size int64
	R    io.Reader
}

// Reader lazily yields archive Entries in order.
type Reader struct {
	tr *tar.Reader
}

// Open opens path, wraps it in a buffered bzip2 decompressor, and
// returns a Reader ready to iterate tar entries. The caller must Close
// the returned closer when done.
func Open(path string) (*Reader, io.Closer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	buffered := bufio.NewReaderSize(f, 1<<20)
	decompressed := bzip2.NewReader(buffered)
	return NewFromStream(decompressed), f, nil
}

// NewFromStream builds a Reader over an already-decompressed tar byte
// stream. Exposed separately from Open so the tar-iteration logic can
// be exercised in tests without real bzip2 data.
func NewFromStream(r io.Reader) *Reader {
	return &Reader{tr: tar.NewReader(r)}
}

// ErrDone is returned by Next once every entry has been consumed.
var ErrDone = errors.New("archivereader: no more entries")

// Next advances to the next tar entry. The Entry's reader is only valid
// until the following call to Next.
func (r *Reader) Next() (Entry, error) {
	hdr, err := r.tr.Next()
	if errors.Is(err, io.EOF) {
		return Entry{}, ErrDone
	}
	if err != nil {
		return Entry{}, err
	}
	if hdr.Typeflag != tar.TypeReg {
		return r.Next()
	}
	return Entry{Path: hdr.Name, Size: hdr.Size, R: io.LimitReader(r.tr, hdr.Size)}, nil
}

// Each calls fn for every regular-file entry in order, stopping at the
// first error fn returns or the first decompression/parse error.
func (r *Reader) Each(fn func(Entry) error) error {
	for {
		e, err := r.Next()
		if errors.Is(err, ErrDone) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := fn(e); err != nil {
			return err
		}
	}
}
