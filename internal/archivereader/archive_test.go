package archivereader

import (
	"archive/tar"
	"bytes"
	"io"
	"sort"
	"testing"
)

// buildTar writes files as a tar stream, entries in sorted name order
// (map iteration order is random).
func buildTar(t *testing.T, files map[string]string) []byte {
	t.Helper()
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	for _, name := range names {
		content := files[name]
		hdr := &tar.Header{
			Name:     name,
			Size:     int64(len(content)),
			Mode:     0644,
			Typeflag: tar.TypeReg,
		}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatalf("write header: %v", err)
		}
		if _, err := tw.Write([]byte(content)); err != nil {
			t.Fatalf("write content: %v", err)
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatalf("close tar writer: %v", err)
	}
	return buf.Bytes()
}

func TestReader_IteratesInOrder(t *testing.T) {
	data := buildTar(t, map[string]string{
		"pending_data":         "a",
		"pending_keys":         "b",
		"REPLICATION_SEQUENCE": "43",
	})
	r := NewFromStream(bytes.NewReader(data))

	var paths []string
	err := r.Each(func(e Entry) error {
		body, err := io.ReadAll(e.R)
		if err != nil {
			return err
		}
		if int64(len(body)) != e.Size {
			t.Errorf("entry %s: read %d bytes, declared size %d", e.Path, len(body), e.Size)
		}
		paths = append(paths, e.Path)
		return nil
	})
	if err != nil {
		t.Fatalf("Each: %v", err)
	}
	want := []string{"REPLICATION_SEQUENCE", "pending_data", "pending_keys"}
	if len(paths) != len(want) {
		t.Fatalf("got %v entries, want %v", paths, want)
	}
	for i := range want {
		if paths[i] != want[i] {
			t.Errorf("entry %d = %q, want %q", i, paths[i], want[i])
		}
	}
}

func TestReader_NextAfterDoneReturnsErrDone(t *testing.T) {
	data := buildTar(t, map[string]string{"only": "x"})
	r := NewFromStream(bytes.NewReader(data))

	if _, err := r.Next(); err != nil {
		t.Fatalf("first Next: %v", err)
	}
	if _, err := r.Next(); err != ErrDone {
		t.Fatalf("second Next = %v, want ErrDone", err)
	}
}

func TestReader_BoundsEntryReader(t *testing.T) {
	data := buildTar(t, map[string]string{
		"first":  "hello",
		"second": "world!!",
	})
	r := NewFromStream(bytes.NewReader(data))

	e1, err := r.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	b1, _ := io.ReadAll(e1.R)
	if string(b1) != "hello" {
		t.Errorf("first entry = %q, want %q", b1, "hello")
	}

	e2, err := r.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	b2, _ := io.ReadAll(e2.R)
	if string(b2) != "world!!" {
		t.Errorf("second entry = %q, want %q", b2, "world!!")
	}
}
