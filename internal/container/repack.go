package container

import (
	"bytes"
	"fmt"
	"io"
)

// opaqueSize is the run of bytes after the string count whose meaning is
// unknown. It is copied verbatim.
const opaqueSize = 5

// stringTableHeaderSize covers the string count and the opaque run.
const stringTableHeaderSize = 4 + opaqueSize

// Translations maps an entry index to its replacement text for one file.
// Missing or empty values keep the original text.
type Translations map[int]string

// Entry is one string record of a container.
type Entry struct {
	Index int
	Text  string
}

// Info summarizes the layout of a container.
type Info struct {
	Header      Header
	StringCount uint32
}

// EntryCount is the number of entries the tool reads and writes. The last
// nominal entry of the table is never touched.
func (i Info) EntryCount() int {
	if i.StringCount == 0 {
		return 0
	}
	return int(i.StringCount) - 1
}

// stringTable is a cursor over the entries of one container.
type stringTable struct {
	Info
	r *bytes.Reader
}

func openStringTable(buf []byte) (*stringTable, error) {
	h, err := Locate(buf)
	if err != nil {
		return nil, err
	}

	r := bytes.NewReader(buf)
	if _, err := r.Seek(h.StringTableOffset, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek string table: %w", err)
	}
	count, err := readUint32(r)
	if err != nil {
		return nil, fmt.Errorf("read string count at %d: %w", h.StringTableOffset, ErrTruncatedHeader)
	}
	if _, err := r.Seek(opaqueSize, io.SeekCurrent); err != nil {
		return nil, fmt.Errorf("skip opaque bytes: %w", err)
	}

	return &stringTable{
		Info: Info{Header: h, StringCount: count},
		r:    r,
	}, nil
}

// each calls fn for every entry in order. It stops early, without error, when
// the table is truncated; the reader is then left at the start of the
// incomplete record.
func (t *stringTable) each(fn func(index int, text string) error) error {
	for i := 0; i < t.EntryCount(); i++ {
		start := t.r.Size() - int64(t.r.Len())

		text, ok, err := ReadEntry(t.r)
		if err != nil {
			return fmt.Errorf("entry %d: %w", i, err)
		}
		if !ok {
			if _, err := t.r.Seek(start, io.SeekStart); err != nil {
				return fmt.Errorf("rewind entry %d: %w", i, err)
			}
			return nil
		}

		if err := fn(i, text); err != nil {
			return err
		}
	}
	return nil
}

// Inspect reports the header variant, string-table offset and string count
// of buf.
func Inspect(buf []byte) (Info, error) {
	t, err := openStringTable(buf)
	if err != nil {
		return Info{}, err
	}
	return t.Info, nil
}

// Dump returns the entries of buf in table order.
func Dump(buf []byte) ([]Entry, error) {
	t, err := openStringTable(buf)
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, t.EntryCount())
	err = t.each(func(index int, text string) error {
		entries = append(entries, Entry{Index: index, Text: text})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// Repack rebuilds buf with the string table rewritten. Bytes before the table
// (including the string count and the opaque run) and bytes after the last
// rewritten entry are copied verbatim.
func Repack(buf []byte, tr Translations) ([]byte, error) {
	t, err := openStringTable(buf)
	if err != nil {
		return nil, err
	}

	out := bytes.NewBuffer(make([]byte, 0, len(buf)))
	headerEnd := min(t.Header.StringTableOffset+stringTableHeaderSize, int64(len(buf)))
	out.Write(buf[:headerEnd])

	err = t.each(func(index int, text string) error {
		if replacement := tr[index]; replacement != "" {
			text = replacement
		}
		return WriteEntry(out, text)
	})
	if err != nil {
		return nil, err
	}

	if _, err := t.r.WriteTo(out); err != nil {
		return nil, fmt.Errorf("copy trailing bytes: %w", err)
	}
	return out.Bytes(), nil
}
