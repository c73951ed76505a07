package container

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// ErrTruncatedHeader is returned when a count field that must precede the
// string table lies past the end of the buffer.
var ErrTruncatedHeader = errors.New("container: truncated header")

// HeaderVariant identifies the layout of the block preceding the code tables.
type HeaderVariant int

const (
	// Unversioned files start directly with the init-code table.
	Unversioned HeaderVariant = iota
	// NoLengthPrefixVersioned files start with the bare "VER" magic.
	NoLengthPrefixVersioned
	// LengthPrefixedVersioned files start with a 4-byte length of 9 followed by "VER".
	LengthPrefixedVersioned
)

const (
	probeSize         = 9
	versionRecordSize = 4
	codeRecordSize    = 8
	versionPrefixLen  = 9
)

var versionMagic = []byte("VER")

func (v HeaderVariant) String() string {
	switch v {
	case NoLengthPrefixVersioned:
		return "versioned"
	case LengthPrefixedVersioned:
		return "versioned-prefixed"
	default:
		return "unversioned"
	}
}

// versionTableStart returns where the version unknown-table count sits.
// ok is false for variants without a version block.
func (v HeaderVariant) versionTableStart() (offset int64, ok bool) {
	switch v {
	case NoLengthPrefixVersioned:
		return 9, true
	case LengthPrefixedVersioned:
		return 13, true
	default:
		return 0, false
	}
}

// Header describes where the string table of a container begins.
type Header struct {
	Variant           HeaderVariant
	StringTableOffset int64
}

// DetectVariant classifies buf by the magic bytes in its first 9 bytes.
// Buffers that match neither versioned shape are Unversioned.
func DetectVariant(buf []byte) HeaderVariant {
	probe := buf[:min(len(buf), probeSize)]

	switch {
	case bytes.HasPrefix(probe, versionMagic):
		return NoLengthPrefixVersioned
	case len(probe) >= 4+len(versionMagic) && probe[0] == versionPrefixLen &&
		bytes.Equal(probe[4:4+len(versionMagic)], versionMagic):
		return LengthPrefixedVersioned
	default:
		return Unversioned
	}
}

// Locate computes the offset of the string table in buf. It skips the
// version unknown-table (if the variant has one), the init-code table and the
// code table. Table contents are not interpreted.
func Locate(buf []byte) (Header, error) {
	h := Header{Variant: DetectVariant(buf)}
	r := bytes.NewReader(buf)

	if start, ok := h.Variant.versionTableStart(); ok {
		if _, err := r.Seek(start, io.SeekStart); err != nil {
			return h, fmt.Errorf("seek version table: %w", err)
		}
		if err := skipTable(r, versionRecordSize); err != nil {
			return h, fmt.Errorf("skip version table: %w", err)
		}
	}

	if err := skipTable(r, codeRecordSize); err != nil {
		return h, fmt.Errorf("skip init code table: %w", err)
	}
	if err := skipTable(r, codeRecordSize); err != nil {
		return h, fmt.Errorf("skip code table: %w", err)
	}

	pos, err := r.Seek(0, io.SeekCurrent)
	if err != nil {
		return h, fmt.Errorf("tell: %w", err)
	}
	h.StringTableOffset = pos
	return h, nil
}

// skipTable reads a record count and seeks past count*recordSize bytes.
func skipTable(r io.ReadSeeker, recordSize int64) error {
	count, err := readUint32(r)
	if err != nil {
		return ErrTruncatedHeader
	}
	if _, err := r.Seek(int64(count)*recordSize, io.SeekCurrent); err != nil {
		return err
	}
	return nil
}

func readUint32(r io.Reader) (uint32, error) {
	var b [4]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b[:]), nil
}
