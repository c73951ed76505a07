package container

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"golang.org/x/text/encoding/unicode"
)

// ReadEntry reads one length-prefixed string record from r.
//
// The length field counts a trailing NUL when one is present; the NUL is not
// part of the returned text. Invalid UTF-8 is replaced with U+FFFD. ok is
// false when r is exhausted before a complete record could be read, which
// marks the end of the table.
func ReadEntry(r io.Reader) (text string, ok bool, err error) {
	length, err := readUint32(r)
	if err != nil {
		if isShortRead(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("read entry length: %w", err)
	}
	if length == 0 {
		return "", true, nil
	}

	// The buffer grows with the bytes actually read, not with the length field.
	var b bytes.Buffer
	if _, err := io.CopyN(&b, r, int64(length)); err != nil {
		if isShortRead(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("read entry data: %w", err)
	}
	data := b.Bytes()
	if data[len(data)-1] == 0 {
		data = data[:len(data)-1]
	}

	return decodeText(data), true, nil
}

// WriteEntry writes text as a record whose length covers the UTF-8 bytes plus
// a NUL terminator. An empty string is written with length 1.
func WriteEntry(w io.Writer, text string) error {
	buf := make([]byte, 4+len(text)+1)
	binary.LittleEndian.PutUint32(buf, uint32(len(text)+1))
	copy(buf[4:], text)

	if _, err := w.Write(buf); err != nil {
		return fmt.Errorf("write entry: %w", err)
	}
	return nil
}

func decodeText(data []byte) string {
	out, err := unicode.UTF8.NewDecoder().Bytes(data)
	if err != nil {
		// Not reached: the UTF-8 decoder substitutes U+FFFD.
		return string(data)
	}
	return string(out)
}

func isShortRead(err error) bool {
	return errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF)
}
