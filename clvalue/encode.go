package clvalue

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

func writeU32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

// writeString writes the canonical string encoding: u32 length prefix plus the
// UTF-8 bytes.
func writeString(buf *bytes.Buffer, s string) {
	writeU32(buf, uint32(len(s)))
	buf.WriteString(s)
}

func readU32(r *bytes.Reader) (uint32, error) {
	var b [4]byte
	if _, err := readFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b[:]), nil
}

func readString(r *bytes.Reader) (string, error) {
	length, err := readU32(r)
	if err != nil {
		return "", fmt.Errorf("reading string length: %w", err)
	}
	b := make([]byte, length)
	if _, err := readFull(r, b); err != nil {
		return "", fmt.Errorf("reading string bytes: %w", err)
	}
	return string(b), nil
}

func readFull(r *bytes.Reader, b []byte) (int, error) {
	n, err := io.ReadFull(r, b)
	if err == io.ErrUnexpectedEOF {
		err = io.EOF
	}
	return n, err
}

func skip(r *bytes.Reader, n int) error {
	if r.Len() < n {
		return io.EOF
	}
	_, err := r.Seek(int64(n), io.SeekCurrent)
	return err
}
