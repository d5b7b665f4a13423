// Package encio holds the small binary encoding helpers shared by the
// string dictionary and model persistence formats (spec §6): fixed-width
// integers and length-prefixed byte strings, little-endian throughout.
package encio

import (
	"encoding/binary"
	"io"

	"github.com/juju/errors"
)

// WriteInt32 writes a little-endian int32.
func WriteInt32(w io.Writer, v int32) error {
	return errors.Trace(binary.Write(w, binary.LittleEndian, v))
}

// ReadInt32 reads a little-endian int32.
func ReadInt32(r io.Reader) (int32, error) {
	var v int32
	if err := binary.Read(r, binary.LittleEndian, &v); err != nil {
		return 0, errors.Trace(err)
	}
	return v, nil
}

// WriteFloat64 writes a little-endian float64.
func WriteFloat64(w io.Writer, v float64) error {
	return errors.Trace(binary.Write(w, binary.LittleEndian, v))
}

// ReadFloat64 reads a little-endian float64.
func ReadFloat64(r io.Reader) (float64, error) {
	var v float64
	if err := binary.Read(r, binary.LittleEndian, &v); err != nil {
		return 0, errors.Trace(err)
	}
	return v, nil
}

// WriteBytes writes a length-prefixed byte slice (int32 length then the raw
// bytes), matching the teacher's base/encoding.WriteBytes.
func WriteBytes(w io.Writer, data []byte) error {
	if err := WriteInt32(w, int32(len(data))); err != nil {
		return err
	}
	n, err := w.Write(data)
	if err != nil {
		return errors.Trace(err)
	}
	if n != len(data) {
		return errors.New("encio: short write")
	}
	return nil
}

// ReadBytes reads a length-prefixed byte slice.
func ReadBytes(r io.Reader) ([]byte, error) {
	length, err := ReadInt32(r)
	if err != nil {
		return nil, err
	}
	if length < 0 {
		return nil, errors.New("encio: negative length")
	}
	data := make([]byte, length)
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, errors.Trace(err)
	}
	return data, nil
}

// WriteString writes a length-prefixed string.
func WriteString(w io.Writer, s string) error {
	return WriteBytes(w, []byte(s))
}

// ReadString reads a length-prefixed string.
func ReadString(r io.Reader) (string, error) {
	data, err := ReadBytes(r)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
