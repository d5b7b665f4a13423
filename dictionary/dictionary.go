// Package dictionary implements C1, the string dictionary: interning of
// arbitrary strings to dense non-negative integer ids, with exact
// persistence to the `<prefix>_strings` model file (spec §6).
package dictionary

import (
	"bytes"
	"io"
	"sync"

	"github.com/eth-sri/nice2predict/encio"
	"github.com/juju/errors"
)

// Id is the type of an interned string's integer identity.
type Id = int32

// AbsentId marks "not interned" for Find.
const AbsentId Id = -1

// Dictionary interns strings to dense ids and back. It is safe for
// concurrent Find/Get/Enumerate calls; Add takes a short exclusive lock,
// mirroring the "frozen during any epoch" lifecycle of spec §5.
type Dictionary struct {
	mu      sync.RWMutex
	strings []string
	index   map[string]Id
}

// New creates an empty dictionary.
func New() *Dictionary {
	return &Dictionary{
		index: make(map[string]Id),
	}
}

// Add interns s, returning its existing id if already present or a freshly
// allocated one otherwise.
func (d *Dictionary) Add(s string) Id {
	d.mu.Lock()
	defer d.mu.Unlock()
	if id, ok := d.index[s]; ok {
		return id
	}
	id := Id(len(d.strings))
	d.strings = append(d.strings, s)
	d.index[s] = id
	return id
}

// Find looks up s without inserting it, returning AbsentId if not interned.
func (d *Dictionary) Find(s string) Id {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if id, ok := d.index[s]; ok {
		return id
	}
	return AbsentId
}

// Get retrieves the string for id. The second return is false if id is out
// of range.
func (d *Dictionary) Get(id Id) (string, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if id < 0 || int(id) >= len(d.strings) {
		return "", false
	}
	return d.strings[id], true
}

// Count returns the number of interned strings.
func (d *Dictionary) Count() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.strings)
}

// Entry is one (id, string) pair produced by Enumerate.
type Entry struct {
	Id     Id
	String string
}

// Enumerate returns every interned (id, string) pair in insertion order.
func (d *Dictionary) Enumerate() []Entry {
	d.mu.RLock()
	defer d.mu.RUnlock()
	entries := make([]Entry, len(d.strings))
	for i, s := range d.strings {
		entries[i] = Entry{Id: Id(i), String: s}
	}
	return entries
}

// Save persists the dictionary bit-exact: int32 data_size, data_size bytes
// of NUL-terminated strings in insertion order, then an int32 hash_size
// hint (the reader always rebuilds its own hash index).
func (d *Dictionary) Save(w io.Writer) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	var buf bytes.Buffer
	for _, s := range d.strings {
		buf.WriteString(s)
		buf.WriteByte(0)
	}
	if err := encio.WriteInt32(w, int32(buf.Len())); err != nil {
		return errors.Trace(err)
	}
	if _, err := w.Write(buf.Bytes()); err != nil {
		return errors.Trace(err)
	}
	if err := encio.WriteInt32(w, int32(len(d.strings))); err != nil {
		return errors.Trace(err)
	}
	return nil
}

// Load restores a dictionary previously written by Save, rebuilding the
// hash index from scratch.
func Load(r io.Reader) (*Dictionary, error) {
	dataSize, err := encio.ReadInt32(r)
	if err != nil {
		return nil, errors.Trace(err)
	}
	data := make([]byte, dataSize)
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, errors.Trace(err)
	}
	// hash_size is a hint only; consume and discard it.
	if _, err := encio.ReadInt32(r); err != nil {
		return nil, errors.Trace(err)
	}
	d := New()
	for len(data) > 0 {
		i := bytes.IndexByte(data, 0)
		if i < 0 {
			return nil, errors.New("dictionary: unterminated string in strings file")
		}
		d.Add(string(data[:i]))
		data = data[i+1:]
	}
	return d, nil
}
