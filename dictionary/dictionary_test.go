package dictionary

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAddFindGet(t *testing.T) {
	d := New()
	id1 := d.Add("base")
	id2 := d.Add("props")
	id3 := d.Add("base")
	assert.Equal(t, id1, id3)
	assert.NotEqual(t, id1, id2)

	assert.Equal(t, id1, d.Find("base"))
	assert.Equal(t, AbsentId, d.Find("missing"))

	s, ok := d.Get(id2)
	assert.True(t, ok)
	assert.Equal(t, "props", s)

	_, ok = d.Get(1000)
	assert.False(t, ok)
}

func TestEnumerate(t *testing.T) {
	d := New()
	d.Add("a")
	d.Add("b")
	entries := d.Enumerate()
	assert.Equal(t, []Entry{{Id: 0, String: "a"}, {Id: 1, String: "b"}}, entries)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	d := New()
	d.Add("base")
	d.Add("props")
	d.Add("split")

	var buf bytes.Buffer
	assert.NoError(t, d.Save(&buf))

	loaded, err := Load(&buf)
	assert.NoError(t, err)
	assert.Equal(t, d.Enumerate(), loaded.Enumerate())
	assert.Equal(t, d.Count(), loaded.Count())
}

func TestLoadRejectsUnterminatedString(t *testing.T) {
	var buf bytes.Buffer
	buf.Write([]byte{3, 0, 0, 0})
	buf.Write([]byte("abc"))
	buf.Write([]byte{0, 0, 0, 0})
	_, err := Load(&buf)
	assert.Error(t, err)
}
