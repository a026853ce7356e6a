package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrefixEnd(t *testing.T) {
	assert.Equal(t, []byte{0x03, 0x00, 0x04}, PrefixEnd([]byte{0x03, 0x00, 0x03}))
	assert.Equal(t, []byte{0x04}, PrefixEnd([]byte{0x03, 0xff}))
	assert.Nil(t, PrefixEnd([]byte{0xff, 0xff}))
	assert.Nil(t, PrefixEnd(nil))
}

func TestOpenUnknownBackend(t *testing.T) {
	_, err := Open("does-not-exist", t.TempDir())
	assert.ErrorIs(t, err, ErrUnknownBackend)
}
