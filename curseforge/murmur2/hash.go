// Package murmur2 computes the fingerprints CurseForge uses to identify files.
package murmur2

import (
	"encoding/binary"
	"hash"
	"io"

	"github.com/aviddiviner/go-murmur"
)

const seed = 1

type fingerprint struct {
	// murmur2 mixes the input length into its initial state, so the input is buffered until Sum
	data []byte
}

// New returns a hash computing CurseForge fingerprints: murmur2 with seed 1 over the input with tabs, newlines,
// carriage returns and spaces removed
func New() hash.Hash32 {
	return &fingerprint{}
}

func skipped(b byte) bool {
	switch b {
	case '\t', '\n', '\r', ' ':
		return true
	}
	return false
}

func (f *fingerprint) Write(p []byte) (int, error) {
	for _, b := range p {
		if !skipped(b) {
			f.data = append(f.data, b)
		}
	}
	return len(p), nil
}

func (f *fingerprint) Sum32() uint32       { return murmur.MurmurHash2(f.data, seed) }
func (f *fingerprint) Sum(b []byte) []byte { return binary.BigEndian.AppendUint32(b, f.Sum32()) }
func (f *fingerprint) Reset()              { f.data = f.data[:0] }
func (f *fingerprint) Size() int           { return 4 }
func (f *fingerprint) BlockSize() int      { return 4 }

// Fingerprint reads r to the end and returns its CurseForge fingerprint.
func Fingerprint(r io.Reader) (uint32, error) {
	h := New()
	if _, err := io.Copy(h, r); err != nil {
		return 0, err
	}
	return h.Sum32(), nil
}
