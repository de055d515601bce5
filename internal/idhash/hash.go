// Package idhash defines the 256-bit block/transaction identifier shared
// by both analyzer pipelines, grounded on the teacher pack's
// domain/consensus/model/externalapi.DomainHash: a fixed-size byte array
// with hex (de)serialization rather than a variable-length []byte, so it
// can be used directly as a map key.
package idhash

import (
	"encoding/hex"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// Size is the number of bytes in an H256.
const Size = 32

// H256 is a 256-bit block or transaction identifier.
type H256 [Size]byte

// String renders the hash as a "0x"-prefixed lowercase hex string.
func (h H256) String() string {
	return "0x" + hex.EncodeToString(h[:])
}

// Equal reports whether h equals other.
func (h H256) Equal(other H256) bool { return h == other }

// IsZero reports whether h is the all-zero identifier (used for the
// synthetic genesis parent sentinel).
func (h H256) IsZero() bool { return h == H256{} }

// ParseH256 parses a hex string, with or without a "0x" prefix, into an
// H256. It returns an unclassified error on malformed input or a length
// other than Size bytes; callers wrap it as errs.FormatError.
func ParseH256(s string) (H256, error) {
	s = strings.TrimPrefix(s, "0x")
	s = strings.TrimPrefix(s, "0X")
	var h H256
	decoded, err := hex.DecodeString(s)
	if err != nil {
		return h, errors.Wrapf(err, "invalid hash %q", s)
	}
	if len(decoded) != Size {
		return h, errors.Errorf("invalid hash %q: want %d bytes, got %d", s, Size, len(decoded))
	}
	copy(h[:], decoded)
	return h, nil
}

// SortedSet returns a copy of hashes sorted ascending by byte value, used
// wherever the spec requires a "sorted set<H256>" (referee hashes, epoch
// sets).
func SortedSet(hashes []H256) []H256 {
	out := make([]H256, len(hashes))
	copy(out, hashes)
	sort.Slice(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

func less(a, b H256) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}
