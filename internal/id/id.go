package id

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// UUID returns a random (v4) UUID string.
func UUID() string {
	return uuid.NewString()
}

// Short returns a 16 character random hex string.
func Short() string {
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// Crockford base32, no I L O U.
const ulidAlphabet = "0123456789ABCDEFGHJKMNPQRSTVWXYZ"

var (
	ulidMu     sync.Mutex
	ulidLastMs int64
	ulidSeq    uint16
)

// ULID returns a new ULID. IDs generated within the same millisecond by this
// process carry an increasing sequence in their random part.
func ULID() string {
	ulidMu.Lock()
	now := time.Now().UnixMilli()
	if now == ulidLastMs {
		ulidSeq++
	} else {
		ulidLastMs = now
		ulidSeq = 0
	}
	seq := ulidSeq
	ulidMu.Unlock()

	var entropy [10]byte
	_, _ = rand.Read(entropy[:])
	entropy[0] ^= byte(seq >> 8)
	entropy[1] ^= byte(seq)
	return encodeULID(now, entropy)
}

// encodeULID packs 48 bits of time and 80 bits of entropy into 26 base32 chars.
func encodeULID(ms int64, entropy [10]byte) string {
	out := make([]byte, 26)
	t := uint64(ms)
	for i := 9; i >= 0; i-- {
		out[i] = ulidAlphabet[t&0x1F]
		t >>= 5
	}

	// 80 bits -> 16 chars, consumed 5 bits at a time from the most significant end.
	var acc uint64
	bits := 0
	pos := 10
	for _, b := range entropy {
		acc = acc<<8 | uint64(b)
		bits += 8
		for bits >= 5 {
			bits -= 5
			out[pos] = ulidAlphabet[(acc>>uint(bits))&0x1F]
			pos++
		}
	}
	return string(out)
}

// ULIDTime extracts the timestamp component of a ULID.
func ULIDTime(s string) (time.Time, error) {
	if len(s) != 26 {
		return time.Time{}, fmt.Errorf("invalid ULID length %d", len(s))
	}
	var ms int64
	for i := 0; i < 10; i++ {
		v := decodeULIDChar(s[i])
		if v < 0 {
			return time.Time{}, fmt.Errorf("invalid ULID character %q at position %d", s[i], i)
		}
		ms = ms<<5 | int64(v)
	}
	return time.UnixMilli(ms), nil
}

// IsValidULID reports whether s is a syntactically valid ULID.
func IsValidULID(s string) bool {
	if len(s) != 26 {
		return false
	}
	for i := 0; i < len(s); i++ {
		if decodeULIDChar(s[i]) < 0 {
			return false
		}
	}
	return true
}

func decodeULIDChar(c byte) int {
	for i := 0; i < len(ulidAlphabet); i++ {
		if ulidAlphabet[i] == c {
			return i
		}
	}
	return -1
}
