package resolver

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/dchest/siphash"
)

// TransactionID generates a cryptographically random 16-bit query ID.
// math/rand must never be used here: a predictable ID is half of what an
// off-path attacker needs to spoof a response.
func TransactionID() uint16 {
	var buf [2]byte
	if _, err := rand.Read(buf[:]); err != nil {
		panic(fmt.Sprintf("resolver: crypto/rand failed: %v", err))
	}
	return binary.BigEndian.Uint16(buf[:])
}

// CaseEncoder applies 0x20 case randomization (draft-vixie-dnsext-dns0x20)
// to outbound query names and validates that a response echoes the exact
// case it was sent with. Unlike a per-letter crypto/rand coin flip, the
// case pattern is derived from a SipHash of the name keyed by a random
// secret drawn when the encoder is created: deterministic for a given name
// for the lifetime of one encoder, so
// the exact pattern sent can be recomputed and checked against the
// response without having to stash it per in-flight query.
type CaseEncoder struct {
	k0, k1 uint64
}

// NewCaseEncoder derives a fresh random SipHash key.
func NewCaseEncoder() (*CaseEncoder, error) {
	var keyBuf [16]byte
	if _, err := rand.Read(keyBuf[:]); err != nil {
		return nil, fmt.Errorf("resolver: seed case encoder: %w", err)
	}
	return &CaseEncoder{
		k0: binary.LittleEndian.Uint64(keyBuf[0:8]),
		k1: binary.LittleEndian.Uint64(keyBuf[8:16]),
	}, nil
}

// Encode returns name with each ASCII letter's case set by one bit of a
// SipHash-2-4 digest over the lowercased name; other runes are left
// lowercased.
func (c *CaseEncoder) Encode(name string) string {
	lower := strings.ToLower(name)
	h := siphash.Hash(c.k0, c.k1, []byte(lower))

	var out strings.Builder
	out.Grow(len(lower))

	bit := uint(0)
	for _, r := range lower {
		if r >= 'a' && r <= 'z' {
			if (h>>(bit%64))&1 == 1 {
				out.WriteRune(r - 32)
			} else {
				out.WriteRune(r)
			}
			bit++
			continue
		}
		out.WriteRune(r)
	}
	return out.String()
}

// ValidateEcho reports whether response echoes query's case pattern
// exactly, the case-sensitive equality check draft-vixie-dnsext-dns0x20
// relies on to detect off-path spoofing. It takes no encoder state because
// the check is a plain comparison; callers that only need validation (such
// as checkEchoedCase in transport.go, which inspects raw wire bytes in the
// transport layer and holds no encoder) can use it directly.
func ValidateEcho(query, response string) bool {
	return query == response
}
