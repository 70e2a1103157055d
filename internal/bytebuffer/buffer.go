// Package bytebuffer implements the fixed 512-octet DNS wire buffer: a
// bounds-checked big-endian cursor plus the name-compression scheme that
// lets DNS messages back-reference earlier domain names.
package bytebuffer

import (
	"errors"
	"strings"
	"unicode/utf8"
)

// Size is the fixed capacity of a DNS message over UDP.
const Size = 512

// maxJumps bounds the number of compression-pointer hops read_qname will
// follow before giving up. A visited-offset set would catch more exotic
// cycles, but a flat counter is O(1) space and legitimate messages never
// need more than one or two hops.
const maxJumps = 5

// maxLabelLen is the largest a single label may be on the wire (6 bits).
const maxLabelLen = 63

var (
	// ErrOutOfBounds is returned by any read or write that would cross
	// the 512-octet boundary.
	ErrOutOfBounds = errors.New("bytebuffer: out of bounds")

	// ErrJumpLimit is returned when decoding a name follows more than
	// maxJumps compression pointers.
	ErrJumpLimit = errors.New("bytebuffer: exceeded compression jump limit")

	// ErrLabelTooLong is returned when encoding a label longer than 63
	// octets.
	ErrLabelTooLong = errors.New("bytebuffer: label exceeds 63 octets")
)

// ByteBuffer is a fixed 512-octet array with a read/write cursor. It is a
// value container: the underlying bytes only change on writes, reads just
// advance pos.
type ByteBuffer struct {
	buf [Size]byte
	pos int
}

// New returns a zeroed buffer ready for writing.
func New() *ByteBuffer {
	return &ByteBuffer{}
}

// FromBytes copies up to Size octets of data into a fresh buffer, for
// decoding an inbound datagram. Extra bytes beyond Size are ignored.
func FromBytes(data []byte) *ByteBuffer {
	b := &ByteBuffer{}
	n := copy(b.buf[:], data)
	_ = n
	return b
}

// Bytes returns the portion of the buffer written so far (from 0 to the
// current position), suitable for sending on the wire.
func (b *ByteBuffer) Bytes() []byte {
	return b.buf[:b.pos]
}

// Pos returns the current cursor position.
func (b *ByteBuffer) Pos() int {
	return b.pos
}

// Seek sets the cursor to an absolute position.
func (b *ByteBuffer) Seek(pos int) error {
	if pos < 0 || pos > Size {
		return ErrOutOfBounds
	}
	b.pos = pos
	return nil
}

// Skip advances the cursor by n octets without reading them.
func (b *ByteBuffer) Skip(n int) error {
	return b.Seek(b.pos + n)
}

// Peek reads a single octet at an absolute position without moving the
// cursor.
func (b *ByteBuffer) Peek(pos int) (byte, error) {
	if pos < 0 || pos >= Size {
		return 0, ErrOutOfBounds
	}
	return b.buf[pos], nil
}

// PeekRange returns a view of len octets starting at pos without moving
// the cursor. A span ending exactly at Size is in bounds (see DESIGN.md
// for the off-by-one this corrects relative to the reference this package
// was grounded on).
func (b *ByteBuffer) PeekRange(start, length int) ([]byte, error) {
	if start < 0 || length < 0 || start+length > Size {
		return nil, ErrOutOfBounds
	}
	return b.buf[start : start+length], nil
}

// ReadU8 reads one octet and advances the cursor by one.
func (b *ByteBuffer) ReadU8() (byte, error) {
	if b.pos >= Size {
		return 0, ErrOutOfBounds
	}
	v := b.buf[b.pos]
	b.pos++
	return v, nil
}

// ReadU16 reads a big-endian uint16 and advances the cursor by two.
func (b *ByteBuffer) ReadU16() (uint16, error) {
	hi, err := b.ReadU8()
	if err != nil {
		return 0, err
	}
	lo, err := b.ReadU8()
	if err != nil {
		return 0, err
	}
	return uint16(hi)<<8 | uint16(lo), nil
}

// ReadU32 reads a big-endian uint32 and advances the cursor by four.
func (b *ByteBuffer) ReadU32() (uint32, error) {
	hi, err := b.ReadU16()
	if err != nil {
		return 0, err
	}
	lo, err := b.ReadU16()
	if err != nil {
		return 0, err
	}
	return uint32(hi)<<16 | uint32(lo), nil
}

// WriteU8 writes one octet and advances the cursor by one.
func (b *ByteBuffer) WriteU8(v byte) error {
	if b.pos >= Size {
		return ErrOutOfBounds
	}
	b.buf[b.pos] = v
	b.pos++
	return nil
}

// WriteU16 writes a big-endian uint16 and advances the cursor by two.
func (b *ByteBuffer) WriteU16(v uint16) error {
	if err := b.WriteU8(byte(v >> 8)); err != nil {
		return err
	}
	return b.WriteU8(byte(v))
}

// WriteU32 writes a big-endian uint32 and advances the cursor by four.
func (b *ByteBuffer) WriteU32(v uint32) error {
	if err := b.WriteU16(uint16(v >> 16)); err != nil {
		return err
	}
	return b.WriteU16(uint16(v))
}

// SetU16At overwrites a previously reserved two-octet span without moving
// the cursor. Used to back-patch RDLENGTH once a variable-length RDATA
// payload has been written.
func (b *ByteBuffer) SetU16At(pos int, v uint16) error {
	if pos < 0 || pos+2 > Size {
		return ErrOutOfBounds
	}
	b.buf[pos] = byte(v >> 8)
	b.buf[pos+1] = byte(v)
	return nil
}

// ReadBytes reads n raw octets and advances the cursor by n. Used for
// fixed-length RDATA payloads (A, AAAA) where no label structure applies.
func (b *ByteBuffer) ReadBytes(n int) ([]byte, error) {
	span, err := b.PeekRange(b.pos, n)
	if err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, span)
	b.pos += n
	return out, nil
}

// WriteBytes writes raw octets and advances the cursor by len(data).
func (b *ByteBuffer) WriteBytes(data []byte) error {
	for _, octet := range data {
		if err := b.WriteU8(octet); err != nil {
			return err
		}
	}
	return nil
}

// ReadQName decodes a possibly-compressed domain name starting at the
// cursor, lowercased, with labels joined by dots and no trailing dot.
// Compression pointers are followed up to maxJumps hops before giving up.
func (b *ByteBuffer) ReadQName() (string, error) {
	return b.readQName(true)
}

// ReadQNameCased decodes a name exactly like ReadQName but preserves the
// on-wire letter case of each label instead of lowercasing it. It exists
// for 0x20 case-entropy validation (internal/resolver), where the whole
// point is to observe whether a remote server echoed a query name's case
// unchanged; ordinary decoding always goes through ReadQName.
func (b *ByteBuffer) ReadQNameCased() (string, error) {
	return b.readQName(false)
}

func (b *ByteBuffer) readQName(lower bool) (string, error) {
	pos := b.pos
	jumped := false
	jumps := 0

	var labels []string

	for {
		if jumps > maxJumps {
			return "", ErrJumpLimit
		}

		length, err := b.Peek(pos)
		if err != nil {
			return "", err
		}

		if length&0xC0 == 0xC0 {
			if !jumped {
				if err := b.Seek(pos + 2); err != nil {
					return "", err
				}
				jumped = true
			}

			b2, err := b.Peek(pos + 1)
			if err != nil {
				return "", err
			}
			offset := (uint16(length) ^ 0xC0) << 8
			offset |= uint16(b2)
			pos = int(offset)

			jumps++
			continue
		}

		pos++
		if length == 0 {
			break
		}

		span, err := b.PeekRange(pos, int(length))
		if err != nil {
			return "", err
		}
		if lower {
			labels = append(labels, lowercaseLossy(span))
		} else {
			labels = append(labels, string(span))
		}
		pos += int(length)
	}

	if !jumped {
		if err := b.Seek(pos); err != nil {
			return "", err
		}
	}

	return strings.Join(labels, "."), nil
}

// lowercaseLossy mirrors String::from_utf8_lossy(...).to_lowercase(): any
// byte sequence that isn't valid UTF-8 becomes the replacement character,
// valid sequences are lowercased.
func lowercaseLossy(raw []byte) string {
	var out strings.Builder
	out.Grow(len(raw))

	for len(raw) > 0 {
		r, size := utf8.DecodeRune(raw)
		if r == utf8.RuneError && size <= 1 {
			out.WriteRune(utf8.RuneError)
			raw = raw[1:]
			continue
		}
		out.WriteString(strings.ToLower(string(r)))
		raw = raw[size:]
	}
	return out.String()
}

// WriteQName encodes a domain name as length-prefixed labels terminated by
// a zero octet. No compression is performed on outgoing names.
func (b *ByteBuffer) WriteQName(name string) error {
	if name == "" {
		return b.WriteU8(0)
	}

	for _, label := range strings.Split(name, ".") {
		if len(label) > maxLabelLen {
			return ErrLabelTooLong
		}
		if err := b.WriteU8(byte(len(label))); err != nil {
			return err
		}
		for i := 0; i < len(label); i++ {
			if err := b.WriteU8(label[i]); err != nil {
				return err
			}
		}
	}

	return b.WriteU8(0)
}
