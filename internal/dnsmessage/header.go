// Package dnsmessage is the typed representation of a DNS message: header
// flags, questions, and the answer / authority / additional record
// sections, plus the codec that moves them to and from an on-wire
// bytebuffer.ByteBuffer.
package dnsmessage

import "github.com/dnsscience/resolverd/internal/bytebuffer"

// ResultCode is the 4-bit RCODE field of the header.
type ResultCode uint8

const (
	NOERROR  ResultCode = 0
	FORMERR  ResultCode = 1
	SERVFAIL ResultCode = 2
	NXDOMAIN ResultCode = 3
	NOTIMP   ResultCode = 4
	REFUSED  ResultCode = 5
)

// ResultCodeFromNum maps a 4-bit RCODE off the wire to a ResultCode.
// Unknown values fold to NOERROR: a code outside 0-5 is treated the same
// as "no error" rather than rejected.
func ResultCodeFromNum(n uint8) ResultCode {
	switch n {
	case 1:
		return FORMERR
	case 2:
		return SERVFAIL
	case 3:
		return NXDOMAIN
	case 4:
		return NOTIMP
	case 5:
		return REFUSED
	default:
		return NOERROR
	}
}

func (r ResultCode) String() string {
	switch r {
	case FORMERR:
		return "FORMERR"
	case SERVFAIL:
		return "SERVFAIL"
	case NXDOMAIN:
		return "NXDOMAIN"
	case NOTIMP:
		return "NOTIMP"
	case REFUSED:
		return "REFUSED"
	default:
		return "NOERROR"
	}
}

// Header is the fixed 12-octet DNS message preamble.
type Header struct {
	ID uint16

	Response            bool
	Opcode              uint8
	AuthoritativeAnswer bool
	Truncated           bool
	RecursionDesired    bool
	RecursionAvailable  bool
	Z                   bool
	AuthedData          bool
	CheckingDisabled    bool
	Rescode             ResultCode

	QDCount uint16
	ANCount uint16
	NSCount uint16
	ARCount uint16
}

// Decode reads the 12-octet header from buf.
func (h *Header) Decode(buf *bytebuffer.ByteBuffer) error {
	id, err := buf.ReadU16()
	if err != nil {
		return err
	}
	h.ID = id

	a, err := buf.ReadU8()
	if err != nil {
		return err
	}
	b, err := buf.ReadU8()
	if err != nil {
		return err
	}

	h.RecursionDesired = a&(1<<0) != 0
	h.Truncated = a&(1<<1) != 0
	h.AuthoritativeAnswer = a&(1<<2) != 0
	h.Opcode = (a >> 3) & 0x0F
	h.Response = a&(1<<7) != 0

	h.Rescode = ResultCodeFromNum(b & 0x0F)
	h.CheckingDisabled = b&(1<<4) != 0
	h.AuthedData = b&(1<<5) != 0
	h.Z = b&(1<<6) != 0
	h.RecursionAvailable = b&(1<<7) != 0

	if h.QDCount, err = buf.ReadU16(); err != nil {
		return err
	}
	if h.ANCount, err = buf.ReadU16(); err != nil {
		return err
	}
	if h.NSCount, err = buf.ReadU16(); err != nil {
		return err
	}
	if h.ARCount, err = buf.ReadU16(); err != nil {
		return err
	}
	return nil
}

// Encode writes the 12-octet header to buf.
func (h *Header) Encode(buf *bytebuffer.ByteBuffer) error {
	if err := buf.WriteU16(h.ID); err != nil {
		return err
	}

	a := boolBit(h.RecursionDesired, 0) |
		boolBit(h.Truncated, 1) |
		boolBit(h.AuthoritativeAnswer, 2) |
		(h.Opcode << 3) |
		boolBit(h.Response, 7)
	if err := buf.WriteU8(a); err != nil {
		return err
	}

	b := byte(h.Rescode) |
		boolBit(h.CheckingDisabled, 4) |
		boolBit(h.AuthedData, 5) |
		boolBit(h.Z, 6) |
		boolBit(h.RecursionAvailable, 7)
	if err := buf.WriteU8(b); err != nil {
		return err
	}

	if err := buf.WriteU16(h.QDCount); err != nil {
		return err
	}
	if err := buf.WriteU16(h.ANCount); err != nil {
		return err
	}
	if err := buf.WriteU16(h.NSCount); err != nil {
		return err
	}
	return buf.WriteU16(h.ARCount)
}

func boolBit(v bool, shift uint8) byte {
	if v {
		return 1 << shift
	}
	return 0
}
