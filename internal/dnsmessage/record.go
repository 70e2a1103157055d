package dnsmessage

import (
	"errors"
	"net"

	"github.com/dnsscience/resolverd/internal/bytebuffer"
)

// ErrUnsupportedRecord is returned when encoding a Record implementation
// this package didn't produce itself.
var ErrUnsupportedRecord = errors.New("dnsmessage: unsupported record type")

// Record is the closed set of resource record payloads this resolver
// understands: one concrete struct per wire type, carrying exactly the
// fields its own encode/decode needs.
type Record interface {
	Domain() string
	TTL() uint32
	Type() QueryType
}

// ARecord is a QTYPE A (RDATA = 4-octet IPv4 address).
type ARecord struct {
	DomainName string
	TTLValue   uint32
	Addr       net.IP
}

func (r ARecord) Domain() string   { return r.DomainName }
func (r ARecord) TTL() uint32      { return r.TTLValue }
func (r ARecord) Type() QueryType  { return QTypeA }

// NSRecord is a QTYPE NS (RDATA = compressed name).
type NSRecord struct {
	DomainName string
	TTLValue   uint32
	Host       string
}

func (r NSRecord) Domain() string  { return r.DomainName }
func (r NSRecord) TTL() uint32     { return r.TTLValue }
func (r NSRecord) Type() QueryType { return QTypeNS }

// CNAMERecord is a QTYPE CNAME (RDATA = compressed name).
type CNAMERecord struct {
	DomainName string
	TTLValue   uint32
	Host       string
}

func (r CNAMERecord) Domain() string  { return r.DomainName }
func (r CNAMERecord) TTL() uint32     { return r.TTLValue }
func (r CNAMERecord) Type() QueryType { return QTypeCNAME }

// MXRecord is a QTYPE MX (RDATA = priority + compressed name).
type MXRecord struct {
	DomainName string
	TTLValue   uint32
	Priority   uint16
	Host       string
}

func (r MXRecord) Domain() string  { return r.DomainName }
func (r MXRecord) TTL() uint32     { return r.TTLValue }
func (r MXRecord) Type() QueryType { return QTypeMX }

// AAAARecord is a QTYPE AAAA (RDATA = 16-octet IPv6 address).
type AAAARecord struct {
	DomainName string
	TTLValue   uint32
	Addr       net.IP
}

func (r AAAARecord) Domain() string  { return r.DomainName }
func (r AAAARecord) TTL() uint32     { return r.TTLValue }
func (r AAAARecord) Type() QueryType { return QTypeAAAA }

// UnknownRecord is any QTYPE this resolver doesn't have native support for.
// Its RDATA is skipped on decode, not retained.
type UnknownRecord struct {
	DomainName string
	TTLValue   uint32
	QType      uint16
	DataLen    uint16
}

func (r UnknownRecord) Domain() string  { return r.DomainName }
func (r UnknownRecord) TTL() uint32     { return r.TTLValue }
func (r UnknownRecord) Type() QueryType { return QueryTypeFromNum(r.QType) }

// DecodeRecord reads NAME/TYPE/CLASS/TTL/RDLENGTH and then dispatches on
// TYPE to decode the type-specific RDATA.
func DecodeRecord(buf *bytebuffer.ByteBuffer) (Record, error) {
	domain, err := buf.ReadQName()
	if err != nil {
		return nil, err
	}

	qtypeNum, err := buf.ReadU16()
	if err != nil {
		return nil, err
	}
	if _, err := buf.ReadU16(); err != nil { // CLASS, ignored
		return nil, err
	}
	ttl, err := buf.ReadU32()
	if err != nil {
		return nil, err
	}
	rdlength, err := buf.ReadU16()
	if err != nil {
		return nil, err
	}

	switch QueryTypeFromNum(qtypeNum) {
	case QTypeA:
		raw, err := buf.ReadBytes(4)
		if err != nil {
			return nil, err
		}
		return ARecord{DomainName: domain, TTLValue: ttl, Addr: net.IPv4(raw[0], raw[1], raw[2], raw[3])}, nil

	case QTypeNS:
		host, err := buf.ReadQName()
		if err != nil {
			return nil, err
		}
		return NSRecord{DomainName: domain, TTLValue: ttl, Host: host}, nil

	case QTypeCNAME:
		host, err := buf.ReadQName()
		if err != nil {
			return nil, err
		}
		return CNAMERecord{DomainName: domain, TTLValue: ttl, Host: host}, nil

	case QTypeMX:
		priority, err := buf.ReadU16()
		if err != nil {
			return nil, err
		}
		host, err := buf.ReadQName()
		if err != nil {
			return nil, err
		}
		return MXRecord{DomainName: domain, TTLValue: ttl, Priority: priority, Host: host}, nil

	case QTypeAAAA:
		raw, err := buf.ReadBytes(16)
		if err != nil {
			return nil, err
		}
		return AAAARecord{DomainName: domain, TTLValue: ttl, Addr: net.IP(raw)}, nil

	default:
		if err := buf.Skip(int(rdlength)); err != nil {
			return nil, err
		}
		return UnknownRecord{DomainName: domain, TTLValue: ttl, QType: qtypeNum, DataLen: rdlength}, nil
	}
}

// EncodeRecord writes NAME/TYPE/CLASS=IN/TTL/RDLENGTH/RDATA for every
// record type except UnknownRecord, which is silently dropped — this
// resolver never synthesizes outbound UNKNOWN records.
func EncodeRecord(buf *bytebuffer.ByteBuffer, rec Record) error {
	switch r := rec.(type) {
	case ARecord:
		if err := writeRRHeader(buf, r.DomainName, QTypeA, r.TTLValue); err != nil {
			return err
		}
		if err := buf.WriteU16(4); err != nil {
			return err
		}
		v4 := r.Addr.To4()
		return buf.WriteBytes(v4)

	case NSRecord:
		return writeVariableRR(buf, r.DomainName, QTypeNS, r.TTLValue, func() error {
			return buf.WriteQName(r.Host)
		})

	case CNAMERecord:
		return writeVariableRR(buf, r.DomainName, QTypeCNAME, r.TTLValue, func() error {
			return buf.WriteQName(r.Host)
		})

	case MXRecord:
		return writeVariableRR(buf, r.DomainName, QTypeMX, r.TTLValue, func() error {
			if err := buf.WriteU16(r.Priority); err != nil {
				return err
			}
			return buf.WriteQName(r.Host)
		})

	case AAAARecord:
		if err := writeRRHeader(buf, r.DomainName, QTypeAAAA, r.TTLValue); err != nil {
			return err
		}
		if err := buf.WriteU16(16); err != nil {
			return err
		}
		v6 := r.Addr.To16()
		return buf.WriteBytes(v6)

	case UnknownRecord:
		return nil

	default:
		return ErrUnsupportedRecord
	}
}

func writeRRHeader(buf *bytebuffer.ByteBuffer, domain string, qtype QueryType, ttl uint32) error {
	if err := buf.WriteQName(domain); err != nil {
		return err
	}
	if err := buf.WriteU16(qtype.ToNum()); err != nil {
		return err
	}
	if err := buf.WriteU16(classIN); err != nil {
		return err
	}
	return buf.WriteU32(ttl)
}

// writeVariableRR writes the common RR header, reserves a two-octet
// RDLENGTH placeholder, runs writeRData to emit the payload, then
// back-patches RDLENGTH to the payload's actual size.
func writeVariableRR(buf *bytebuffer.ByteBuffer, domain string, qtype QueryType, ttl uint32, writeRData func() error) error {
	if err := writeRRHeader(buf, domain, qtype, ttl); err != nil {
		return err
	}

	lenPos := buf.Pos()
	if err := buf.WriteU16(0); err != nil {
		return err
	}

	if err := writeRData(); err != nil {
		return err
	}

	size := buf.Pos() - (lenPos + 2)
	return buf.SetU16At(lenPos, uint16(size))
}
