package dnsmessage

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dnsscience/resolverd/internal/bytebuffer"
)

func TestDecodeARecord(t *testing.T) {
	buf := bytebuffer.New()
	require.NoError(t, buf.WriteQName("example.com"))
	require.NoError(t, buf.WriteU16(QTypeA.ToNum()))
	require.NoError(t, buf.WriteU16(classIN))
	require.NoError(t, buf.WriteU32(3600))
	require.NoError(t, buf.WriteU16(4))
	require.NoError(t, buf.WriteBytes([]byte{8, 8, 8, 8}))

	require.NoError(t, buf.Seek(0))
	rec, err := DecodeRecord(buf)
	require.NoError(t, err)

	a, ok := rec.(ARecord)
	require.True(t, ok)
	assert.Equal(t, "example.com", a.Domain())
	assert.Equal(t, uint32(3600), a.TTL())
	assert.Equal(t, QTypeA, a.Type())
	assert.True(t, net.IPv4(8, 8, 8, 8).Equal(a.Addr))
}

func TestEncodeARecordRoundTrip(t *testing.T) {
	rec := ARecord{DomainName: "example.com", TTLValue: 300, Addr: net.IPv4(1, 2, 3, 4)}

	buf := bytebuffer.New()
	require.NoError(t, EncodeRecord(buf, rec))
	require.NoError(t, buf.Seek(0))

	decoded, err := DecodeRecord(buf)
	require.NoError(t, err)
	assert.Equal(t, rec, decoded)
}

func TestEncodeAAAARecordRoundTrip(t *testing.T) {
	ip := net.ParseIP("2001:4860:4860::8888")
	rec := AAAARecord{DomainName: "example.com", TTLValue: 300, Addr: ip}

	buf := bytebuffer.New()
	require.NoError(t, EncodeRecord(buf, rec))
	require.NoError(t, buf.Seek(0))

	decoded, err := DecodeRecord(buf)
	require.NoError(t, err)
	a, ok := decoded.(AAAARecord)
	require.True(t, ok)
	assert.True(t, ip.Equal(a.Addr))
}

func TestEncodeNSRecordBackpatchesRDLENGTH(t *testing.T) {
	rec := NSRecord{DomainName: "example.com", TTLValue: 3600, Host: "ns1.example.com"}

	buf := bytebuffer.New()
	require.NoError(t, EncodeRecord(buf, rec))
	require.NoError(t, buf.Seek(0))

	decoded, err := DecodeRecord(buf)
	require.NoError(t, err)
	assert.Equal(t, rec, decoded)
}

func TestEncodeMXRecordRoundTrip(t *testing.T) {
	rec := MXRecord{DomainName: "example.com", TTLValue: 3600, Priority: 10, Host: "mail.example.com"}

	buf := bytebuffer.New()
	require.NoError(t, EncodeRecord(buf, rec))
	require.NoError(t, buf.Seek(0))

	decoded, err := DecodeRecord(buf)
	require.NoError(t, err)
	assert.Equal(t, rec, decoded)
}

func TestDecodeUnknownRecordSkipsRDATA(t *testing.T) {
	buf := bytebuffer.New()
	require.NoError(t, buf.WriteQName("example.com"))
	require.NoError(t, buf.WriteU16(99))
	require.NoError(t, buf.WriteU16(classIN))
	require.NoError(t, buf.WriteU32(3600))
	require.NoError(t, buf.WriteU16(3))
	require.NoError(t, buf.WriteBytes([]byte{1, 2, 3}))
	require.NoError(t, buf.WriteU8(0xFF)) // trailing octet must be untouched

	require.NoError(t, buf.Seek(0))
	rec, err := DecodeRecord(buf)
	require.NoError(t, err)

	u, ok := rec.(UnknownRecord)
	require.True(t, ok)
	assert.Equal(t, uint16(99), u.QType)
	assert.Equal(t, uint16(3), u.DataLen)

	next, err := buf.ReadU8()
	require.NoError(t, err)
	assert.Equal(t, byte(0xFF), next)
}

func TestEncodeUnknownRecordIsDropped(t *testing.T) {
	buf := bytebuffer.New()
	err := EncodeRecord(buf, UnknownRecord{DomainName: "example.com", QType: 99})
	require.NoError(t, err)
	assert.Equal(t, 0, buf.Pos())
}
