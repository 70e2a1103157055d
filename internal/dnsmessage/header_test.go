package dnsmessage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dnsscience/resolverd/internal/bytebuffer"
)

func TestHeaderEncodeDecodeRoundTrip(t *testing.T) {
	h := Header{
		ID:               0x1337,
		RecursionDesired: true,
		QDCount:          1,
	}

	buf := bytebuffer.New()
	require.NoError(t, h.Encode(buf))

	want := []byte{0x13, 0x37, 0x01, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}
	assert.Equal(t, want, buf.Bytes())

	require.NoError(t, buf.Seek(0))
	var got Header
	require.NoError(t, got.Decode(buf))
	assert.Equal(t, h, got)
}

func TestHeaderFlagsRoundTrip(t *testing.T) {
	h := Header{
		ID:                  42,
		Response:            true,
		Opcode:              2,
		AuthoritativeAnswer: true,
		Truncated:           true,
		RecursionDesired:    true,
		RecursionAvailable:  true,
		Z:                   true,
		AuthedData:          true,
		CheckingDisabled:    true,
		Rescode:             NXDOMAIN,
		QDCount:             1,
		ANCount:             2,
		NSCount:             3,
		ARCount:             4,
	}

	buf := bytebuffer.New()
	require.NoError(t, h.Encode(buf))
	require.NoError(t, buf.Seek(0))

	var got Header
	require.NoError(t, got.Decode(buf))
	assert.Equal(t, h, got)
}

func TestResultCodeFromNumFoldsUnknownToNoError(t *testing.T) {
	assert.Equal(t, NOERROR, ResultCodeFromNum(15))
	assert.Equal(t, NXDOMAIN, ResultCodeFromNum(3))
}
