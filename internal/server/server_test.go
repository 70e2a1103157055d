package server

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dnsscience/resolverd/internal/bytebuffer"
	"github.com/dnsscience/resolverd/internal/dnsmessage"
	"github.com/dnsscience/resolverd/internal/resolver"
)

// stubTransport returns the same rescode and answers (and no authorities)
// from whatever nameserver is asked, so Resolve() terminates in a single
// round trip regardless of qname.
type stubTransport struct {
	rescode dnsmessage.ResultCode
	answers []dnsmessage.Record
}

func (s *stubTransport) Exchange(_ context.Context, _ net.IP, query *dnsmessage.Message) (*dnsmessage.Message, error) {
	return &dnsmessage.Message{
		Header:    dnsmessage.Header{ID: query.Header.ID, Rescode: s.rescode},
		Questions: query.Questions,
		Answers:   s.answers,
	}, nil
}

func newTestServer(t *testing.T, transport resolver.Transport) *Server {
	t.Helper()
	cfg := resolver.DefaultConfig()
	cfg.Enable0x20 = false
	res, err := resolver.New(cfg, transport)
	require.NoError(t, err)

	srv, err := New(DefaultConfig(), res, nil)
	require.NoError(t, err)
	return srv
}

func TestHandleDatagramFormerrOnNoQuestions(t *testing.T) {
	srv := newTestServer(t, &stubTransport{rescode: dnsmessage.NOERROR})

	req := &dnsmessage.Message{Header: dnsmessage.Header{ID: 7}}
	buf := bytebuffer.New()
	require.NoError(t, req.Encode(buf))

	resp := decodeViaHandler(t, srv, buf.Bytes())
	assert.Equal(t, dnsmessage.FORMERR, resp.Header.Rescode)
	assert.Equal(t, uint16(7), resp.Header.ID)
}

func TestHandleDatagramAnswersLastQuestionOnMultiQuestion(t *testing.T) {
	want := dnsmessage.ARecord{DomainName: "second.example.com", Addr: net.IPv4(2, 2, 2, 2)}
	srv := newTestServer(t, &stubTransport{rescode: dnsmessage.NOERROR, answers: []dnsmessage.Record{want}})

	req := &dnsmessage.Message{
		Header: dnsmessage.Header{ID: 42, RecursionDesired: true},
		Questions: []dnsmessage.Question{
			{Name: "first.example.com", Type: dnsmessage.QTypeA},
			{Name: "second.example.com", Type: dnsmessage.QTypeA},
		},
	}
	buf := bytebuffer.New()
	require.NoError(t, req.Encode(buf))

	resp := decodeViaHandler(t, srv, buf.Bytes())
	assert.Equal(t, dnsmessage.NOERROR, resp.Header.Rescode)
	require.Len(t, resp.Questions, 1)
	assert.Equal(t, "second.example.com", resp.Questions[0].Name)
}

func TestHandleDatagramEchoesQuestionAndAnswer(t *testing.T) {
	want := dnsmessage.ARecord{DomainName: "example.com", Addr: net.IPv4(1, 1, 1, 1)}
	srv := newTestServer(t, &stubTransport{rescode: dnsmessage.NOERROR, answers: []dnsmessage.Record{want}})

	req := &dnsmessage.Message{
		Header:    dnsmessage.Header{ID: 99, RecursionDesired: true},
		Questions: []dnsmessage.Question{{Name: "example.com", Type: dnsmessage.QTypeA}},
	}
	buf := bytebuffer.New()
	require.NoError(t, req.Encode(buf))

	resp := decodeViaHandler(t, srv, buf.Bytes())
	assert.Equal(t, dnsmessage.NOERROR, resp.Header.Rescode)
	require.Len(t, resp.Questions, 1)
	assert.Equal(t, "example.com", resp.Questions[0].Name)
	require.Len(t, resp.Answers, 1)
	assert.Equal(t, want, resp.Answers[0])
}

// decodeViaHandler runs handleDatagram against a throwaway in-memory pair
// so the response-synthesis logic can be exercised without a real socket.
func decodeViaHandler(t *testing.T, srv *Server, raw []byte) *dnsmessage.Message {
	t.Helper()

	local, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 0})
	require.NoError(t, err)
	defer local.Close()
	srv.conn = local

	client, err := net.DialUDP("udp4", nil, local.LocalAddr().(*net.UDPAddr))
	require.NoError(t, err)
	defer client.Close()

	srv.handleDatagram(context.Background(), raw, client.LocalAddr().(*net.UDPAddr))

	var out [bytebuffer.Size]byte
	n, err := client.Read(out[:])
	require.NoError(t, err)

	respBuf := bytebuffer.FromBytes(out[:n])
	resp, err := dnsmessage.DecodeMessage(respBuf)
	require.NoError(t, err)
	return resp
}
