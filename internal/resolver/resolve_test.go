package resolver

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dnsscience/resolverd/internal/dnsmessage"
)

// fakeTransport answers Exchange by IP, ignoring the outbound query's
// content beyond echoing its ID and question back (as a real server would).
type fakeTransport struct {
	responses map[string]*dnsmessage.Message
	calls     []string
}

func (f *fakeTransport) Exchange(_ context.Context, ns net.IP, query *dnsmessage.Message) (*dnsmessage.Message, error) {
	f.calls = append(f.calls, ns.String())
	resp, ok := f.responses[ns.String()]
	if !ok {
		return nil, assert.AnError
	}
	out := *resp
	out.Header.ID = query.Header.ID
	out.Questions = query.Questions
	return &out, nil
}

func newTestResolver(t *testing.T, transport Transport) *Resolver {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Enable0x20 = false
	cfg.QueryTimeout = time.Second
	r, err := New(cfg, transport)
	require.NoError(t, err)
	return r
}

func TestResolveOneGlueHop(t *testing.T) {
	root := DefaultRoot.String()
	glueIP := net.IPv4(199, 43, 135, 53)

	transport := &fakeTransport{
		responses: map[string]*dnsmessage.Message{
			root: {
				Header: dnsmessage.Header{Rescode: dnsmessage.NOERROR},
				Authorities: []dnsmessage.Record{
					dnsmessage.NSRecord{DomainName: "example.com", Host: "a.iana-servers.net"},
				},
				Additionals: []dnsmessage.Record{
					dnsmessage.ARecord{DomainName: "a.iana-servers.net", Addr: glueIP},
				},
			},
			glueIP.String(): {
				Header: dnsmessage.Header{Rescode: dnsmessage.NOERROR},
				Answers: []dnsmessage.Record{
					dnsmessage.ARecord{DomainName: "example.com", Addr: net.IPv4(93, 184, 216, 34)},
				},
			},
		},
	}

	r := newTestResolver(t, transport)
	resp, err := r.Resolve(context.Background(), "example.com", dnsmessage.QTypeA)
	require.NoError(t, err)

	assert.Equal(t, dnsmessage.NOERROR, resp.Header.Rescode)
	require.Len(t, resp.Answers, 1)
	a := resp.Answers[0].(dnsmessage.ARecord)
	assert.True(t, net.IPv4(93, 184, 216, 34).Equal(a.Addr))

	require.Len(t, transport.calls, 2)
	assert.Equal(t, root, transport.calls[0])
	assert.Equal(t, glueIP.String(), transport.calls[1])
}

func TestResolveNXDOMAINShortCircuits(t *testing.T) {
	root := DefaultRoot.String()
	transport := &fakeTransport{
		responses: map[string]*dnsmessage.Message{
			root: {
				Header: dnsmessage.Header{Rescode: dnsmessage.NXDOMAIN},
			},
		},
	}

	r := newTestResolver(t, transport)
	resp, err := r.Resolve(context.Background(), "nonexistent.example", dnsmessage.QTypeA)
	require.NoError(t, err)

	assert.Equal(t, dnsmessage.NXDOMAIN, resp.Header.Rescode)
	assert.Len(t, transport.calls, 1)
}

func TestResolveTerminatesOnEmptyAnswersNoAuthorities(t *testing.T) {
	root := DefaultRoot.String()
	transport := &fakeTransport{
		responses: map[string]*dnsmessage.Message{
			root: {
				Header: dnsmessage.Header{Rescode: dnsmessage.NOERROR},
			},
		},
	}

	r := newTestResolver(t, transport)
	resp, err := r.Resolve(context.Background(), "example.com", dnsmessage.QTypeA)
	require.NoError(t, err)

	assert.Empty(t, resp.Answers)
	assert.Empty(t, resp.Authorities)
	assert.Len(t, transport.calls, 1)
}

func TestPickGluedNSRequiresBailiwickMatch(t *testing.T) {
	resp := &dnsmessage.Message{
		Authorities: []dnsmessage.Record{
			dnsmessage.NSRecord{DomainName: "other.org", Host: "ns1.other.org"},
		},
		Additionals: []dnsmessage.Record{
			dnsmessage.ARecord{DomainName: "ns1.other.org", Addr: net.IPv4(1, 2, 3, 4)},
		},
	}
	assert.Nil(t, pickGluedNS(resp, "example.com"))
}

func TestPickUngluedNSReturnsHostWithoutGlue(t *testing.T) {
	resp := &dnsmessage.Message{
		Authorities: []dnsmessage.Record{
			dnsmessage.NSRecord{DomainName: "example.com", Host: "ns1.example.com"},
		},
	}
	host, ok := pickUngluedNS(resp, "example.com")
	require.True(t, ok)
	assert.Equal(t, "ns1.example.com", host)
}

func TestIsSuffixIsLabelAligned(t *testing.T) {
	assert.True(t, isSuffix("com", "example.com"))
	assert.True(t, isSuffix("example.com", "example.com"))
	assert.False(t, isSuffix("com", "racecom"))
	assert.True(t, isSuffix("", "anything.at.all"))
}
