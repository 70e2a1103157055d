package resolver

import (
	"context"
	"fmt"
	"net"

	"github.com/dnsscience/resolverd/internal/bytebuffer"
	"github.com/dnsscience/resolverd/internal/dnsmessage"
)

// upstreamBindAddr is the fixed local address outbound queries originate
// from: 0.0.0.0:42069.
const upstreamBindAddr = "0.0.0.0:42069"

// Transport sends one query and waits for one reply. Exchange owns a
// fresh socket for the duration of the call; the socket is released on
// every exit path including error.
type Transport interface {
	Exchange(ctx context.Context, ns net.IP, query *dnsmessage.Message) (*dnsmessage.Message, error)
}

// UDPTransport implements Transport over a UDP socket bound to the fixed
// upstream port, targeting (ns, 53).
type UDPTransport struct {
	// port overrides the upstream port; zero means 53.
	port int
}

// NewUDPTransport returns the UDP-backed Transport used in production.
func NewUDPTransport() *UDPTransport {
	return &UDPTransport{}
}

// Exchange sends query to ns:53 and decodes a single 512-octet reply.
func (t *UDPTransport) Exchange(ctx context.Context, ns net.IP, query *dnsmessage.Message) (*dnsmessage.Message, error) {
	localAddr, err := net.ResolveUDPAddr("udp4", upstreamBindAddr)
	if err != nil {
		return nil, fmt.Errorf("resolver: resolve local addr: %w", err)
	}
	port := t.port
	if port == 0 {
		port = 53
	}
	remoteAddr := &net.UDPAddr{IP: ns, Port: port}

	conn, err := net.DialUDP("udp4", localAddr, remoteAddr)
	if err != nil {
		return nil, fmt.Errorf("resolver: dial upstream: %w", err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		if err := conn.SetDeadline(deadline); err != nil {
			return nil, fmt.Errorf("resolver: set deadline: %w", err)
		}
	}

	outBuf := bytebuffer.New()
	if err := query.Encode(outBuf); err != nil {
		return nil, fmt.Errorf("resolver: encode query: %w", err)
	}

	if _, err := conn.Write(outBuf.Bytes()); err != nil {
		return nil, fmt.Errorf("resolver: send query: %w", err)
	}

	var raw [bytebuffer.Size]byte
	n, err := conn.Read(raw[:])
	if err != nil {
		return nil, fmt.Errorf("resolver: read response: %w", err)
	}

	if len(query.Questions) == 1 {
		if err := checkEchoedCase(raw[:n], query.Questions[0].Name); err != nil {
			return nil, err
		}
	}

	inBuf := bytebuffer.FromBytes(raw[:n])
	resp, err := dnsmessage.DecodeMessage(inBuf)
	if err != nil {
		return nil, fmt.Errorf("resolver: decode response: %w", err)
	}

	return resp, nil
}

// checkEchoedCase re-reads the response's first question name without the
// lowercasing DecodeMessage applies, and compares it byte-for-byte against
// the name this transport sent. DecodeMessage's normal path always
// lowercases (ByteBuffer.ReadQName), which would otherwise make 0x20 case
// validation trivially pass no matter what a spoofed response echoed.
func checkEchoedCase(raw []byte, sentName string) error {
	buf := bytebuffer.FromBytes(raw)
	if err := buf.Skip(12); err != nil {
		return fmt.Errorf("resolver: skip header for case check: %w", err)
	}
	echoed, err := buf.ReadQNameCased()
	if err != nil {
		return fmt.Errorf("resolver: read echoed name: %w", err)
	}
	if !ValidateEcho(sentName, echoed) {
		return ErrResponseMismatch
	}
	return nil
}
