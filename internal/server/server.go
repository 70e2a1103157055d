// Package server implements the single-threaded UDP driver: one listener
// that receives a datagram, resolves it, and sends the reply before
// reading the next one.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"sync/atomic"
	"time"

	"github.com/dnsscience/resolverd/internal/bytebuffer"
	"github.com/dnsscience/resolverd/internal/dnsmessage"
	"github.com/dnsscience/resolverd/internal/metrics"
	"github.com/dnsscience/resolverd/internal/resolver"
)

// Config configures the listener.
type Config struct {
	// ListenAddr is the UDP address queries arrive on (default 0.0.0.0:2053).
	ListenAddr string
}

// DefaultConfig returns resolverd's default listen address.
func DefaultConfig() Config {
	return Config{ListenAddr: "0.0.0.0:2053"}
}

// Stats are the atomic counters exposed by GetStats.
type Stats struct {
	Queries  uint64
	Answers  uint64
	Errors   uint64
	NXDOMAIN uint64
}

// Server owns the UDP socket and drives the sequential receive/resolve/send
// loop. There is no worker pool and no concurrent request handling: the
// scheduling model is strictly one datagram at a time.
type Server struct {
	cfg      Config
	resolver *resolver.Resolver
	logger   *slog.Logger

	conn *net.UDPConn

	queries  atomic.Uint64
	answers  atomic.Uint64
	errors   atomic.Uint64
	nxdomain atomic.Uint64
}

// New builds a Server bound to cfg.ListenAddr but does not start serving.
func New(cfg Config, res *resolver.Resolver, logger *slog.Logger) (*Server, error) {
	if cfg.ListenAddr == "" {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{cfg: cfg, resolver: res, logger: logger}, nil
}

// Start binds the UDP socket and runs the receive loop until ctx is
// cancelled. A bind failure is returned immediately; per-datagram errors
// are logged and the loop continues.
func (s *Server) Start(ctx context.Context) error {
	addr, err := net.ResolveUDPAddr("udp4", s.cfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("server: resolve listen addr: %w", err)
	}

	conn, err := net.ListenUDP("udp4", addr)
	if err != nil {
		return fmt.Errorf("server: bind %s: %w", s.cfg.ListenAddr, err)
	}
	s.conn = conn

	s.logger.Info("listening", "addr", s.cfg.ListenAddr)

	go func() {
		<-ctx.Done()
		s.conn.Close()
	}()

	var buf [bytebuffer.Size]byte
	for {
		n, clientAddr, err := s.conn.ReadFromUDP(buf[:])
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			s.logger.Error("read failed", "error", err)
			s.errors.Add(1)
			continue
		}

		s.handleDatagram(ctx, buf[:n], clientAddr)
	}
}

// Stop closes the listening socket, unblocking Start's read loop.
func (s *Server) Stop() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}

// GetStats returns a snapshot of the server's atomic counters.
func (s *Server) GetStats() Stats {
	return Stats{
		Queries:  s.queries.Load(),
		Answers:  s.answers.Load(),
		Errors:   s.errors.Load(),
		NXDOMAIN: s.nxdomain.Load(),
	}
}

// handleDatagram implements the response-synthesis algorithm: echo the
// question, resolve it, and map failures onto FORMERR/SERVFAIL. A decode
// failure on the inbound datagram itself is logged with no response sent,
// since there is no reliable request ID to reply to.
func (s *Server) handleDatagram(ctx context.Context, raw []byte, clientAddr *net.UDPAddr) {
	s.queries.Add(1)

	inBuf := bytebuffer.FromBytes(raw)
	req, err := dnsmessage.DecodeMessage(inBuf)
	if err != nil {
		s.logger.Warn("malformed request, dropping", "client", clientAddr, "error", err)
		s.errors.Add(1)
		return
	}

	resp := &dnsmessage.Message{
		Header: dnsmessage.Header{
			ID:                 req.Header.ID,
			Response:           true,
			RecursionDesired:   true,
			RecursionAvailable: true,
		},
	}

	if len(req.Questions) == 0 {
		resp.Header.Rescode = dnsmessage.FORMERR
		s.send(resp, clientAddr)
		return
	}
	// A request carrying more than one question answers only the last one,
	// silently dropping the rest, rather than being rejected outright.
	q := req.Questions[len(req.Questions)-1]
	resp.Questions = []dnsmessage.Question{q}

	start := time.Now()
	result, err := s.resolver.Resolve(ctx, q.Name, q.Type)
	metrics.ResolveDuration.WithLabelValues(q.Type.String()).Observe(time.Since(start).Seconds())
	metrics.QueriesTotal.WithLabelValues(q.Type.String()).Inc()

	if err != nil {
		s.logger.Error("resolve failed", "name", q.Name, "qtype", q.Type, "error", err)
		resp.Header.Rescode = dnsmessage.SERVFAIL
		s.errors.Add(1)
		s.send(resp, clientAddr)
		return
	}

	resp.Header.Rescode = result.Header.Rescode
	resp.Answers = result.Answers
	resp.Authorities = result.Authorities
	resp.Additionals = result.Additionals

	if result.Header.Rescode == dnsmessage.NXDOMAIN {
		s.nxdomain.Add(1)
	}

	s.send(resp, clientAddr)
}

func (s *Server) send(resp *dnsmessage.Message, clientAddr *net.UDPAddr) {
	outBuf := bytebuffer.New()
	if err := resp.Encode(outBuf); err != nil {
		s.logger.Error("encode response failed", "error", err)
		s.errors.Add(1)
		return
	}

	if _, err := s.conn.WriteToUDP(outBuf.Bytes(), clientAddr); err != nil {
		s.logger.Error("send response failed", "client", clientAddr, "error", err)
		s.errors.Add(1)
		return
	}

	s.answers.Add(1)
	metrics.AnswersTotal.WithLabelValues(resp.Header.Rescode.String()).Inc()
}
