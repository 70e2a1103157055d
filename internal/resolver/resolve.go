package resolver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/dnsscience/resolverd/internal/dnsmessage"
	"github.com/dnsscience/resolverd/internal/metrics"
)

// Resolver performs iterative DNS resolution: starting from a root
// nameserver, it walks the delegation chain one query at a time, following
// glued NS referrals directly and resolving unglued ones through a nested
// recursive A lookup, until an answer or a definitive NXDOMAIN is reached.
type Resolver struct {
	cfg       Config
	transport Transport
	cases     *CaseEncoder
}

// New builds a Resolver. A fresh CaseEncoder is seeded even when
// Config.Enable0x20 is false; it is only applied to outbound names when
// Enable0x20 is set.
func New(cfg Config, transport Transport) (*Resolver, error) {
	enc, err := NewCaseEncoder()
	if err != nil {
		return nil, err
	}
	return &Resolver{cfg: cfg.withDefaults(), transport: transport, cases: enc}, nil
}

// Resolve performs iterative descent for qname/qtype, starting at the
// configured root and returning the last response observed — either a
// terminal answer, a definitive NXDOMAIN, or a best-effort response when
// the delegation chain runs out of leads.
func (r *Resolver) Resolve(ctx context.Context, qname string, qtype dnsmessage.QueryType) (*dnsmessage.Message, error) {
	return r.resolve(ctx, qname, qtype, 0)
}

func (r *Resolver) resolve(ctx context.Context, qname string, qtype dnsmessage.QueryType, depth int) (*dnsmessage.Message, error) {
	if depth > r.cfg.MaxDepth {
		return nil, ErrMaxDepth
	}

	currentNS := r.cfg.Root

	for {
		resp, err := r.query(ctx, currentNS, qname, qtype)
		if err != nil {
			return nil, err
		}

		if len(resp.Answers) > 0 && resp.Header.Rescode == dnsmessage.NOERROR {
			return resp, nil
		}
		if resp.Header.Rescode == dnsmessage.NXDOMAIN {
			return resp, nil
		}

		if next := pickGluedNS(resp, qname); next != nil {
			currentNS = next
			continue
		}

		nextName, ok := pickUngluedNS(resp, qname)
		if !ok {
			return resp, nil
		}

		sub, err := r.resolve(ctx, nextName, dnsmessage.QTypeA, depth+1)
		if err != nil {
			if errors.Is(err, ErrMaxDepth) {
				return nil, err
			}
			return resp, nil
		}

		next := pickAnyA(sub)
		if next == nil {
			return resp, nil
		}
		currentNS = next
	}
}

// query builds and sends a single non-recursive request for qname/qtype to
// ns, validating the response's transaction ID and echoed question before
// handing it back.
func (r *Resolver) query(ctx context.Context, ns net.IP, qname string, qtype dnsmessage.QueryType) (*dnsmessage.Message, error) {
	queryCtx, cancel := context.WithTimeout(ctx, r.cfg.QueryTimeout)
	defer cancel()

	sentName := qname
	if r.cfg.Enable0x20 {
		sentName = r.cases.Encode(qname)
	}

	id := TransactionID()
	req := &dnsmessage.Message{
		Header: dnsmessage.Header{
			ID:               id,
			RecursionDesired: false,
			QDCount:          1,
		},
		Questions: []dnsmessage.Question{{Name: sentName, Type: qtype}},
	}

	resp, err := r.transport.Exchange(queryCtx, ns, req)
	if err != nil {
		metrics.UpstreamErrorsTotal.WithLabelValues("transport").Inc()
		return nil, fmt.Errorf("resolver: query %s for %s: %w", ns, qname, err)
	}

	if resp.Header.ID != id {
		metrics.UpstreamErrorsTotal.WithLabelValues("id_mismatch").Inc()
		return nil, ErrResponseMismatch
	}
	if len(resp.Questions) != 1 ||
		!strings.EqualFold(resp.Questions[0].Name, qname) ||
		resp.Questions[0].Type != qtype {
		metrics.UpstreamErrorsTotal.WithLabelValues("question_mismatch").Inc()
		return nil, ErrResponseMismatch
	}

	return resp, nil
}

// pickGluedNS implements pick_glued_ns: the first authority NS record
// in-bailiwick of qname whose host has a matching additional A record.
func pickGluedNS(resp *dnsmessage.Message, qname string) net.IP {
	for _, rec := range resp.Authorities {
		ns, ok := rec.(dnsmessage.NSRecord)
		if !ok || !isSuffix(ns.Domain(), qname) {
			continue
		}
		for _, add := range resp.Additionals {
			a, ok := add.(dnsmessage.ARecord)
			if !ok {
				continue
			}
			if strings.EqualFold(a.Domain(), ns.Host) {
				return a.Addr
			}
		}
	}
	return nil
}

// pickUngluedNS implements pick_unglued_ns: the first in-bailiwick
// authority NS host with no corresponding additional A record.
func pickUngluedNS(resp *dnsmessage.Message, qname string) (string, bool) {
	for _, rec := range resp.Authorities {
		ns, ok := rec.(dnsmessage.NSRecord)
		if !ok || !isSuffix(ns.Domain(), qname) {
			continue
		}

		glued := false
		for _, add := range resp.Additionals {
			a, ok := add.(dnsmessage.ARecord)
			if !ok {
				continue
			}
			if strings.EqualFold(a.Domain(), ns.Host) {
				glued = true
				break
			}
		}
		if !glued {
			return ns.Host, true
		}
	}
	return "", false
}

// pickAnyA implements pick_any_a: the first A record address in answers,
// on-wire order.
func pickAnyA(resp *dnsmessage.Message) net.IP {
	if resp == nil {
		return nil
	}
	for _, rec := range resp.Answers {
		if a, ok := rec.(dnsmessage.ARecord); ok {
			return a.Addr
		}
	}
	return nil
}

// isSuffix reports whether domain is qname or a label-aligned parent of
// qname, case-insensitively. "com" is a suffix of "example.com" but "com"
// is not a suffix of "racecom" — the comparison always falls on a label
// boundary, never mid-label.
func isSuffix(domain, qname string) bool {
	domain = strings.ToLower(strings.TrimSuffix(domain, "."))
	qname = strings.ToLower(strings.TrimSuffix(qname, "."))

	if domain == "" {
		return true // the root is a suffix of everything
	}
	if domain == qname {
		return true
	}
	return strings.HasSuffix(qname, "."+domain)
}
