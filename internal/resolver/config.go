package resolver

import (
	"net"
	"time"
)

// DefaultRoot is a.root-servers.net, the starting point for iterative
// descent when no other root is configured.
var DefaultRoot = net.IPv4(198, 41, 0, 4)

// Config tunes the resolver beyond what the core algorithm fixes.
type Config struct {
	// Root is the nameserver resolution starts from.
	Root net.IP

	// QueryTimeout bounds a single upstream exchange.
	QueryTimeout time.Duration

	// MaxDepth bounds nested recursive-descent calls (one per unglued NS
	// hop). Exceeding it surfaces as ErrMaxDepth, which the driver turns
	// into SERVFAIL.
	MaxDepth int

	// Enable0x20 turns on query-name case randomization as extra
	// spoofing resistance; responses whose echoed question doesn't
	// match case-for-case are rejected.
	Enable0x20 bool
}

// DefaultConfig returns the resolver's out-of-the-box tuning.
func DefaultConfig() Config {
	return Config{
		Root:         DefaultRoot,
		QueryTimeout: 2 * time.Second,
		MaxDepth:     8,
		Enable0x20:   true,
	}
}

func (c Config) withDefaults() Config {
	if c.Root == nil {
		c.Root = DefaultRoot
	}
	if c.QueryTimeout == 0 {
		c.QueryTimeout = 2 * time.Second
	}
	if c.MaxDepth == 0 {
		c.MaxDepth = 8
	}
	return c
}
