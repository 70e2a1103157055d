package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dnsscience/resolverd/internal/config"
	"github.com/dnsscience/resolverd/internal/logging"
	"github.com/dnsscience/resolverd/internal/metrics"
	"github.com/dnsscience/resolverd/internal/resolver"
	"github.com/dnsscience/resolverd/internal/server"
)

var (
	configPath    = flag.String("config", "", "Path to YAML config file (optional)")
	udpAddr       = flag.String("udp", "", "UDP listen address (overrides config)")
	metricsAddr   = flag.String("metrics", "", "Metrics listen address (overrides config)")
	rootServer    = flag.String("root", "", "Root nameserver IPv4 address (overrides config)")
	printInterval = flag.Duration("stats-interval", 30*time.Second, "Interval between printed stat snapshots")
)

func main() {
	flag.Parse()

	fmt.Println("╔══════════════════════════════════════════════════════════════╗")
	fmt.Println("║                       resolverd                                ║")
	fmt.Println("║        single-threaded iterative DNS resolver                  ║")
	fmt.Println("╚══════════════════════════════════════════════════════════════╝")
	fmt.Println()

	cfgFile := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error loading config: %v\n", err)
			os.Exit(1)
		}
		cfgFile = loaded
	}
	if *udpAddr != "" {
		cfgFile.Listen = *udpAddr
	}
	if *metricsAddr != "" {
		cfgFile.MetricsListen = *metricsAddr
	}
	if *rootServer != "" {
		cfgFile.RootServer = *rootServer
	}

	logger := logging.Configure(logging.Config{
		Level:      cfgFile.LogLevel,
		Format:     cfgFile.LogFormat,
		IncludePID: true,
	})

	rootIP := net.ParseIP(cfgFile.RootServer).To4()
	if rootIP == nil {
		fmt.Fprintf(os.Stderr, "error: invalid root server address %q\n", cfgFile.RootServer)
		os.Exit(1)
	}

	resCfg := resolver.Config{
		Root:         rootIP,
		QueryTimeout: cfgFile.QueryTimeoutDuration(),
		MaxDepth:     cfgFile.MaxDepth,
		Enable0x20:   cfgFile.Enable0x20Value(),
	}

	res, err := resolver.New(resCfg, resolver.NewUDPTransport())
	if err != nil {
		fmt.Fprintf(os.Stderr, "error creating resolver: %v\n", err)
		os.Exit(1)
	}

	srv, err := server.New(server.Config{ListenAddr: cfgFile.Listen}, res, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error creating server: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Configuration:\n")
	fmt.Printf("  Listen:        %s\n", cfgFile.Listen)
	fmt.Printf("  Metrics:       %s\n", cfgFile.MetricsListen)
	fmt.Printf("  Root server:   %s\n", cfgFile.RootServer)
	fmt.Printf("  Query timeout: %s\n", resCfg.QueryTimeout)
	fmt.Printf("  Max depth:     %d\n", resCfg.MaxDepth)
	fmt.Printf("  0x20 encoding: %v\n", resCfg.Enable0x20)
	fmt.Println()

	go func() {
		logger.Info("serving metrics", "addr", cfgFile.MetricsListen)
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		if err := http.ListenAndServe(cfgFile.MetricsListen, mux); err != nil {
			logger.Error("metrics server stopped", "error", err)
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		if err := srv.Start(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "error starting server: %v\n", err)
			os.Exit(1)
		}
	}()

	go printStats(ctx, srv, *printInterval)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	fmt.Println()
	fmt.Println("shutting down")
	cancel()
	if err := srv.Stop(); err != nil {
		fmt.Fprintf(os.Stderr, "error stopping server: %v\n", err)
		os.Exit(1)
	}
}

func printStats(ctx context.Context, srv *server.Server, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s := srv.GetStats()
			fmt.Printf("queries=%d answers=%d errors=%d nxdomain=%d\n", s.Queries, s.Answers, s.Errors, s.NXDOMAIN)
		}
	}
}
