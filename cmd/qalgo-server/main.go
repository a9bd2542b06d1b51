// Command qalgo-server runs the pipeline as a long-lived service: a
// status/control REST API (spec section 6's CLI surface, reframed as
// job submission) fronted by JWT auth and per-IP rate limiting.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/odea-project/qalgo-go/internal/telemetry"
	"github.com/odea-project/qalgo-go/pkg/api/rest"
	"github.com/odea-project/qalgo-go/pkg/api/rest/middleware"
	"github.com/odea-project/qalgo-go/pkg/config"
	"github.com/odea-project/qalgo-go/pkg/logging"
	"github.com/odea-project/qalgo-go/pkg/registry"
)

var version = "1.0.0"

func main() {
	var (
		showVersion = flag.Bool("version", false, "show version and exit")
		host        = flag.String("host", "", "server host (overrides config/env)")
		port        = flag.Int("port", 0, "server port (overrides config/env)")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("qalgo-server version %s\n", version)
		return
	}

	cfg := config.LoadFromEnv()
	if *host != "" {
		cfg.Server.Host = *host
	}
	if *port > 0 {
		cfg.Server.Port = *port
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	log := logging.NewDefault()
	logging.SetGlobal(log)
	metrics := telemetry.New()
	reg := registry.New()

	jwtSecret := os.Getenv("QALGO_JWT_SECRET")
	restConfig := rest.Config{
		Host:        cfg.Server.Host,
		Port:        cfg.Server.Port,
		CORSEnabled: true,
		CORSOrigins: []string{"*"},
		Auth: middleware.AuthConfig{
			Enabled:     jwtSecret != "",
			JWTSecret:   jwtSecret,
			PublicPaths: []string{"/v1/health", "/metrics", "/docs"},
			AdminPaths:  []string{"/v1/config", "/v1/jobs/"},
		},
		RateLimit: middleware.RateLimitConfig{
			Enabled:        true,
			RequestsPerSec: 5,
			Burst:          20,
			PerIP:          true,
		},
	}

	server, err := rest.NewServer(restConfig, cfg, reg, metrics)
	if err != nil {
		log.Fatal("failed to create status/control server", map[string]interface{}{"error": err.Error()})
	}

	errChan := make(chan error, 1)
	go func() {
		log.Info("starting status/control server", map[string]interface{}{"host": cfg.Server.Host, "port": cfg.Server.Port})
		if err := server.Start(); err != nil {
			errChan <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)

	select {
	case sig := <-sigChan:
		log.Info("received signal, shutting down", map[string]interface{}{"signal": sig.String()})
	case err := <-errChan:
		log.Error("server error", map[string]interface{}{"error": err.Error()})
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Stop(ctx); err != nil {
		log.Error("error stopping server", map[string]interface{}{"error": err.Error()})
	}
}
