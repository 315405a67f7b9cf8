// Package health reports dependency status over gRPC and to the HTTP layer.
package health

import (
	"context"
	"fmt"
	"net"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	grpchealth "google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

const (
	StatusConnected    = "connected"
	StatusDisconnected = "disconnected"
)

// Check returns nil when the dependency is reachable.
type Check func(ctx context.Context) error

type Checks map[string]Check

type Report struct {
	Healthy      bool
	Dependencies map[string]string
}

// Run executes every check concurrently.
func (c Checks) Run(ctx context.Context) Report {
	report := Report{Healthy: true, Dependencies: make(map[string]string, len(c))}

	var mu sync.Mutex
	var wg sync.WaitGroup
	for name, check := range c {
		wg.Add(1)
		go func(name string, check Check) {
			defer wg.Done()
			status := StatusConnected
			if err := check(ctx); err != nil {
				status = StatusDisconnected
			}

			mu.Lock()
			defer mu.Unlock()
			report.Dependencies[name] = status
			if status != StatusConnected {
				report.Healthy = false
			}
		}(name, check)
	}
	wg.Wait()
	return report
}

func (c Checks) names() []string {
	names := make([]string, 0, len(c))
	for name := range c {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Server exposes grpc.health.v1 for the service and flips it between SERVING
// and NOT_SERVING according to the checks.
type Server struct {
	service string
	checks  Checks
	log     logrus.FieldLogger

	grpcServer *grpc.Server
	health     *grpchealth.Server
}

func NewServer(service string, checks Checks, log logrus.FieldLogger) *Server {
	grpcServer := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
	)
	hs := grpchealth.NewServer()
	healthpb.RegisterHealthServer(grpcServer, hs)
	reflection.Register(grpcServer)

	hs.SetServingStatus(service, healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)

	return &Server{
		service:    service,
		checks:     checks,
		log:        log,
		grpcServer: grpcServer,
		health:     hs,
	}
}

func (s *Server) Serve(lis net.Listener) error {
	if err := s.grpcServer.Serve(lis); err != nil {
		return fmt.Errorf("grpc health server: %w", err)
	}
	return nil
}

// Refresh runs the checks once and publishes the result.
func (s *Server) Refresh(ctx context.Context) Report {
	report := s.checks.Run(ctx)

	status := healthpb.HealthCheckResponse_SERVING
	if !report.Healthy {
		status = healthpb.HealthCheckResponse_NOT_SERVING
		for _, name := range s.checks.names() {
			if report.Dependencies[name] != StatusConnected {
				s.log.WithField("dependency", name).Warn("Health check failed")
			}
		}
	}
	s.health.SetServingStatus(s.service, status)
	s.health.SetServingStatus("", status)
	return report
}

// Watch refreshes the status every interval until ctx is done.
func (s *Server) Watch(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		s.refreshWithTimeout(ctx, interval)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *Server) refreshWithTimeout(ctx context.Context, timeout time.Duration) {
	checkCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	s.Refresh(checkCtx)
}

// GracefulStop marks the service NOT_SERVING and drains open streams.
func (s *Server) GracefulStop() {
	s.health.Shutdown()
	s.grpcServer.GracefulStop()
}
