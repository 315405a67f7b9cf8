package health

import (
	"context"
	"errors"
	"net"
	"testing"

	"github.com/DimasB1221/I-commerce/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/test/bufconn"
)

func startBufconn(t *testing.T, srv *Server) healthpb.HealthClient {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.GracefulStop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return healthpb.NewHealthClient(conn)
}

func TestChecks_Run(t *testing.T) {
	checks := Checks{
		"mongo":    func(context.Context) error { return nil },
		"postgres": func(context.Context) error { return errors.New("dial tcp: refused") },
	}

	report := checks.Run(context.Background())
	assert.False(t, report.Healthy)
	assert.Equal(t, StatusConnected, report.Dependencies["mongo"])
	assert.Equal(t, StatusDisconnected, report.Dependencies["postgres"])

	assert.True(t, Checks{}.Run(context.Background()).Healthy)
}

func TestServer_ReportsCheckStatus(t *testing.T) {
	var failing error
	checks := Checks{
		"postgres": func(context.Context) error { return failing },
	}
	srv := NewServer("shop-api", checks, logger.Discard())
	client := startBufconn(t, srv)
	ctx := context.Background()

	resp, err := client.Check(ctx, &healthpb.HealthCheckRequest{Service: "shop-api"})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.Status)

	failing = errors.New("down")
	srv.Refresh(ctx)

	resp, err = client.Check(ctx, &healthpb.HealthCheckRequest{Service: "shop-api"})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, resp.Status)

	failing = nil
	srv.Refresh(ctx)

	resp, err = client.Check(ctx, &healthpb.HealthCheckRequest{})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.Status)
}

func TestServer_UnknownService(t *testing.T) {
	srv := NewServer("shop-api", Checks{}, logger.Discard())
	client := startBufconn(t, srv)

	_, err := client.Check(context.Background(), &healthpb.HealthCheckRequest{Service: "nope"})
	assert.Error(t, err)
}
