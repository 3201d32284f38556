package grpc_stream

import (
	"context"
	"fmt"
	"net"

	"orderbook-aggregator/src/config"
	"orderbook-aggregator/src/interfaces"
	"orderbook-aggregator/src/logger"
	"orderbook-aggregator/src/session"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
)

// -----------------------------------------------------------------------------
// GRPCService handles gRPC server lifecycle
// -----------------------------------------------------------------------------

type GRPCService struct {
	server   *grpc.Server
	listener net.Listener
	config   *config.Config
	logger   *logger.Logger
	running  bool
}

// -----------------------------------------------------------------------------

// NewGRPCService creates a new GRPCService instance and binds the listener.
func NewGRPCService(config *config.Config, logger *logger.Logger, dial session.DialFunc, publisher interfaces.IPublisher, defaultSymbol string) (*GRPCService, error) {
	address := fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port)

	listener, err := net.Listen("tcp", address)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", address, err)
	}

	serverOptions := []grpc.ServerOption{
		grpc.MaxRecvMsgSize(10 * 1024 * 1024), // 10MB
		grpc.MaxSendMsgSize(10 * 1024 * 1024), // 10MB
	}

	server := grpc.NewServer(serverOptions...)

	aggregatorService := NewAggregatorService(config, logger, dial, publisher, defaultSymbol)
	RegisterOrderbookAggregatorServer(server, aggregatorService)

	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(server, healthServer)
	healthServer.SetServingStatus("orderbook.OrderbookAggregator", grpc_health_v1.HealthCheckResponse_SERVING)

	return &GRPCService{
		server:   server,
		listener: listener,
		config:   config,
		logger:   logger,
		running:  false,
	}, nil
}

// -----------------------------------------------------------------------------

// Start serves in a background goroutine and returns immediately.
func (g *GRPCService) Start() {
	g.logger.Info("Starting gRPC service on %s", g.listener.Addr().String())

	go func() {
		g.running = true
		if err := g.server.Serve(g.listener); err != nil && err != grpc.ErrServerStopped {
			g.logger.Error("gRPC server failed: %v", err)
		}
		g.running = false
	}()
}

// -----------------------------------------------------------------------------

// Stop gracefully stops the gRPC server, forcing the stop if ctx expires
// before in-flight streams drain.
func (g *GRPCService) Stop(ctx context.Context) error {
	g.logger.Info("Stopping gRPC service...")

	if g.server != nil {
		done := make(chan struct{})
		go func() {
			g.server.GracefulStop()
			close(done)
		}()

		select {
		case <-ctx.Done():
			g.logger.Warning("gRPC graceful shutdown timeout, forcing stop...")
			g.server.Stop()
		case <-done:
			g.logger.Info("gRPC service stopped gracefully")
		}
	}

	if g.listener != nil {
		g.listener.Close()
	}

	g.running = false
	g.logger.Info("gRPC service stopped")
	return nil
}

// -----------------------------------------------------------------------------

// IsRunning returns whether the gRPC server is running
func (g *GRPCService) IsRunning() bool {
	return g.running
}

// -----------------------------------------------------------------------------

// Addr returns the bound listener address.
func (g *GRPCService) Addr() string {
	return g.listener.Addr().String()
}
