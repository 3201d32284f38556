package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"orderbook-aggregator/src/config"
	"orderbook-aggregator/src/factories"
	"orderbook-aggregator/src/grpc_stream"
	"orderbook-aggregator/src/interfaces"
	"orderbook-aggregator/src/logger"
	"orderbook-aggregator/src/models"
	"orderbook-aggregator/src/publishers"
	"orderbook-aggregator/src/serializers"
	"orderbook-aggregator/src/session"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "config/default.yaml", "path to config file")
	symbol := flag.String("symbol", "", "trading pair to aggregate, e.g. ethbtc (required)")
	depth := flag.Int("depth", 0, "default book depth for requests that omit one (5, 10 or 20)")
	flag.Parse()

	if *symbol == "" {
		fmt.Println("Error: -symbol is required")
		flag.Usage()
		os.Exit(1)
	}

	// Load config from YAML file
	config, err := config.NewConfig(*configPath)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}
	if *depth != 0 {
		if err := models.ValidateDepth(*depth); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		config.DefaultDepth = *depth
	}

	// Setup logger
	appLogger := logger.NewLogger(&config.Log, config.Name)

	// Create the connector factory and the dial function every session uses
	factory := factories.NewConnectorFactory(config, appLogger)
	dial := func(exchange, sym string, d int) (session.Feed, error) {
		return factory.CreateConnector(exchange, sym, d)
	}

	// Fail fast if either exchange is unreachable with this symbol
	probeCtx, probeCancel := context.WithTimeout(context.Background(), 30*time.Second)
	err = factory.Probe(probeCtx, *symbol, config.DefaultDepth)
	probeCancel()
	if err != nil {
		appLogger.Critical("startup probe failed: %v", err)
		os.Exit(1)
	}

	// Optional NATS fan-out of merged summaries
	var publisher interfaces.IPublisher
	if config.NATS != nil {
		publisher = publishers.NewNATSPublisher(config.NATS, appLogger, serializers.NewJSONSerializer())
		if err := publisher.Connect(); err != nil {
			appLogger.Critical("failed to connect NATS publisher: %v", err)
			os.Exit(1)
		}
		defer publisher.Disconnect()
	}

	// Create and start the streaming gRPC service
	grpcService, err := grpc_stream.NewGRPCService(config, appLogger, dial, publisher, *symbol)
	if err != nil {
		appLogger.Critical("failed to create gRPC service: %v", err)
		os.Exit(1)
	}
	grpcService.Start()

	appLogger.Info("orderbook aggregator running for %s, gRPC: %s", *symbol, grpcService.Addr())
	appLogger.Info("Press Ctrl+C to stop.")

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	appLogger.Info("shutting down...")

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer stopCancel()
	grpcService.Stop(stopCtx)
}
