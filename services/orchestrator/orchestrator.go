// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package orchestrator provides the portal HTTP service.
//
// This package owns the service lifecycle: configuration, tracing, metrics
// registry, component wiring and the gin router. Domain behavior lives in
// services/answer, services/search and services/knowledge.
//
// # Usage
//
//	cfg, err := orchestrator.LoadConfig(os.Getenv)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svc, err := orchestrator.New(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
//	defer stop()
//	log.Fatal(svc.Run(ctx))
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/campus-kb/portal/services/orchestrator/middleware"
	"github.com/campus-kb/portal/services/orchestrator/routes"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// serviceName is the OpenTelemetry service name and otelgin server name.
const serviceName = "portal-service"

// shutdownTimeout bounds graceful HTTP shutdown and trace flushing.
const shutdownTimeout = 5 * time.Second

// =============================================================================
// Interface Definition
// =============================================================================

// Service defines the contract for the portal service.
//
// # Thread Safety
//
// Implementations must be safe for concurrent use. Run() blocks and should
// only be called once per instance.
type Service interface {
	// Run serves HTTP until ctx is cancelled or the listener fails.
	//
	// # Outputs
	//
	//   - error: nil after a clean shutdown, otherwise the listener error
	//
	// # Limitations
	//
	//   - In-flight requests get shutdownTimeout to finish after ctx ends
	Run(ctx context.Context) error

	// Router returns the underlying gin engine for testing.
	Router() *gin.Engine
}

// =============================================================================
// Implementation
// =============================================================================

// service implements Service.
//
// # Fields
//
//   - config: Validated configuration
//   - components: Answer router, aggregator and metrics registry
//   - router: gin engine with all routes registered
//   - tracerCleanup: Flushes the trace exporter; nil when tracing is off
type service struct {
	config        Config
	components    *Components
	router        *gin.Engine
	tracerCleanup func(context.Context)
}

// =============================================================================
// Constructor
// =============================================================================

// New creates a portal Service.
//
// # Description
//
// New initializes:
//  1. Default configuration for missing values, then validation
//  2. OpenTelemetry tracing, when an OTLP endpoint is configured
//  3. Domain components and their Prometheus metrics
//  4. The HTTP router
//
// # Outputs
//
//   - Service: Ready-to-run service
//   - error: Non-nil if configuration is invalid or initialization fails
func New(cfg Config) (Service, error) {
	cfg = applyConfigDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s := &service{config: cfg}

	if cfg.OTelEndpoint != "" {
		cleanup, err := s.initTracer()
		if err != nil {
			return nil, fmt.Errorf("failed to initialize tracer: %w", err)
		}
		s.tracerCleanup = cleanup
	} else {
		slog.Info("OTLP endpoint not configured, trace export disabled")
	}

	components, err := NewComponents(cfg)
	if err != nil {
		s.cleanup()
		return nil, err
	}
	s.components = components

	s.initRouter()
	return s, nil
}

// =============================================================================
// Service Interface Methods
// =============================================================================

func (s *service) Run(ctx context.Context) error {
	defer s.cleanup()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.config.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Starting portal server", slog.Int("port", s.config.Port))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	slog.Info("Shutting down portal server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("orchestrator: shutdown: %w", err)
	}
	return nil
}

func (s *service) Router() *gin.Engine {
	return s.router
}

// =============================================================================
// Private Initialization Methods
// =============================================================================

// initTracer initializes OpenTelemetry distributed tracing.
//
// # Description
//
// Sets up an OTLP gRPC trace exporter to the configured collector and
// installs the W3C trace-context and baggage propagators.
//
// # Outputs
//
//   - func(context.Context): Cleanup function to call on shutdown
//   - error: Non-nil if tracer setup fails
//
// # Limitations
//
//   - Uses an insecure gRPC connection (internal network collector)
func (s *service) initTracer() (func(context.Context), error) {
	ctx := context.Background()

	conn, err := grpc.NewClient(s.config.OTelEndpoint,
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("failed to create gRPC connection: %w", err)
	}

	traceExporter, err := otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(conn))
	if err != nil {
		return nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceNameKey.String(serviceName)))
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	traceProvider := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.AlwaysSample())),
		sdktrace.WithResource(res),
		sdktrace.WithSpanProcessor(sdktrace.NewBatchSpanProcessor(traceExporter)))

	otel.SetTracerProvider(traceProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{}))
	slog.Info("Trace export enabled", slog.String("endpoint", s.config.OTelEndpoint))

	cleanup := func(ctx context.Context) {
		ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
		defer cancel()
		if err := traceProvider.Shutdown(ctx); err != nil {
			slog.Error("failed to shutdown tracer provider", "error", err)
		}
		if err := conn.Close(); err != nil {
			slog.Warn("failed to close OTLP connection", "error", err)
		}
	}

	return cleanup, nil
}

// initRouter sets up the gin engine.
//
// # Description
//
// Middleware order: tracing, request id, HTTP metrics, panic recovery.
// Metrics wrap Recovery so a recovered panic is counted as a 500.
func (s *service) initRouter() {
	gin.SetMode(s.config.GinMode)
	s.router = gin.New()
	s.router.Use(
		otelgin.Middleware(serviceName),
		middleware.RequestID(),
		s.components.HTTPMetrics.Middleware(),
		middleware.Recovery())

	routes.SetupRoutes(s.router, routes.Deps{
		Answerer: s.components.Answer,
		Searcher: s.components.Search,
		Metrics:  s.components.HTTPMetrics,
		Gatherer: s.components.Registry,
	})
}

// cleanup releases resources held by the service.
func (s *service) cleanup() {
	if s.tracerCleanup != nil {
		s.tracerCleanup(context.Background())
		s.tracerCleanup = nil
	}
}

// =============================================================================
// Compile-time Interface Compliance
// =============================================================================

var _ Service = (*service)(nil)
