// Package observability provides structured logging, Prometheus metrics, health
// checks, OpenTelemetry tracing and graceful shutdown.
//
// # Structured Logging
//
// Logs are JSON via logrus. HTTP middleware stores a request-scoped entry with
// request_id, uid and role in the context:
//
//	logger, err := observability.NewLogger("info", os.Stdout)
//	observability.LoggerFrom(ctx).WithField("match", id).Warn("reassigned")
//
// # Prometheus Metrics
//
//	registry := prometheus.NewRegistry()
//	metrics := observability.NewMetrics(registry)
//	router.Use(observability.HTTPMetricsMiddleware(metrics))
//
// # Health Checks
//
// Readiness fails when a critical probe fails and degrades on any other failure:
//
//	checker := observability.NewHealthChecker(version,
//		observability.SQLProbe("database", db, docstore.ProbeQuery),
//		observability.RedisProbe(redisClient),
//	)
//	observability.RegisterHealthRoutes(healthMux, checker)
//
// # OpenTelemetry
//
//	providers, err := observability.InitOTel(ctx, observability.OTelConfig{
//		Enabled:     true,
//		Endpoint:    "otel-collector:4317",
//		ServiceName: "designaciones",
//	}, logger)
//	defer providers.Shutdown(ctx)
package observability
