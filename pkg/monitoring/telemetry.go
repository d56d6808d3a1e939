package monitoring

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	promhttp "github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/runtime"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
)

var (
	meterProvider        *sdkmetric.MeterProvider
	requestCounter       metric.Int64Counter
	latencyHist          metric.Float64Histogram
	businessEventCounter metric.Int64Counter
	dbLatencyHist        metric.Float64Histogram
	cacheEventCounter    metric.Int64Counter
	invariantTxHist      metric.Float64Histogram
	initOnce             sync.Once
	httpHandler          http.Handler
)

// Config captures the setup parameters of the metrics pipeline.
type Config struct {
	ServiceName   string
	ResourceAttrs map[string]string

	// OTLPEndpoint, when set, pushes metrics to an OTLP/HTTP collector in
	// addition to serving them on /metrics.
	OTLPEndpoint string
	OTLPInsecure bool
	OTLPHeaders  map[string]string
	OTLPInterval time.Duration
}

// Setup configures OpenTelemetry metrics with a Prometheus exporter and runtime instrumentation.
// It returns a shutdown function that flushes the meter provider.
func Setup(ctx context.Context, cfg Config) (func(context.Context) error, error) {
	if cfg.ServiceName == "" {
		cfg.ServiceName = "real-estate-catalog"
	}

	attrs := []attribute.KeyValue{semconv.ServiceName(cfg.ServiceName)}
	for k, v := range cfg.ResourceAttrs {
		attrs = append(attrs, attribute.String(k, v))
	}

	var initErr error

	initOnce.Do(func() {
		exp, err := prometheus.New(prometheus.WithoutUnits())
		if err != nil {
			initErr = err
			return
		}

		res, err := resource.Merge(
			resource.Default(),
			resource.NewSchemaless(attrs...),
		)
		if err != nil {
			initErr = err
			return
		}

		opts := []sdkmetric.Option{
			sdkmetric.WithReader(exp),
			sdkmetric.WithResource(res),
		}
		if cfg.OTLPEndpoint != "" {
			reader, err := otlpReader(ctx, cfg)
			if err != nil {
				initErr = err
				return
			}
			opts = append(opts, sdkmetric.WithReader(reader))
			slog.Info("Pushing metrics to OTLP collector", "endpoint", cfg.OTLPEndpoint, "insecure", cfg.OTLPInsecure)
		}

		meterProvider = sdkmetric.NewMeterProvider(opts...)
		otel.SetMeterProvider(meterProvider)
		httpHandler = promhttp.Handler()

		meter := meterProvider.Meter(cfg.ServiceName)
		if requestCounter, err = meter.Int64Counter(
			"http_requests_total",
			metric.WithDescription("Total number of HTTP requests processed"),
		); err != nil {
			initErr = err
			return
		}

		if latencyHist, err = meter.Float64Histogram(
			"http_request_duration_seconds",
			metric.WithDescription("HTTP request duration in seconds"),
		); err != nil {
			initErr = err
			return
		}

		if businessEventCounter, err = meter.Int64Counter(
			"catalog_events_total",
			metric.WithDescription("Catalog mutations by entity, action and outcome"),
		); err != nil {
			initErr = err
			return
		}

		if dbLatencyHist, err = meter.Float64Histogram(
			"db_latency_seconds",
			metric.WithDescription("Database latency segmented by operation"),
		); err != nil {
			initErr = err
			return
		}

		if cacheEventCounter, err = meter.Int64Counter(
			"cache_events_total",
			metric.WithDescription("Listing cache hit/miss counts"),
		); err != nil {
			initErr = err
			return
		}

		if invariantTxHist, err = meter.Float64Histogram(
			"image_invariant_tx_seconds",
			metric.WithDescription("Duration of primary-image transactions"),
		); err != nil {
			initErr = err
			return
		}

		// Go runtime metrics (goroutines, GC, etc.)
		_ = runtime.Start(
			runtime.WithMinimumReadMemStatsInterval(10*time.Second),
			runtime.WithMeterProvider(meterProvider),
		)
	})

	if initErr != nil {
		return nil, initErr
	}

	return func(ctx context.Context) error {
		if meterProvider != nil {
			return meterProvider.Shutdown(ctx)
		}
		return nil
	}, nil
}

// otlpReader builds a periodic reader over the OTLP/HTTP exporter. Plain
// http endpoints are refused unless OTLPInsecure is set.
func otlpReader(ctx context.Context, cfg Config) (sdkmetric.Reader, error) {
	endpointURL, err := url.Parse(cfg.OTLPEndpoint)
	if err != nil || endpointURL.Host == "" {
		return nil, fmt.Errorf("invalid OTLP endpoint URL %q", cfg.OTLPEndpoint)
	}
	if endpointURL.Scheme != "https" && !cfg.OTLPInsecure {
		return nil, fmt.Errorf("OTLP endpoint must use https (got %s); set OTEL_EXPORTER_OTLP_INSECURE=true to allow it", endpointURL.Scheme)
	}

	opts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpoint(endpointURL.Host)}
	if endpointURL.Scheme == "http" {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}
	if endpointURL.Path != "" && endpointURL.Path != "/" {
		opts = append(opts, otlpmetrichttp.WithURLPath(endpointURL.Path))
	}
	if len(cfg.OTLPHeaders) > 0 {
		opts = append(opts, otlpmetrichttp.WithHeaders(cfg.OTLPHeaders))
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
	}

	interval := cfg.OTLPInterval
	if interval <= 0 {
		interval = 15 * time.Second
	}
	return sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(interval)), nil
}

// Handler returns the Prometheus /metrics handler.
func Handler() http.Handler {
	if httpHandler != nil {
		return httpHandler
	}
	return http.NotFoundHandler()
}

// HTTPMetricsMiddleware records request counts and latency per normalized route.
func HTTPMetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if requestCounter == nil || latencyHist == nil {
			next.ServeHTTP(w, r)
			return
		}

		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		next.ServeHTTP(recorder, r)

		attrs := attributeSet(r.Method, NormalizeRoute(r.URL.Path), recorder.status)
		requestCounter.Add(r.Context(), 1, metric.WithAttributes(attrs...))
		latencyHist.Record(r.Context(), time.Since(start).Seconds(), metric.WithAttributes(attrs...))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(statusCode int) {
	s.status = statusCode
	s.ResponseWriter.WriteHeader(statusCode)
}

func attributeSet(method, route string, status int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("http.method", method),
		attribute.String("http.route", route),
		attribute.Int("http.status_code", status),
	}
}

// NormalizeRoute replaces numeric path segments with ":id" to keep the route
// label's cardinality bounded, e.g. /api/v1/properties/5/images -> /api/v1/properties/:id/images.
func NormalizeRoute(path string) string {
	parts := strings.Split(path, "/")
	for i, part := range parts {
		if part == "" {
			continue
		}
		if _, err := strconv.ParseUint(part, 10, 64); err == nil {
			parts[i] = ":id"
		}
	}
	return strings.Join(parts, "/")
}

// RecordBusinessEvent counts a catalog mutation such as "property.create".
func RecordBusinessEvent(ctx context.Context, action string, success bool) {
	if businessEventCounter == nil {
		return
	}

	businessEventCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("business.action", action),
		attribute.String("business.outcome", outcomeLabel(success)),
	))
}

func outcomeLabel(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}

// RecordDBLatency records datastore read/write duration.
func RecordDBLatency(ctx context.Context, operation string, duration time.Duration) {
	if dbLatencyHist == nil {
		return
	}

	dbLatencyHist.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("db.operation", operation),
	))
}

// RecordCacheEvent increments cache hit/miss counters.
func RecordCacheEvent(ctx context.Context, cacheName string, hit bool) {
	if cacheEventCounter == nil {
		return
	}

	result := "miss"
	if hit {
		result = "hit"
	}

	cacheEventCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("cache.name", cacheName),
		attribute.String("cache.result", result),
	))
}

// RecordInvariantTx records how long a primary-image transaction held its lock.
func RecordInvariantTx(ctx context.Context, operation string, duration time.Duration, err error) {
	if invariantTxHist == nil {
		return
	}

	invariantTxHist.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("image.operation", operation),
		attribute.String("image.outcome", outcomeLabel(err == nil)),
	))
}
