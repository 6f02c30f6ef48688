package observability

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"creditmeter/config"
	"creditmeter/models"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
)

// Metric instrument names
const (
	ConsumesTotal            = "creditmeter.consumes"
	RejectionsTotal          = "creditmeter.rejections"
	ReleasesTotal            = "creditmeter.releases"
	GrantsTotal              = "creditmeter.grants"
	LockTimeoutsTotal        = "creditmeter.lock_timeouts"
	OperationDurationSeconds = "creditmeter.operation_duration"

	labelModule    = "module"
	labelOperation = "operation"
)

// MetricsProvider manages OpenTelemetry metrics for the metering engine
type MetricsProvider struct {
	config        *config.Config
	meterProvider *sdkmetric.MeterProvider
	meter         metric.Meter
	initialized   bool
	mu            sync.RWMutex

	// Metric instruments
	consumesCounter     metric.Int64Counter
	rejectionsCounter   metric.Int64Counter
	releasesCounter     metric.Int64Counter
	grantsCounter       metric.Int64Counter
	lockTimeoutsCounter metric.Int64Counter
	durationHistogram   metric.Float64Histogram
}

// NewMetricsProvider creates a new metrics provider
func NewMetricsProvider(cfg *config.Config) *MetricsProvider {
	return &MetricsProvider{
		config: cfg,
	}
}

// Initialize sets up the OpenTelemetry metrics provider
func (mp *MetricsProvider) Initialize(ctx context.Context) error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if mp.initialized {
		return nil
	}

	if !mp.config.OTelEnabled {
		log.Println("OpenTelemetry metrics disabled")
		mp.initialized = true
		return nil
	}

	// Create resource with service information
	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(mp.config.OTelServiceName),
			attribute.String("environment", mp.config.Environment),
		),
	)
	if err != nil {
		return fmt.Errorf("failed to create resource: %w", err)
	}

	// Create appropriate exporter based on config
	var exporter sdkmetric.Exporter
	switch mp.config.OTelExporterType {
	case "console":
		exporter, err = stdoutmetric.New()
		if err != nil {
			return fmt.Errorf("failed to create console exporter: %w", err)
		}

	case "otlp":
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		exporter, err = otlpmetricgrpc.New(ctx,
			otlpmetricgrpc.WithEndpoint(mp.config.OTelEndpoint),
			otlpmetricgrpc.WithInsecure(),
		)
		if err != nil {
			return fmt.Errorf("failed to create OTLP exporter: %w", err)
		}

	default:
		return fmt.Errorf("unknown exporter type: %s", mp.config.OTelExporterType)
	}

	// Create meter provider with periodic reader
	mp.meterProvider = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter)),
	)

	// Set as global meter provider
	otel.SetMeterProvider(mp.meterProvider)

	mp.meter = mp.meterProvider.Meter("creditmeter")

	if err := mp.createInstruments(); err != nil {
		return fmt.Errorf("failed to create instruments: %w", err)
	}

	mp.initialized = true
	log.Println("Metrics provider initialized successfully")
	return nil
}

// createInstruments creates all metric instruments
func (mp *MetricsProvider) createInstruments() error {
	var err error

	mp.consumesCounter, err = mp.meter.Int64Counter(
		ConsumesTotal,
		metric.WithDescription("Total credits consumed"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create consumes counter: %w", err)
	}

	mp.rejectionsCounter, err = mp.meter.Int64Counter(
		RejectionsTotal,
		metric.WithDescription("Total consume attempts rejected for insufficient credits"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create rejections counter: %w", err)
	}

	mp.releasesCounter, err = mp.meter.Int64Counter(
		ReleasesTotal,
		metric.WithDescription("Total credits released back"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create releases counter: %w", err)
	}

	mp.grantsCounter, err = mp.meter.Int64Counter(
		GrantsTotal,
		metric.WithDescription("Total administrative credit grants"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create grants counter: %w", err)
	}

	mp.lockTimeoutsCounter, err = mp.meter.Int64Counter(
		LockTimeoutsTotal,
		metric.WithDescription("Total ledger row lock contention timeouts"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create lock timeouts counter: %w", err)
	}

	mp.durationHistogram, err = mp.meter.Float64Histogram(
		OperationDurationSeconds,
		metric.WithDescription("Ledger operation latency"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return fmt.Errorf("failed to create duration histogram: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the metrics provider
func (mp *MetricsProvider) Shutdown(ctx context.Context) error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if mp.meterProvider != nil {
		return mp.meterProvider.Shutdown(ctx)
	}
	return nil
}

func (mp *MetricsProvider) isEnabled() bool {
	mp.mu.RLock()
	defer mp.mu.RUnlock()
	return mp.initialized && mp.meterProvider != nil
}

// RecordConsume records a successful consume
func (mp *MetricsProvider) RecordConsume(ctx context.Context, module models.Module, amount int64) {
	if !mp.isEnabled() {
		return
	}

	mp.consumesCounter.Add(ctx, amount,
		metric.WithAttributes(
			attribute.String(labelModule, module.String()),
		),
	)
}

// RecordRejection records a consume rejected for insufficient credits
func (mp *MetricsProvider) RecordRejection(ctx context.Context, module models.Module) {
	if !mp.isEnabled() {
		return
	}

	mp.rejectionsCounter.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String(labelModule, module.String()),
		),
	)
}

// RecordRelease records a release back into a pool
func (mp *MetricsProvider) RecordRelease(ctx context.Context, module models.Module, amount int64) {
	if !mp.isEnabled() {
		return
	}

	mp.releasesCounter.Add(ctx, amount,
		metric.WithAttributes(
			attribute.String(labelModule, module.String()),
		),
	)
}

// RecordGrant records an administrative grant
func (mp *MetricsProvider) RecordGrant(ctx context.Context, module models.Module) {
	if !mp.isEnabled() {
		return
	}

	mp.grantsCounter.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String(labelModule, module.String()),
		),
	)
}

// RecordLockTimeout records a row lock contention timeout
func (mp *MetricsProvider) RecordLockTimeout(ctx context.Context, module models.Module) {
	if !mp.isEnabled() {
		return
	}

	mp.lockTimeoutsCounter.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String(labelModule, module.String()),
		),
	)
}

// RecordDuration records the latency of a ledger operation
func (mp *MetricsProvider) RecordDuration(ctx context.Context, module models.Module, operation models.OperationType, elapsed time.Duration) {
	if !mp.isEnabled() {
		return
	}

	mp.durationHistogram.Record(ctx, elapsed.Seconds(),
		metric.WithAttributes(
			attribute.String(labelModule, module.String()),
			attribute.String(labelOperation, string(operation)),
		),
	)
}
