// Package tracing 初始化 OpenTelemetry TracerProvider 与上下文传播
package tracing

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// Config 追踪配置
type Config struct {
	ServiceName string
	// SampleRatio 采样比例，<= 0 或 >= 1 时全采样
	SampleRatio float64
	// Exporter 可选，为 nil 时只生成 span 用于日志关联与上下游透传
	Exporter sdktrace.SpanExporter
}

// Init 设置全局 TracerProvider 与 W3C TraceContext/Baggage 传播器
func Init(cfg Config) (shutdown func(context.Context) error) {
	res := resource.NewSchemaless(
		attribute.String("service.name", cfg.ServiceName),
	)

	sampler := sdktrace.AlwaysSample()
	if cfg.SampleRatio > 0 && cfg.SampleRatio < 1 {
		sampler = sdktrace.TraceIDRatioBased(cfg.SampleRatio)
	}

	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sampler)),
	}
	if cfg.Exporter != nil {
		opts = append(opts, sdktrace.WithBatcher(cfg.Exporter))
	}

	tp := sdktrace.NewTracerProvider(opts...)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	slog.Info("tracer provider initialized", "service", cfg.ServiceName, "exporter", cfg.Exporter != nil)
	return tp.Shutdown
}

// StartSpan 使用全局 TracerProvider 开启 span，调用方负责 End
func StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return otel.Tracer("github.com/wyfcoding/riskengine/pkg/tracing").Start(ctx, name, opts...)
}
