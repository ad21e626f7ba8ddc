// Package middleware Gin 与 gRPC 通用中间件（日志、trace、panic recover、指标、限流）
package middleware

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/wyfcoding/pkg/response"
	"github.com/wyfcoding/riskengine/pkg/logger"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

const (
	// RequestIDHeader 请求 ID 头
	RequestIDHeader = "X-Request-ID"
	// TraceIDHeader 调用方传入的 trace ID 头
	TraceIDHeader = "X-Trace-ID"
)

// HTTPRecorder HTTP 指标记录
type HTTPRecorder interface {
	RecordHTTPRequest(method, path string, statusCode int, d time.Duration)
}

// GRPCRecorder gRPC 指标记录
type GRPCRecorder interface {
	RecordGRPCRequest(method, code string, d time.Duration)
}

// GinLogging 生成 request_id，写入 context 并记录请求日志；rec 可为 nil
func GinLogging(rec HTTPRecorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		ctx := logger.ContextWithIDs(c.Request.Context(), requestID, c.GetHeader(TraceIDHeader), "")
		c.Request = c.Request.WithContext(ctx)
		c.Header(RequestIDHeader, requestID)

		start := time.Now()
		c.Next()
		duration := time.Since(start)

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := c.Writer.Status()
		if rec != nil {
			rec.RecordHTTPRequest(c.Request.Method, path, status, duration)
		}

		args := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status_code", status,
			"client_ip", c.ClientIP(),
			"duration", duration,
		}
		if status >= http.StatusInternalServerError {
			logger.Error(ctx, "HTTP request failed", args...)
			return
		}
		logger.Info(ctx, "HTTP request completed", args...)
	}
}

// GinRecovery panic 恢复
func GinRecovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error(c.Request.Context(), "HTTP request panicked", "panic", r, "path", c.Request.URL.Path)
				c.Abort()
				response.ErrorWithStatus(c, http.StatusInternalServerError, "internal server error", logger.RequestID(c.Request.Context()))
			}
		}()
		c.Next()
	}
}

// GinCORS 允许跨域访问 API
func GinCORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Headers", "Content-Type, Accept, Origin, Cache-Control, X-Requested-With, X-Request-ID, X-Trace-ID")
		h.Set("Access-Control-Allow-Methods", "GET, OPTIONS")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// GRPCLogging gRPC 日志与指标拦截器；rec 可为 nil
func GRPCLogging(rec GRPCRecorder) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		requestID, traceID := fromMetadata(ctx)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		ctx = logger.ContextWithIDs(ctx, requestID, traceID, "")

		start := time.Now()
		resp, err := handler(ctx, req)
		duration := time.Since(start)

		code := status.Code(err)
		if rec != nil {
			rec.RecordGRPCRequest(info.FullMethod, code.String(), duration)
		}
		if err != nil {
			logger.Error(ctx, "gRPC request failed",
				"method", info.FullMethod,
				"code", code.String(),
				"error", err,
				"duration", duration,
			)
			return resp, err
		}
		logger.Info(ctx, "gRPC request completed", "method", info.FullMethod, "duration", duration)
		return resp, nil
	}
}

// GRPCRecovery 将 panic 转为 Internal 错误
func GRPCRecovery() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp any, err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error(ctx, "gRPC request panicked", "method", info.FullMethod, "panic", r)
				err = status.Error(codes.Internal, fmt.Sprintf("panic: %v", r))
			}
		}()
		return handler(ctx, req)
	}
}

func fromMetadata(ctx context.Context) (string, string) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return "", ""
	}
	first := func(key string) string {
		if v := md.Get(key); len(v) > 0 {
			return v[0]
		}
		return ""
	}
	return first("x-request-id"), first("x-trace-id")
}
