// Package http 模拟服务的 Gin 接口与静态页面
package http

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/pkg/response"
	"github.com/wyfcoding/riskengine/internal/simulation/application"
	"github.com/wyfcoding/riskengine/internal/simulation/domain"
	"github.com/wyfcoding/riskengine/internal/simulation/infrastructure/chart"
	"github.com/wyfcoding/riskengine/pkg/logger"
)

// SimulationHandler 模拟相关 HTTP 接口
type SimulationHandler struct {
	svc        *application.SimulationService
	staticRoot string
}

// NewSimulationHandler staticRoot 为空时不提供静态页面
func NewSimulationHandler(svc *application.SimulationService, staticRoot string) *SimulationHandler {
	return &SimulationHandler{svc: svc, staticRoot: staticRoot}
}

// RegisterRoutes 注册 API 路由；非 GET 请求返回 405，其余未匹配路径交给静态页面
func (h *SimulationHandler) RegisterRoutes(r *gin.Engine) {
	api := r.Group("/api")
	{
		api.GET("/option", h.PriceOption)
		api.GET("/var", h.EstimateVaR)
		api.GET("/convergence", h.RunConvergence)
		api.GET("/convergence/chart", h.ConvergenceChart)
		api.GET("/simulations", h.ListSimulations)
		api.GET("/historical", h.Historical)
		api.GET("/calibration", h.Calibration)
	}

	r.HandleMethodNotAllowed = true
	r.NoMethod(methodNotAllowed)
	r.NoRoute(h.serveStatic)
}

// PriceOption GET /api/option
func (h *SimulationHandler) PriceOption(c *gin.Context) {
	cmd, err := optionCommand(c)
	if err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}
	run, err := h.svc.PriceOption(c.Request.Context(), cmd)
	if err != nil {
		h.fail(c, "failed to price option", err)
		return
	}
	response.Success(c, run)
}

// EstimateVaR GET /api/var
func (h *SimulationHandler) EstimateVaR(c *gin.Context) {
	cmd, err := varCommand(c)
	if err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}
	run, err := h.svc.EstimateVaR(c.Request.Context(), cmd)
	if err != nil {
		h.fail(c, "failed to estimate var", err)
		return
	}
	response.Success(c, run)
}

// RunConvergence GET /api/convergence
func (h *SimulationHandler) RunConvergence(c *gin.Context) {
	run, ok := h.convergence(c)
	if !ok {
		return
	}
	response.Success(c, run)
}

// ConvergenceChart GET /api/convergence/chart，返回 PNG
func (h *SimulationHandler) ConvergenceChart(c *gin.Context) {
	run, ok := h.convergence(c)
	if !ok {
		return
	}
	img, err := chart.ConvergencePNG(run.Result, run.AnalyticPrice)
	if err != nil {
		h.fail(c, "failed to render convergence chart", err)
		return
	}
	c.Data(http.StatusOK, "image/png", img)
}

func (h *SimulationHandler) convergence(c *gin.Context) (*application.ConvergenceRun, bool) {
	cmd, err := convergenceCommand(c)
	if err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return nil, false
	}
	run, err := h.svc.RunConvergence(c.Request.Context(), cmd)
	if err != nil {
		h.fail(c, "failed to run convergence study", err)
		return nil, false
	}
	return run, true
}

// ListSimulations GET /api/simulations?limit=&source=store
func (h *SimulationHandler) ListSimulations(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))

	var (
		recs []*domain.SimulationRecord
		err  error
	)
	if c.Query("source") == "store" {
		recs, err = h.svc.ListStoredRecords(c.Request.Context(), limit)
	} else {
		recs, err = h.svc.ListRecords(c.Request.Context(), limit)
	}
	if err != nil {
		h.fail(c, "failed to list simulations", err)
		return
	}
	response.Success(c, recs)
}

// Historical GET /api/historical?limit=
func (h *SimulationHandler) Historical(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	points, err := h.svc.HistoricalLatest(c.Request.Context(), limit)
	if err != nil {
		h.fail(c, "failed to load historical data", err)
		return
	}
	response.Success(c, points)
}

// Calibration GET /api/calibration?window=&notional=&percentile=
func (h *SimulationHandler) Calibration(c *gin.Context) {
	q := &queryReader{c: c}
	query := application.CalibrationQuery{
		Window:     q.getInt("window", 0),
		Notional:   q.getFloat("notional", 0),
		Percentile: q.getFloat("percentile", 0),
	}
	if q.err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, q.err.Error(), "")
		return
	}
	cal, err := h.svc.Calibrate(c.Request.Context(), query)
	if err != nil {
		h.fail(c, "failed to calibrate", err)
		return
	}
	response.Success(c, cal)
}

func (h *SimulationHandler) fail(c *gin.Context, msg string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.Error(c.Request.Context(), msg, "error", err)
	}
	response.ErrorWithStatus(c, status, err.Error(), logger.RequestID(c.Request.Context()))
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidConfig),
		errors.Is(err, domain.ErrInvalidArgument),
		errors.Is(err, domain.ErrInsufficientHistory):
		return http.StatusBadRequest
	case errors.Is(err, application.ErrHistoryUnavailable),
		errors.Is(err, application.ErrStoreUnavailable):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func methodNotAllowed(c *gin.Context) {
	response.ErrorWithStatus(c, http.StatusMethodNotAllowed, "method not allowed", "")
}

// serveStatic 静态文件，找不到时回退到 index.html
func (h *SimulationHandler) serveStatic(c *gin.Context) {
	if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
		methodNotAllowed(c)
		return
	}
	if h.staticRoot == "" || strings.HasPrefix(c.Request.URL.Path, "/api/") {
		response.ErrorWithStatus(c, http.StatusNotFound, "not found", "")
		return
	}

	file, ok := resolveStatic(h.staticRoot, c.Request.URL.Path)
	if !ok {
		response.ErrorWithStatus(c, http.StatusNotFound, "not found", "")
		return
	}
	c.File(file)
}

// resolveStatic 去掉 "." 与 ".." 段后拼接到根目录下
func resolveStatic(root, requestPath string) (string, bool) {
	var parts []string
	for _, part := range strings.Split(requestPath, "/") {
		if part == "" || part == "." || part == ".." {
			continue
		}
		parts = append(parts, part)
	}
	index := filepath.Join(root, "index.html")

	resolved := filepath.Join(append([]string{root}, parts...)...)
	if info, err := os.Stat(resolved); err == nil {
		if !info.IsDir() {
			return resolved, true
		}
		resolved = filepath.Join(resolved, "index.html")
		if _, err := os.Stat(resolved); err == nil {
			return resolved, true
		}
	}

	if len(parts) == 0 {
		return "", false
	}
	if _, err := os.Stat(index); err != nil {
		return "", false
	}
	return index, true
}
