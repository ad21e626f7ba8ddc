// Package chart 收敛曲线渲染
package chart

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/vicanso/go-charts/v2"
	"github.com/wyfcoding/riskengine/internal/simulation/domain"
)

const (
	width  = 900
	height = 480
)

// ConvergencePNG 渲染蒙特卡洛估值、±2 标准误区间与解析价的折线图
func ConvergencePNG(points []domain.ConvergencePoint, analytic float64) ([]byte, error) {
	if len(points) == 0 {
		return nil, errors.New("no convergence points to plot")
	}

	labels := make([]string, len(points))
	price := make([]float64, len(points))
	upper := make([]float64, len(points))
	lower := make([]float64, len(points))
	exact := make([]float64, len(points))
	for i, p := range points {
		labels[i] = strconv.Itoa(p.Scenarios)
		price[i] = p.Price
		upper[i] = p.Price + 2*p.StandardError
		lower[i] = p.Price - 2*p.StandardError
		exact[i] = analytic
	}

	names := []string{"Monte Carlo", "+2 SE", "-2 SE", "Black-Scholes"}
	painter, err := charts.LineRender([][]float64{price, upper, lower, exact},
		charts.TitleTextOptionFunc("Convergence", fmt.Sprintf("analytic %.4f", analytic)),
		charts.XAxisOptionFunc(charts.XAxisOption{Data: labels, BoundaryGap: charts.FalseFlag()}),
		charts.LegendOptionFunc(charts.LegendOption{Data: names, Top: charts.PositionTop}),
		charts.ThemeOptionFunc(charts.ThemeLight),
		charts.PNGTypeOption(),
		charts.WidthOptionFunc(width),
		charts.HeightOptionFunc(height),
	)
	if err != nil {
		return nil, fmt.Errorf("render convergence chart: %w", err)
	}
	return painter.Bytes()
}
