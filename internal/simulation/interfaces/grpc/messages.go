package grpc

import (
	"github.com/wyfcoding/riskengine/internal/simulation/application"
	"github.com/wyfcoding/riskengine/internal/simulation/domain"
)

// PriceOptionRequest 缺省字段取默认值
type PriceOptionRequest struct {
	Market     domain.MarketParams     `json:"market"`
	Simulation domain.SimulationConfig `json:"simulation"`
	Option     domain.OptionConfig     `json:"option"`
}

// EstimateVaRRequest 缺省字段取默认值
type EstimateVaRRequest struct {
	Market     domain.MarketParams     `json:"market"`
	Simulation domain.SimulationConfig `json:"simulation"`
	VaR        domain.VaRConfig        `json:"var"`
}

// ConvergenceRequest 缺省字段取默认值
type ConvergenceRequest struct {
	Market      domain.MarketParams     `json:"market"`
	Simulation  domain.SimulationConfig `json:"simulation"`
	Option      domain.OptionConfig     `json:"option"`
	SampleSizes []int                   `json:"sample_sizes"`
}

// ListSimulationsRequest Source 为 "store" 时读取持久化台账
type ListSimulationsRequest struct {
	Limit  int    `json:"limit"`
	Source string `json:"source"`
}

// ListSimulationsResponse 台账记录，最新在前
type ListSimulationsResponse struct {
	Records []*domain.SimulationRecord `json:"records"`
}

// NewPriceOptionRequest 预填默认值，客户端只需覆盖关心的字段
func NewPriceOptionRequest() *PriceOptionRequest {
	cmd := application.NewPriceOptionCommand()
	return &PriceOptionRequest{Market: cmd.Market, Simulation: cmd.Simulation, Option: cmd.Option}
}

// NewEstimateVaRRequest 预填默认值
func NewEstimateVaRRequest() *EstimateVaRRequest {
	cmd := application.NewEstimateVaRCommand()
	return &EstimateVaRRequest{Market: cmd.Market, Simulation: cmd.Simulation, VaR: cmd.VaR}
}

// NewConvergenceRequest 预填默认值
func NewConvergenceRequest() *ConvergenceRequest {
	cmd := application.NewConvergenceCommand()
	return &ConvergenceRequest{Market: cmd.Market, Simulation: cmd.Simulation, Option: cmd.Option, SampleSizes: cmd.SampleSizes}
}

func (r *PriceOptionRequest) command() application.PriceOptionCommand {
	return application.PriceOptionCommand{
		Parameters: application.Parameters{Market: r.Market, Simulation: r.Simulation},
		Option:     r.Option,
	}
}

func (r *EstimateVaRRequest) command() application.EstimateVaRCommand {
	return application.EstimateVaRCommand{
		Parameters: application.Parameters{Market: r.Market, Simulation: r.Simulation},
		VaR:        r.VaR,
	}
}

func (r *ConvergenceRequest) command() application.ConvergenceCommand {
	return application.ConvergenceCommand{
		Parameters:  application.Parameters{Market: r.Market, Simulation: r.Simulation},
		Option:      r.Option,
		SampleSizes: r.SampleSizes,
	}
}
