package run

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/olekukonko/tablewriter"

	"github.com/quantsim/backtester/src/backtest"
	"github.com/quantsim/backtester/src/data"
	"github.com/quantsim/backtester/src/models"
	"github.com/quantsim/backtester/src/strategy"
)

type RunArgs struct {
	ConfigPath   string
	DataPath     string
	Symbol       string
	Venue        string
	StrategyName string
	Matching     string
}

// fileConfig mirrors models.BacktestConfig field-for-field; anything not in
// this struct is an unknown key and fails the strict decode.
type fileConfig struct {
	StartDate        time.Time `yaml:"start_date"`
	EndDate          time.Time `yaml:"end_date"`
	InitialCapital   float64   `yaml:"initial_capital"`
	Currency         string    `yaml:"currency"`
	CommissionRate   *float64  `yaml:"commission_rate"`
	SlippageRate     *float64  `yaml:"slippage_rate"`
	MarketImpactRate *float64  `yaml:"market_impact_rate"`
	SpreadBps        *float64  `yaml:"spread_bps"`
	RiskFreeRate     *float64  `yaml:"risk_free_rate"`
	PeriodsPerYear   *int      `yaml:"periods_per_year"`
	MaxPositionSize  *float64  `yaml:"max_position_size"`
	MaxLeverage      *float64  `yaml:"max_leverage"`

	SMA *struct {
		ShortWindow  int     `yaml:"short_window"`
		LongWindow   int     `yaml:"long_window"`
		PositionSize float64 `yaml:"position_size"`
	} `yaml:"sma"`

	BuyAndHold *struct {
		Allocation float64 `yaml:"allocation"`
	} `yaml:"buy_and_hold"`
}

func loadConfig(path string) (*fileConfig, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config %s: %w", path, err)
	}
	defer f.Close()

	var cfg fileConfig

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	return &cfg, nil
}

func (cfg *fileConfig) toBacktestConfig() *models.BacktestConfig {
	currency := cfg.Currency
	if currency == "" {
		currency = "USD"
	}

	out := models.NewBacktestConfig(cfg.StartDate, cfg.EndDate, models.NewMoneyFromFloat(cfg.InitialCapital, currency))

	if cfg.CommissionRate != nil {
		out.CommissionRate = decimal.NewFromFloat(*cfg.CommissionRate)
	}
	if cfg.SlippageRate != nil {
		out.SlippageRate = decimal.NewFromFloat(*cfg.SlippageRate)
	}
	if cfg.MarketImpactRate != nil {
		out.MarketImpactRate = decimal.NewFromFloat(*cfg.MarketImpactRate)
	}
	if cfg.SpreadBps != nil {
		out.SpreadBps = decimal.NewFromFloat(*cfg.SpreadBps)
	}
	if cfg.RiskFreeRate != nil {
		out.RiskFreeRate = decimal.NewFromFloat(*cfg.RiskFreeRate)
	}
	if cfg.PeriodsPerYear != nil {
		out.PeriodsPerYear = *cfg.PeriodsPerYear
	}
	if cfg.MaxPositionSize != nil {
		size := decimal.NewFromFloat(*cfg.MaxPositionSize)
		out.MaxPositionSize = &size
	}
	if cfg.MaxLeverage != nil {
		leverage := decimal.NewFromFloat(*cfg.MaxLeverage)
		out.MaxLeverage = &leverage
	}

	return out
}

func (cfg *fileConfig) buildStrategy(name string) (backtest.Strategy, error) {
	switch name {
	case "sma":
		smaCfg := strategy.DefaultSMAConfig()
		if cfg.SMA != nil {
			if cfg.SMA.ShortWindow > 0 {
				smaCfg.ShortWindow = cfg.SMA.ShortWindow
			}
			if cfg.SMA.LongWindow > 0 {
				smaCfg.LongWindow = cfg.SMA.LongWindow
			}
			if cfg.SMA.PositionSize > 0 {
				smaCfg.PositionSize = decimal.NewFromFloat(cfg.SMA.PositionSize)
			}
		}

		return strategy.NewSMACrossover("sma_crossover", smaCfg)

	case "buy_and_hold":
		bhCfg := strategy.DefaultBuyAndHoldConfig()
		if cfg.BuyAndHold != nil && cfg.BuyAndHold.Allocation > 0 {
			bhCfg.Allocation = decimal.NewFromFloat(cfg.BuyAndHold.Allocation)
		}

		return strategy.NewBuyAndHold("buy_and_hold", bhCfg)

	default:
		return nil, fmt.Errorf("unknown strategy %q (supported: sma, buy_and_hold)", name)
	}
}

func Run(ctx context.Context, args RunArgs) (*models.BacktestResults, error) {
	cfg, err := loadConfig(args.ConfigPath)
	if err != nil {
		return nil, err
	}

	backtestConfig := cfg.toBacktestConfig()

	strat, err := cfg.buildStrategy(args.StrategyName)
	if err != nil {
		return nil, err
	}

	instrument := models.NewInstrument(args.Symbol, args.Venue)

	feed, err := data.NewCSVFeed(args.DataPath, instrument)
	if err != nil {
		return nil, err
	}

	engine := backtest.NewEngine()
	if args.Matching == "lifo" {
		engine.SetTradeMatching("lifo")
	}

	results, err := engine.Run(ctx, strat, backtestConfig, feed)
	if err != nil {
		return nil, err
	}

	RenderResults(os.Stdout, results)

	return results, nil
}

// RenderResults writes the report as a two-column table.
func RenderResults(w io.Writer, results *models.BacktestResults) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Metric", "Value"})
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetColumnSeparator("")

	rows := [][]string{
		{"Strategy", results.StrategyID},
		{"Period", fmt.Sprintf("%s - %s", results.StartDate.Format("2006-01-02"), results.EndDate.Format("2006-01-02"))},
		{"Initial Capital", results.InitialCapital.String()},
		{"Final Capital", results.FinalCapital.String()},
		{"Return", results.ReturnPercentage().StringFixed(2) + "%"},
		{"Annualized Return", results.AnnualizedReturn.StringFixed(4)},
		{"Volatility", results.Volatility.StringFixed(4)},
		{"Sharpe Ratio", results.SharpeRatio.StringFixed(2)},
		{"Sortino Ratio", results.SortinoRatio.StringFixed(2)},
		{"Calmar Ratio", results.CalmarRatio.StringFixed(2)},
		{"Max Drawdown", results.MaxDrawdown.StringFixed(4)},
		{"Max Drawdown Duration", results.MaxDrawdownDuration.String()},
		{"Total Trades", fmt.Sprintf("%d", results.TradeStats.TotalTrades)},
		{"Win Rate", results.TradeStats.WinRate.StringFixed(4)},
		{"Profit Factor", results.TradeStats.ProfitFactor.StringFixed(2)},
		{"Largest Win", results.TradeStats.LargestWin.String()},
		{"Largest Loss", results.TradeStats.LargestLoss.String()},
		{"Total Commission", results.TradeStats.TotalCommission.String()},
		{"Total Slippage", results.TradeStats.TotalSlippage.String()},
	}

	for _, row := range rows {
		table.Append(row)
	}

	table.Render()
}
