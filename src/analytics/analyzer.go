package analytics

import (
	"fmt"
	"math"
	"time"

	"github.com/montanaflynn/stats"
	"github.com/shopspring/decimal"

	"github.com/quantsim/backtester/src/models"
)

// Analyzer turns a recorded equity curve and fill log into the final
// performance report. It runs once, after the simulation loop has ended.
type Analyzer struct {
	config   *models.BacktestConfig
	matching MatchMethod
}

func NewAnalyzer(config *models.BacktestConfig, matching MatchMethod) *Analyzer {
	if matching == "" {
		matching = MatchFIFO
	}

	return &Analyzer{config: config, matching: matching}
}

func (a *Analyzer) Analyze(strategyID string, curve []models.EquityPoint, fills []*models.Fill, positions []*models.Position, totalSlippage models.Money) (*models.BacktestResults, error) {
	if len(curve) == 0 {
		return nil, models.ErrEmptyEquityCurve
	}

	equities := make([]float64, len(curve))
	for i, point := range curve {
		equities[i] = point.Equity.InexactFloat64()
	}

	returns := periodReturns(equities)
	drawdowns := drawdownSeries(equities)

	maxDrawdown := 0.0
	for _, dd := range drawdowns {
		if dd < maxDrawdown {
			maxDrawdown = dd
		}
	}
	maxDrawdown = math.Abs(maxDrawdown)

	ddPeriods, ddDuration := maxDrawdownDuration(curve, drawdowns)

	initial := a.config.InitialCapital.Amount.InexactFloat64()
	final := equities[len(equities)-1]
	totalReturn := final / initial

	years := a.config.EndDate.Sub(a.config.StartDate).Hours() / 24 / 365.25
	annualizedReturn := 0.0
	if years > 0 && totalReturn > 0 {
		annualizedReturn = math.Pow(totalReturn, 1/years) - 1
	}

	periodsPerYear := float64(a.config.PeriodsPerYear)

	volatility := sampleStdDev(returns) * math.Sqrt(periodsPerYear)

	riskFreePerPeriod := a.config.RiskFreeRate.InexactFloat64() / periodsPerYear
	excess := make([]float64, len(returns))
	for i, r := range returns {
		excess[i] = r - riskFreePerPeriod
	}

	sharpe := sharpeRatio(excess, periodsPerYear)
	sortino := sortinoRatio(excess, periodsPerYear)

	calmar := 0.0
	if maxDrawdown > 0 {
		calmar = annualizedReturn / maxDrawdown
	}

	tradeStats, err := a.tradeStatistics(fills, totalSlippage)
	if err != nil {
		return nil, fmt.Errorf("calculating trade statistics: %w", err)
	}

	results := &models.BacktestResults{
		StrategyID:          strategyID,
		Config:              a.config,
		StartDate:           a.config.StartDate,
		EndDate:             a.config.EndDate,
		InitialCapital:      a.config.InitialCapital,
		FinalCapital:        models.NewMoney(curve[len(curve)-1].Equity, a.config.Currency()),
		TotalReturn:         decimal.NewFromFloat(totalReturn),
		AnnualizedReturn:    decimal.NewFromFloat(annualizedReturn),
		Volatility:          decimal.NewFromFloat(volatility),
		SharpeRatio:         decimal.NewFromFloat(sharpe),
		SortinoRatio:        decimal.NewFromFloat(sortino),
		MaxDrawdown:         decimal.NewFromFloat(maxDrawdown),
		MaxDrawdownDuration: ddDuration,
		MaxDrawdownPeriods:  ddPeriods,
		CalmarRatio:         decimal.NewFromFloat(calmar),
		TradeStats:          tradeStats,
		Positions:           positions,
		Fills:               fills,
		EquityCurve:         curve,
	}

	if err := results.Validate(); err != nil {
		return nil, fmt.Errorf("invalid backtest results: %w", err)
	}

	return results, nil
}

// periodReturns is the period-over-period percentage change, with a leading
// zero so the series aligns with the equity curve.
func periodReturns(equities []float64) []float64 {
	returns := make([]float64, len(equities))
	for i := 1; i < len(equities); i++ {
		if equities[i-1] != 0 {
			returns[i] = (equities[i] - equities[i-1]) / equities[i-1]
		}
	}

	return returns
}

// drawdownSeries is (equity - running peak) / running peak, always <= 0.
func drawdownSeries(equities []float64) []float64 {
	drawdowns := make([]float64, len(equities))

	peak := math.Inf(-1)
	for i, equity := range equities {
		if equity > peak {
			peak = equity
		}
		if peak != 0 {
			drawdowns[i] = (equity - peak) / peak
		}
	}

	return drawdowns
}

// maxDrawdownDuration finds the longest contiguous run of negative
// drawdown, returning its length in periods and its wall-clock span.
func maxDrawdownDuration(curve []models.EquityPoint, drawdowns []float64) (int, time.Duration) {
	maxPeriods := 0
	var maxSpan time.Duration

	start := -1
	flush := func(end int) {
		if start < 0 {
			return
		}
		periods := end - start
		if periods > maxPeriods {
			maxPeriods = periods
			maxSpan = curve[end-1].Timestamp.Sub(curve[start].Timestamp)
		}
		start = -1
	}

	for i, dd := range drawdowns {
		if dd < 0 {
			if start < 0 {
				start = i
			}
		} else {
			flush(i)
		}
	}
	flush(len(drawdowns))

	return maxPeriods, maxSpan
}

func sampleStdDev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}

	sd, err := stats.StandardDeviationSample(values)
	if err != nil {
		return 0
	}

	return sd
}

func sharpeRatio(excess []float64, periodsPerYear float64) float64 {
	sd := sampleStdDev(excess)
	if sd == 0 {
		return 0
	}

	mean, err := stats.Mean(excess)
	if err != nil {
		return 0
	}

	return mean / sd * math.Sqrt(periodsPerYear)
}

// sortinoRatio penalizes only downside deviation; with no negative excess
// periods it falls back to the overall deviation.
func sortinoRatio(excess []float64, periodsPerYear float64) float64 {
	var downside []float64
	for _, r := range excess {
		if r < 0 {
			downside = append(downside, r)
		}
	}

	sd := sampleStdDev(downside)
	if len(downside) == 0 {
		sd = sampleStdDev(excess)
	}
	if sd == 0 {
		return 0
	}

	mean, err := stats.Mean(excess)
	if err != nil {
		return 0
	}

	return mean / sd * math.Sqrt(periodsPerYear)
}

func (a *Analyzer) tradeStatistics(fills []*models.Fill, totalSlippage models.Money) (models.TradeStats, error) {
	currency := a.config.Currency()

	tradeStats := models.TradeStats{
		WinRate:         decimal.Zero,
		ProfitFactor:    decimal.Zero,
		AvgWinningTrade: models.ZeroMoney(currency),
		AvgLosingTrade:  models.ZeroMoney(currency),
		LargestWin:      models.ZeroMoney(currency),
		LargestLoss:     models.ZeroMoney(currency),
		TotalCommission: models.ZeroMoney(currency),
		TotalSlippage:   totalSlippage,
	}

	for _, fill := range fills {
		commission, err := tradeStats.TotalCommission.Add(fill.Commission)
		if err != nil {
			return models.TradeStats{}, err
		}
		tradeStats.TotalCommission = commission
	}

	trips := MatchRoundTrips(fills, a.matching)
	if len(trips) == 0 {
		return tradeStats, nil
	}

	grossProfit := decimal.Zero
	grossLoss := decimal.Zero
	largestWin := decimal.Zero
	largestLoss := decimal.Zero
	var totalDuration time.Duration

	for _, trip := range trips {
		totalDuration += trip.Duration()

		if trip.PNL.IsPositive() {
			tradeStats.WinningTrades++
			grossProfit = grossProfit.Add(trip.PNL)
			largestWin = decimal.Max(largestWin, trip.PNL)
		} else {
			tradeStats.LosingTrades++
			loss := trip.PNL.Abs()
			grossLoss = grossLoss.Add(loss)
			largestLoss = decimal.Max(largestLoss, loss)
		}
	}

	tradeStats.TotalTrades = len(trips)
	tradeStats.WinRate = decimal.NewFromInt(int64(tradeStats.WinningTrades)).Div(decimal.NewFromInt(int64(tradeStats.TotalTrades)))
	tradeStats.AvgTradeDuration = totalDuration / time.Duration(len(trips))

	if tradeStats.WinningTrades > 0 {
		tradeStats.AvgWinningTrade = models.NewMoney(grossProfit.Div(decimal.NewFromInt(int64(tradeStats.WinningTrades))), currency)
	}

	if tradeStats.LosingTrades > 0 {
		tradeStats.AvgLosingTrade = models.NewMoney(grossLoss.Div(decimal.NewFromInt(int64(tradeStats.LosingTrades))), currency)
	}

	if grossLoss.IsPositive() {
		tradeStats.ProfitFactor = grossProfit.Div(grossLoss)
	}

	tradeStats.LargestWin = models.NewMoney(largestWin, currency)
	tradeStats.LargestLoss = models.NewMoney(largestLoss, currency)

	return tradeStats, nil
}
