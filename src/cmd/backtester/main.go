package main

import (
	"context"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/quantsim/backtester/src/cmd/backtester/run"
	"github.com/quantsim/backtester/src/utils"
)

var rootCmd = &cobra.Command{
	Use:   "backtester",
	Short: "Run a strategy backtest over historical OHLCV data",
	Long:  `This program replays a CSV bar file through a strategy and prints a performance report.`,
	Run: func(cmd *cobra.Command, args []string) {
		envFile, err := cmd.Flags().GetString("env")
		if err != nil {
			log.Fatalf("error getting env: %v", err)
		}

		if err := utils.InitEnvironmentVariables(envFile); err != nil {
			log.Fatalf("error loading environment: %v", err)
		}

		configPath, err := cmd.Flags().GetString("config")
		if err != nil {
			log.Fatalf("error getting config: %v", err)
		}

		dataPath, err := cmd.Flags().GetString("data")
		if err != nil {
			log.Fatalf("error getting data: %v", err)
		}

		symbol, err := cmd.Flags().GetString("symbol")
		if err != nil {
			log.Fatalf("error getting symbol: %v", err)
		}

		venue, err := cmd.Flags().GetString("venue")
		if err != nil {
			log.Fatalf("error getting venue: %v", err)
		}

		strategyName, err := cmd.Flags().GetString("strategy")
		if err != nil {
			log.Fatalf("error getting strategy: %v", err)
		}

		matching, err := cmd.Flags().GetString("matching")
		if err != nil {
			log.Fatalf("error getting matching: %v", err)
		}

		logLevel, err := cmd.Flags().GetString("log-level")
		if err != nil {
			log.Fatalf("error getting log-level: %v", err)
		}

		level, err := log.ParseLevel(logLevel)
		if err != nil {
			log.Fatalf("error parsing log level: %v", err)
		}
		log.SetLevel(level)

		runArgs := run.RunArgs{
			ConfigPath:   configPath,
			DataPath:     dataPath,
			Symbol:       symbol,
			Venue:        venue,
			StrategyName: strategyName,
			Matching:     matching,
		}

		if _, err := run.Run(context.Background(), runArgs); err != nil {
			log.Fatalf("error running backtest: %v", err)
		}
	},
}

func main() {
	rootCmd.Flags().String("config", "", "Path to the backtest yaml config")
	rootCmd.Flags().String("data", "", "Path to the OHLCV csv file")
	rootCmd.Flags().String("symbol", "BTC-USD", "Instrument symbol")
	rootCmd.Flags().String("venue", "BINANCE", "Instrument venue")
	rootCmd.Flags().String("strategy", "buy_and_hold", "Strategy to run: sma or buy_and_hold")
	rootCmd.Flags().String("matching", "fifo", "Round-trip matching: fifo or lifo")
	rootCmd.Flags().String("env", "", "Optional .env file to load")
	rootCmd.Flags().String("log-level", "info", "Log level")

	rootCmd.MarkFlagRequired("config")
	rootCmd.MarkFlagRequired("data")

	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("error executing command: %v", err)
	}
}
