// Package main provides the CLI entry point for the abengine experiment
// statistics toolkit.
//
// abengine designs and monitors controlled experiments: it evaluates
// significance for two-arm tests, solves the power / sample size / minimum
// detectable effect triangle, computes group-sequential stopping
// boundaries, runs Monte Carlo outcome simulations and sizes multi-variant
// designs with Bonferroni correction.
//
// # Basic Usage
//
// Test two arms for significance:
//
//	abengine significance --control 1000:50 --treatment 1000:60
//
// Size a two-arm test:
//
//	abengine samplesize --baseline 0.05 --effect 20
//
// Simulate experiment outcomes:
//
//	abengine simulate --baseline 0.05 --effect 0.2 --n 8200 --runs 1000
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/statwise/abengine/internal/config"
	"github.com/statwise/abengine/internal/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := logging.New(cfg.LogLevel, cfg.Environment)

	rootCmd := &cobra.Command{
		Use:           "abengine",
		Short:         "Statistics engine for designing and monitoring A/B/n experiments",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	rootCmd.AddCommand(
		buildSignificanceCmd(cfg),
		buildPowerCmd(cfg),
		buildSampleSizeCmd(cfg),
		buildMDECmd(cfg),
		buildSequentialCmd(cfg),
		buildSimulateCmd(cfg, logger),
		buildDesignCmd(cfg),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
