// cmd/tools/score-csv scores a CSV of applicants offline and prints the
// portfolio report.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"loan-risk-workers/internal/batch"
	"loan-risk-workers/internal/common/config"
	"loan-risk-workers/internal/common/logger"
	"loan-risk-workers/internal/intake"
	"loan-risk-workers/internal/risk"

	"github.com/fatih/color"
)

func main() {
	file := flag.String("file", "", "CSV file with one applicant per row (header required)")
	configPath := flag.String("config", "", "Optional config file supplying the scoring policy")
	top := flag.Int("top", 0, "Number of top candidates to show (defaults to policy)")
	asJSON := flag.Bool("json", false, "Print the report as JSON instead of tables")
	verbose := flag.Bool("v", false, "Log skipped applicants")
	flag.Parse()

	if *file == "" {
		fmt.Fprintln(os.Stderr, "usage: score-csv -file applicants.csv [-config configs/config.yaml] [-top 10] [-json]")
		os.Exit(2)
	}

	policy, batchCfg, err := loadPolicy(*configPath)
	if err != nil {
		color.Red("Error loading config: %v", err)
		os.Exit(1)
	}
	if *top > 0 {
		batchCfg.TopCandidates = *top
	}

	f, err := os.Open(*file)
	if err != nil {
		color.Red("Error opening file: %v", err)
		os.Exit(1)
	}
	defer f.Close()

	items, err := readItems(f)
	if err != nil {
		color.Red("Error reading %s: %v", *file, err)
		os.Exit(1)
	}

	level := "error"
	if *verbose {
		level = "warn"
	}
	log := logger.NewStructured(level, "console", "score-csv")

	coordinator := batch.NewCoordinator(
		risk.NewEngine(policy),
		batchCfg,
		log,
		batch.WithValidator(intake.NewRecordValidator()),
	)
	name := strings.TrimSuffix(filepath.Base(*file), filepath.Ext(*file))
	report := coordinator.Evaluate(context.Background(), name, items)

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			color.Red("Error encoding report: %v", err)
			os.Exit(1)
		}
		return
	}

	renderSummary(os.Stdout, report)
	renderCandidates(os.Stdout, report.TopCandidates)
	renderFailures(os.Stdout, report.Failures)

	if report.IsEmpty() {
		os.Exit(3)
	}
}

// loadPolicy reads the scoring policy from a config file, or falls back to
// the built-in defaults.
func loadPolicy(path string) (risk.Policy, batch.Config, error) {
	if path == "" {
		return risk.DefaultPolicy(), batch.Config{}, nil
	}

	cfg, err := config.LoadFromFile(path)
	if err != nil {
		return risk.Policy{}, batch.Config{}, err
	}
	batchCfg := batch.Config{
		TopCandidates: cfg.Policy.TopCandidates,
		Concurrency:   cfg.Policy.Concurrency,
	}
	return risk.PolicyFromConfig(cfg.Policy), batchCfg, nil
}
