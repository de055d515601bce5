package main

import (
	"github.com/jessevdk/go-flags"
	"github.com/pkg/errors"
)

// config holds the parsed CLI arguments for tree-graph-analyze (spec §6,
// SPEC_FULL's supplemented compute_confirmation/analyze_all_nodes
// features).
type config struct {
	LogPath    string    `short:"l" long:"log-path" description:"Directory of per-node log directories, or a single .7z archive of conflux.log.new_blocks members" required:"true"`
	AdvPercent []int     `long:"adv-percent" description:"Adversary hash share percentage; repeatable" default:"10" default:"15" default:"20" default:"30"`
	Risk       []float64 `long:"risk" description:"Confirmation risk threshold; repeatable" default:"0.0001" default:"0.00001" default:"0.000001" default:"1e-7" default:"1e-8"`
	CrossCheck bool      `long:"cross-check" description:"When more than one node directory is present, report common pivot-chain prefix across all nodes"`
	LogLevel   string    `long:"log-level" description:"Minimum log level" default:"info"`
	LogFile    string    `long:"log-file" description:"Write logs to this file in addition to stdout/stderr; empty disables file logging"`
}

func parseConfig() (*config, error) {
	cfg := &config{}
	parser := flags.NewParser(cfg, flags.PrintErrors|flags.HelpFlag)
	_, err := parser.Parse()
	if err != nil {
		return nil, err
	}
	for _, pct := range cfg.AdvPercent {
		if pct <= 0 || pct >= 50 {
			return nil, errors.Errorf("--adv-percent must be in (0, 50), got %d", pct)
		}
	}
	for _, r := range cfg.Risk {
		if r <= 0 || r >= 1 {
			return nil, errors.Errorf("--risk must be in (0, 1), got %v", r)
		}
	}
	return cfg, nil
}
