package main

import (
	"github.com/jessevdk/go-flags"
	"github.com/pkg/errors"
)

// config holds the parsed CLI arguments for stat-latency (spec §6).
type config struct {
	LogPath      string `short:"l" long:"log-path" description:"Root directory to recursively search for per-host blocks.log files or .7z archives" required:"true"`
	MaxBlocks    int    `short:"n" long:"max-blocks" description:"Keep only the earliest N surviving blocks; 0 keeps all" default:"0"`
	QuantileImpl string `long:"quantile-impl" description:"Quantile backend to use: brute (exact) or tdigest (approximate)" default:"brute" choice:"brute" choice:"tdigest"`
	LogLevel     string `long:"log-level" description:"Minimum log level" default:"info"`
	LogFile      string `long:"log-file" description:"Write logs to this file in addition to stdout/stderr; empty disables file logging"`
}

func parseConfig() (*config, error) {
	cfg := &config{}
	parser := flags.NewParser(cfg, flags.PrintErrors|flags.HelpFlag)
	_, err := parser.Parse()
	if err != nil {
		return nil, err
	}
	if cfg.MaxBlocks < 0 {
		return nil, errors.New("--max-blocks must be >= 0")
	}
	return cfg, nil
}
