package main

import (
	"fmt"
	"os"
	"time"

	"github.com/blockbench/ledgerstat/internal/errs"
	"github.com/blockbench/ledgerstat/internal/treegraph"
	"github.com/blockbench/ledgerstat/internal/treegraph/report"
	"github.com/blockbench/ledgerstat/logs"
)

func main() {
	cfg, err := parseConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCodeFor(errs.UsageError))
	}

	registry, err := logs.NewRegistry(cfg.LogFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCodeFor(errs.IoError))
	}
	defer registry.Close()

	if level, ok := logs.LevelFromString(cfg.LogLevel); ok {
		registry.SetLevels(level)
	}
	log := registry.Get(logs.SubsystemTags.GRPH)

	if err := run(cfg, log); err != nil {
		log.Errorf("%v", err)
		os.Exit(exitCodeFor(errs.KindOf(err)))
	}
}

// profilingEnabled, when TREE_GRAPH_PROFILE is set, prints each phase's
// wall time after it finishes, mirroring the latency pipeline's
// STAT_LATENCY_PROFILE carry-forward of the original's phase timer.
var profilingEnabled = os.Getenv("TREE_GRAPH_PROFILE") != ""

func timedPhase(log *logs.Logger, name string, fn func() error) error {
	start := time.Now()
	err := fn()
	if profilingEnabled {
		log.Infof("phase %s took %s", name, time.Since(start))
	}
	return err
}

func run(cfg *config, log *logs.Logger) error {
	var sources []treegraph.NodeSource
	err := timedPhase(log, "discover", func() error {
		var err error
		sources, err = treegraph.DiscoverNodeSources(cfg.LogPath, treegraph.DefaultArchiveSource)
		return err
	})
	if err != nil {
		return errs.Wrap(errs.IoError, err, "discover node sources")
	}
	if len(sources) == 0 {
		return errs.Newf(errs.IoError, "no conflux.log.new_blocks sources found under %s", cfg.LogPath)
	}

	var graphs []*treegraph.Graph
	err = timedPhase(log, "load", func() error {
		var err error
		graphs, err = treegraph.LoadAll(sources, treegraph.DefaultArchiveSource, log)
		return err
	})
	if err != nil {
		return err
	}

	primary := graphs[0]
	summary := report.GraphSummary{
		NodeLabel:      sources[0].String(),
		BlockCount:     primary.Len(),
		PivotChainLen:  len(primary.PivotChain()),
		GenesisSubtree: primary.GenesisBlock().SubtreeSize,
	}

	var rows []report.GridRow
	err = timedPhase(log, "confirm", func() error {
		for _, advPercent := range cfg.AdvPercent {
			for _, riskThresh := range cfg.Risk {
				avg, count := primary.AvgConfirmTime(advPercent, riskThresh)
				rows = append(rows, report.GridRow{
					AdvPercent:   advPercent,
					RiskThresh:   riskThresh,
					AvgConfirmed: avg,
					BlockCount:   count,
					HasResult:    count > 0,
				})
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	if err := report.Write(os.Stdout, summary, rows); err != nil {
		return errs.Wrap(errs.IoError, err, "write report")
	}

	if cfg.CrossCheck && len(graphs) > 1 {
		prefix, shortest := treegraph.CommonPivotPrefixLen(graphs)
		report.WriteCrossCheck(os.Stdout, len(graphs), prefix, shortest)
	}

	return nil
}

func exitCodeFor(kind errs.Kind) int {
	switch kind {
	case errs.UsageError:
		return 2
	case errs.IoError:
		return 3
	case errs.FormatError:
		return 4
	case errs.ConsistencyError:
		return 5
	default:
		return 1
	}
}
