package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/KshitijBharambe/hygiene/internal/dag"
	"github.com/KshitijBharambe/hygiene/internal/executor"
	"github.com/KshitijBharambe/hygiene/internal/loader"
	"github.com/KshitijBharambe/hygiene/internal/sandbox"
	"github.com/KshitijBharambe/hygiene/internal/state"
	"github.com/KshitijBharambe/hygiene/pkg/core"
	_ "github.com/KshitijBharambe/hygiene/pkg/rules/validators" // register validator kinds
)

type runOptions struct {
	rulesFile   string
	datasetFile string
	mode        string
	workers     int
	showIssues  bool
	maxIssues   int
	watch       bool
}

func newRunCommand() *cobra.Command {
	opts := &runOptions{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Validate a dataset against a rule batch",
		Example: `  # Run a rule batch against a CSV dataset
  hygiene run --rules rules.yaml --dataset orders.csv

  # Force sequential execution and print every issue
  hygiene run --rules rules.yaml --dataset orders.csv --mode sequential --issues

  # Re-run whenever the rules or dataset change
  hygiene run --rules rules.yaml --dataset orders.csv --watch`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			applyConfig(opts)
			if opts.rulesFile == "" || opts.datasetFile == "" {
				return fmt.Errorf("both --rules and --dataset are required")
			}
			if opts.watch {
				return watchAndRun(cmd, opts)
			}
			return runOnce(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.rulesFile, "rules", "r", "", "rule batch YAML file")
	cmd.Flags().StringVarP(&opts.datasetFile, "dataset", "d", "", "dataset CSV file")
	cmd.Flags().StringVarP(&opts.mode, "mode", "m", "", "execution mode: sequential, parallel, adaptive")
	cmd.Flags().IntVar(&opts.workers, "workers", 0, "worker pool size (0 = auto)")
	cmd.Flags().BoolVar(&opts.showIssues, "issues", false, "print individual issues")
	cmd.Flags().IntVar(&opts.maxIssues, "max-issues", 20, "issues shown per rule with --issues (0 = all)")
	cmd.Flags().BoolVarP(&opts.watch, "watch", "w", false, "re-run when the rules or dataset file changes")
	return cmd
}

// applyConfig fills unset flags from the resolved configuration.
func applyConfig(opts *runOptions) {
	if opts.rulesFile == "" {
		opts.rulesFile = cfg.RulesFile
	}
	if opts.datasetFile == "" {
		opts.datasetFile = cfg.DatasetFile
	}
	if opts.mode == "" {
		opts.mode = cfg.Mode
	}
	if opts.workers == 0 {
		opts.workers = cfg.Workers
	}
}

func runOnce(cmd *cobra.Command, opts *runOptions) error {
	ruleset, err := loader.LoadRules(opts.rulesFile)
	if err != nil {
		return err
	}
	dataset, err := loader.LoadDataset(opts.datasetFile)
	if err != nil {
		return err
	}

	plan, err := dag.NewPlanner(logger).Plan(ruleset)
	if err != nil {
		return err
	}

	mode, err := executor.ParseMode(opts.mode)
	if err != nil {
		return err
	}

	store := state.NewSQLiteStore(logger)
	if err := store.Open(cfg.StatePath); err != nil {
		return err
	}
	defer store.Close()

	run, err := store.CreateRun(filepath.Base(opts.datasetFile), string(mode))
	if err != nil {
		return err
	}

	exec := executor.New(executor.Config{
		Mode:            mode,
		Workers:         opts.workers,
		MemoryCeilingMB: cfg.MemoryCeilingMB,
		ChunkThreshold:  cfg.ChunkThreshold,
		ChunkSize:       cfg.ChunkSize,
	}, sandbox.NewEvaluator(sandbox.SecurityLevel(cfg.SecurityLevel), logger),
		store.Sessions(run.ID), logger)

	results, stats, err := exec.Execute(cmd.Context(), plan, dataset)
	if err != nil {
		if cerr := store.CompleteRun(run.ID, core.RunStatusFailed, err.Error()); cerr != nil {
			logger.Warn("completing run failed", "error", cerr)
		}
		return err
	}
	if err := store.CompleteRun(run.ID, core.RunStatusCompleted, ""); err != nil {
		logger.Warn("completing run failed", "error", err)
	}

	out := cmd.OutOrStdout()
	if cfg.Output == "json" {
		return json.NewEncoder(out).Encode(map[string]any{
			"run_id":  run.ID,
			"results": results,
			"stats":   stats,
		})
	}
	renderSummary(out, results, stats)
	if opts.showIssues {
		renderIssues(out, results, opts.maxIssues)
	}
	fmt.Fprintln(out, dimStyle.Render("run "+run.ID))
	return nil
}

// watchAndRun re-executes the batch whenever the rules or dataset file
// changes, debounced so editors writing in bursts trigger one run.
func watchAndRun(cmd *cobra.Command, opts *runOptions) error {
	if err := runOnce(cmd, opts); err != nil {
		logger.Error("run failed", "error", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	watched := map[string]bool{
		filepath.Clean(opts.rulesFile):   true,
		filepath.Clean(opts.datasetFile): true,
	}
	// Watch the containing directories: editors often replace files,
	// which drops a watch on the file itself.
	for path := range watched {
		if err := watcher.Add(filepath.Dir(path)); err != nil {
			return err
		}
	}

	logger.Info("watching for changes", "rules", opts.rulesFile, "dataset", opts.datasetFile)

	var debounce *time.Timer
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	for {
		select {
		case <-ctx.Done():
			return nil

		case event := <-watcher.Events:
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if !watched[filepath.Clean(event.Name)] {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(200*time.Millisecond, func() {
				logger.Info("change detected, re-running", "file", event.Name)
				if err := runOnce(cmd, opts); err != nil {
					logger.Error("run failed", "error", err)
				}
			})

		case err := <-watcher.Errors:
			logger.Error("watcher error", "error", err)
		}
	}
}
