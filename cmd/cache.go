package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/stacks/internal/formatter"
	"github.com/desertthunder/stacks/internal/shared"
	"github.com/urfave/cli/v3"
)

// CacheStats prints the state of every cached dataset.
//
// With --warm each dataset is fetched first; failures are logged and show up in the summary.
func (r *Runner) CacheStats(ctx context.Context, cmd *cli.Command) error {
	if cmd.Bool("warm") {
		token := r.token()
		if _, err := r.library.Home.Fetch(ctx, token, false); err != nil {
			r.logger.Warn("failed to warm dataset", "key", r.library.Home.Key(), "error", err)
		}
		if _, err := r.library.AllBooks.Fetch(ctx, token, false); err != nil {
			r.logger.Warn("failed to warm dataset", "key", r.library.AllBooks.Key(), "error", err)
		}
		if token != "" {
			if _, err := r.library.LikedBooks.Fetch(ctx, token, false); err != nil {
				r.logger.Warn("failed to warm dataset", "key", r.library.LikedBooks.Key(), "error", err)
			}
		}
	}

	summaries := r.library.Summaries()
	if cmd.Bool("json") {
		return r.writeJSON(summaries, true)
	}

	_, err := r.output.Write(formatter.CacheSummariesToText(summaries))
	return err
}

// CacheClear drops one dataset by key, or all of them with --all.
func (r *Runner) CacheClear(ctx context.Context, cmd *cli.Command) error {
	if cmd.Bool("all") {
		r.library.ClearAll()
		return r.writePlain("✓ Cleared %d datasets\n", len(r.library.Keys()))
	}

	key := cmd.StringArg("key")
	if key == "" {
		return fmt.Errorf("%w: dataset key or --all (keys: %v)", shared.ErrMissingArgument, r.library.Keys())
	}
	if err := r.library.Clear(key); err != nil {
		return err
	}
	return r.writePlain("✓ Cleared %s\n", key)
}
