package main

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/stacks/internal/models"
	"github.com/desertthunder/stacks/internal/shared"
	"github.com/desertthunder/stacks/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Download saves the documents of the catalog (or the liked list) to a local directory.
func (r *Runner) Download(ctx context.Context, cmd *cli.Command) error {
	token := r.token()

	var items []models.Item
	var err error
	if cmd.Bool("liked") {
		if token, err = r.requireToken(); err != nil {
			return err
		}
		items, err = r.library.LikedBooks.Fetch(ctx, token, false)
	} else {
		items, err = r.library.AllBooks.Fetch(ctx, token, false)
	}
	if err != nil {
		return fmt.Errorf("failed to load items: %w", err)
	}

	if t := cmd.String("type"); t != "" {
		kind, err := models.ParseKind(t)
		if err != nil {
			return fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
		}
		items = models.ByKind(items, kind)
	}

	jobs := tasks.Jobs(items, r.library.AssetURL(), cmd.Bool("audio"))
	if len(jobs) == 0 {
		return r.writePlain("Nothing to download.\n")
	}

	opts := tasks.DownloadOpts{
		OutputDir:  cmd.String("output"),
		NumWorkers: cmd.Int("workers"),
		RateLimit:  cmd.Float("rate"),
	}

	r.logger.Info("starting download", "documents", len(jobs), "output", opts.OutputDir)

	progress := make(chan tasks.ProgressUpdate, 32)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progress {
			r.writePlain("%s\n", update.Message)
		}
	}()

	result, err := r.downloader.BulkDownload(ctx, progress, jobs, opts)
	close(progress)
	<-done

	if result == nil {
		return err
	}

	r.writePlainHeader("Download Summary")
	r.writePlain("Total:      %d\n", result.TotalItems)
	r.writePlain("Successful: %d\n", result.Successful)
	r.writePlain("Failed:     %d\n", result.Failed)
	r.writePlain("Directory:  %s\n", result.OutputDirectory)
	if result.ManifestPath != "" {
		r.writePlain("Manifest:   %s\n", result.ManifestPath)
	}
	r.writePlain("Duration:   %s\n", result.FinishedAt.Sub(result.StartedAt).Round(time.Millisecond))

	return err
}
