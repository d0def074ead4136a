package tasks

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/stacks/internal/formatter"
	"github.com/desertthunder/stacks/internal/models"
	"github.com/desertthunder/stacks/internal/shared"
	"golang.org/x/time/rate"
)

const (
	defaultWorkers   = 4
	maxWorkers       = 10
	defaultRateLimit = 5.0
	manifestName     = "download_manifest.json"
)

// Job is one document to fetch.
type Job struct {
	Item models.Item
	URL  string
}

// Jobs builds download jobs for the items that carry a document file, resolving relative paths against assetBase.
//
// Audio files are included only when includeAudio is set; items are never duplicated.
func Jobs(items []models.Item, assetBase string, includeAudio bool) []Job {
	seen := make(map[models.ID]bool, len(items))
	jobs := make([]Job, 0, len(items))
	for _, item := range items {
		if seen[item.ID] {
			continue
		}

		ref := strings.TrimSpace(item.File)
		if ref == "" && includeAudio {
			ref = strings.TrimSpace(item.AudioFile)
		}
		if ref == "" {
			continue
		}

		seen[item.ID] = true
		jobs = append(jobs, Job{Item: item, URL: models.ResolveURL(assetBase, ref)})
	}
	return jobs
}

// DownloadOpts contains configuration for bulk downloads.
type DownloadOpts struct {
	OutputDir  string  // Base output directory (default: downloads_{epoch})
	NumWorkers int     // Concurrent workers (default: 4, max: 10)
	RateLimit  float64 // Requests per second (default: 5)
}

// Downloader fetches catalog documents to disk.
type Downloader struct {
	client *http.Client
	logger *log.Logger
	now    func() time.Time
}

// NewDownloader creates a Downloader. A nil client falls back to one with a 60 second timeout.
func NewDownloader(client *http.Client, logger *log.Logger) *Downloader {
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	if logger == nil {
		logger = shared.NewLogger(io.Discard)
	}
	return &Downloader{client: client, logger: logger, now: time.Now}
}

// sendProgress sends a progress update through the channel without blocking.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

type indexedJob struct {
	index int
	job   Job
}

type indexedResult struct {
	index  int
	result models.DownloadResult
}

// BulkDownload fetches every job concurrently with rate limiting and progress tracking, then writes a manifest.
//
// Individual failures are recorded in the result and never abort the batch.
// Cancelling ctx stops scheduling; jobs that never ran are reported as failed.
func (d *Downloader) BulkDownload(ctx context.Context, prog chan<- ProgressUpdate, jobs []Job, opts DownloadOpts) (*models.BulkDownloadResult, error) {
	if len(jobs) == 0 {
		return nil, fmt.Errorf("%w: nothing to download", shared.ErrInvalidArgument)
	}

	if opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("downloads_%d", d.now().Unix())
	}
	opts.NumWorkers = min(max(opts.NumWorkers, 0), maxWorkers)
	if opts.NumWorkers == 0 {
		opts.NumWorkers = defaultWorkers
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = defaultRateLimit
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	total := len(jobs)
	result := &models.BulkDownloadResult{
		TotalItems:      total,
		OutputDirectory: opts.OutputDir,
		StartedAt:       d.now(),
		Results:         make([]models.DownloadResult, total),
	}

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	queue := make(chan indexedJob, total)
	results := make(chan indexedResult, total)

	var wg sync.WaitGroup
	for range opts.NumWorkers {
		wg.Add(1)
		go d.downloadWorker(ctx, &wg, queue, results, opts.OutputDir)
	}

	sendProgress(prog, prepareUpdate(total, opts.OutputDir))

	go func() {
		defer close(queue)
		for i, job := range jobs {
			if err := limiter.Wait(ctx); err != nil {
				return
			}
			queue <- indexedJob{index: i, job: job}
			sendProgress(prog, startedUpdate(i+1, total, job))
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	done := make([]bool, total)
	completed := 0
	for res := range results {
		completed++
		done[res.index] = true
		result.Results[res.index] = res.result

		if res.result.Success {
			result.Successful++
			sendProgress(prog, completedUpdate(completed, total, res.result))
		} else {
			result.Failed++
			sendProgress(prog, failedUpdate(completed, total, res.result))
		}
	}

	for i, ok := range done {
		if ok {
			continue
		}
		result.Results[i] = skipped(jobs[i], ctx.Err())
		result.Failed++
	}
	result.FinishedAt = d.now()

	manifestPath := filepath.Join(opts.OutputDir, manifestName)
	sendProgress(prog, manifestUpdate(manifestPath))
	if err := formatter.WriteDownloadManifest(result, manifestPath); err != nil {
		return result, fmt.Errorf("download completed but failed to write manifest: %w", err)
	}
	result.ManifestPath = manifestPath

	d.logger.Info("bulk download finished", "ok", result.Successful, "failed", result.Failed, "dir", opts.OutputDir)
	return result, ctx.Err()
}

// downloadWorker is a worker goroutine that downloads documents from the queue.
func (d *Downloader) downloadWorker(ctx context.Context, wg *sync.WaitGroup, queue <-chan indexedJob, results chan<- indexedResult, dir string) {
	defer wg.Done()

	for j := range queue {
		if ctx.Err() != nil {
			results <- indexedResult{index: j.index, result: skipped(j.job, ctx.Err())}
			continue
		}
		results <- indexedResult{index: j.index, result: d.downloadOne(ctx, j.job, dir)}
	}
}

// downloadOne streams a single document into dir.
func (d *Downloader) downloadOne(ctx context.Context, job Job, dir string) models.DownloadResult {
	res := models.DownloadResult{
		ItemID: job.Item.ID,
		Title:  job.Item.Title,
		URL:    job.URL,
	}
	fail := func(err error) models.DownloadResult {
		res.Error = err.Error()
		d.logger.Warn("download failed", "id", job.Item.ID, "url", job.URL, "error", err)
		return res
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, job.URL, nil)
	if err != nil {
		return fail(fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("X-Request-ID", shared.GenerateID())

	resp, err := d.client.Do(req)
	if err != nil {
		return fail(fmt.Errorf("%w: %w", shared.ErrNetwork, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fail(fmt.Errorf("%w: status %d", shared.ErrServer, resp.StatusCode))
	}

	target := filepath.Join(dir, FileName(job))
	f, err := os.Create(target)
	if err != nil {
		return fail(fmt.Errorf("failed to create file: %w", err))
	}

	n, err := io.Copy(f, resp.Body)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(target)
		return fail(fmt.Errorf("failed to write file: %w", err))
	}

	res.Path = target
	res.Bytes = n
	res.Success = true
	return res
}

func skipped(job Job, cause error) models.DownloadResult {
	if cause == nil {
		cause = context.Canceled
	}
	return models.DownloadResult{
		ItemID: job.Item.ID,
		Title:  job.Item.Title,
		URL:    job.URL,
		Error:  fmt.Sprintf("skipped: %v", cause),
	}
}

// FileName derives a filesystem-safe name for a job: the item id plus the extension of the remote path.
func FileName(job Job) string {
	ext := ""
	if u, err := url.Parse(job.URL); err == nil {
		ext = strings.ToLower(path.Ext(u.Path))
	}

	base := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, job.Item.ID.String())
	if base == "" {
		base = "item"
	}
	return base + ext
}
