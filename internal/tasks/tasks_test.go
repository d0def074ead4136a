package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/stacks/internal/models"
	"github.com/desertthunder/stacks/internal/shared"
)

func newFileServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/files/", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Request-ID") == "" {
			t.Errorf("expected X-Request-ID header")
		}
		if strings.Contains(r.URL.Path, "missing") {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte("content of " + r.URL.Path))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestJobs(t *testing.T) {
	items := []models.Item{
		{ID: "1", Title: "Magazine", File: "/files/1.pdf"},
		{ID: "2", Title: "Audiobook", AudioFile: "/files/2.mp3"},
		{ID: "3", Title: "Remote", File: "https://cdn.example.com/3.png"},
		{ID: "1", Title: "Magazine again", File: "/files/1.pdf"},
		{ID: "4", Title: "Nothing"},
	}

	t.Run("documents only", func(t *testing.T) {
		jobs := Jobs(items, "http://assets.local", false)
		if len(jobs) != 2 {
			t.Fatalf("expected 2 jobs, got %d", len(jobs))
		}
		if jobs[0].URL != "http://assets.local/files/1.pdf" {
			t.Errorf("expected resolved url, got %s", jobs[0].URL)
		}
		if jobs[1].URL != "https://cdn.example.com/3.png" {
			t.Errorf("expected absolute url untouched, got %s", jobs[1].URL)
		}
	})

	t.Run("with audio", func(t *testing.T) {
		jobs := Jobs(items, "http://assets.local", true)
		if len(jobs) != 3 {
			t.Fatalf("expected 3 jobs, got %d", len(jobs))
		}
		if jobs[1].Item.ID != "2" {
			t.Errorf("expected audiobook job second, got %s", jobs[1].Item.ID)
		}
	})
}

func TestFileName(t *testing.T) {
	tests := []struct {
		name string
		job  Job
		want string
	}{
		{name: "keeps extension", job: Job{Item: models.Item{ID: "12"}, URL: "http://x/files/a.PDF?sig=1"}, want: "12.pdf"},
		{name: "no extension", job: Job{Item: models.Item{ID: "12"}, URL: "http://x/files/a"}, want: "12"},
		{name: "unsafe id", job: Job{Item: models.Item{ID: "../etc"}, URL: "http://x/a.png"}, want: "___etc.png"},
		{name: "empty id", job: Job{URL: "http://x/a.png"}, want: "item.png"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FileName(tt.job); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestBulkDownload(t *testing.T) {
	srv := newFileServer(t)

	t.Run("downloads every job and writes manifest", func(t *testing.T) {
		dir := t.TempDir()
		jobs := []Job{
			{Item: models.Item{ID: "1", Title: "One"}, URL: srv.URL + "/files/1.pdf"},
			{Item: models.Item{ID: "2", Title: "Two"}, URL: srv.URL + "/files/2.png"},
			{Item: models.Item{ID: "3", Title: "Three"}, URL: srv.URL + "/files/3.pdf"},
		}

		result, err := NewDownloader(srv.Client(), nil).BulkDownload(context.Background(), nil, jobs, DownloadOpts{
			OutputDir: dir, NumWorkers: 2, RateLimit: 100,
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Successful != 3 || result.Failed != 0 {
			t.Errorf("expected 3 ok 0 failed, got %d ok %d failed", result.Successful, result.Failed)
		}

		for i, res := range result.Results {
			if res.ItemID != jobs[i].Item.ID {
				t.Errorf("expected results in job order, got %s at %d", res.ItemID, i)
			}
			data, err := os.ReadFile(res.Path)
			if err != nil {
				t.Fatalf("expected file at %s: %v", res.Path, err)
			}
			if int64(len(data)) != res.Bytes {
				t.Errorf("expected %d bytes, got %d", res.Bytes, len(data))
			}
		}

		if result.ManifestPath != filepath.Join(dir, manifestName) {
			t.Errorf("unexpected manifest path %s", result.ManifestPath)
		}
		raw, err := os.ReadFile(result.ManifestPath)
		if err != nil {
			t.Fatalf("expected manifest: %v", err)
		}
		var manifest models.BulkDownloadResult
		if err := json.Unmarshal(raw, &manifest); err != nil {
			t.Fatalf("manifest is not valid json: %v", err)
		}
		if manifest.TotalItems != 3 || len(manifest.Results) != 3 {
			t.Errorf("expected 3 items in manifest, got %d/%d", manifest.TotalItems, len(manifest.Results))
		}
	})

	t.Run("records failures without aborting", func(t *testing.T) {
		dir := t.TempDir()
		jobs := []Job{
			{Item: models.Item{ID: "1", Title: "One"}, URL: srv.URL + "/files/1.pdf"},
			{Item: models.Item{ID: "2", Title: "Gone"}, URL: srv.URL + "/files/missing.pdf"},
		}

		result, err := NewDownloader(srv.Client(), nil).BulkDownload(context.Background(), nil, jobs, DownloadOpts{
			OutputDir: dir, RateLimit: 100,
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Successful != 1 || result.Failed != 1 {
			t.Errorf("expected 1 ok 1 failed, got %d ok %d failed", result.Successful, result.Failed)
		}
		failed := result.Results[1]
		if failed.Success || !strings.Contains(failed.Error, "404") {
			t.Errorf("expected 404 failure, got %+v", failed)
		}
		if _, err := os.Stat(filepath.Join(dir, "2.pdf")); !os.IsNotExist(err) {
			t.Errorf("expected no file for failed download")
		}
	})

	t.Run("sends progress updates", func(t *testing.T) {
		prog := make(chan ProgressUpdate, 32)
		jobs := []Job{{Item: models.Item{ID: "1", Title: "One"}, URL: srv.URL + "/files/1.pdf"}}

		if _, err := NewDownloader(srv.Client(), nil).BulkDownload(context.Background(), prog, jobs, DownloadOpts{
			OutputDir: t.TempDir(), RateLimit: 100,
		}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		close(prog)

		phases := map[Phase]int{}
		for u := range prog {
			phases[u.Phase]++
		}
		if phases[Prepare] != 1 || phases[WriteManifest] != 1 {
			t.Errorf("expected prepare and manifest updates, got %v", phases)
		}
		if phases[Download] != 2 {
			t.Errorf("expected start and completion updates, got %d", phases[Download])
		}
	})

	t.Run("full progress channel never blocks", func(t *testing.T) {
		prog := make(chan ProgressUpdate)
		jobs := []Job{{Item: models.Item{ID: "1"}, URL: srv.URL + "/files/1.pdf"}}

		if _, err := NewDownloader(srv.Client(), nil).BulkDownload(context.Background(), prog, jobs, DownloadOpts{
			OutputDir: t.TempDir(), RateLimit: 100,
		}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("cancelled context skips remaining jobs", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		jobs := []Job{
			{Item: models.Item{ID: "1"}, URL: srv.URL + "/files/1.pdf"},
			{Item: models.Item{ID: "2"}, URL: srv.URL + "/files/2.pdf"},
		}

		result, err := NewDownloader(srv.Client(), nil).BulkDownload(ctx, nil, jobs, DownloadOpts{
			OutputDir: t.TempDir(), RateLimit: 100,
		})
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
		if result == nil || result.Failed != 2 {
			t.Fatalf("expected both jobs failed, got %+v", result)
		}
		for _, res := range result.Results {
			if !strings.HasPrefix(res.Error, "skipped") && !strings.Contains(res.Error, "canceled") {
				t.Errorf("expected skipped result, got %q", res.Error)
			}
		}
	})

	t.Run("empty job list", func(t *testing.T) {
		_, err := NewDownloader(nil, nil).BulkDownload(context.Background(), nil, nil, DownloadOpts{})
		if !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})
}

func TestPhaseString(t *testing.T) {
	if Prepare.String() != "prepare" || Download.String() != "download" || WriteManifest.String() != "write_manifest" {
		t.Errorf("unexpected phase names")
	}
	if Phase(99).String() != "" {
		t.Errorf("expected empty name for unknown phase")
	}
}
