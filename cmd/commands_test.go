package main

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/stacks/internal/library"
	"github.com/desertthunder/stacks/internal/media"
	"github.com/desertthunder/stacks/internal/shared"
	tu "github.com/desertthunder/stacks/internal/testing"
)

func TestAuthCommands(t *testing.T) {
	ctx := context.Background()

	t.Run("login stores the session token", func(t *testing.T) {
		h := newHarness(t)

		if err := h.run(ctx, "auth", "login", "--email", "ada@example.com", "--password", "secret"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		token, err := h.tokens.Get()
		if err != nil {
			t.Fatalf("expected stored token, got %v", err)
		}
		if token != testToken {
			t.Errorf("expected %q, got %q", testToken, token)
		}
		if !strings.Contains(h.output.String(), "Signed in as Ada") {
			t.Errorf("expected greeting, got %q", h.output.String())
		}
	})

	t.Run("login reads missing fields from stdin", func(t *testing.T) {
		h := newHarness(t)
		h.runner.input = strings.NewReader("secret\n")

		if err := h.run(ctx, "auth", "login", "--email", "ada@example.com"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if _, err := h.tokens.Get(); err != nil {
			t.Errorf("expected stored token, got %v", err)
		}
	})

	t.Run("wrong password stores nothing", func(t *testing.T) {
		h := newHarness(t)

		err := h.run(ctx, "auth", "login", "--email", "ada@example.com", "--password", "nope")
		if !errors.Is(err, shared.ErrAuthFailed) {
			t.Errorf("expected ErrAuthFailed, got %v", err)
		}
		if _, err := h.tokens.Get(); !errors.Is(err, shared.ErrTokenNotFound) {
			t.Errorf("expected no token, got %v", err)
		}
	})

	t.Run("status when signed out", func(t *testing.T) {
		h := newHarness(t)

		if err := h.run(ctx, "auth", "status"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(h.output.String(), "Not signed in") {
			t.Errorf("expected signed out message, got %q", h.output.String())
		}
	})

	t.Run("status shows the account", func(t *testing.T) {
		h := newHarness(t)
		h.login(t)

		if err := h.run(ctx, "auth", "status", "--json"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		out := h.output.String()
		if !strings.Contains(out, `"authenticated": true`) || !strings.Contains(out, `"name": "Ada"`) {
			t.Errorf("expected account json, got %s", out)
		}
	})

	t.Run("logout forgets the token and drops caches", func(t *testing.T) {
		h := newHarness(t)
		h.login(t)
		if _, err := h.runner.library.LikedBooks.Fetch(ctx, testToken, false); err != nil {
			t.Fatalf("failed to warm cache: %v", err)
		}

		if err := h.run(ctx, "auth", "logout"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if h.backend.count("POST /api/logout") != 1 {
			t.Error("expected server logout")
		}
		if _, err := h.tokens.Get(); !errors.Is(err, shared.ErrTokenNotFound) {
			t.Errorf("expected token to be deleted, got %v", err)
		}
		if h.runner.library.LikedBooks.Valid() {
			t.Error("expected liked cache to be cleared")
		}
	})

	t.Run("delete requires confirmation", func(t *testing.T) {
		h := newHarness(t)
		h.login(t)

		if err := h.run(ctx, "auth", "delete"); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})
}

func TestCatalogCommands(t *testing.T) {
	ctx := context.Background()

	t.Run("books as csv", func(t *testing.T) {
		h := newHarness(t)
		h.login(t)

		if err := h.run(ctx, "books", "--format", "csv"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		lines := strings.Split(strings.TrimSpace(h.output.String()), "\n")
		if len(lines) != 4 {
			t.Errorf("expected header and 3 rows, got %d lines: %q", len(lines), lines)
		}
		if !strings.Contains(h.output.String(), "Jane Austen") {
			t.Errorf("expected object author to be resolved, got %s", h.output.String())
		}
	})

	t.Run("books by type uses the type listing when the catalog is cold", func(t *testing.T) {
		h := newHarness(t)
		h.login(t)

		if err := h.run(ctx, "books", "--type", "ebooks"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if h.backend.count("GET /api/ebooks") != 1 {
			t.Error("expected the ebooks endpoint to be called")
		}
		out := h.output.String()
		if !strings.Contains(out, "Emma") || strings.Contains(out, "Dune") {
			t.Errorf("expected only ebooks, got %s", out)
		}
	})

	t.Run("books by type filters a warm catalog", func(t *testing.T) {
		h := newHarness(t)
		h.login(t)
		if _, err := h.runner.library.AllBooks.Fetch(ctx, testToken, false); err != nil {
			t.Fatalf("failed to warm cache: %v", err)
		}

		if err := h.run(ctx, "books", "--type", "podcast"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if h.backend.count("GET /api/books") != 1 {
			t.Errorf("expected a single catalog fetch, got %d", h.backend.count("GET /api/books"))
		}
		if !strings.Contains(h.output.String(), "Podcast Hour") {
			t.Errorf("expected podcast, got %s", h.output.String())
		}
	})

	t.Run("unknown type", func(t *testing.T) {
		h := newHarness(t)
		if err := h.run(ctx, "books", "--type", "vinyl"); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("home prints each section", func(t *testing.T) {
		h := newHarness(t)
		h.login(t)

		if err := h.run(ctx, "home"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		out := h.output.String()
		if !strings.Contains(out, "Audiobooks") || !strings.Contains(out, "Ebooks") {
			t.Errorf("expected section titles, got %s", out)
		}
	})

	t.Run("liked requires a session", func(t *testing.T) {
		h := newHarness(t)
		if err := h.run(ctx, "liked"); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
	})

	t.Run("categories", func(t *testing.T) {
		h := newHarness(t)
		if err := h.run(ctx, "categories"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(h.output.String(), "Fiction") {
			t.Errorf("expected category, got %s", h.output.String())
		}
	})

	t.Run("local search reads the cached catalog", func(t *testing.T) {
		h := newHarness(t)
		h.login(t)

		if err := h.run(ctx, "search", "--local", "herbert"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if h.backend.count("GET /api/search") != 0 {
			t.Error("expected no server search")
		}
		if !strings.Contains(h.output.String(), "Dune") {
			t.Errorf("expected match, got %s", h.output.String())
		}
	})

	t.Run("remote search", func(t *testing.T) {
		h := newHarness(t)
		h.login(t)

		if err := h.run(ctx, "search", "emma"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if h.backend.count("GET /api/search") != 1 {
			t.Error("expected server search")
		}
	})

	t.Run("search without a query", func(t *testing.T) {
		h := newHarness(t)
		if err := h.run(ctx, "search"); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})
}

func TestEngagementCommands(t *testing.T) {
	ctx := context.Background()

	t.Run("like invalidates the liked list", func(t *testing.T) {
		h := newHarness(t)
		h.login(t)
		if _, err := h.runner.library.LikedBooks.Fetch(ctx, testToken, false); err != nil {
			t.Fatalf("failed to warm cache: %v", err)
		}

		if err := h.run(ctx, "like", "audiobook", "1"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if h.backend.count("POST /api/like/book/1") != 1 {
			t.Error("expected like request")
		}
		if h.runner.library.LikedBooks.Valid() {
			t.Error("expected liked cache to be cleared")
		}
		if h.runner.library.Summaries()[0].Key != library.KeyHome {
			t.Error("expected registry order to be stable")
		}
	})

	t.Run("unlike", func(t *testing.T) {
		h := newHarness(t)
		h.login(t)

		if err := h.run(ctx, "unlike", "podcast", "3"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if h.backend.count("DELETE /api/like/podcast/3") != 1 {
			t.Error("expected unlike request")
		}
	})

	t.Run("like needs both arguments", func(t *testing.T) {
		h := newHarness(t)
		h.login(t)
		if err := h.run(ctx, "like", "book"); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("review rejects out of range ratings", func(t *testing.T) {
		h := newHarness(t)
		h.login(t)

		if err := h.run(ctx, "review", "--rating", "9", "1"); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
		if h.backend.count("POST /api/reviews") != 0 {
			t.Error("expected no request for an invalid review")
		}
	})

	t.Run("review", func(t *testing.T) {
		h := newHarness(t)
		h.login(t)

		if err := h.run(ctx, "review", "--rating", "4", "--comment", "great", "1"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if h.backend.count("POST /api/reviews") != 1 {
			t.Error("expected review request")
		}
	})

	t.Run("bookmark", func(t *testing.T) {
		h := newHarness(t)
		h.login(t)

		if err := h.run(ctx, "bookmark", "--page", "12", "2"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if h.backend.count("POST /api/bookmarks") != 1 {
			t.Error("expected bookmark request")
		}
	})
}

func TestOpenCommand(t *testing.T) {
	ctx := context.Background()

	t.Run("opens the resolved document url", func(t *testing.T) {
		h := newHarness(t)
		h.login(t)

		if err := h.run(ctx, "open", "2"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		want := h.backend.server.URL + "/files/emma.pdf"
		if len(h.opened) != 1 || h.opened[0] != want {
			t.Errorf("expected %s to be opened, got %v", want, h.opened)
		}
	})

	t.Run("item without a document", func(t *testing.T) {
		h := newHarness(t)
		h.login(t)

		if err := h.run(ctx, "open", "3"); !errors.Is(err, shared.ErrItemNotFound) {
			t.Errorf("expected ErrItemNotFound, got %v", err)
		}
		if len(h.opened) != 0 {
			t.Errorf("expected nothing opened, got %v", h.opened)
		}
	})

	t.Run("unknown item", func(t *testing.T) {
		h := newHarness(t)
		h.login(t)

		if err := h.run(ctx, "open", "99"); !errors.Is(err, shared.ErrItemNotFound) {
			t.Errorf("expected ErrItemNotFound, got %v", err)
		}
	})

	t.Run("banner records the ad click", func(t *testing.T) {
		h := newHarness(t)
		h.login(t)

		if err := h.run(ctx, "open", "--banner", "7"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if h.backend.count("POST /api/ads/70/click") != 1 {
			t.Error("expected ad click to be recorded")
		}
		if len(h.opened) != 1 || h.opened[0] != "https://example.com/promo" {
			t.Errorf("expected banner link to be opened, got %v", h.opened)
		}
	})
}

func TestDownloadCommand(t *testing.T) {
	ctx := context.Background()

	t.Run("downloads documents and writes a manifest", func(t *testing.T) {
		h := newHarness(t)
		h.login(t)
		dir := filepath.Join(t.TempDir(), "out")

		if err := h.run(ctx, "download", "--output", dir, "--rate", "100"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		tu.AssertFileExists(t, filepath.Join(dir, "1.pdf"))
		tu.AssertFileExists(t, filepath.Join(dir, "2.pdf"))
		tu.AssertFileExists(t, filepath.Join(dir, "download_manifest.json"))

		if got := tu.MustReadFile(t, filepath.Join(dir, "2.pdf")); got != "%PDF-1.4 emma.pdf" {
			t.Errorf("expected document body, got %q", got)
		}
		if !strings.Contains(h.output.String(), "Successful: 2") {
			t.Errorf("expected summary, got %s", h.output.String())
		}
	})

	t.Run("nothing to download", func(t *testing.T) {
		h := newHarness(t)
		h.login(t)

		if err := h.run(ctx, "download", "--type", "podcast", "--output", t.TempDir()); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(h.output.String(), "Nothing to download") {
			t.Errorf("expected empty message, got %s", h.output.String())
		}
	})
}

func TestCacheCommands(t *testing.T) {
	ctx := context.Background()

	t.Run("stats after warming", func(t *testing.T) {
		h := newHarness(t)
		h.login(t)

		if err := h.run(ctx, "cache", "stats", "--warm", "--json"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		out := h.output.String()
		for _, key := range []string{library.KeyHome, library.KeyLikedBooks, library.KeyAllBooks} {
			if !strings.Contains(out, `"key": "`+key+`"`) {
				t.Errorf("expected %s in stats, got %s", key, out)
			}
		}
		if strings.Contains(out, `"cached": false`) {
			t.Errorf("expected every dataset to be cached, got %s", out)
		}
	})

	t.Run("clear one dataset", func(t *testing.T) {
		h := newHarness(t)
		h.login(t)
		if _, err := h.runner.library.AllBooks.Fetch(ctx, testToken, false); err != nil {
			t.Fatalf("failed to warm cache: %v", err)
		}

		if err := h.run(ctx, "cache", "clear", library.KeyAllBooks); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if h.runner.library.AllBooks.Valid() {
			t.Error("expected catalog cache to be cleared")
		}
	})

	t.Run("clear unknown dataset", func(t *testing.T) {
		h := newHarness(t)
		if err := h.run(ctx, "cache", "clear", "nope"); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("clear without a key", func(t *testing.T) {
		h := newHarness(t)
		if err := h.run(ctx, "cache", "clear"); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})
}

func TestPlayCommand(t *testing.T) {
	t.Run("plays until the track ends", func(t *testing.T) {
		h := newHarness(t)
		h.login(t)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		go func() {
			for h.media.Count("play") == 0 {
				if ctx.Err() != nil {
					return
				}
				time.Sleep(5 * time.Millisecond)
			}
			h.media.Emit(media.Event{Kind: media.Ended})
		}()

		if err := h.run(ctx, "play", "1"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		out := h.output.String()
		if !strings.Contains(out, "▶ Dune by Frank Herbert [1/1]") {
			t.Errorf("expected now playing line, got %q", out)
		}
		if !strings.Contains(out, "Finished") {
			t.Errorf("expected finish line, got %q", out)
		}
		if want := h.backend.server.URL + "/audio/dune.mp3"; h.media.Source() != want {
			t.Errorf("expected source %s, got %s", want, h.media.Source())
		}
		if h.backend.count("POST /api/play-history") != 1 {
			t.Error("expected play to be recorded")
		}
	})

	t.Run("volume is restored and saved", func(t *testing.T) {
		h := newHarness(t)
		h.login(t)
		if err := h.runner.settings.Set(VolumeKey, "0.25"); err != nil {
			t.Fatalf("failed to seed volume: %v", err)
		}

		engine, stop, err := h.runner.startPlayer(context.Background())
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if engine.State().Volume != 0.25 {
			t.Errorf("expected restored volume 0.25, got %v", engine.State().Volume)
		}
		if h.media.Volume() != 0.25 {
			t.Errorf("expected output volume 0.25, got %v", h.media.Volume())
		}

		engine.SetVolumeLevel(0.5)
		stop()

		s, err := h.runner.settings.Get(VolumeKey)
		if err != nil {
			t.Fatalf("expected saved volume, got %v", err)
		}
		if s.Value != "0.50" {
			t.Errorf("expected 0.50, got %s", s.Value)
		}
	})

	t.Run("item without audio", func(t *testing.T) {
		h := newHarness(t)
		h.login(t)

		if err := h.run(context.Background(), "play", "2"); !errors.Is(err, shared.ErrNoAudio) {
			t.Errorf("expected ErrNoAudio, got %v", err)
		}
		if h.media.Count("load") != 0 {
			t.Error("expected nothing to be loaded")
		}
	})

	t.Run("rejected playback", func(t *testing.T) {
		h := newHarness(t)
		h.login(t)
		h.media.RejectPlay(shared.ErrPlaybackRejected)

		if err := h.run(context.Background(), "play", "3"); !errors.Is(err, shared.ErrPlaybackRejected) {
			t.Errorf("expected ErrPlaybackRejected, got %v", err)
		}
	})
}

func TestSetupAndAccountCommands(t *testing.T) {
	ctx := context.Background()

	t.Run("setup config writes defaults once", func(t *testing.T) {
		h := newHarness(t)
		path := filepath.Join(t.TempDir(), "config.toml")

		if err := h.run(ctx, "setup", "config", "--output", path); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		tu.AssertFileExists(t, path)

		if err := h.run(ctx, "setup", "config", "--output", path); !errors.Is(err, shared.ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig for existing file, got %v", err)
		}
	})

	t.Run("setup database creates config and runs migrations", func(t *testing.T) {
		h := newHarness(t)
		dir := t.TempDir()
		t.Chdir(dir)
		path := filepath.Join(dir, "config.toml")

		if err := h.run(ctx, "setup", "database", "--config", path); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		tu.AssertFileExists(t, path)
		if !strings.Contains(h.output.String(), "Database ready") {
			t.Errorf("expected confirmation, got %s", h.output.String())
		}
	})

	t.Run("plans", func(t *testing.T) {
		h := newHarness(t)
		if err := h.run(ctx, "account", "plans"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(h.output.String(), "Monthly") {
			t.Errorf("expected plan, got %s", h.output.String())
		}
	})

	t.Run("page", func(t *testing.T) {
		h := newHarness(t)
		if err := h.run(ctx, "page", "terms"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(h.output.String(), "Be nice.") {
			t.Errorf("expected page content, got %s", h.output.String())
		}
	})
}
