// package formatter renders catalog listings and task results as JSON, CSV, Markdown or plain text
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/desertthunder/stacks/internal/cache"
	"github.com/desertthunder/stacks/internal/models"
	"github.com/desertthunder/stacks/internal/shared"
)

// Format selects a listing renderer.
type Format string

const (
	FormatText     Format = "txt"
	FormatJSON     Format = "json"
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
)

// ParseFormat maps a flag value to a [Format]. Empty input selects plain text.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "txt", "text":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	case "csv":
		return FormatCSV, nil
	case "md", "markdown":
		return FormatMarkdown, nil
	default:
		return "", fmt.Errorf("%w: unknown format %q (json, csv, markdown, txt)", shared.ErrInvalidArgument, s)
	}
}

// Render renders a titled item listing in the given format.
func Render(format Format, title string, items []models.Item) ([]byte, error) {
	switch format {
	case FormatJSON:
		return shared.MarshalJSON(items, true)
	case FormatCSV:
		return ItemsToCSV(items)
	case FormatMarkdown:
		return ItemsToMarkdown(title, items)
	default:
		return ItemsToText(title, items)
	}
}

// ItemsToCSV converts items to CSV format with columns: ID, Title, Author, Type, Language, Category, Rating, Audio, Liked
func ItemsToCSV(items []models.Item) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Title", "Author", "Type", "Language", "Category", "Rating", "Audio", "Liked"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, item := range items {
		record := []string{
			item.ID.String(),
			item.Title,
			item.AuthorString(),
			string(item.Kind),
			item.Language,
			item.CategoryName,
			formatRating(item.Rating),
			yesNo(item.HasAudio()),
			yesNo(item.Liked),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ItemsToMarkdown converts items to a Markdown list under a heading.
func ItemsToMarkdown(title string, items []models.Item) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# %s\n\n", title)
	fmt.Fprintf(&buf, "**Items**: %d\n\n", len(items))

	for i, item := range items {
		extra := ""
		if item.Kind != "" {
			extra = fmt.Sprintf(" _%s_", item.Kind)
		}
		if item.HasAudio() {
			extra += " 🎧"
		}
		fmt.Fprintf(&buf, "%d. **%s** by %s%s (`%s`)\n", i+1, item.Title, item.AuthorString(), extra, item.ID)
	}

	return buf.Bytes(), nil
}

// ItemsToText converts items to plain text format
func ItemsToText(title string, items []models.Item) ([]byte, error) {
	var buf bytes.Buffer

	if title != "" {
		fmt.Fprintf(&buf, "%s (%d)\n\n", title, len(items))
	}
	if len(items) == 0 {
		buf.WriteString("No items.\n")
		return buf.Bytes(), nil
	}

	for _, item := range items {
		kind := string(item.Kind)
		if kind == "" {
			kind = "-"
		}
		fmt.Fprintf(&buf, "[%s] %s - %s (%s)\n", item.ID, item.Title, item.AuthorString(), kind)
	}

	return buf.Bytes(), nil
}

// CategoriesToText lists categories one per line.
func CategoriesToText(categories []models.Category) []byte {
	var buf bytes.Buffer
	for _, c := range categories {
		fmt.Fprintf(&buf, "[%s] %s\n", c.ID, c.Name)
	}
	return buf.Bytes()
}

// CacheSummariesToText renders cache dataset summaries as an aligned table.
func CacheSummariesToText(summaries []cache.Summary) []byte {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "%-12s %-7s %-6s %-10s %5s %7s %8s %9s  %s\n",
		"DATASET", "CACHED", "VALID", "AGE", "HITS", "FETCHES", "FAILURES", "FALLBACKS", "ERROR")
	for _, s := range summaries {
		age := "-"
		if s.Cached {
			age = s.Age.Truncate(time.Second).String()
		}
		fmt.Fprintf(&buf, "%-12s %-7s %-6s %-10s %5d %7d %8d %9d  %s\n",
			s.Key, yesNo(s.Cached), yesNo(s.Valid), age,
			s.Stats.Hits, s.Stats.Fetches, s.Stats.Failures, s.Stats.Fallbacks, s.Error)
	}

	return buf.Bytes()
}

// WriteDownloadManifest writes a bulk download summary as indented JSON.
func WriteDownloadManifest(result *models.BulkDownloadResult, path string) error {
	data, err := shared.MarshalJSON(result, true)
	if err != nil {
		return fmt.Errorf("failed to generate manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}

func formatRating(r float64) string {
	if r == 0 {
		return ""
	}
	return fmt.Sprintf("%.1f", r)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
