package models

import "time"

// DownloadResult is the outcome of fetching one item's document.
type DownloadResult struct {
	ItemID  ID     `json:"item_id"`
	Title   string `json:"title"`
	URL     string `json:"url"`
	Path    string `json:"path,omitempty"`
	Bytes   int64  `json:"bytes"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// BulkDownloadResult summarizes a bulk download and doubles as its manifest.
type BulkDownloadResult struct {
	TotalItems      int              `json:"total_items"`
	Successful      int              `json:"successful"`
	Failed          int              `json:"failed"`
	OutputDirectory string           `json:"output_directory"`
	ManifestPath    string           `json:"-"`
	StartedAt       time.Time        `json:"started_at"`
	FinishedAt      time.Time        `json:"finished_at"`
	Results         []DownloadResult `json:"results"`
}
