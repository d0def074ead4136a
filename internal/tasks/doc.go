// Package tasks runs long-lived catalog operations with real-time progress reporting.
//
// # Bulk Downloads
//
// [Downloader.BulkDownload] fetches the document files (PDFs, images) attached to
// catalog items. Jobs are built with [Jobs], which resolves relative file paths
// against the asset host. Requests are paced by a shared token bucket and run on
// a small worker pool; one failed document never aborts the batch. When the pool
// drains a JSON manifest is written next to the files.
//
// Documents are stored as-is. Nothing is parsed or rendered in-process.
//
// # Progress Reporting
//
// All operations use non-blocking channels for progress updates.
// The [ProgressUpdate] struct contains phase, step counters, messages, and
// optional data for advanced UI rendering. Updates use select with default to
// prevent blocking, so a slow or absent reader simply misses updates.
package tasks
