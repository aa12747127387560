// Package core holds the application services behind the HTTP API.
//
// [Service] ties together CSV ingest, batch validation and archive export
// from package batch, the decoder from package qr, and history and template
// persistence from package store. It is transport independent: the web
// handlers and tests drive it directly.
//
// # Concurrency
//
// Validation and export fan out over decoder workers, so whole batches are
// admitted through a [BatchLimiter]. A batch that cannot get a slot within
// the configured wait fails with [ErrTooManyBatches]. On shutdown,
// [Service.WaitForBatches] drains running batches.
//
// # Exports
//
// [Service.ExportArchive] writes qr-codes-<uuid>.zip into the export
// directory and returns that name; [Service.ExportPath] resolves it for
// download. [Service.StartExportCleanup] removes old exports.
//
// # Errors
//
// Technical errors are mapped to user-facing messages with support codes by
// [MapError]. See error_messages.go for the code table.
package core
