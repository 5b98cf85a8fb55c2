// Package ingestion provides pipeline orchestration for storing journal entries.
//
// The Pipeline type manages the ingestion workflow for entries, including:
//   - Validating and adding entries to storage
//   - Generating document embeddings asynchronously
//
// Processing is performed on a worker pool so Ingest returns as soon as the
// entries are stored. Errors during async processing are logged but do not
// fail the ingestion operation; entries left without a vector are picked up
// by the reembed package.
package ingestion
