package model

import "time"

// MigrationOption defines the interface for migration options.
type MigrationOption interface {
	// New initialises the migration option.
	New() error
	// Prepare runs once the new pipeline is built, before it is published.
	Prepare(info *PipelineInfo) error
	// OnPublished runs after the new pipeline is published, or after a dry run skipped publishing.
	OnPublished(info *PipelineInfo, elapsed time.Duration) error
	// OnFailed runs when the migration of a pipeline fails. info holds what was known at that point.
	OnFailed(info *PipelineInfo, err error) error
	// Finish runs after the last pipeline.
	Finish() error
}
