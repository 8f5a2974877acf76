package measure

import "time"

// Result labels of the pipelines counter.
const (
	PublishedResult = "published"
	DryRunResult    = "dry_run"
	FailedResult    = "failed"
)

// Measure records what a migration run did.
type Measure interface {
	// AddPipeline counts one pipeline with its result and how long it took.
	AddPipeline(result string, elapsed time.Duration)
	// AddFailure counts one pipeline that failed.
	AddFailure()
	// AddReplacement counts one stage labelled from replaced by a stage labelled to.
	AddReplacement(from, to string)
	// Flush exports the recorded values.
	Flush() error
}
