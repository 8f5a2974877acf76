package model

import (
	"time"

	"github.com/askiada/sch-migrate/pkg/definition"
	"github.com/askiada/sch-migrate/pkg/rewriter"
)

// PipelineInfo describes the migration of one pipeline.
type PipelineInfo struct {
	Name    string
	NewName string
	SdcID   string
	DryRun  bool
	// Before is the definition as fetched, After the definition that is published.
	Before       *definition.Pipeline
	After        *definition.Pipeline
	Replacements []rewriter.Replacement
}

// Result is the outcome of the migration of one pipeline.
type Result struct {
	Name         string                 `yaml:"name"`
	NewName      string                 `yaml:"new_name"`
	SdcID        string                 `yaml:"sdc_id,omitempty"`
	CommitID     string                 `yaml:"commit_id,omitempty"`
	Published    bool                   `yaml:"published"`
	Replacements []rewriter.Replacement `yaml:"replacements"`
	Elapsed      time.Duration          `yaml:"elapsed"`
	Error        string                 `yaml:"error,omitempty"`
}

// NewResult returns the result matching info.
func NewResult(info *PipelineInfo) *Result {
	return &Result{
		Name:         info.Name,
		NewName:      info.NewName,
		SdcID:        info.SdcID,
		Replacements: info.Replacements,
	}
}
