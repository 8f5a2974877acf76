package migration

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/askiada/sch-migrate/internal/topology"
	"github.com/askiada/sch-migrate/pkg/controlhub"
	"github.com/askiada/sch-migrate/pkg/migration/model"
	"github.com/askiada/sch-migrate/pkg/rewriter"
)

// Client is the part of the control hub API a migration uses.
type Client interface {
	Pipeline(ctx context.Context, name string) (*controlhub.Pipeline, error)
	DataCollector(ctx context.Context, id string) (*controlhub.DataCollector, error)
	StageLibrary(ctx context.Context, id string) (*controlhub.StageLibrary, error)
	Publish(ctx context.Context, pipe *controlhub.Pipeline, commitMessage string) (*controlhub.CommitSummary, error)
}

var _ Client = (*controlhub.Client)(nil)

// Migrator migrates pipelines one after the other.
type Migrator struct {
	client        Client
	mapping       rewriter.Mapping
	logger        *slog.Logger
	keepGoing     bool
	dryRun        bool
	suffix        string
	commitMessage string
	opts          []model.MigrationOption
}

// New creates a migrator replacing stages according to mapping. An empty mapping means
// rewriter.DefaultMapping.
func New(client Client, mapping rewriter.Mapping, opts ...MigratorOption) (*Migrator, error) {
	if client == nil {
		return nil, ErrClientMustBeSet
	}

	if mapping.Len() == 0 {
		mapping = rewriter.DefaultMapping()
	}

	m := &Migrator{
		client:        client,
		mapping:       mapping,
		logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
		suffix:        DefaultSuffix,
		commitMessage: DefaultCommitMessage,
	}
	for _, opt := range opts {
		opt(m)
	}

	if m.suffix == "" {
		return nil, ErrSuffixMustBeSet
	}

	if strings.Count(m.commitMessage, "%s") != 1 || strings.Count(m.commitMessage, "%") != 1 {
		return nil, errors.Wrapf(ErrInvalidCommitMsg, "%q", m.commitMessage)
	}

	return m, nil
}

// Run migrates every pipeline in names, in order. It returns one result per pipeline it tried.
func (m *Migrator) Run(ctx context.Context, names ...string) ([]*model.Result, error) {
	if len(names) == 0 {
		return nil, ErrNoPipelines
	}

	for _, opt := range m.opts {
		err := opt.New()
		if err != nil {
			return nil, errors.Wrap(err, "unable to initialise migration option")
		}
	}

	results := make([]*model.Result, 0, len(names))

	runErr := m.run(ctx, names, &results)

	finishErr := m.finish()
	if runErr != nil {
		if finishErr != nil {
			m.logger.ErrorContext(ctx, "unable to finish migration options", "error", finishErr)
		}

		return results, runErr
	}

	return results, finishErr
}

func (m *Migrator) run(ctx context.Context, names []string, results *[]*model.Result) error {
	failures := []error{}

	for _, name := range names {
		err := ctx.Err()
		if err != nil {
			return errors.Wrapf(err, "migration interrupted before pipeline %s", name)
		}

		result, err := m.Migrate(ctx, name)
		*results = append(*results, result)

		if err == nil {
			continue
		}

		if !m.keepGoing {
			return err
		}

		m.logger.ErrorContext(ctx, "unable to migrate pipeline", "pipeline", name, "error", err)
		failures = append(failures, err)
	}

	if len(failures) > 0 {
		return &RunError{Failures: failures}
	}

	return nil
}

func (m *Migrator) finish() error {
	for _, opt := range m.opts {
		err := opt.Finish()
		if err != nil {
			return errors.Wrap(err, "unable to finish migration option")
		}
	}

	return nil
}

// Migrate migrates the pipeline called name. The returned result is never nil.
func (m *Migrator) Migrate(ctx context.Context, name string) (*model.Result, error) {
	start := time.Now()
	info := &model.PipelineInfo{
		Name:    name,
		NewName: name + m.suffix,
		DryRun:  m.dryRun,
	}

	commitID, err := m.migrate(ctx, info)
	elapsed := time.Since(start)

	result := model.NewResult(info)
	result.Elapsed = elapsed

	if err != nil {
		err = errors.Wrapf(err, "pipeline %s", name)
		result.Error = err.Error()
		m.onFailed(ctx, info, err)

		return result, err
	}

	result.CommitID = commitID
	result.Published = !m.dryRun

	// The pipeline is already published: a failing hook is reported on the result only.
	for _, opt := range m.opts {
		err := opt.OnPublished(info, elapsed)
		if err != nil {
			err = errors.Wrapf(err, "pipeline %s: migration option", name)
			m.logger.WarnContext(ctx, "migration option failed after publish", "pipeline", name, "error", err)

			if result.Error == "" {
				result.Error = err.Error()
			}
		}
	}

	if m.dryRun {
		m.logger.InfoContext(ctx, fmt.Sprintf("Dry run of pipeline %s (new name: %s)", name, info.NewName),
			"pipeline", name, "new_name", info.NewName, "replaced", len(info.Replacements))

		return result, nil
	}

	m.logger.InfoContext(ctx, fmt.Sprintf("Successfully migrated pipeline %s (new name: %s)", name, info.NewName),
		"pipeline", name, "new_name", info.NewName, "replaced", len(info.Replacements), "commit", commitID)

	return result, nil
}

func (m *Migrator) migrate(ctx context.Context, info *model.PipelineInfo) (string, error) {
	logger := m.logger.With("pipeline", info.Name)

	pipe, err := m.client.Pipeline(ctx, info.Name)
	if err != nil {
		return "", errors.Wrap(err, "unable to fetch pipeline")
	}

	info.SdcID = pipe.SdcID
	info.Before = pipe.Definition.Clone()

	before, err := topology.New(pipe.Definition)
	if err != nil {
		return "", errors.Wrap(err, "unable to read stage wiring")
	}

	plan, err := rewriter.Plan(pipe.Definition, m.mapping)
	if err != nil {
		return "", errors.Wrap(err, "unable to plan replacements")
	}

	info.Replacements = plan

	removed, err := rewriter.Strip(pipe.Definition, plan)
	if err != nil {
		return "", errors.Wrap(err, "unable to strip stages")
	}

	for _, stage := range removed {
		logger.InfoContext(ctx, "deleting stage", "stage", stage.InstanceName)
	}

	builder, err := m.builder(ctx, pipe.SdcID)
	if err != nil {
		return "", err
	}

	err = builder.Import(pipe.Definition, pipe.Rules)
	if err != nil {
		return "", errors.Wrap(err, "unable to import pipeline")
	}

	added, err := rewriter.Splice(plan, builder)
	if err != nil {
		return "", errors.Wrap(err, "unable to splice stages")
	}

	for i, stage := range added {
		logger.DebugContext(ctx, "added stage", "stage", stage.InstanceName, "replaces", plan[i].Replaced)
	}

	after, err := topology.New(builder.Definition())
	if err != nil {
		return "", errors.Wrap(err, "unable to read new stage wiring")
	}

	err = topology.SameWiring(before, after)
	if err != nil {
		return "", err
	}

	newPipe, err := builder.Build(info.NewName)
	if err != nil {
		return "", errors.Wrap(err, "unable to build pipeline")
	}

	info.After = newPipe.Definition

	for _, opt := range m.opts {
		err := opt.Prepare(info)
		if err != nil {
			return "", errors.Wrap(err, "unable to prepare migration option")
		}
	}

	if m.dryRun {
		return "", nil
	}

	summary, err := m.client.Publish(ctx, newPipe, fmt.Sprintf(m.commitMessage, info.Name))
	if err != nil {
		return "", errors.Wrap(err, "unable to publish pipeline")
	}

	return summary.CommitID, nil
}

// builder fetches the authoring node and its stage library concurrently.
func (m *Migrator) builder(ctx context.Context, sdcID string) (*controlhub.Builder, error) {
	if sdcID == "" {
		return nil, ErrNoAuthoringNode
	}

	var (
		node    *controlhub.DataCollector
		library *controlhub.StageLibrary
	)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		var err error

		node, err = m.client.DataCollector(groupCtx, sdcID)

		return errors.Wrap(err, "unable to fetch authoring data collector")
	})
	group.Go(func() error {
		var err error

		library, err = m.client.StageLibrary(groupCtx, sdcID)

		return errors.Wrap(err, "unable to fetch stage library")
	})

	err := group.Wait()
	if err != nil {
		return nil, err
	}

	return controlhub.NewBuilder(node, library), nil
}

func (m *Migrator) onFailed(ctx context.Context, info *model.PipelineInfo, err error) {
	for _, opt := range m.opts {
		hookErr := opt.OnFailed(info, err)
		if hookErr != nil {
			m.logger.WarnContext(ctx, "migration option failed", "pipeline", info.Name, "error", hookErr)
		}
	}
}
