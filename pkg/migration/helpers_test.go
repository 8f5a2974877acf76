package migration_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/askiada/sch-migrate/internal/testutil/controlplane"
	"github.com/askiada/sch-migrate/pkg/controlhub"
	"github.com/askiada/sch-migrate/pkg/migration/model"
)

func newClient(t *testing.T, cp *controlplane.ControlPlane) *controlhub.Client {
	t.Helper()

	client, err := controlhub.New(cp.URL, controlplane.Username, controlplane.Password,
		controlhub.WithHTTPClient(cp.Client()))
	require.NoError(t, err)

	return client
}

// recorder is a migration option remembering the hooks it saw.
type recorder struct {
	mu            sync.Mutex
	calls         []string
	infos         []*model.PipelineInfo
	failPre       bool
	failPublished bool
}

func (r *recorder) record(call string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.calls = append(r.calls, call)
}

func (r *recorder) New() error {
	r.record("new")

	return nil
}

func (r *recorder) Prepare(info *model.PipelineInfo) error {
	r.record("prepare " + info.Name)

	r.mu.Lock()
	r.infos = append(r.infos, info)
	r.mu.Unlock()

	if r.failPre {
		return errors.Errorf("prepare %s refused", info.Name)
	}

	return nil
}

func (r *recorder) OnPublished(info *model.PipelineInfo, _ time.Duration) error {
	r.record("published " + info.Name)

	if r.failPublished {
		return errors.Errorf("published %s refused", info.Name)
	}

	return nil
}

func (r *recorder) OnFailed(info *model.PipelineInfo, _ error) error {
	r.record("failed " + info.Name)

	return nil
}

func (r *recorder) Finish() error {
	r.record("finish")

	return nil
}

func (r *recorder) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]string(nil), r.calls...)
}

// countingClient counts the pipeline lookups made through it.
type countingClient struct {
	*controlhub.Client

	mu      sync.Mutex
	lookups []string
}

func (c *countingClient) Pipeline(ctx context.Context, name string) (*controlhub.Pipeline, error) {
	c.mu.Lock()
	c.lookups = append(c.lookups, name)
	c.mu.Unlock()

	return c.Client.Pipeline(ctx, name)
}
