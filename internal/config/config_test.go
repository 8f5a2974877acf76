package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askiada/sch-migrate/internal/config"
	"github.com/askiada/sch-migrate/pkg/rewriter"
)

func newViper(t *testing.T) *viper.Viper {
	t.Helper()

	v := viper.New()
	config.SetDefaults(v)

	return v
}

func withCredentials(v *viper.Viper) {
	v.Set(config.ServerURLKey, "https://sch.example.com")
	v.Set(config.UsernameKey, "admin@org")
	v.Set(config.PasswordKey, "secret")
}

func TestLoadDefaults(t *testing.T) {
	t.Parallel()

	v := newViper(t)
	withCredentials(v)

	cfg, err := config.Load(v)
	require.NoError(t, err)

	assert.Equal(t, "https://sch.example.com", cfg.ServerURL)
	assert.Equal(t, "INFO", cfg.LogLevel)
	assert.Equal(t, "INFO", cfg.Level())
	assert.Equal(t, "_2", cfg.Suffix)
	assert.Equal(t, "Automated migration of %s", cfg.CommitMessage)
	assert.Zero(t, cfg.RequestTimeout)
	assert.False(t, cfg.KeepGoing)
	assert.False(t, cfg.DryRun)
	assert.Equal(t, []config.StageMapping{
		{From: "Dev Raw Data Source", To: "Dev Data Generator"},
		{From: "Trash", To: "Local FS"},
	}, cfg.StageMappings)

	mapping, err := cfg.Mapping()
	require.NoError(t, err)
	assert.Equal(t, rewriter.DefaultMapping().Pairs(), mapping.Pairs())

	cfg.Verbose = true
	assert.Equal(t, "DEBUG", cfg.Level())
}

func TestLoadMissingCredentials(t *testing.T) {
	t.Parallel()

	_, err := config.Load(newViper(t))
	require.Error(t, err)

	var errs config.ValidationErrors
	require.ErrorAs(t, err, &errs)
	require.Len(t, errs, 3)
	assert.Equal(t, config.ServerURLKey, errs[0].Field)
	assert.Equal(t, config.UsernameKey, errs[1].Field)
	assert.Equal(t, config.PasswordKey, errs[2].Field)
	assert.Contains(t, err.Error(), "3 validation errors")
	assert.Contains(t, err.Error(), "SCH_PASSWORD")
}

func TestLoadInvalidValues(t *testing.T) {
	t.Parallel()

	v := newViper(t)
	withCredentials(v)
	v.Set(config.ServerURLKey, "sch.example.com")
	v.Set(config.LogLevelKey, "trace")
	v.Set(config.SuffixKey, "")
	v.Set(config.CommitMessageKey, "migrated")
	v.Set(config.RequestTimeoutKey, "-1s")
	v.Set(config.StageMappingsKey, []map[string]string{{"from": "Trash", "to": ""}})

	_, err := config.Load(v)

	var errs config.ValidationErrors
	require.ErrorAs(t, err, &errs)

	fields := make([]string, len(errs))
	for i, e := range errs {
		fields[i] = e.Field
	}

	assert.Equal(t, []string{
		config.ServerURLKey, config.LogLevelKey, config.SuffixKey,
		config.CommitMessageKey, config.RequestTimeoutKey, "stage_mappings[0]",
	}, fields)
}

func TestReadFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "sch-migrate.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server_url: https://sch.example.com
username: admin@org
password: secret
keep_going: true
request_timeout: 30s
suffix: -migrated
stage_mappings:
  - from: Trash
    to: Local FS
  - from: Expression Evaluator
    to: Jython Evaluator
`), 0o600))

	v := newViper(t)
	require.NoError(t, config.ReadFile(v, path))

	cfg, err := config.Load(v)
	require.NoError(t, err)

	assert.True(t, cfg.KeepGoing)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.Equal(t, "-migrated", cfg.Suffix)

	mapping, err := cfg.Mapping()
	require.NoError(t, err)

	to, ok := mapping.Lookup("ExpressionEvaluator")
	require.True(t, ok)
	assert.Equal(t, "Jython Evaluator", to)

	_, ok = mapping.Lookup("DevRawDataSource")
	assert.False(t, ok)

	require.Error(t, config.ReadFile(viper.New(), filepath.Join(t.TempDir(), "missing.yaml")))
}

func TestMappingConflict(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.StageMappings = append(cfg.StageMappings, config.StageMapping{From: "Trash", To: "Kafka Producer"})

	_, err := cfg.Mapping()
	require.ErrorIs(t, err, rewriter.ErrInvalidMapping)
}

//nolint:paralleltest // t.Setenv
func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("SCH_SERVER_URL", "https://env.example.com")
	t.Setenv("SCH_USERNAME", "env-user")
	t.Setenv("SCH_PASSWORD", "env-secret")
	t.Setenv("SCH_DRY_RUN", "true")

	cfg, err := config.Load(newViper(t))
	require.NoError(t, err)

	assert.Equal(t, "https://env.example.com", cfg.ServerURL)
	assert.Equal(t, "env-user", cfg.Username)
	assert.Equal(t, "env-secret", cfg.Password)
	assert.True(t, cfg.DryRun)
}
