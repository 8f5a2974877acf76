// Package config loads the settings of the command line from defaults, an optional YAML file,
// SCH_ prefixed environment variables and flags, in increasing order of precedence.
package config

import (
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/askiada/sch-migrate/internal/logging"
	"github.com/askiada/sch-migrate/pkg/migration"
	"github.com/askiada/sch-migrate/pkg/rewriter"
)

// EnvPrefix prefixes every environment variable read by the configuration.
const EnvPrefix = "SCH"

// Keys of the configuration.
const (
	ServerURLKey      = "server_url"
	UsernameKey       = "username"
	PasswordKey       = "password"
	LogLevelKey       = "log_level"
	VerboseKey        = "verbose"
	KeepGoingKey      = "keep_going"
	DryRunKey         = "dry_run"
	DrawDirKey        = "draw_dir"
	MetricsFileKey    = "metrics_file"
	SuffixKey         = "suffix"
	CommitMessageKey  = "commit_message"
	RequestTimeoutKey = "request_timeout"
	StageMappingsKey  = "stage_mappings"
)

// StageMapping replaces stages labelled From with stages labelled To.
type StageMapping struct {
	From string `mapstructure:"from"`
	To   string `mapstructure:"to"`
}

// Config holds the settings of one run.
type Config struct {
	ServerURL      string         `mapstructure:"server_url"`
	Username       string         `mapstructure:"username"`
	Password       string         `mapstructure:"password"`
	LogLevel       string         `mapstructure:"log_level"`
	Verbose        bool           `mapstructure:"verbose"`
	KeepGoing      bool           `mapstructure:"keep_going"`
	DryRun         bool           `mapstructure:"dry_run"`
	DrawDir        string         `mapstructure:"draw_dir"`
	MetricsFile    string         `mapstructure:"metrics_file"`
	Suffix         string         `mapstructure:"suffix"`
	CommitMessage  string         `mapstructure:"commit_message"`
	RequestTimeout time.Duration  `mapstructure:"request_timeout"`
	StageMappings  []StageMapping `mapstructure:"stage_mappings"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	from := make([]string, 0, len(rewriter.DefaultStages))
	for label := range rewriter.DefaultStages {
		from = append(from, label)
	}

	sort.Strings(from)

	mappings := make([]StageMapping, len(from))
	for i, label := range from {
		mappings[i] = StageMapping{From: label, To: rewriter.DefaultStages[label]}
	}

	return &Config{
		LogLevel:      logging.LevelInfo,
		Suffix:        migration.DefaultSuffix,
		CommitMessage: migration.DefaultCommitMessage,
		StageMappings: mappings,
	}
}

// SetDefaults registers every key on v with its default value and makes v read SCH_<KEY>
// environment variables.
func SetDefaults(v *viper.Viper) {
	defaults := Default()

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Keys without a default still need registering for Unmarshal to see their env variable.
	v.SetDefault(ServerURLKey, "")
	v.SetDefault(UsernameKey, "")
	v.SetDefault(PasswordKey, "")
	v.SetDefault(LogLevelKey, defaults.LogLevel)
	v.SetDefault(VerboseKey, defaults.Verbose)
	v.SetDefault(KeepGoingKey, defaults.KeepGoing)
	v.SetDefault(DryRunKey, defaults.DryRun)
	v.SetDefault(DrawDirKey, defaults.DrawDir)
	v.SetDefault(MetricsFileKey, defaults.MetricsFile)
	v.SetDefault(SuffixKey, defaults.Suffix)
	v.SetDefault(CommitMessageKey, defaults.CommitMessage)
	v.SetDefault(RequestTimeoutKey, defaults.RequestTimeout)

	mappings := make([]map[string]string, len(defaults.StageMappings))
	for i, mapping := range defaults.StageMappings {
		mappings[i] = map[string]string{"from": mapping.From, "to": mapping.To}
	}

	v.SetDefault(StageMappingsKey, mappings)
}

// ReadFile merges the YAML file at path into v.
func ReadFile(v *viper.Viper, path string) error {
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	err := v.ReadInConfig()
	if err != nil {
		return errors.Wrapf(err, "unable to read config file %s", path)
	}

	return nil
}

// Load unmarshals and validates the configuration held by v.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config

	err := v.Unmarshal(&cfg)
	if err != nil {
		return nil, errors.Wrap(err, "unable to decode configuration")
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, errs
	}

	return &cfg, nil
}

// Level returns the log level to use, DEBUG when verbose.
func (c *Config) Level() string {
	if c.Verbose {
		return logging.LevelDebug
	}

	return c.LogLevel
}

// Mapping builds the stage mapping.
func (c *Config) Mapping() (rewriter.Mapping, error) {
	stages := make(map[string]string, len(c.StageMappings))

	for _, mapping := range c.StageMappings {
		if existing, ok := stages[mapping.From]; ok && existing != mapping.To {
			return rewriter.Mapping{}, errors.Wrapf(rewriter.ErrInvalidMapping,
				"%q maps to both %q and %q", mapping.From, existing, mapping.To)
		}

		stages[mapping.From] = mapping.To
	}

	return rewriter.NewMapping(stages)
}
