package rewriter

import (
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// DefaultStages lists the stages replaced when no mapping is configured.
//
//nolint:gochecknoglobals
var DefaultStages = map[string]string{
	"Dev Raw Data Source": "Dev Data Generator",
	"Trash":               "Local FS",
}

// Mapping maps the label of a stage, spaces removed, to the label of the stage replacing it.
// A Mapping is immutable once built.
type Mapping struct {
	targets map[string]string
}

// Pair is one entry of a Mapping.
type Pair struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

// NewMapping builds a Mapping from human labels. Spaces are removed from the keys so they
// compare with the label serialized in stage instance names.
func NewMapping(stages map[string]string) (Mapping, error) {
	targets := make(map[string]string, len(stages))

	for from, to := range stages {
		key := compact(from)
		if key == "" || strings.TrimSpace(to) == "" {
			return Mapping{}, errors.Wrapf(ErrInvalidMapping, "%q -> %q", from, to)
		}

		if existing, ok := targets[key]; ok && existing != to {
			return Mapping{}, errors.Wrapf(ErrInvalidMapping, "%q maps to both %q and %q", key, existing, to)
		}

		targets[key] = to
	}

	return Mapping{targets: targets}, nil
}

// DefaultMapping returns the mapping built from DefaultStages.
func DefaultMapping() Mapping {
	mapping, err := NewMapping(DefaultStages)
	if err != nil {
		panic(err)
	}

	return mapping
}

// Lookup returns the replacement label for a serialized stage label.
func (m Mapping) Lookup(label string) (string, bool) {
	to, ok := m.targets[label]

	return to, ok
}

// Len returns the number of mapped labels.
func (m Mapping) Len() int {
	return len(m.targets)
}

// Pairs returns the entries sorted by source label.
func (m Mapping) Pairs() []Pair {
	pairs := make([]Pair, 0, len(m.targets))
	for from, to := range m.targets {
		pairs = append(pairs, Pair{From: from, To: to})
	}

	sort.Slice(pairs, func(i, j int) bool {
		return pairs[i].From < pairs[j].From
	})

	return pairs
}

func compact(label string) string {
	return strings.ReplaceAll(label, " ", "")
}
