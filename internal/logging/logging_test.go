package logging_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/askiada/sch-migrate/internal/logging"
)

func TestNew(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	logger := logging.New(buf, logging.LevelWarn)

	logger.Info("hidden")
	logger.Warn("shown", "pipeline", "orders")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `level=WARN msg=shown pipeline=orders`)
}

func TestValidLevel(t *testing.T) {
	t.Parallel()

	assert.True(t, logging.ValidLevel("debug"))
	assert.True(t, logging.ValidLevel(logging.LevelError))
	assert.False(t, logging.ValidLevel("trace"))
	assert.False(t, logging.ValidLevel(""))
}
