package alert

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soundprediction/aggrego/pkg/config"
)

type countingAlerter struct {
	calls int
}

func (c *countingAlerter) Alert(subject, message string) error {
	c.calls++
	return nil
}

func TestEmailAlerterDisabledIsNoOp(t *testing.T) {
	a := NewEmailAlerter(config.AlertConfig{Enabled: false})
	assert.NoError(t, a.Alert("subject", "message"))
}

func TestEmailAlerterRequiresRecipients(t *testing.T) {
	a := NewEmailAlerter(config.AlertConfig{Enabled: true})
	err := a.Alert("subject", "message")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no recipients")
}

func TestDeduperSuppressesRepeats(t *testing.T) {
	inner := &countingAlerter{}
	d := NewDeduper(inner, time.Minute)

	require.NoError(t, d.Alert("circuit open", "first"))
	require.NoError(t, d.Alert("circuit open", "second"))
	require.NoError(t, d.Alert("circuit open", "third"))
	assert.Equal(t, 1, inner.calls)

	// A different subject is not suppressed.
	require.NoError(t, d.Alert("store unreachable", "other"))
	assert.Equal(t, 2, inner.calls)
}
