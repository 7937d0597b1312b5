package notify

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookforge/bookforge/internal/config"
	"github.com/bookforge/bookforge/internal/pandoc"
)

func TestNewPublisherDisabledWithoutURL(t *testing.T) {
	p, err := NewPublisher(config.NotifyConfig{Subject: "bookforge.builds"}, "abc1234")
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestNilPublisherIsSafe(t *testing.T) {
	var p *Publisher
	p.Publish(context.Background(), &pandoc.Result{Format: "pdf", State: pandoc.StateSucceeded})
	p.Close()
}

func TestBuildEventShape(t *testing.T) {
	event := BuildEvent{
		BuildID:    "b-1",
		Format:     "epub",
		State:      string(pandoc.StateFailed),
		ExitCode:   43,
		DurationMS: 1200,
		Commit:     "abc1234",
		Timestamp:  time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	}
	data, err := json.Marshal(event)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "epub", decoded["format"])
	assert.Equal(t, "failed", decoded["state"])
	assert.EqualValues(t, 43, decoded["exit_code"])
	assert.EqualValues(t, 1200, decoded["duration_ms"])
}
