package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseProbeOutput(t *testing.T) {
	out := `{
		"streams": [
			{"codec_type": "audio"},
			{"codec_type": "video", "width": 1280, "height": 720}
		],
		"format": {"duration": "93.480000", "format_name": "mov,mp4,m4a,3gp,3g2,mj2"}
	}`

	meta, err := parseProbeOutput(out)
	require.NoError(t, err)
	assert.Equal(t, 1280, meta.Width)
	assert.Equal(t, 720, meta.Height)
	assert.InDelta(t, 93.48, meta.Duration, 0.0001)
	assert.Equal(t, "mov", meta.Format)
}

func TestParseProbeOutputMissingFields(t *testing.T) {
	meta, err := parseProbeOutput(`{"streams": [], "format": {}}`)
	require.NoError(t, err)
	assert.Equal(t, "unknown", meta.Format)
	assert.Zero(t, meta.Duration)

	_, err = parseProbeOutput("not json")
	assert.Error(t, err)
}
