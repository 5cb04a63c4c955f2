package ui

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleStatus() StatusInfo {
	return StatusInfo{
		Version: "v1.0.0",
		Checks: []Check{
			{Name: "config", Status: CheckPass, Detail: "defaults"},
			{Name: "encoder", Status: CheckFail, Detail: "ollama unreachable", Suggestion: "start ollama with 'ollama serve'"},
			{Name: "telemetry", Status: CheckWarn, Detail: "disabled", Suggestion: "enable telemetry.enabled"},
		},
	}
}

func TestStatusInfo_Healthy(t *testing.T) {
	info := sampleStatus()
	assert.False(t, info.Healthy())

	info.Checks[1].Status = CheckWarn
	assert.True(t, info.Healthy(), "warnings do not fail the report")
}

func TestStatusRenderer_Render(t *testing.T) {
	// Given: status renderer without colors
	buf := &bytes.Buffer{}
	r := NewStatusRenderer(buf, true)

	// When: rendering a report with mixed outcomes
	require.NoError(t, r.Render(sampleStatus()))

	// Then: every check and its hint is shown
	out := buf.String()
	assert.Contains(t, out, "simscore doctor v1.0.0")
	assert.Contains(t, out, "[PASS] config: defaults")
	assert.Contains(t, out, "[FAIL] encoder: ollama unreachable")
	assert.Contains(t, out, "ollama serve")
	assert.Contains(t, out, "[WARN] telemetry")
	assert.Contains(t, out, "Some checks failed.")
}

func TestStatusRenderer_RenderJSON(t *testing.T) {
	buf := &bytes.Buffer{}
	r := NewStatusRenderer(buf, true)

	require.NoError(t, r.RenderJSON(sampleStatus()))

	var decoded StatusInfo
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded.Checks, 3)
	assert.Equal(t, CheckFail, decoded.Checks[1].Status)
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		bytes    int64
		expected string
	}{
		{0, "0 B"},
		{100, "100 B"},
		{1024, "1.0 KB"},
		{1536, "1.5 KB"},
		{1024 * 1024, "1.0 MB"},
		{5 * 1024 * 1024, "5.0 MB"},
		{1024 * 1024 * 1024, "1.0 GB"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, FormatBytes(tt.bytes))
		})
	}
}
