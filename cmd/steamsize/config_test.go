package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvOverrides(t *testing.T) {
	environ := []string{
		"HOME=/home/gabe",
		"STEAMSIZE_WORKERS=4",
		"STEAMSIZE_DISK_SIZE=logical",
		"XSTEAMSIZE_IGNORED=1",
	}
	assert.Equal(t, []string{"STEAMSIZE_DISK_SIZE=logical", "STEAMSIZE_WORKERS=4"}, envOverrides(environ))
	assert.Empty(t, envOverrides([]string{"PATH=/usr/bin"}))
}

func TestDisplayable(t *testing.T) {
	in := map[string]interface{}{
		"workers": 4,
		"watch":   map[string]interface{}{"debounce": 2 * time.Second},
	}
	want := map[string]interface{}{
		"workers": 4,
		"watch":   map[string]interface{}{"debounce": "2s"},
	}
	assert.Equal(t, want, displayable(in))
}

func TestWriteSettings(t *testing.T) {
	settings := map[string]interface{}{
		"disk_size": "auto",
		"verbose":   true,
		"quiet":     false,
		"template":  "",
		"watch":     map[string]interface{}{"debounce": 500 * time.Millisecond},
	}

	var buf bytes.Buffer
	require.NoError(t, writeSettings(&buf, settings))

	out := buf.String()
	assert.Contains(t, out, "disk_size: auto")
	assert.Contains(t, out, "debounce: 500ms")
	assert.NotContains(t, out, "verbose")
	assert.NotContains(t, out, "quiet")
	assert.NotContains(t, out, "template")
}
