package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/jamesainslie/steamsize/pkg/steamsize/history"
	"github.com/jamesainslie/steamsize/pkg/steamsize/output"
	"github.com/jamesainslie/steamsize/pkg/steamsize/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleResult() *output.Result {
	return &output.Result{
		Operation: "fix",
		Manifests: []output.Manifest{{
			Path:         "/games/steamapps/appmanifest_400.acf",
			AppID:        "400",
			Name:         "Portal",
			Status:       types.StatusUpdated,
			OldSize:      "12",
			NewSize:      1000,
			NewSizeHuman: "1000 B",
		}},
	}
}

func TestWriteHistoryTable(t *testing.T) {
	entries := []history.Entry{
		{
			ID:        "fix-20260102-150405-abcdef",
			Timestamp: time.Date(2026, 1, 2, 15, 4, 5, 0, time.UTC),
			Operation: history.OpFix,
			Summary:   history.Summary{Manifests: 5, Updated: 3, Failed: 1, Bytes: 2048},
		},
		{
			ID:        "restore-20260103-150405-abcdef",
			Timestamp: time.Date(2026, 1, 3, 15, 4, 5, 0, time.UTC),
			Operation: history.OpRestore,
			DryRun:    true,
			Summary:   history.Summary{Manifests: 2, DryRun: 2},
		},
	}

	var buf bytes.Buffer
	writeHistoryTable(&buf, entries)
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")

	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], "ID"))
	assert.Contains(t, lines[2], "fix-20260102-150405-abcdef")
	assert.Contains(t, lines[2], types.FormatSize(2048))
	assert.Equal(t, []string{"5", "3", "1"}, strings.Fields(lines[2])[4:7])
	assert.Contains(t, lines[3], "restore*")
	assert.Equal(t, []string{"2", "2", "0"}, strings.Fields(lines[3])[4:7])
}

func TestTruncateString(t *testing.T) {
	tests := []struct {
		input  string
		maxLen int
		want   string
	}{
		{"short", 10, "short"},
		{"exactly10!", 10, "exactly10!"},
		{"this is too long", 10, "this is..."},
		{"abcdef", 3, "abc"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, truncateString(tt.input, tt.maxLen))
	}
}
