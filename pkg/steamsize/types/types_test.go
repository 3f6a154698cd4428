package types

import (
	"errors"
	"fmt"
	"testing"
)

func TestParseSize(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int64
		wantErr bool
	}{
		{name: "plain bytes", input: "1024", want: 1024},
		{name: "zero bytes", input: "0", want: 0},
		{name: "bytes with B suffix", input: "512B", want: 512},
		{name: "kilobytes", input: "100K", want: 100 * 1024},
		{name: "kilobytes with iB", input: "100KiB", want: 100 * 1024},
		{name: "megabytes with B", input: "10MB", want: 10 * 1024 * 1024},
		{name: "gigabytes lowercase", input: "2g", want: 2 * 1024 * 1024 * 1024},
		{name: "terabytes", input: "1T", want: 1024 * 1024 * 1024 * 1024},
		{name: "surrounding whitespace", input: "  100M  ", want: 100 * 1024 * 1024},
		{name: "decimal values truncated", input: "1.5G", want: 1610612736},

		{name: "empty string", input: "", wantErr: true},
		{name: "invalid suffix", input: "100X", wantErr: true},
		{name: "negative value", input: "-100M", wantErr: true},
		{name: "letters only", input: "abc", wantErr: true},
		{name: "invalid format", input: "100M100", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSize(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseSize(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
				return
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseSize(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseSize_ErrorKinds(t *testing.T) {
	if _, err := ParseSize("-1"); !errors.Is(err, ErrNegativeSize) {
		t.Errorf("ParseSize(-1) error = %v, want ErrNegativeSize", err)
	}
	if _, err := ParseSize("huge"); !errors.Is(err, ErrInvalidSize) {
		t.Errorf("ParseSize(huge) error = %v, want ErrInvalidSize", err)
	}
}

func TestFormatSize(t *testing.T) {
	tests := []struct {
		name  string
		bytes int64
		want  string
	}{
		{name: "zero", bytes: 0, want: "0 B"},
		{name: "bytes", bytes: 500, want: "500 B"},
		{name: "kilobytes", bytes: 1024, want: "1.0 KiB"},
		{name: "gigabytes", bytes: 1024 * 1024 * 1024, want: "1.0 GiB"},
		{name: "mixed size", bytes: 1536 * 1024, want: "1.5 MiB"},
		{name: "negative", bytes: -1024, want: "-1.0 KiB"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatSize(tt.bytes); got != tt.want {
				t.Errorf("FormatSize(%d) = %q, want %q", tt.bytes, got, tt.want)
			}
		})
	}
}

func TestFormatRecorded(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{raw: "", want: "(none)"},
		{raw: "2048", want: "2.0 KiB"},
		{raw: "-1", want: "-1 B"},
		{raw: "garbage", want: "garbage"},
	}

	for _, tt := range tests {
		if got := FormatRecorded(tt.raw); got != tt.want {
			t.Errorf("FormatRecorded(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestSentinelsWrap(t *testing.T) {
	err := fmt.Errorf("%w: reading %s: %w", ErrIO, "/x", errors.New("boom"))
	if !errors.Is(err, ErrIO) {
		t.Error("wrapped error does not match ErrIO")
	}
	if errors.Is(err, ErrFormat) {
		t.Error("wrapped error unexpectedly matches ErrFormat")
	}
}

func TestStatus_Symbol(t *testing.T) {
	seen := map[string]Status{}
	for _, s := range []Status{StatusUpdated, StatusUnchanged, StatusDryRun, StatusSkipped, StatusFailed} {
		sym := s.Symbol()
		if prev, ok := seen[sym]; ok {
			t.Errorf("status %q shares symbol %q with %q", s, sym, prev)
		}
		seen[sym] = s
	}
	if Status("bogus").Symbol() != "?" {
		t.Error("unknown status should render as ?")
	}
}
