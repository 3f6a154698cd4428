package acf

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/jamesainslie/steamsize/pkg/steamsize/types"
)

// decimalPattern matches a replacement value: digits only, no sign.
var decimalPattern = regexp.MustCompile(`^[0-9]+$`)

// fieldPattern matches a quoted key followed by a quoted integer value.
// Group 1 runs from the key's opening quote through the value's opening
// quote; group 2 is the value's closing quote. A leading minus is accepted
// because Steam occasionally stores placeholder sizes such as "-1".
func fieldPattern(key string) *regexp.Regexp {
	return regexp.MustCompile(`("` + regexp.QuoteMeta(key) + `"\s*")-?[0-9]+(")`)
}

// Patch returns raw with the integer value of key set to value.
//
// If the key is present with an integer value, only the digits (and sign) of
// every such occurrence are replaced; quotes and whitespace are kept as they
// are. If the key is absent, a tab-indented pair is inserted on its own line
// just before the final closing brace. Patch is idempotent: patching its own
// output with the same value returns identical text.
//
// Errors wrap types.ErrInvalidValue for a bad key or value, and
// types.ErrFormat when the key is present without an integer value or when
// there is no closing brace to insert before.
func Patch(raw, key, value string) (string, error) {
	if key == "" || strings.ContainsAny(key, "\"\r\n") {
		return "", fmt.Errorf("%w: key %q", types.ErrInvalidValue, key)
	}
	if !decimalPattern.MatchString(value) {
		return "", fmt.Errorf("%w: %q is not a non-negative integer", types.ErrInvalidValue, value)
	}

	if !strings.Contains(raw, `"`+key+`"`) {
		return insertField(raw, key, value)
	}

	locs := fieldPattern(key).FindAllStringSubmatchIndex(raw, -1)
	if len(locs) == 0 {
		return "", fmt.Errorf("%w: %q is present but has no integer value", types.ErrFormat, key)
	}

	var b strings.Builder
	b.Grow(len(raw) + len(value))
	last := 0
	for _, m := range locs {
		b.WriteString(raw[last:m[3]])
		b.WriteString(value)
		b.WriteString(raw[m[4]:m[1]])
		last = m[1]
	}
	b.WriteString(raw[last:])
	return b.String(), nil
}

// PatchSize sets SizeOnDisk in raw to bytes.
func PatchSize(raw string, bytes int64) (string, error) {
	if bytes < 0 {
		return "", fmt.Errorf("%w: negative size %d", types.ErrInvalidValue, bytes)
	}
	return Patch(raw, KeySizeOnDisk, strconv.FormatInt(bytes, 10))
}

// insertField adds a "key" "value" line before the last closing brace.
// The brace must be the last non-whitespace character of raw; whatever
// whitespace follows it is preserved.
func insertField(raw, key, value string) (string, error) {
	trimmed := strings.TrimRightFunc(raw, unicode.IsSpace)
	if !strings.HasSuffix(trimmed, "}") {
		return "", fmt.Errorf("%w: no closing brace to insert %q before", types.ErrFormat, key)
	}

	brace := len(trimmed) - 1
	eol := lineEnding(raw)
	line := "\t\"" + key + "\"\t\"" + value + "\"" + eol

	head := raw[:brace]
	lineStart := strings.LastIndexByte(head, '\n') + 1
	if strings.TrimSpace(head[lineStart:]) == "" {
		// Brace sits on its own line: insert before its indentation.
		return head[:lineStart] + line + raw[lineStart:], nil
	}

	// Brace shares a line with other content.
	return head + eol + line + raw[brace:], nil
}

// lineEnding reports the line terminator used by raw.
func lineEnding(raw string) string {
	if strings.Contains(raw, "\r\n") {
		return "\r\n"
	}
	return "\n"
}
