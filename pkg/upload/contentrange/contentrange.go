// Package contentrange parses and formats the Content-Range header shapes
// used by the resumable-upload wire protocol: data chunks and status probes.
package contentrange

import (
	"fmt"
	"strconv"
	"strings"
)

// Range is the structured form of a Content-Range header value.
type Range struct {
	Start         int64
	End           int64
	Total         int64 // -1 when the client sent "*" for total
	IsStatusProbe bool
}

const unit = "bytes"

// Parse parses a Content-Range header value into a Range.
//
// Accepted shapes:
//   - "bytes <start>-<end>/<total>"   (data chunk, known total)
//   - "bytes <start>-<end>/*"         (data chunk, unknown total)
//   - "bytes */<total>"               (status probe, known total)
//   - "bytes */*"                     (status probe, unknown total)
//
// Returns an error for any other shape, non-numeric fields, or values that
// violate 0 <= start <= end < total.
func Parse(header string) (Range, error) {
	header = strings.TrimSpace(header)
	prefix := unit + " "
	if !strings.HasPrefix(header, prefix) {
		return Range{}, fmt.Errorf("contentrange: missing %q unit", unit)
	}
	body := strings.TrimPrefix(header, prefix)

	rangePart, totalPart, ok := strings.Cut(body, "/")
	if !ok {
		return Range{}, fmt.Errorf("contentrange: missing total separator")
	}

	if rangePart == "*" {
		total, err := parseTotal(totalPart)
		if err != nil {
			return Range{}, err
		}
		return Range{Start: 0, End: 0, Total: total, IsStatusProbe: true}, nil
	}

	startStr, endStr, ok := strings.Cut(rangePart, "-")
	if !ok {
		return Range{}, fmt.Errorf("contentrange: malformed range %q", rangePart)
	}
	start, err := parseNonNegative(startStr)
	if err != nil {
		return Range{}, fmt.Errorf("contentrange: invalid start: %w", err)
	}
	end, err := parseNonNegative(endStr)
	if err != nil {
		return Range{}, fmt.Errorf("contentrange: invalid end: %w", err)
	}
	if start > end {
		return Range{}, fmt.Errorf("contentrange: start %d > end %d", start, end)
	}

	total, err := parseTotal(totalPart)
	if err != nil {
		return Range{}, err
	}
	if total != -1 && end >= total {
		return Range{}, fmt.Errorf("contentrange: end %d >= total %d", end, total)
	}

	return Range{Start: start, End: end, Total: total, IsStatusProbe: false}, nil
}

func parseTotal(s string) (int64, error) {
	if s == "*" {
		return -1, nil
	}
	return parseNonNegative(s)
}

func parseNonNegative(s string) (int64, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, fmt.Errorf("negative value %d", n)
	}
	return n, nil
}

// ResolveTotal returns r.Total, substituting fallback when the client left
// it unspecified ("*"), per the "unknown total in a data chunk" rule.
func (r Range) ResolveTotal(fallback int64) int64 {
	if r.Total == -1 {
		return fallback
	}
	return r.Total
}

// Size returns end - start + 1, the number of bytes this range covers.
// Meaningless (0) for a status probe.
func (r Range) Size() int64 {
	if r.IsStatusProbe {
		return 0
	}
	return r.End - r.Start + 1
}

// FormatChunk renders the canonical "bytes start-end/total" form, the
// inverse of Parse for data chunks. Used by tests to assert the round-trip
// law Parse ∘ FormatChunk == identity.
func FormatChunk(start, end, total int64) string {
	return fmt.Sprintf("%s %d-%d/%d", unit, start, end, total)
}

// ProgressHeaders returns the Upload-Offset value and, when bytesReceived is
// non-zero, the Range header value for a 308 progress/correction response.
// The Range header is omitted (empty string, hasRange=false) when bytesReceived
// is 0, per the wire spec.
func ProgressHeaders(bytesReceived int64) (uploadOffset string, rangeHeader string, hasRange bool) {
	uploadOffset = strconv.FormatInt(bytesReceived, 10)
	if bytesReceived == 0 {
		return uploadOffset, "", false
	}
	return uploadOffset, fmt.Sprintf("%s=0-%d", unit, bytesReceived-1), true
}
