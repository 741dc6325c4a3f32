package contentrange

import "testing"

func TestParseChunk(t *testing.T) {
	r, err := Parse("bytes 0-1023/10240")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Start != 0 || r.End != 1023 || r.Total != 10240 || r.IsStatusProbe {
		t.Fatalf("unexpected parse result: %+v", r)
	}
	if r.Size() != 1024 {
		t.Fatalf("expected size 1024, got %d", r.Size())
	}
}

func TestParseStatusProbe(t *testing.T) {
	for _, header := range []string{"bytes */*", "bytes */10240"} {
		r, err := Parse(header)
		if err != nil {
			t.Fatalf("unexpected error for %q: %v", header, err)
		}
		if !r.IsStatusProbe {
			t.Fatalf("expected status probe for %q", header)
		}
	}
}

func TestParseUnknownTotal(t *testing.T) {
	r, err := Parse("bytes 1024-2047/*")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Total != -1 {
		t.Fatalf("expected unresolved total, got %d", r.Total)
	}
	if r.ResolveTotal(10240) != 10240 {
		t.Fatalf("expected fallback total to apply")
	}
}

func TestParseInvalid(t *testing.T) {
	cases := []string{
		"bytes 100-50/200",  // start > end
		"bytes 50-200/200",  // end >= total
		"items 0-10/100",    // wrong unit
		"bytes -5-10/100",   // negative start
		"bytes abc-10/100",  // non-numeric
		"bytes 0-10",        // missing total
	}
	for _, c := range cases {
		if _, err := Parse(c); err == nil {
			t.Fatalf("expected error parsing %q", c)
		}
	}
}

func TestRoundTrip(t *testing.T) {
	cases := []struct{ start, end, total int64 }{
		{0, 1023, 10240},
		{9216, 10239, 10240},
		{0, 0, 1},
	}
	for _, c := range cases {
		header := FormatChunk(c.start, c.end, c.total)
		r, err := Parse(header)
		if err != nil {
			t.Fatalf("parse(%q): %v", header, err)
		}
		if r.Start != c.start || r.End != c.end || r.Total != c.total {
			t.Fatalf("round trip mismatch for %+v: got %+v", c, r)
		}
	}
}

func TestProgressHeaders(t *testing.T) {
	offset, rng, has := ProgressHeaders(0)
	if offset != "0" || has || rng != "" {
		t.Fatalf("expected no Range header at offset 0, got %q (has=%v)", rng, has)
	}

	offset, rng, has = ProgressHeaders(2048)
	if offset != "2048" || !has || rng != "bytes=0-2047" {
		t.Fatalf("unexpected headers at offset 2048: offset=%q range=%q has=%v", offset, rng, has)
	}
}
