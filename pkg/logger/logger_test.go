package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]zerolog.Level{
		"":        zerolog.InfoLevel,
		"debug":   zerolog.DebugLevel,
		" WARN ":  zerolog.WarnLevel,
		"bogus":   zerolog.InfoLevel,
		"error":   zerolog.ErrorLevel,
		"trace\n": zerolog.TraceLevel,
	}
	for input, want := range cases {
		if got := ParseLevel(input); got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", input, got, want)
		}
	}
}

func TestInfoCarriesContextFields(t *testing.T) {
	var buf bytes.Buffer
	logg := New(Options{ServiceName: "test", Output: &buf})

	ctx := logg.WithTenantID(context.Background(), "tenant-1")
	ctx = logg.WithField(ctx, "batch", "sales")
	logg.Info(ctx, "import.start")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log output is not JSON: %v", err)
	}
	if entry["tenant_id"] != "tenant-1" {
		t.Fatalf("expected tenant_id field, got %v", entry["tenant_id"])
	}
	if entry["batch"] != "sales" {
		t.Fatalf("expected batch field, got %v", entry["batch"])
	}
	if entry["service"] != "test" {
		t.Fatalf("expected service field, got %v", entry["service"])
	}
}

func TestErrorIncludesStack(t *testing.T) {
	var buf bytes.Buffer
	logg := New(Options{ServiceName: "test", Output: &buf})

	logg.Error(context.Background(), "boom", errors.New("failed"))

	if !strings.Contains(buf.String(), "stack") {
		t.Fatalf("expected stack field in error log, got %s", buf.String())
	}
}
