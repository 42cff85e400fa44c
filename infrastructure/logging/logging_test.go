package logging

import (
	"context"
	"log/slog"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"INFO", slog.LevelInfo, false},
		{"", slog.LevelInfo, false},
		{" warn ", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"verbose", slog.LevelInfo, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestContextLogger(t *testing.T) {
	if From(context.Background()) != L() {
		t.Error("From() without a logger should return L()")
	}

	custom := slog.Default().With("component", "test")
	ctx := With(context.Background(), custom)
	if From(ctx) != custom {
		t.Error("From() did not return the stored logger")
	}

	enriched := WithAttrs(ctx, "run_id", "abc")
	if From(enriched) == custom {
		t.Error("WithAttrs() should store a derived logger")
	}
}
