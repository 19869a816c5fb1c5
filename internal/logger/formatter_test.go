package logger

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

// fixedLogger returns a zerolog logger writing through a FixedFormatWriter
// with a pinned timestamp.
func fixedLogger(buf *bytes.Buffer, ts string) zerolog.Logger {
	return zerolog.New(NewFixedFormatWriter(buf)).With().Str("time", ts).Logger()
}

func TestFixedFormatWriter_Lines(t *testing.T) {
	const ts = "2026-02-26T12:00:00.250+09:00"

	tests := []struct {
		name string
		log  func(l zerolog.Logger)
		want string
	}{
		{
			name: "status transition",
			log: func(l zerolog.Logger) {
				l.Info().Str("component", "lifecycle").Str("service", "demo").
					Str("state", "RUNNING").Uint32("checkpoint", 0).Msg("Service status reported")
			},
			want: "2026-02-26 12:00:00.250 [INF] [lifecycle      ] Service status reported checkpoint=0 service=demo state=RUNNING\n",
		},
		{
			name: "push failure quotes error",
			log: func(l zerolog.Logger) {
				l.Warn().Str("component", "lifecycle").Str("error", "The handle is invalid.").
					Msg("Failed to report service status")
			},
			want: `2026-02-26 12:00:00.250 [WRN] [lifecycle      ] Failed to report service status error="The handle is invalid."` + "\n",
		},
		{
			name: "caller dropped",
			log: func(l zerolog.Logger) {
				l.Error().Str("component", "windows-service").Str("caller", "windows.go:80").
					Msg("Service entry point failed")
			},
			want: "2026-02-26 12:00:00.250 [ERR] [windows-service] Service entry point failed\n",
		},
		{
			name: "long component truncated",
			log: func(l zerolog.Logger) {
				l.Info().Str("component", "logging-watcher-extra").Msg("File changed, reloading")
			},
			want: "2026-02-26 12:00:00.250 [INF] [logging-watcher] File changed, reloading\n",
		},
		{
			name: "no component",
			log: func(l zerolog.Logger) {
				l.Info().Msg("Service stopped")
			},
			want: "2026-02-26 12:00:00.250 [INF] [               ] Service stopped\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.log(fixedLogger(&buf, ts))
			if buf.String() != tt.want {
				t.Errorf("got  %q\nwant %q", buf.String(), tt.want)
			}
		})
	}
}

func TestFixedFormatWriter_NonJSONPassesThrough(t *testing.T) {
	var buf bytes.Buffer
	w := NewFixedFormatWriter(&buf)

	in := []byte("panic: service handler crashed\n")
	n, err := w.Write(in)
	if err != nil || n != len(in) {
		t.Fatalf("Write = %d, %v", n, err)
	}
	if buf.String() != string(in) {
		t.Errorf("got %q", buf.String())
	}
}

func TestFixedFormatWriter_ReportsFullLength(t *testing.T) {
	var buf bytes.Buffer
	w := NewFixedFormatWriter(&buf)

	in := []byte(`{"level":"info","time":"2026-02-26T12:00:00Z","message":"x","caller":"a/very/long/path.go:1"}`)
	n, err := w.Write(in)
	if err != nil {
		t.Fatalf("Write error: %v", err)
	}
	if n != len(in) {
		t.Errorf("Write returned %d, want %d", n, len(in))
	}
}

func TestFixedFormatWriter_UnknownLevel(t *testing.T) {
	var buf bytes.Buffer
	NewFixedFormatWriter(&buf).Write([]byte(`{"level":"notice","message":"x"}`))
	if !strings.Contains(buf.String(), "[???]") {
		t.Errorf("unknown level not marked: %q", buf.String())
	}
}

func TestFormatTimestamp_AlwaysColumnWidth(t *testing.T) {
	for in, want := range map[string]string{
		"2026-02-26T12:00:00-05:00":        "2026-02-26 12:00:00.000",
		"2026-02-26T12:00:00.987654321Z":   "2026-02-26 12:00:00.987",
		"2026-02-26 12:00:00.123 trailing": "2026-02-26 12:00:00.123",
		"12:00":                            "12:00                  ",
		"":                                 "                       ",
	} {
		if got := formatTimestamp(in); got != want || len(got) != len(timestampLayout) {
			t.Errorf("formatTimestamp(%q) = %q, want %q", in, got, want)
		}
	}
}
