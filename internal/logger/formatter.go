package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"
)

// FixedFormatWriter rewrites zerolog JSON lines into fixed-width columns so
// service logs stay readable in Notepad and tail:
//
//	2026-02-26 12:00:00.000 [INF] [lifecycle      ] Service running service=demo
//	2026-02-26 12:00:01.200 [WRN] [lifecycle      ] Failed to report service status err="handle is invalid"
type FixedFormatWriter struct {
	w io.Writer
}

// NewFixedFormatWriter creates a new FixedFormatWriter that wraps the given writer.
func NewFixedFormatWriter(w io.Writer) *FixedFormatWriter {
	return &FixedFormatWriter{w: w}
}

var levelMap = map[string]string{
	"trace": "TRC",
	"debug": "DBG",
	"info":  "INF",
	"warn":  "WRN",
	"error": "ERR",
	"fatal": "FTL",
	"panic": "PNC",
}

const (
	componentWidth  = 15
	timestampLayout = "2006-01-02 15:04:05.000"
)

// skippedFields are rendered in fixed columns or dropped.
var skippedFields = []string{"time", "level", "component", "message", "caller"}

func (f *FixedFormatWriter) Write(p []byte) (int, error) {
	var fields map[string]interface{}
	if err := json.Unmarshal(p, &fields); err != nil {
		return f.w.Write(p)
	}

	ts := formatTimestamp(extractString(fields, "time"))
	lvl, ok := levelMap[extractString(fields, "level")]
	if !ok {
		lvl = "???"
	}
	comp := extractString(fields, "component")
	if len(comp) > componentWidth {
		comp = comp[:componentWidth]
	}
	message := extractString(fields, "message")

	for _, k := range skippedFields {
		delete(fields, k)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s [%s] [%-*s] %s", ts, lvl, componentWidth, comp, message)
	if extra := formatExtra(fields); extra != "" {
		b.WriteByte(' ')
		b.WriteString(extra)
	}
	b.WriteByte('\n')

	_, err := io.WriteString(f.w, b.String())
	// zerolog treats a short count as a failed write.
	return len(p), err
}

func extractString(fields map[string]interface{}, key string) string {
	v, ok := fields[key]
	if !ok {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

// formatTimestamp renders an RFC3339 timestamp as wall-clock time with
// milliseconds, always 23 characters wide. The zone is dropped, not converted.
func formatTimestamp(ts string) string {
	if t, err := time.Parse(time.RFC3339Nano, ts); err == nil {
		return t.Format(timestampLayout)
	}
	if len(ts) >= len(timestampLayout) {
		return ts[:len(timestampLayout)]
	}
	return ts + strings.Repeat(" ", len(timestampLayout)-len(ts))
}

// formatExtra builds a sorted "key=value key2=value2" string from the
// remaining fields, quoting values that contain whitespace or quotes.
func formatExtra(fields map[string]interface{}) string {
	if len(fields) == 0 {
		return ""
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		s := fmt.Sprintf("%v", fields[k])
		if strings.ContainsAny(s, " \t\n\"") {
			parts = append(parts, fmt.Sprintf("%s=%q", k, s))
		} else {
			parts = append(parts, k+"="+s)
		}
	}
	return strings.Join(parts, " ")
}
