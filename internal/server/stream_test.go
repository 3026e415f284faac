package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

type noFlushWriter struct {
	http.ResponseWriter
}

func TestStreamWriterRequiresFlusher(t *testing.T) {
	rec := httptest.NewRecorder()
	if _, err := newStreamWriter(noFlushWriter{rec}); err == nil {
		t.Fatal("expected error for non-flushing writer")
	}
}

func TestStreamWriterFrameOrder(t *testing.T) {
	rec := httptest.NewRecorder()
	sw, err := newStreamWriter(rec)
	if err != nil {
		t.Fatal(err)
	}

	sw.start()
	sw.textStart("t1")
	sw.textDelta("t1", "hi")
	sw.textEnd("t1")
	sw.finish()

	lines := []string{
		`data: {"type":"start"}`,
		`data: {"type":"text-start","id":"t1"}`,
		`data: {"type":"text-delta","id":"t1","delta":"hi"}`,
		`data: {"type":"text-end","id":"t1"}`,
		`data: {"type":"finish"}`,
		`data: [DONE]`,
	}
	body := rec.Body.String()
	last := -1
	for _, line := range lines {
		idx := strings.Index(body, line)
		if idx < 0 {
			t.Fatalf("frame %q missing in:\n%s", line, body)
		}
		if idx < last {
			t.Errorf("frame %q out of order", line)
		}
		last = idx
	}
	if !strings.HasSuffix(strings.TrimRight(body, "\n"), "data: [DONE]") {
		t.Errorf("stream does not end with terminator:\n%s", body)
	}
}
