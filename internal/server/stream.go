package server

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// streamEvent is one frame of the UI message stream protocol spoken by the
// chat frontend: a start frame, one text part (start, deltas, end), a finish
// frame, and a literal [DONE] terminator.
type streamEvent struct {
	Type      string `json:"type"`
	ID        string `json:"id,omitempty"`
	Delta     string `json:"delta,omitempty"`
	ErrorText string `json:"errorText,omitempty"`
}

// streamWriter writes UI message stream frames over SSE, flushing after
// each frame so tokens reach the client as they arrive.
type streamWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

// newStreamWriter prepares the response for streaming. It returns an error
// when the underlying writer cannot flush incrementally.
func newStreamWriter(w http.ResponseWriter) (*streamWriter, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("response writer does not support streaming")
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("x-vercel-ai-ui-message-stream", "v1")
	return &streamWriter{w: w, flusher: flusher}, nil
}

func (sw *streamWriter) event(ev streamEvent) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	fmt.Fprintf(sw.w, "data: %s\n\n", data)
	sw.flusher.Flush()
}

func (sw *streamWriter) start() {
	sw.event(streamEvent{Type: "start"})
}

func (sw *streamWriter) textStart(id string) {
	sw.event(streamEvent{Type: "text-start", ID: id})
}

func (sw *streamWriter) textDelta(id, delta string) {
	sw.event(streamEvent{Type: "text-delta", ID: id, Delta: delta})
}

func (sw *streamWriter) textEnd(id string) {
	sw.event(streamEvent{Type: "text-end", ID: id})
}

func (sw *streamWriter) streamError(message string) {
	sw.event(streamEvent{Type: "error", ErrorText: message})
}

func (sw *streamWriter) finish() {
	sw.event(streamEvent{Type: "finish"})
	fmt.Fprint(sw.w, "data: [DONE]\n\n")
	sw.flusher.Flush()
}
