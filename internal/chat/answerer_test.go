package chat

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/hyperjump/kotae/internal/embedding"
	"github.com/hyperjump/kotae/internal/generate"
	"github.com/hyperjump/kotae/internal/models"
	"github.com/hyperjump/kotae/internal/retrieval"
	"github.com/hyperjump/kotae/internal/vector"
	"go.uber.org/zap"
)

// stubGenerator records the request and streams canned deltas.
type stubGenerator struct {
	gotSystem   string
	gotMessages []generate.Message
	deltas      []string
	startErr    error
}

func (s *stubGenerator) Stream(ctx context.Context, system string, messages []generate.Message) (<-chan generate.StreamToken, error) {
	s.gotSystem = system
	s.gotMessages = messages
	if s.startErr != nil {
		return nil, s.startErr
	}
	ch := make(chan generate.StreamToken, len(s.deltas)+1)
	for _, d := range s.deltas {
		ch <- generate.StreamToken{Content: d}
	}
	ch <- generate.StreamToken{Done: true}
	close(ch)
	return ch, nil
}

type stubIndex struct {
	matches []models.RetrievalMatch
	err     error
	calls   int
}

func (s *stubIndex) Query(ctx context.Context, vec []float32, topK int) ([]models.RetrievalMatch, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.matches, nil
}

func (s *stubIndex) Upsert(ctx context.Context, vectors []vector.Vector) error { return nil }

func newAnswerer(idx vector.Index, gen generate.Generator, maxHistory int) *Answerer {
	r := retrieval.NewRetriever(embedding.NewMockEmbedder(8), idx, 3)
	return NewAnswerer(r, gen, maxHistory, zap.NewNop())
}

func textMatch(score float64, text string) models.RetrievalMatch {
	return models.RetrievalMatch{Score: score, Metadata: map[string]interface{}{"text": text}}
}

func userMessage(text string) models.ConversationMessage {
	return models.ConversationMessage{
		Role:  models.RoleUser,
		Parts: []models.MessagePart{{Type: "text", Text: text}},
	}
}

func drain(t *testing.T, ch <-chan generate.StreamToken) string {
	t.Helper()
	var b strings.Builder
	for tok := range ch {
		if tok.Err != nil {
			t.Fatalf("stream error: %v", tok.Err)
		}
		b.WriteString(tok.Content)
	}
	return b.String()
}

func TestAnswerGroundedScenario(t *testing.T) {
	idx := &stubIndex{matches: []models.RetrievalMatch{
		textMatch(0.9, "Refunds within 30 days."),
		textMatch(0.8, "Contact support to start a refund."),
	}}
	gen := &stubGenerator{deltas: []string{"Within ", "30 days."}}
	a := newAnswerer(idx, gen, 20)

	ans, err := a.Answer(context.Background(), []models.ConversationMessage{
		userMessage("What is the refund window?"),
	})
	if err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if got := drain(t, ans.Tokens); got != "Within 30 days." {
		t.Errorf("answer: got %q", got)
	}
	if ans.Retrieval.State != retrieval.StateGrounded {
		t.Errorf("retrieval state: got %s", ans.Retrieval.State)
	}

	wantBlock := "Refunds within 30 days.\n\n---\n\nContact support to start a refund."
	if !strings.Contains(gen.gotSystem, wantBlock) {
		t.Errorf("system instruction missing context block:\n%s", gen.gotSystem)
	}
	if !strings.Contains(gen.gotSystem, "ONLY on the context") {
		t.Errorf("system instruction missing grounding directive:\n%s", gen.gotSystem)
	}
}

func TestAnswerEmptyQuerySkipsRetrieval(t *testing.T) {
	idx := &stubIndex{matches: []models.RetrievalMatch{textMatch(0.9, "never used")}}
	gen := &stubGenerator{deltas: []string{"hello"}}
	a := newAnswerer(idx, gen, 20)

	_, err := a.Answer(context.Background(), []models.ConversationMessage{
		userMessage("   "),
	})
	if err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if idx.calls != 0 {
		t.Errorf("index queried %d times for a blank query", idx.calls)
	}
	if strings.Contains(gen.gotSystem, "never used") {
		t.Error("context leaked into system instruction for a blank query")
	}
}

func TestAnswerDegradesOnIndexFailure(t *testing.T) {
	idx := &stubIndex{err: fmt.Errorf("%w: down", vector.ErrUnavailable)}
	gen := &stubGenerator{deltas: []string{"ungrounded answer"}}
	a := newAnswerer(idx, gen, 20)

	ans, err := a.Answer(context.Background(), []models.ConversationMessage{
		userMessage("What is the refund window?"),
	})
	if err != nil {
		t.Fatalf("Answer must succeed on retrieval failure, got %v", err)
	}
	if ans.Retrieval.State != retrieval.StateDegraded {
		t.Errorf("retrieval state: got %s", ans.Retrieval.State)
	}
	// Context section must be present but empty.
	if gen.gotSystem != SystemInstruction("") {
		t.Errorf("system instruction: got %q", gen.gotSystem)
	}
	if got := drain(t, ans.Tokens); got != "ungrounded answer" {
		t.Errorf("answer: got %q", got)
	}
}

func TestAnswerGeneratorStartFailurePropagates(t *testing.T) {
	idx := &stubIndex{}
	gen := &stubGenerator{startErr: &generate.ServiceError{Reason: "provider returned 401"}}
	a := newAnswerer(idx, gen, 20)

	_, err := a.Answer(context.Background(), []models.ConversationMessage{userMessage("hi")})
	if err == nil {
		t.Fatal("expected generator start error")
	}
}

func TestAnswerConvertsFullHistoryBothShapes(t *testing.T) {
	idx := &stubIndex{}
	gen := &stubGenerator{deltas: []string{"ok"}}
	a := newAnswerer(idx, gen, 20)

	_, err := a.Answer(context.Background(), []models.ConversationMessage{
		{Role: models.RoleUser, Content: "first question"},
		{Role: models.RoleAssistant, Content: "first answer"},
		userMessage("second question"),
	})
	if err != nil {
		t.Fatalf("Answer: %v", err)
	}
	want := []generate.Message{
		{Role: "user", Content: "first question"},
		{Role: "assistant", Content: "first answer"},
		{Role: "user", Content: "second question"},
	}
	if len(gen.gotMessages) != len(want) {
		t.Fatalf("history length: got %d, want %d", len(gen.gotMessages), len(want))
	}
	for i := range want {
		if gen.gotMessages[i] != want[i] {
			t.Errorf("history[%d]: got %+v, want %+v", i, gen.gotMessages[i], want[i])
		}
	}
}

func TestAnswerTruncatesHistory(t *testing.T) {
	idx := &stubIndex{}
	gen := &stubGenerator{deltas: []string{"ok"}}
	a := newAnswerer(idx, gen, 4)

	var msgs []models.ConversationMessage
	for i := 0; i < 10; i++ {
		msgs = append(msgs, models.ConversationMessage{Role: models.RoleUser, Content: fmt.Sprintf("turn %d", i)})
	}
	if _, err := a.Answer(context.Background(), msgs); err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if len(gen.gotMessages) != 4 {
		t.Fatalf("history length: got %d, want 4", len(gen.gotMessages))
	}
	if gen.gotMessages[0].Content != "turn 6" || gen.gotMessages[3].Content != "turn 9" {
		t.Errorf("kept wrong turns: %+v", gen.gotMessages)
	}
}

func TestAnswerDropsUnknownRoles(t *testing.T) {
	idx := &stubIndex{}
	gen := &stubGenerator{deltas: []string{"ok"}}
	a := newAnswerer(idx, gen, 20)

	_, err := a.Answer(context.Background(), []models.ConversationMessage{
		{Role: "tool", Content: "tool output"},
		userMessage("question"),
	})
	if err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if len(gen.gotMessages) != 1 || gen.gotMessages[0].Content != "question" {
		t.Errorf("messages: %+v", gen.gotMessages)
	}
}
