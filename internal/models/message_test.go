package models

import "testing"

func TestTextFromParts(t *testing.T) {
	m := ConversationMessage{
		Role: RoleUser,
		Parts: []MessagePart{
			{Type: "text", Text: "first"},
			{Type: "image", Text: "ignored"},
			{Type: "text", Text: "second"},
		},
	}
	if got := m.Text(); got != "first\nsecond" {
		t.Errorf("Text: got %q", got)
	}
}

func TestTextLegacyContent(t *testing.T) {
	m := ConversationMessage{Role: RoleUser, Content: "plain content"}
	if got := m.Text(); got != "plain content" {
		t.Errorf("Text: got %q", got)
	}
}

func TestTextPartsWinOverContent(t *testing.T) {
	m := ConversationMessage{
		Role:    RoleUser,
		Parts:   []MessagePart{{Type: "text", Text: "from parts"}},
		Content: "from content",
	}
	if got := m.Text(); got != "from parts" {
		t.Errorf("Text: got %q", got)
	}
}

func TestQueryFromMessages(t *testing.T) {
	msgs := []ConversationMessage{
		{Role: RoleUser, Content: "older question"},
		{Role: RoleAssistant, Content: "older answer"},
		{Role: RoleUser, Parts: []MessagePart{{Type: "text", Text: "What is the refund window?"}}},
	}
	if got := QueryFromMessages(msgs); got != "What is the refund window?" {
		t.Errorf("QueryFromMessages: got %q", got)
	}
}

func TestQueryFromMessagesBothShapesAgree(t *testing.T) {
	structured := []ConversationMessage{
		{Role: RoleUser, Parts: []MessagePart{{Type: "text", Text: "same question"}}},
	}
	legacy := []ConversationMessage{
		{Role: RoleUser, Content: "same question"},
	}
	if QueryFromMessages(structured) != QueryFromMessages(legacy) {
		t.Error("structured and legacy shapes extracted different queries")
	}
}

func TestQueryFromMessagesEmpty(t *testing.T) {
	if got := QueryFromMessages(nil); got != "" {
		t.Errorf("QueryFromMessages(nil): got %q", got)
	}
}

func TestRetrievalMatchText(t *testing.T) {
	m := RetrievalMatch{Score: 0.9, Metadata: map[string]interface{}{"text": "Refunds within 30 days."}}
	if got := m.Text(); got != "Refunds within 30 days." {
		t.Errorf("Text: got %q", got)
	}
	missing := RetrievalMatch{Score: 0.5, Metadata: map[string]interface{}{"page": 3}}
	if got := missing.Text(); got != "" {
		t.Errorf("Text without metadata text: got %q", got)
	}
	none := RetrievalMatch{Score: 0.5}
	if got := none.Text(); got != "" {
		t.Errorf("Text without metadata: got %q", got)
	}
}
