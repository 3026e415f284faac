// Package models defines the conversation, retrieval, and registry types
// shared across the Kotae pipeline.
package models

import "strings"

// Roles accepted on inbound conversation messages.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// MessagePart is one typed segment of a structured message. Only "text"
// parts contribute text; other part types are ignored.
type MessagePart struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// ConversationMessage is a single conversational turn. Two shapes are
// accepted for backward compatibility: structured Parts, or the legacy plain
// Content string. When Parts is present it wins.
type ConversationMessage struct {
	Role    string        `json:"role"`
	Parts   []MessagePart `json:"parts,omitempty"`
	Content string        `json:"content,omitempty"`
}

// Text returns the message text: all text-typed parts joined by newlines,
// or the legacy Content field when no parts are present.
func (m *ConversationMessage) Text() string {
	if len(m.Parts) == 0 {
		return m.Content
	}
	segments := make([]string, 0, len(m.Parts))
	for _, p := range m.Parts {
		if p.Type == "text" {
			segments = append(segments, p.Text)
		}
	}
	return strings.Join(segments, "\n")
}

// ChatRequest is the body of POST /api/v1/chat: the full conversation,
// provided by the caller on every request.
type ChatRequest struct {
	Messages []ConversationMessage `json:"messages"`
}

// QueryFromMessages extracts the retrieval query: the text of the last
// message in the conversation. Returns "" for an empty conversation.
// Callers decide what a blank (whitespace-only) query means.
func QueryFromMessages(messages []ConversationMessage) string {
	if len(messages) == 0 {
		return ""
	}
	return messages[len(messages)-1].Text()
}
