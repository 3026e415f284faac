package chat

import "fmt"

// systemTemplate constrains the model to the retrieved context. The context
// block is inserted verbatim; when retrieval produced nothing the section is
// simply empty, which instructs the model it has nothing to ground on.
const systemTemplate = `You are a helpful assistant. Answer the user's question based ONLY on the context below.

Context:
%s`

// SystemInstruction builds the grounding system prompt around contextBlock.
func SystemInstruction(contextBlock string) string {
	return fmt.Sprintf(systemTemplate, contextBlock)
}
