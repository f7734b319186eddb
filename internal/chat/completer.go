package chat

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/roach88/prelude/internal/ir"
)

// DefaultSystemPrompt is used when an assignment has no custom prompt.
const DefaultSystemPrompt = "You are a helpful writing assistant for students. " +
	"Help them brainstorm ideas, structure their essays, and improve their writing. " +
	"Encourage critical thinking and original work."

// Request is what the chat service receives for one turn.
type Request struct {
	Messages     []ir.ChatMessage // prior messages, oldest first, ending with the new user message
	SystemPrompt string
	WebSearch    bool
}

// Result carries what the service reports about a finished reply.
type Result struct {
	Model         string
	WebSearchUsed bool
	Tokens        int
}

// Completer is the opaque chat service. It streams the reply through
// onChunk and returns once the reply is complete.
type Completer interface {
	Complete(ctx context.Context, req Request, onChunk func(string)) (Result, error)
}

// ScriptedCompleter replies with canned text, one reply per call, cycling
// when exhausted. It stands in for a real model offline and in tests.
type ScriptedCompleter struct {
	mu      sync.Mutex
	replies []string
	idx     int
	Model   string
}

// NewScriptedCompleter creates a completer that returns replies in order.
func NewScriptedCompleter(replies ...string) *ScriptedCompleter {
	return &ScriptedCompleter{replies: replies, Model: "scripted"}
}

// Complete streams the next reply word by word.
func (c *ScriptedCompleter) Complete(ctx context.Context, req Request, onChunk func(string)) (Result, error) {
	c.mu.Lock()
	if len(c.replies) == 0 {
		c.mu.Unlock()
		return Result{}, fmt.Errorf("scripted completer: no replies configured")
	}
	reply := c.replies[c.idx%len(c.replies)]
	c.idx++
	c.mu.Unlock()

	words := strings.SplitAfter(reply, " ")
	for _, w := range words {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		onChunk(w)
	}
	return Result{Model: c.Model, Tokens: len(words)}, nil
}
