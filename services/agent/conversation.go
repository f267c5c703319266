package agent

import (
	"github.com/ddc002021/MapServerMCP/models"
)

// Conversation is the append-only turn log for one session. It is the single
// source of truth submitted to the model on every round. It is not safe for
// concurrent use; the owning Session serializes access.
type Conversation struct {
	systemPrompt string
	turns        []models.Turn
}

func NewConversation(systemPrompt string) *Conversation {
	return &Conversation{systemPrompt: systemPrompt}
}

func (c *Conversation) AppendUser(text string) {
	c.turns = append(c.turns, models.Turn{Role: models.RoleUser, Content: text})
}

func (c *Conversation) AppendAssistant(content string, requests []models.ToolRequest) {
	c.turns = append(c.turns, models.Turn{
		Role:         models.RoleAssistant,
		Content:      content,
		ToolRequests: requests,
	})
}

// AppendToolResult records one dispatched envelope. envelope is the
// serialized result payload correlated to its request by id.
func (c *Conversation) AppendToolResult(requestID, envelope string) {
	c.turns = append(c.turns, models.Turn{
		Role:          models.RoleTool,
		Content:       envelope,
		ToolRequestID: requestID,
	})
}

// Transcript returns the payload submitted to the model: a synthesized
// system turn followed by a copy of the log.
func (c *Conversation) Transcript() []models.Turn {
	transcript := make([]models.Turn, 0, len(c.turns)+1)
	transcript = append(transcript, models.Turn{Role: models.RoleSystem, Content: c.systemPrompt})
	transcript = append(transcript, c.turns...)
	return transcript
}

// Turns returns a copy of the log without the system turn.
func (c *Conversation) Turns() []models.Turn {
	turns := make([]models.Turn, len(c.turns))
	copy(turns, c.turns)
	return turns
}

func (c *Conversation) Len() int {
	return len(c.turns)
}

// TruncateTo drops every turn appended after the given mark. Used to roll
// back an aborted round so no partial state survives a model failure.
func (c *Conversation) TruncateTo(n int) {
	if n < 0 || n > len(c.turns) {
		return
	}
	c.turns = c.turns[:n]
}

// Reset clears the log. The system prompt is unaffected.
func (c *Conversation) Reset() {
	c.turns = nil
}
