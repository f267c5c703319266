package agent

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/ddc002021/MapServerMCP/models"
)

// FallbackAnswer substitutes a final assistant reply with no text content.
const FallbackAnswer = "I apologize, but I couldn't generate a response."

// Service drives the tool-calling loop: submit the transcript and catalog to
// the model, dispatch any requested tools, fold the results back into the
// conversation, and repeat until the model answers in plain text. The
// Service itself is stateless across sessions; each conversation lives in
// its own Session.
type Service struct {
	model     ModelClient
	registry  *Registry
	maxRounds int
	verbose   bool
}

// NewService wires the loop to a model endpoint and an initialized tool
// registry. maxRounds caps the number of tool rounds per user message;
// zero means unbounded.
func NewService(model ModelClient, registry *Registry, maxRounds int, verbose bool) *Service {
	return &Service{
		model:     model,
		registry:  registry,
		maxRounds: maxRounds,
		verbose:   verbose,
	}
}

// Session is one conversation. The mutex serializes Chat and Reset so a
// single logical conversation is always processed by one task at a time.
type Session struct {
	service      *Service
	conversation *Conversation
	mu           sync.Mutex
}

func (s *Service) NewSession() *Session {
	return &Session{
		service:      s,
		conversation: NewConversation(SystemPrompt),
	}
}

// History returns a copy of the committed turn log.
func (sess *Session) History() []models.Turn {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.conversation.Turns()
}

// Reset clears the conversation. The tool catalog and model configuration
// are unaffected.
func (sess *Session) Reset() {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.conversation.Reset()
}

// Chat processes one user message and returns the final answer. Tool-level
// failures are folded into the conversation as failure envelopes and the
// loop continues; a model endpoint failure aborts the whole call and rolls
// the log back to its state before Chat.
func (sess *Session) Chat(ctx context.Context, userMessage string) (string, error) {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	service := sess.service
	conversation := sess.conversation

	mark := conversation.Len()
	conversation.AppendUser(userMessage)

	rounds := 0
	for {
		reply, err := service.model.Complete(ctx, conversation.Transcript(), service.registry.Catalog())
		if err != nil {
			conversation.TruncateTo(mark)
			return "", fmt.Errorf("model round failed: %w", err)
		}

		if len(reply.ToolRequests) == 0 {
			answer := reply.Content
			if answer == "" {
				answer = FallbackAnswer
			}
			conversation.AppendAssistant(answer, nil)
			return answer, nil
		}

		conversation.AppendAssistant(reply.Content, reply.ToolRequests)

		envelopes := service.dispatchAll(ctx, reply.ToolRequests)
		if err := ctx.Err(); err != nil {
			conversation.TruncateTo(mark)
			return "", err
		}
		for i, request := range reply.ToolRequests {
			conversation.AppendToolResult(request.ID, envelopes[i])
		}

		rounds++
		if service.maxRounds > 0 && rounds >= service.maxRounds {
			conversation.TruncateTo(mark)
			return "", fmt.Errorf("tool loop exceeded %d rounds without a final answer", service.maxRounds)
		}
	}
}

// dispatchAll runs one round of tool requests. Calls go out concurrently
// because they target independent backends, but results are buffered by
// position so the caller can append them in the order the model issued the
// requests.
func (s *Service) dispatchAll(ctx context.Context, requests []models.ToolRequest) []string {
	envelopes := make([]string, len(requests))

	var wg sync.WaitGroup
	for i, request := range requests {
		wg.Add(1)
		go func(i int, request models.ToolRequest) {
			defer wg.Done()
			envelopes[i] = s.dispatch(ctx, request)
		}(i, request)
	}
	wg.Wait()

	return envelopes
}

// dispatch resolves one tool request into a result envelope. Every failure
// mode (unknown tool, malformed arguments, handler error, even a handler
// panic) ends up as a failure envelope; nothing propagates to the loop.
func (s *Service) dispatch(ctx context.Context, request models.ToolRequest) (envelope string) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[ERROR] Tool %s panicked: %v", request.Name, r)
			envelope = failureEnvelope(fmt.Sprintf("tool %s failed: %v", request.Name, r))
		}
	}()

	if s.verbose {
		log.Printf("[INFO] Calling tool: %s with arguments: %s", request.Name, request.Arguments)
	}

	tool, ok := s.registry.Lookup(request.Name)
	if !ok {
		return failureEnvelope("Unknown tool: " + request.Name)
	}

	result, err := tool.Call(ctx, request.Arguments)
	if err != nil {
		log.Printf("[ERROR] Tool %s failed: %v", request.Name, err)
		return failureEnvelope(err.Error())
	}

	if s.verbose {
		preview := result
		if len(preview) > 200 {
			preview = preview[:200] + "..."
		}
		log.Printf("[INFO] Tool %s result: %s", request.Name, preview)
	}

	return result
}
