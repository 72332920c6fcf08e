package browser

import (
	"context"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// LLMSolver answers challenge text with a chat-completion call. Opt-in
// and strictly best-effort: any API failure simply reports unsolved.
type LLMSolver struct {
	client  *openai.Client
	model   string
	timeout time.Duration
	logger  *zap.Logger
}

// NewLLMSolver creates a solver, or a nil ChallengeSolver when no API
// key or model is configured so the chain silently skips it. Returning
// the interface keeps the disabled case a true nil; a typed *LLMSolver
// nil would survive the chain's nil check and panic on first use.
func NewLLMSolver(apiKey, model string, timeout time.Duration, logger *zap.Logger) ChallengeSolver {
	if apiKey == "" || model == "" {
		return nil
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LLMSolver{
		client:  openai.NewClient(apiKey),
		model:   model,
		timeout: timeout,
		logger:  logger,
	}
}

func (s *LLMSolver) Name() string { return "llm" }

const solverPrompt = `The text below is a human-verification question from a web page.
Reply with ONLY the answer, a single word or number, nothing else.
If you cannot determine the answer, reply with exactly: UNSOLVED

Text:
`

// Attempt asks the model for the answer. Returns unsolved on any error,
// timeout, or an UNSOLVED/implausibly long reply.
func (s *LLMSolver) Attempt(ctx context.Context, pageText string) (string, bool) {
	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	// The challenge question is near the markers; sending the whole DOM
	// text wastes tokens and confuses the model.
	excerpt := pageText
	if len(excerpt) > 2000 {
		excerpt = excerpt[:2000]
	}

	resp, err := s.client.CreateChatCompletion(callCtx, openai.ChatCompletionRequest{
		Model:     s.model,
		MaxTokens: 10,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: solverPrompt + excerpt},
		},
	})
	if err != nil {
		s.logger.Debug("llm solver call failed", zap.Error(err))
		return "", false
	}
	if len(resp.Choices) == 0 {
		return "", false
	}

	answer := strings.TrimSpace(resp.Choices[0].Message.Content)
	if answer == "" || answer == "UNSOLVED" || len(strings.Fields(answer)) > 2 {
		return "", false
	}
	return answer, true
}
