// Package oracle classifies words by asking a chat-completions model.
package oracle

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/DoyleJ11/wordlink-backend/internal/wordcheck"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"go.uber.org/zap"
)

const (
	spellingPrompt = `You are the referee of a word association game. The user sends one word.
If it is a correctly spelled English word, output y.
If it is a misspelling of an English word, output only the correctly spelled word in lower case.
Otherwise output n.`

	relatedPrompt = `You are a bot that judges a word association game where users type related words back and forth to each other. output y or n`
)

var ErrUnparseable = errors.New("oracle answer could not be parsed")

type Config struct {
	APIKey     string
	BaseURL    string
	Model      string
	Timeout    time.Duration
	MaxRetries int
}

type Client struct {
	api     openai.Client
	model   string
	timeout time.Duration
	log     *zap.Logger
}

var _ wordcheck.Oracle = (*Client)(nil)

func New(cfg Config, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(cfg.MaxRetries),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	model := cfg.Model
	if model == "" {
		model = string(openai.ChatModelGPT4oMini)
	}
	return &Client{
		api:     openai.NewClient(opts...),
		model:   model,
		timeout: cfg.Timeout,
		log:     logger,
	}
}

func (c *Client) ClassifySpelling(ctx context.Context, word string) (wordcheck.Spelling, error) {
	answer, err := c.complete(ctx, spellingPrompt, word)
	if err != nil {
		return wordcheck.Spelling{}, err
	}
	return parseSpelling(word, answer)
}

func (c *Client) ClassifyRelated(ctx context.Context, word, previous string) (bool, error) {
	answer, err := c.complete(ctx, relatedPrompt, fmt.Sprintf("is %s related to %s", word, previous))
	if err != nil {
		return false, err
	}
	return parseYesNo(answer)
}

func (c *Client) complete(ctx context.Context, system, user string) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := c.api.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion: %w: no choices", ErrUnparseable)
	}

	answer := resp.Choices[0].Message.Content
	c.log.Debug("oracle answered",
		zap.String("input", user),
		zap.String("answer", answer),
		zap.Duration("took", time.Since(start)),
	)
	return answer, nil
}

func clean(answer string) string {
	return strings.ToLower(strings.Trim(strings.TrimSpace(answer), ".!\"'"))
}

func parseYesNo(answer string) (bool, error) {
	switch clean(answer) {
	case "y", "yes":
		return true, nil
	case "n", "no":
		return false, nil
	default:
		return false, fmt.Errorf("%w: %q", ErrUnparseable, answer)
	}
}

func parseSpelling(word, answer string) (wordcheck.Spelling, error) {
	a := clean(answer)
	switch {
	case a == "y" || a == "yes" || a == word:
		return wordcheck.Valid(), nil
	case a == "n" || a == "no":
		return wordcheck.Invalid(), nil
	case a == "" || strings.IndexFunc(a, unicode.IsSpace) >= 0:
		return wordcheck.Spelling{}, fmt.Errorf("%w: %q", ErrUnparseable, answer)
	default:
		return wordcheck.Corrected(a), nil
	}
}
