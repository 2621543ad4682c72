package telegram

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Client sends agent notifications. Companies may bring their own bot, so
// one BotAPI is kept per token.
type Client struct {
	endpoint   string
	httpClient *http.Client

	mu   sync.Mutex
	bots map[string]*botEntry
}

// botEntry.ready is closed once getMe for the token has returned.
type botEntry struct {
	ready chan struct{}
	bot   *tgbotapi.BotAPI
	err   error
}

// NewClient uses endpoint as the Bot API URL template ("" means the public
// API).
func NewClient(endpoint string, timeout time.Duration) *Client {
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: timeout},
		bots:       make(map[string]*botEntry),
	}
}

func (c *Client) Send(ctx context.Context, botToken, chatID, text string) error {
	msg, err := newMessage(chatID, text)
	if err != nil {
		return err
	}

	bot, err := c.bot(ctx, botToken)
	if err != nil {
		return err
	}

	done := make(chan error, 1)
	go func() {
		_, err := bot.Send(msg)
		done <- err
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("telegram sendMessage: %w", err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("telegram sendMessage: %w", ctx.Err())
	}
}

// bot returns the BotAPI for token, starting its getMe outside the lock so
// a slow token only delays its own senders.
func (c *Client) bot(ctx context.Context, token string) (*tgbotapi.BotAPI, error) {
	c.mu.Lock()
	e, ok := c.bots[token]
	if !ok {
		e = &botEntry{ready: make(chan struct{})}
		c.bots[token] = e
		go c.initBot(token, e)
	}
	c.mu.Unlock()

	select {
	case <-e.ready:
		return e.bot, e.err
	case <-ctx.Done():
		return nil, fmt.Errorf("telegram bot init: %w", ctx.Err())
	}
}

func (c *Client) initBot(token string, e *botEntry) {
	defer close(e.ready)

	// NewBotAPIWithClient calls getMe, so a bad token fails here.
	e.bot, e.err = tgbotapi.NewBotAPIWithClient(token, c.endpoint, c.httpClient)
	if e.err == nil {
		return
	}
	e.err = fmt.Errorf("telegram bot init: %w", e.err)

	// Failed tokens are retried on the next send.
	c.mu.Lock()
	if c.bots[token] == e {
		delete(c.bots, token)
	}
	c.mu.Unlock()
}

// newMessage accepts numeric chat ids and @channel usernames.
func newMessage(chatID, text string) (tgbotapi.MessageConfig, error) {
	chatID = strings.TrimSpace(chatID)
	if strings.HasPrefix(chatID, "@") {
		return tgbotapi.NewMessageToChannel(chatID, text), nil
	}

	id, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return tgbotapi.MessageConfig{}, fmt.Errorf("invalid telegram chat id %q", chatID)
	}
	return tgbotapi.NewMessage(id, text), nil
}
