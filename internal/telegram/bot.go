// Package telegram adapts the responder engine to a Telegram long-poll bot.
package telegram

import (
	"context"
	"log"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"rulebot/internal/engine"
)

type Bot struct {
	api     *tgbotapi.BotAPI
	engine  *engine.Engine
	allowed map[int64]struct{}

	mu    sync.Mutex
	names map[int64]string // remembered name per Telegram user
}

// New connects to the Bot API. An empty allowedIDs list means the bot
// answers everyone.
func New(botToken string, eng *engine.Engine, allowedIDs []int64) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, err
	}
	b := &Bot{
		api:    api,
		engine: eng,
		names:  make(map[int64]string),
	}
	if len(allowedIDs) > 0 {
		b.allowed = make(map[int64]struct{}, len(allowedIDs))
		for _, id := range allowedIDs {
			b.allowed[id] = struct{}{}
		}
	}
	return b, nil
}

func (b *Bot) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			if update.Message == nil || update.Message.Text == "" {
				continue
			}
			b.handleIncomingMessage(update.Message)
		}
	}
}

func (b *Bot) handleIncomingMessage(msg *tgbotapi.Message) {
	if !b.isAllowed(msg.From.ID) {
		log.Printf("ignoring message from user ID %d (@%s): not in allowlist", msg.From.ID, msg.From.UserName)
		return
	}

	log.Printf("incoming message from %d (@%s): %q", msg.From.ID, msg.From.UserName, msg.Text)
	reply := b.replyTo(msg.From.ID, msg.Text)

	out := tgbotapi.NewMessage(msg.Chat.ID, reply)
	if _, err := b.api.Send(out); err != nil {
		log.Printf("failed to send message: %v", err)
	}
}

// replyTo threads the per-user remembered name through one engine turn.
func (b *Bot) replyTo(userID int64, text string) string {
	b.mu.Lock()
	name := b.names[userID]
	b.mu.Unlock()

	reply, newName := b.engine.Respond(text, name)

	if newName != name {
		b.mu.Lock()
		b.names[userID] = newName
		b.mu.Unlock()
	}
	return reply
}

func (b *Bot) isAllowed(userID int64) bool {
	if b.allowed == nil {
		return true
	}
	_, ok := b.allowed[userID]
	return ok
}
