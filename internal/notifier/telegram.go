package notifier

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"gopkg.in/telebot.v4"
)

// commandNames are registered as "/name" routes.
var commandNames = []string{"start", "dashboard", "refresh", "signals", "signal", "search", "news", "help"}

// TelegramBot serves Commands over the Telegram Bot API.
type TelegramBot struct {
	Telebot  *telebot.Bot
	commands *Commands
	// replyTimeout bounds how long a command waits for data before replying.
	replyTimeout time.Duration
}

// NewTelegramBot creates a long-polling bot.
func NewTelegramBot(token string, pollTimeout time.Duration, commands *Commands) (*TelegramBot, error) {
	b, err := telebot.NewBot(telebot.Settings{
		Token:  token,
		Poller: &telebot.LongPoller{Timeout: pollTimeout},
	})
	if err != nil {
		return nil, fmt.Errorf("telebot.NewBot: %w", err)
	}

	bot := &TelegramBot{Telebot: b, commands: commands, replyTimeout: 5 * time.Second}
	if err := bot.setCommands(); err != nil {
		return nil, fmt.Errorf("set commands: %w", err)
	}
	bot.Telebot.Use(recoveryMiddleware)
	for _, name := range commandNames {
		bot.Telebot.Handle("/"+name, bot.handler(name))
	}
	return bot, nil
}

func (b *TelegramBot) setCommands() error {
	return b.Telebot.SetCommands([]telebot.Command{
		{Text: "start", Description: "📊 Dashboard"},
		{Text: "refresh", Description: "🔄 Reload the dashboard"},
		{Text: "signals", Description: "📈 All signals"},
		{Text: "signal", Description: "🔎 Signal detail, e.g. /signal AAPL"},
		{Text: "search", Description: "🔍 Search symbols"},
		{Text: "news", Description: "📰 Market news"},
	})
}

func (b *TelegramBot) handler(name string) telebot.HandlerFunc {
	return func(c telebot.Context) error {
		ctx, cancel := context.WithTimeout(context.Background(), b.replyTimeout)
		defer cancel()

		reply := b.commands.Handle(ctx, name, c.Args())
		if err := c.Send(reply, &telebot.SendOptions{ParseMode: telebot.ModeHTML}); err != nil {
			return fmt.Errorf("send reply: %w", err)
		}
		return nil
	}
}

func recoveryMiddleware(next telebot.HandlerFunc) telebot.HandlerFunc {
	return func(c telebot.Context) (err error) {
		defer func() {
			if r := recover(); r != nil {
				log.Error().Interface("panic", r).Msg("recovered from panic in handler")
				err = fmt.Errorf("handler panic: %v", r)
			}
		}()
		return next(c)
	}
}

// Start blocks, polling for updates until Stop.
func (b *TelegramBot) Start() {
	log.Info().Str("bot", b.Telebot.Me.Username).Msg("telegram polling started")
	b.Telebot.Start()
}

func (b *TelegramBot) Stop() {
	b.Telebot.Stop()
	log.Info().Msg("telegram polling stopped")
}
