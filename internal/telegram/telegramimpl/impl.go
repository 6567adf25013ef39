package telegramimpl

import (
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/orgball2608/hashtag-discovery/internal/telegram"
	"github.com/orgball2608/hashtag-discovery/pkg/config"
	"github.com/orgball2608/hashtag-discovery/pkg/logger"
	"go.uber.org/fx"
)

const defaultTimeout = 15 * time.Second

type Opts struct {
	fx.In

	Config *config.Config
	Logger logger.Logger
}

type TelegramImpl struct {
	TgBot   *tgbotapi.BotAPI
	Logger  logger.Logger
	channel string
}

var _ telegram.Client = (*TelegramImpl)(nil)

// New returns a no-op client when no bot token or channel is configured.
func New(opts Opts) (telegram.Client, error) {
	log := opts.Logger.WithComponent("Telegram")
	if opts.Config.Telegram.Token == "" || opts.Config.Telegram.Channel == "" {
		log.Info("Telegram not configured, announcements disabled")
		return Noop{}, nil
	}

	timeout := opts.Config.Telegram.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	tgBot, err := tgbotapi.NewBotAPIWithClient(opts.Config.Telegram.Token, tgbotapi.APIEndpoint, &http.Client{Timeout: timeout})
	if err != nil {
		log.Error("Error creating bot", "error", err)
		return nil, err
	}

	return &TelegramImpl{
		TgBot:   tgBot,
		Logger:  log,
		channel: "@" + opts.Config.Telegram.Channel,
	}, nil
}

func (tg *TelegramImpl) SendMessageToDefaultChannel(msg string) {
	newMsg := tgbotapi.NewMessageToChannel(tg.channel, msg)
	newMsg.ParseMode = tgbotapi.ModeMarkdownV2
	newMsg.DisableWebPagePreview = true

	if _, err := tg.TgBot.Send(newMsg); err != nil {
		tg.Logger.Error("Error sending message to channel", "channel", tg.channel, "error", err)
		return
	}
	tg.Logger.Debug("Message sent to channel", "channel", tg.channel)
}

// SendPhotoToDefaultChannel lets Telegram fetch the image itself.
func (tg *TelegramImpl) SendPhotoToDefaultChannel(url, caption string) {
	photo := tgbotapi.NewPhotoToChannel(tg.channel, tgbotapi.FileURL(url))
	photo.Caption = caption
	photo.ParseMode = tgbotapi.ModeMarkdownV2

	if _, err := tg.TgBot.Send(photo); err != nil {
		tg.Logger.Warn("Error sending photo to channel, falling back to text", "channel", tg.channel, "error", err)
		tg.SendMessageToDefaultChannel(caption)
		return
	}
	tg.Logger.Debug("Photo sent to channel", "channel", tg.channel)
}

// Noop drops every message.
type Noop struct{}

var _ telegram.Client = Noop{}

func (Noop) SendMessageToDefaultChannel(string)       {}
func (Noop) SendPhotoToDefaultChannel(string, string) {}
