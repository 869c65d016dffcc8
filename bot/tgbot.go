package bot

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	tgbotapi "github.com/PaulSonOfLars/gotgbot/v2"
	"github.com/PaulSonOfLars/gotgbot/v2/ext"
	"github.com/PaulSonOfLars/gotgbot/v2/ext/handlers"

	"tenderdesk/internal/lib/sl"
	"tenderdesk/wizard"
)

// StatsProvider reports the live wizard sessions per kind.
type StatsProvider interface {
	Stats() map[wizard.Kind]int
}

// TgBot sends operator alerts to the admin chat and answers the admin's
// /status command.
type TgBot struct {
	log         *slog.Logger
	api         *tgbotapi.Bot
	botUsername string
	adminId     int64
	stats       StatsProvider
	started     time.Time
}

func NewTgBot(botName, apiKey string, adminId int64, log *slog.Logger) (*TgBot, error) {
	tgBot := &TgBot{
		log:         log.With(sl.Module("tgbot")),
		adminId:     adminId,
		botUsername: botName,
		started:     time.Now(),
	}

	api, err := tgbotapi.NewBot(apiKey, nil)
	if err != nil {
		return nil, fmt.Errorf("creating api instance: %v", err)
	}
	tgBot.api = api

	return tgBot, nil
}

func (t *TgBot) SetStatsProvider(stats StatsProvider) {
	t.stats = stats
}

func (t *TgBot) Start() error {

	dispatcher := ext.NewDispatcher(&ext.DispatcherOpts{
		// If an error is returned by a handler, log it and continue going.
		Error: func(b *tgbotapi.Bot, ctx *ext.Context, err error) ext.DispatcherAction {
			t.log.Warn("an error occurred while handling update", sl.Err(err))
			return ext.DispatcherActionNoop
		},
		MaxRoutines: ext.DefaultMaxRoutines,
	})
	updater := ext.NewUpdater(dispatcher, nil)

	dispatcher.AddHandler(handlers.NewCommand("status", t.handleStatus))

	err := updater.StartPolling(t.api, &ext.PollingOpts{
		DropPendingUpdates: true,
		GetUpdatesOpts: &tgbotapi.GetUpdatesOpts{
			Timeout: 9,
			RequestOpts: &tgbotapi.RequestOpts{
				Timeout: time.Second * 10,
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to start polling: %w", err)
	}

	t.log.Info("admin bot started", slog.String("username", t.botUsername))

	// Idle, to keep updates coming in, and avoid bot stopping.
	updater.Idle()

	return nil
}

func (t *TgBot) handleStatus(_ *tgbotapi.Bot, ctx *ext.Context) error {
	if ctx.EffectiveChat == nil || ctx.EffectiveChat.Id != t.adminId {
		return nil
	}
	var stats map[wizard.Kind]int
	if t.stats != nil {
		stats = t.stats.Stats()
	}
	t.plainResponse(t.adminId, statusText(stats, time.Since(t.started)))
	return nil
}

func statusText(stats map[wizard.Kind]int, uptime time.Duration) string {
	var b strings.Builder
	fmt.Fprintf(&b, "uptime %s\n", uptime.Truncate(time.Second))
	if len(stats) == 0 {
		b.WriteString("no live sessions")
		return b.String()
	}
	kinds := make([]string, 0, len(stats))
	for k := range stats {
		kinds = append(kinds, string(k))
	}
	slices.Sort(kinds)
	for _, k := range kinds {
		fmt.Fprintf(&b, "%s: %d\n", k, stats[wizard.Kind(k)])
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// SendMessage implements logger.MessageSender.
func (t *TgBot) SendMessage(msg string) {
	t.plainResponse(t.adminId, msg)
}

func (t *TgBot) plainResponse(chatId int64, text string) {

	sanitized := sanitize(text, false)

	if sanitized != "" {
		_, err := t.api.SendMessage(chatId, sanitized, &tgbotapi.SendMessageOpts{
			ParseMode: "MarkdownV2",
		})
		if err != nil {
			t.log.With(
				slog.Int64("id", chatId),
			).Warn("sending message", sl.Err(err))
			_, err = t.api.SendMessage(chatId, text, &tgbotapi.SendMessageOpts{})
			if err != nil {
				t.log.With(
					slog.Int64("id", chatId),
				).Debug("sending plain message", sl.Err(err))
			}
		}
	} else {
		t.log.With(
			slog.Int64("id", chatId),
		).Debug("empty message")
	}
}

// sanitize escapes the MarkdownV2 reserved characters.
func sanitize(input string, preserveLinks bool) string {
	reservedChars := "\\`_{}#+-.!|()[]*~>=<"
	if preserveLinks {
		reservedChars = "\\`_{}#+-.!|*~>=<"
	}

	var b strings.Builder
	for _, char := range input {
		if strings.ContainsRune(reservedChars, char) {
			b.WriteByte('\\')
		}
		b.WriteRune(char)
	}
	return b.String()
}
