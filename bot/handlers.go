package bot

import (
	"errors"
	"fmt"
	"strings"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/aitagbot/core/telegram/helpers"
	"github.com/m3rciful/aitagbot/pager"
	"github.com/m3rciful/aitagbot/render"
	"github.com/m3rciful/aitagbot/search"
)

func (a *App) handleStart(c tele.Context) error {
	return helpers.SendHTML(c, welcomeText)
}

func (a *App) handleHelp(c tele.Context) error {
	return helpers.SendHTML(c, helpText)
}

func (a *App) handleSearch(c tele.Context) error {
	keyword := commandArgs(c)
	if keyword == "" {
		return helpers.SendHTML(c, searchUsageText)
	}
	return a.runSearch(c, keyword)
}

// handleText treats any plain text message as a search keyword.
func (a *App) handleText(c tele.Context) error {
	keyword := strings.TrimSpace(c.Text())
	if keyword == "" {
		return nil
	}
	return a.runSearch(c, keyword)
}

func (a *App) handleUnknownCommand(c tele.Context) error {
	msg := c.Message()
	if msg == nil || msg.Chat == nil || msg.Chat.Type != tele.ChatPrivate {
		return nil
	}
	return helpers.SendHTML(c, unknownCommandText)
}

func (a *App) handleRateLimited(c tele.Context) error {
	return helpers.SendText(c, rateLimitedText)
}

// runSearch sends the searching placeholder, runs the query, and edits the
// placeholder into the first result page. The placeholder is sent directly
// through the bot because its message id keys the pagination session.
func (a *App) runSearch(c tele.Context, keyword string) error {
	status, err := c.Bot().Send(c.Recipient(), render.Searching(keyword), htmlOpts(nil))
	if err != nil {
		return fmt.Errorf("send status message: %w", err)
	}

	ctx := helpers.BuildContext(c)
	key := pager.MessageKey{ChatID: status.Chat.ID, MessageID: status.ID}
	view, err := a.engine.Search(ctx, key, pager.Query{
		Keyword: keyword,
		ChatID:  status.Chat.ID,
		UserID:  senderID(c),
	})
	if err != nil {
		if _, editErr := c.Bot().Edit(status, userErrorText(err), htmlOpts(nil)); editErr != nil {
			return fmt.Errorf("report search failure: %w", editErr)
		}
		return err
	}

	text, markup := render.Results(view)
	if _, err := c.Bot().Edit(status, text, htmlOpts(markup)); err != nil && !errors.Is(err, tele.ErrSameMessageContent) {
		return fmt.Errorf("edit results: %w", err)
	}
	return nil
}

// userErrorText maps a search or session failure to its product message.
func userErrorText(err error) string {
	switch {
	case errors.Is(err, pager.ErrEmptyQuery):
		return searchUsageText
	case errors.Is(err, search.ErrUnavailable):
		return searchTimeoutText
	default:
		return searchFailedText
	}
}

// commandArgs returns the argument part of a command message. Telebot fills
// Payload for dispatched command endpoints; text routed through the fallback
// path is split manually.
func commandArgs(c tele.Context) string {
	msg := c.Message()
	if msg == nil {
		return ""
	}
	if p := strings.TrimSpace(msg.Payload); p != "" {
		return p
	}
	text := strings.TrimSpace(msg.Text)
	if i := strings.IndexAny(text, " \t\n"); i >= 0 {
		return strings.TrimSpace(text[i+1:])
	}
	return ""
}

func senderID(c tele.Context) int64 {
	if u := c.Sender(); u != nil {
		return u.ID
	}
	return 0
}

func htmlOpts(markup *tele.ReplyMarkup) *tele.SendOptions {
	return &tele.SendOptions{ParseMode: tele.ModeHTML, ReplyMarkup: markup}
}
