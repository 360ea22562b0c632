package bot

import (
	"fmt"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/aitagbot/core/telegram/format"
	"github.com/m3rciful/aitagbot/core/telegram/helpers"
	"github.com/m3rciful/aitagbot/render"
)

// Subscription commands are registered only when a database is configured,
// so a.subs is always non-nil here.

func (a *App) handleSubscribe(c tele.Context) error {
	keyword := commandArgs(c)
	if keyword == "" {
		return helpers.SendHTML(c, subUsageText)
	}

	ctx := helpers.BuildContext(c)
	userID := senderID(c)

	count, err := a.subs.CountByUser(ctx, userID)
	if err != nil {
		if sendErr := helpers.SendHTML(c, subErrorText); sendErr != nil {
			return fmt.Errorf("report subscribe failure: %w", sendErr)
		}
		return err
	}
	if count >= a.cfg.Subs.MaxPerUser {
		return helpers.SendHTML(c, fmt.Sprintf(subLimitText, a.cfg.Subs.MaxPerUser))
	}

	created, err := a.subs.Add(ctx, userID, chatID(c), keyword)
	if err != nil {
		if sendErr := helpers.SendHTML(c, subErrorText); sendErr != nil {
			return fmt.Errorf("report subscribe failure: %w", sendErr)
		}
		return err
	}
	if !created {
		return helpers.SendHTML(c, fmt.Sprintf(subExistsText, format.EscapeHTML(keyword)))
	}
	return helpers.SendHTML(c, fmt.Sprintf(subAddedText, format.EscapeHTML(keyword)))
}

func (a *App) handleUnsubscribe(c tele.Context) error {
	keyword := commandArgs(c)
	if keyword == "" {
		return helpers.SendHTML(c, unsubUsageText)
	}

	ctx := helpers.BuildContext(c)
	removed, err := a.subs.Remove(ctx, senderID(c), keyword)
	if err != nil {
		if sendErr := helpers.SendHTML(c, subErrorText); sendErr != nil {
			return fmt.Errorf("report unsubscribe failure: %w", sendErr)
		}
		return err
	}
	if !removed {
		return helpers.SendHTML(c, fmt.Sprintf(unsubNoneText, format.EscapeHTML(keyword)))
	}
	return helpers.SendHTML(c, fmt.Sprintf(unsubOKText, format.EscapeHTML(keyword)))
}

func (a *App) handleSubscriptionList(c tele.Context) error {
	ctx := helpers.BuildContext(c)
	list, err := a.subs.ListByUser(ctx, senderID(c))
	if err != nil {
		if sendErr := helpers.SendHTML(c, subErrorText); sendErr != nil {
			return fmt.Errorf("report list failure: %w", sendErr)
		}
		return err
	}
	if len(list) == 0 {
		return helpers.SendHTML(c, subsEmptyText)
	}

	keywords := make([]string, 0, len(list))
	for _, sub := range list {
		keywords = append(keywords, sub.Keyword)
	}
	return helpers.SendHTML(c, render.SubscriptionList(keywords, a.cfg.Subs.MaxPerUser))
}
