package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/aitagbot/core/logger"
	"github.com/m3rciful/aitagbot/core/telegram/callbacks"
	"github.com/m3rciful/aitagbot/core/telegram/helpers"
	"github.com/m3rciful/aitagbot/pager"
	"github.com/m3rciful/aitagbot/render"
)

// handleNav applies one page step. The callback is answered before the fetch
// so the button stops spinning immediately; failures are then reported by
// editing the message, as the session outcome dictates.
func (a *App) handleNav(c tele.Context, dir pager.Direction) error {
	_ = c.Respond()

	key, ok := messageKey(c)
	if !ok {
		return nil
	}
	ctx := helpers.BuildContext(c)

	var (
		view pager.View
		err  error
	)
	if from, perr := callbacks.PayloadInt(c); perr != nil {
		// Malformed payload: redisplay whatever the session holds.
		view, err = a.engine.Refresh(ctx, key)
	} else {
		view, err = a.engine.Navigate(ctx, key, pager.NavEvent{Dir: dir, From: from})
	}
	if err != nil {
		return a.reportNavFailure(c, ctx, err)
	}

	text, markup := render.Results(view)
	if err := helpers.EditHTML(c, text, markup); err != nil && !errors.Is(err, tele.ErrSameMessageContent) {
		return fmt.Errorf("edit page: %w", err)
	}
	return nil
}

// handleNoop answers the page indicator button and nothing else.
func (a *App) handleNoop(c tele.Context) error {
	return c.Respond()
}

// handleDetail opens one work: toast, fetch, then the image with its caption
// as a fresh message. The results message stays untouched on failure.
func (a *App) handleDetail(c tele.Context) error {
	workID, err := callbacks.PayloadInt64(c)
	if err != nil {
		return c.Respond()
	}
	_ = c.Respond(&tele.CallbackResponse{Text: detailLoadingText})

	ctx := helpers.BuildContext(c)
	detail, err := a.client.Detail(ctx, workID)
	if err != nil {
		if sendErr := helpers.SendHTML(c, detailFailedText); sendErr != nil {
			return fmt.Errorf("report detail failure: %w", sendErr)
		}
		return err
	}

	caption := render.DetailCaption(&detail)
	markup := render.DetailMarkup(detail.ID)

	if len(detail.Images) > 0 && detail.Images[0].URL != "" {
		photo := &tele.Photo{File: tele.FromURL(detail.Images[0].URL), Caption: caption}
		if err := c.Send(photo, htmlOpts(markup)); err != nil {
			logger.Warn(ctx, "tg", "detail.photo",
				slog.String("status", "fail"),
				slog.Int64("work_id", workID),
				slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
			)
			return helpers.SendHTML(c, detailSendFailedText)
		}
		return nil
	}
	return helpers.SendHTML(c, caption, markup)
}

// handleExplain renders the parameter explanation for one work.
func (a *App) handleExplain(c tele.Context) error {
	workID, err := callbacks.PayloadInt64(c)
	if err != nil {
		return c.Respond()
	}
	_ = c.Respond(&tele.CallbackResponse{Text: explainLoadingText})

	ctx := helpers.BuildContext(c)
	detail, err := a.client.Detail(ctx, workID)
	if err != nil {
		if sendErr := helpers.SendHTML(c, detailFailedText); sendErr != nil {
			return fmt.Errorf("report explain failure: %w", sendErr)
		}
		return err
	}
	return helpers.SendHTML(c, render.WorkParams(&detail).Explain())
}

// handleCallbackNotFound is the registry fallback for unknown callback keys:
// redisplay the current page when the message still has a session, otherwise
// just clear the spinner.
func (a *App) handleCallbackNotFound(c tele.Context) error {
	_ = c.Respond()

	key, ok := messageKey(c)
	if !ok {
		return nil
	}
	ctx := helpers.BuildContext(c)
	view, err := a.engine.Refresh(ctx, key)
	if err != nil {
		return nil
	}
	text, markup := render.Results(view)
	if err := helpers.EditHTML(c, text, markup); err != nil && !errors.Is(err, tele.ErrSameMessageContent) {
		logger.Debug(ctx, "tg", "callback.redisplay",
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
		)
	}
	return nil
}

// reportNavFailure edits the results message according to the failure class.
// Expired and vanished sessions are normal lifecycle, not handler errors.
func (a *App) reportNavFailure(c tele.Context, ctx context.Context, err error) error {
	switch {
	case errors.Is(err, pager.ErrExpired):
		logger.Debug(ctx, "tg", "session.expired",
			slog.Int64("chat_id", chatID(c)),
		)
		if e := helpers.EditHTML(c, sessionExpiredText); e != nil && !errors.Is(e, tele.ErrSameMessageContent) {
			return fmt.Errorf("report expiry: %w", e)
		}
		return nil
	case errors.Is(err, pager.ErrNotFound):
		return nil
	default:
		if e := helpers.EditHTML(c, userErrorText(err)); e != nil && !errors.Is(e, tele.ErrSameMessageContent) {
			return fmt.Errorf("report nav failure: %w", e)
		}
		return err
	}
}

// messageKey identifies the message the pressed button belongs to.
func messageKey(c tele.Context) (pager.MessageKey, bool) {
	cb := c.Callback()
	if cb == nil || cb.Message == nil || cb.Message.Chat == nil {
		return pager.MessageKey{}, false
	}
	return pager.MessageKey{ChatID: cb.Message.Chat.ID, MessageID: cb.Message.ID}, true
}

func chatID(c tele.Context) int64 {
	if chat := c.Chat(); chat != nil {
		return chat.ID
	}
	return 0
}
