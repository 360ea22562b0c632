package router

import (
	"strings"
	"time"

	tg "github.com/m3rciful/aitagbot/core/telegram"
	"github.com/m3rciful/aitagbot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// TextOptions controls fallback behaviour for text/document updates.
type TextOptions struct {
	// UnknownCommand runs for slash-prefixed text that matches no command.
	UnknownCommand tele.HandlerFunc
	// UnknownText runs for plain text when no text fallback is registered.
	UnknownText tele.HandlerFunc
	// UnknownDocument runs for document updates.
	UnknownDocument tele.HandlerFunc
}

// TextRoutes builds handlers for text and document routing. Slash-prefixed
// text is resolved against the registry by its first token; everything else
// goes to the registry's text fallback. Telebot dispatches registered command
// endpoints directly, so the command branch here only catches spellings the
// endpoint table missed.
func TextRoutes(reg *tg.Registry, opts TextOptions) []tg.Route {
	handler := func(c tele.Context) error {
		start := time.Now()
		text := strings.TrimSpace(c.Text())

		if strings.HasPrefix(text, "/") {
			name := commandToken(text)
			if reg != nil {
				// Admin-only commands are reachable only through their
				// registered endpoints, which carry the access check.
				if key, cmd, ok := reg.LookupCommand(name); ok && cmd.Handler != nil && !cmd.AdminOnly {
					return handleWithSummary(c, normalizeHandlerName(key), start, "", "", func() error {
						return cmd.Handler(c)
					})
				}
			}
			if opts.UnknownCommand != nil {
				return handleWithSummary(c, "unknown_command", start, "", "", func() error {
					return opts.UnknownCommand(c)
				})
			}
			logHandlerSummary(c, "unknown_command", start, "skip", "ok", nil)
			return nil
		}

		if reg != nil {
			if fb := reg.TextFallback(); fb != nil {
				return handleWithSummary(c, "fallback", start, "", "", func() error {
					return fb(c)
				})
			}
		}

		if opts.UnknownText != nil {
			return handleWithSummary(c, "unknown_text", start, "", "", func() error {
				return opts.UnknownText(c)
			})
		}

		logHandlerSummary(c, "unknown_text", start, "skip", "ok", nil)
		return nil
	}

	docHandler := func(c tele.Context) error {
		start := time.Now()
		if opts.UnknownDocument != nil {
			return handleWithSummary(c, "unexpected_document", start, "", "", func() error {
				return opts.UnknownDocument(c)
			})
		}
		logHandlerSummary(c, "unexpected_document", start, "skip", "ok", nil)
		return nil
	}

	return []tg.Route{
		{
			Endpoint: tele.OnText,
			Handler:  middleware.RecoverMiddleware(middleware.LoggerMiddleware(handler)),
		},
		{
			Endpoint: tele.OnDocument,
			Handler:  middleware.RecoverMiddleware(middleware.LoggerMiddleware(docHandler)),
		},
	}
}

// commandToken isolates the command word: first whitespace-separated token
// with any @botname mention stripped.
func commandToken(text string) string {
	tok := text
	if i := strings.IndexAny(tok, " \t\n"); i >= 0 {
		tok = tok[:i]
	}
	if i := strings.Index(tok, "@"); i > 0 {
		tok = tok[:i]
	}
	return tok
}
