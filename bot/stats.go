package bot

import (
	"fmt"
	"log/slog"
	"strings"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/aitagbot/core/buildinfo"
	"github.com/m3rciful/aitagbot/core/logger"
	"github.com/m3rciful/aitagbot/core/telegram/helpers"
)

// handleStats reports runtime numbers to the admin: live sessions, sender
// queue health, and the subscription total when the feature is on.
func (a *App) handleStats(c tele.Context) error {
	subsTotal := -1
	if a.subs != nil {
		ctx := helpers.BuildContext(c)
		n, err := a.subs.Count(ctx)
		if err != nil {
			logger.Warn(ctx, "subs", "count",
				slog.String("status", "fail"),
				slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
			)
		} else {
			subsTotal = n
		}
	}

	var depth, capacity int
	var failures uint64
	if a.dispatcher != nil {
		depth = a.dispatcher.Depth()
		capacity = a.dispatcher.Capacity()
		failures = a.dispatcher.ErrorCount()
	}

	return helpers.SendHTML(c, statsText(a.sessions.Len(), depth, capacity, failures, subsTotal))
}

// statsText renders the /stats body. subsTotal < 0 omits the subscription
// line (feature off or count unavailable).
func statsText(sessions, queueDepth, queueCap int, sendFailures uint64, subsTotal int) string {
	var b strings.Builder
	b.WriteString("📊 <b>运行状态</b>\n")
	b.WriteString(strings.Repeat("─", 15))
	b.WriteByte('\n')
	fmt.Fprintf(&b, "💬 活跃会话：<b>%d</b>\n", sessions)
	fmt.Fprintf(&b, "📤 发送队列：<b>%d</b>/<b>%d</b> | 失败 <b>%d</b>\n", queueDepth, queueCap, sendFailures)
	if subsTotal >= 0 {
		fmt.Fprintf(&b, "🔔 订阅总数：<b>%d</b>\n", subsTotal)
	}
	fmt.Fprintf(&b, "🏷 版本：<code>%s (%s)</code>", buildinfo.Version, buildinfo.Commit)
	return b.String()
}
