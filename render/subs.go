package render

import (
	"fmt"
	"strings"

	"github.com/m3rciful/aitagbot/core/telegram/format"
	"github.com/m3rciful/aitagbot/search"
)

// notifyItemCap bounds how many titles one subscription notification lists.
const notifyItemCap = 5

// SubscriptionList renders the keywords a user is subscribed to.
func SubscriptionList(keywords []string, maxPerUser int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🔔 <b>我的订阅</b>（%d/%d）\n", len(keywords), maxPerUser)
	b.WriteString(strings.Repeat("─", 20))
	b.WriteByte('\n')
	for i, kw := range keywords {
		fmt.Fprintf(&b, "%d. <code>%s</code>\n", i+1, format.EscapeHTML(kw))
	}
	b.WriteString("\n💡 发送 <code>/unsub 关键词</code> 可取消订阅")
	return b.String()
}

// SubscriptionUpdate renders the notification for fresh works under a
// subscribed keyword. Items arrive newest first.
func SubscriptionUpdate(keyword string, items []search.ResultItem) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🔔 <b>%s</b> 有 <b>%d</b> 个新作品！\n", format.EscapeHTML(keyword), len(items))
	b.WriteString(strings.Repeat("─", 20))
	b.WriteByte('\n')

	shown := items
	if len(shown) > notifyItemCap {
		shown = shown[:notifyItemCap]
	}
	for i, item := range shown {
		title := item.Title
		if title == "" {
			title = titleFallback
		}
		fmt.Fprintf(&b, "%d. <b>%s</b>\n", i+1, format.EscapeHTML(title))
	}
	if rest := len(items) - len(shown); rest > 0 {
		fmt.Fprintf(&b, "……以及另外 %d 个作品\n", rest)
	}

	fmt.Fprintf(&b, "\n💡 发送 <code>%s</code> 查看完整结果", format.EscapeHTML(keyword))
	return b.String()
}
