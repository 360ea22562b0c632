// Package render formats pagination views and work details as Telegram HTML
// messages with their inline keyboards. User-supplied text is escaped here so
// handlers never deal with markup.
package render

import (
	"fmt"
	"strconv"
	"strings"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/aitagbot/core/telegram/format"
	"github.com/m3rciful/aitagbot/core/telegram/keyboard"
	"github.com/m3rciful/aitagbot/pager"
)

// Callback uniques understood by the bot. Navigation payloads carry the
// offset the user was looking at when pressing the button; it anchors the
// session's compare-and-swap commit.
const (
	UniquePrev    = "pgprev"
	UniqueNext    = "pgnext"
	UniquePageNum = "pgnum"
	UniqueDetail  = "detail"
	UniqueExplain = "explain"
)

const (
	titleFallback  = "无标题"
	authorFallback = "未知作者"

	detailRowSize = 5
)

// Searching is the placeholder text shown while the first page loads.
func Searching(keyword string) string {
	return fmt.Sprintf("🔍 正在搜索 <b>%s</b>...", format.EscapeHTML(keyword))
}

// NoResults is the empty-state text for a query with zero matches.
func NoResults(keyword string) string {
	return fmt.Sprintf("😕 没有找到关于 <b>%s</b> 的结果", format.EscapeHTML(keyword))
}

// Results renders one page of search results. Empty views produce the
// empty-state text with a nil keyboard so stale navigation buttons disappear.
func Results(v pager.View) (string, *tele.ReplyMarkup) {
	if v.Empty() {
		return NoResults(v.Query.Keyword), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🔍 <b>搜索：%s</b>\n", format.EscapeHTML(v.Query.Keyword))
	fmt.Fprintf(&b, "找到 <b>%d</b> 个作品 | 第 <b>%d</b> 页\n", v.Page.Total, v.PageNum)
	b.WriteString(strings.Repeat("─", 20))
	b.WriteByte('\n')
	for i, item := range v.Page.Items {
		title := item.Title
		if title == "" {
			title = titleFallback
		}
		fmt.Fprintf(&b, "%d. <b>%s</b>\n", i+1, format.EscapeHTML(title))
	}
	b.WriteString("\n💡 点击下方数字查看图片及提示词")

	return b.String(), resultsMarkup(v)
}

func resultsMarkup(v pager.View) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}

	detail := make([]tele.Btn, 0, len(v.Page.Items))
	for i, item := range v.Page.Items {
		payload := strconv.FormatInt(item.ID, 10)
		detail = append(detail, markup.Data(strconv.Itoa(i+1), UniqueDetail, payload))
	}
	rows := keyboard.ChunkButtons(detail, detailRowSize)

	offset := strconv.Itoa(v.Page.Offset)
	nav := make([]tele.Btn, 0, 3)
	if v.HasPrev {
		nav = append(nav, markup.Data("⬅️ 上一页", UniquePrev, offset))
	}
	nav = append(nav, markup.Data(fmt.Sprintf("📄 %d/%d", v.PageNum, v.PageCount), UniquePageNum))
	if v.HasNext {
		nav = append(nav, markup.Data("下一页 ➡️", UniqueNext, offset))
	}
	rows = append(rows, nav)

	markup.InlineKeyboard = keyboard.ToInlineKeyboard(rows)
	return markup
}
