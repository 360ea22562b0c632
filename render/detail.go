package render

import (
	"fmt"
	"strconv"
	"strings"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/aitagbot/core/telegram/format"
	"github.com/m3rciful/aitagbot/core/telegram/keyboard"
	"github.com/m3rciful/aitagbot/params"
	"github.com/m3rciful/aitagbot/search"
)

// Telegram caps photo captions at 1024 characters, so prompts are cut well
// below that to leave room for the rest of the caption.
const (
	promptLimit   = 300
	negativeLimit = 150
)

// DetailCaption renders the caption for a single work: title, author, id,
// prompts when present, seed and sampler, and a link back to the source page.
func DetailCaption(d *search.WorkDetail) string {
	title := d.Title
	if title == "" {
		title = titleFallback
	}
	author := d.Author
	if author == "" {
		author = authorFallback
	}
	seed := d.Seed
	if seed == "" {
		seed = "N/A"
	}
	sampler := d.Sampler
	if sampler == "" {
		sampler = "N/A"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🖼️ <b>%s</b>\n", format.EscapeHTML(title))
	fmt.Fprintf(&b, "👤 <b>作者：</b>%s\n", format.EscapeHTML(author))
	fmt.Fprintf(&b, "🆔 <code>%d</code>\n", d.ID)
	b.WriteString(strings.Repeat("─", 15))
	b.WriteByte('\n')

	if d.Prompt != "" {
		prompt := format.EscapeHTML(format.Truncate(d.Prompt, promptLimit))
		fmt.Fprintf(&b, "📝 <b>正向提示词：</b>\n<code>%s</code>\n\n", prompt)
	}
	if d.NegativePrompt != "" {
		negative := format.EscapeHTML(format.Truncate(d.NegativePrompt, negativeLimit))
		fmt.Fprintf(&b, "🚫 <b>反向提示词：</b>\n<code>%s</code>\n\n", negative)
	}

	fmt.Fprintf(&b, "🎲 <b>种子：</b><code>%s</code> | 🧪 <b>采样：</b>%s\n",
		format.EscapeHTML(seed), format.EscapeHTML(sampler))
	// Summarize only what the prompt text itself carries; seed and sampler
	// from the record already have their own line above.
	if summary := params.Parse(d.Prompt).Summary(); summary != "" {
		fmt.Fprintf(&b, "🎛 %s\n", format.EscapeHTML(summary))
	}
	fmt.Fprintf(&b, "🔗 <a href='%s'>在网页查看原文</a>", d.SourceURL)
	return b.String()
}

// WorkParams extracts the generation parameters of a work: whatever the
// prompt text carries, completed with the seed and sampler the record itself
// reports. The explanation view renders these.
func WorkParams(d *search.WorkDetail) params.Params {
	p := params.Parse(d.Prompt)
	if _, ok := p.Get("seed"); !ok && d.Seed != "" {
		p = append(p, params.Param{Key: "seed", Value: d.Seed})
	}
	if _, ok := p.Get("sampler"); !ok && d.Sampler != "" {
		p = append(p, params.Param{Key: "sampler", Value: d.Sampler})
	}
	return p
}

// DetailMarkup returns the keyboard under a detail view. The single button
// asks the bot to explain the work's generation parameters.
func DetailMarkup(workID int64) *tele.ReplyMarkup {
	return keyboard.InlineButtons([]keyboard.InlineBtn{{
		Text:   "解读参数",
		Unique: UniqueExplain,
		Data:   strconv.FormatInt(workID, 10),
	}})
}
