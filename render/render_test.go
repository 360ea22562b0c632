package render

import (
	"strings"
	"testing"

	"github.com/m3rciful/aitagbot/pager"
	"github.com/m3rciful/aitagbot/search"
)

func sampleView(n int) pager.View {
	items := make([]search.ResultItem, 0, n)
	for i := 0; i < n; i++ {
		items = append(items, search.ResultItem{
			ID:    int64(100 + i),
			Title: "work-" + string(rune('a'+i)),
		})
	}
	return pager.View{
		Query:     pager.Query{Keyword: "wuwa", ChatID: 7, UserID: 9},
		Page:      search.Page{Items: items, Offset: 0, Total: 12},
		HasPrev:   false,
		HasNext:   true,
		PageNum:   1,
		PageCount: 3,
	}
}

func TestResultsLayout(t *testing.T) {
	v := sampleView(2)
	v.Page.Items[1].Title = ""

	text, markup := Results(v)

	if !strings.Contains(text, "🔍 <b>搜索：wuwa</b>") {
		t.Errorf("missing header: %q", text)
	}
	if !strings.Contains(text, "找到 <b>12</b> 个作品 | 第 <b>1</b> 页") {
		t.Errorf("missing counts line: %q", text)
	}
	if !strings.Contains(text, strings.Repeat("─", 20)) {
		t.Errorf("missing separator: %q", text)
	}
	if !strings.Contains(text, "1. <b>work-a</b>") {
		t.Errorf("missing first item: %q", text)
	}
	if !strings.Contains(text, "2. <b>无标题</b>") {
		t.Errorf("missing title fallback: %q", text)
	}
	if !strings.HasSuffix(text, "💡 点击下方数字查看图片及提示词") {
		t.Errorf("missing footer: %q", text)
	}

	if markup == nil {
		t.Fatal("expected a keyboard")
	}
	rows := markup.InlineKeyboard
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2 (detail + nav)", len(rows))
	}
	if len(rows[0]) != 2 {
		t.Fatalf("detail row = %d buttons, want 2", len(rows[0]))
	}
	first := rows[0][0]
	if first.Text != "1" || first.Unique != UniqueDetail || first.Data != "100" {
		t.Errorf("detail button = %q/%q/%q", first.Text, first.Unique, first.Data)
	}

	nav := rows[1]
	if len(nav) != 2 {
		t.Fatalf("nav row = %d buttons, want 2 (indicator + next)", len(nav))
	}
	if nav[0].Unique != UniquePageNum || nav[0].Text != "📄 1/3" {
		t.Errorf("indicator = %q/%q", nav[0].Unique, nav[0].Text)
	}
	if nav[1].Unique != UniqueNext || nav[1].Text != "下一页 ➡️" || nav[1].Data != "0" {
		t.Errorf("next = %q/%q/%q", nav[1].Unique, nav[1].Text, nav[1].Data)
	}
}

func TestResultsEscapesUserText(t *testing.T) {
	v := sampleView(1)
	v.Query.Keyword = "a<b & c"
	v.Page.Items[0].Title = "<script>"

	text, _ := Results(v)
	if !strings.Contains(text, "搜索：a&lt;b &amp; c") {
		t.Errorf("keyword not escaped: %q", text)
	}
	if !strings.Contains(text, "1. <b>&lt;script&gt;</b>") {
		t.Errorf("title not escaped: %q", text)
	}
}

func TestResultsChunksDetailButtons(t *testing.T) {
	_, markup := Results(sampleView(6))
	rows := markup.InlineKeyboard
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want 3 (two detail rows + nav)", len(rows))
	}
	if len(rows[0]) != 5 || len(rows[1]) != 1 {
		t.Errorf("detail rows = %d/%d, want 5/1", len(rows[0]), len(rows[1]))
	}
}

func TestResultsNavCarriesObservedOffset(t *testing.T) {
	v := sampleView(5)
	v.Page.Offset = 5
	v.HasPrev = true
	v.PageNum = 2

	_, markup := Results(v)
	nav := markup.InlineKeyboard[len(markup.InlineKeyboard)-1]
	if len(nav) != 3 {
		t.Fatalf("nav row = %d buttons, want 3", len(nav))
	}
	if nav[0].Unique != UniquePrev || nav[0].Data != "5" {
		t.Errorf("prev = %q/%q", nav[0].Unique, nav[0].Data)
	}
	if nav[2].Unique != UniqueNext || nav[2].Data != "5" {
		t.Errorf("next = %q/%q", nav[2].Unique, nav[2].Data)
	}
}

func TestResultsEmptyView(t *testing.T) {
	v := pager.View{Query: pager.Query{Keyword: "nothing"}}
	text, markup := Results(v)
	if text != "😕 没有找到关于 <b>nothing</b> 的结果" {
		t.Errorf("empty text = %q", text)
	}
	if markup != nil {
		t.Error("empty view must not carry a keyboard")
	}
}

func TestSearching(t *testing.T) {
	got := Searching("a<b")
	if got != "🔍 正在搜索 <b>a&lt;b</b>..." {
		t.Errorf("Searching = %q", got)
	}
}

func TestDetailCaption(t *testing.T) {
	d := &search.WorkDetail{
		ID:             42,
		Title:          "Sky <City>",
		Author:         "painter",
		SourceURL:      "https://aitag.win/i/42",
		Prompt:         strings.Repeat("p", 350),
		NegativePrompt: "lowres, bad hands",
		Seed:           "12345",
		Sampler:        "Euler a",
	}

	got := DetailCaption(d)

	if !strings.Contains(got, "🖼️ <b>Sky &lt;City&gt;</b>") {
		t.Errorf("title line wrong: %q", got)
	}
	if !strings.Contains(got, "👤 <b>作者：</b>painter") {
		t.Errorf("author line wrong: %q", got)
	}
	if !strings.Contains(got, "🆔 <code>42</code>") {
		t.Errorf("id line wrong: %q", got)
	}
	if !strings.Contains(got, strings.Repeat("p", 300)+"...") {
		t.Errorf("prompt not truncated at 300: %q", got)
	}
	if strings.Contains(got, strings.Repeat("p", 301)) {
		t.Errorf("prompt kept too much: %q", got)
	}
	if !strings.Contains(got, "🚫 <b>反向提示词：</b>\n<code>lowres, bad hands</code>") {
		t.Errorf("negative prompt wrong: %q", got)
	}
	if !strings.Contains(got, "🎲 <b>种子：</b><code>12345</code> | 🧪 <b>采样：</b>Euler a") {
		t.Errorf("seed/sampler line wrong: %q", got)
	}
	if !strings.HasSuffix(got, "🔗 <a href='https://aitag.win/i/42'>在网页查看原文</a>") {
		t.Errorf("source link wrong: %q", got)
	}
}

func TestDetailCaptionDefaults(t *testing.T) {
	got := DetailCaption(&search.WorkDetail{ID: 1, SourceURL: "https://aitag.win/i/1"})

	if !strings.Contains(got, "<b>无标题</b>") {
		t.Errorf("missing title fallback: %q", got)
	}
	if !strings.Contains(got, "<b>作者：</b>未知作者") {
		t.Errorf("missing author fallback: %q", got)
	}
	if !strings.Contains(got, "🎲 <b>种子：</b><code>N/A</code> | 🧪 <b>采样：</b>N/A") {
		t.Errorf("missing N/A defaults: %q", got)
	}
	if strings.Contains(got, "正向提示词") || strings.Contains(got, "反向提示词") {
		t.Errorf("empty prompts must be omitted: %q", got)
	}
}

func TestDetailMarkup(t *testing.T) {
	markup := DetailMarkup(42)
	rows := markup.InlineKeyboard
	if len(rows) != 1 || len(rows[0]) != 1 {
		t.Fatalf("unexpected keyboard shape: %v", rows)
	}
	btn := rows[0][0]
	if btn.Text != "解读参数" || btn.Unique != UniqueExplain || btn.Data != "42" {
		t.Errorf("explain button = %q/%q/%q", btn.Text, btn.Unique, btn.Data)
	}
}

func TestDetailCaptionParamSummary(t *testing.T) {
	d := &search.WorkDetail{
		ID:        7,
		SourceURL: "https://aitag.win/i/7",
		Prompt:    "1girl, masterpiece\nSteps: 28, Sampler: DPM++ 2M Karras, CFG scale: 7, Model: meinamix_v11",
	}

	got := DetailCaption(d)
	if !strings.Contains(got, "🎛 🤖 meinamix_v11 | 🔄 28步 | 📊 CFG 7 | 🎯 DPM++") {
		t.Errorf("missing parameter summary line: %q", got)
	}
}

func TestWorkParams(t *testing.T) {
	d := &search.WorkDetail{
		Prompt:  "1girl\nSteps: 20, Sampler: Euler a",
		Seed:    "999",
		Sampler: "DDIM",
	}

	p := WorkParams(d)

	if got, _ := p.Get("steps"); got != "20" {
		t.Errorf("steps = %q, want 20", got)
	}
	if got, _ := p.Get("sampler"); got != "Euler a" {
		t.Errorf("sampler = %q, want the prompt value to win", got)
	}
	if got, _ := p.Get("seed"); got != "999" {
		t.Errorf("seed = %q, want the record value merged in", got)
	}

	if p := WorkParams(&search.WorkDetail{}); len(p) != 0 {
		t.Errorf("empty detail produced params: %v", p)
	}
}

func TestSubscriptionList(t *testing.T) {
	got := SubscriptionList([]string{"wuwa", "原神"}, 20)

	if !strings.Contains(got, "🔔 <b>我的订阅</b>（2/20）") {
		t.Errorf("missing header: %q", got)
	}
	if !strings.Contains(got, "1. <code>wuwa</code>") || !strings.Contains(got, "2. <code>原神</code>") {
		t.Errorf("missing items: %q", got)
	}
	if !strings.Contains(got, "/unsub") {
		t.Errorf("missing unsub hint: %q", got)
	}
}

func TestSubscriptionUpdate(t *testing.T) {
	items := make([]search.ResultItem, 7)
	for i := range items {
		items[i] = search.ResultItem{ID: int64(200 - i), Title: "fresh-" + string(rune('a'+i))}
	}
	items[1].Title = ""

	got := SubscriptionUpdate("a<b", items)

	if !strings.Contains(got, "🔔 <b>a&lt;b</b> 有 <b>7</b> 个新作品！") {
		t.Errorf("missing header: %q", got)
	}
	if !strings.Contains(got, "1. <b>fresh-a</b>") {
		t.Errorf("missing first item: %q", got)
	}
	if !strings.Contains(got, "2. <b>无标题</b>") {
		t.Errorf("missing title fallback: %q", got)
	}
	if strings.Contains(got, "fresh-f") {
		t.Errorf("should cap at five titles: %q", got)
	}
	if !strings.Contains(got, "……以及另外 2 个作品") {
		t.Errorf("missing overflow line: %q", got)
	}
	if !strings.HasSuffix(got, "💡 发送 <code>a&lt;b</code> 查看完整结果") {
		t.Errorf("missing footer: %q", got)
	}
}
