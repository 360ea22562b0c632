package bot

import (
	"strings"
	"testing"
)

func TestStatsText(t *testing.T) {
	got := statsText(3, 2, 256, 7, 12)

	for _, want := range []string{
		"📊 <b>运行状态</b>",
		"💬 活跃会话：<b>3</b>",
		"📤 发送队列：<b>2</b>/<b>256</b> | 失败 <b>7</b>",
		"🔔 订阅总数：<b>12</b>",
		"🏷 版本：",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("statsText missing %q in:\n%s", want, got)
		}
	}
}

func TestStatsTextWithoutSubscriptions(t *testing.T) {
	got := statsText(0, 0, 256, 0, -1)

	if strings.Contains(got, "订阅总数") {
		t.Errorf("statsText should omit the subscription line, got:\n%s", got)
	}
	if !strings.Contains(got, "💬 活跃会话：<b>0</b>") {
		t.Errorf("statsText missing session line in:\n%s", got)
	}
}
