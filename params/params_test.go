package params

import (
	"strings"
	"testing"
)

const sdPromptTail = `masterpiece, 1girl, katana
Negative prompt: lowres, bad anatomy
Steps: 28, Sampler: DPM++ 2M Karras, CFG scale: 7, Seed: 3612647397, Size: 832x1216, Model hash: 1a2b3c4d, Model: noobaiXL, Clip skip: 2`

func TestParseSDFormat(t *testing.T) {
	p := Parse(sdPromptTail)

	want := map[string]string{
		"steps":      "28",
		"sampler":    "DPM++ 2M Karras",
		"cfg scale":  "7",
		"seed":       "3612647397",
		"size":       "832x1216",
		"model hash": "1a2b3c4d",
		"model":      "noobaiXL",
		"clip skip":  "2",
	}
	for key, value := range want {
		got, ok := p.Get(key)
		if !ok {
			t.Fatalf("missing %q in %+v", key, p)
		}
		if got != value {
			t.Fatalf("%s = %q, expected %q", key, got, value)
		}
	}
}

func TestParseModelHashNotSwallowedByModel(t *testing.T) {
	p := Parse("Model hash: deadbeef, Model: anything-v5")
	if got, _ := p.Get("model hash"); got != "deadbeef" {
		t.Fatalf("model hash = %q", got)
	}
	if got, _ := p.Get("model"); got != "anything-v5" {
		t.Fatalf("model = %q", got)
	}
}

func TestParseFullwidthColon(t *testing.T) {
	p := Parse("Steps：30")
	if got, _ := p.Get("steps"); got != "30" {
		t.Fatalf("steps = %q", got)
	}
}

func TestParseLoraTags(t *testing.T) {
	p := Parse("1girl, <lora:genshin_raiden:0.8>, scenery, <lora:detail_slider:1.2>")
	got, ok := p.Get("lora")
	if !ok {
		t.Fatalf("missing lora in %+v", p)
	}
	if got != "genshin_raiden, detail_slider" {
		t.Fatalf("lora = %q", got)
	}
}

func TestParseEmptyAndPlainText(t *testing.T) {
	if p := Parse(""); len(p) != 0 {
		t.Fatalf("empty input produced %+v", p)
	}
	if p := Parse("just a plain prompt, 1girl, blue sky"); len(p) != 0 {
		t.Fatalf("plain prompt produced %+v", p)
	}
}

const comfyWorkflow = `{
	"4": {"class_type": "CheckpointLoaderSimple", "inputs": {"ckpt_name": "waiNSFW_v12.safetensors"}},
	"10": {"class_type": "LoraLoader", "inputs": {"lora_name": "chara_hutao.safetensors", "model": ["4", 0]}},
	"3": {"class_type": "KSampler", "inputs": {
		"steps": 26, "cfg": 6.5, "sampler_name": "euler_ancestral",
		"scheduler": "normal", "seed": 977468296, "model": ["10", 0]}},
	"8": {"class_type": "VAELoader", "inputs": {"vae_name": "sdxl_vae.safetensors"}},
	"note": "not a node"
}`

func TestParseComfyUIWorkflow(t *testing.T) {
	p := Parse("some caption " + comfyWorkflow)

	want := map[string]string{
		"checkpoint":    "waiNSFW_v12",
		"lora":          "chara_hutao",
		"steps":         "26",
		"cfg scale":     "6.5",
		"sampler":       "euler_ancestral",
		"schedule type": "normal",
		"seed":          "977468296",
		"vae":           "sdxl_vae",
		"workflow":      "ComfyUI",
	}
	for key, value := range want {
		got, ok := p.Get(key)
		if !ok {
			t.Fatalf("missing %q in %+v", key, p)
		}
		if got != value {
			t.Fatalf("%s = %q, expected %q", key, got, value)
		}
	}
}

func TestParseComfyUILoraTagInText(t *testing.T) {
	p := Parse(`{"7": {"class_type": "LoraTagLoader", "inputs": {"text": "<lora:style_ghibli:0.7>"}}}`)
	if got, _ := p.Get("lora"); got != "style_ghibli" {
		t.Fatalf("lora = %q", got)
	}
}

func TestParseSDFormatWinsOverWorkflow(t *testing.T) {
	p := Parse("Steps: 20\n" + comfyWorkflow)
	if _, ok := p.Get("workflow"); ok {
		t.Fatalf("workflow parsed despite SD params present: %+v", p)
	}
	if got, _ := p.Get("steps"); got != "20" {
		t.Fatalf("steps = %q", got)
	}
}

func TestExplainKnownAndUnknownKeys(t *testing.T) {
	p := Params{
		{Key: "steps", Value: "28"},
		{Key: "mystery", Value: "a<b"},
		{Key: "workflow", Value: "ComfyUI"},
	}
	out := p.Explain()

	if !strings.Contains(out, "🎨 <b>AI 生成参数解读</b>") {
		t.Fatalf("missing header: %s", out)
	}
	if !strings.Contains(out, "📦 <b>工具</b>: ComfyUI") {
		t.Fatalf("workflow line missing or out of place: %s", out)
	}
	if !strings.Contains(out, "迭代步数 (Steps)") || !strings.Contains(out, "<code>28</code>") {
		t.Fatalf("steps explanation missing: %s", out)
	}
	if !strings.Contains(out, "<b>📌 mystery</b>: <code>a&lt;b</code>") {
		t.Fatalf("unknown key must render raw with escaping: %s", out)
	}
	if strings.Count(out, "ComfyUI") != 1 {
		t.Fatalf("workflow must render once: %s", out)
	}
}

func TestExplainEmpty(t *testing.T) {
	if got := (Params)(nil).Explain(); got != NoParamsMessage {
		t.Fatalf("empty explain = %q", got)
	}
}

func TestSummary(t *testing.T) {
	p := Params{
		{Key: "model", Value: "a-very-long-model-name-that-exceeds-limits, extra"},
		{Key: "steps", Value: "28"},
		{Key: "cfg scale", Value: "7"},
		{Key: "sampler", Value: "DPM++ 2M Karras"},
	}
	got := p.Summary()
	want := "🤖 a-very-long-model... | 🔄 28步 | 📊 CFG 7 | 🎯 DPM++"
	if got != want {
		t.Fatalf("summary = %q, expected %q", got, want)
	}
}

func TestSummaryChecksCheckpointAndWorkflow(t *testing.T) {
	p := Params{
		{Key: "checkpoint", Value: "waiNSFW_v12"},
		{Key: "workflow", Value: "ComfyUI"},
	}
	if got := p.Summary(); got != "🤖 waiNSFW_v12 | 📦 ComfyUI" {
		t.Fatalf("summary = %q", got)
	}
}

func TestSummaryEmpty(t *testing.T) {
	if got := (Params)(nil).Summary(); got != "" {
		t.Fatalf("summary of nothing = %q", got)
	}
}
