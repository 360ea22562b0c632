// Package params extracts AI generation parameters from prompt text and
// renders human-readable explanations of them. Two source formats are
// recognized: the Stable Diffusion "Key: Value" tail and ComfyUI workflow
// JSON embedded in the prompt.
package params

import (
	"html"
	"regexp"
	"strings"
)

// Param is one extracted generation parameter. Keys are normalized to
// lowercase; values keep the upstream spelling.
type Param struct {
	Key   string
	Value string
}

// Params preserves extraction order so explanations render in the order the
// parameters appeared in the source text.
type Params []Param

// sdParamRE matches the Stable Diffusion parameter tail. Longer keys come
// first so "Model hash" never half-matches as "Model". Both ASCII and
// fullwidth colons appear in the wild.
var sdParamRE = regexp.MustCompile(`(?i)(Steps|Sampler|CFG scale|Seed|Size|Model hash|Model|Clip skip|Denoising strength|Schedule type|VAE)\s*[:：]\s*([^,\n]+)`)

// loraTagRE matches complete <lora:name:weight> tags in prompt text.
var loraTagRE = regexp.MustCompile(`(?i)<lora:([^:>]+):[^>]+>`)

// Parse extracts generation parameters from prompt text. The SD "Key: Value"
// format wins when present; otherwise the text is scanned for an embedded
// ComfyUI workflow. An empty result means nothing recognizable was found.
func Parse(text string) Params {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	var out Params
	for _, m := range sdParamRE.FindAllStringSubmatch(text, -1) {
		key := strings.ToLower(strings.TrimSpace(m[1]))
		value := strings.TrimSpace(m[2])
		if value != "" {
			out = out.set(key, value)
		}
	}

	if loras := loraTagRE.FindAllStringSubmatch(text, -1); len(loras) > 0 {
		names := make([]string, 0, len(loras))
		for _, m := range loras {
			names = append(names, strings.TrimSpace(m[1]))
		}
		out = out.set("lora", strings.Join(names, ", "))
	}

	if len(out) == 0 {
		out = parseComfyUIWorkflow(text)
	}
	return out
}

// Get returns the value for key, matching case-insensitively.
func (p Params) Get(key string) (string, bool) {
	key = strings.ToLower(key)
	for _, param := range p {
		if param.Key == key {
			return param.Value, true
		}
	}
	return "", false
}

// set updates key in place or appends it, keeping first-seen order.
func (p Params) set(key, value string) Params {
	for i := range p {
		if p[i].Key == key {
			p[i].Value = value
			return p
		}
	}
	return append(p, Param{Key: key, Value: value})
}

type explanation struct {
	name string
	desc string
}

var explanations = map[string]explanation{
	"steps": {
		name: "迭代步数 (Steps)",
		desc: "生成过程的迭代次数。步数越高，细节越丰富，但生成时间也越长。通常 20-30 步就能获得不错的效果。",
	},
	"sampler": {
		name: "采样器 (Sampler)",
		desc: "控制图像生成算法的核心组件。不同采样器会产生不同风格的画面。常见的有 Euler、DPM++、DDIM 等。",
	},
	"cfg scale": {
		name: "提示词引导强度 (CFG Scale)",
		desc: "决定 AI 对你输入的提示词的遵循程度。数值越高越'听话'但可能过度饱和；越低则更'创意'但可能偏离主题。推荐 5-12。",
	},
	"seed": {
		name: "随机种子 (Seed)",
		desc: "决定画面随机性的魔法数字。相同的种子 + 相同的参数 = 相同的画面。用于复现或微调作品。",
	},
	"size": {
		name: "尺寸 (Size)",
		desc: "输出图像的分辨率 (宽×高)。常见比例有 1:1 (头像)、16:9 (壁纸)、2:3 (人像) 等。",
	},
	"model": {
		name: "模型 (Model)",
		desc: "AI 绘画的'大脑'。不同模型擅长不同风格，如写实、动漫、插画等。这是影响画面风格的最关键因素。",
	},
	"checkpoint": {
		name: "基础模型 (Checkpoint)",
		desc: "ComfyUI 中的主模型文件。决定画面的整体风格和质量。",
	},
	"model hash": {
		name: "模型哈希 (Model Hash)",
		desc: "模型文件的唯一标识符，用于精确匹配特定版本的模型。",
	},
	"clip skip": {
		name: "CLIP 层跳过 (Clip Skip)",
		desc: "跳过 CLIP 文本编码器的后几层。数值越大，对提示词的理解越'抽象'，常用于动漫风格。",
	},
	"denoising strength": {
		name: "降噪强度 (Denoising)",
		desc: "图生图 (img2img) 专属参数。数值越高改动越大，越低则越接近原图。",
	},
	"schedule type": {
		name: "调度类型 (Schedule)",
		desc: "控制采样过程中噪声去除的节奏。不同调度器会影响最终画面的质感。",
	},
	"vae": {
		name: "VAE 模型",
		desc: "变分自编码器，负责图像的编解码。不同 VAE 会影响颜色饱和度和细节表现。",
	},
	"lora": {
		name: "LoRA 微调模型",
		desc: "轻量级微调模型，用于添加特定角色、风格或概念，无需替换主模型。",
	},
	"workflow": {
		name: "工作流类型",
		desc: "该作品使用的生成工具类型，如 ComfyUI、Stable Diffusion WebUI 等。",
	},
}

// NoParamsMessage is shown when a work carries no recognizable parameters.
const NoParamsMessage = "😕 该作品没有可解读的参数信息。\n\n可能原因：\n• 非标准格式工作流\n• 作者未公开参数\n• 参数已被移除"

// Explain renders the full parameter explanation as Telegram HTML. Values are
// escaped; the explanation prose is trusted static text.
func (p Params) Explain() string {
	if len(p) == 0 {
		return NoParamsMessage
	}

	lines := []string{"🎨 <b>AI 生成参数解读</b>\n"}
	if workflow, ok := p.Get("workflow"); ok {
		lines = append(lines, "📦 <b>工具</b>: "+html.EscapeString(workflow)+"\n")
	}
	for _, param := range p {
		if param.Key == "workflow" {
			continue
		}
		value := html.EscapeString(param.Value)
		if info, ok := explanations[param.Key]; ok {
			lines = append(lines,
				"<b>📌 "+info.name+"</b>",
				"   值：<code>"+value+"</code>",
				"   💡 "+info.desc+"\n",
			)
		} else {
			lines = append(lines, "<b>📌 "+html.EscapeString(param.Key)+"</b>: <code>"+value+"</code>\n")
		}
	}
	return strings.Join(lines, "\n")
}

// Summary renders a one-line digest of the key parameters for captions.
// Returns "" when nothing summarizable was extracted.
func (p Params) Summary() string {
	var parts []string

	model, ok := p.Get("model")
	if !ok {
		model, ok = p.Get("checkpoint")
	}
	if ok && model != "" {
		name := strings.TrimSpace(strings.SplitN(model, ",", 2)[0])
		if runes := []rune(name); len(runes) > 20 {
			name = string(runes[:17]) + "..."
		}
		parts = append(parts, "🤖 "+name)
	}
	if steps, ok := p.Get("steps"); ok {
		parts = append(parts, "🔄 "+steps+"步")
	}
	if cfg, ok := p.Get("cfg scale"); ok {
		parts = append(parts, "📊 CFG "+cfg)
	}
	if sampler, ok := p.Get("sampler"); ok {
		if fields := strings.Fields(sampler); len(fields) > 0 {
			parts = append(parts, "🎯 "+fields[0])
		}
	}
	if workflow, ok := p.Get("workflow"); ok {
		parts = append(parts, "📦 "+workflow)
	}
	return strings.Join(parts, " | ")
}
