package params

import (
	"encoding/json"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// workflowNode is one node of a ComfyUI workflow graph. Inputs mixes literal
// values with link references; only literals are read.
type workflowNode struct {
	ClassType string         `json:"class_type"`
	Inputs    map[string]any `json:"inputs"`
}

var loraRefRE = regexp.MustCompile(`<lora:([^:>]+)`)

// parseComfyUIWorkflow extracts parameters from a ComfyUI workflow JSON blob
// embedded in text. Nodes are visited in id order so repeated runs produce
// identical output. Anything unparsable yields an empty result, never an
// error; the caller treats that as "no parameters".
func parseComfyUIWorkflow(text string) Params {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return nil
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text[start:end+1]), &raw); err != nil {
		return nil
	}

	ids := make([]string, 0, len(raw))
	for id := range raw {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		a, aerr := strconv.Atoi(ids[i])
		b, berr := strconv.Atoi(ids[j])
		switch {
		case aerr == nil && berr == nil:
			return a < b
		case aerr == nil:
			return true
		case berr == nil:
			return false
		default:
			return ids[i] < ids[j]
		}
	})

	var out Params
	var loras []string
	for _, id := range ids {
		var node workflowNode
		if err := unmarshalNumbers(raw[id], &node); err != nil {
			continue
		}

		if strings.Contains(node.ClassType, "Checkpoint") {
			if name, ok := inputString(node.Inputs, "ckpt_name"); ok && name != "" {
				name = strings.ReplaceAll(name, ".safetensors", "")
				name = strings.ReplaceAll(name, ".ckpt", "")
				out = out.set("checkpoint", name)
			}
		}

		if strings.Contains(node.ClassType, "Lora") || strings.Contains(node.ClassType, "LoRA") {
			ref, ok := inputString(node.Inputs, "text")
			if !ok || ref == "" {
				ref, _ = inputString(node.Inputs, "lora_name")
			}
			if ref != "" {
				if m := loraRefRE.FindStringSubmatch(ref); m != nil {
					loras = append(loras, m[1])
				} else if !strings.HasPrefix(ref, "<") {
					loras = append(loras, strings.ReplaceAll(ref, ".safetensors", ""))
				}
			}
		}

		if strings.Contains(node.ClassType, "Sampler") {
			if v, ok := inputString(node.Inputs, "steps"); ok {
				out = out.set("steps", v)
			}
			if v, ok := inputString(node.Inputs, "cfg"); ok {
				out = out.set("cfg scale", v)
			}
			if v, ok := inputString(node.Inputs, "sampler_name"); ok {
				out = out.set("sampler", v)
			}
			if v, ok := inputString(node.Inputs, "scheduler"); ok {
				out = out.set("schedule type", v)
			}
			if v, ok := inputString(node.Inputs, "seed"); ok {
				out = out.set("seed", v)
			}
		}

		if strings.Contains(node.ClassType, "VAE") {
			if name, ok := inputString(node.Inputs, "vae_name"); ok && name != "" {
				out = out.set("vae", strings.ReplaceAll(name, ".safetensors", ""))
			}
		}
	}

	if len(loras) > 0 {
		out = out.set("lora", strings.Join(loras, ", "))
	}
	if len(out) > 0 {
		out = out.set("workflow", "ComfyUI")
	}
	return out
}

// unmarshalNumbers decodes with json.Number so seeds and step counts keep
// their literal spelling instead of drifting through float64.
func unmarshalNumbers(raw json.RawMessage, node *workflowNode) error {
	dec := json.NewDecoder(strings.NewReader(string(raw)))
	dec.UseNumber()
	return dec.Decode(node)
}

// inputString reads a literal node input as a string. Link references and
// other non-scalar inputs report not ok.
func inputString(inputs map[string]any, key string) (string, bool) {
	v, ok := inputs[key]
	if !ok {
		return "", false
	}
	switch t := v.(type) {
	case string:
		return t, true
	case json.Number:
		return t.String(), true
	default:
		return "", false
	}
}
