package search

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// ResultItem is one matched artwork from the upstream search service.
// All fields are upstream-supplied and treated as opaque by callers.
type ResultItem struct {
	ID         int64
	Title      string
	Tags       []string
	SourceURL  string
	PreviewURL string
}

// Page is one bounded slice of search results. Offset is the zero-based
// index of the first item; Total is the count last reported by the upstream
// and may be an estimate.
type Page struct {
	Items  []ResultItem
	Offset int
	Total  int
}

// WorkImage is a single rendered image of a work.
type WorkImage struct {
	URL    string
	Prompt string
}

// WorkDetail is the full record for one artwork.
type WorkDetail struct {
	ID             int64
	Title          string
	Author         string
	SourceURL      string
	Images         []WorkImage
	Prompt         string
	NegativePrompt string
	Seed           string
	Sampler        string
}

// flexInt tolerates numbers that arrive as JSON numbers, floats, or quoted
// strings. The upstream is not consistent about id and count types.
type flexInt int64

func (f *flexInt) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*f = 0
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*f = 0
			return nil
		}
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return err
		}
		*f = flexInt(n)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	i, err := n.Int64()
	if err != nil {
		fl, ferr := n.Float64()
		if ferr != nil {
			return err
		}
		i = int64(fl)
	}
	*f = flexInt(i)
	return nil
}

// flexTags tolerates tag lists that arrive as a JSON array of strings or as
// one comma-joined string.
type flexTags []string

func (t *flexTags) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*t = nil
		return nil
	}
	if b[0] == '[' {
		var raw []string
		if err := json.Unmarshal(b, &raw); err != nil {
			return err
		}
		*t = cleanTags(raw)
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	*t = cleanTags(strings.Split(s, ","))
	return nil
}

func cleanTags(raw []string) []string {
	out := make([]string, 0, len(raw))
	for _, tag := range raw {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		out = append(out, tag)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// workItem mirrors one element of the upstream search response. Ids appear
// under id, work_id, or pid depending on the endpoint revision.
type workItem struct {
	ID      *flexInt `json:"id"`
	WorkID  *flexInt `json:"work_id"`
	PID     *flexInt `json:"pid"`
	Title   string   `json:"title"`
	Name    string   `json:"name"`
	Tags    flexTags `json:"tags"`
	Cover   string   `json:"cover_url"`
	ImgPath string   `json:"image_path"`
}

func (w workItem) id() int64 {
	for _, cand := range []*flexInt{w.ID, w.WorkID, w.PID} {
		if cand != nil && *cand != 0 {
			return int64(*cand)
		}
	}
	return 0
}

func (w workItem) title() string {
	if t := strings.TrimSpace(w.Title); t != "" {
		return t
	}
	return strings.TrimSpace(w.Name)
}

type searchResponse struct {
	Total      *flexInt   `json:"total"`
	TotalCount *flexInt   `json:"total_count"`
	Count      *flexInt   `json:"count"`
	Data       []workItem `json:"data"`
	Works      []workItem `json:"works"`
}

func (r searchResponse) items() []workItem {
	if r.Data != nil {
		return r.Data
	}
	return r.Works
}

func (r searchResponse) total(fallback int) int {
	for _, cand := range []*flexInt{r.Total, r.TotalCount, r.Count} {
		if cand != nil {
			return int(*cand)
		}
	}
	return fallback
}

// workDetailData mirrors the work object of the detail response; the
// response may nest it under "work" or be the work itself.
type workDetailData struct {
	ID         *flexInt `json:"id"`
	Title      string   `json:"title"`
	AuthorName string   `json:"author_name"`
	AIJSON     string   `json:"ai_json"`
}

type workImageData struct {
	ImagePath  string `json:"image_path"`
	PromptText string `json:"prompt_text"`
}

type detailResponse struct {
	Work   *workDetailData `json:"work"`
	Images []workImageData `json:"images"`
}

// aiMeta is the generation metadata embedded as a JSON string in ai_json.
// Comment may itself be a JSON-encoded string (NovelAI style).
type aiMeta struct {
	Comment json.RawMessage `json:"Comment"`
	Seed    *flexInt        `json:"Seed"`
	Sampler string          `json:"Sampler"`
}

type aiComment struct {
	Prompt  string   `json:"prompt"`
	UC      string   `json:"uc"`
	Seed    *flexInt `json:"seed"`
	Sampler string   `json:"sampler"`
}

func parseAIMeta(raw string) (prompt, negative, seed, sampler string) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", "", "", ""
	}
	var meta aiMeta
	if err := json.Unmarshal([]byte(raw), &meta); err != nil {
		return "", "", "", ""
	}
	var comment aiComment
	if len(meta.Comment) > 0 {
		blob := bytes.TrimSpace(meta.Comment)
		if len(blob) > 0 && blob[0] == '"' {
			var inner string
			if err := json.Unmarshal(blob, &inner); err == nil {
				blob = []byte(inner)
			}
		}
		_ = json.Unmarshal(blob, &comment)
	}
	prompt = strings.TrimSpace(comment.Prompt)
	negative = strings.TrimSpace(comment.UC)
	if meta.Seed != nil && *meta.Seed != 0 {
		seed = strconv.FormatInt(int64(*meta.Seed), 10)
	} else if comment.Seed != nil && *comment.Seed != 0 {
		seed = strconv.FormatInt(int64(*comment.Seed), 10)
	}
	sampler = strings.TrimSpace(meta.Sampler)
	if sampler == "" {
		sampler = strings.TrimSpace(comment.Sampler)
	}
	return prompt, negative, seed, sampler
}
