package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/m3rciful/aitagbot/core/logger"
	"github.com/m3rciful/aitagbot/core/netutil"
)

const (
	// maxAttempts allows exactly one transparent retry for transient
	// transport failures. HTTP status errors are never retried.
	maxAttempts = 2

	defaultTimeout = 30 * time.Second
	defaultBackoff = 400 * time.Millisecond

	maxBodyBytes = 4 << 20
)

// Client talks to the image-tag search service.
type Client struct {
	baseURL string
	http    *http.Client
	backoff time.Duration
}

// Options configures a Client. BaseURL is required.
type Options struct {
	BaseURL      string
	Timeout      time.Duration
	RetryBackoff time.Duration
	ProxyURL     string
}

// New builds a Client with a tuned transport and an explicit retry policy.
func New(opts Options) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("search: base url is required")
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	backoff := opts.RetryBackoff
	if backoff <= 0 {
		backoff = defaultBackoff
	}

	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: 5 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       30 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ResponseHeaderTimeout: timeout,
		ExpectContinueTimeout: 1 * time.Second,
	}
	if proxy := strings.TrimSpace(opts.ProxyURL); proxy != "" {
		proxyURL, err := url.Parse(proxy)
		if err != nil {
			return nil, fmt.Errorf("search: invalid proxy url: %w", err)
		}
		transport.Proxy = http.ProxyURL(proxyURL)
	}

	return &Client{
		baseURL: base,
		http: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
		backoff: backoff,
	}, nil
}

// Search fetches one page of results for keyword starting at offset. A page
// with zero items is a valid result; the caller decides how to present it.
func (c *Client) Search(ctx context.Context, keyword string, offset, limit int) (Page, error) {
	if limit <= 0 {
		limit = 1
	}
	if offset < 0 {
		offset = 0
	}

	params := url.Values{}
	params.Set("q", keyword)
	params.Set("page", strconv.Itoa(offset/limit+1))
	params.Set("page_size", strconv.Itoa(limit))
	params.Set("sort", "new")
	params.Set("time_range", "all")

	body, err := c.getJSON(ctx, c.baseURL+"/api/ai_works_search?"+params.Encode())
	if err != nil {
		return Page{}, err
	}

	items, total, known, err := decodeSearchBody(body, offset)
	if err != nil {
		return Page{}, err
	}
	if !known {
		logger.Event(ctx, "search", slog.LevelWarn, "upstream.shape_unknown",
			slog.String("keyword", logger.SanitizeLimit(keyword, 64)),
		)
	}
	if len(items) > limit {
		items = items[:limit]
	}

	page := Page{
		Items:  make([]ResultItem, 0, len(items)),
		Offset: offset,
		Total:  total,
	}
	for _, w := range items {
		page.Items = append(page.Items, ResultItem{
			ID:         w.id(),
			Title:      w.title(),
			Tags:       []string(w.Tags),
			SourceURL:  c.WorkURL(w.id()),
			PreviewURL: c.resolveURL(firstNonEmpty(w.Cover, w.ImgPath)),
		})
	}
	return page, nil
}

// Detail fetches the full record of one work.
func (c *Client) Detail(ctx context.Context, workID int64) (WorkDetail, error) {
	params := url.Values{}
	params.Set("id", strconv.FormatInt(workID, 10))

	body, err := c.getJSON(ctx, c.baseURL+"/api/work_detail?"+params.Encode())
	if err != nil {
		return WorkDetail{}, err
	}

	var resp detailResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return WorkDetail{}, fmt.Errorf("%w: decode detail: %v", ErrMalformed, err)
	}
	work := resp.Work
	if work == nil {
		var flat workDetailData
		if err := json.Unmarshal(body, &flat); err != nil {
			return WorkDetail{}, fmt.Errorf("%w: decode detail: %v", ErrMalformed, err)
		}
		work = &flat
	}
	if work.Title == "" && work.ID == nil && len(resp.Images) == 0 {
		return WorkDetail{}, fmt.Errorf("%w: detail is empty", ErrMalformed)
	}

	detail := WorkDetail{
		ID:     workID,
		Title:  strings.TrimSpace(work.Title),
		Author: strings.TrimSpace(work.AuthorName),
	}
	if work.ID != nil && *work.ID != 0 {
		detail.ID = int64(*work.ID)
	}
	for _, img := range resp.Images {
		detail.Images = append(detail.Images, WorkImage{
			URL:    c.resolveURL(img.ImagePath),
			Prompt: strings.TrimSpace(img.PromptText),
		})
	}
	if len(detail.Images) > 0 {
		detail.Prompt = detail.Images[0].Prompt
	}

	prompt, negative, seed, sampler := parseAIMeta(work.AIJSON)
	if detail.Prompt == "" {
		detail.Prompt = prompt
	}
	detail.NegativePrompt = negative
	detail.Seed = seed
	detail.Sampler = sampler
	detail.SourceURL = c.WorkURL(detail.ID)
	return detail, nil
}

// WorkURL returns the public page of a work, or "" when the id is unknown.
func (c *Client) WorkURL(workID int64) string {
	if workID == 0 {
		return ""
	}
	return fmt.Sprintf("%s/i/%d", c.baseURL, workID)
}

func (c *Client) resolveURL(path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return ""
	}
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.baseURL + path
}

// getJSON performs the GET with the client retry policy: transient transport
// errors get one backoff-delayed retry, everything else surfaces immediately.
func (c *Client) getJSON(ctx context.Context, rawURL string) ([]byte, error) {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			timer := time.NewTimer(c.backoff * time.Duration(attempt-1))
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil, fmt.Errorf("%w: %v", ErrUnavailable, ctx.Err())
			case <-timer.C:
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, fmt.Errorf("search: build request: %w", err)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			lastErr = err
			if netutil.ShouldRetry(err) && attempt < maxAttempts && ctx.Err() == nil {
				logger.Event(ctx, "search", slog.LevelWarn, "upstream.retry",
					slog.String("status", "retry"),
					slog.Int("attempts", attempt),
					slog.Duration("backoff", c.backoff*time.Duration(attempt)),
					slog.String("err", err.Error()),
				)
				continue
			}
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}

		body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
		closeErr := resp.Body.Close()
		if readErr != nil {
			lastErr = readErr
			if netutil.ShouldRetry(readErr) && attempt < maxAttempts && ctx.Err() == nil {
				continue
			}
			return nil, fmt.Errorf("%w: read body: %v", ErrUnavailable, readErr)
		}
		if closeErr != nil {
			lastErr = closeErr
		}
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
		}
		return body, nil
	}
	return nil, fmt.Errorf("%w: %v", ErrUnavailable, lastErr)
}

func decodeSearchBody(body []byte, offset int) ([]workItem, int, bool, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, 0, false, fmt.Errorf("%w: empty body", ErrMalformed)
	}
	if body[0] == '[' {
		var list []workItem
		if err := json.Unmarshal(body, &list); err != nil {
			return nil, 0, false, fmt.Errorf("%w: decode list: %v", ErrMalformed, err)
		}
		return list, offset + len(list), true, nil
	}
	var resp searchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, 0, false, fmt.Errorf("%w: decode object: %v", ErrMalformed, err)
	}
	items := resp.items()
	known := resp.Data != nil || resp.Works != nil ||
		resp.Total != nil || resp.TotalCount != nil || resp.Count != nil
	return items, resp.total(offset + len(items)), known, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
