// Package scraper fetches web pages and extracts their readable text blocks.
package scraper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"webrag/internal/domain"
)

// Selector lists the elements whose text becomes chunks.
const Selector = "p, h1, h2, h3"

const (
	defaultTimeout   = 10 * time.Second
	defaultUserAgent = "webrag/1.0"
	defaultMaxBody   = 4 << 20
)

type Config struct {
	Timeout      time.Duration
	UserAgent    string
	MaxBodyBytes int64
}

type Scraper struct {
	client    *http.Client
	userAgent string
	maxBody   int64
}

func New(cfg Config) *Scraper {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = defaultMaxBody
	}
	return &Scraper{
		client:    &http.Client{Timeout: cfg.Timeout},
		userAgent: cfg.UserAgent,
		maxBody:   cfg.MaxBodyBytes,
	}
}

// Fetch downloads url and returns its text blocks as a Document.
func (s *Scraper) Fetch(ctx context.Context, url string) (domain.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return domain.Document{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", s.userAgent)
	resp, err := s.client.Do(req)
	if err != nil {
		return domain.Document{}, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return domain.Document{}, fmt.Errorf("fetch %s: %s", url, resp.Status)
	}
	chunks, err := Extract(io.LimitReader(resp.Body, s.maxBody))
	if err != nil {
		return domain.Document{}, fmt.Errorf("parse %s: %w", url, err)
	}
	return domain.Document{SourceID: url, Chunks: chunks}, nil
}

// Extract returns the whitespace-collapsed text of every paragraph and
// top-level heading in document order, skipping empty elements.
func Extract(r io.Reader) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, err
	}
	var out []string
	doc.Find(Selector).Each(func(_ int, sel *goquery.Selection) {
		if text := strings.Join(strings.Fields(sel.Text()), " "); text != "" {
			out = append(out, text)
		}
	})
	return out, nil
}
