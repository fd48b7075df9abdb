package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"webrag/internal/domain"
	"webrag/internal/vectorindex"
)

// Index is a minimal REST client to Qdrant implementing vectorindex.Index.
// Points are keyed by ordinal and the collection uses Euclid distance.
// The collection is dropped and recreated at construction: the index lives
// only as long as the process.
type Index struct {
	url        string
	apiKey     string
	collection string
	dimension  int
	client     *http.Client

	mu    sync.RWMutex
	count int
}

type Config struct {
	URL        string
	APIKey     string
	Collection string
	Timeout    time.Duration
}

// NewIndex connects to Qdrant and (re)creates an empty collection.
func NewIndex(ctx context.Context, cfg Config, dimension int) (*Index, error) {
	if dimension <= 0 {
		return nil, domain.ErrInvalidDimension
	}
	if cfg.URL == "" || cfg.Collection == "" {
		return nil, errors.New("qdrant: url and collection are required")
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	x := &Index{
		url:        strings.TrimRight(cfg.URL, "/"),
		apiKey:     cfg.APIKey,
		collection: cfg.Collection,
		dimension:  dimension,
		client:     &http.Client{Timeout: timeout},
	}
	if err := x.do(ctx, http.MethodDelete, x.collectionURL(), nil, nil, http.StatusNotFound); err != nil {
		return nil, fmt.Errorf("qdrant: drop collection: %w", err)
	}
	body := map[string]any{
		"vectors": map[string]any{
			"size":     dimension,
			"distance": "Euclid",
		},
	}
	if err := x.do(ctx, http.MethodPut, x.collectionURL(), body, nil); err != nil {
		return nil, fmt.Errorf("qdrant: create collection: %w", err)
	}
	return x, nil
}

func (x *Index) Dimension() int { return x.dimension }

func (x *Index) Count() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.count
}

// Insert upserts v under the next ordinal. Inserts are serialised so
// ordinals stay dense.
func (x *Index) Insert(ctx context.Context, v []float32) (int, error) {
	if err := vectorindex.CheckDimension(x.dimension, v); err != nil {
		return -1, err
	}
	x.mu.Lock()
	defer x.mu.Unlock()
	ordinal := x.count
	body := map[string]any{
		"points": []map[string]any{{
			"id":      ordinal,
			"vector":  v,
			"payload": map[string]any{"ordinal": ordinal},
		}},
	}
	if err := x.do(ctx, http.MethodPut, x.collectionURL()+"/points?wait=true", body, nil); err != nil {
		return -1, fmt.Errorf("qdrant: upsert point %d: %w", ordinal, err)
	}
	x.count++
	return ordinal, nil
}

// Search queries Qdrant and re-sorts the hits by (distance, ordinal) so ties
// resolve the same way as the in-memory index. Distances are squared.
func (x *Index) Search(ctx context.Context, query []float32, k int) ([]domain.Neighbor, error) {
	if k <= 0 {
		return nil, nil
	}
	if err := vectorindex.CheckDimension(x.dimension, query); err != nil {
		return nil, err
	}
	if x.Count() == 0 {
		return nil, nil
	}
	req := map[string]any{
		"vector":       query,
		"limit":        k,
		"with_payload": false,
	}
	var resp struct {
		Result []struct {
			ID    uint64  `json:"id"`
			Score float64 `json:"score"`
		} `json:"result"`
	}
	if err := x.do(ctx, http.MethodPost, x.collectionURL()+"/points/search", req, &resp); err != nil {
		return nil, fmt.Errorf("qdrant: search: %w", err)
	}
	hits := make([]domain.Neighbor, 0, len(resp.Result))
	for _, r := range resp.Result {
		hits = append(hits, domain.Neighbor{Ordinal: int(r.ID), Distance: r.Score * r.Score})
	}
	vectorindex.SortNeighbors(hits)
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

func (x *Index) collectionURL() string {
	return fmt.Sprintf("%s/collections/%s", x.url, x.collection)
}

// do sends body as JSON and decodes the response into out when non-nil.
// Statuses listed in tolerate are treated as success.
func (x *Index) do(ctx context.Context, method, url string, body, out any, tolerate ...int) error {
	var payload *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		payload = bytes.NewReader(data)
	} else {
		payload = bytes.NewReader(nil)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, payload)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if x.apiKey != "" {
		req.Header.Set("api-key", x.apiKey)
	}
	resp, err := x.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	for _, code := range tolerate {
		if resp.StatusCode == code {
			return nil
		}
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("%s %s failed: %s", method, url, resp.Status)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
