package answer

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"webrag/internal/domain"
	"webrag/internal/generation"
)

const (
	// NoInformation is returned when retrieval finds nothing to answer from.
	NoInformation = "No relevant information found."
	// NoResponse is returned when the generation API answers with empty text.
	NoResponse = "No response generated."
)

// Retriever is the subset of the retrieval service the composer needs.
type Retriever interface {
	RetrieveDefault(ctx context.Context, query string) (domain.QueryResult, error)
}

// Config holds the fixed generation parameters.
type Config struct {
	Temperature     float32
	MaxOutputTokens int
	Timeout         time.Duration
}

// Response is a composed answer with the records it was built from.
type Response struct {
	Query   string
	Answer  string
	Sources domain.QueryResult
}

// Composer turns a query into an answer. It never returns an error: every
// failure is reported as the answer text.
type Composer struct {
	retriever Retriever
	generator generation.Generator
	cfg       Config
}

func NewComposer(retriever Retriever, generator generation.Generator, cfg Config) *Composer {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Composer{retriever: retriever, generator: generator, cfg: cfg}
}

// Compose returns the answer text for query.
func (c *Composer) Compose(ctx context.Context, query string) string {
	return c.Answer(ctx, query).Answer
}

// Answer retrieves context for query and asks the generator. When nothing is
// retrieved the generator is not called.
func (c *Composer) Answer(ctx context.Context, query string) Response {
	resp := Response{Query: query}
	sources, err := c.retriever.RetrieveDefault(ctx, query)
	if err != nil || len(sources) == 0 {
		resp.Answer = NoInformation
		return resp
	}
	resp.Sources = sources

	genCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()
	out, err := c.generator.Generate(genCtx, generation.Request{
		Prompt:          BuildPrompt(sources.Texts(), query),
		Temperature:     c.cfg.Temperature,
		MaxOutputTokens: c.cfg.MaxOutputTokens,
	})
	if err != nil {
		log.Printf("[compose] %s generation failed: %v", c.generator.Name(), err)
		resp.Answer = fmt.Sprintf("Error communicating with %s API: %v", c.generator.Name(), err)
		return resp
	}
	out = strings.TrimSpace(out)
	if out == "" {
		out = NoResponse
	}
	resp.Answer = out
	return resp
}

// BuildPrompt joins the context chunks one per line ahead of the question.
func BuildPrompt(chunks []string, query string) string {
	return fmt.Sprintf("Context:\n%s\n\nQuestion: %s\nAnswer:", strings.Join(chunks, "\n"), query)
}
