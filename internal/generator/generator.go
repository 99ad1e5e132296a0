// Package generator defines the optional remote answer generator and the
// helpers shared by its adapters.
package generator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"asknehru/internal/domain"
	"asknehru/internal/resilience"
)

// ErrUnavailable is returned when no generator is configured or the remote
// service cannot currently be used.
var ErrUnavailable = errors.New("answer generator unavailable")

// StatusError carries a non-2xx HTTP response from a generator backend.
type StatusError struct {
	Backend string
	Code    int
	Status  string
	// Wait is the server's Retry-After hint, zero when absent.
	Wait time.Duration
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: request failed: %s", e.Backend, e.Status)
}

// Transient reports whether the request may succeed if repeated.
func (e *StatusError) Transient() bool {
	return e.Code == 429 || e.Code >= 500
}

// RetryAfter lets the retry loop honour the server's Retry-After header.
func (e *StatusError) RetryAfter() time.Duration { return e.Wait }

// IsTransient is the retry classifier used by Guarded.
func IsTransient(err error) bool {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Transient()
	}
	return false
}

// None is the generator used when nothing is configured.
type None struct{}

func (None) Name() string { return "none" }

func (None) Generate(context.Context, string, []string) (string, error) {
	return "", ErrUnavailable
}

// Guarded wraps a generator with rate limiting, retries and a circuit breaker.
type Guarded struct {
	inner domain.Generator
	guard *resilience.Guard
}

func NewGuarded(inner domain.Generator, cfg resilience.Config) *Guarded {
	return &Guarded{
		inner: inner,
		guard: resilience.NewGuard("generate:"+inner.Name(), cfg, IsTransient),
	}
}

func (g *Guarded) Name() string { return g.inner.Name() }

func (g *Guarded) Generate(ctx context.Context, query string, passages []string) (string, error) {
	out, err := g.guard.Do(ctx, func(ctx context.Context) (string, error) {
		return g.inner.Generate(ctx, query, passages)
	})
	if resilience.IsCircuitOpen(err) {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return out, err
}

// BuildPrompt renders the persona prompt sent to every backend.
func BuildPrompt(query string, passages []string) string {
	var b strings.Builder
	b.WriteString("You are an AI assistant embodying the intellect, eloquence, and visionary spirit of Jawaharlal Nehru. ")
	b.WriteString("Answer questions based *strictly* on the provided text from \"The Discovery of India\".\n\n")
	b.WriteString("Context from the book:\n")
	b.WriteString(strings.Join(passages, "\n\n---\n\n"))
	b.WriteString("\n\nUser Question: ")
	b.WriteString(query)
	b.WriteString("\n\nInstructions:\n")
	b.WriteString("1. **Source-Based**: Answer using ONLY the provided context. Do not hallucinate outside information.\n")
	b.WriteString("2. **Persona**: distinctively Nehruvian: thoughtful, historical, slightly poetic, and deeply analytical. " +
		"Use distinct vocabulary (e.g., \"synthesis\", \"temper\", \"spirit\", \"unity\").\n")
	b.WriteString("3. **Tone**: Articulate, calm, and educational. Avoid robotic or purely functional language.\n")
	b.WriteString("4. **Unknowns**: If the answer is not in the context, politely state that the current selection doesn't cover that topic, " +
		"in a way Nehru might admit a gap in immediate reference (e.g., \"I do not find a reference to this in the immediate texts before me...\").\n")
	b.WriteString("5. **Conciseness**: Be comprehensive but not rambling. Focus on the core philosophical or historical point.")
	return b.String()
}
