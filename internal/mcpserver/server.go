// Package mcpserver exposes the answer service to AI assistants over the
// Model Context Protocol.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"asknehru/internal/domain"
)

// Version is the MCP server version.
const Version = "0.1.0"

const (
	defaultLimit = 5
	overviewURI  = "asknehru://corpus"
)

// ErrMissingService is returned when no answer service is provided.
var ErrMissingService = errors.New("mcpserver: answer service is required")

// Service is the subset of the answer service the tools call.
type Service interface {
	Answer(ctx context.Context, query string) domain.Answer
	Search(query string) []domain.SearchResult
	Stats() domain.Stats
	Overview() string
}

type Server struct {
	svc    Service
	server *mcp.Server
}

func NewServer(svc Service) (*Server, error) {
	if svc == nil {
		return nil, ErrMissingService
	}
	s := &Server{
		svc:    svc,
		server: mcp.NewServer(&mcp.Implementation{Name: "asknehru", Version: Version}, nil),
	}
	s.registerTools()
	s.registerResources()
	return s, nil
}

// Run serves over stdio until ctx is cancelled or the client disconnects.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// AskInput is the input schema for ask_nehru.
type AskInput struct {
	Question string `json:"question" jsonschema:"a question about The Discovery of India"`
}

// AskOutput mirrors domain.Answer for MCP clients.
type AskOutput struct {
	Answer    string   `json:"answer"`
	Reference string   `json:"reference,omitempty"`
	Score     *float64 `json:"score,omitempty"`
	Source    string   `json:"source"`
	Excerpts  []string `json:"excerpts,omitempty"`
}

// SearchInput is the input schema for search_book.
type SearchInput struct {
	Query string `json:"query" jsonschema:"words or a phrase to look for in the book"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum number of passages to return (default 5)"`
}

type SearchOutput struct {
	Results []PassageOutput `json:"results"`
	Count   int             `json:"count"`
}

type PassageOutput struct {
	Text      string  `json:"text"`
	Reference string  `json:"reference,omitempty"`
	Score     float64 `json:"score"`
}

func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask_nehru",
		Description: "Answer a question in Nehru's voice from The Discovery of India",
	}, s.handleAsk)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search_book",
		Description: "Find ranked passages of The Discovery of India matching a query",
	}, s.handleSearch)
}

func (s *Server) handleAsk(ctx context.Context, _ *mcp.CallToolRequest, input AskInput) (*mcp.CallToolResult, AskOutput, error) {
	q := strings.TrimSpace(input.Question)
	if q == "" {
		return nil, AskOutput{}, errors.New("question is required")
	}
	ans := s.svc.Answer(ctx, q)
	out := AskOutput{
		Answer:    ans.Content,
		Reference: ans.Reference,
		Score:     ans.Score,
		Source:    string(ans.Source),
	}
	for _, r := range ans.RelatedResults {
		out.Excerpts = append(out.Excerpts, r.Response)
	}
	return nil, out, nil
}

func (s *Server) handleSearch(_ context.Context, _ *mcp.CallToolRequest, input SearchInput) (*mcp.CallToolResult, SearchOutput, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	results := s.svc.Search(input.Query)
	if len(results) > limit {
		results = results[:limit]
	}
	out := SearchOutput{Results: make([]PassageOutput, len(results)), Count: len(results)}
	for i, r := range results {
		out.Results[i] = PassageOutput{Text: r.Response, Reference: r.Reference, Score: r.Score}
	}
	return nil, out, nil
}

func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         overviewURI,
		Name:        "corpus",
		Description: "Statistics and an overview of the loaded book",
		MIMEType:    "application/json",
	}, s.handleCorpusResource)
}

func (s *Server) handleCorpusResource(_ context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	payload := struct {
		domain.Stats
		Overview string `json:"overview"`
	}{Stats: s.svc.Stats(), Overview: s.svc.Overview()}
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal corpus: %w", err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}
