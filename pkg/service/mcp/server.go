package mcp

import (
	"context"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/m-mizutani/goerr/v2"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/vybelabs/numen/pkg/model"
	"github.com/vybelabs/numen/pkg/usecase/generate"
)

// Server exposes the generation pipeline as an MCP tool over stdio, so
// agent hosts can request guidance passages the same way the CLI does.
type Server struct {
	pipeline *generate.Pipeline
	server   *mcp.Server
}

type generateParams struct {
	NumberA int    `json:"number_a"`
	NumberB int    `json:"number_b"`
	Persona string `json:"persona"`
	Tag     string `json:"tag,omitempty"`
}

func New(pipeline *generate.Pipeline) *Server {
	s := &Server{
		pipeline: pipeline,
		server: mcp.NewServer(&mcp.Implementation{
			Name:    "numen",
			Version: "0.1.0",
		}, nil),
	}

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "generate_insight",
		Description: "Generate a persona-voiced guidance passage for a pair of numerology numbers. Always returns usable text.",
		InputSchema: generateSchema(),
	}, s.generate)

	return s
}

// Run serves MCP over stdio until the context is cancelled or the
// transport closes.
func (s *Server) Run(ctx context.Context) error {
	if err := s.server.Run(ctx, &mcp.StdioTransport{}); err != nil {
		return goerr.Wrap(err, "mcp server stopped")
	}
	return nil
}

func (s *Server) generate(ctx context.Context, req *mcp.CallToolRequest, params *generateParams) (*mcp.CallToolResult, any, error) {
	reqCtx := model.Context{
		NumberA:        params.NumberA,
		NumberB:        params.NumberB,
		Persona:        model.Persona(params.Persona),
		SituationalTag: params.Tag,
	}

	result, err := s.pipeline.Generate(ctx, reqCtx)
	if err != nil {
		return nil, nil, err
	}

	summary := fmt.Sprintf("%s\n\n(strategy=%s score=%.2f attempts=%d fallback=%t)",
		result.Text, result.StrategyUsed, result.FinalScore, result.AttemptsUsed, result.UsedFallback)

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: summary},
		},
	}, result, nil
}

func generateSchema() *jsonschema.Schema {
	personas := make([]any, 0, len(model.Personas()))
	for _, p := range model.Personas() {
		personas = append(personas, string(p))
	}

	numberSchema := func(usage string) *jsonschema.Schema {
		return &jsonschema.Schema{
			Type:        "integer",
			Description: usage,
			Minimum:     ptr(1.0),
			Maximum:     ptr(9.0),
		}
	}

	return &jsonschema.Schema{
		Type:     "object",
		Required: []string{"number_a", "number_b", "persona"},
		Properties: map[string]*jsonschema.Schema{
			"number_a": numberSchema("First numerology number"),
			"number_b": numberSchema("Second numerology number, may equal the first"),
			"persona": {
				Type:        "string",
				Description: "Voice persona for the passage",
				Enum:        personas,
			},
			"tag": {
				Type:        "string",
				Description: "Optional situational tag such as career, love, or health",
			},
		},
	}
}

func ptr(f float64) *float64 {
	return &f
}
