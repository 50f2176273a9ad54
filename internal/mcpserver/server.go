// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes Lacuna tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/lacuna/internal/exercise"
	"github.com/starford/lacuna/internal/index"
	"github.com/starford/lacuna/internal/storage"
)

// Server wraps the MCP server with Lacuna tools.
type Server struct {
	mcp   *server.MCPServer
	store storage.Provider
	db    *index.DB
	svc   *exercise.Service
}

// New creates a new MCP server with all Lacuna tools registered.
func New(store storage.Provider, db *index.DB, svc *exercise.Service) *Server {
	s := &Server{store: store, db: db, svc: svc}

	s.mcp = server.NewMCPServer(
		"Lacuna",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("search_exercises",
		mcp.WithDescription("Full-text search through exercise content and titles."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchExercises)

	s.mcp.AddTool(mcp.NewTool("read_exercise",
		mcp.WithDescription("Read the raw Markdown source of an exercise, including answers."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path to the exercise (e.g. geo/capitals.md)")),
	), s.readExercise)

	s.mcp.AddTool(mcp.NewTool("create_exercise",
		mcp.WithDescription("Create a new exercise at the specified path. "+
			"Content MUST follow the canonical exercise format (optional YAML frontmatter, "+
			"Markdown body with [answer] blanks). Read the contract first via "+
			"the get_exercise_contract tool or the lacuna://exercise-format resource."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path for the new exercise (must end with .md)")),
		mcp.WithString("content", mcp.Required(), mcp.Description("Markdown content following the Lacuna exercise format contract")),
	), s.createExercise)

	s.mcp.AddTool(mcp.NewTool("get_exercise_contract",
		mcp.WithDescription("Returns the canonical Lacuna exercise format contract. "+
			"Call this before creating or updating exercises to ensure correct structure."),
	), s.getExerciseContract)

	s.mcp.AddTool(mcp.NewTool("list_exercises",
		mcp.WithDescription("List all exercises or exercises in a specific folder."),
		mcp.WithString("folder", mcp.Description("Optional folder to list (empty for all)")),
	), s.listExercises)

	s.mcp.AddTool(mcp.NewTool("render_exercise",
		mcp.WithDescription("Render an exercise as its interactive content tree with blanks "+
			"substituted. Answers are not included."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path of the exercise to render")),
	), s.renderExercise)

	s.mcp.AddTool(mcp.NewTool("check_answers",
		mcp.WithDescription("Grade a full answer set against an exercise. Returns per-blank "+
			"correctness and whether every blank is right."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path of the exercise to grade")),
		mcp.WithString("answers", mcp.Required(), mcp.Description("JSON array of answer strings in blank order, e.g. [\"Paris\",\"Rome\"]")),
	), s.checkAnswers)

	s.mcp.AddTool(mcp.NewTool("upload_asset",
		mcp.WithDescription("Download an image or PDF from a URL (or decode a data: URI) and "+
			"store it in the shared assets directory for use in exercise bodies."),
		mcp.WithString("url", mcp.Required(), mcp.Description("HTTP(S) URL or base64 data: URI of the asset")),
		mcp.WithString("filename", mcp.Description("Optional filename; derived from the URL when empty")),
	), s.uploadAsset)

	// Resource: exercise format contract.
	s.mcp.AddResource(
		mcp.NewResource("lacuna://exercise-format", "Exercise Format Contract",
			mcp.WithResourceDescription("Canonical exercise format that all exercises must follow."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readExerciseFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) searchExercises(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.db.Search(query, 20)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(results, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) readExercise(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	data, err := s.store.Read(path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", path)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) createExercise(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	// Check existence.
	if _, readErr := s.store.Read(path); readErr == nil {
		return mcp.NewToolResultError(fmt.Sprintf("exercise already exists: %s", path)), nil
	}

	data := []byte(content)
	if err := s.store.Write(path, data); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.svc.IndexFile(path, data); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("created: %s", path)), nil
}

func (s *Server) listExercises(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	folder := ""
	if f, err := req.RequireString("folder"); err == nil {
		folder = f
	}

	metas, err := s.store.List(folder)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var paths []string
	for _, m := range metas {
		paths = append(paths, m.Path)
	}
	return mcp.NewToolResultText(strings.Join(paths, "\n")), nil
}

func (s *Server) renderExercise(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, err := s.svc.Render(ctx, path, "")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("render failed: %v", err)), nil
	}
	out, _ := json.MarshalIndent(res, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) checkAnswers(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	raw, err := req.RequireString("answers")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var values []string
	if err := json.Unmarshal([]byte(raw), &values); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("answers must be a JSON array of strings: %v", err)), nil
	}

	checks, all, err := s.svc.CheckAnswers(ctx, path, values)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(map[string]any{
		"checks":      checks,
		"all_correct": all,
	}, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getExerciseContract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(ExerciseFormatContract), nil
}

func (s *Server) readExerciseFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "lacuna://exercise-format",
			MIMEType: "text/markdown",
			Text:     ExerciseFormatContract,
		},
	}, nil
}
