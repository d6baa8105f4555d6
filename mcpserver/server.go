package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// PromiseMCPServer exposes the promise store as MCP tools. It runs as a
// separate process and reads through the keeper's localhost HTTP API, so it
// never touches the store file directly.
type PromiseMCPServer struct {
	server  *mcp.Server
	apiURL  string
	httpCli *http.Client
}

// NewServer creates a new promise MCP server against the given API base URL.
func NewServer(apiURL string) *PromiseMCPServer {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "promise-keeper-tools",
		Version: "v1.0.0",
	}, nil)

	s := &PromiseMCPServer{
		server:  server,
		apiURL:  strings.TrimRight(apiURL, "/"),
		httpCli: &http.Client{Timeout: 10 * time.Second},
	}

	s.registerTools()
	return s
}

func (s *PromiseMCPServer) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "promise_leaderboard",
		Description: "Get the promise-count leaderboard: who has made the most tracked promises. Returns ranked names with counts.",
	}, s.handleLeaderboard)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "promise_list",
		Description: "List the tracked promises of one user by user id, with status (pending, done, logged) and deadlines.",
	}, s.handlePromiseList)
}

// LeaderboardInput is the input for the promise_leaderboard tool
type LeaderboardInput struct {
	Limit int `json:"limit,omitempty" jsonschema:"description=Maximum number of rows to return (default 10)"`
}

// LeaderboardOutput is the output for the promise_leaderboard tool
type LeaderboardOutput struct {
	Entries json.RawMessage `json:"entries"`
}

func (s *PromiseMCPServer) handleLeaderboard(ctx context.Context, req *mcp.CallToolRequest, input LeaderboardInput) (*mcp.CallToolResult, LeaderboardOutput, error) {
	endpoint := s.apiURL + "/api/leaderboard"
	if input.Limit > 0 {
		endpoint += "?limit=" + strconv.Itoa(input.Limit)
	}

	var parsed struct {
		Entries json.RawMessage `json:"entries"`
	}
	if err := s.getJSON(ctx, endpoint, &parsed); err != nil {
		return nil, LeaderboardOutput{}, err
	}
	return nil, LeaderboardOutput{Entries: parsed.Entries}, nil
}

// PromiseListInput is the input for the promise_list tool
type PromiseListInput struct {
	UserID string `json:"user_id" jsonschema:"description=The user id whose promises to list"`
}

// PromiseListOutput is the output for the promise_list tool
type PromiseListOutput struct {
	Name     string          `json:"name"`
	Promises json.RawMessage `json:"promises"`
}

func (s *PromiseMCPServer) handlePromiseList(ctx context.Context, req *mcp.CallToolRequest, input PromiseListInput) (*mcp.CallToolResult, PromiseListOutput, error) {
	if input.UserID == "" {
		return nil, PromiseListOutput{}, fmt.Errorf("user_id is required")
	}

	endpoint := s.apiURL + "/api/promises?user_id=" + url.QueryEscape(input.UserID)

	var parsed struct {
		Name     string          `json:"name"`
		Promises json.RawMessage `json:"promises"`
	}
	if err := s.getJSON(ctx, endpoint, &parsed); err != nil {
		return nil, PromiseListOutput{}, err
	}
	return nil, PromiseListOutput{Name: parsed.Name, Promises: parsed.Promises}, nil
}

func (s *PromiseMCPServer) getJSON(ctx context.Context, endpoint string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	resp, err := s.httpCli.Do(req)
	if err != nil {
		return fmt.Errorf("keeper API call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("keeper API status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode keeper API response: %w", err)
	}
	return nil
}

// Run starts the MCP server with stdio transport
func (s *PromiseMCPServer) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}
