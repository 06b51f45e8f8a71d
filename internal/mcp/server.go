// Package mcp exposes the bounty engine as MCP tools over stdio, so agents
// can post, browse, and settle bounties. The acting principal is fixed at
// server construction; an MCP session acts as exactly one principal.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/peejay-git/stallions/internal/engine"
	"github.com/peejay-git/stallions/internal/models"
)

// Server wraps the bounty engine and exposes it as MCP tools.
type Server struct {
	engine    *engine.Engine
	principal models.Principal
}

// NewServer creates the MCP server wrapper acting as the given principal.
func NewServer(e *engine.Engine, principal models.Principal) *Server {
	return &Server{engine: e, principal: principal}
}

// MCPServer returns a configured mcp-go server with all tools registered.
func (s *Server) MCPServer() *server.MCPServer {
	srv := server.NewMCPServer("stallions", "1.0.0", server.WithToolCapabilities(true))

	srv.AddTool(s.listBountiesTool())
	srv.AddTool(s.getBountyTool())
	srv.AddTool(s.createBountyTool())
	srv.AddTool(s.cancelBountyTool())
	srv.AddTool(s.submitWorkTool())
	srv.AddTool(s.listSubmissionsTool())
	srv.AddTool(s.acceptSubmissionTool())
	srv.AddTool(s.rejectSubmissionTool())

	return srv
}

// ServeStdio starts the stdio transport, blocking until ctx is cancelled.
func (s *Server) ServeStdio(ctx context.Context) error {
	srv := s.MCPServer()
	stdioServer := server.NewStdioServer(srv)
	return stdioServer.Listen(ctx, os.Stdin, os.Stdout)
}

// ---------------------------------------------------------------------------
// Tool definitions and handlers
// ---------------------------------------------------------------------------

type bountyOut struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Category     string   `json:"category"`
	RewardAmount int64    `json:"reward_amount"`
	RewardAsset  string   `json:"reward_asset"`
	Owner        string   `json:"owner"`
	Deadline     string   `json:"deadline"`
	Status       string   `json:"status"`
	Skills       []string `json:"skills"`
	Created      string   `json:"created"`
	Updated      string   `json:"updated"`
}

func bountyToOut(b *models.Bounty) bountyOut {
	return bountyOut{
		ID:           b.ID,
		Title:        b.Title,
		Description:  b.Description,
		Category:     b.Category,
		RewardAmount: b.RewardAmount,
		RewardAsset:  b.RewardAsset,
		Owner:        string(b.Owner),
		Deadline:     b.Deadline.Format(time.RFC3339),
		Status:       string(b.Status),
		Skills:       b.Skills,
		Created:      b.Created.Format(time.RFC3339),
		Updated:      b.Updated.Format(time.RFC3339),
	}
}

type submissionOut struct {
	ID        string `json:"id"`
	BountyID  string `json:"bounty_id"`
	Applicant string `json:"applicant"`
	Content   string `json:"content"`
	Status    string `json:"status"`
	Created   string `json:"created"`
}

func submissionToOut(sub *models.Submission) submissionOut {
	return submissionOut{
		ID:        sub.ID,
		BountyID:  sub.BountyID,
		Applicant: string(sub.Applicant),
		Content:   sub.Content,
		Status:    string(sub.Status),
		Created:   sub.Created.Format(time.RFC3339),
	}
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// stallions_list_bounties
func (s *Server) listBountiesTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("stallions_list_bounties",
		mcp.WithDescription("List all bounties in creation order. Returns a JSON array with id, title, reward_amount, reward_asset, owner, deadline, status (open/in_progress/review/completed/cancelled), category, and skills."),
		mcp.WithString("status", mcp.Description("Filter by status: open, in_progress, review, completed, cancelled")),
	)
	return tool, s.handleListBounties
}

func (s *Server) handleListBounties(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	bounties, err := s.engine.ListBounties(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list bounties: %v", err)), nil
	}

	status := request.GetString("status", "")
	out := make([]bountyOut, 0, len(bounties))
	for _, b := range bounties {
		if status != "" && string(b.Status) != status {
			continue
		}
		out = append(out, bountyToOut(b))
	}
	return jsonResult(out)
}

// stallions_get_bounty
func (s *Server) getBountyTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("stallions_get_bounty",
		mcp.WithDescription("Get a bounty by ID. Returns the bounty as JSON."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Bounty ID")),
	)
	return tool, s.handleGetBounty
}

func (s *Server) handleGetBounty(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: id"), nil
	}

	b, err := s.engine.GetBounty(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to get bounty: %v", err)), nil
	}
	return jsonResult(bountyToOut(b))
}

// stallions_create_bounty
func (s *Server) createBountyTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("stallions_create_bounty",
		mcp.WithDescription("Post a new bounty owned by the acting principal. Returns the created bounty as JSON."),
		mcp.WithString("title", mcp.Required(), mcp.Description("Bounty title")),
		mcp.WithString("description", mcp.Description("Bounty description")),
		mcp.WithString("category", mcp.Description("Bounty category")),
		mcp.WithNumber("reward_amount", mcp.Required(), mcp.Description("Reward amount in the smallest unit of the asset; must be positive")),
		mcp.WithString("reward_asset", mcp.Required(), mcp.Description("Asset/token reference used for payment")),
		mcp.WithString("deadline", mcp.Required(), mcp.Description("Submission deadline, RFC3339 (e.g. 2026-09-30T00:00:00Z); must be in the future")),
		mcp.WithString("skills", mcp.Description("Comma-separated required skills")),
	)
	return tool, s.handleCreateBounty
}

func (s *Server) handleCreateBounty(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title, err := request.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: title"), nil
	}
	asset, err := request.RequireString("reward_asset")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: reward_asset"), nil
	}
	deadlineStr, err := request.RequireString("deadline")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: deadline"), nil
	}
	deadline, err := time.Parse(time.RFC3339, deadlineStr)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid deadline: %v", err)), nil
	}

	var skills []string
	if raw := request.GetString("skills", ""); raw != "" {
		for _, sk := range strings.Split(raw, ",") {
			if sk = strings.TrimSpace(sk); sk != "" {
				skills = append(skills, sk)
			}
		}
	}

	b, err := s.engine.CreateBounty(ctx, s.principal, engine.CreateBountyParams{
		Title:        title,
		Description:  request.GetString("description", ""),
		Category:     request.GetString("category", ""),
		RewardAmount: int64(request.GetFloat("reward_amount", 0)),
		RewardAsset:  asset,
		Deadline:     deadline,
		Skills:       skills,
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to create bounty: %v", err)), nil
	}
	return jsonResult(bountyToOut(b))
}

// stallions_cancel_bounty
func (s *Server) cancelBountyTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("stallions_cancel_bounty",
		mcp.WithDescription("Cancel a bounty owned by the acting principal. Fails on completed bounties."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Bounty ID")),
	)
	return tool, s.handleCancelBounty
}

func (s *Server) handleCancelBounty(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: id"), nil
	}

	b, err := s.engine.CancelBounty(ctx, s.principal, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to cancel bounty: %v", err)), nil
	}
	return jsonResult(bountyToOut(b))
}

// stallions_submit_work
func (s *Server) submitWorkTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("stallions_submit_work",
		mcp.WithDescription("Submit work against a bounty as the acting principal. The bounty must be open or in progress and before its deadline. Returns the created submission as JSON."),
		mcp.WithString("bounty_id", mcp.Required(), mcp.Description("Bounty ID")),
		mcp.WithString("content", mcp.Description("Work content or a pointer to the artifact")),
	)
	return tool, s.handleSubmitWork
}

func (s *Server) handleSubmitWork(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	bountyID, err := request.RequireString("bounty_id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: bounty_id"), nil
	}

	sub, err := s.engine.SubmitWork(ctx, s.principal, bountyID, request.GetString("content", ""))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to submit work: %v", err)), nil
	}
	return jsonResult(submissionToOut(sub))
}

// stallions_list_submissions
func (s *Server) listSubmissionsTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("stallions_list_submissions",
		mcp.WithDescription("List all submissions for a bounty in creation order. Returns a JSON array with id, applicant, content, and status (pending/accepted/rejected)."),
		mcp.WithString("bounty_id", mcp.Required(), mcp.Description("Bounty ID")),
	)
	return tool, s.handleListSubmissions
}

func (s *Server) handleListSubmissions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	bountyID, err := request.RequireString("bounty_id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: bounty_id"), nil
	}

	subs, err := s.engine.ListSubmissions(ctx, bountyID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list submissions: %v", err)), nil
	}

	out := make([]submissionOut, len(subs))
	for i, sub := range subs {
		out[i] = submissionToOut(sub)
	}
	return jsonResult(out)
}

// stallions_accept_submission
func (s *Server) acceptSubmissionTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("stallions_accept_submission",
		mcp.WithDescription("Accept a submission on a bounty owned by the acting principal. Completes the bounty and pays the reward to the applicant."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Submission ID")),
	)
	return tool, s.handleAcceptSubmission
}

func (s *Server) handleAcceptSubmission(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: id"), nil
	}

	sub, err := s.engine.AcceptSubmission(ctx, s.principal, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to accept submission: %v", err)), nil
	}
	return jsonResult(submissionToOut(sub))
}

// stallions_reject_submission
func (s *Server) rejectSubmissionTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("stallions_reject_submission",
		mcp.WithDescription("Reject a pending submission on a bounty owned by the acting principal. The bounty keeps accepting submissions until its deadline."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Submission ID")),
	)
	return tool, s.handleRejectSubmission
}

func (s *Server) handleRejectSubmission(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: id"), nil
	}

	sub, err := s.engine.RejectSubmission(ctx, s.principal, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to reject submission: %v", err)), nil
	}
	return jsonResult(submissionToOut(sub))
}
