package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/tomislavmiksik/phoenix-be/internal/model"
)

const profileURI = "phoenix://profile"

// registerResources adds MCP resource definitions to the server. Resources
// provide read-only data that LLM clients can load into their context.
func (s *MCPServer) registerResources(srv *server.MCPServer) {
	srv.AddResource(
		mcp.NewResource(
			profileURI,
			"User Profile",
			mcp.WithResourceDescription(
				"Public profile of the user whose measurements the tools operate on.",
			),
			mcp.WithMIMEType("application/json"),
		),
		s.handleProfileResource,
	)
}

// profile is the public view of a user. Credentials and the enabled flag
// are left out.
type profile struct {
	ID        int64      `json:"id"`
	Username  string     `json:"username"`
	Email     string     `json:"email"`
	FirstName string     `json:"firstName,omitempty"`
	LastName  string     `json:"lastName,omitempty"`
	Role      model.Role `json:"role"`
	CreatedAt time.Time  `json:"createdAt"`
}

// handleProfileResource returns the acting user's profile.
func (s *MCPServer) handleProfileResource(
	ctx context.Context,
	request mcp.ReadResourceRequest,
) ([]mcp.ResourceContents, error) {

	u, err := s.users.FindUserByUsername(ctx, s.username)
	if err != nil {
		return nil, fmt.Errorf("failed to load profile for %q: %w", s.username, err)
	}

	b, err := json.MarshalIndent(profile{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
	}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal profile: %w", err)
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      profileURI,
			MIMEType: "application/json",
			Text:     string(b),
		},
	}, nil
}
