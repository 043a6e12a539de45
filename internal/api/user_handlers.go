package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/rutapp/rut-server/internal/service"
)

func (s *Server) registerUserRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "updateProfile",
		Method:      http.MethodPatch,
		Path:        "/api/v1/users/me",
		Summary:     "Update profile",
		Description: "Updates the caller's email, avatar or intro",
		Tags:        []string{"Users"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUpdateProfile)

	huma.Register(s.api, huma.Operation{
		OperationID: "getUser",
		Method:      http.MethodGet,
		Path:        "/api/v1/users/{id}",
		Summary:     "Get user",
		Description: "Returns a user's public profile",
		Tags:        []string{"Users"},
	}, s.handleGetUser)
}

// UpdateProfileInput wraps the profile patch for Huma.
type UpdateProfileInput struct {
	Body service.ProfileUpdate
}

// GetUserInput names the user to fetch.
type GetUserInput struct {
	ID string `path:"id" doc:"User ID"`
}

func (s *Server) handleUpdateProfile(ctx context.Context, input *UpdateProfileInput) (*UserOutput, error) {
	p, err := RequirePrincipal(ctx)
	if err != nil {
		return nil, err
	}

	user, err := s.services.Users.UpdateProfile(ctx, p, input.Body)
	if err != nil {
		return nil, err
	}
	return &UserOutput{Body: user}, nil
}

func (s *Server) handleGetUser(ctx context.Context, input *GetUserInput) (*UserOutput, error) {
	user, err := s.services.Users.GetUser(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	// Email is private to its owner.
	if p, ok := principalFrom(ctx); !ok || p.UserID != user.ID {
		user.Email = ""
	}
	return &UserOutput{Body: user}, nil
}
