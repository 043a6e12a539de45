package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/rutapp/rut-server/internal/domain"
	"github.com/rutapp/rut-server/internal/service"
)

func (s *Server) registerAuthRoutes() {
	limited := huma.Middlewares{rateLimited(s.api, s.authRateLimiter, s.logger)}

	huma.Register(s.api, huma.Operation{
		OperationID:   "signup",
		Method:        http.MethodPost,
		Path:          "/api/v1/auth/signup",
		Summary:       "Sign up",
		Description:   "Creates an account and returns an access token",
		Tags:          []string{"Authentication"},
		DefaultStatus: http.StatusCreated,
		Middlewares:   limited,
	}, s.handleSignup)

	huma.Register(s.api, huma.Operation{
		OperationID: "signin",
		Method:      http.MethodPost,
		Path:        "/api/v1/auth/signin",
		Summary:     "Sign in",
		Description: "Exchanges a uname and password for an access token",
		Tags:        []string{"Authentication"},
		Middlewares: limited,
	}, s.handleSignin)

	huma.Register(s.api, huma.Operation{
		OperationID: "checkUName",
		Method:      http.MethodGet,
		Path:        "/api/v1/auth/check/{uname}",
		Summary:     "Check uname",
		Description: "Reports whether a uname is free to sign up with",
		Tags:        []string{"Authentication"},
	}, s.handleCheckUName)

	huma.Register(s.api, huma.Operation{
		OperationID: "me",
		Method:      http.MethodGet,
		Path:        "/api/v1/auth/me",
		Summary:     "Current user",
		Description: "Returns the user the access token belongs to",
		Tags:        []string{"Authentication"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleMe)
}

// === DTOs ===

// SignupInput wraps the signup request for Huma.
type SignupInput struct {
	Body service.SignupRequest
}

// SigninInput wraps the signin request for Huma.
type SigninInput struct {
	Body service.SigninRequest
}

// AuthOutput wraps a fresh token for Huma.
type AuthOutput struct {
	Body *service.AuthResponse
}

// CheckUNameInput names the uname to check.
type CheckUNameInput struct {
	UName string `path:"uname" doc:"Candidate uname"`
}

// CheckUNameResponse reports uname availability.
type CheckUNameResponse struct {
	UName     string `json:"uname" doc:"Checked uname"`
	Available bool   `json:"available" doc:"True when no user holds the uname"`
}

// CheckUNameOutput wraps the availability response for Huma.
type CheckUNameOutput struct {
	Body CheckUNameResponse
}

// UserOutput wraps a user for Huma.
type UserOutput struct {
	Body *domain.User
}

// === Handlers ===

func (s *Server) handleSignup(ctx context.Context, input *SignupInput) (*AuthOutput, error) {
	resp, err := s.services.Users.Signup(ctx, input.Body)
	if err != nil {
		return nil, err
	}
	return &AuthOutput{Body: resp}, nil
}

func (s *Server) handleSignin(ctx context.Context, input *SigninInput) (*AuthOutput, error) {
	resp, err := s.services.Users.Signin(ctx, input.Body)
	if err != nil {
		return nil, err
	}
	return &AuthOutput{Body: resp}, nil
}

func (s *Server) handleCheckUName(ctx context.Context, input *CheckUNameInput) (*CheckUNameOutput, error) {
	available, err := s.services.Users.CheckUName(ctx, input.UName)
	if err != nil {
		return nil, err
	}
	return &CheckUNameOutput{Body: CheckUNameResponse{UName: input.UName, Available: available}}, nil
}

func (s *Server) handleMe(ctx context.Context, _ *struct{}) (*UserOutput, error) {
	p, err := RequirePrincipal(ctx)
	if err != nil {
		return nil, err
	}

	user, err := s.services.Users.GetUser(ctx, p.UserID)
	if err != nil {
		return nil, err
	}
	return &UserOutput{Body: user}, nil
}
