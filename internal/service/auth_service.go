package service

import (
	"context"
	"strings"

	"github.com/zyphex-tech/realtime-service/internal/domain"
	"github.com/zyphex-tech/realtime-service/pkg/errs"
)

type TokenVerifier interface {
	Verify(token string) (subject string, err error)
}

type UserDirectory interface {
	Get(ctx context.Context, id string) (*domain.User, error)
}

// AuthService resolves a handshake credential into a canonical identity.
type AuthService struct {
	verifier TokenVerifier
	users    UserDirectory
}

func NewAuthService(verifier TokenVerifier, users UserDirectory) *AuthService {
	return &AuthService{verifier: verifier, users: users}
}

// Authenticate verifies the credential signature and expiry, then resolves
// the embedded subject through the user directory. Any failure refuses the
// connection outright.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, errs.Unauthorized("missing credential")
	}

	subject, err := s.verifier.Verify(token)
	if err != nil {
		return nil, err
	}

	u, err := s.users.Get(ctx, subject)
	if err != nil {
		if errs.CodeOf(err) == errs.CodeNotFound {
			// Token is valid but the subject no longer exists.
			return nil, errs.Unauthorized("unknown user")
		}
		return nil, err
	}
	return u, nil
}
