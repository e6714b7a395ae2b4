package service

import (
	"context"
	"testing"

	"github.com/zyphex-tech/realtime-service/internal/domain"
	"github.com/zyphex-tech/realtime-service/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthService_Authenticate(t *testing.T) {
	ctx := context.Background()
	verifier := &fakeVerifier{subjects: map[string]string{
		"good-token":   "alice",
		"orphan-token": "deleted-user",
	}}
	users := fakeUsers{
		"alice": {ID: "alice", Email: "alice@example.com", Name: "Alice", Role: domain.RoleTeamMember},
	}
	svc := NewAuthService(verifier, users)

	t.Run("valid credential resolves identity", func(t *testing.T) {
		u, err := svc.Authenticate(ctx, "good-token")
		require.NoError(t, err)
		assert.Equal(t, "alice", u.ID)
		assert.Equal(t, domain.RoleTeamMember, u.Role)
	})

	t.Run("missing credential refused", func(t *testing.T) {
		_, err := svc.Authenticate(ctx, "   ")
		require.Error(t, err)
		assert.Equal(t, errs.CodeUnauthenticated, errs.CodeOf(err))
	})

	t.Run("bad signature refused", func(t *testing.T) {
		_, err := svc.Authenticate(ctx, "forged-token")
		require.Error(t, err)
		assert.Equal(t, errs.CodeUnauthenticated, errs.CodeOf(err))
	})

	t.Run("valid token for deleted user refused", func(t *testing.T) {
		_, err := svc.Authenticate(ctx, "orphan-token")
		require.Error(t, err)
		assert.Equal(t, errs.CodeUnauthenticated, errs.CodeOf(err))
	})
}
