//go:build e2e

package authtest

import (
	"testing"

	"stayfinder/internal/domain/principal"
	"stayfinder/internal/pkg/config"
	"stayfinder/internal/pkg/jwt"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// TokenFor mints a bearer token the way the external identity service would,
// signed with the test shared secret.
func TokenFor(t *testing.T, cfg config.Config, principalID uuid.UUID, role principal.Role) string {
	t.Helper()

	svc := jwt.NewService(cfg.JWT.Secret, cfg.JWT.Duration)
	token, err := svc.GenerateToken(principalID, role)
	require.NoError(t, err, "Failed to mint test token")
	return token
}
