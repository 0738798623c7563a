package jwt

import (
	"context"
	"testing"

	"github.com/cmlabs-hris/hris-payroll/internal/domain/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAccessToken_RoundTrip(t *testing.T) {
	svc := NewJWTService("test-secret", "1h")
	employeeID := "3f1c2b9a-1d2e-4f5a-8b6c-7d8e9f0a1b2c"

	token, expiresAt, err := svc.GenerateAccessToken("user-1", &employeeID, user.RoleEmployee)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Greater(t, expiresAt, int64(0))

	decoded, err := svc.JWTAuth().Decode(token)
	require.NoError(t, err)
	claims, err := decoded.AsMap(context.Background())
	require.NoError(t, err)

	p, err := PrincipalFromClaims(claims)
	require.NoError(t, err)
	assert.Equal(t, "user-1", p.UserID)
	assert.Equal(t, user.RoleEmployee, p.Role)
	require.NotNil(t, p.EmployeeID)
	assert.Equal(t, employeeID, *p.EmployeeID)
}

func TestGenerateAccessToken_InvalidDuration(t *testing.T) {
	svc := NewJWTService("test-secret", "forever")
	_, _, err := svc.GenerateAccessToken("user-1", nil, user.RoleOwner)
	assert.Error(t, err)
}

func TestPrincipalFromClaims_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		claims map[string]interface{}
	}{
		{name: "refresh token", claims: map[string]interface{}{"type": "refresh", "user_id": "u", "role": "owner"}},
		{name: "missing user", claims: map[string]interface{}{"type": "access", "role": "owner"}},
		{name: "unknown role", claims: map[string]interface{}{"type": "access", "user_id": "u", "role": "pending"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := PrincipalFromClaims(tt.claims)
			assert.Error(t, err)
		})
	}
}

func TestPrincipalContext(t *testing.T) {
	_, ok := PrincipalFromContext(context.Background())
	assert.False(t, ok)

	ctx := WithPrincipal(context.Background(), user.Principal{UserID: "u", Role: user.RoleManager})
	p, ok := PrincipalFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, user.RoleManager, p.Role)
}
