package middleware

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v4"
	"github.com/in4everyall/tennisclub-league/models"
)

// Имена JWT claims
const (
	jwtClaimLicense = "license"
	jwtClaimRole    = "role"
)

var ErrNoClaims = errors.New("user claims not found in context or invalid type")

func GetLicenseFromContext(ctx context.Context) (string, error) {
	claims, ok := ctx.Value(userContextKey).(jwt.MapClaims)
	if !ok {
		return "", ErrNoClaims
	}

	licenseClaim, ok := claims[jwtClaimLicense]
	if !ok {
		return "", fmt.Errorf("missing '%s' claim in token", jwtClaimLicense)
	}
	license, ok := licenseClaim.(string)
	if !ok || license == "" {
		return "", fmt.Errorf("invalid type for '%s' claim: expected non-empty string, got %T", jwtClaimLicense, licenseClaim)
	}
	return license, nil
}

func GetRoleFromContext(ctx context.Context) (models.UserRole, error) {
	claims, ok := ctx.Value(userContextKey).(jwt.MapClaims)
	if !ok {
		return "", ErrNoClaims
	}

	roleClaim, ok := claims[jwtClaimRole]
	if !ok {
		return "", fmt.Errorf("missing '%s' claim in token", jwtClaimRole)
	}
	roleStr, ok := roleClaim.(string)
	if !ok {
		return "", fmt.Errorf("invalid type for '%s' claim: expected string, got %T", jwtClaimRole, roleClaim)
	}

	role := models.UserRole(roleStr)
	switch role {
	case models.RoleAdmin, models.RolePlayer:
		return role, nil
	default:
		return "", fmt.Errorf("invalid role value in claim: %q", roleStr)
	}
}

// WithClaims returns a context carrying the given identity, as Authenticate would.
func WithClaims(ctx context.Context, license string, role models.UserRole) context.Context {
	return context.WithValue(ctx, userContextKey, jwt.MapClaims{
		jwtClaimLicense: license,
		jwtClaimRole:    string(role),
	})
}
