package middleware

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v4"
)

const (
	jwtClaimSubject = "sub"
	jwtClaimRole    = "role"

	RoleOperator = "operator"
)

func GetClaimsFromContext(ctx context.Context) (jwt.MapClaims, error) {
	claims, ok := ctx.Value(claimsContextKey).(jwt.MapClaims)
	if !ok {
		return nil, errors.New("token claims not found in context or invalid type")
	}
	return claims, nil
}

func GetRoleFromContext(ctx context.Context) (string, error) {
	claims, err := GetClaimsFromContext(ctx)
	if err != nil {
		return "", err
	}
	roleClaim, ok := claims[jwtClaimRole]
	if !ok {
		return "", fmt.Errorf("missing '%s' claim in token", jwtClaimRole)
	}
	role, ok := roleClaim.(string)
	if !ok {
		return "", fmt.Errorf("invalid type for '%s' claim: expected string, got %T", jwtClaimRole, roleClaim)
	}
	return role, nil
}

// GetSubjectFromContext returns the token subject, used to attribute
// operator actions in the logs.
func GetSubjectFromContext(ctx context.Context) string {
	claims, err := GetClaimsFromContext(ctx)
	if err != nil {
		return ""
	}
	sub, _ := claims[jwtClaimSubject].(string)
	return sub
}
