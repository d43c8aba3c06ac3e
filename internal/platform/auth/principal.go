package auth

import (
	"context"

	"github.com/google/uuid"

	"github.com/rehab/rehab/internal/platform/apperr"
)

// Principal is the authenticated caller, passed explicitly into domain
// services instead of being read from ambient state.
type Principal struct {
	ID    uuid.UUID
	Roles []string
}

func (p Principal) HasRole(role string) bool {
	for _, r := range p.Roles {
		if r == role {
			return true
		}
	}
	return false
}

func (p Principal) IsAdmin() bool { return p.HasRole(RoleAdmin) }

// PrincipalFromContext builds the Principal from the values the JWT
// middleware stored on ctx. A missing or non-UUID subject means the request
// is unauthenticated.
func PrincipalFromContext(ctx context.Context) (Principal, error) {
	sub := UserIDFromContext(ctx)
	if sub == "" {
		return Principal{}, apperr.Unauthenticated("no authenticated user")
	}
	id, err := uuid.Parse(sub)
	if err != nil {
		return Principal{}, apperr.Unauthenticated("invalid subject identifier")
	}
	return Principal{ID: id, Roles: RolesFromContext(ctx)}, nil
}
