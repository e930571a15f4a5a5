package interfaces

import "collabhub/pkg/types"

// TokenVerifier is the session/identity collaborator. It turns a bearer
// token into an authenticated user; every inbound event must be attributable
// to exactly one such user.
type TokenVerifier interface {
	Verify(token string) (types.User, error)
}
