package session

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"collabhub/pkg/interfaces"
	"collabhub/pkg/types"
)

const testSecret = "unit-test-signing-secret"

func TestVerifyRoundtrip(t *testing.T) {
	req := require.New(t)
	verifier := NewVerifier(testSecret)

	// Given a token minted for a user
	user := types.User{ID: "user-1", Name: "Ada Lovelace", Image: "https://example.com/ada.png"}
	token, err := verifier.Mint(user)
	req.NoError(err)

	// When it is verified
	got, err := verifier.Verify(token)

	// Then the full identity comes back
	req.NoError(err)
	req.Equal(user, got)
}

func TestVerifyRejectsEmptyToken(t *testing.T) {
	verifier := NewVerifier(testSecret)

	_, err := verifier.Verify("")
	require.ErrorIs(t, err, interfaces.ErrUnauthenticated)
}

func TestVerifyRejectsGarbage(t *testing.T) {
	verifier := NewVerifier(testSecret)

	_, err := verifier.Verify("not.a.jwt")
	require.ErrorIs(t, err, interfaces.ErrUnauthenticated)
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	req := require.New(t)

	token, err := NewVerifier("other-secret-entirely-here").Mint(types.User{ID: "user-1", Name: "Ada"})
	req.NoError(err)

	_, err = NewVerifier(testSecret).Verify(token)
	req.ErrorIs(err, interfaces.ErrUnauthenticated)
}

func TestVerifyRejectsInvalidSubject(t *testing.T) {
	req := require.New(t)
	verifier := NewVerifier(testSecret)

	// A syntactically valid token whose subject fails the identifier format
	// must not authenticate.
	token, err := verifier.Mint(types.User{ID: "user 1 with spaces", Name: "Ada"})
	req.NoError(err)

	_, err = verifier.Verify(token)
	req.ErrorIs(err, interfaces.ErrUnauthenticated)
}

func TestTokenFromRequest(t *testing.T) {
	req := require.New(t)

	r := httptest.NewRequest("GET", "/ws", nil)
	r.Header.Set("Authorization", "Bearer abc123")
	req.Equal("abc123", TokenFromRequest(r))

	// Header wins over query parameter.
	r = httptest.NewRequest("GET", "/ws?token=fromquery", nil)
	r.Header.Set("Authorization", "Bearer fromheader")
	req.Equal("fromheader", TokenFromRequest(r))

	r = httptest.NewRequest("GET", "/ws?token=fromquery", nil)
	req.Equal("fromquery", TokenFromRequest(r))

	r = httptest.NewRequest("GET", "/ws", nil)
	req.Equal("", TokenFromRequest(r))
}
