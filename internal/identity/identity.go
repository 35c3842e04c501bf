// Package identity turns the opaque bearer token issued by the federated
// identity gateway into verified user claims. Token verification is the only
// thing it knows how to do; account lookup and session issuing stay in the
// handlers.
package identity

import (
	"errors"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrTokenExpired      = errors.New("identity token expired")
	ErrTokenInvalid      = errors.New("identity token invalid")
	ErrTokenUnverifiable = errors.New("identity token could not be verified")
)

// Claims is the verified identity of a signed-in user.
type Claims struct {
	Subject    string
	Email      string
	Name       string
	PictureURL string
	Provider   string
}

// Verifier verifies a federated ID token and extracts its claims.
type Verifier interface {
	Verify(idToken string) (*Claims, error)
}

// HSVerifier verifies HS256 tokens signed with the shared gateway secret.
type HSVerifier struct {
	Secret string
}

func NewHSVerifier(secret string) *HSVerifier {
	return &HSVerifier{Secret: secret}
}

func (v *HSVerifier) Verify(idToken string) (*Claims, error) {
	idToken = strings.TrimSpace(idToken)
	if idToken == "" {
		return nil, ErrTokenInvalid
	}

	token, err := jwt.Parse(idToken, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return []byte(v.Secret), nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenMalformed),
			errors.Is(err, jwt.ErrTokenSignatureInvalid),
			errors.Is(err, jwt.ErrTokenNotValidYet):
			return nil, ErrTokenInvalid
		default:
			return nil, ErrTokenUnverifiable
		}
	}
	if !token.Valid {
		return nil, ErrTokenInvalid
	}

	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrTokenUnverifiable
	}

	claims := &Claims{
		Subject:    stringClaim(mapClaims, "sub"),
		Email:      stringClaim(mapClaims, "email"),
		Name:       stringClaim(mapClaims, "name"),
		PictureURL: stringClaim(mapClaims, "picture"),
		Provider:   stringClaim(mapClaims, "provider"),
	}

	// Gateways wrap the provider the way Firebase does; accept the nested
	// form too.
	if claims.Provider == "" {
		if nested, ok := mapClaims["firebase"].(map[string]interface{}); ok {
			if p, ok := nested["sign_in_provider"].(string); ok {
				claims.Provider = p
			}
		}
	}

	if claims.Subject == "" || claims.Email == "" {
		return nil, ErrTokenInvalid
	}

	return claims, nil
}

func stringClaim(claims jwt.MapClaims, key string) string {
	if value, ok := claims[key].(string); ok {
		return strings.TrimSpace(value)
	}
	return ""
}
