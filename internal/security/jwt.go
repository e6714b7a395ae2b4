package security

import (
	"crypto/rsa"
	"fmt"
	"os"
	"time"

	"github.com/zyphex-tech/realtime-service/pkg/errs"

	"github.com/golang-jwt/jwt"
)

// TokenVerifier validates RS256 access tokens issued by the auth service.
// This service only verifies; it never signs.
type TokenVerifier struct {
	public    *rsa.PublicKey
	issuer    string
	audience  string
	clockSkew time.Duration
}

func NewTokenVerifier(public *rsa.PublicKey, issuer, audience string, clockSkew time.Duration) *TokenVerifier {
	return &TokenVerifier{
		public:    public,
		issuer:    issuer,
		audience:  audience,
		clockSkew: clockSkew,
	}
}

type AccessClaims struct {
	jwt.StandardClaims
}

// Verify checks the token signature and the iss/aud/exp/nbf claims and
// returns the subject (user id).
func (v *TokenVerifier) Verify(tokenStr string) (string, error) {
	claims := &AccessClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodRSA); !ok || t.Method.Alg() != jwt.SigningMethodRS256.Alg() {
			return nil, errs.Unauthorized("unexpected signing method")
		}
		return v.public, nil
	})
	if err != nil {
		return "", errs.Wrap(errs.CodeUnauthenticated, "invalid token", err)
	}
	if !token.Valid {
		return "", errs.Unauthorized("invalid token")
	}

	if v.issuer != "" && !claims.VerifyIssuer(v.issuer, true) {
		return "", errs.Unauthorized("invalid token issuer")
	}
	if v.audience != "" && !claims.VerifyAudience(v.audience, true) {
		return "", errs.Unauthorized("invalid token audience")
	}

	// Time claims with clockSkew slack on both ends.
	now := time.Now()
	nbf := time.Unix(claims.NotBefore, 0).Add(-v.clockSkew)
	exp := time.Unix(claims.ExpiresAt, 0).Add(v.clockSkew)
	if now.Before(nbf) || now.After(exp) {
		return "", errs.Unauthorized("token expired")
	}

	if claims.Subject == "" {
		return "", errs.Unauthorized("token has no subject")
	}
	return claims.Subject, nil
}

func LoadRSAPublicKeyFromPEM(path string) (*rsa.PublicKey, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read public key %s: %w", path, err)
	}
	pub, err := jwt.ParseRSAPublicKeyFromPEM(b)
	if err != nil {
		return nil, fmt.Errorf("parse public key %s: %w", path, err)
	}
	return pub, nil
}
