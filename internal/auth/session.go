package auth

import (
	"context"
	"crypto/ed25519"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// CookieName carries the session token.
const CookieName = "auth_token"

var (
	privateKey ed25519.PrivateKey
	publicKey  ed25519.PublicKey

	// TokenTTL is how long issued tokens stay valid. Zero means no exp claim.
	TokenTTL time.Duration
)

// ParseTTL reads a TOKEN_EXPIRE_TIME style value: "", "0" and "never" disable expiry,
// anything else must be a Go duration.
func ParseTTL(s string) (time.Duration, error) {
	switch s {
	case "", "0", "never":
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("failed to parse token expire time: %w", err)
	}
	return d, nil
}

// Init generates a fresh ed25519 key pair. Tokens do not survive a restart.
func Init(ttl time.Duration) error {
	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		return fmt.Errorf("failed to generate ed25519 key pair: %w", err)
	}
	publicKey, privateKey = pub, priv
	TokenTTL = ttl
	return nil
}

// InitFromPath loads the key pair from raw key files.
func InitFromPath(privatePath, publicPath string, ttl time.Duration) error {
	priv, err := os.ReadFile(privatePath)
	if err != nil {
		return fmt.Errorf("failed to read private key file: %w", err)
	}
	pub, err := os.ReadFile(publicPath)
	if err != nil {
		return fmt.Errorf("failed to read public key file: %w", err)
	}
	if len(priv) != ed25519.PrivateKeySize || len(pub) != ed25519.PublicKeySize {
		return errors.New("ed25519 key files have the wrong size")
	}
	privateKey = ed25519.PrivateKey(priv)
	publicKey = ed25519.PublicKey(pub)
	TokenTTL = ttl
	return nil
}

// CreateJWT signs a token whose subject is userID.
func CreateJWT(userID uuid.UUID) (string, error) {
	claims := jwt.MapClaims{
		"sub": userID.String(),
		"iat": time.Now().Unix(),
	}
	if TokenTTL > 0 {
		claims["exp"] = time.Now().Add(TokenTTL).Unix()
	}
	token := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims)
	return token.SignedString(privateKey)
}

// AuthenticateJWT verifies tokenString and returns the user id in its subject.
func AuthenticateJWT(tokenString string) (uuid.UUID, error) {
	t, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodEd25519); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return publicKey, nil
	})
	if err != nil {
		return uuid.Nil, fmt.Errorf("jwt parse error: %w", err)
	}
	if !t.Valid {
		return uuid.Nil, errors.New("invalid token")
	}

	sub, err := t.Claims.GetSubject()
	if err != nil || sub == "" {
		return uuid.Nil, errors.New("missing sub in jwt")
	}
	id, err := uuid.Parse(sub)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid user id in token: %w", err)
	}
	return id, nil
}

type ctxKey struct{}

// WithUserID stores the authenticated user on ctx.
func WithUserID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// UserIDFromContext returns the user stored by WithUserID.
func UserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(ctxKey{}).(uuid.UUID)
	return id, ok && id != uuid.Nil
}
