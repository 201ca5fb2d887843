package auth

import (
	"strconv"
	"time"

	"github.com/franciscosanchezn/pizza-order-api/internal/models"
	"github.com/golang-jwt/jwt/v5"
)

// Claim names shared by login tokens and OAuth2 access tokens
const (
	ClaimUserID = "uid"
	ClaimKind   = "kind"
)

// TokenIssuer signs the bearer tokens handed out at login
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue returns a signed token for user and its expiry
func (i *TokenIssuer) Issue(user *models.User) (string, time.Time, error) {
	now := i.now()
	expiresAt := now.Add(i.ttl)
	claims := jwt.MapClaims{
		"sub":       user.Username,
		ClaimUserID: strconv.FormatUint(uint64(user.ID), 10),
		ClaimKind:   string(user.Kind),
		"iat":       now.Unix(),
		"exp":       expiresAt.Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}
