package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"

	"golang.org/x/crypto/bcrypt"
)

const saltBytes = 16

// PasswordHasher stores bcrypt(HMAC-SHA256(pepper, salt || password)). The
// HMAC keeps the bcrypt input under its 72 byte limit and binds the hash to
// the server-side pepper; the salt is unique per user.
type PasswordHasher struct {
	pepper []byte
	cost   int
}

func NewPasswordHasher(pepper string) *PasswordHasher {
	return &PasswordHasher{pepper: []byte(pepper), cost: bcrypt.DefaultCost}
}

// WithCost is used by tests to keep hashing fast
func (h *PasswordHasher) WithCost(cost int) *PasswordHasher {
	h.cost = cost
	return h
}

func (h *PasswordHasher) premix(password, salt string) []byte {
	mac := hmac.New(sha256.New, h.pepper)
	mac.Write([]byte(salt))
	mac.Write([]byte(password))
	return []byte(base64.StdEncoding.EncodeToString(mac.Sum(nil)))
}

func (h *PasswordHasher) Hash(password string) (string, string, error) {
	raw := make([]byte, saltBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", "", err
	}
	salt := base64.RawURLEncoding.EncodeToString(raw)
	hash, err := bcrypt.GenerateFromPassword(h.premix(password, salt), h.cost)
	if err != nil {
		return "", "", err
	}
	return string(hash), salt, nil
}

func (h *PasswordHasher) Verify(password, salt, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), h.premix(password, salt)) == nil
}
