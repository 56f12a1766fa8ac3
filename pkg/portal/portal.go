// Package portal holds the B2B portal accounts and the tokens they log in with.
package portal

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/printshop-service/pkg/apperr"
)

// Password length bounds enforced whenever a password is set. bcrypt only
// reads the first 72 bytes.
const (
	MinPasswordLength = 8
	MaxPasswordLength = 72
)

// User is a customer contact allowed into the portal.
type User struct {
	ID           string     `json:"id"`
	CustomerID   string     `json:"customerId"`
	Email        string     `json:"email"`
	Name         string     `json:"name,omitempty"`
	PasswordHash string     `json:"-"`
	Active       bool       `json:"active"`
	LastLoginAt  *time.Time `json:"lastLoginAt,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
}

func (u User) Validate() error {
	if u.CustomerID == "" {
		return apperr.Required("customerId")
	}
	if strings.TrimSpace(u.Email) == "" {
		return apperr.Required("email")
	}
	if _, err := mail.ParseAddress(u.Email); err != nil {
		return apperr.Invalid("email", "is not a valid address")
	}
	return nil
}

// NormalizeEmail is applied before storing or looking up a login.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// HashPassword returns the bcrypt hash of password.
func HashPassword(password string) (string, error) {
	if len(password) < MinPasswordLength {
		return "", apperr.Invalid("password", fmt.Sprintf("must be at least %d characters", MinPasswordLength))
	}
	if len(password) > MaxPasswordLength {
		return "", apperr.Invalid("password", fmt.Sprintf("must be at most %d bytes", MaxPasswordLength))
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches the stored hash.
func (u User) CheckPassword(password string) bool {
	if u.PasswordHash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

// Claims identify a portal session.
type Claims struct {
	CustomerID string `json:"cid"`
	Email      string `json:"email"`
	jwt.RegisteredClaims
}

// Tokens issues and verifies HS256 portal tokens.
type Tokens struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

const tokenIssuer = "printshop-portal"

func NewTokens(secret string, ttl time.Duration) *Tokens {
	return &Tokens{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue signs a token for u and returns it with its expiry.
func (t *Tokens) Issue(u User) (string, time.Time, error) {
	now := t.now()
	exp := now.Add(t.ttl)
	claims := Claims{
		CustomerID: u.CustomerID,
		Email:      u.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			Issuer:    tokenIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, exp, nil
}

// Parse validates tokenString and returns its claims.
func (t *Tokens) Parse(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperr.Unauthorized("token expired")
		}
		return nil, apperr.Unauthorized("invalid token")
	}
	if !token.Valid || claims.Subject == "" || claims.CustomerID == "" {
		return nil, apperr.Unauthorized("invalid token")
	}
	return claims, nil
}
