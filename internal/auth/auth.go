package auth

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// issuer is the iss claim of every token
const issuer = "receipt-tracker"

var (
	// ErrInvalidToken is returned for missing, malformed, wrongly signed or expired tokens
	ErrInvalidToken = errors.New("invalid or expired token")

	// ErrInvalidCredentials is returned when a login does not match the configured user
	ErrInvalidCredentials = errors.New("invalid username or password")
)

// Claims represents JWT claims
type Claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

type defaultTimeSource struct{}

func (defaultTimeSource) Now() time.Time {
	return time.Now()
}

// Issuer signs and verifies session tokens
type Issuer struct {
	secret     []byte
	ttl        time.Duration
	timeSource TimeSource
}

// NewIssuer creates an Issuer signing HS256 tokens valid for ttl
func NewIssuer(secret string, ttl time.Duration) (*Issuer, error) {
	return NewIssuerWithDeps(secret, ttl, defaultTimeSource{})
}

// NewIssuerWithDeps creates an Issuer with a custom time source for testing
func NewIssuerWithDeps(secret string, ttl time.Duration, timeSrc TimeSource) (*Issuer, error) {
	if secret == "" {
		return nil, fmt.Errorf("jwt secret is required")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("token ttl must be positive, got %s", ttl)
	}
	return &Issuer{
		secret:     []byte(secret),
		ttl:        ttl,
		timeSource: timeSrc,
	}, nil
}

// Issue signs a token for username and returns it with its expiry
func (i *Issuer) Issue(username string) (string, time.Time, error) {
	now := i.timeSource.Now()
	expiresAt := now.Add(i.ttl)

	claims := &Claims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    issuer,
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("signing token: %w", err)
	}
	return token, expiresAt, nil
}

// Verify parses and validates a token
func (i *Issuer) Verify(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, ErrInvalidToken
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return i.secret, nil
		},
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.timeSource.Now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !token.Valid || claims.Username == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Credentials is the single login accepted by the server
type Credentials struct {
	Username string
	Password string
}

// Configured reports whether a login has been set up
func (c Credentials) Configured() bool {
	return c.Username != "" && c.Password != ""
}

// Check compares a login attempt against the configured credentials in constant time
func (c Credentials) Check(username, password string) error {
	if !c.Configured() {
		return ErrInvalidCredentials
	}
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(c.Username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(c.Password)) == 1
	if !userOK || !passOK {
		return ErrInvalidCredentials
	}
	return nil
}
