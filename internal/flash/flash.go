// Package flash carries one-shot user messages across a redirect in a signed,
// short-lived cookie. Nothing is kept server-side.
package flash

import (
	"crypto/rand"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jonboulle/clockwork"
)

// CookieName is the cookie that carries the pending message.
const CookieName = "aqi_flash"

const issuer = "aqipredict-flash"

// DefaultTTL is how long a flash survives if it is never read.
const DefaultTTL = 2 * time.Minute

// ErrInvalidFlash is returned when the cookie is present but unusable.
var ErrInvalidFlash = errors.New("invalid flash cookie")

// Category classifies a message for styling.
type Category string

// CategoryError marks a rejected submission.
const CategoryError Category = "error"

// Message is one pending flash message.
type Message struct {
	Category Category
	Text     string
}

type claims struct {
	jwt.RegisteredClaims
	Category Category `json:"cat"`
	Text     string   `json:"msg"`
}

// Config holds configuration for the flash store.
type Config struct {
	// Secret signs the cookie. A random per-process key is used when empty,
	// which invalidates pending messages on restart.
	Secret string

	// TTL bounds how long an unread message stays valid.
	TTL time.Duration

	// Secure marks the cookie HTTPS-only.
	Secure bool

	// Clock is the time source; defaults to the real clock.
	Clock clockwork.Clock
}

// Store writes and consumes flash cookies.
type Store struct {
	key    []byte
	ttl    time.Duration
	secure bool
	clock  clockwork.Clock
}

// NewStore creates a flash store.
func NewStore(cfg Config) (*Store, error) {
	key := []byte(cfg.Secret)
	if len(key) == 0 {
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			return nil, fmt.Errorf("generate flash key: %w", err)
		}
	}

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	clock := cfg.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	return &Store{
		key:    key,
		ttl:    ttl,
		secure: cfg.Secure,
		clock:  clock,
	}, nil
}

// Set attaches msg to the response so the next request can display it.
func (s *Store) Set(w http.ResponseWriter, msg Message) error {
	now := s.clock.Now()
	expiresAt := now.Add(s.ttl)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Category: msg.Category,
		Text:     msg.Text,
	})
	signed, err := token.SignedString(s.key)
	if err != nil {
		return fmt.Errorf("sign flash: %w", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    signed,
		Path:     "/",
		Expires:  expiresAt,
		MaxAge:   int(s.ttl.Seconds()),
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Pop returns the pending message, if any, and clears the cookie. The cookie
// is cleared even when it fails verification.
func (s *Store) Pop(w http.ResponseWriter, r *http.Request) (Message, error) {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return Message{}, http.ErrNoCookie
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})

	var c claims
	_, err = jwt.ParseWithClaims(cookie.Value, &c, func(*jwt.Token) (interface{}, error) {
		return s.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.clock.Now),
	)
	if err != nil {
		return Message{}, fmt.Errorf("%w: %w", ErrInvalidFlash, err)
	}

	return Message{Category: c.Category, Text: c.Text}, nil
}
