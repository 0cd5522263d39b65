// internal/domain/identity/identity.go
package identity

import (
	"errors"
	"regexp"
	"strings"
)

var (
	ErrMissing        = errors.New("identity: neither userId nor sessionId present")
	ErrInvalidSession = errors.New("identity: invalid session id")
)

// Session ids arrive from an untrusted header; bound the shape before the
// value is ever used as a lookup key.
const (
	sessionMinLen = 8
	sessionMaxLen = 64
)

var sessionRe = regexp.MustCompile(`^[a-z0-9-]+$`)

// Kind discriminates the two owner regimes of a cart.
type Kind int

const (
	KindUser Kind = iota + 1
	KindGuest
)

// Identity is the resolved owner of a cart: exactly one of a user id
// (authenticated shopper) or a session id (guest shopper).
type Identity struct {
	kind      Kind
	userID    string
	sessionID string
}

// ForUser builds an authenticated identity.
func ForUser(userID string) Identity {
	return Identity{kind: KindUser, userID: strings.TrimSpace(userID)}
}

// ForGuest builds a guest identity from an already-normalized session id.
func ForGuest(sessionID string) Identity {
	return Identity{kind: KindGuest, sessionID: sessionID}
}

func (id Identity) Kind() Kind        { return id.kind }
func (id Identity) IsUser() bool      { return id.kind == KindUser }
func (id Identity) IsGuest() bool     { return id.kind == KindGuest }
func (id Identity) UserID() string    { return id.userID }
func (id Identity) SessionID() string { return id.sessionID }

// NormalizeSessionID trims and lowercases a raw session header value and
// validates it against the fixed format. Returns ErrInvalidSession when the
// value is present but malformed.
func NormalizeSessionID(raw string) (string, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return "", ErrInvalidSession
	}
	if len(s) < sessionMinLen || len(s) > sessionMaxLen {
		return "", ErrInvalidSession
	}
	if !sessionRe.MatchString(s) {
		return "", ErrInvalidSession
	}
	return s, nil
}

// Resolve derives the cart owner from a request's auth/session context.
// An authenticated user id wins over a session header; with neither present
// the request cannot own a cart and resolution fails.
func Resolve(authenticatedUserID, sessionHeader string) (Identity, error) {
	uid := strings.TrimSpace(authenticatedUserID)
	if uid != "" {
		return ForUser(uid), nil
	}

	if strings.TrimSpace(sessionHeader) == "" {
		return Identity{}, ErrMissing
	}

	sid, err := NormalizeSessionID(sessionHeader)
	if err != nil {
		return Identity{}, err
	}
	return ForGuest(sid), nil
}
