// Package auth is the single seam between this service and whatever
// session machinery runs upstream. Handlers never look at credentials
// themselves; they ask an Authenticator for the caller's identity.
package auth

import (
	"errors"
	"net/http"
	"strings"
)

// Identity is the authenticated caller.
type Identity struct {
	UserID string
	Email  string
	Name   string
	Admin  bool
}

var ErrUnauthenticated = errors.New("request carries no identity")

type Authenticator interface {
	Identify(r *http.Request) (Identity, error)
}

// HeaderAuthenticator trusts identity headers stamped by the edge
// gateway, which terminates sessions before traffic reaches us.
type HeaderAuthenticator struct{}

func (HeaderAuthenticator) Identify(r *http.Request) (Identity, error) {
	userID := strings.TrimSpace(r.Header.Get("X-User-Id"))
	if userID == "" {
		return Identity{}, ErrUnauthenticated
	}

	return Identity{
		UserID: userID,
		Email:  strings.TrimSpace(r.Header.Get("X-User-Email")),
		Name:   strings.TrimSpace(r.Header.Get("X-User-Name")),
		Admin:  r.Header.Get("X-User-Admin") == "true",
	}, nil
}
