package session

import (
	"context"
	"errors"
)

const (
	TokenKey  = "token"
	UserIDKey = "userId"
)

var ErrUnauthenticated = errors.New("no token found, please login again")

type Credential struct {
	Token  string
	UserID string
}

// Context is the single owner of the bearer credential and current-user
// identity. Other components only read from it.
type Context struct {
	store Store
}

func New(store Store) *Context {
	return &Context{store: store}
}

// Credential reads the store on every call; nothing is cached.
func (c *Context) Credential(ctx context.Context) (Credential, error) {
	token, ok, err := c.store.Get(ctx, TokenKey)
	if err != nil {
		return Credential{}, err
	}
	if !ok || token == "" {
		return Credential{}, ErrUnauthenticated
	}
	userID, _, err := c.store.Get(ctx, UserIDKey)
	if err != nil {
		return Credential{}, err
	}
	return Credential{Token: token, UserID: userID}, nil
}

// UserID returns the stored identity or "" when there is none.
func (c *Context) UserID(ctx context.Context) string {
	userID, _, err := c.store.Get(ctx, UserIDKey)
	if err != nil {
		return ""
	}
	return userID
}

func (c *Context) Save(ctx context.Context, cred Credential) error {
	if cred.Token == "" {
		return ErrUnauthenticated
	}
	if err := c.store.Set(ctx, TokenKey, cred.Token); err != nil {
		return err
	}
	return c.store.Set(ctx, UserIDKey, cred.UserID)
}

// Clear removes both keys.
func (c *Context) Clear(ctx context.Context) error {
	return c.store.Delete(ctx, TokenKey, UserIDKey)
}
