package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/bajrang214/looptalk-client/internal/session"
)

func (c *Client) Signup(ctx context.Context, req SignupRequest) error {
	const op = "signup"
	if strings.TrimSpace(req.Username) == "" || strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return validationError(op, "username, email and password required")
	}
	r, err := jsonRequest(op, http.MethodPost, "/signup", nil, req)
	if err != nil {
		return err
	}
	return c.send(ctx, r, nil)
}

// Login exchanges email and password for a bearer credential. The caller
// persists it in the session store.
func (c *Client) Login(ctx context.Context, email, password string) (session.Credential, error) {
	const op = "login"
	if strings.TrimSpace(email) == "" || password == "" {
		return session.Credential{}, validationError(op, "email and password required")
	}
	r, err := jsonRequest(op, http.MethodPost, "/login", nil, map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return session.Credential{}, err
	}
	var out loginResponse
	if err := c.send(ctx, r, &out); err != nil {
		return session.Credential{}, err
	}
	if out.Token == "" {
		return session.Credential{}, &Error{Kind: ErrServer, Op: op, Message: "login response missing token"}
	}
	cred := session.Credential{Token: out.Token, UserID: out.UserID}
	if cred.UserID == "" && out.User != nil {
		cred.UserID = out.User.ID
	}
	return cred, nil
}

func (c *Client) GetProfile(ctx context.Context) (Profile, error) {
	const op = "get profile"
	cred, err := c.credential(ctx, op)
	if err != nil {
		return Profile{}, err
	}
	r, _ := jsonRequest(op, http.MethodGet, "/user/me", &cred, nil)
	var out wireProfile
	if err := c.send(ctx, r, &out); err != nil {
		return Profile{}, err
	}
	return out.normalize(), nil
}

func (c *Client) UpdateProfile(ctx context.Context, bio string, image *Image) (Profile, error) {
	const op = "update profile"
	cred, err := c.credential(ctx, op)
	if err != nil {
		return Profile{}, err
	}
	body, contentType, err := multipartBody([]formField{{name: "bio", value: bio}}, "profileImage", image)
	if err != nil {
		return Profile{}, &Error{Kind: ErrValidation, Op: op, Err: err}
	}
	var out wireProfile
	err = c.send(ctx, request{
		op:          op,
		method:      http.MethodPut,
		path:        "/user/me",
		cred:        &cred,
		body:        body,
		contentType: contentType,
	}, &out)
	if err != nil {
		return Profile{}, err
	}
	return out.normalize(), nil
}

func (c *Client) MyPosts(ctx context.Context) ([]Post, error) {
	const op = "get own posts"
	cred, err := c.credential(ctx, op)
	if err != nil {
		return nil, err
	}
	r, _ := jsonRequest(op, http.MethodGet, "/user/me/posts", &cred, nil)
	var out []wirePost
	if err := c.send(ctx, r, &out); err != nil {
		return nil, err
	}
	return normalizePosts(out), nil
}
