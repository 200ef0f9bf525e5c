package api

import (
	"context"
	"net/http"
	"net/url"
	"strings"
)

func postPath(id string, suffix string) string {
	return "/posts/" + url.PathEscape(id) + suffix
}

func (c *Client) ListPosts(ctx context.Context) ([]Post, error) {
	req, _ := jsonRequest("list posts", http.MethodGet, "/posts", nil, nil)
	var out []wirePost
	if err := c.send(ctx, req, &out); err != nil {
		return nil, err
	}
	return normalizePosts(out), nil
}

// CreatePost rejects a submission with blank content and no image before
// touching the network.
func (c *Client) CreatePost(ctx context.Context, content string, image *Image) (Post, error) {
	const op = "create post"
	if strings.TrimSpace(content) == "" && (image == nil || image.Body == nil) {
		return Post{}, validationError(op, "Please write something or select an image.")
	}
	cred, err := c.credential(ctx, op)
	if err != nil {
		return Post{}, err
	}

	body, contentType, err := multipartBody([]formField{{name: "content", value: content}}, "image", image)
	if err != nil {
		return Post{}, &Error{Kind: ErrValidation, Op: op, Err: err}
	}

	var out wirePost
	err = c.send(ctx, request{
		op:          op,
		method:      http.MethodPost,
		path:        "/posts",
		cred:        &cred,
		body:        body,
		contentType: contentType,
	}, &out)
	if err != nil {
		return Post{}, err
	}
	return out.normalize(), nil
}

// LikePost leaves toggle semantics to the server.
func (c *Client) LikePost(ctx context.Context, postID string) error {
	return c.mutate(ctx, "like post", http.MethodPut, postPath(postID, "/like"), struct{}{})
}

func (c *Client) AddComment(ctx context.Context, postID, text string) error {
	const op = "add comment"
	if strings.TrimSpace(text) == "" {
		return validationError(op, "comment text is empty")
	}
	return c.mutate(ctx, op, http.MethodPut, postPath(postID, "/comment"), map[string]string{"text": text})
}

// DeleteComment addresses the comment by its position in the server's
// current sequence for that post.
func (c *Client) DeleteComment(ctx context.Context, postID string, index int) error {
	const op = "delete comment"
	if index < 0 {
		return validationError(op, "comment index out of range")
	}
	return c.mutate(ctx, op, http.MethodPut, postPath(postID, "/comment/delete"), map[string]int{"index": index})
}

func (c *Client) EditPost(ctx context.Context, postID, content string) error {
	return c.mutate(ctx, "edit post", http.MethodPut, postPath(postID, "/edit"), map[string]string{"content": content})
}

func (c *Client) DeletePost(ctx context.Context, postID string) error {
	return c.mutate(ctx, "delete post", http.MethodDelete, postPath(postID, ""), nil)
}

func (c *Client) mutate(ctx context.Context, op, method, path string, payload any) error {
	cred, err := c.credential(ctx, op)
	if err != nil {
		return err
	}
	req, err := jsonRequest(op, method, path, &cred, payload)
	if err != nil {
		return err
	}
	return c.send(ctx, req, nil)
}
