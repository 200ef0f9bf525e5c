package feed

import (
	"errors"
	"fmt"

	"github.com/bajrang214/looptalk-client/internal/api"
	"github.com/bajrang214/looptalk-client/internal/session"
)

type Action string

const (
	ActionRefresh       Action = "fetch posts"
	ActionLike          Action = "like post"
	ActionComment       Action = "add comment"
	ActionDeleteComment Action = "delete comment"
	ActionEdit          Action = "update post"
	ActionDelete        Action = "delete post"
	ActionCreate        Action = "create post"
)

var failureText = map[Action]string{
	ActionRefresh:       "Failed to fetch posts",
	ActionLike:          "Failed to like post",
	ActionComment:       "Failed to add comment",
	ActionDeleteComment: "Failed to delete comment",
	ActionEdit:          "Failed to update post",
	ActionDelete:        "Failed to delete post",
	ActionCreate:        "Failed to create post",
}

// ActionError records which engine action failed.
type ActionError struct {
	Action Action
	PostID string
	Err    error
}

func (e *ActionError) Error() string {
	if e.PostID != "" {
		return fmt.Sprintf("%s %s: %v", e.Action, e.PostID, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Action, e.Err)
}

func (e *ActionError) Unwrap() error {
	return e.Err
}

// Message turns an error into the short text shown to the user.
func Message(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, session.ErrUnauthenticated) {
		return "No token found. Please login again."
	}
	var apiErr *api.Error
	if errors.As(err, &apiErr) && errors.Is(apiErr, api.ErrValidation) && apiErr.Message != "" {
		return apiErr.Message
	}
	if errors.Is(err, api.ErrAuth) {
		return "Your session is not allowed to do that. Please login again."
	}
	if errors.Is(err, api.ErrNetwork) {
		return "Network error. Please try again."
	}
	var actErr *ActionError
	if errors.As(err, &actErr) {
		if text, ok := failureText[actErr.Action]; ok {
			return text
		}
	}
	if apiErr != nil && apiErr.Message != "" {
		return apiErr.Message
	}
	return "Something went wrong"
}
