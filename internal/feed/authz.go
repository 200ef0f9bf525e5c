package feed

import "github.com/bajrang214/looptalk-client/internal/api"

// Actions says which controls to render for one post. The server still
// enforces ownership; this only decides visibility.
type Actions struct {
	Edit          bool
	Delete        bool
	DeleteComment []bool
}

func CanModifyPost(userID string, p api.Post) bool {
	return userID != "" && p.Author.ID == userID
}

func CanDeleteComment(userID string, c api.Comment) bool {
	return userID != "" && c.Author.ID == userID
}

func PostActions(userID string, p api.Post) Actions {
	owner := CanModifyPost(userID, p)
	a := Actions{Edit: owner, Delete: owner, DeleteComment: make([]bool, len(p.Comments))}
	for i, c := range p.Comments {
		a.DeleteComment[i] = CanDeleteComment(userID, c)
	}
	return a
}
