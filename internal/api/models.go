package api

import (
	"bytes"
	"encoding/json"
	"io"
	"time"
)

type Author struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

type Comment struct {
	Author Author `json:"author"`
	Text   string `json:"text"`
}

type Post struct {
	ID        string    `json:"id"`
	Author    Author    `json:"author"`
	Content   string    `json:"content"`
	Image     string    `json:"image,omitempty"`
	Likes     []string  `json:"likes"`
	Comments  []Comment `json:"comments"`
	CreatedAt time.Time `json:"createdAt"`
}

func (p Post) LikeCount() int {
	return len(p.Likes)
}

func (p Post) LikedBy(userID string) bool {
	if userID == "" {
		return false
	}
	for _, id := range p.Likes {
		if id == userID {
			return true
		}
	}
	return false
}

type Profile struct {
	ID           string `json:"id"`
	Username     string `json:"username"`
	Email        string `json:"email,omitempty"`
	Bio          string `json:"bio"`
	ProfileImage string `json:"profileImage,omitempty"`
}

// Image is a file attached to a multipart submission.
type Image struct {
	Filename    string
	ContentType string
	Body        io.Reader
}

type SignupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// wireRef is a user reference as the server sends it: either a populated
// object, a bare id string, or null.
type wireRef struct {
	ID       string `json:"_id"`
	Username string `json:"username"`
}

func (r *wireRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &r.ID)
	}
	type plain wireRef
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*r = wireRef(p)
	return nil
}

type wireComment struct {
	UserID wireRef `json:"userId"`
	Text   string  `json:"text"`
}

type wirePost struct {
	ID        string        `json:"_id"`
	UserID    wireRef       `json:"userId"`
	Content   string        `json:"content"`
	Image     string        `json:"image"`
	Likes     []string      `json:"likes"`
	Comments  []wireComment `json:"comments"`
	CreatedAt time.Time     `json:"createdAt"`
}

type wireProfile struct {
	ID           string `json:"_id"`
	Username     string `json:"username"`
	Email        string `json:"email"`
	Bio          string `json:"bio"`
	ProfileImage string `json:"profileImage"`
}

type loginResponse struct {
	Token  string   `json:"token"`
	UserID string   `json:"userId"`
	User   *wireRef `json:"user"`
}

func (w wirePost) normalize() Post {
	p := Post{
		ID:        w.ID,
		Author:    Author{ID: w.UserID.ID, Username: w.UserID.Username},
		Content:   w.Content,
		Image:     w.Image,
		Likes:     uniqueIDs(w.Likes),
		Comments:  make([]Comment, len(w.Comments)),
		CreatedAt: w.CreatedAt,
	}
	for i, c := range w.Comments {
		p.Comments[i] = Comment{
			Author: Author{ID: c.UserID.ID, Username: c.UserID.Username},
			Text:   c.Text,
		}
	}
	return p
}

func normalizePosts(in []wirePost) []Post {
	posts := make([]Post, len(in))
	for i, w := range in {
		posts[i] = w.normalize()
	}
	return posts
}

func (w wireProfile) normalize() Profile {
	return Profile{
		ID:           w.ID,
		Username:     w.Username,
		Email:        w.Email,
		Bio:          w.Bio,
		ProfileImage: w.ProfileImage,
	}
}

// uniqueIDs keeps the first occurrence of every id, in order.
func uniqueIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
