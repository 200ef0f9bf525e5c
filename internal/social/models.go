package social

import "time"

type Author struct {
	ID       string `json:"_id"`
	Username string `json:"username"`
}

type Comment struct {
	Author Author `json:"userId"`
	Text   string `json:"text"`
}

type Post struct {
	ID        string    `json:"_id"`
	Author    Author    `json:"userId"`
	Content   string    `json:"content"`
	Image     string    `json:"image,omitempty"`
	Likes     []string  `json:"likes"`
	Comments  []Comment `json:"comments"`
	CreatedAt time.Time `json:"createdAt"`
}

type Profile struct {
	ID           string `json:"_id"`
	Username     string `json:"username"`
	Email        string `json:"email"`
	Bio          string `json:"bio"`
	ProfileImage string `json:"profileImage"`
}

// storedComment is one element of the posts.comments JSONB array.
type storedComment struct {
	UserID string `json:"user_id"`
	Text   string `json:"text"`
}
