package social

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"

	"github.com/bajrang214/looptalk-client/internal/db"
)

var (
	ErrNotFound     = errors.New("post not found")
	ErrForbidden    = errors.New("not allowed")
	ErrEmptyPost    = errors.New("post needs content or an image")
	ErrEmptyComment = errors.New("comment text required")
	ErrBadIndex     = errors.New("comment index out of range")
)

type Service struct {
	db    db.Querier
	cache listCache
}

func NewService(q db.Querier, rdb *redis.Client) *Service {
	return &Service{db: q, cache: listCache{rdb: rdb}}
}

const selectPosts = `
	SELECT p.id, p.user_id, u.username, p.content, p.image, p.likes, p.comments, p.created_at
	FROM posts p JOIN users u ON u.id = p.user_id
`

// List returns every post, newest first.
func (s *Service) List(ctx context.Context) ([]Post, error) {
	if posts, ok := s.cache.get(ctx); ok {
		return posts, nil
	}
	version, cacheable := s.cache.version(ctx)
	posts, err := s.queryPosts(ctx, selectPosts+` ORDER BY p.created_at DESC`)
	if err != nil {
		return nil, err
	}
	if cacheable {
		s.cache.set(ctx, version, posts)
	}
	return posts, nil
}

func (s *Service) ListByUser(ctx context.Context, userID string) ([]Post, error) {
	return s.queryPosts(ctx, selectPosts+` WHERE p.user_id = $1 ORDER BY p.created_at DESC`, userID)
}

func (s *Service) Create(ctx context.Context, userID, content, image string) (Post, error) {
	if strings.TrimSpace(content) == "" && image == "" {
		return Post{}, ErrEmptyPost
	}
	post := Post{
		ID:       uuid.NewString(),
		Author:   Author{ID: userID},
		Content:  content,
		Image:    image,
		Likes:    []string{},
		Comments: []Comment{},
	}
	row := s.db.QueryRow(ctx, `
		WITH inserted AS (
			INSERT INTO posts (id, user_id, content, image)
			VALUES ($1,$2,$3,$4)
			RETURNING user_id, created_at
		)
		SELECT u.username, inserted.created_at
		FROM inserted JOIN users u ON u.id = inserted.user_id
	`, post.ID, userID, content, image)
	if err := row.Scan(&post.Author.Username, &post.CreatedAt); err != nil {
		return Post{}, err
	}
	s.cache.invalidate(ctx)
	return post, nil
}

// ToggleLike adds userID to the post's likes, or removes it when present.
func (s *Service) ToggleLike(ctx context.Context, postID, userID string) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE posts SET likes = CASE
			WHEN $2 = ANY(likes) THEN array_remove(likes, $2)
			ELSE array_append(likes, $2)
		END
		WHERE id = $1
	`, postID, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	s.cache.invalidate(ctx)
	return nil
}

func (s *Service) AddComment(ctx context.Context, postID, userID, text string) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyComment
	}
	entry, err := json.Marshal([]storedComment{{UserID: userID, Text: text}})
	if err != nil {
		return err
	}
	tag, err := s.db.Exec(ctx, `
		UPDATE posts SET comments = comments || $2::jsonb
		WHERE id = $1
	`, postID, string(entry))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	s.cache.invalidate(ctx)
	return nil
}

// DeleteComment removes the comment at index. Only its author may do so.
// Comments have no ids; the index refers to the current stored order.
func (s *Service) DeleteComment(ctx context.Context, postID, userID string, index int) error {
	var raw []byte
	err := s.db.QueryRow(ctx, `SELECT comments FROM posts WHERE id = $1`, postID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	var comments []storedComment
	if err := json.Unmarshal(raw, &comments); err != nil {
		return fmt.Errorf("decode comments: %w", err)
	}
	if index < 0 || index >= len(comments) {
		return ErrBadIndex
	}
	if comments[index].UserID != userID {
		return ErrForbidden
	}

	// the author guard makes a concurrent shift fail instead of removing
	// someone else's comment
	tag, err := s.db.Exec(ctx, `
		UPDATE posts SET comments = comments - $2::int
		WHERE id = $1 AND comments -> $2::int ->> 'user_id' = $3
	`, postID, index, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrForbidden
	}
	s.cache.invalidate(ctx)
	return nil
}

func (s *Service) Edit(ctx context.Context, postID, userID, content string) error {
	if err := s.requireOwner(ctx, postID, userID); err != nil {
		return err
	}
	if _, err := s.db.Exec(ctx, `UPDATE posts SET content = $2 WHERE id = $1`, postID, content); err != nil {
		return err
	}
	s.cache.invalidate(ctx)
	return nil
}

// Delete removes the post and returns its image path so the caller can drop
// the stored file.
func (s *Service) Delete(ctx context.Context, postID, userID string) (string, error) {
	if err := s.requireOwner(ctx, postID, userID); err != nil {
		return "", err
	}
	var image string
	err := s.db.QueryRow(ctx, `DELETE FROM posts WHERE id = $1 RETURNING image`, postID).Scan(&image)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	s.cache.invalidate(ctx)
	return image, nil
}

func (s *Service) requireOwner(ctx context.Context, postID, userID string) error {
	var owner string
	err := s.db.QueryRow(ctx, `SELECT user_id FROM posts WHERE id = $1`, postID).Scan(&owner)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if owner != userID {
		return ErrForbidden
	}
	return nil
}

func (s *Service) queryPosts(ctx context.Context, sql string, args ...any) ([]Post, error) {
	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	posts := []Post{}
	var stored [][]storedComment
	for rows.Next() {
		var p Post
		var raw []byte
		if err := rows.Scan(&p.ID, &p.Author.ID, &p.Author.Username, &p.Content, &p.Image, &p.Likes, &raw, &p.CreatedAt); err != nil {
			return nil, err
		}
		var comments []storedComment
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &comments); err != nil {
				return nil, fmt.Errorf("decode comments of %s: %w", p.ID, err)
			}
		}
		if p.Likes == nil {
			p.Likes = []string{}
		}
		posts = append(posts, p)
		stored = append(stored, comments)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	names, err := s.usernames(ctx, stored)
	if err != nil {
		return nil, err
	}
	for i := range posts {
		posts[i].Comments = make([]Comment, len(stored[i]))
		for j, c := range stored[i] {
			posts[i].Comments[j] = Comment{Author: Author{ID: c.UserID, Username: names[c.UserID]}, Text: c.Text}
		}
	}
	return posts, nil
}

// usernames resolves comment authors in one query.
func (s *Service) usernames(ctx context.Context, stored [][]storedComment) (map[string]string, error) {
	seen := map[string]struct{}{}
	var ids []string
	for _, comments := range stored {
		for _, c := range comments {
			if _, ok := seen[c.UserID]; !ok {
				seen[c.UserID] = struct{}{}
				ids = append(ids, c.UserID)
			}
		}
	}
	names := map[string]string{}
	if len(ids) == 0 {
		return names, nil
	}
	rows, err := s.db.Query(ctx, `SELECT id, username FROM users WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var id, name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, err
		}
		names[id] = name
	}
	return names, rows.Err()
}
