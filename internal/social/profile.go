package social

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
)

var ErrUserNotFound = errors.New("user not found")

func (s *Service) Profile(ctx context.Context, userID string) (Profile, error) {
	var p Profile
	err := s.db.QueryRow(ctx, `
		SELECT id, username, email, bio, profile_image
		FROM users WHERE id = $1
	`, userID).Scan(&p.ID, &p.Username, &p.Email, &p.Bio, &p.ProfileImage)
	if errors.Is(err, pgx.ErrNoRows) {
		return Profile{}, ErrUserNotFound
	}
	return p, err
}

// UpdateProfile sets the bio and, when image is non-empty, the avatar path.
func (s *Service) UpdateProfile(ctx context.Context, userID, bio, image string) (Profile, error) {
	var p Profile
	err := s.db.QueryRow(ctx, `
		UPDATE users
		SET bio = $2, profile_image = COALESCE(NULLIF($3, ''), profile_image)
		WHERE id = $1
		RETURNING id, username, email, bio, profile_image
	`, userID, bio, image).Scan(&p.ID, &p.Username, &p.Email, &p.Bio, &p.ProfileImage)
	if errors.Is(err, pgx.ErrNoRows) {
		return Profile{}, ErrUserNotFound
	}
	return p, err
}
