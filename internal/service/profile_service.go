package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/afero"

	"github.com/gurkanbulca/taskboard/internal/models"
	"github.com/gurkanbulca/taskboard/internal/repository"
	"github.com/gurkanbulca/taskboard/pkg/thumbnail"
)

const (
	// ProfileImageDir is the media subdirectory uploads are stored in.
	ProfileImageDir = "profile_pics"

	// MaxProfileImageBytes caps the size of an uploaded image.
	MaxProfileImageBytes = 10 << 20

	defaultImageBound = 300
)

// ProfileService manages profile images in media storage.
type ProfileService struct {
	users    *repository.UserRepository
	profiles *repository.ProfileRepository
	media    afero.Fs
	bound    int
	logger   *slog.Logger
}

// NewProfileService stores images in media. Images larger than bound in
// either dimension are shrunk on every save.
func NewProfileService(db *sqlx.DB, media afero.Fs, bound int, logger *slog.Logger) *ProfileService {
	if bound <= 0 {
		bound = defaultImageBound
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ProfileService{
		users:    repository.NewUserRepository(db),
		profiles: repository.NewProfileRepository(db),
		media:    media,
		bound:    bound,
		logger:   logger.With("component", "profiles"),
	}
}

// GetProfile returns the public profile of username.
func (s *ProfileService) GetProfile(ctx context.Context, username string) (*models.User, *models.Profile, error) {
	u, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, nil, notFound(err, "user "+username)
	}
	p, err := s.profiles.GetByUserID(ctx, u.ID)
	if err != nil {
		return nil, nil, notFound(err, "profile of "+username)
	}
	return u, p, nil
}

// UpdateProfileImage stores an uploaded image and makes it the user's
// profile picture. The previous upload, if any, is removed.
func (s *ProfileService) UpdateProfileImage(ctx context.Context, userID uuid.UUID, filename string, r io.Reader) (*models.Profile, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxProfileImageBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if len(data) > MaxProfileImageBytes {
		return nil, invalid("image", "image larger than %d bytes", MaxProfileImageBytes)
	}

	format, err := thumbnail.DetectFormat(data)
	if err != nil {
		return nil, invalid("image", "%s is not a supported image", filename)
	}

	old, err := s.profiles.GetByUserID(ctx, userID)
	if err != nil {
		return nil, notFound(err, "profile")
	}

	if err := s.media.MkdirAll(ProfileImageDir, 0o755); err != nil {
		return nil, fmt.Errorf("create media dir: %w", err)
	}
	name := path.Join(ProfileImageDir, uuid.NewString()+"."+format)
	if err := afero.WriteFile(s.media, name, data, 0o644); err != nil {
		return nil, fmt.Errorf("store image: %w", err)
	}

	p := *old
	p.Image = name
	if err := s.save(ctx, &p); err != nil {
		_ = s.media.Remove(name)
		return nil, err
	}

	if old.Image != models.DefaultProfileImage && old.Image != name {
		if err := s.media.Remove(old.Image); err != nil && !errors.Is(err, os.ErrNotExist) {
			s.logger.WarnContext(ctx, "failed to remove old profile image", "path", old.Image, "error", err)
		}
	}
	return &p, nil
}

// save shrinks the profile image to fit the configured bound and writes the
// profile. A missing image file, such as an absent placeholder, is skipped.
func (s *ProfileService) save(ctx context.Context, p *models.Profile) error {
	exists, err := afero.Exists(s.media, p.Image)
	if err != nil {
		return fmt.Errorf("stat image: %w", err)
	}
	if exists {
		resized, err := thumbnail.FitFile(s.media, p.Image, s.bound)
		if err != nil {
			return fmt.Errorf("resize profile image: %w", err)
		}
		if resized {
			s.logger.InfoContext(ctx, "profile image resized", "path", p.Image, "bound", s.bound)
		}
	} else {
		s.logger.DebugContext(ctx, "profile image missing, skipping resize", "path", p.Image)
	}

	if err := s.profiles.UpdateImage(ctx, p.UserID, p.Image); err != nil {
		return notFound(err, "profile")
	}
	return nil
}
