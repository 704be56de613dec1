package services

import (
	"context"
	"errors"
	"mime/multipart"

	"github.com/gatherly/gatherly/internal/app/auth"
	"github.com/gatherly/gatherly/internal/app/models"
	"github.com/gatherly/gatherly/internal/app/models/dto"
	"github.com/gatherly/gatherly/internal/pkg/apperrors"
	"github.com/gatherly/gatherly/internal/pkg/filestorage"
	"github.com/rs/zerolog"
)

const profilePictureDir = "profiles"

type ProfileService struct {
	profiles ProfileStore
	users    UserStore
	storage  filestorage.FileStorage
	logger   zerolog.Logger
}

func NewProfileService(profiles ProfileStore, users UserStore, storage filestorage.FileStorage, logger zerolog.Logger) *ProfileService {
	return &ProfileService{profiles: profiles, users: users, storage: storage, logger: logger}
}

// load returns the profile of userID, or an empty one when the user exists without a
// profile row.
func (s *ProfileService) load(ctx context.Context, userID int64) (*models.Profile, error) {
	p, err := s.profiles.GetByUserID(ctx, userID)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, apperrors.ErrProfileNotFound) {
		return nil, err
	}
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	return &models.Profile{UserID: userID}, nil
}

func (s *ProfileService) GetProfile(ctx context.Context, userID int64) (*models.Profile, error) {
	return s.load(ctx, userID)
}

func (s *ProfileService) GetMyProfile(ctx context.Context, identity auth.Identity) (*models.Profile, error) {
	if !identity.Authenticated {
		return nil, apperrors.ErrUnauthenticated
	}
	return s.load(ctx, identity.UserID)
}

// UpdateMyProfile changes the caller's own profile. IsOrganizer is only applied for
// superusers.
func (s *ProfileService) UpdateMyProfile(ctx context.Context, identity auth.Identity, req *dto.UpdateProfileRequest) (*models.Profile, error) {
	if !identity.Authenticated {
		return nil, apperrors.ErrUnauthenticated
	}
	return s.update(ctx, identity, identity.UserID, req)
}

// UpdateProfile changes any profile; superusers only.
func (s *ProfileService) UpdateProfile(ctx context.Context, identity auth.Identity, userID int64, req *dto.UpdateProfileRequest) (*models.Profile, error) {
	if !auth.CanManageProfiles(identity) {
		return nil, apperrors.NewForbiddenError("only superusers can edit other profiles")
	}
	return s.update(ctx, identity, userID, req)
}

func (s *ProfileService) update(ctx context.Context, identity auth.Identity, userID int64, req *dto.UpdateProfileRequest) (*models.Profile, error) {
	p, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if req.NotificationsOptOut != nil {
		p.NotificationsOptOut = *req.NotificationsOptOut
	}
	if req.AboutMe != nil {
		p.AboutMe = *req.AboutMe
	}
	if req.ProfilePicture != nil {
		p.ProfilePicture = *req.ProfilePicture
	}
	if req.IsOrganizer != nil && auth.CanManageProfiles(identity) {
		p.IsOrganizer = *req.IsOrganizer
	}
	return s.profiles.Save(ctx, p)
}

// SetOrganizer grants or revokes event creation; superusers only.
func (s *ProfileService) SetOrganizer(ctx context.Context, identity auth.Identity, userID int64, organizer bool) (*models.Profile, error) {
	if !auth.CanManageProfiles(identity) {
		return nil, apperrors.NewForbiddenError("only superusers can change organizer status")
	}
	p, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	p.IsOrganizer = organizer
	saved, err := s.profiles.Save(ctx, p)
	if err != nil {
		return nil, err
	}
	s.logger.Info().Int64("userId", userID).Bool("organizer", organizer).Int64("by", identity.UserID).Msg("Organizer status changed")
	return saved, nil
}

// UploadPicture stores a new profile picture for the caller and removes the previous file.
func (s *ProfileService) UploadPicture(ctx context.Context, identity auth.Identity, file *multipart.FileHeader) (*models.Profile, error) {
	if !identity.Authenticated {
		return nil, apperrors.ErrUnauthenticated
	}
	if s.storage == nil {
		return nil, apperrors.NewBadRequestError("file uploads are not enabled")
	}
	if file == nil {
		return nil, apperrors.NewValidationError("picture", "file is required")
	}

	p, err := s.load(ctx, identity.UserID)
	if err != nil {
		return nil, err
	}

	publicPath, err := s.storage.SaveFile(file, profilePictureDir)
	if err != nil {
		if errors.Is(err, filestorage.ErrUnsupportedType) {
			return nil, apperrors.NewValidationError("picture", err.Error())
		}
		return nil, err
	}

	previous := p.ProfilePicture
	p.ProfilePicture = publicPath
	saved, err := s.profiles.Save(ctx, p)
	if err != nil {
		if delErr := s.storage.DeleteFile(publicPath); delErr != nil {
			s.logger.Warn().Err(delErr).Str("path", publicPath).Msg("Failed to remove orphaned upload")
		}
		return nil, err
	}
	if previous != "" && previous != publicPath {
		if err := s.storage.DeleteFile(previous); err != nil {
			s.logger.Warn().Err(err).Str("path", previous).Msg("Failed to remove previous profile picture")
		}
	}
	return saved, nil
}
