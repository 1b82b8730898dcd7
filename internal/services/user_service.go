package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/adanyl0v/go-task-tracker/internal/models"
)

type userServiceImpl struct {
	logger zerolog.Logger
	db     *gorm.DB
}

func NewUserService(
	logger zerolog.Logger,
	db *gorm.DB,
) UserService {
	return &userServiceImpl{
		logger: logger,
		db:     db,
	}
}

func (s *userServiceImpl) GetUserByID(ctx context.Context, userID uint) (*models.User, error) {
	user := new(models.User)
	err := s.db.WithContext(ctx).First(user, userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Error().
				Uint("user_id", userID).
				Msg("user not found")
			return nil, ErrUserNotFound
		}

		s.logger.Error().
			Err(err).
			Uint("user_id", userID).
			Msg("failed to select user by id")
		return nil, err
	}
	s.logger.Debug().
		Uint("user_id", user.ID).
		Msg("selected user by id")
	return user, nil
}

// GetUsersByIDs fails with ErrUserNotFound when any of the IDs is unknown.
// Duplicate IDs are collapsed.
func (s *userServiceImpl) GetUsersByIDs(ctx context.Context, userIDs []uint) ([]*models.User, error) {
	ids := uniqueIDs(userIDs)
	if len(ids) == 0 {
		return make([]*models.User, 0), nil
	}

	var users []*models.User
	err := s.db.WithContext(ctx).
		Preload("Tasks").
		Where("id IN ?", ids).
		Order("id").
		Find(&users).Error
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to select users by ids")
		return nil, err
	}

	if len(users) != len(ids) {
		s.logger.Error().
			Int("requested", len(ids)).
			Int("found", len(users)).
			Msg("some users not found")
		return nil, fmt.Errorf("%w: requested %d, found %d", ErrUserNotFound, len(ids), len(users))
	}
	s.logger.Debug().
		Int("count", len(users)).
		Msg("selected users by ids")
	return users, nil
}

func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
