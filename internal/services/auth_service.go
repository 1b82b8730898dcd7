package services

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/adanyl0v/go-task-tracker/internal/models"
)

type authServiceImpl struct {
	logger             zerolog.Logger
	db                 *gorm.DB
	jwtIssuer          string
	jwtSigningKey      []byte
	jwtAccessTokenTTL  time.Duration
	jwtRefreshTokenTTL time.Duration
}

func NewAuthService(
	logger zerolog.Logger,
	db *gorm.DB,
	jwtIssuer string,
	jwtSigningKey []byte,
	jwtAccessTokenTTL time.Duration,
	jwtRefreshTokenTTL time.Duration,
) AuthService {
	return &authServiceImpl{
		logger:             logger,
		db:                 db,
		jwtIssuer:          jwtIssuer,
		jwtSigningKey:      jwtSigningKey,
		jwtAccessTokenTTL:  jwtAccessTokenTTL,
		jwtRefreshTokenTTL: jwtRefreshTokenTTL,
	}
}

func (s *authServiceImpl) Login(ctx context.Context, params LoginParams) (*LoginResult, error) {
	user := new(models.User)
	err := s.db.WithContext(ctx).
		Where("email = ?", params.Email).
		First(user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Error().
				Str("email", params.Email).
				Msg("user not found")
			return nil, ErrUserNotFound
		}

		s.logger.Error().
			Err(err).
			Str("email", params.Email).
			Msg("failed to select user by email")
		return nil, err
	}
	s.logger.Debug().
		Uint("user_id", user.ID).
		Str("email", user.Email).
		Msg("selected user")

	match, err := argon2id.ComparePasswordAndHash(params.Password, user.Password)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to compare password")
		return nil, err
	} else if !match {
		s.logger.Error().Msg("passwords do not match")
		return nil, ErrUserPasswordMismatch
	}

	var session *models.AuthSession
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("user_id = ?", user.ID).Delete(&models.AuthSession{})
		if result.Error != nil {
			return fmt.Errorf("failed to delete auth sessions: %w", result.Error)
		}
		s.logger.Debug().
			Uint("user_id", user.ID).
			Int64("affected", result.RowsAffected).
			Msg("deleted auth sessions by user id")

		session, err = s.createAuthSession(tx, user.ID, params.Fingerprint)
		return err
	})
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to open auth session")
		return nil, err
	}

	result, err := s.newLoginResult(session)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Uint("user_id", user.ID).
		Str("session_id", session.ID).
		Msg("logged in")
	return result, nil
}

func (s *authServiceImpl) Refresh(ctx context.Context, params RefreshParams) (*LoginResult, error) {
	session := new(models.AuthSession)
	err := s.db.WithContext(ctx).
		Where("refresh_token = ? AND fingerprint = ?", params.RefreshToken, params.Fingerprint).
		First(session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Error().Msg("auth session not found")
			return nil, ErrAuthSessionNotFound
		}

		s.logger.Error().
			Err(err).
			Msg("failed to select auth session by refresh token")
		return nil, err
	}

	if session.ExpiresAt.Before(time.Now()) {
		s.logger.Error().
			Str("session_id", session.ID).
			Time("expires_at", session.ExpiresAt).
			Msg("auth session expired")
		return nil, ErrAuthSessionExpired
	}

	refreshToken, err := s.generateRefreshToken()
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to generate refresh token")
		return nil, err
	}

	now := time.Now()
	session.RefreshToken = refreshToken
	session.ExpiresAt = now.Add(s.jwtRefreshTokenTTL)
	session.UpdatedAt = now

	err = s.db.WithContext(ctx).
		Model(&models.AuthSession{ID: session.ID}).
		Updates(map[string]any{
			"refresh_token": session.RefreshToken,
			"expires_at":    session.ExpiresAt,
			"updated_at":    session.UpdatedAt,
		}).Error
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to update auth session")
		return nil, err
	}
	s.logger.Debug().
		Str("session_id", session.ID).
		Time("expires_at", session.ExpiresAt).
		Msg("updated auth session")

	result, err := s.newLoginResult(session)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Uint("user_id", session.UserID).
		Str("session_id", session.ID).
		Msg("refreshed auth session")
	return result, nil
}

func (s *authServiceImpl) Register(ctx context.Context, params LoginParams) (*LoginResult, error) {
	passwordHash, err := argon2id.CreateHash(params.Password, argon2id.DefaultParams)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to hash password")
		return nil, err
	}

	user := &models.User{
		Email:    params.Email,
		Password: passwordHash,
	}

	var session *models.AuthSession
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Omit("Tasks").Create(user).Error
		if err != nil {
			return err
		}
		s.logger.Debug().
			Uint("user_id", user.ID).
			Str("email", user.Email).
			Msg("inserted user")

		session, err = s.createAuthSession(tx, user.ID, params.Fingerprint)
		return err
	})
	if err != nil {
		if isUniqueViolation(err) {
			s.logger.Error().
				Str("email", user.Email).
				Msg("user with this email already exists")
			return nil, ErrUserAlreadyExists
		}

		s.logger.Error().
			Err(err).
			Msg("failed to register user")
		return nil, err
	}

	result, err := s.newLoginResult(session)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Uint("user_id", user.ID).
		Str("session_id", session.ID).
		Msg("registered user")
	return result, nil
}

func (s *authServiceImpl) Logout(ctx context.Context, userID uint) error {
	result := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&models.AuthSession{})
	if result.Error != nil {
		s.logger.Error().
			Err(result.Error).
			Uint("user_id", userID).
			Msg("failed to delete auth sessions by user id")
		return result.Error
	}
	s.logger.Debug().
		Uint("user_id", userID).
		Int64("affected", result.RowsAffected).
		Msg("deleted auth sessions by user id")

	s.logger.Info().
		Uint("user_id", userID).
		Msg("logged out")
	return nil
}

func (s *authServiceImpl) GetAuthSessionByID(ctx context.Context, sessionID string) (*models.AuthSession, error) {
	session := new(models.AuthSession)
	err := s.db.WithContext(ctx).
		Where("id = ?", sessionID).
		First(session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Error().
				Str("session_id", sessionID).
				Msg("auth session not found")
			return nil, ErrAuthSessionNotFound
		}

		s.logger.Error().
			Err(err).
			Str("session_id", sessionID).
			Msg("failed to select auth session by id")
		return nil, err
	}
	s.logger.Debug().
		Str("session_id", session.ID).
		Time("expires_at", session.ExpiresAt).
		Msg("selected auth session by id")
	return session, nil
}

func (s *authServiceImpl) ParseJWTToken(token string) (*jwt.RegisteredClaims, error) {
	t, err := jwt.ParseWithClaims(
		token,
		&jwt.RegisteredClaims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return s.jwtSigningKey, nil
		},
		jwt.WithIssuer(s.jwtIssuer),
		jwt.WithIssuedAt(),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("token is expired: %w", err)
		}
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := t.Claims.(*jwt.RegisteredClaims)
	if !ok {
		return nil, errors.New("failed to parse token claims")
	}
	return claims, nil
}

func (s *authServiceImpl) createAuthSession(tx *gorm.DB, userID uint, fingerprint string) (*models.AuthSession, error) {
	sessionUUID, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session uuid: %w", err)
	}

	refreshToken, err := s.generateRefreshToken()
	if err != nil {
		return nil, err
	}

	session := &models.AuthSession{
		ID:           sessionUUID.String(),
		UserID:       userID,
		Fingerprint:  fingerprint,
		RefreshToken: refreshToken,
		ExpiresAt:    time.Now().Add(s.jwtRefreshTokenTTL),
	}
	err = tx.Create(session).Error
	if err != nil {
		return nil, fmt.Errorf("failed to insert auth session: %w", err)
	}
	s.logger.Debug().
		Str("session_id", session.ID).
		Time("expires_at", session.ExpiresAt).
		Msg("inserted auth session")
	return session, nil
}

func (s *authServiceImpl) newLoginResult(session *models.AuthSession) (*LoginResult, error) {
	accessToken, accessTokenExpiresAt, err := s.generateAccessToken(session)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to generate access token")
		return nil, err
	}

	return &LoginResult{
		UserID:                session.UserID,
		SessionID:             session.ID,
		AccessToken:           accessToken,
		AccessTokenExpiresAt:  accessTokenExpiresAt,
		RefreshToken:          session.RefreshToken,
		RefreshTokenExpiresAt: session.ExpiresAt,
	}, nil
}

func (s *authServiceImpl) generateRefreshToken() (string, error) {
	const length = 32
	bytes := make([]byte, length)
	_, err := rand.Read(bytes)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(bytes), nil
}

// The access token's subject is the auth session, its audience the user.
func (s *authServiceImpl) generateAccessToken(session *models.AuthSession) (string, time.Time, error) {
	tokenUUID, err := uuid.NewRandom()
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to generate id: %w", err)
	}

	now := time.Now()
	expiresAt := now.Add(s.jwtAccessTokenTTL)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ID:        tokenUUID.String(),
		Issuer:    s.jwtIssuer,
		Subject:   session.ID,
		Audience:  jwt.ClaimStrings{strconv.FormatUint(uint64(session.UserID), 10)},
		ExpiresAt: jwt.NewNumericDate(expiresAt),
		NotBefore: jwt.NewNumericDate(now),
		IssuedAt:  jwt.NewNumericDate(now),
	})

	signed, err := token.SignedString(s.jwtSigningKey)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expiresAt, nil
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}
