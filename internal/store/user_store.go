package store

import (
	"context"
	"errors"
	"time"

	"github.com/bugboard/api/internal/domain"
	"github.com/bugboard/api/internal/model"
	"gorm.io/gorm"
)

// UserStore is the credential store: user identity plus refresh tokens.
type UserStore struct {
	db *gorm.DB
}

func NewUserStore(db *gorm.DB) *UserStore {
	return &UserStore{db: db}
}

// Create registers a new user. Username and email must both be unique.
func (s *UserStore) Create(ctx context.Context, username, email, passwordHash string) (*model.User, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&model.User{}).Where("username = ?", username).Count(&count).Error; err != nil {
		return nil, domain.Storagef("check username", err)
	}
	if count > 0 {
		return nil, domain.ErrUsernameTaken
	}

	if err := s.db.WithContext(ctx).Model(&model.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, domain.Storagef("check email", err)
	}
	if count > 0 {
		return nil, domain.ErrEmailTaken
	}

	user := model.User{
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, domain.Storagef("create user", err)
	}

	return &user, nil
}

func (s *UserStore) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	var user model.User
	err := s.db.WithContext(ctx).Where("username = ?", username).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, domain.Storagef("find user", err)
	}
	return &user, nil
}

func (s *UserStore) FindByID(ctx context.Context, id int64) (*model.User, error) {
	var user model.User
	err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, domain.Storagef("find user", err)
	}
	return &user, nil
}

func (s *UserStore) ChangePassword(ctx context.Context, userID int64, newHash string) error {
	result := s.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", userID).
		Updates(map[string]interface{}{
			"password_hash": newHash,
			"updated_at":    time.Now(),
		})
	if result.Error != nil {
		return domain.Storagef("change password", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *UserStore) SaveRefreshToken(ctx context.Context, token *model.RefreshToken) error {
	if err := s.db.WithContext(ctx).Create(token).Error; err != nil {
		return domain.Storagef("save refresh token", err)
	}
	return nil
}

// FindRefreshToken returns the token only if it is unrevoked and unexpired.
func (s *UserStore) FindRefreshToken(ctx context.Context, token string) (*model.RefreshToken, error) {
	var rt model.RefreshToken
	err := s.db.WithContext(ctx).
		Where("token = ? AND revoked = ? AND expires_at > ?", token, false, time.Now()).
		First(&rt).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, domain.Storagef("find refresh token", err)
	}
	return &rt, nil
}

func (s *UserStore) RevokeRefreshToken(ctx context.Context, token string) error {
	err := s.db.WithContext(ctx).Model(&model.RefreshToken{}).
		Where("token = ?", token).Update("revoked", true).Error
	if err != nil {
		return domain.Storagef("revoke refresh token", err)
	}
	return nil
}
