package service

import (
	"context"
	"strings"

	"github.com/smpn3pacet/cbt-backend/internal/model"
	"github.com/smpn3pacet/cbt-backend/internal/repository"
)

// SettingService handles application settings. Role password values are
// stored as bcrypt hashes and never returned to clients.
type SettingService struct {
	settingRepo *repository.SettingRepository
	auth        *AuthService
}

// NewSettingService creates a new SettingService.
func NewSettingService(settingRepo *repository.SettingRepository, auth *AuthService) *SettingService {
	return &SettingService{settingRepo: settingRepo, auth: auth}
}

// isPasswordKey reports whether a setting key holds a role password hash.
func isPasswordKey(key string) bool {
	return strings.HasSuffix(key, "_password")
}

// GetAll returns all settings with password hashes masked.
func (s *SettingService) GetAll(ctx context.Context) ([]model.AppSetting, error) {
	settings, err := s.settingRepo.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]model.AppSetting, 0, len(settings))
	for _, setting := range settings {
		if isPasswordKey(setting.Key) {
			setting.Value = ""
		}
		out = append(out, setting)
	}
	return out, nil
}

// GetPublic returns the settings a login screen may show before any
// authentication: school identity only, never credentials.
func (s *SettingService) GetPublic(ctx context.Context) (map[string]string, error) {
	settings, err := s.settingRepo.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	public := make(map[string]string)
	for _, setting := range settings {
		switch setting.Key {
		case model.SettingSchoolName, model.SettingLoginTitle, model.SettingAcademicYear, model.SettingSemester:
			public[setting.Key] = setting.Value
		}
	}
	return public, nil
}

// UpdateBulk upserts settings. Password values arrive in plaintext and are
// hashed before the row is written; an empty password value is skipped so a
// bulk save does not wipe a credential.
func (s *SettingService) UpdateBulk(ctx context.Context, settings map[string]string) error {
	for key, value := range settings {
		if isPasswordKey(key) {
			if value == "" {
				continue
			}
			hashed, err := s.auth.HashPassword(value)
			if err != nil {
				return err
			}
			value = hashed
		}
		if err := s.settingRepo.Upsert(ctx, key, value); err != nil {
			return err
		}
	}
	return nil
}
