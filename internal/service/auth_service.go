package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/smpn3pacet/cbt-backend/internal/config"
	"github.com/smpn3pacet/cbt-backend/internal/model"
	"github.com/smpn3pacet/cbt-backend/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

// Common auth errors.
var (
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrSessionAlreadyActive = errors.New("another session is already active, please contact admin to reset")
	ErrUnknownRole          = errors.New("unknown staff role")
)

// TokenType distinguishes the three account kinds.
type TokenType string

const (
	TokenTypeStudent TokenType = "student"
	TokenTypeAdmin   TokenType = "admin"
	TokenTypeTeacher TokenType = "teacher"
)

// Claims extends JWT standard claims with app-specific fields.
type Claims struct {
	jwt.RegisteredClaims
	TokenType TokenType `json:"token_type"`
	UserID    int       `json:"user_id,omitempty"`   // Student only
	ClassName string    `json:"class_name,omitempty"` // Student only
	Category  string    `json:"category,omitempty"`  // Teacher only: Literasi or Numerasi
}

// AuthService handles authentication, JWT, and session management.
// Staff accounts (admin, two subject teachers) are role passwords stored as
// bcrypt hashes in app settings, not user rows.
type AuthService struct {
	cfg      *config.Config
	rdb      *redis.Client
	students *repository.StudentRepository
	settings *repository.SettingRepository
}

// NewAuthService creates a new AuthService.
func NewAuthService(cfg *config.Config, rdb *redis.Client, students *repository.StudentRepository, settings *repository.SettingRepository) *AuthService {
	return &AuthService{cfg: cfg, rdb: rdb, students: students, settings: settings}
}

// HashPassword hashes a password with the configured bcrypt cost.
// Default cost is 6 for high-concurrency performance. Adjustable via BCRYPT_COST env.
func (s *AuthService) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.BcryptCost)
	return string(hash), err
}

// CheckPassword compares a plaintext password against a bcrypt hash.
func (s *AuthService) CheckPassword(hash, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// LoginStudent authenticates a student by NISN and password and returns a
// signed token. A second login while a session is active is rejected.
func (s *AuthService) LoginStudent(ctx context.Context, nisn, password string) (string, *model.Student, error) {
	student, err := s.students.GetByNISN(ctx, nisn)
	if err != nil {
		return "", nil, ErrInvalidCredentials
	}
	if err := s.CheckPassword(student.PasswordHash, password); err != nil {
		return "", nil, err
	}

	token, err := s.generateStudentToken(ctx, student)
	if err != nil {
		return "", nil, err
	}
	return token, student, nil
}

// LoginStaff authenticates one of the fixed staff roles (admin, teacher
// literasi, teacher numerasi) against its settings-stored role password.
func (s *AuthService) LoginStaff(ctx context.Context, role, password string) (string, error) {
	var settingKey string
	var tokenType TokenType
	var category string

	switch role {
	case "admin":
		settingKey = model.SettingAdminPassword
		tokenType = TokenTypeAdmin
	case "teacher_literasi":
		settingKey = model.SettingTeacherLiterasiPassword
		tokenType = TokenTypeTeacher
		category = string(model.CategoryLiterasi)
	case "teacher_numerasi":
		settingKey = model.SettingTeacherNumerasiPassword
		tokenType = TokenTypeTeacher
		category = string(model.CategoryNumerasi)
	default:
		return "", ErrUnknownRole
	}

	setting, err := s.settings.GetByKey(ctx, settingKey)
	if err != nil {
		return "", ErrInvalidCredentials
	}
	if err := s.CheckPassword(setting.Value, password); err != nil {
		return "", err
	}

	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   role,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.JWTExpiry)),
		},
		TokenType: tokenType,
		Category:  category,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}

// generateStudentToken creates a JWT for a student and registers the session
// in Redis. Returns an error if a session already exists.
func (s *AuthService) generateStudentToken(ctx context.Context, student *model.Student) (string, error) {
	sessionKey := config.CacheKey.StudentSessionKey(student.ID)

	existing, err := s.rdb.Get(ctx, sessionKey).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return "", fmt.Errorf("check session: %w", err)
	}
	if existing != "" {
		return "", ErrSessionAlreadyActive
	}

	jti := uuid.New().String()
	now := time.Now()

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   strconv.Itoa(student.ID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.JWTExpiry)),
		},
		TokenType: TokenTypeStudent,
		UserID:    student.ID,
		ClassName: student.ClassName,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	if err := s.rdb.Set(ctx, sessionKey, jti, s.cfg.JWTExpiry).Err(); err != nil {
		return "", fmt.Errorf("store session: %w", err)
	}

	return signed, nil
}

// ValidateToken parses and validates a JWT, returning the claims.
func (s *AuthService) ValidateToken(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}

	return claims, nil
}

// ValidateStudentSession checks that the token's JTI matches the active session in Redis.
func (s *AuthService) ValidateStudentSession(ctx context.Context, studentID int, jti string) error {
	sessionKey := config.CacheKey.StudentSessionKey(studentID)
	stored, err := s.rdb.Get(ctx, sessionKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return errors.New("no active session")
		}
		return fmt.Errorf("check session: %w", err)
	}
	if stored != jti {
		return errors.New("session invalidated")
	}
	return nil
}

// ResetStudentSession removes a student's session from Redis, allowing a new login.
func (s *AuthService) ResetStudentSession(ctx context.Context, studentID int) error {
	sessionKey := config.CacheKey.StudentSessionKey(studentID)
	return s.rdb.Del(ctx, sessionKey).Err()
}
