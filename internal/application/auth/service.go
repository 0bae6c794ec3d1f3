package auth

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"petadopt-backend/internal/application/notify"
	"petadopt-backend/internal/application/profiles"
	"petadopt-backend/internal/domain"
	"petadopt-backend/internal/middleware"
	"petadopt-backend/internal/pkg/validation"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	OTPPrefix     = "otp:"
	DefaultOTPTTL = 5 * time.Minute
	otpDigits     = 6
)

// Credentials is the sign-up and sign-in body.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Service owns auth identities, OTP codes and the per-user session index.
type Service struct {
	DB       *gorm.DB
	Rdb      *redis.Client
	Profiles *profiles.Service
	Notifier notify.Sender
	OTPTTL   time.Duration
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SignUp creates a password identity and its empty profile. It does not sign the user in.
func (s *Service) SignUp(ctx context.Context, in Credentials) (*domain.User, error) {
	email := normalizeEmail(in.Email)
	if email == "" || in.Password == "" {
		return nil, ErrEmailPasswordRequired
	}
	if !validation.IsValidEmail(email) {
		return nil, ErrInvalidEmailFormat
	}
	if !validation.IsValidPassword(in.Password) {
		return nil, ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := domain.User{Email: &email, PasswordHash: string(hash)}
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&domain.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrEmailTaken
		}
		if err := tx.Create(&user).Error; err != nil {
			if isUniqueViolation(err) {
				return ErrEmailTaken
			}
			return err
		}
		return s.Profiles.CreateDefault(ctx, tx, user.ID)
	})
	if err != nil {
		return nil, err
	}

	if s.Notifier != nil {
		if err := s.Notifier.SendWelcome(ctx, email); err != nil {
			log.Warn().Err(err).Str("user_id", user.ID.String()).Msg("auth: welcome email failed")
		}
	}
	return &user, nil
}

// SignIn verifies email and password.
func (s *Service) SignIn(ctx context.Context, in Credentials) (*domain.User, error) {
	email := normalizeEmail(in.Email)
	if email == "" || in.Password == "" {
		return nil, ErrEmailPasswordRequired
	}
	var u domain.User
	if err := s.DB.WithContext(ctx).Where("email = ?", email).Take(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidEmail
		}
		return nil, err
	}
	if u.PasswordHash == "" {
		return nil, ErrInvalidEmail
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(in.Password)); err != nil {
		return nil, ErrIncorrectPassword
	}
	return &u, nil
}

func (s *Service) otpTTL() time.Duration {
	if s.OTPTTL > 0 {
		return s.OTPTTL
	}
	return DefaultOTPTTL
}

func parsePhone(raw string) (string, error) {
	phone := validation.NormalizePhone(raw)
	if phone == "" {
		return "", ErrPhoneRequired
	}
	if !validation.IsValidPhone(phone) {
		return "", ErrInvalidPhone
	}
	return phone, nil
}

func generateOTP() (string, error) {
	max := big.NewInt(1_000_000)
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", otpDigits, n.Int64()), nil
}

// SendOTP stores a fresh code for the phone and texts it. A new request replaces the previous code.
func (s *Service) SendOTP(ctx context.Context, rawPhone string) error {
	phone, err := parsePhone(rawPhone)
	if err != nil {
		return err
	}
	code, err := generateOTP()
	if err != nil {
		return fmt.Errorf("generate otp: %w", err)
	}
	if err := s.Rdb.Set(ctx, OTPPrefix+phone, code, s.otpTTL()).Err(); err != nil {
		return fmt.Errorf("store otp: %w", err)
	}
	if s.Notifier == nil {
		return nil
	}
	if err := s.Notifier.SendOTP(ctx, phone, code); err != nil {
		s.Rdb.Del(ctx, OTPPrefix+phone)
		return fmt.Errorf("%w: %v", ErrOTPDelivery, err)
	}
	return nil
}

// VerifyOTP consumes the code and returns the phone identity, creating it on first use.
func (s *Service) VerifyOTP(ctx context.Context, rawPhone, token string) (*domain.User, error) {
	phone, err := parsePhone(rawPhone)
	if err != nil {
		return nil, err
	}
	token = strings.TrimSpace(token)
	if !validation.IsValidOTP(token) {
		return nil, ErrInvalidOTP
	}
	key := OTPPrefix + phone
	stored, err := s.Rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrInvalidOTP
	}
	if err != nil {
		return nil, fmt.Errorf("read otp: %w", err)
	}
	if subtle.ConstantTimeCompare([]byte(stored), []byte(token)) != 1 {
		return nil, ErrInvalidOTP
	}
	// One-shot: a concurrent verify that loses the delete race is rejected.
	deleted, err := s.Rdb.Del(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("consume otp: %w", err)
	}
	if deleted == 0 {
		return nil, ErrInvalidOTP
	}
	return s.findOrCreatePhoneUser(ctx, phone)
}

func (s *Service) findOrCreatePhoneUser(ctx context.Context, phone string) (*domain.User, error) {
	var u domain.User
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("phone = ?", phone).Take(&u).Error
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		u = domain.User{Phone: &phone}
		if err := tx.Create(&u).Error; err != nil {
			return err
		}
		return s.Profiles.CreateDefault(ctx, tx, u.ID)
	})
	if err != nil {
		return nil, fmt.Errorf("phone user: %w", err)
	}
	return &u, nil
}

// TrackSession indexes a session id under its user so all sessions can be found later.
func (s *Service) TrackSession(ctx context.Context, userID uuid.UUID, sessionID string) error {
	return s.Rdb.SAdd(ctx, middleware.UserSessionsPrefix+userID.String(), sessionID).Err()
}

// EndSession drops the stored session and its index entry.
func (s *Service) EndSession(ctx context.Context, userID string, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	pipe := s.Rdb.TxPipeline()
	if userID != "" {
		pipe.SRem(ctx, middleware.UserSessionsPrefix+userID, sessionID)
	}
	pipe.Del(ctx, middleware.SessionRedisPrefix+sessionID)
	_, err := pipe.Exec(ctx)
	return err
}

// SessionUserFor is the session shape of an identity.
func SessionUserFor(u *domain.User) middleware.SessionUser {
	return middleware.SessionUser{UserID: u.ID.String(), Email: u.Email, Phone: u.Phone}
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique") || strings.Contains(msg, "duplicate")
}
