// Package verification keeps the short-lived email login codes in Redis so
// they survive process restarts and are shared across server instances.
package verification

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taskify-dev/taskify-api/internal/constants"
)

var (
	ErrCodeExpired  = errors.New("verification code expired or never issued")
	ErrCodeMismatch = errors.New("verification code does not match")
)

// CodeStore issues and checks one-time email verification codes.
type CodeStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewCodeStore(rdb *redis.Client, ttl time.Duration) *CodeStore {
	if ttl <= 0 {
		ttl = constants.VerificationCodeTTL
	}
	return &CodeStore{
		rdb: rdb,
		ttl: ttl,
	}
}

// CodeKey returns the Redis key holding the pending code for an email.
func CodeKey(email string) string {
	return "taskify:verify:code:" + email
}

// VerifiedKey returns the Redis key marking a completed verification.
func VerifiedKey(email string) string {
	return "taskify:verify:ok:" + email
}

// IssueCode generates a fresh numeric code and stores it under the email
// with the configured expiry. Reissuing overwrites any pending code.
func (s *CodeStore) IssueCode(ctx context.Context, email string) (string, error) {
	code, err := generateCode(constants.VerificationCodeLength)
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}

	if err := s.rdb.Set(ctx, CodeKey(email), code, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("store code: %w", err)
	}
	return code, nil
}

// VerifyCode checks the submitted code. On success the pending code is
// consumed and a verified marker is left behind with the same expiry, to
// be redeemed by the next login attempt.
func (s *CodeStore) VerifyCode(ctx context.Context, email, code string) error {
	stored, err := s.rdb.Get(ctx, CodeKey(email)).Result()
	if errors.Is(err, redis.Nil) {
		return ErrCodeExpired
	}
	if err != nil {
		return fmt.Errorf("load code: %w", err)
	}
	if stored != code {
		return ErrCodeMismatch
	}

	if err := s.rdb.Del(ctx, CodeKey(email)).Err(); err != nil {
		return fmt.Errorf("consume code: %w", err)
	}
	if err := s.rdb.Set(ctx, VerifiedKey(email), "1", s.ttl).Err(); err != nil {
		return fmt.Errorf("mark verified: %w", err)
	}
	return nil
}

// IsVerified reports whether the email completed code verification
// recently enough for a login to proceed.
func (s *CodeStore) IsVerified(ctx context.Context, email string) (bool, error) {
	_, err := s.rdb.Get(ctx, VerifiedKey(email)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("load verified marker: %w", err)
	}
	return true, nil
}

// ClearVerified consumes the verified marker after a successful login.
func (s *CodeStore) ClearVerified(ctx context.Context, email string) error {
	if err := s.rdb.Del(ctx, VerifiedKey(email)).Err(); err != nil {
		return fmt.Errorf("clear verified marker: %w", err)
	}
	return nil
}

func generateCode(n int) (string, error) {
	if n <= 0 {
		return "", fmt.Errorf("invalid code length")
	}
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i := range buf {
		buf[i] = '0' + (buf[i] % 10)
	}
	return string(buf), nil
}
