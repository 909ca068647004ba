package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha512"
	"crypto/subtle"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/pbkdf2"

	"assetmanagement/internal/platform/db"
)

// KDF parameters. Changing any of them invalidates stored passcodes.
const (
	SaltSize   = 16
	KeySize    = 64
	Iterations = 100_000
)

const adminSubject = "admin"

var (
	ErrEmptyPasscode = errors.New("passcode is empty")
	ErrWrongPasscode = errors.New("passcode incorrect")
)

type Service struct {
	db         *sql.DB
	secret     []byte
	sessionTTL time.Duration
	now        func() time.Time
}

func NewService(conn *sql.DB, secret []byte, sessionTTL time.Duration) *Service {
	return &Service{
		db:         conn,
		secret:     secret,
		sessionTTL: sessionTTL,
		now:        time.Now,
	}
}

func deriveKey(passcode string, salt []byte) []byte {
	return pbkdf2.Key([]byte(passcode), salt, Iterations, KeySize, sha512.New)
}

func (s *Service) NewPasscode(ctx context.Context, passcode string) error {
	if passcode == "" {
		return ErrEmptyPasscode
	}
	salt := make([]byte, SaltSize)
	if _, err := rand.Read(salt); err != nil {
		return fmt.Errorf("generate salt: %w", err)
	}
	p := &Passcode{
		Salt: hex.EncodeToString(salt),
		Key:  hex.EncodeToString(deriveKey(passcode, salt)),
	}
	return db.RunInTx(ctx, s.db, nil, func(ctx context.Context, tx db.DBTX) error {
		if err := replacePasscodeTx(ctx, tx, p); err != nil {
			return fmt.Errorf("store passcode: %w", err)
		}
		return nil
	})
}

func (s *Service) ExistPasscode(ctx context.Context) (bool, error) {
	var n int
	err := db.ReadOnly(ctx, s.db, func(ctx context.Context, tx db.DBTX) error {
		var err error
		n, err = countPasscodesTx(ctx, tx)
		return err
	})
	if err != nil {
		return false, fmt.Errorf("count passcodes: %w", err)
	}
	return n > 0, nil
}

// false when nothing is configured
func (s *Service) ConfirmPasscode(ctx context.Context, passcode string) (bool, error) {
	var p *Passcode
	err := db.ReadOnly(ctx, s.db, func(ctx context.Context, tx db.DBTX) error {
		var err error
		p, err = latestPasscodeTx(ctx, tx)
		return err
	})
	if err != nil {
		return false, fmt.Errorf("load passcode: %w", err)
	}
	if p == nil {
		return false, nil
	}

	salt, err := hex.DecodeString(p.Salt)
	if err != nil {
		return false, fmt.Errorf("decode salt: %w", err)
	}
	want, err := hex.DecodeString(p.Key)
	if err != nil {
		return false, fmt.Errorf("decode key: %w", err)
	}
	got := deriveKey(passcode, salt)
	return subtle.ConstantTimeCompare(got, want) == 1, nil
}

func (s *Service) Login(ctx context.Context, passcode string) (string, time.Time, error) {
	ok, err := s.ConfirmPasscode(ctx, passcode)
	if err != nil {
		return "", time.Time{}, err
	}
	if !ok {
		return "", time.Time{}, ErrWrongPasscode
	}

	exp := s.now().Add(s.sessionTTL)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   adminSubject,
		IssuedAt:  jwt.NewNumericDate(s.now()),
		ExpiresAt: jwt.NewNumericDate(exp),
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, exp, nil
}

func (s *Service) Secret() []byte { return s.secret }
