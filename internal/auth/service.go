package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/GorelikovMatvey/finalproject-Gorelikov-M25-555/internal/adapters"
	"github.com/GorelikovMatvey/finalproject-Gorelikov-M25-555/internal/domain"
)

const saltBytes = 4

var (
	ErrEmptyUsername    = errors.New("username must not be empty")
	ErrPasswordTooShort = errors.New("password is too short")
)

// Service handles registration and login. A successful login returns the
// user to the caller; the service itself keeps no session state.
type Service struct {
	users      adapters.UserStore
	portfolios adapters.PortfolioStore

	baseCurrency      string
	minPasswordLength int
	now               func() time.Time
}

func NewService(users adapters.UserStore, portfolios adapters.PortfolioStore, baseCurrency string, minPasswordLength int) *Service {
	return &Service{
		users:             users,
		portfolios:        portfolios,
		baseCurrency:      strings.ToUpper(baseCurrency),
		minPasswordLength: minPasswordLength,
		now:               time.Now,
	}
}

// Register creates the account and its portfolio. The portfolio starts with
// a single empty wallet in the configured base currency.
func (s *Service) Register(username, password string) (domain.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return domain.User{}, ErrEmptyUsername
	}
	if len(password) < s.minPasswordLength {
		return domain.User{}, fmt.Errorf("%w: minimum %d characters", ErrPasswordTooShort, s.minPasswordLength)
	}

	salt, err := newSalt()
	if err != nil {
		return domain.User{}, fmt.Errorf("generate salt: %w", err)
	}

	user, err := s.users.Create(domain.User{
		Username:         username,
		HashedPassword:   hashPassword(password, salt),
		Salt:             salt,
		RegistrationDate: domain.FormatTime(s.now()),
	})
	if err != nil {
		return domain.User{}, err
	}

	if err := s.portfolios.Save(domain.NewPortfolio(user.ID, s.baseCurrency)); err != nil {
		return domain.User{}, fmt.Errorf("create portfolio: %w", err)
	}

	logrus.Infof("Registered user '%s' (id=%d)", user.Username, user.ID)
	return user, nil
}

// Login verifies the password against the stored salted hash.
func (s *Service) Login(username, password string) (domain.User, error) {
	user, err := s.users.FindByUsername(strings.TrimSpace(username))
	if err != nil {
		return domain.User{}, err
	}
	if hashPassword(password, user.Salt) != user.HashedPassword {
		return domain.User{}, domain.ErrInvalidPassword
	}
	logrus.Infof("User '%s' logged in", user.Username)
	return user, nil
}

func newSalt() (string, error) {
	buf := make([]byte, saltBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func hashPassword(password, salt string) string {
	sum := sha256.Sum256([]byte(password + salt))
	return hex.EncodeToString(sum[:])
}
