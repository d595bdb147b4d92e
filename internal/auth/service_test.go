package auth

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/GorelikovMatvey/finalproject-Gorelikov-M25-555/internal/adapters/jsonstore"
	"github.com/GorelikovMatvey/finalproject-Gorelikov-M25-555/internal/domain"
)

func newTestService(t *testing.T) (*Service, *jsonstore.PortfolioStore) {
	t.Helper()
	dir := t.TempDir()
	users := jsonstore.NewUserStore(filepath.Join(dir, "users.json"))
	portfolios := jsonstore.NewPortfolioStore(filepath.Join(dir, "portfolios.json"))
	return NewService(users, portfolios, "USD", 4), portfolios
}

func TestRegister_CreatesUserAndPortfolio(t *testing.T) {
	svc, portfolios := newTestService(t)

	user, err := svc.Register("alice", "secret")
	require.NoError(t, err)
	require.Equal(t, 1, user.ID)
	require.Equal(t, "alice", user.Username)
	require.Len(t, user.Salt, saltBytes*2)
	require.Len(t, user.HashedPassword, 64)
	require.NotEqual(t, "secret", user.HashedPassword)
	require.NotEmpty(t, user.RegistrationDate)

	p, err := portfolios.Get(user.ID)
	require.NoError(t, err)
	require.Equal(t, "USD", p.BaseCurrency)
	require.True(t, p.BaseWallet().Balance.IsZero())
}

func TestRegister_RejectsShortPassword(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Register("alice", "abc")
	require.ErrorIs(t, err, ErrPasswordTooShort)
}

func TestRegister_RejectsEmptyUsername(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Register("   ", "secret")
	require.ErrorIs(t, err, ErrEmptyUsername)
}

func TestRegister_RejectsDuplicateUsername(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Register("alice", "secret")
	require.NoError(t, err)

	_, err = svc.Register("alice", "another")
	require.ErrorIs(t, err, domain.ErrUsernameTaken)
}

func TestRegister_SaltsAreUnique(t *testing.T) {
	svc, _ := newTestService(t)

	first, err := svc.Register("alice", "secret")
	require.NoError(t, err)
	second, err := svc.Register("bob", "secret")
	require.NoError(t, err)

	// Same password, different salt, different hash.
	require.NotEqual(t, first.Salt, second.Salt)
	require.NotEqual(t, first.HashedPassword, second.HashedPassword)
}

func TestLogin_RoundTrip(t *testing.T) {
	svc, _ := newTestService(t)

	registered, err := svc.Register("alice", "secret")
	require.NoError(t, err)

	user, err := svc.Login("alice", "secret")
	require.NoError(t, err)
	require.Equal(t, registered.ID, user.ID)
	require.Equal(t, "alice", user.Username)
}

func TestLogin_WrongPassword(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Register("alice", "secret")
	require.NoError(t, err)

	_, err = svc.Login("alice", "wrong")
	require.ErrorIs(t, err, domain.ErrInvalidPassword)
}

func TestLogin_UnknownUser(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Login("nobody", "secret")
	require.True(t, errors.Is(err, domain.ErrUserNotFound))
}

func TestHashPassword_Deterministic(t *testing.T) {
	require.Equal(t, hashPassword("secret", "abcd1234"), hashPassword("secret", "abcd1234"))
	require.NotEqual(t, hashPassword("secret", "abcd1234"), hashPassword("secret", "ffff0000"))
}
