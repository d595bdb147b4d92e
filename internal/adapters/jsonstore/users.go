package jsonstore

import (
	"sync"

	"github.com/GorelikovMatvey/finalproject-Gorelikov-M25-555/internal/domain"
)

type userDoc struct {
	UserID           int    `json:"user_id"`
	Username         string `json:"username"`
	HashedPassword   string `json:"hashed_password"`
	Salt             string `json:"salt"`
	RegistrationDate string `json:"registration_date"`
}

// UserStore persists accounts as a JSON array in users.json.
type UserStore struct {
	mu   sync.Mutex
	path string
}

func NewUserStore(path string) *UserStore {
	return &UserStore{path: path}
}

// Create assigns the next sequential id and appends the user. Username
// uniqueness is enforced here, inside the store lock.
func (s *UserStore) Create(user domain.User) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users := s.load()
	for _, u := range users {
		if u.Username == user.Username {
			return domain.User{}, domain.ErrUsernameTaken
		}
	}

	user.ID = len(users) + 1
	users = append(users, toUserDoc(user))
	if err := writeAtomic(s.path, users); err != nil {
		return domain.User{}, err
	}
	return user, nil
}

func (s *UserStore) FindByUsername(username string) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.load() {
		if u.Username == username {
			return fromUserDoc(u), nil
		}
	}
	return domain.User{}, domain.ErrUserNotFound
}

func (s *UserStore) load() []userDoc {
	var users []userDoc
	if !readDocument(s.path, &users) {
		return nil
	}
	return users
}

func toUserDoc(u domain.User) userDoc {
	return userDoc{
		UserID:           u.ID,
		Username:         u.Username,
		HashedPassword:   u.HashedPassword,
		Salt:             u.Salt,
		RegistrationDate: u.RegistrationDate,
	}
}

func fromUserDoc(d userDoc) domain.User {
	return domain.User{
		ID:               d.UserID,
		Username:         d.Username,
		HashedPassword:   d.HashedPassword,
		Salt:             d.Salt,
		RegistrationDate: d.RegistrationDate,
	}
}
