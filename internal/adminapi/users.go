// internal/adminapi/users.go
package adminapi

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"
)

const bcryptCost = 12

var (
	ErrUserExists   = errors.New("username already exists")
	ErrUserNotFound = errors.New("user not found")
	ErrLastAdmin    = errors.New("cannot delete the last admin")
)

// AdminUser is one operator account. Only the bcrypt hash is stored.
type AdminUser struct {
	Username     string `json:"username"`
	PasswordHash string `json:"password_hash"`
	CreatedAt    string `json:"created_at"`
}

// UserStore keeps admin accounts in a small JSON file, serialized by a
// mutex. The scale is a handful of operators, not a user database.
type UserStore struct {
	path string
	mu   sync.Mutex
}

type userDB struct {
	Users []AdminUser `json:"users"`
}

func NewUserStore(path string) (*UserStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	s := &UserStore{path: path}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := s.write(userDB{Users: []AdminUser{}}); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *UserStore) read() (userDB, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return userDB{}, err
	}
	var db userDB
	if err := json.Unmarshal(raw, &db); err != nil {
		return userDB{}, err
	}
	return db, nil
}

func (s *UserStore) write(db userDB) error {
	raw, err := json.MarshalIndent(db, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, raw, 0o600)
}

// EnsureDefault creates the default admin if no account with that username
// exists yet. Returns true when it created one.
func (s *UserStore) EnsureDefault(username, password string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	db, err := s.read()
	if err != nil {
		return false, err
	}
	for _, u := range db.Users {
		if u.Username == username {
			return false, nil
		}
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return false, err
	}
	db.Users = append(db.Users, AdminUser{
		Username:     username,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC().Format(time.RFC3339),
	})
	return true, s.write(db)
}

// Authenticate checks a credential pair against the store.
func (s *UserStore) Authenticate(username, password string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	db, err := s.read()
	if err != nil {
		return false
	}
	for _, u := range db.Users {
		if u.Username == username {
			return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
		}
	}
	return false
}

// List returns accounts without hashes.
func (s *UserStore) List() ([]AdminUser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	db, err := s.read()
	if err != nil {
		return nil, err
	}
	out := make([]AdminUser, 0, len(db.Users))
	for _, u := range db.Users {
		out = append(out, AdminUser{Username: u.Username, CreatedAt: u.CreatedAt})
	}
	return out, nil
}

func (s *UserStore) Create(username, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	db, err := s.read()
	if err != nil {
		return err
	}
	for _, u := range db.Users {
		if u.Username == username {
			return ErrUserExists
		}
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return err
	}
	db.Users = append(db.Users, AdminUser{
		Username:     username,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC().Format(time.RFC3339),
	})
	return s.write(db)
}

func (s *UserStore) Delete(username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	db, err := s.read()
	if err != nil {
		return err
	}
	if len(db.Users) <= 1 {
		return ErrLastAdmin
	}
	for i, u := range db.Users {
		if u.Username == username {
			db.Users = append(db.Users[:i], db.Users[i+1:]...)
			return s.write(db)
		}
	}
	return ErrUserNotFound
}
