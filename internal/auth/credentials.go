package auth

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"

	apperrors "github.com/ayush/consciousday/backend/internal/errors"
	"github.com/ayush/consciousday/backend/internal/logger"
	"github.com/ayush/consciousday/backend/internal/models"
)

const (
	defaultPassword   = "demo123"
	defaultExpiryDays = 30
	defaultCookieKey  = "consciousday_key"
	defaultCookieName = "consciousday_cookie"
	defaultEmail      = "demo@example.com"
)

// CredentialStore is the YAML-backed user registry. Every mutation takes an
// exclusive lock on <path>.lock, re-reads the file and rewrites it whole, so
// the server and the admin CLI can share one file. Reads reload the file when
// its modification time or size no longer match the last read or write.
type CredentialStore struct {
	path                 string
	requirePreauthorized bool
	lock                 *flock.Flock

	mu    sync.RWMutex
	file  models.CredentialFile
	stamp fileStamp
}

type fileStamp struct {
	modTime time.Time
	size    int64
}

func statFile(path string) (fileStamp, bool) {
	fi, err := os.Stat(path)
	if err != nil {
		return fileStamp{}, false
	}
	return fileStamp{modTime: fi.ModTime(), size: fi.Size()}, true
}

// LoadCredentials reads the credential file at path. A missing, empty or
// unparsable file is replaced by the default demo admin record.
func LoadCredentials(path string, requirePreauthorized bool) (*CredentialStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create credentials dir: %w", err)
	}
	s := &CredentialStore{
		path:                 path,
		requirePreauthorized: requirePreauthorized,
		lock:                 flock.New(path + ".lock"),
	}

	err := s.mutate(func() error {
		file, ok, err := s.read()
		if err != nil {
			return err
		}
		if ok {
			s.file = file
			s.stamp, _ = statFile(s.path)
			return nil
		}
		if s.file, err = defaultCredentials(); err != nil {
			return err
		}
		logger.Info("writing default credentials", "path", s.path)
		return s.save()
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

// read parses the file on disk. ok is false when the file is missing, empty
// or unparsable; a corrupt file is moved aside to <path>.corrupt.
func (s *CredentialStore) read() (file models.CredentialFile, ok bool, err error) {
	data, err := os.ReadFile(s.path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		logger.Info("credential file missing", "path", s.path)
		return file, false, nil
	case err != nil:
		return file, false, fmt.Errorf("read credentials: %w", err)
	}

	if err := yaml.Unmarshal(data, &file); err != nil {
		logger.Warn("credential file unparsable, regenerating", "path", s.path, "error", err)
		if err := os.Rename(s.path, s.path+".corrupt"); err != nil {
			logger.Warn("could not keep corrupt credential file", "error", err)
		}
		return models.CredentialFile{}, false, nil
	}
	if len(file.Credentials.Usernames) == 0 {
		logger.Warn("credential file empty, regenerating", "path", s.path)
		return models.CredentialFile{}, false, nil
	}

	for name, u := range file.Credentials.Usernames {
		if u == nil {
			file.Credentials.Usernames[name] = &models.User{}
		}
	}
	return file, true, nil
}

// mutate runs fn holding both the in-process and the file lock.
func (s *CredentialStore) mutate(fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.lock.Lock(); err != nil {
		return fmt.Errorf("lock credentials: %w", err)
	}
	defer s.lock.Unlock()
	return fn()
}

// refresh picks up changes another process wrote since the last read. An
// unusable file keeps the in-memory copy, which the next save writes back.
// Callers hold the locks.
func (s *CredentialStore) refresh() error {
	file, ok, err := s.read()
	if err != nil {
		return err
	}
	if ok {
		s.file = file
		s.stamp, _ = statFile(s.path)
	}
	return nil
}

// reloadIfChanged refreshes the in-memory copy when another process rewrote
// the file. A missing file or a failed reload keeps the current copy.
func (s *CredentialStore) reloadIfChanged() {
	st, ok := statFile(s.path)
	if !ok {
		return
	}
	s.mu.RLock()
	same := st.modTime.Equal(s.stamp.modTime) && st.size == s.stamp.size
	s.mu.RUnlock()
	if same {
		return
	}
	if err := s.mutate(s.refresh); err != nil {
		logger.Warn("credential reload failed", "path", s.path, "error", err)
	}
}

func defaultCredentials() (models.CredentialFile, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(defaultPassword), bcrypt.DefaultCost)
	if err != nil {
		return models.CredentialFile{}, fmt.Errorf("hash default password: %w", err)
	}
	var file models.CredentialFile
	file.Credentials.Usernames = map[string]*models.User{
		models.DemoUsername: {
			Name:     "Demo User",
			Email:    defaultEmail,
			Password: string(hash),
			Role:     models.RoleAdmin,
		},
	}
	file.Cookie.ExpiryDays = defaultExpiryDays
	file.Cookie.Key = defaultCookieKey
	file.Cookie.Name = defaultCookieName
	file.Preauthorized.Emails = []string{defaultEmail}
	return file, nil
}

// save writes to a temp file in the same directory and renames it over the
// original. Callers hold the locks.
func (s *CredentialStore) save() error {
	data, err := yaml.Marshal(&s.file)
	if err != nil {
		return fmt.Errorf("encode credentials: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".credentials-*.yaml")
	if err != nil {
		return fmt.Errorf("create temp credentials: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write credentials: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod credentials: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync credentials: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close credentials: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace credentials: %w", err)
	}
	s.stamp, _ = statFile(s.path)
	return nil
}

func roleFor(username string, u *models.User) string {
	if u != nil && (u.Role == models.RoleAdmin || u.Role == models.RoleUser) {
		return u.Role
	}
	if username == models.DemoUsername {
		return models.RoleAdmin
	}
	return models.RoleUser
}

// RoleOf returns the role of username. Unknown and empty names are plain users.
func (s *CredentialStore) RoleOf(username string) string {
	s.reloadIfChanged()
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.roleOf(username)
}

func (s *CredentialStore) roleOf(username string) string {
	u, ok := s.file.Credentials.Usernames[username]
	if username == "" || !ok {
		return models.RoleUser
	}
	return roleFor(username, u)
}

func (s *CredentialStore) IsAdmin(username string) bool {
	return s.RoleOf(username) == models.RoleAdmin
}

// SetRole changes the role of username on behalf of acting.
func (s *CredentialStore) SetRole(acting, username, role string) error {
	return s.mutate(func() error {
		if err := s.refresh(); err != nil {
			return err
		}
		if s.roleOf(acting) != models.RoleAdmin {
			return apperrors.ErrPermissionDenied
		}
		if role != models.RoleAdmin && role != models.RoleUser {
			return apperrors.ErrInvalidRole
		}
		u, ok := s.file.Credentials.Usernames[username]
		if !ok {
			return apperrors.ErrUserNotFound
		}

		prev := u.Role
		u.Role = role
		if err := s.save(); err != nil {
			u.Role = prev
			return err
		}
		logger.Info("role changed", "by", acting, "user", username, "role", role)
		return nil
	})
}

// ClearAllUsers removes every record except the demo account and returns
// how many were removed.
func (s *CredentialStore) ClearAllUsers(acting string) (int, error) {
	removed := 0
	err := s.mutate(func() error {
		if err := s.refresh(); err != nil {
			return err
		}
		if s.roleOf(acting) != models.RoleAdmin {
			return apperrors.ErrPermissionDenied
		}

		prev := s.file.Credentials.Usernames
		kept := make(map[string]*models.User, 1)
		if demo, ok := prev[models.DemoUsername]; ok {
			kept[models.DemoUsername] = demo
		}
		s.file.Credentials.Usernames = kept
		if err := s.save(); err != nil {
			s.file.Credentials.Usernames = prev
			return err
		}
		removed = len(prev) - len(kept)
		return nil
	})
	if err != nil {
		return 0, err
	}
	logger.Info("users cleared", "by", acting, "removed", removed)
	return removed, nil
}

// Register adds a new plain user with a bcrypt-hashed password.
func (s *CredentialStore) Register(req models.RegisterRequest) (models.User, error) {
	username := strings.TrimSpace(req.Username)
	email := strings.TrimSpace(req.Email)
	if username == "" || email == "" || req.Password == "" {
		return models.User{}, apperrors.NewHTTPError(http.StatusBadRequest,
			"username, email and password are required", "VALIDATION_ERROR")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, fmt.Errorf("hash password: %w", err)
	}

	u := &models.User{
		Name:     strings.TrimSpace(req.Name),
		Email:    email,
		Password: string(hash),
		Role:     models.RoleUser,
	}
	var out models.User
	err = s.mutate(func() error {
		if err := s.refresh(); err != nil {
			return err
		}
		if _, ok := s.file.Credentials.Usernames[username]; ok {
			return apperrors.ErrUserExists
		}
		if s.requirePreauthorized && len(s.file.Preauthorized.Emails) > 0 &&
			!slices.Contains(s.file.Preauthorized.Emails, email) {
			return apperrors.ErrNotPreauthorized
		}

		if s.file.Credentials.Usernames == nil {
			s.file.Credentials.Usernames = map[string]*models.User{}
		}
		s.file.Credentials.Usernames[username] = u
		if err := s.save(); err != nil {
			delete(s.file.Credentials.Usernames, username)
			return err
		}
		out = publicUser(username, u)
		return nil
	})
	if err != nil {
		return models.User{}, err
	}
	logger.Info("user registered", "user", username)
	return out, nil
}

// Authenticate checks a username/password pair.
func (s *CredentialStore) Authenticate(username, password string) (models.User, error) {
	s.reloadIfChanged()
	s.mu.RLock()
	u, ok := s.file.Credentials.Usernames[username]
	var hash string
	if ok {
		hash = u.Password
	}
	s.mu.RUnlock()

	if !ok || bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return models.User{}, apperrors.ErrInvalidCredentials
	}
	return s.User(username)
}

// User returns the record for username without its hash.
func (s *CredentialStore) User(username string) (models.User, error) {
	s.reloadIfChanged()
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.file.Credentials.Usernames[username]
	if !ok {
		return models.User{}, apperrors.ErrUserNotFound
	}
	return publicUser(username, u), nil
}

func (s *CredentialStore) Exists(username string) bool {
	s.reloadIfChanged()
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.file.Credentials.Usernames[username]
	return ok
}

// Users lists every record sorted by username, without hashes.
func (s *CredentialStore) Users() []models.User {
	s.reloadIfChanged()
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.User, 0, len(s.file.Credentials.Usernames))
	for name, u := range s.file.Credentials.Usernames {
		out = append(out, publicUser(name, u))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out
}

// CookieName is the session cookie name configured in the file.
func (s *CredentialStore) CookieName() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.file.Cookie.Name == "" {
		return defaultCookieName
	}
	return s.file.Cookie.Name
}

// SessionTTL is the cookie lifetime configured in the file.
func (s *CredentialStore) SessionTTL() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	days := s.file.Cookie.ExpiryDays
	if days <= 0 {
		days = defaultExpiryDays
	}
	return time.Duration(days) * 24 * time.Hour
}

func publicUser(username string, u *models.User) models.User {
	return models.User{
		Username: username,
		Name:     u.Name,
		Email:    u.Email,
		Role:     roleFor(username, u),
	}
}
