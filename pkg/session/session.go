package session

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/braunma/dem-console/internal/constants"
)

// ErrNoSession is returned when nobody is logged in
var ErrNoSession = errors.New("not logged in")

// Session is the DEM endpoint and credentials of the logged-in user
type Session struct {
	Address string `yaml:"address"`
	Port    int    `yaml:"port"`
	Token   string `yaml:"token"`
}

// New creates a session for user at address:port
func New(address string, port int, user, password string) Session {
	if port == 0 {
		port = constants.DefaultPort
	}
	return Session{Address: address, Port: port, Token: BasicToken(user, password)}
}

// BasicToken encodes user:password the way the DEM expects it
func BasicToken(user, password string) string {
	return base64.StdEncoding.EncodeToString([]byte(user + ":" + password))
}

// Valid reports whether the session can address a DEM
func (s Session) Valid() bool {
	return s.Address != "" && s.Port != 0
}

// BaseURL returns http://<address>:<port>/
func (s Session) BaseURL() string {
	return fmt.Sprintf("http://%s:%d/", s.Address, s.Port)
}

// Authorization returns the Authorization header value
func (s Session) Authorization() string {
	return "Basic " + s.Token
}

// Store persists the session in a YAML file readable only by its owner
type Store struct {
	path string
}

// NewStore creates a store backed by path
func NewStore(path string) *Store {
	return &Store{path: path}
}

// DefaultPath returns the session file below the user config directory
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate config directory: %w", err)
	}
	return filepath.Join(dir, "dem-console", "session.yaml"), nil
}

// Path returns the file backing the store
func (s *Store) Path() string {
	return s.path
}

// Load reads the saved session
func (s *Store) Load() (*Session, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session: %w", err)
	}

	var sess Session
	if err := yaml.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("failed to parse session %s: %w", s.path, err)
	}
	if !sess.Valid() {
		return nil, ErrNoSession
	}
	return &sess, nil
}

// Save writes the session, replacing any previous one
func (s *Store) Save(sess Session) error {
	data, err := yaml.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write session: %w", err)
	}
	return nil
}

// Clear removes the saved session. Clearing an empty store is not an error.
func (s *Store) Clear() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}
