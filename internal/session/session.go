// Package session persists the acting user between CLI runs as small
// JSON files under the config directory, the same way the record
// store is the source of truth for everything else.
package session

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"costy-calendar/internal/model"
)

// TTL is how long a stored session stays valid.
const TTL = 30 * 24 * time.Hour

const (
	sessionFile   = "session.json"
	lastTimesFile = "last_times.json"
)

type Session struct {
	User      model.User `json:"user"`
	Token     string     `json:"token"`
	ExpiresAt time.Time  `json:"expires_at"`
}

// TimeDefaults caches the last-used start/end times of day for the
// new-appointment form.
type TimeDefaults struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type Store struct {
	dir string
}

// DefaultDir returns ~/.costycal.
func DefaultDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".costycal")
}

func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Save stores the session with a fresh 30-day expiry.
func (s *Store) Save(u model.User, token string) error {
	sess := Session{User: u, Token: token, ExpiresAt: time.Now().Add(TTL)}
	return s.writeFile(sessionFile, sess)
}

// Current returns the stored session, or ok=false when none exists or
// it has expired. An expired file is removed.
func (s *Store) Current() (Session, bool) {
	var sess Session
	if err := s.readFile(sessionFile, &sess); err != nil {
		return Session{}, false
	}
	if time.Now().After(sess.ExpiresAt) {
		_ = s.Clear()
		return Session{}, false
	}
	return sess, true
}

func (s *Store) Clear() error {
	err := os.Remove(filepath.Join(s.dir, sessionFile))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// SaveLastTimes remembers the time-of-day pair for the next create.
func (s *Store) SaveLastTimes(d TimeDefaults) error {
	return s.writeFile(lastTimesFile, d)
}

// LastTimes returns the saved defaults, falling back to 09:00-10:00.
func (s *Store) LastTimes() TimeDefaults {
	d := TimeDefaults{}
	if err := s.readFile(lastTimesFile, &d); err != nil || d.Start == "" || d.End == "" {
		return TimeDefaults{Start: "09:00", End: "10:00"}
	}
	return d
}

func (s *Store) writeFile(name string, v any) error {
	if err := os.MkdirAll(s.dir, 0700); err != nil {
		return err
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(s.dir, name), b, 0600)
}

func (s *Store) readFile(name string, v any) error {
	b, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}
