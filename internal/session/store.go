// Package session persists the portal's authentication state between runs:
// the bearer tokens and the cached citizen/agency profile snapshots. It is
// the Go counterpart of the browser's localStorage keys, kept in a single
// JSON file under fixed field names.
package session

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/example/disaster-portal/internal/models"
)

type state struct {
	AccessToken  string          `json:"access_token,omitempty"`
	RefreshToken string          `json:"refresh_token,omitempty"`
	Citizen      *models.Citizen `json:"citizen_data,omitempty"`
	Agency       *models.Agency  `json:"agency_data,omitempty"`
}

type Store struct {
	mu   sync.RWMutex
	path string
	s    state
}

// Open loads the session file at path, treating a missing file as an
// empty (unauthenticated) session.
func Open(path string) (*Store, error) {
	st := &Store{path: path}
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return st, nil
		}
		return nil, err
	}
	if err := json.Unmarshal(b, &st.s); err != nil {
		// A corrupt session file is indistinguishable from logged-out;
		// start clean rather than refusing to boot.
		st.s = state{}
	}
	return st, nil
}

// AccessToken returns the persisted bearer token; empty means
// unauthenticated.
func (st *Store) AccessToken() string {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.s.AccessToken
}

func (st *Store) SetTokens(access, refresh string) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.s.AccessToken = access
	st.s.RefreshToken = refresh
	return st.save()
}

// Citizen returns the cached reporter snapshot, if one was stored at login.
func (st *Store) Citizen() (models.Citizen, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	if st.s.Citizen == nil {
		return models.Citizen{}, false
	}
	return *st.s.Citizen, true
}

func (st *Store) SetCitizen(c models.Citizen) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.s.Citizen = &c
	return st.save()
}

func (st *Store) Agency() (models.Agency, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	if st.s.Agency == nil {
		return models.Agency{}, false
	}
	return *st.s.Agency, true
}

func (st *Store) SetAgency(a models.Agency) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.s.Agency = &a
	return st.save()
}

// Clear drops every persisted key. Called on logout and when the backend
// reports the session expired.
func (st *Store) Clear() error {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.s = state{}
	return st.save()
}

func (st *Store) save() error {
	if err := os.MkdirAll(filepath.Dir(st.path), 0o700); err != nil {
		return err
	}
	b, err := json.MarshalIndent(st.s, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(st.path, b, 0o600)
}
