// Package settings persists per-user preferences in a single JSON file.
package settings

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/goccy/go-json"
	"github.com/xeptore/flaw/v8"

	"github.com/xeptore/tgsd/errutil"
	"github.com/xeptore/tgsd/must"
	"github.com/xeptore/tgsd/ptr"
)

const FileName = "settings.json"

type User struct {
	ShowCover *bool `json:"show_cover,omitempty"`
}

// DefaultShowCover applies to users who never changed the setting.
const DefaultShowCover = true

type Store struct {
	path  string
	mux   sync.Mutex
	users map[string]User
}

// Open loads the store kept in dir, starting empty when the file does not exist yet.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o0755); nil != err {
		flawP := flaw.P{"err_debug_tree": errutil.Tree(err).FlawP(), "dir": dir}
		return nil, flaw.From(fmt.Errorf("failed to create settings directory: %v", err)).Append(flawP)
	}

	s := &Store{path: filepath.Join(dir, FileName), mux: sync.Mutex{}, users: make(map[string]User)}
	data, err := os.ReadFile(s.path)
	if nil != err {
		if errors.Is(err, os.ErrNotExist) {
			return s, nil
		}
		flawP := flaw.P{"err_debug_tree": errutil.Tree(err).FlawP(), "path": s.path}
		return nil, flaw.From(fmt.Errorf("failed to read settings file: %v", err)).Append(flawP)
	}
	if err := json.Unmarshal(data, &s.users); nil != err {
		flawP := flaw.P{"err_debug_tree": errutil.Tree(err).FlawP(), "path": s.path}
		return nil, flaw.From(fmt.Errorf("failed to decode settings file: %v", err)).Append(flawP)
	}
	if nil == s.users {
		s.users = make(map[string]User)
	}
	return s, nil
}

func key(userID int64) string {
	return strconv.FormatInt(userID, 10)
}

func (s *Store) ShowCover(userID int64) bool {
	s.mux.Lock()
	defer s.mux.Unlock()
	return ptr.ValueOr(s.users[key(userID)].ShowCover, DefaultShowCover)
}

func (s *Store) SetShowCover(userID int64, show bool) error {
	s.mux.Lock()
	defer s.mux.Unlock()

	k := key(userID)
	prev, existed := s.users[k]
	u := prev
	u.ShowCover = ptr.Of(show)
	s.users[k] = u
	if err := s.save(); nil != err {
		if existed {
			s.users[k] = prev
		} else {
			delete(s.users, k)
		}
		return err
	}
	return nil
}

// Reset restores every setting of userID to its default.
func (s *Store) Reset(userID int64) error {
	s.mux.Lock()
	defer s.mux.Unlock()

	k := key(userID)
	prev, existed := s.users[k]
	if !existed {
		return nil
	}
	delete(s.users, k)
	if err := s.save(); nil != err {
		s.users[k] = prev
		return err
	}
	return nil
}

// save replaces the settings file atomically. Callers must hold mux.
func (s *Store) save() (err error) {
	data, err := json.MarshalIndent(s.users, "", "  ")
	if nil != err {
		flawP := flaw.P{"err_debug_tree": errutil.Tree(err).FlawP()}
		return flaw.From(fmt.Errorf("failed to encode settings: %v", err)).Append(flawP)
	}

	file, err := os.CreateTemp(filepath.Dir(s.path), FileName+".*.tmp")
	if nil != err {
		flawP := flaw.P{"err_debug_tree": errutil.Tree(err).FlawP()}
		return flaw.From(fmt.Errorf("failed to create temporary settings file: %v", err)).Append(flawP)
	}
	tmpPath := file.Name()
	defer func() {
		if nil != err {
			if removeErr := os.Remove(tmpPath); nil != removeErr && !errors.Is(removeErr, os.ErrNotExist) {
				flawP := flaw.P{"err_debug_tree": errutil.Tree(removeErr).FlawP(), "path": tmpPath}
				err = must.BeFlaw(err).Join(flaw.From(fmt.Errorf("failed to remove temporary settings file: %v", removeErr)).Append(flawP))
			}
		}
	}()

	if _, err := file.Write(data); nil != err {
		_ = file.Close()
		flawP := flaw.P{"err_debug_tree": errutil.Tree(err).FlawP(), "path": tmpPath}
		return flaw.From(fmt.Errorf("failed to write temporary settings file: %v", err)).Append(flawP)
	}
	if err := file.Sync(); nil != err {
		_ = file.Close()
		flawP := flaw.P{"err_debug_tree": errutil.Tree(err).FlawP(), "path": tmpPath}
		return flaw.From(fmt.Errorf("failed to sync temporary settings file: %v", err)).Append(flawP)
	}
	if err := file.Close(); nil != err {
		flawP := flaw.P{"err_debug_tree": errutil.Tree(err).FlawP(), "path": tmpPath}
		return flaw.From(fmt.Errorf("failed to close temporary settings file: %v", err)).Append(flawP)
	}
	if err := os.Rename(tmpPath, s.path); nil != err {
		flawP := flaw.P{"err_debug_tree": errutil.Tree(err).FlawP(), "old_path": tmpPath, "new_path": s.path}
		return flaw.From(fmt.Errorf("failed to replace settings file: %v", err)).Append(flawP)
	}
	return nil
}
