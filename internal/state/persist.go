package state

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"letschat/internal/model"
)

// snapshot is the durable subset of store state: the session and the theme
// flag, nothing else.
type snapshot struct {
	Auth struct {
		UserID        string `toml:"user_id"`
		Email         string `toml:"email"`
		Name          string `toml:"name"`
		AvatarURL     string `toml:"avatar_url"`
		Authenticated bool   `toml:"authenticated"`
	} `toml:"auth"`
	DarkMode bool `toml:"dark_mode"`
}

func makeSnapshot(auth model.AuthState, darkMode bool) snapshot {
	var snap snapshot
	snap.DarkMode = darkMode
	snap.Auth.Authenticated = auth.Authenticated
	if auth.User != nil {
		snap.Auth.UserID = auth.User.ID
		snap.Auth.Email = auth.User.Email
		snap.Auth.Name = auth.User.Name
		snap.Auth.AvatarURL = auth.User.AvatarURL
	}
	return snap
}

func (s snapshot) authState() model.AuthState {
	if !s.Auth.Authenticated {
		return model.AuthState{}
	}
	return model.AuthState{
		User: &model.User{
			ID:        s.Auth.UserID,
			Email:     s.Auth.Email,
			Name:      s.Auth.Name,
			AvatarURL: s.Auth.AvatarURL,
		},
		Authenticated: true,
	}
}

// load reads a snapshot; a missing file is an empty snapshot, not an error.
func load(path string) (snapshot, error) {
	var snap snapshot
	if _, err := toml.DecodeFile(path, &snap); err != nil {
		if os.IsNotExist(err) {
			return snapshot{}, nil
		}
		return snapshot{}, err
	}
	return snap, nil
}

func save(path string, snap snapshot) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	encErr := toml.NewEncoder(f).Encode(snap)
	if closeErr := f.Close(); closeErr != nil && encErr == nil {
		return closeErr
	}
	return encErr
}
