package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"centsible/internal/game"
)

// Savegames are plain JSON state dumps under ~/.cents, so they can be
// inspected, backed up, or handed to another machine.

func baseDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(home, ".cents")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", err
	}
	return dir, nil
}

func savePath() (string, error) {
	dir, err := baseDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "save.json"), nil
}

func SaveGame(state game.PlayerState) (string, error) {
	path, err := savePath()
	if err != nil {
		return "", err
	}
	body, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, body, 0o600); err != nil {
		return "", err
	}
	return path, nil
}

func LoadGame() (game.PlayerState, error) {
	path, err := savePath()
	if err != nil {
		return game.PlayerState{}, err
	}
	body, err := os.ReadFile(path)
	if err != nil {
		return game.PlayerState{}, err
	}
	var state game.PlayerState
	if err := json.Unmarshal(body, &state); err != nil {
		return game.PlayerState{}, fmt.Errorf("parse savegame: %w", err)
	}
	if state.GameDate.IsZero() {
		return game.PlayerState{}, fmt.Errorf("savegame has no game date; refusing to load")
	}
	return state, nil
}

func ClearSave() error {
	path, err := savePath()
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	return os.Remove(path)
}
