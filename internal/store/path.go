// Package store holds filesystem conventions for the local database.
package store

import (
	"os"
	"path/filepath"
)

// DefaultRoot returns the directory holding inkwell data.
// Defaults to ~/.inkwell, falls back to ./.inkwell if the home directory
// is unavailable.
func DefaultRoot() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		cwd, _ := os.Getwd()
		return filepath.Join(cwd, ".inkwell")
	}
	return filepath.Join(home, ".inkwell")
}

// DefaultDBPath returns the full path to the local note database.
func DefaultDBPath() string {
	return filepath.Join(DefaultRoot(), "notes.db")
}
