package model

import (
	"os"
	"path/filepath"
)

func defaultCacheDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".kursbot-cache"
	}
	return filepath.Join(home, ".kursbot", "cache")
}

func defaultUnknownsDB() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "kursbot-unknowns.db"
	}
	return filepath.Join(home, ".kursbot", "unknowns.db")
}
