// Package helpers contains few helpers functions which are used througout
// the project
package helpers

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// ProjectUserPath returns the directory in which the coverd files for the
// current user are stored. The database, the artwork store and the logs all
// live here. The directory is created when missing.
func ProjectUserPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("finding the user's home directory: %w", err)
	}

	path := filepath.Join(home, CoverdDir)
	if err := os.MkdirAll(path, 0755); err != nil {
		return "", err
	}

	return path, nil
}

// AbsolutePath returns path unchanged when it is absolute and joins it to
// base otherwise.
func AbsolutePath(path, base string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(base, path)
}

// SetLogsFile sets the logfile of the server
func SetLogsFile(appfs afero.Fs, logFilePath string) error {
	if err := appfs.MkdirAll(filepath.Dir(logFilePath), 0755); err != nil {
		return err
	}

	logFile, err := appfs.OpenFile(
		logFilePath,
		os.O_WRONLY|os.O_CREATE|os.O_APPEND,
		0644,
	)
	if err != nil {
		return fmt.Errorf("could not open logfile: %w", err)
	}

	log.SetOutput(logFile)
	return nil
}

// Copy copies a file from src to dst
func Copy(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()
	_, err = io.Copy(out, in)
	cerr := out.Close()
	if err != nil {
		return err
	}
	return cerr
}
