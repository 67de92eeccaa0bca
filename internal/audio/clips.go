// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package audio

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/jeranaias/voicechat/internal/util"
)

// ClipStore writes recorded clips to a directory and hands out file://
// references the player understands.
type ClipStore struct {
	dir string
}

// NewClipStore stores clips under dir.
func NewClipStore(dir string) *ClipStore {
	return &ClipStore{dir: dir}
}

// Dir returns the clip directory.
func (s *ClipStore) Dir() string {
	return s.dir
}

// Save writes clip under a fresh name and returns its file:// URL.
func (s *ClipStore) Save(clip []byte) (string, error) {
	abs, err := filepath.Abs(filepath.Join(s.dir, uuid.NewString()+".wav"))
	if err != nil {
		return "", fmt.Errorf("resolve clip path: %w", err)
	}
	if err := util.WriteFileAtomic(abs, clip, 0600); err != nil {
		return "", fmt.Errorf("save clip: %w", err)
	}
	return FileURL(abs), nil
}

// Remove deletes the clip behind a URL returned by Save. A missing file is
// not an error.
func (s *ClipStore) Remove(fileURL string) error {
	path, err := LocalPath(fileURL)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove clip: %w", err)
	}
	return nil
}

// FileURL returns the file:// URL for an absolute path.
func FileURL(path string) string {
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(path)}
	return u.String()
}

// LocalPath returns the filesystem path of a file:// URL.
func LocalPath(fileURL string) (string, error) {
	u, err := url.Parse(fileURL)
	if err != nil {
		return "", fmt.Errorf("parse %q: %w", fileURL, err)
	}
	if u.Scheme != "file" {
		return "", errors.New("not a file URL: " + fileURL)
	}
	return filepath.FromSlash(u.Path), nil
}
