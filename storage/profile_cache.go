package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"zwift-team-view/contract"
	"zwift-team-view/domain"
)

var _ contract.ProfileCache = (*FileProfileCache)(nil)

// FileProfileCache keeps one JSON record per participant ({id}.json) next to the
// downloaded avatar images. The presence of the record is the cache hit test.
// Writes are not transactional: a crash mid-write can leave a truncated record,
// which Load then reports as an error.
type FileProfileCache struct {
	dir string
	log *slog.Logger
}

type diskProfile struct {
	Name      string `json:"name"`
	AvatarSrc string `json:"avatar_src"`
}

func NewFileProfileCache(dir string, log *slog.Logger) *FileProfileCache {
	return &FileProfileCache{dir: dir, log: log}
}

// EnsureDir creates the cache directory when missing.
func (c *FileProfileCache) EnsureDir() error {
	return os.MkdirAll(c.dir, 0o755)
}

func (c *FileProfileCache) Dir() string {
	return c.dir
}

func (c *FileProfileCache) recordPath(id domain.ParticipantID) string {
	return filepath.Join(c.dir, fmt.Sprintf("%s.json", id))
}

// AvatarPath is where an avatar with the given file name lives.
func (c *FileProfileCache) AvatarPath(name string) string {
	return filepath.Join(c.dir, name)
}

func (c *FileProfileCache) Load(id domain.ParticipantID) (domain.Profile, bool, error) {
	bytes, err := os.ReadFile(c.recordPath(id))
	if errors.Is(err, os.ErrNotExist) {
		return domain.Profile{}, false, nil
	}
	if err != nil {
		return domain.Profile{}, false, err
	}
	var record diskProfile
	if err = json.Unmarshal(bytes, &record); err != nil {
		return domain.Profile{}, false, fmt.Errorf("corrupt profile record %s: %w", c.recordPath(id), err)
	}
	return domain.Profile{ID: id, DisplayName: record.Name, AvatarPath: record.AvatarSrc}, true, nil
}

func (c *FileProfileCache) Save(profile domain.Profile) error {
	bytes, err := json.Marshal(diskProfile{Name: profile.DisplayName, AvatarSrc: profile.AvatarPath})
	if err != nil {
		return err
	}
	if err = os.WriteFile(c.recordPath(profile.ID), bytes, 0o644); err != nil {
		return err
	}
	c.log.Debug("Profile cached", "participant", profile.ID, "path", c.recordPath(profile.ID))
	return nil
}

func (c *FileProfileCache) HasAvatar(name string) bool {
	_, err := os.Stat(c.AvatarPath(name))
	return err == nil
}

func (c *FileProfileCache) SaveAvatar(name string, data []byte) (string, error) {
	path := c.AvatarPath(name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}
