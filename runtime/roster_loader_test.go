package runtime

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"zwift-team-view/domain"
	apperrors "zwift-team-view/errors"
)

func writeRoster(t *testing.T, name, content string) string {
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadRosterIDs(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		want    []domain.ParticipantID
	}{
		{
			name:    "json numbers",
			file:    "players.json",
			content: `{"users": [101, 102]}`,
			want:    []domain.ParticipantID{"101", "102"},
		},
		{
			name:    "json strings and numbers mixed",
			file:    "players.json",
			content: `{"users": ["5490", 12345678901]}`,
			want:    []domain.ParticipantID{"5490", "12345678901"},
		},
		{
			name:    "duplicates keep first occurrence",
			file:    "players.json",
			content: `{"users": [102, 101, 102]}`,
			want:    []domain.ParticipantID{"102", "101"},
		},
		{
			name:    "yaml",
			file:    "players.yaml",
			content: "users:\n  - 101\n  - \"102\"\n",
			want:    []domain.ParticipantID{"101", "102"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ids, err := LoadRosterIDs(writeRoster(t, tt.file, tt.content))
			require.NoError(t, err)
			require.Equal(t, tt.want, ids)
		})
	}
}

func TestLoadRosterIDs_Errors(t *testing.T) {
	req := require.New(t)

	_, err := LoadRosterIDs(writeRoster(t, "players.json", `{"users": []}`))
	req.ErrorIs(err, apperrors.ErrEmptyRoster)

	_, err = LoadRosterIDs(writeRoster(t, "players.json", `{"users": [101`))
	req.Error(err)

	_, err = LoadRosterIDs(writeRoster(t, "players.json", `{"users": [1.5]}`))
	req.Error(err)

	_, err = LoadRosterIDs(writeRoster(t, "players.json", `{"users": [{"id": 1}]}`))
	req.Error(err)

	_, err = LoadRosterIDs(filepath.Join(t.TempDir(), "missing.json"))
	req.Error(err)
}

func TestLoadRosterIDs_Rejects_Path_Like_IDs(t *testing.T) {
	for _, content := range []string{
		`{"users": ["../x"]}`,
		`{"users": [101, "a/b"]}`,
		`{"users": ["a\\b"]}`,
		`{"users": [".."]}`,
	} {
		t.Run(content, func(t *testing.T) {
			_, err := LoadRosterIDs(writeRoster(t, "players.json", content))
			require.Error(t, err)
		})
	}
}
