package runtime

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/samber/lo"
	"gopkg.in/yaml.v3"

	"zwift-team-view/domain"
	apperrors "zwift-team-view/errors"
)

type rosterFile struct {
	Users []any `json:"users" yaml:"users"`
}

// LoadRosterIDs reads the participant IDs of a roster file, e.g. {"users": [101, 102]}.
// Files ending in .yaml or .yml are read as YAML. IDs may be numbers or strings;
// duplicates are dropped, keeping the first occurrence.
func LoadRosterIDs(path string) ([]domain.ParticipantID, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading roster %s: %w", path, err)
	}

	var file rosterFile
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &file)
	default:
		decoder := json.NewDecoder(bytes.NewReader(data))
		decoder.UseNumber()
		err = decoder.Decode(&file)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing roster %s: %w", path, err)
	}

	ids := make([]domain.ParticipantID, 0, len(file.Users))
	for i, raw := range file.Users {
		id, err := toParticipantID(raw)
		if err != nil {
			return nil, fmt.Errorf("roster %s, entry %d: %w", path, i, err)
		}
		ids = append(ids, id)
	}
	ids = lo.Uniq(ids)
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrEmptyRoster, path)
	}
	return ids, nil
}

func toParticipantID(raw any) (domain.ParticipantID, error) {
	var id string
	switch v := raw.(type) {
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return "", fmt.Errorf("participant id %s is not an integer", v)
		}
		id = strconv.FormatInt(n, 10)
	case string:
		id = strings.TrimSpace(v)
	case int:
		id = strconv.Itoa(v)
	case int64:
		id = strconv.FormatInt(v, 10)
	case uint64:
		id = strconv.FormatUint(v, 10)
	case float64:
		if v != math.Trunc(v) {
			return "", fmt.Errorf("participant id %v is not an integer", v)
		}
		id = strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return "", fmt.Errorf("unsupported participant id %v (%T)", raw, raw)
	}
	if id == "" {
		return "", fmt.Errorf("empty participant id")
	}
	// IDs name cache files.
	if strings.ContainsAny(id, `/\`) || strings.Contains(id, "..") {
		return "", fmt.Errorf("participant id %q is not a valid file name", id)
	}
	return domain.ParticipantID(id), nil
}
