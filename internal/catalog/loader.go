// Package catalog loads project catalogs from YAML fixture files.
//
// A fixture lists locations, challenges and projects. Projects reference
// locations and challenges by id; either reference may be omitted.
//
//	locations:
//	  - {id: loc-1, display_name: "Lima, Peru", country: Peru}
//	challenges:
//	  - {id: ch-1, title: Sky Watch, description: "Track storms (Earth Science)"}
//	projects:
//	  - {name: Storm Chasers, location: loc-1, challenge: ch-1, badges: "Winner", link: /teams/storm}
package catalog

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/terra-clan/project-explorer/internal/models"
)

// ErrInvalidFixture is wrapped by every validation failure
var ErrInvalidFixture = errors.New("invalid catalog fixture")

// Fixture is a complete catalog
type Fixture struct {
	Locations  []models.Location  `yaml:"locations"`
	Challenges []models.Challenge `yaml:"challenges"`
	Projects   []models.Project   `yaml:"projects"`
}

// LoadFromFile reads and validates a single fixture file
func LoadFromFile(path string) (*Fixture, error) {
	f, err := decodeFile(path)
	if err != nil {
		return nil, err
	}

	if err := f.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	slog.Info("catalog fixture loaded", "file", path,
		"projects", len(f.Projects), "locations", len(f.Locations), "challenges", len(f.Challenges))
	return f, nil
}

// decodeFile parses a fixture file without validating it
func decodeFile(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var f Fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse YAML in %s: %w", path, err)
	}
	return &f, nil
}

// LoadFromDir merges every *.yaml / *.yml fixture in dir, in file name order,
// and validates the merged catalog. Files may reference locations and
// challenges defined in other files.
func LoadFromDir(dir string) (*Fixture, error) {
	var files []string
	for _, pattern := range []string{"*.yaml", "*.yml"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, fmt.Errorf("failed to list fixtures: %w", err)
		}
		files = append(files, matches...)
	}
	sort.Strings(files)

	merged := &Fixture{}
	for _, file := range files {
		f, err := decodeFile(file)
		if err != nil {
			return nil, err
		}
		merged.Merge(f)
	}

	if err := merged.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", dir, err)
	}

	slog.Info("catalog fixtures loaded", "dir", dir, "files", len(files),
		"projects", len(merged.Projects), "locations", len(merged.Locations), "challenges", len(merged.Challenges))
	return merged, nil
}

// Merge appends other to f. Project ids of other are kept as written;
// Validate assigns ids to the ones left at zero.
func (f *Fixture) Merge(other *Fixture) {
	f.Locations = append(f.Locations, other.Locations...)
	f.Challenges = append(f.Challenges, other.Challenges...)
	f.Projects = append(f.Projects, other.Projects...)
}

// Validate checks required fields and references, then numbers projects
// without an id after the highest explicit one.
func (f *Fixture) Validate() error {
	locations := make(map[string]bool, len(f.Locations))
	for _, l := range f.Locations {
		if l.ID == "" {
			return fmt.Errorf("%w: location without id", ErrInvalidFixture)
		}
		if locations[l.ID] {
			return fmt.Errorf("%w: duplicate location %q", ErrInvalidFixture, l.ID)
		}
		locations[l.ID] = true
	}

	challenges := make(map[string]bool, len(f.Challenges))
	for _, c := range f.Challenges {
		if c.ID == "" {
			return fmt.Errorf("%w: challenge without id", ErrInvalidFixture)
		}
		if challenges[c.ID] {
			return fmt.Errorf("%w: duplicate challenge %q", ErrInvalidFixture, c.ID)
		}
		challenges[c.ID] = true
	}

	ids := make(map[int64]bool, len(f.Projects))
	var maxID int64
	for _, p := range f.Projects {
		if p.Name == "" {
			return fmt.Errorf("%w: project without name", ErrInvalidFixture)
		}
		if p.Link == "" {
			return fmt.Errorf("%w: project %q without link", ErrInvalidFixture, p.Name)
		}
		if p.LocationID != nil && !locations[*p.LocationID] {
			return fmt.Errorf("%w: project %q references unknown location %q", ErrInvalidFixture, p.Name, *p.LocationID)
		}
		if p.ChallengeID != nil && !challenges[*p.ChallengeID] {
			return fmt.Errorf("%w: project %q references unknown challenge %q", ErrInvalidFixture, p.Name, *p.ChallengeID)
		}
		if p.ID < 0 {
			return fmt.Errorf("%w: project %q has negative id", ErrInvalidFixture, p.Name)
		}
		if p.ID > 0 {
			if ids[p.ID] {
				return fmt.Errorf("%w: duplicate project id %d", ErrInvalidFixture, p.ID)
			}
			ids[p.ID] = true
			maxID = max(maxID, p.ID)
		}
	}

	for i := range f.Projects {
		if f.Projects[i].ID == 0 {
			maxID++
			f.Projects[i].ID = maxID
		}
	}
	return nil
}
