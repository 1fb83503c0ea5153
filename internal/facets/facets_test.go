package facets

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terra-clan/project-explorer/internal/models"
	"github.com/terra-clan/project-explorer/internal/storage"
)

func newService() *Service {
	locations := []models.Location{
		{ID: "l2", DisplayName: "Oslo, Norway"},
		{ID: "l1", DisplayName: "Lima, Peru"},
	}
	challenges := []models.Challenge{
		{ID: "c1", Title: "Sky Watch", Description: "Track storms (Earth Science)"},
		{ID: "c2", Title: "Deep Dive", Description: "Map the ocean floor (Oceans) "},
		{ID: "c3", Title: "Rover", Description: "Drive on Mars (Robotics)"},
		{ID: "c4", Title: "Storm Two", Description: "More storms (Earth Science)"},
		{ID: "c5", Title: "No Theme", Description: "Just text"},
	}
	return NewService(storage.NewMemoryRepository(locations, challenges, nil))
}

func TestValues(t *testing.T) {
	s := newService()
	ctx := context.Background()

	got, err := s.Values(ctx, Challenges)
	require.NoError(t, err)
	assert.Equal(t, []string{"Deep Dive", "No Theme", "Rover", "Sky Watch", "Storm Two"}, got)

	got, err = s.Values(ctx, Locations)
	require.NoError(t, err)
	assert.Equal(t, []string{"Lima, Peru", "Oslo, Norway"}, got)

	got, err = s.Values(ctx, Themes)
	require.NoError(t, err)
	assert.Equal(t, []string{"Earth Science", "Oceans", "Robotics"}, got)
}

func TestValues_Unknown(t *testing.T) {
	_, err := newService().Values(context.Background(), "projects; DROP TABLE projects")
	assert.ErrorIs(t, err, ErrUnknownFacet)
}

func TestColumns(t *testing.T) {
	s := newService()

	cols, err := s.Columns(context.Background(), "locations")
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "display_name", "country"}, cols)

	for _, name := range []string{"sqlite_master", "Projects", "projects)--", ""} {
		_, err := s.Columns(context.Background(), name)
		assert.ErrorIs(t, err, ErrUnknownFacet, name)
	}
}

type brokenSource struct{ Source }

func (brokenSource) Challenges(ctx context.Context) ([]string, error) {
	return nil, errors.New("locked")
}

func TestValues_StoreError(t *testing.T) {
	_, err := NewService(brokenSource{}).Values(context.Background(), Challenges)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnknownFacet)
}
