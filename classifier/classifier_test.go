package classifier

import (
	"context"
	"testing"

	"farmtrace/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisabledReportsUnavailable(t *testing.T) {
	_, err := Disabled{}.Analyze(context.Background(), "https://example.com/img.jpg", "Tomato")
	assert.ErrorIs(t, err, models.ErrClassificationUnavailable)
}

func TestHeuristicKnownCrop(t *testing.T) {
	a, err := Heuristic{}.Analyze(context.Background(), "https://example.com/img.jpg", "Tomato")
	require.NoError(t, err)
	assert.True(t, a.IsFruitOrVegetable)
	assert.Equal(t, "Very Fresh", a.Freshness)
	assert.Equal(t, "excellent", a.Quality)
}

func TestHeuristicUnknownCropFallsBack(t *testing.T) {
	a, err := Heuristic{}.Analyze(context.Background(), "https://example.com/img.jpg", "Dragonfruit")
	require.NoError(t, err)
	assert.True(t, a.IsFruitOrVegetable)
	assert.Equal(t, "good", a.Quality)
}

func TestHeuristicRequiresImage(t *testing.T) {
	_, err := Heuristic{}.Analyze(context.Background(), "", "Tomato")
	assert.ErrorIs(t, err, models.ErrClassificationUnavailable)
}

func TestForConfig(t *testing.T) {
	assert.IsType(t, Disabled{}, ForConfig(""))
	assert.IsType(t, Heuristic{}, ForConfig("some-key"))
}
