package docs_test

import (
	"testing"

	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/docs"
	apperrors "github.com/Adithya-Monish-Kumar-K/docsearch/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	order := 2
	in := []docs.Record{
		{ID: " intro ", Title: " Introduction ", Tags: []string{"beginner", " ", ""}, Order: &order},
		{ID: "setup"},
	}

	out, err := docs.Normalize(in)
	require.NoError(t, err)

	require.Len(t, out, 2)
	assert.Equal(t, "intro", out[0].ID)
	assert.Equal(t, "Introduction", out[0].Title)
	assert.Equal(t, []string{"beginner"}, out[0].Tags)
	require.NotNil(t, out[0].Order)
	assert.Equal(t, 2, *out[0].Order)
	assert.Equal(t, "setup", out[1].Title, "title defaults to id")

	order = 5
	assert.Equal(t, 2, *out[0].Order, "order is copied")
}

func TestNormalize_Rejects(t *testing.T) {
	_, err := docs.Normalize([]docs.Record{{ID: "  "}})
	assert.ErrorIs(t, err, apperrors.ErrInvalidDocument)

	_, err = docs.Normalize([]docs.Record{{ID: "a"}, {ID: " a"}})
	assert.ErrorIs(t, err, apperrors.ErrDuplicateDocument)
}
