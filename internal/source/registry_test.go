package source

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/revenue-tracker/internal/entity"
	"github.com/user/revenue-tracker/internal/repository"
)

func TestDefault(t *testing.T) {
	r := Default()
	all := r.All()
	require.Len(t, all, 11)
	assert.Equal(t, "techcrunch", all[0].ID)

	feeds := 0
	for _, s := range all {
		assert.NotEmpty(t, s.SearchPaths, s.ID)
		assert.NotEmpty(t, s.Hints.ArticleLink, s.ID)
		if s.HasFeed() {
			feeds++
		}
	}
	assert.Equal(t, 3, feeds)
}

func TestSelect(t *testing.T) {
	r := Default()

	got, err := r.Select([]string{"forbes", "axios"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "forbes", got[0].ID)
	assert.Equal(t, "axios", got[1].ID)

	_, err = r.Select([]string{"the_information"})
	assert.ErrorIs(t, err, repository.ErrNotFound)

	all, err := r.Select(nil)
	require.NoError(t, err)
	assert.Len(t, all, 11)
}

func TestDescriptorsAreCopies(t *testing.T) {
	r := Default()
	s, ok := r.Get("techcrunch")
	require.True(t, ok)
	s.SearchPaths[0] = "/mutated/"

	again, _ := r.Get("techcrunch")
	assert.Equal(t, "/startups/", again.SearchPaths[0])
}

func TestNewRegistry_Validation(t *testing.T) {
	_, err := NewRegistry([]entity.SourceDescriptor{{ID: "a", BaseURL: "https://a"}, {ID: "a", BaseURL: "https://b"}})
	assert.Error(t, err)

	_, err = NewRegistry([]entity.SourceDescriptor{{ID: "a"}})
	assert.Error(t, err)
}
