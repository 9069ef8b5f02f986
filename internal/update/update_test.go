package update

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"casterd/internal/models"
)

func ep(id string) models.Episode {
	return models.Episode{ID: id, Title: "Episode " + id}
}

func TestPolicyFor(t *testing.T) {
	assert.Equal(t, PolicyReplace, PolicyFor(models.TypePodbbang))
	assert.Equal(t, PolicyReplace, PolicyFor(models.TypeSpotify))
	assert.Equal(t, PolicyMerge, PolicyFor(models.TypeYouTube))
	assert.Equal(t, PolicyMerge, PolicyFor(models.TypePlaylist))
	assert.Equal(t, PolicyMerge, PolicyFor(models.TypeChannel))
}

func TestMerge_PrependsNovelEpisodes(t *testing.T) {
	existing := []models.Episode{ep("c"), ep("d")}
	fresh := []models.Episode{ep("a"), ep("b"), ep("c")}

	merged, n := Merge(existing, fresh)
	assert.Equal(t, 2, n)
	ids := make([]string, len(merged))
	for i, e := range merged {
		ids[i] = e.ID
	}
	assert.Equal(t, []string{"a", "b", "c", "d"}, ids)
}

func TestMerge_NothingNewReturnsExistingUntouched(t *testing.T) {
	existing := []models.Episode{ep("a"), ep("b")}
	fresh := []models.Episode{ep("b"), ep("a")}

	merged, n := Merge(existing, fresh)
	assert.Equal(t, 0, n)
	// same backing slice, so the caller can skip the write
	assert.Equal(t, &existing[0], &merged[0])
}

func TestMerge_EmptyExisting(t *testing.T) {
	merged, n := Merge(nil, []models.Episode{ep("a"), ep("b")})
	assert.Equal(t, 2, n)
	assert.Len(t, merged, 2)
}

func TestApply_ReplaceSwapsWholesale(t *testing.T) {
	existing := []models.Episode{ep("old1"), ep("old2"), ep("old3")}
	fresh := []models.Episode{ep("new1")}

	episodes, n, changed := Apply(PolicyReplace, existing, fresh)
	assert.True(t, changed)
	assert.Equal(t, 1, n)
	assert.Equal(t, fresh, episodes)
}

func TestApply_MergeUnchangedSignalsNoWrite(t *testing.T) {
	existing := []models.Episode{ep("a")}

	_, n, changed := Apply(PolicyMerge, existing, []models.Episode{ep("a")})
	assert.False(t, changed)
	assert.Equal(t, 0, n)
}
