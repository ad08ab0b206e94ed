package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seedProjectWithPages(t *testing.T, db *gorm.DB) (*Project, []StoryPage) {
	t.Helper()
	now := time.Now()
	project := &Project{
		ID: "proj-1", Title: "T", Genre: "Fantasy", Style: "Anime",
		Type: ProjectTypeStory, PageCount: 2, CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, CreateProject(db, project))
	pages := []StoryPage{
		{ID: "page-0", ProjectId: "proj-1", Idx: 0, ImagePrompt: "a castle", ImageURL: "https://cdn.test/0.png", Caption: "Once upon a time."},
		{ID: "page-1", ProjectId: "proj-1", Idx: 1, ImagePrompt: "a dragon", ImageURL: "https://cdn.test/1.png", Caption: "A dragon appeared."},
	}
	require.NoError(t, BatchCreatePages(db, pages))
	return project, pages
}

func TestUpdatePageFieldsCaptionOnly(t *testing.T) {
	db := newTestDB(t)
	project, _ := seedProjectWithPages(t, db)

	past := time.Now().Add(-time.Hour)
	require.NoError(t, db.Model(&Project{}).Where("id = ?", project.ID).
		Update("updated_at", past).Error)

	require.NoError(t, UpdatePageFields(db, "proj-1", "page-0", map[string]interface{}{
		"caption": "It was a dark night.",
	}))

	edited, err := GetPageByID(db, "proj-1", "page-0")
	require.NoError(t, err)
	assert.Equal(t, "It was a dark night.", edited.Caption)
	assert.Equal(t, "a castle", edited.ImagePrompt, "only the given field changes")
	assert.Equal(t, "https://cdn.test/0.png", edited.ImageURL)
	assert.Equal(t, 0, edited.Idx)

	// sibling page untouched, order preserved
	all, err := GetPagesByProjectID(db, "proj-1")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "page-0", all[0].ID)
	assert.Equal(t, "A dragon appeared.", all[1].Caption)

	// the owning project records the edit
	reloaded, err := GetProjectByID(db, project.ID)
	require.NoError(t, err)
	assert.True(t, reloaded.UpdatedAt.After(past), "project updated_at must bump on a page edit")
}

func TestUpdatePageFieldsRepeatedEdit(t *testing.T) {
	db := newTestDB(t)
	seedProjectWithPages(t, db)

	edit := map[string]interface{}{"caption": "Same words."}
	require.NoError(t, UpdatePageFields(db, "proj-1", "page-0", edit))
	require.NoError(t, UpdatePageFields(db, "proj-1", "page-0", map[string]interface{}{"caption": "Same words."}))

	page, err := GetPageByID(db, "proj-1", "page-0")
	require.NoError(t, err)
	assert.Equal(t, "Same words.", page.Caption)
	assert.Equal(t, "a castle", page.ImagePrompt)
}

func TestUpdatePageFieldsUnknownPage(t *testing.T) {
	db := newTestDB(t)
	seedProjectWithPages(t, db)

	err := UpdatePageFields(db, "proj-1", "no-such-page", map[string]interface{}{"caption": "x"})
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	// wrong project scoping also misses
	err = UpdatePageFields(db, "other-proj", "page-0", map[string]interface{}{"caption": "x"})
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
