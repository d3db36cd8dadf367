package content

import (
	"context"
	"testing"
	"time"

	"droidfolio/apperrors"
	"droidfolio/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) (*Service, *store.Memory) {
	t.Helper()
	st := store.NewMemory()
	svc := NewService(st)
	svc.now = func() time.Time { return time.UnixMilli(1_700_000_000_000) }
	return svc, st
}

func TestProjectsSeedOnce(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	first, err := svc.Projects(ctx)
	require.NoError(t, err)
	require.Len(t, first, 3)
	assert.Equal(t, "E-Commerce Dashboard", first[0].Title)
	assert.Equal(t, "Weather Web App", first[1].Title)
	assert.Equal(t, "Task Master", first[2].Title)
	assert.Equal(t, int64(1_700_000_000_000), first[0].CreatedAt)
	assert.Equal(t, first[0].CreatedAt-200000, first[2].CreatedAt)
	assert.Empty(t, first[1].PlayStoreURL)
	assert.Empty(t, first[2].GithubURL)

	second, err := svc.Projects(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestNoReseedAfterDeletingEverything(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	for _, id := range []string{"1", "2", "3"} {
		require.NoError(t, svc.DeleteProject(ctx, id))
	}

	projects, err := svc.Projects(ctx)
	require.NoError(t, err)
	assert.Empty(t, projects, "an empty stored list is not absent")
}

func TestSaveProjectUpsertsByID(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	projects, err := svc.Projects(ctx)
	require.NoError(t, err)

	edited := projects[1]
	edited.Title = "Weather Web App v2"

	_, err = svc.SaveProject(ctx, edited)
	require.NoError(t, err)
	_, err = svc.SaveProject(ctx, edited)
	require.NoError(t, err)

	after, err := svc.Projects(ctx)
	require.NoError(t, err)
	require.Len(t, after, 3, "saving the same id twice must not duplicate")
	assert.Equal(t, "Weather Web App v2", after[1].Title)
}

func TestResavingUnchangedProjectsKeepsStoredBytes(t *testing.T) {
	ctx := context.Background()
	svc, st := newTestService(t)

	projects, err := svc.Projects(ctx)
	require.NoError(t, err)
	before, err := st.Get(ctx, ProjectsKey)
	require.NoError(t, err)

	for _, p := range projects {
		_, err := svc.SaveProject(ctx, p)
		require.NoError(t, err)
	}
	after, err := st.Get(ctx, ProjectsKey)
	require.NoError(t, err)
	assert.Equal(t, string(before), string(after))

	input := Project{Title: "  Portfolio  ", Description: " Personal site ", TechStack: []string{"React"}}
	saved, err := svc.SaveProject(ctx, input)
	require.NoError(t, err)
	withNew, err := st.Get(ctx, ProjectsKey)
	require.NoError(t, err)

	// the same untrimmed input under the assigned id normalizes to the same record
	input.ID = saved.ID
	input.CreatedAt = saved.CreatedAt
	_, err = svc.SaveProject(ctx, input)
	require.NoError(t, err)
	again, err := st.Get(ctx, ProjectsKey)
	require.NoError(t, err)
	assert.Equal(t, string(withNew), string(again))
}

func TestSaveProjectAppendsNew(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	saved, err := svc.SaveProject(ctx, Project{
		Title:       "Portfolio API",
		Description: "Backend for this site.",
		TechStack:   []string{"Go"},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, saved.ID)
	assert.Equal(t, DefaultImageURL, saved.ImageURL)
	assert.Equal(t, int64(1_700_000_000_000), saved.CreatedAt)

	projects, err := svc.Projects(ctx)
	require.NoError(t, err)
	require.Len(t, projects, 4)
	assert.Equal(t, saved, projects[3])
}

func TestSaveProjectKeepsCreatedAt(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	saved, err := svc.SaveProject(ctx, Project{ID: "x", Title: "T", Description: "D", CreatedAt: 42})
	require.NoError(t, err)
	assert.Equal(t, int64(42), saved.CreatedAt)
	assert.Equal(t, []string{}, saved.TechStack)
}

func TestSaveProjectRequiresTitleAndDescription(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.SaveProject(context.Background(), Project{Title: "  ", Description: "D"})
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeValidationFailed))

	_, err = svc.SaveProject(context.Background(), Project{Title: "T"})
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeValidationFailed))
}

func TestDeleteUnknownProjectIsNoop(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	require.NoError(t, svc.DeleteProject(ctx, "does-not-exist"))
	projects, err := svc.Projects(ctx)
	require.NoError(t, err)
	assert.Len(t, projects, 3)
}

func TestTechnologiesSeedAndRoundTrip(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	techs, err := svc.Technologies(ctx)
	require.NoError(t, err)
	require.Len(t, techs, 17)
	assert.Equal(t, Technology{ID: "9", Name: "Web Sockets", Icon: "devicon-socketio-original colored"}, techs[8])

	added, err := svc.AddTechnology(ctx, "Go", "devicon-go-original-wordmark colored")
	require.NoError(t, err)
	again, err := svc.AddTechnology(ctx, "Go", "devicon-go-original-wordmark colored")
	require.NoError(t, err)
	assert.NotEqual(t, added.ID, again.ID, "every add gets a fresh id")

	require.NoError(t, svc.DeleteTechnology(ctx, added.ID))

	techs, err = svc.Technologies(ctx)
	require.NoError(t, err)
	require.Len(t, techs, 18)
	assert.Equal(t, again, techs[17])
}

func TestAddTechnologyRequiresFields(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.AddTechnology(context.Background(), "Go", "")
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeValidationFailed))
}

func TestSeedingDoesNotMutateDefaults(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	techs, err := svc.Technologies(ctx)
	require.NoError(t, err)
	techs[0].Name = "changed"

	assert.Equal(t, "HTML5", initialTechnologies[0].Name)
}
