package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"lemiel/internal/model"
	"lemiel/internal/seed"
	"lemiel/internal/storage"
)

const admin = "lemiel_admin"

// failingBackend отказывает в сохранении, пока fail == true
type failingBackend struct {
	storage.Backend
	fail  bool
	saves int
}

func (b *failingBackend) Save(ctx context.Context, snap *model.Snapshot, sections ...model.Section) error {
	b.saves++
	if b.fail {
		return errors.New("disk full")
	}
	return b.Backend.Save(ctx, snap, sections...)
}

func fixedClock() func() time.Time {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time { return now }
}

func newTestState(t *testing.T) (*State, *failingBackend) {
	t.Helper()
	snap, err := seed.Parse(seed.Bundled())
	require.NoError(t, err)

	backend := &failingBackend{Backend: storage.NewMemory(zap.NewNop())}
	state, err := LoadState(context.Background(), snap, backend, zap.NewNop(), WithClock(fixedClock()))
	require.NoError(t, err)
	return state, backend
}

func validPlug() model.PlugInput {
	return model.PlugInput{
		Name:        "Nouveau",
		Departments: []string{"55"},
		Description: "Description",
		Telegram:    "https://t.me/nouveau",
	}
}

func TestState_AddPlugWritesOneAuditEntry(t *testing.T) {
	state, backend := newTestState(t)
	ctx := context.Background()

	plug, err := state.AddPlug(ctx, admin, validPlug())
	require.NoError(t, err)
	assert.Equal(t, 5, plug.ID)
	assert.Equal(t, 1, backend.saves)

	logs, err := state.Logs(admin, "all")
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, model.ActionAddPlug, logs[0].Action)
	assert.Equal(t, admin, logs[0].Admin)
	assert.Contains(t, logs[0].Details, "Nouveau")

	assert.Len(t, state.DepartmentPlugs("55"), 1)
}

func TestState_ForbiddenForNonAdmin(t *testing.T) {
	state, backend := newTestState(t)
	ctx := context.Background()

	_, err := state.AddPlug(ctx, "stranger", validPlug())
	assert.ErrorIs(t, err, model.ErrForbidden)

	_, err = state.DeletePlug(ctx, "stranger", 1)
	assert.ErrorIs(t, err, model.ErrForbidden)

	_, err = state.Logs("stranger", "")
	assert.ErrorIs(t, err, model.ErrForbidden)

	_, err = state.Export("stranger")
	assert.ErrorIs(t, err, model.ErrForbidden)

	assert.Equal(t, 0, backend.saves)
	assert.Len(t, state.UniquePlugs(), 4)
}

func TestState_AdminCheckIsCaseInsensitive(t *testing.T) {
	state, _ := newTestState(t)

	_, err := state.AddPlug(context.Background(), "@Lemiel_Admin", validPlug())
	assert.NoError(t, err)
}

func TestState_RollbackOnSaveFailure(t *testing.T) {
	state, backend := newTestState(t)
	ctx := context.Background()
	before := state.Snapshot()

	backend.fail = true

	_, err := state.AddPlug(ctx, admin, validPlug())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to persist state")

	_, err = state.DeleteDepartment(ctx, admin, "54")
	require.Error(t, err)

	assert.Equal(t, before, state.Snapshot())

	logs, err := state.Logs(admin, "")
	require.NoError(t, err)
	assert.Empty(t, logs)
}

func TestState_NotFoundLeavesNoAuditEntry(t *testing.T) {
	state, backend := newTestState(t)
	ctx := context.Background()

	_, err := state.DeletePlug(ctx, admin, 999)
	assert.ErrorIs(t, err, model.ErrNotFound)

	_, err = state.DeleteDepartment(ctx, admin, "99")
	assert.ErrorIs(t, err, model.ErrNotFound)

	_, err = state.ApproveReview(ctx, admin, 42)
	assert.ErrorIs(t, err, model.ErrNotFound)

	_, err = state.RemoveAdmin(ctx, admin, "ghost")
	assert.ErrorIs(t, err, model.ErrNotFound)

	logs, err := state.Logs(admin, "")
	require.NoError(t, err)
	assert.Empty(t, logs)
	assert.Equal(t, 0, backend.saves)
}

func TestState_Admins(t *testing.T) {
	state, _ := newTestState(t)
	ctx := context.Background()

	added, err := state.AddAdmin(ctx, admin, "@Second")
	require.NoError(t, err)
	assert.Equal(t, "Second", added)
	assert.True(t, state.IsAdmin("SECOND"))

	_, err = state.AddAdmin(ctx, admin, "second")
	assert.True(t, model.IsDuplicate(err))

	_, err = state.RemoveAdmin(ctx, admin, "@LEMIEL_ADMIN")
	assert.ErrorIs(t, err, model.ErrSelfRemoval)

	removed, err := state.RemoveAdmin(ctx, "second", admin)
	require.NoError(t, err)
	assert.Equal(t, admin, removed)
	assert.Equal(t, []string{"Second"}, state.Admins())

	logs, err := state.Logs("second", model.LogCategoryAdmin)
	require.NoError(t, err)
	assert.Len(t, logs, 2)
}

func TestState_ClearLogsLeavesSingleEntry(t *testing.T) {
	state, _ := newTestState(t)
	ctx := context.Background()

	_, err := state.AddDepartment(ctx, admin, "67", "Bas-Rhin", "")
	require.NoError(t, err)
	_, err = state.AddPlug(ctx, admin, validPlug())
	require.NoError(t, err)

	require.NoError(t, state.ClearLogs(ctx, admin))

	logs, err := state.Logs(admin, "")
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, model.ActionClearLogs, logs[0].Action)
	assert.Equal(t, admin, logs[0].Admin)
	assert.Contains(t, logs[0].Details, "2 entrées")

	_, err = state.Logs("visiteur", "")
	assert.ErrorIs(t, err, model.ErrForbidden)
	assert.ErrorIs(t, state.ClearLogs(ctx, "visiteur"), model.ErrForbidden)
}

func TestState_LogsByCategory(t *testing.T) {
	state, _ := newTestState(t)
	ctx := context.Background()

	_, err := state.AddDepartment(ctx, admin, "67", "Bas-Rhin", "")
	require.NoError(t, err)
	_, err = state.AddPlug(ctx, admin, validPlug())
	require.NoError(t, err)

	tests := []struct {
		name     string
		category string
		want     int
	}{
		{"все", "all", 2},
		{"пустая категория", "", 2},
		{"плаги", model.LogCategoryPlug, 1},
		{"департаменты", model.LogCategoryDepartment, 1},
		{"отзывы", model.LogCategoryReview, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logs, err := state.Logs(admin, tt.category)
			require.NoError(t, err)
			assert.Len(t, logs, tt.want)
		})
	}
}

func TestState_PersistedSectionsSurviveReload(t *testing.T) {
	snap, err := seed.Parse(seed.Bundled())
	require.NoError(t, err)

	ctx := context.Background()
	backend := storage.NewMemory(zap.NewNop())

	state, err := LoadState(ctx, snap, backend, zap.NewNop())
	require.NoError(t, err)
	_, err = state.AddPlug(ctx, admin, validPlug())
	require.NoError(t, err)

	reloaded, err := LoadState(ctx, snap, backend, zap.NewNop())
	require.NoError(t, err)
	assert.Len(t, reloaded.UniquePlugs(), 5)

	logs, err := reloaded.Logs(admin, "")
	require.NoError(t, err)
	assert.Len(t, logs, 1)
}

func TestState_DepartmentList(t *testing.T) {
	state, _ := newTestState(t)

	departments, counts := state.DepartmentList()
	require.Len(t, departments, 4)
	assert.Equal(t, "54", departments[0].Code)
	assert.Equal(t, 2, counts["54"])
	assert.Equal(t, 0, counts["55"])
	assert.Equal(t, 2, counts["57"])
}

func TestState_ExportJSON(t *testing.T) {
	state, _ := newTestState(t)

	data, err := state.Export(admin)
	require.NoError(t, err)

	parsed, err := seed.Parse(data)
	require.NoError(t, err)
	assert.Len(t, parsed.Departments, 4)
	assert.Equal(t, []string{admin}, parsed.Admins.Whitelist)
}
