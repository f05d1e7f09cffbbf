package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"lemiel/internal/config"
	"lemiel/internal/model"
)

func sampleSnapshot() *model.Snapshot {
	plug := model.Plug{
		ID:          1,
		Name:        "Atelier",
		Departments: []string{"54", "57"},
		Description: "Vélos",
		Telegram:    "https://t.me/atelier",
		Emoji:       "🚲",
		Image:       model.DefaultImage,
		Rating:      4.5,
		Active:      true,
	}
	return &model.Snapshot{
		Plugs: map[string][]model.Plug{
			"54": {plug},
			"57": {plug},
			"55": {},
		},
		Departments: map[string]model.Department{
			"54": {Code: "54", Name: "Meurthe-et-Moselle", Emoji: "🏰"},
		},
		Admins: &model.AdminsSection{Whitelist: []string{"Alice", "bob"}},
		Reviews: &model.ReviewsSection{
			Pending: []model.Review{{
				ID: 10, PlugID: 1, Username: "carol", Rating: 4, Comment: "bien",
				Date: time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC), Status: model.ReviewStatusPending,
			}},
			Approved: []model.Review{},
		},
		AdminLogs: []model.AdminLogEntry{{
			ID: 5, Timestamp: time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC),
			Admin: "Alice", Action: model.ActionAddPlug, Details: "Atelier",
			After: []byte(`{"id":1}`),
		}},
	}
}

// runBackendSuite проверяет общий контракт бэкендов
func runBackendSuite(t *testing.T, backend Backend) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, backend.Ping(ctx))

	empty, err := backend.Load(ctx)
	require.NoError(t, err)
	for _, section := range model.AllSections {
		assert.False(t, empty.Has(section), "section %s must be absent before first save", section)
	}

	snap := sampleSnapshot()
	require.NoError(t, backend.Save(ctx, snap, model.SectionPlugs, model.SectionAdmins))

	loaded, err := backend.Load(ctx)
	require.NoError(t, err)
	assert.True(t, loaded.Has(model.SectionPlugs))
	assert.True(t, loaded.Has(model.SectionAdmins))
	assert.False(t, loaded.Has(model.SectionDepartments))
	assert.False(t, loaded.Has(model.SectionReviews))

	require.Len(t, loaded.Plugs["54"], 1)
	assert.Equal(t, "Atelier", loaded.Plugs["57"][0].Name)
	assert.Equal(t, []string{"54", "57"}, loaded.Plugs["54"][0].Departments)
	assert.Empty(t, loaded.Plugs["55"])
	assert.Contains(t, loaded.Plugs, "55")
	assert.Equal(t, []string{"Alice", "bob"}, loaded.Admins.Whitelist)

	require.NoError(t, backend.Save(ctx, snap))
	loaded, err = backend.Load(ctx)
	require.NoError(t, err)
	require.Len(t, loaded.Reviews.Pending, 1)
	assert.Equal(t, "bien", loaded.Reviews.Pending[0].Comment)
	assert.True(t, snap.Reviews.Pending[0].Date.Equal(loaded.Reviews.Pending[0].Date))
	assert.Empty(t, loaded.Reviews.Approved)
	require.Len(t, loaded.AdminLogs, 1)
	assert.JSONEq(t, `{"id":1}`, string(loaded.AdminLogs[0].After))
	assert.Equal(t, "Meurthe-et-Moselle", loaded.Departments["54"].Name)

	// Перезапись раздела заменяет его целиком
	snap.Admins.Whitelist = []string{"dave"}
	require.NoError(t, backend.Save(ctx, snap, model.SectionAdmins))
	loaded, err = backend.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"dave"}, loaded.Admins.Whitelist)

	require.NoError(t, backend.Close())
}

func TestMemoryBackend(t *testing.T) {
	runBackendSuite(t, NewMemory(zap.NewNop()))
}

func TestFileBackend(t *testing.T) {
	backend, err := NewFile(t.TempDir(), zap.NewNop())
	require.NoError(t, err)
	runBackendSuite(t, backend)
}

func TestSQLiteBackend(t *testing.T) {
	backend, err := NewSQLite(filepath.Join(t.TempDir(), "lemiel.db"), zap.NewNop())
	require.NoError(t, err)
	runBackendSuite(t, backend)
}

func TestRedisBackend(t *testing.T) {
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR not set")
	}
	prefix := "lemiel_test_" + time.Now().Format("150405.000") + ":"
	backend, err := NewRedis(context.Background(), RedisOptions{Addr: addr, Prefix: prefix}, zap.NewNop())
	require.NoError(t, err)
	runBackendSuite(t, backend)
}

func TestPostgresBackend(t *testing.T) {
	dsn := os.Getenv("DB_TEST_DSN")
	if dsn == "" {
		t.Skip("DB_TEST_DSN not set")
	}
	backend, err := NewPostgres(context.Background(), PostgresOptions{DSN: dsn, MaxRetries: 1}, zap.NewNop())
	require.NoError(t, err)
	runBackendSuite(t, backend)
}

func TestKVBackend_MalformedSectionIsSkipped(t *testing.T) {
	kv := NewMemoryKV()
	ctx := context.Background()
	require.NoError(t, kv.Set(ctx, model.SectionPlugs.String(), []byte(`{"54": [`)))
	require.NoError(t, kv.Set(ctx, model.SectionAdmins.String(), []byte(`{"whitelist":["alice"]}`)))

	backend := NewKVBackend("memory", kv, zap.NewNop())
	snap, err := backend.Load(ctx)
	require.NoError(t, err)
	assert.False(t, snap.Has(model.SectionPlugs))
	assert.Equal(t, []string{"alice"}, snap.Admins.Whitelist)
}

func TestFileBackend_WritesOneFilePerSection(t *testing.T) {
	dir := t.TempDir()
	backend, err := NewFile(dir, zap.NewNop())
	require.NoError(t, err)

	require.NoError(t, backend.Save(context.Background(), sampleSnapshot()))

	kv := &FileKV{dir: dir, logger: zap.NewNop()}
	m, err := kv.readManifest()
	require.NoError(t, err)
	assert.Equal(t, int64(1), m.Generation)
	for _, section := range model.AllSections {
		name, ok := m.Files[section.String()]
		require.True(t, ok, section.String())
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err, section.String())
	}
}

func TestFileBackend_FailedSaveKeepsPreviousGeneration(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	backend, err := NewFile(dir, zap.NewNop())
	require.NoError(t, err)

	snap := sampleSnapshot()
	require.NoError(t, backend.Save(ctx, snap))

	// Раздел плагов второго поколения записать нельзя: на его месте непустой каталог.
	// Журнал сортируется раньше и успевает записаться до ошибки.
	blocked := filepath.Join(dir, model.SectionPlugs.String()+".2.json")
	require.NoError(t, os.MkdirAll(filepath.Join(blocked, "busy"), 0o755))

	changed := sampleSnapshot()
	changed.Plugs["54"][0].Name = "Atelier modifié"
	changed.AdminLogs = append(changed.AdminLogs, model.AdminLogEntry{
		ID: 6, Timestamp: time.Date(2025, 3, 15, 9, 0, 0, 0, time.UTC),
		Admin: "Alice", Action: model.ActionAddPlug, Details: "Atelier modifié",
	})
	err = backend.Save(ctx, changed, model.SectionAdminLogs, model.SectionPlugs)
	require.Error(t, err)

	loaded, err := backend.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Atelier", loaded.Plugs["54"][0].Name)
	assert.Len(t, loaded.AdminLogs, 1)

	_, err = os.Stat(filepath.Join(dir, model.SectionAdminLogs.String()+".2.json"))
	assert.True(t, os.IsNotExist(err), "written files of a failed generation must be removed")

	// После устранения причины следующая запись проходит целиком
	require.NoError(t, os.RemoveAll(blocked))
	require.NoError(t, backend.Save(ctx, changed, model.SectionAdminLogs, model.SectionPlugs))

	loaded, err = backend.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Atelier modifié", loaded.Plugs["54"][0].Name)
	assert.Len(t, loaded.AdminLogs, 2)
}

func TestFileBackend_ReadsUnversionedSections(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, model.SectionAdmins.String()+".json"),
		[]byte(`{"whitelist":["alice"]}`), 0o644))

	backend, err := NewFile(dir, zap.NewNop())
	require.NoError(t, err)

	snap, err := backend.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"alice"}, snap.Admins.Whitelist)
}

func TestOpen(t *testing.T) {
	backend, err := Open(context.Background(), &config.Config{StorageDriver: config.DriverMemory}, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "memory", backend.Name())

	backend, err = Open(context.Background(), &config.Config{StorageDriver: config.DriverFile, AppDataDir: t.TempDir()}, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "file", backend.Name())

	_, err = Open(context.Background(), &config.Config{StorageDriver: "etcd"}, zap.NewNop())
	assert.Error(t, err)
}

func TestEncodeSection_AbsentValuesAreEmpty(t *testing.T) {
	data, err := EncodeSection(&model.Snapshot{}, model.SectionReviews)
	require.NoError(t, err)
	assert.JSONEq(t, `{"pending":[],"approved":[]}`, string(data))

	data, err = EncodeSection(&model.Snapshot{}, model.SectionAdmins)
	require.NoError(t, err)
	assert.JSONEq(t, `{"whitelist":[]}`, string(data))
}
