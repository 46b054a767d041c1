package postgres

import (
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"
)

func TestLoadMigrationsFromFS_SortsAndPairs(t *testing.T) {
	fsys := fstest.MapFS{
		"sql/migrations/0002_second.up.sql":   {Data: []byte("SELECT 2;")},
		"sql/migrations/0002_second.down.sql": {Data: []byte("SELECT -2;")},
		"sql/migrations/0001_first.up.sql":    {Data: []byte("SELECT 1;")},
		"sql/migrations/0001_first.down.sql":  {Data: []byte("SELECT -1;")},
	}

	migrations, err := loadMigrationsFromFS(fsys)
	require.NoError(t, err)
	require.Len(t, migrations, 2)
	require.Equal(t, int64(1), migrations[0].Version)
	require.Equal(t, "first", migrations[0].Name)
	require.Equal(t, "SELECT 1;", migrations[0].UpSQL)
	require.Equal(t, "SELECT -1;", migrations[0].DownSQL)
	require.Equal(t, int64(2), migrations[1].Version)
}

func TestLoadMigrationsFromFS_Errors(t *testing.T) {
	tests := []struct {
		name    string
		fsys    fstest.MapFS
		wantErr string
	}{
		{
			name:    "empty",
			fsys:    fstest.MapFS{},
			wantErr: "no migration files found",
		},
		{
			name: "missing down",
			fsys: fstest.MapFS{
				"sql/migrations/0001_first.up.sql": {Data: []byte("SELECT 1;")},
			},
			wantErr: "both up and down",
		},
		{
			name: "bad file name",
			fsys: fstest.MapFS{
				"sql/migrations/first.sql": {Data: []byte("SELECT 1;")},
			},
			wantErr: "invalid migration file name",
		},
		{
			name: "empty body",
			fsys: fstest.MapFS{
				"sql/migrations/0001_first.up.sql":   {Data: []byte("  ")},
				"sql/migrations/0001_first.down.sql": {Data: []byte("SELECT -1;")},
			},
			wantErr: "migration file is empty",
		},
		{
			name: "name mismatch",
			fsys: fstest.MapFS{
				"sql/migrations/0001_first.up.sql":   {Data: []byte("SELECT 1;")},
				"sql/migrations/0001_other.down.sql": {Data: []byte("SELECT -1;")},
			},
			wantErr: "name mismatch",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loadMigrationsFromFS(tt.fsys)
			require.Error(t, err)
			require.True(t, strings.Contains(err.Error(), tt.wantErr), err.Error())
		})
	}
}

func TestLoadMigrationsFromFS_EmbeddedSet(t *testing.T) {
	migrations, err := loadMigrationsFromFS(migrationsFS)
	require.NoError(t, err)
	require.NotEmpty(t, migrations)
	require.Equal(t, "activity_events", migrations[0].Name)
}

func TestPlanMigrations(t *testing.T) {
	all := []migration{{Version: 1}, {Version: 2}, {Version: 3}}

	up, err := planMigrations(all, map[int64]bool{1: true}, DirectionUp, 0)
	require.NoError(t, err)
	require.Equal(t, []int64{2, 3}, versions(up))

	upOne, err := planMigrations(all, map[int64]bool{}, DirectionUp, 1)
	require.NoError(t, err)
	require.Equal(t, []int64{1}, versions(upOne))

	down, err := planMigrations(all, map[int64]bool{1: true, 2: true}, DirectionDown, 1)
	require.NoError(t, err)
	require.Equal(t, []int64{2}, versions(down))

	_, err = planMigrations(all, map[int64]bool{9: true}, DirectionDown, 1)
	require.ErrorContains(t, err, "unknown migration version 9")

	_, err = planMigrations(all, nil, Direction("sideways"), 0)
	require.ErrorContains(t, err, "unsupported migration direction")
}

func versions(ms []migration) []int64 {
	out := make([]int64, 0, len(ms))
	for _, m := range ms {
		out = append(out, m.Version)
	}
	return out
}
