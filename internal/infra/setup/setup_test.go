package setup_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"guess-who-arena/internal/domain"
	"guess-who-arena/internal/infra/setup"
)

func TestBuildMySQLDSN(t *testing.T) {
	testCases := []struct {
		name    string
		opts    setup.DBOptions
		want    string
		wantErr bool
	}{
		{
			name: "Defaults",
			opts: setup.DBOptions{User: "root", Password: "secret"},
			want: "root:secret@tcp(127.0.0.1:3306)/guess_who?charset=utf8mb4&parseTime=True&loc=Local",
		},
		{
			name: "Explicit",
			opts: setup.DBOptions{User: "gw", Password: "pw", Host: "db", Port: "3307", Name: "arena"},
			want: "gw:pw@tcp(db:3307)/arena?charset=utf8mb4&parseTime=True&loc=Local",
		},
		{name: "Missing user", opts: setup.DBOptions{Password: "pw"}, wantErr: true},
		{name: "Missing password", opts: setup.DBOptions{User: "gw"}, wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			dsn, err := setup.BuildMySQLDSN(tc.opts)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, dsn)
		})
	}
}

func TestInitDB_UnsupportedDriver(t *testing.T) {
	_, err := setup.InitDB(setup.DBOptions{Driver: "postgres"})
	assert.Error(t, err)
}

func TestMigrateDB_SeedsLevelsOnce(t *testing.T) {
	db, err := setup.InitDB(setup.DBOptions{
		Driver:     setup.DriverSQLite,
		SQLitePath: "file:setup_seed?mode=memory&cache=shared",
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, setup.MigrateDB(db))
	require.NoError(t, setup.MigrateDB(db))

	var levels []domain.Level
	require.NoError(t, db.Order("score asc").Find(&levels).Error)
	require.Len(t, levels, len(setup.DefaultLevels))
	assert.Equal(t, domain.DefaultTitle, levels[0].Title)
	assert.Equal(t, 600, levels[len(levels)-1].Score)
}

func TestMigrateDB_NilConnection(t *testing.T) {
	assert.Error(t, setup.MigrateDB(nil))
}
