package postgres

import (
	"errors"
	"io/fs"
	"regexp"
	"testing"

	"github.com/golang-migrate/migrate/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMigrate struct {
	upErr, downErr     error
	version            uint
	dirty              bool
	versionErr         error
	srcErr, dbErr      error
	upCalls, downCalls int
}

func (f *fakeMigrate) Up() error   { f.upCalls++; return f.upErr }
func (f *fakeMigrate) Down() error { f.downCalls++; return f.downErr }
func (f *fakeMigrate) Version() (uint, bool, error) {
	return f.version, f.dirty, f.versionErr
}
func (f *fakeMigrate) Close() (error, error) { return f.srcErr, f.dbErr }

func TestMigrator_UpIgnoresNoChange(t *testing.T) {
	fake := &fakeMigrate{upErr: migrate.ErrNoChange}
	m := &Migrator{m: fake}

	require.NoError(t, m.Up())
	assert.Equal(t, 1, fake.upCalls)
}

func TestMigrator_UpFailure(t *testing.T) {
	m := &Migrator{m: &fakeMigrate{upErr: errors.New("syntax error at or near")}}

	err := m.Up()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "syntax error")
}

func TestMigrator_DownIgnoresNoChange(t *testing.T) {
	m := &Migrator{m: &fakeMigrate{downErr: migrate.ErrNoChange}}
	require.NoError(t, m.Down())
}

func TestMigrator_Version(t *testing.T) {
	m := &Migrator{m: &fakeMigrate{versionErr: migrate.ErrNilVersion}}
	version, dirty, err := m.Version()
	require.NoError(t, err)
	assert.Zero(t, version)
	assert.False(t, dirty)

	m = &Migrator{m: &fakeMigrate{version: 2, dirty: true}}
	version, dirty, err = m.Version()
	require.NoError(t, err)
	assert.Equal(t, uint(2), version)
	assert.True(t, dirty)
}

func TestMigrator_CloseJoinsErrors(t *testing.T) {
	m := &Migrator{m: &fakeMigrate{srcErr: errors.New("source closed"), dbErr: errors.New("db closed")}}

	err := m.Close()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "source closed")
	assert.Contains(t, err.Error(), "db closed")

	require.NoError(t, (&Migrator{m: &fakeMigrate{}}).Close())
}

func TestMigrateURL(t *testing.T) {
	tests := map[string]string{
		"postgres://u:p@localhost:5432/db":   "pgx5://u:p@localhost:5432/db",
		"postgresql://u:p@localhost:5432/db": "pgx5://u:p@localhost:5432/db",
		"pgx5://u:p@localhost:5432/db":       "pgx5://u:p@localhost:5432/db",
	}
	for in, want := range tests {
		assert.Equal(t, want, migrateURL(in), in)
	}
}

func TestMigrationsFS_Pairs(t *testing.T) {
	entries, err := fs.ReadDir(migrationsFS, "migrations")
	require.NoError(t, err)

	pattern := regexp.MustCompile(`^(\d{6})_[a-z_]+\.(up|down)\.sql$`)
	ups := map[string]bool{}
	downs := map[string]bool{}
	for _, e := range entries {
		match := pattern.FindStringSubmatch(e.Name())
		require.NotNil(t, match, "unexpected migration file %s", e.Name())
		if match[2] == "up" {
			ups[match[1]] = true
		} else {
			downs[match[1]] = true
		}
	}
	assert.Equal(t, ups, downs, "every up migration needs a down migration")
	assert.Len(t, ups, 2)
}
