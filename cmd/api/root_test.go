package main

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCmd_Subcommands(t *testing.T) {
	cmd := NewRootCmd()

	names := make([]string, 0)
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}
	assert.ElementsMatch(t, []string{"serve", "migrate"}, names)
	assert.NotNil(t, cmd.RunE, "root must default to serve")
}

func TestMigrateCmd_Subcommands(t *testing.T) {
	cmd := NewMigrateCmd()

	names := make([]string, 0)
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}
	assert.ElementsMatch(t, []string{"up", "down", "version"}, names)
}

type fakeMigrator struct {
	version uint
	dirty   bool
	upErr   error
	calls   []string
}

func (f *fakeMigrator) Up() error {
	f.calls = append(f.calls, "up")
	if f.upErr != nil {
		return f.upErr
	}
	f.version = 2
	return nil
}

func (f *fakeMigrator) Down() error {
	f.calls = append(f.calls, "down")
	f.version = 0
	return nil
}

func (f *fakeMigrator) Version() (uint, bool, error) {
	return f.version, f.dirty, nil
}

func (f *fakeMigrator) Close() error {
	f.calls = append(f.calls, "close")
	return nil
}

func runMigrate(t *testing.T, fake *fakeMigrator, args ...string) (string, error) {
	t.Helper()
	t.Setenv("DATABASE_URL", "postgres://u:p@localhost:5432/units?sslmode=disable")

	var gotURL string
	orig := openMigrator
	openMigrator = func(databaseURL string) (schemaMigrator, error) {
		gotURL = databaseURL
		return fake, nil
	}
	t.Cleanup(func() { openMigrator = orig })

	var out bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"migrate"}, args...))

	err := cmd.Execute()
	if err == nil {
		assert.Equal(t, "postgres://u:p@localhost:5432/units?sslmode=disable", gotURL)
	}
	return out.String(), err
}

func TestMigrateUp(t *testing.T) {
	fake := &fakeMigrator{}

	out, err := runMigrate(t, fake, "up")
	require.NoError(t, err)
	assert.Contains(t, out, "Schema version: 2")
	assert.Equal(t, []string{"up", "close"}, fake.calls)
}

func TestMigrateUp_Failure(t *testing.T) {
	fake := &fakeMigrator{upErr: errors.New("syntax error at or near")}

	_, err := runMigrate(t, fake, "up")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "syntax error")
	assert.Equal(t, []string{"up", "close"}, fake.calls)
}

func TestMigrateDown(t *testing.T) {
	fake := &fakeMigrator{version: 2}

	out, err := runMigrate(t, fake, "down")
	require.NoError(t, err)
	assert.Contains(t, out, "Schema version: 0")
}

func TestMigrateVersion_Dirty(t *testing.T) {
	fake := &fakeMigrator{version: 1, dirty: true}

	out, err := runMigrate(t, fake, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "Schema version: 1 (dirty)")
	assert.Equal(t, []string{"close"}, fake.calls)
}

func TestMigrateUp_RejectsArgs(t *testing.T) {
	_, err := runMigrate(t, &fakeMigrator{}, "up", "extra")
	require.Error(t, err)
}
