package main

import (
	"errors"
	"testing"

	"github.com/golang-migrate/migrate/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type fakeMigrator struct {
	upErr    error
	steps    []int
	version  uint
	dirty    bool
	versionE error
	downs    int
}

func (f *fakeMigrator) Up() error { return f.upErr }

func (f *fakeMigrator) Down() error {
	f.downs++
	return nil
}

func (f *fakeMigrator) Steps(n int) error {
	f.steps = append(f.steps, n)
	return nil
}

func (f *fakeMigrator) Version() (uint, bool, error) { return f.version, f.dirty, f.versionE }

func observed() (*zap.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zap.InfoLevel)
	return zap.New(core), logs
}

func TestExecute_Up(t *testing.T) {
	logger, logs := observed()
	require.NoError(t, execute(&fakeMigrator{upErr: migrate.ErrNoChange}, []string{"up"}, logger))
	assert.Equal(t, 1, logs.FilterMessage("migrations applied").Len())

	err := execute(&fakeMigrator{upErr: errors.New("dirty database")}, []string{"up"}, logger)
	assert.ErrorContains(t, err, "dirty database")
}

func TestExecute_Steps(t *testing.T) {
	logger, logs := observed()
	m := &fakeMigrator{}
	require.NoError(t, execute(m, []string{"steps", "-2"}, logger))
	assert.Equal(t, []int{-2}, m.steps)

	entries := logs.FilterMessage("migration steps applied").All()
	require.Len(t, entries, 1)
	assert.EqualValues(t, -2, entries[0].ContextMap()["steps"])

	assert.ErrorIs(t, execute(m, []string{"steps"}, logger), errUsage)
	assert.Error(t, execute(m, []string{"steps", "two"}, logger))
}

func TestExecute_Version(t *testing.T) {
	logger, logs := observed()
	require.NoError(t, execute(&fakeMigrator{version: 7, dirty: true}, []string{"version"}, logger))

	entries := logs.FilterMessage("schema version").All()
	require.Len(t, entries, 1)
	assert.EqualValues(t, 7, entries[0].ContextMap()["version"])
	assert.Equal(t, true, entries[0].ContextMap()["dirty"])

	require.NoError(t, execute(&fakeMigrator{versionE: migrate.ErrNilVersion}, []string{"version"}, logger))
}

func TestExecute_UnknownCommand(t *testing.T) {
	logger, _ := observed()
	m := &fakeMigrator{}
	assert.ErrorIs(t, execute(m, []string{"redo"}, logger), errUsage)
	assert.Zero(t, m.downs)
}

func TestRun_RequiresCommand(t *testing.T) {
	assert.ErrorIs(t, run(nil), errUsage)
}
