package main

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/golang-migrate/migrate/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMigrationStepsArg(t *testing.T) {
	steps, ok, err := parseMigrationStepsArg(nil)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Zero(t, steps)

	steps, ok, err = parseMigrationStepsArg([]string{" 3 "})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 3, steps)

	for _, bad := range []string{"0", "-1", "two"} {
		_, _, err := parseMigrationStepsArg([]string{bad})
		assert.Error(t, err, bad)
	}
}

func TestResolveMigrationsSourceURL(t *testing.T) {
	got, err := resolveMigrationsSourceURL("file:///srv/migrations")
	require.NoError(t, err)
	assert.Equal(t, "file:///srv/migrations", got)

	got, err = resolveMigrationsSourceURL("")
	require.NoError(t, err)
	abs, err := filepath.Abs("migrations")
	require.NoError(t, err)
	assert.Equal(t, "file://"+filepath.ToSlash(abs), got)
}

func TestIsNoChangeBoundaryError(t *testing.T) {
	assert.True(t, isNoChangeBoundaryError(migrate.ErrNoChange))
	assert.True(t, isNoChangeBoundaryError(fmt.Errorf("wrapped: %w", migrate.ErrNoChange)))
	assert.True(t, isNoChangeBoundaryError(os.ErrNotExist))
	assert.False(t, isNoChangeBoundaryError(assert.AnError))
}

func TestEnsureSchemaExists_PublicIsNoop(t *testing.T) {
	assert.NoError(t, ensureSchemaExists("postgres://invalid host", "public"))
	assert.NoError(t, ensureSchemaExists("postgres://invalid host", ""))
}
