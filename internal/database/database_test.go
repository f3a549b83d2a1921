package database

import (
	"context"
	"io/fs"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationsAreEmbeddedInPairs(t *testing.T) {
	files, err := fs.Glob(migrationsFS, "migrations/*.sql")
	require.NoError(t, err)
	require.NotEmpty(t, files)

	ups, downs := 0, 0
	for _, f := range files {
		switch {
		case filepath.Ext(f[:len(f)-len(".sql")]) == ".up":
			ups++
		case filepath.Ext(f[:len(f)-len(".sql")]) == ".down":
			downs++
		}
	}
	assert.Equal(t, ups, downs)
	assert.Equal(t, 2, ups)
}

func TestOpenSQLite(t *testing.T) {
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "travel.db"))
	require.NoError(t, err)
	defer db.Close()

	assert.NoError(t, db.PingContext(context.Background()))
}
