package persistence

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationNamesSortedAndFiltered(t *testing.T) {
	files := fstest.MapFS{
		"002_carts.sql":  {Data: []byte("SELECT 2;")},
		"001_users.sql":  {Data: []byte("SELECT 1;")},
		"migrations.go":  {Data: []byte("package migrations")},
		"nested/003.sql": {Data: []byte("SELECT 3;")},
	}

	names, err := migrationNames(files)
	require.NoError(t, err)
	assert.Equal(t, []string{"001_users.sql", "002_carts.sql"}, names)
}
