package database

import (
	"path/filepath"
	"testing"

	"github.com/authgate/authgate/config"
	"github.com/authgate/authgate/database/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) {
	t.Helper()
	cfg := &config.DatabaseConfig{
		Type:   config.DatabaseTypeSQLite,
		SQLite: config.SQLiteConfig{Path: filepath.Join(t.TempDir(), "test.db")},
	}
	require.NoError(t, InitDB(cfg))
	t.Cleanup(func() { _ = CloseDB() })
}

func TestEnsureSchemaIsIdempotent(t *testing.T) {
	setup(t)

	require.NoError(t, EnsureSchema())
	require.NoError(t, EnsureSchema())

	assert.True(t, GetDB().Migrator().HasTable("authentication"))
	assert.True(t, GetDB().Migrator().HasColumn(&model.Account{}, "phone"))
}

func TestEnsureSchemaWithoutInit(t *testing.T) {
	require.NoError(t, CloseDB())
	assert.Error(t, EnsureSchema())
}

func TestEmailIsUnique(t *testing.T) {
	setup(t)
	require.NoError(t, EnsureSchema())

	first := &model.Account{Username: "a", Email: "a@x.com", Phone: "123", Password: "hash"}
	require.NoError(t, GetDB().Create(first).Error)
	assert.NotZero(t, first.Id)

	second := &model.Account{Username: "b", Email: "a@x.com", Phone: "456", Password: "hash"}
	err := GetDB().Create(second).Error
	assert.Error(t, err)
	assert.True(t, IsDuplicate(err))

	var count int64
	require.NoError(t, GetDB().Model(&model.Account{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestUsernameIsNotUnique(t *testing.T) {
	setup(t)
	require.NoError(t, EnsureSchema())

	require.NoError(t, GetDB().Create(&model.Account{Username: "a", Email: "a@x.com", Password: "hash"}).Error)
	assert.NoError(t, GetDB().Create(&model.Account{Username: "a", Email: "b@x.com", Password: "hash"}).Error)
}

func TestIsNotFound(t *testing.T) {
	setup(t)
	require.NoError(t, EnsureSchema())

	var account model.Account
	err := GetDB().Where("email = ?", "missing@x.com").First(&account).Error
	assert.True(t, IsNotFound(err))
	assert.False(t, IsDuplicate(err))
}

func TestInitDBRejectsInvalidConfig(t *testing.T) {
	cfg := &config.DatabaseConfig{Type: "mysql"}
	assert.Error(t, InitDB(cfg))
}
