package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nurpratapkarki/realEstateWeb/v1/models"
	"github.com/nurpratapkarki/realEstateWeb/v1/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func run(t *testing.T, db *gorm.DB, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd(func() (*gorm.DB, error) { return db, nil })
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func seedLegacyUsers(t *testing.T, db *gorm.DB) {
	t.Helper()
	users := []models.User{
		{Username: "ops", Email: "ops@example.com", Role: models.UserRoleCustomer, IsActive: true, IsStaff: true},
		{Username: "root", Email: "root@example.com", Role: models.UserRoleCustomer, IsActive: true, IsSuperuser: true},
		{Username: "buyer", Email: "buyer@example.com", Role: models.UserRoleCustomer, IsActive: true},
	}
	require.NoError(t, db.Create(&users).Error)
}

func adminCount(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var count int64
	require.NoError(t, db.Model(&models.User{}).Where("role = ?", models.UserRoleAdmin).Count(&count).Error)
	return count
}

func TestFixRoles(t *testing.T) {
	t.Run("dry run lists without writing", func(t *testing.T) {
		db := services.SetupSQLiteTestDB(t)
		seedLegacyUsers(t, db)

		out, err := run(t, db, "", "fix-roles", "--dry-run")
		require.NoError(t, err)
		assert.Contains(t, out, "Users to promote to admin (2)")
		assert.Contains(t, out, "- ops (id")
		assert.Contains(t, out, "Dry run")
		assert.Zero(t, adminCount(t, db))
	})

	t.Run("declined confirmation aborts", func(t *testing.T) {
		db := services.SetupSQLiteTestDB(t)
		seedLegacyUsers(t, db)

		out, err := run(t, db, "n\n", "fix-roles")
		require.NoError(t, err)
		assert.Contains(t, out, "Aborted.")
		assert.Zero(t, adminCount(t, db))
	})

	t.Run("confirmed run applies", func(t *testing.T) {
		db := services.SetupSQLiteTestDB(t)
		seedLegacyUsers(t, db)

		out, err := run(t, db, "yes\n", "fix-roles")
		require.NoError(t, err)
		assert.Contains(t, out, "Updated 2 users.")
		assert.Equal(t, int64(2), adminCount(t, db))

		out, err = run(t, db, "", "fix-roles", "--yes")
		require.NoError(t, err)
		assert.Contains(t, out, "No users need a role fix.")
	})
}

func TestMigrate(t *testing.T) {
	db := services.SetupSQLiteTestDB(t)
	out, err := run(t, db, "", "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "Migration complete.")
}

func TestAreaConvert(t *testing.T) {
	t.Cleanup(models.ResetAreaUnits)

	tests := []struct {
		name string
		args []string
		want []string
	}{
		{"ropani to sqft", []string{"area", "convert", "2", "ropani", "sqft"}, []string{"2 ropani = 10952 sqft"}},
		{"case insensitive units", []string{"area", "convert", "1", "Bigha", "KATTHA"}, []string{"1 bigha = 20 kattha"}},
		{"land breakdown", []string{"area", "convert", "5818.25", "sqft", "ropani", "--land"}, []string{"1 ropani 1 aana 0 paisa 0 daam"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := run(t, nil, "", tt.args...)
			require.NoError(t, err)
			for _, want := range tt.want {
				assert.Contains(t, out, want)
			}
		})
	}

	_, err := run(t, nil, "", "area", "convert", "1", "furlong", "sqft")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown area unit")

	_, err = run(t, nil, "", "area", "convert", "lots", "sqft", "sqm")
	require.Error(t, err)

	configPath := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("areaUnits:\n  - name: acre\n    squareFeet: 43560\n"), 0o600))
	out, err := run(t, nil, "", "area", "convert", "1", "acre", "sqft", "--config", configPath)
	require.NoError(t, err)
	assert.Contains(t, out, "1 acre = 43560 sqft")
}
