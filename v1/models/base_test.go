package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type testModel struct {
	ID uint `gorm:"primarykey"`
	BaseModel
	Name string
}

func openTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&testModel{}))
	return db
}

func TestBaseModel_BeforeCreate(t *testing.T) {
	t.Run("BeforeCreate_SetsTimestamps", func(t *testing.T) {
		db := openTestDB(t)

		model := testModel{Name: "Test"}
		require.NoError(t, db.Create(&model).Error)

		assert.False(t, model.CreatedAt.IsZero())
		assert.False(t, model.UpdatedAt.IsZero())
		assert.WithinDuration(t, time.Now(), model.CreatedAt, 5*time.Second)
	})

	t.Run("BeforeCreate_KeepsExplicitCreatedAt", func(t *testing.T) {
		db := openTestDB(t)

		past := time.Now().Add(-48 * time.Hour)
		model := testModel{Name: "Backdated", BaseModel: BaseModel{CreatedAt: past}}
		require.NoError(t, db.Create(&model).Error)

		assert.WithinDuration(t, past, model.CreatedAt, time.Second)
		assert.WithinDuration(t, time.Now(), model.UpdatedAt, 5*time.Second)
	})
}

func TestBaseModel_BeforeUpdate(t *testing.T) {
	db := openTestDB(t)

	model := testModel{Name: "Test"}
	require.NoError(t, db.Create(&model).Error)
	original := model.UpdatedAt

	time.Sleep(10 * time.Millisecond)
	model.Name = "Updated"
	require.NoError(t, db.Save(&model).Error)

	assert.True(t, model.UpdatedAt.After(original))
}
