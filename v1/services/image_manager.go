package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	apierrors "github.com/nurpratapkarki/realEstateWeb/pkg/errors"
	"github.com/nurpratapkarki/realEstateWeb/pkg/monitoring"
	"github.com/nurpratapkarki/realEstateWeb/v1/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const maxCaptionLength = 200

// ImageManager owns every write to a property's image set and keeps exactly
// one image primary whenever the set is non-empty. Each operation runs in one
// transaction that first locks the parent property row; within this process a
// per-property mutex additionally serializes writers, since not every storage
// dialect honours row locks.
type ImageManager struct {
	db    *gorm.DB
	locks *propertyLocks
}

// NewImageManager creates a new image manager
func NewImageManager(db *gorm.DB) *ImageManager {
	return &ImageManager{db: db, locks: newPropertyLocks()}
}

// AddImage stores a new image for a property. The first image of a property is
// always primary; a later image requested as primary demotes the current one.
// An omitted or zero order appends after the existing images.
func (m *ImageManager) AddImage(ctx context.Context, propertyID uint, req *models.CreatePropertyImageRequest) (*models.PropertyImage, error) {
	if err := validateImageFields(&req.Image, &req.Caption, req.Order); err != nil {
		return nil, err
	}

	var image models.PropertyImage
	err := m.withPropertyTx(ctx, propertyID, "add_image", func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.PropertyImage{}).Where("property_id = ?", propertyID).Count(&count).Error; err != nil {
			return apierrors.DatabaseError("count images", err)
		}

		requestedPrimary := req.IsPrimary != nil && *req.IsPrimary
		order := int(count)
		if req.Order != nil && *req.Order > 0 {
			order = *req.Order
		}

		image = models.PropertyImage{
			PropertyID: propertyID,
			Image:      strings.TrimSpace(req.Image),
			Caption:    strings.TrimSpace(req.Caption),
			IsPrimary:  count == 0 || requestedPrimary,
			Order:      order,
		}

		if image.IsPrimary && count > 0 {
			if err := demoteOthers(tx, propertyID, 0); err != nil {
				return err
			}
		}
		if err := tx.Create(&image).Error; err != nil {
			return apierrors.DatabaseError("create image", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("Property image added", "propertyID", propertyID, "imageID", image.ID, "isPrimary", image.IsPrimary)
	return &image, nil
}

// SetPrimary makes the image the only primary image of its property
func (m *ImageManager) SetPrimary(ctx context.Context, imageID uint) (*models.PropertyImage, error) {
	propertyID, err := m.propertyOf(ctx, imageID)
	if err != nil {
		return nil, err
	}

	var image models.PropertyImage
	err = m.withPropertyTx(ctx, propertyID, "set_primary", func(tx *gorm.DB) error {
		if err := loadImage(tx, imageID, propertyID, &image); err != nil {
			return err
		}
		return promote(tx, &image)
	})
	if err != nil {
		return nil, err
	}

	slog.Info("Primary image changed", "propertyID", propertyID, "imageID", imageID)
	return &image, nil
}

// UpdateImage changes an image's fields. is_primary=true goes through the same
// demote-then-promote path as SetPrimary; clearing the flag on the current
// primary is rejected because it would leave the property without one.
func (m *ImageManager) UpdateImage(ctx context.Context, imageID uint, req *models.UpdatePropertyImageRequest) (*models.PropertyImage, error) {
	if err := validateImageFields(req.Image, req.Caption, req.Order); err != nil {
		return nil, err
	}

	propertyID, err := m.propertyOf(ctx, imageID)
	if err != nil {
		return nil, err
	}

	var image models.PropertyImage
	err = m.withPropertyTx(ctx, propertyID, "update_image", func(tx *gorm.DB) error {
		if err := loadImage(tx, imageID, propertyID, &image); err != nil {
			return err
		}
		if req.IsPrimary != nil && !*req.IsPrimary && image.IsPrimary {
			return apierrors.ConflictInvariantError("a property with images must keep exactly one primary image; promote another image instead")
		}

		updates := map[string]interface{}{}
		if req.Image != nil {
			updates["image"] = strings.TrimSpace(*req.Image)
		}
		if req.Caption != nil {
			updates["caption"] = strings.TrimSpace(*req.Caption)
		}
		if req.Order != nil {
			updates["sort_order"] = *req.Order
		}
		if len(updates) > 0 {
			if err := tx.Model(&image).Updates(updates).Error; err != nil {
				return apierrors.DatabaseError("update image", err)
			}
			if err := loadImage(tx, imageID, propertyID, &image); err != nil {
				return err
			}
		}

		if req.IsPrimary != nil && *req.IsPrimary && !image.IsPrimary {
			return promote(tx, &image)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("Property image updated", "propertyID", propertyID, "imageID", imageID)
	return &image, nil
}

// DeleteImage removes an image. Removing the primary promotes the remaining
// image with the lowest (order, insertion sequence).
func (m *ImageManager) DeleteImage(ctx context.Context, imageID uint) (*models.PropertyImage, error) {
	propertyID, err := m.propertyOf(ctx, imageID)
	if err != nil {
		return nil, err
	}

	var image models.PropertyImage
	err = m.withPropertyTx(ctx, propertyID, "delete_image", func(tx *gorm.DB) error {
		if err := loadImage(tx, imageID, propertyID, &image); err != nil {
			return err
		}
		if err := tx.Delete(&models.PropertyImage{}, imageID).Error; err != nil {
			return apierrors.DatabaseError("delete image", err)
		}
		if !image.IsPrimary {
			return nil
		}

		var successor models.PropertyImage
		err := tx.Where("property_id = ?", propertyID).Order(imageOrder).First(&successor).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return apierrors.DatabaseError("find successor image", err)
		}
		return promote(tx, &successor)
	})
	if err != nil {
		return nil, err
	}

	slog.Info("Property image deleted", "propertyID", propertyID, "imageID", imageID)
	return &image, nil
}

// ListImages returns a property's gallery in display order
func (m *ImageManager) ListImages(ctx context.Context, propertyID uint) ([]models.PropertyImage, error) {
	var images []models.PropertyImage
	if err := m.db.WithContext(ctx).Where("property_id = ?", propertyID).Order(imageOrder).Find(&images).Error; err != nil {
		return nil, apierrors.DatabaseError("list images", err)
	}
	return images, nil
}

// propertyOf resolves the parent property of an image before its lock is taken
func (m *ImageManager) propertyOf(ctx context.Context, imageID uint) (uint, error) {
	var image models.PropertyImage
	if err := m.db.WithContext(ctx).Select("id", "property_id").First(&image, imageID).Error; err != nil {
		return 0, apierrors.HandleDatabaseError(err, "Image", "find image")
	}
	return image.PropertyID, nil
}

// withPropertyTx runs fn in a transaction holding both the in-process lock and
// the row lock of the property. fn must only use the tx it is given.
func (m *ImageManager) withPropertyTx(ctx context.Context, propertyID uint, operation string, fn func(tx *gorm.DB) error) (err error) {
	unlock := m.locks.lock(propertyID)
	defer unlock()

	start := time.Now()
	defer func() {
		monitoring.RecordInvariantTx(ctx, operation, time.Since(start), err)
	}()

	tx := m.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return apierrors.DatabaseError("begin transaction", tx.Error)
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	var property models.Property
	if err := tx.Select("id").Clauses(clause.Locking{Strength: "UPDATE"}).First(&property, propertyID).Error; err != nil {
		tx.Rollback()
		return apierrors.HandleDatabaseError(err, "Property", "lock property")
	}

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit().Error; err != nil {
		return apierrors.DatabaseError("commit image changes", err)
	}
	return nil
}

func loadImage(tx *gorm.DB, imageID, propertyID uint, image *models.PropertyImage) error {
	if err := tx.Where("property_id = ?", propertyID).First(image, imageID).Error; err != nil {
		return apierrors.HandleDatabaseError(err, "Image", "load image")
	}
	return nil
}

// demoteOthers clears the primary flag on every image of the property except keepID
func demoteOthers(tx *gorm.DB, propertyID, keepID uint) error {
	query := tx.Model(&models.PropertyImage{}).Where("property_id = ? AND is_primary = ?", propertyID, true)
	if keepID != 0 {
		query = query.Where("id <> ?", keepID)
	}
	if err := query.Update("is_primary", false).Error; err != nil {
		return apierrors.DatabaseError("demote images", err)
	}
	return nil
}

func promote(tx *gorm.DB, image *models.PropertyImage) error {
	if err := demoteOthers(tx, image.PropertyID, image.ID); err != nil {
		return err
	}
	if err := tx.Model(image).Update("is_primary", true).Error; err != nil {
		return apierrors.DatabaseError("promote image", err)
	}
	image.IsPrimary = true
	return nil
}

func validateImageFields(image, caption *string, order *int) error {
	if image != nil && strings.TrimSpace(*image) == "" {
		return apierrors.ValidationErrorWithDetails("INVALID_IMAGE", "image is required", "image")
	}
	if caption != nil && len(*caption) > maxCaptionLength {
		return apierrors.ValidationErrorWithDetails("INVALID_IMAGE", fmt.Sprintf("caption must be at most %d characters", maxCaptionLength), "caption")
	}
	if order != nil && *order < 0 {
		return apierrors.ValidationErrorWithDetails("INVALID_IMAGE", "order must not be negative", "order")
	}
	return nil
}

// propertyLocks hands out one mutex per property, dropped once nobody holds it
type propertyLocks struct {
	mu    sync.Mutex
	locks map[uint]*propertyLock
}

type propertyLock struct {
	mu   sync.Mutex
	refs int
}

func newPropertyLocks() *propertyLocks {
	return &propertyLocks{locks: make(map[uint]*propertyLock)}
}

func (l *propertyLocks) lock(propertyID uint) func() {
	l.mu.Lock()
	pl, ok := l.locks[propertyID]
	if !ok {
		pl = &propertyLock{}
		l.locks[propertyID] = pl
	}
	pl.refs++
	l.mu.Unlock()

	pl.mu.Lock()
	return func() {
		pl.mu.Unlock()
		l.mu.Lock()
		pl.refs--
		if pl.refs == 0 {
			delete(l.locks, propertyID)
		}
		l.mu.Unlock()
	}
}
