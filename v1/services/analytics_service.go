package services

import (
	"context"
	"time"

	apierrors "github.com/nurpratapkarki/realEstateWeb/pkg/errors"
	"github.com/nurpratapkarki/realEstateWeb/v1/models"
	"gorm.io/gorm"
)

const (
	analyticsRecentProperties = 5
	analyticsVisitWindow      = 7 * 24 * time.Hour
)

// AnalyticsService builds the admin dashboard summary
type AnalyticsService struct {
	db      *gorm.DB
	catalog *CatalogService
}

// NewAnalyticsService creates a new analytics service
func NewAnalyticsService(db *gorm.DB, catalog *CatalogService) *AnalyticsService {
	return &AnalyticsService{db: db, catalog: catalog}
}

// Summary counts the main catalog and customer records
func (s *AnalyticsService) Summary(ctx context.Context, identity *models.Identity) (*models.AnalyticsResponse, error) {
	if err := requirePermission(identity, models.PermissionReadAnalytics); err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)
	now := time.Now()
	var resp models.AnalyticsResponse

	counts := []struct {
		query *gorm.DB
		dest  *int64
	}{
		{db.Model(&models.Property{}), &resp.TotalProperties},
		{db.Model(&models.Property{}).Where("is_active = ?", true), &resp.ActiveProperties},
		{db.Model(&models.User{}), &resp.TotalUsers},
		{db.Model(&models.Agent{}), &resp.TotalAgents},
		{db.Model(&models.PropertyInquiry{}), &resp.TotalInquiries},
		{db.Model(&models.PropertyInquiry{}).Where("status = ?", models.InquiryStatusPending), &resp.PendingInquiries},
		{db.Model(&models.PropertyVisit{}).
			Where("status = ? AND scheduled_date >= ? AND scheduled_date <= ?", models.VisitStatusScheduled, now, now.Add(analyticsVisitWindow)),
			&resp.ScheduledVisits},
	}
	for _, c := range counts {
		if err := c.query.Count(c.dest).Error; err != nil {
			return nil, apierrors.DatabaseError("count analytics", err)
		}
	}

	recent, err := s.catalog.findPage(db, &models.PropertyFilter{Page: 1, PageSize: analyticsRecentProperties}, true)
	if err != nil {
		return nil, err
	}
	resp.RecentProperties = recent
	return &resp, nil
}
