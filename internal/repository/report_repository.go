package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/inkvault/backend/internal/models"
	"gorm.io/gorm"
)

// ReportQuery filters the moderation queue
type ReportQuery struct {
	Status    *models.ReportStatus
	SortBy    string // created_at or updated_at
	SortOrder string // asc or desc
	Page      Page
}

// ReportRepository handles reports and announcements
type ReportRepository interface {
	Create(ctx context.Context, report *models.Report) error
	GetByID(ctx context.Context, id string) (*models.Report, error)
	Query(ctx context.Context, q ReportQuery) ([]models.Report, error)
	// UpdateStatus reports false when no report has the id
	UpdateStatus(ctx context.Context, id string, status models.ReportStatus) (bool, error)

	CreateAnnouncement(ctx context.Context, a *models.Announcement) error
	GetAnnouncements(ctx context.Context, page Page) ([]models.Announcement, error)
}

type reportRepository struct {
	db *gorm.DB
}

// NewReportRepository creates a new report repository
func NewReportRepository(db *gorm.DB) ReportRepository {
	return &reportRepository{db: db}
}

func (r *reportRepository) Create(ctx context.Context, report *models.Report) error {
	if report == nil {
		return ErrInvalidInput
	}
	return translate(r.db.WithContext(ctx).Create(report).Error)
}

func (r *reportRepository) GetByID(ctx context.Context, id string) (*models.Report, error) {
	var report models.Report
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&report).Error; err != nil {
		return nil, translate(err)
	}
	return &report, nil
}

func (r *reportRepository) Query(ctx context.Context, q ReportQuery) ([]models.Report, error) {
	sortBy := "created_at"
	if q.SortBy == "updated_at" {
		sortBy = "updated_at"
	}
	order := "DESC"
	if q.SortOrder == "asc" {
		order = "ASC"
	}

	db := r.db.WithContext(ctx).Order(fmt.Sprintf("%s %s", sortBy, order))
	if q.Status != nil {
		db = db.Where("status = ?", *q.Status)
	}
	var reports []models.Report
	err := q.Page.Normalize().apply(db).Find(&reports).Error
	return reports, err
}

func (r *reportRepository) UpdateStatus(ctx context.Context, id string, status models.ReportStatus) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Report{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"status": status, "updated_at": time.Now().UTC()})
	return res.RowsAffected > 0, res.Error
}

func (r *reportRepository) CreateAnnouncement(ctx context.Context, a *models.Announcement) error {
	if a == nil {
		return ErrInvalidInput
	}
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *reportRepository) GetAnnouncements(ctx context.Context, page Page) ([]models.Announcement, error) {
	var out []models.Announcement
	err := page.Normalize().apply(r.db.WithContext(ctx).Order("created_at DESC")).Find(&out).Error
	return out, err
}
