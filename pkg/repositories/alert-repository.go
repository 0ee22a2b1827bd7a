package repositories

import (
	"github.com/ArdenN1895/alerts/pkg/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AlertRepository struct {
	db *gorm.DB
}

func NewAlertRepository(db *gorm.DB) *AlertRepository {
	return &AlertRepository{db: db}
}

func (r *AlertRepository) Create(alert *models.Alert) error {
	return r.db.Create(alert).Error
}

func (r *AlertRepository) GetByID(id uuid.UUID) (*models.Alert, error) {
	var alert models.Alert
	if err := r.db.First(&alert, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &alert, nil
}

func (r *AlertRepository) List() ([]models.Alert, error) {
	var alerts []models.Alert
	if err := r.db.Order("created_at desc").Find(&alerts).Error; err != nil {
		return nil, err
	}
	return alerts, nil
}

func (r *AlertRepository) CreateAttempt(attempt *models.DeliveryAttempt) error {
	return r.db.Create(attempt).Error
}

func (r *AlertRepository) ListAttemptsByAlert(alertID uuid.UUID) ([]models.DeliveryAttempt, error) {
	var attempts []models.DeliveryAttempt
	if err := r.db.Where("alert_id = ?", alertID).
		Find(&attempts).Error; err != nil {
		return nil, err
	}
	return attempts, nil
}
