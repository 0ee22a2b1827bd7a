package repositories

import (
	"github.com/ArdenN1895/alerts/pkg/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SubscriptionRepository struct {
	db *gorm.DB
}

func NewSubscriptionRepository(db *gorm.DB) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

// Upsert keeps at most one row per user: a re-registration from the same
// principal overwrites the previous endpoint and keys.
func (r *SubscriptionRepository) Upsert(sub *models.Subscription) error {
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"endpoint", "p256dh", "auth", "expiration_time", "updated_at"}),
	}).Create(sub).Error
}

func (r *SubscriptionRepository) ListAll() ([]models.Subscription, error) {
	var subs []models.Subscription
	if err := r.db.Find(&subs).Error; err != nil {
		return nil, err
	}
	return subs, nil
}

func (r *SubscriptionRepository) ListByUserIDs(userIDs []string) ([]models.Subscription, error) {
	var subs []models.Subscription
	if err := r.db.Where("user_id IN ?", userIDs).Find(&subs).Error; err != nil {
		return nil, err
	}
	return subs, nil
}

func (r *SubscriptionRepository) GetByUserID(userID string) (*models.Subscription, error) {
	var sub models.Subscription
	if err := r.db.First(&sub, "user_id = ?", userID).Error; err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *SubscriptionRepository) DeleteByID(id uuid.UUID) error {
	return r.db.Delete(&models.Subscription{}, "id = ?", id).Error
}

func (r *SubscriptionRepository) DeleteByUserID(userID string) error {
	return r.db.Delete(&models.Subscription{}, "user_id = ?", userID).Error
}
