package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/technotronz/symposium/internal/models"
)

// UserStore reads users and writes their event/workshop registrations.
type UserStore struct {
	db *gorm.DB
}

// NewUserStore constructs a UserStore.
func NewUserStore(db *gorm.DB) *UserStore {
	return &UserStore{db: db}
}

// FindUser loads a user by id.
func (s *UserStore) FindUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// LoadProfile loads a user together with registrations and workshop flags.
func (s *UserStore) LoadProfile(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).
		Preload("EventRegistrations", func(db *gorm.DB) *gorm.DB { return db.Order("created_at asc") }).
		Preload("WorkshopRegistrations", func(db *gorm.DB) *gorm.DB { return db.Order("created_at asc") }).
		Preload("WorkshopStatuses").
		First(&user, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// AddEventRegistration records the event for the user, reporting false if it was already there.
func (s *UserStore) AddEventRegistration(ctx context.Context, userID uuid.UUID, eventID string) (bool, error) {
	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.EventRegistration{UserID: userID, EventID: eventID})
	return res.RowsAffected == 1, res.Error
}

// AddWorkshopRegistration records the workshop for the user, reporting false if it was already there.
func (s *UserStore) AddWorkshopRegistration(ctx context.Context, userID uuid.UUID, workshopID string) (bool, error) {
	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.WorkshopRegistration{UserID: userID, WorkshopID: workshopID})
	return res.RowsAffected == 1, res.Error
}

// EventIDs returns the ids of the events the user registered for.
func (s *UserStore) EventIDs(ctx context.Context, userID uuid.UUID) ([]string, error) {
	var ids []string
	err := s.db.WithContext(ctx).
		Model(&models.EventRegistration{}).
		Where("user_id = ?", userID).
		Order("created_at asc").
		Pluck("event_id", &ids).Error
	return ids, err
}

// WorkshopIDs returns the ids of the workshops the user registered for.
func (s *UserStore) WorkshopIDs(ctx context.Context, userID uuid.UUID) ([]string, error) {
	var ids []string
	err := s.db.WithContext(ctx).
		Model(&models.WorkshopRegistration{}).
		Where("user_id = ?", userID).
		Order("created_at asc").
		Pluck("workshop_id", &ids).Error
	return ids, err
}

// WorkshopFlags returns the user's workshop payment flags keyed by workshop id.
func (s *UserStore) WorkshopFlags(ctx context.Context, userID uuid.UUID) (map[string]string, error) {
	var rows []models.UserWorkshopStatus
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Find(&rows).Error; err != nil {
		return nil, err
	}
	flags := make(map[string]string, len(rows))
	for _, r := range rows {
		flags[r.WorkshopID] = r.PaymentStatus
	}
	return flags, nil
}
