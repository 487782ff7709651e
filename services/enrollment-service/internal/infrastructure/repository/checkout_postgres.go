package repository

import (
	"context"
	"errors"
	"time"

	"courseplatform/services/enrollment-service/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CheckoutRepository struct {
	db *gorm.DB
}

func NewCheckoutRepository(db *gorm.DB) *CheckoutRepository {
	return &CheckoutRepository{db: db}
}

func (r *CheckoutRepository) Get(ctx context.Context, id string) (*domain.CheckoutSession, error) {
	var s domain.CheckoutSession
	err := r.db.WithContext(ctx).First(&s, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// FindLive возвращает живую сессию пары или ErrSessionNotFound.
func (r *CheckoutRepository) FindLive(ctx context.Context, userID, courseID uuid.UUID, now time.Time) (*domain.CheckoutSession, error) {
	var s domain.CheckoutSession
	err := r.db.WithContext(ctx).
		Where("active_key = ? AND status = ? AND expires_at > ?", domain.ActiveKey(userID, courseID), domain.SessionCreated, now).
		First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// SupersedeExpired освобождает слот пары от просроченных сессий.
func (r *CheckoutRepository) SupersedeExpired(ctx context.Context, userID, courseID uuid.UUID, now time.Time) error {
	return r.db.WithContext(ctx).Model(&domain.CheckoutSession{}).
		Where("active_key = ? AND expires_at <= ?", domain.ActiveKey(userID, courseID), now).
		Updates(map[string]interface{}{
			"status":     domain.SessionExpired,
			"active_key": nil,
		}).Error
}

// Insert is conditional on the active_key unique index: false means another
// live session for the pair won the race and nothing was written.
func (r *CheckoutRepository) Insert(ctx context.Context, s *domain.CheckoutSession) (bool, error) {
	key := domain.ActiveKey(s.UserID, s.CourseID)
	s.ActiveKey = &key
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "active_key"}}, DoNothing: true}).
		Create(s)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// MarkCompleted идемпотентен: completed_at сохраняет первое значение.
func (r *CheckoutRepository) MarkCompleted(ctx context.Context, id, eventID string, now time.Time) error {
	updates := map[string]interface{}{
		"status":       domain.SessionCompleted,
		"active_key":   nil,
		"completed_at": gorm.Expr("COALESCE(completed_at, ?)", now),
	}
	if eventID != "" {
		updates["last_event_id"] = eventID
	}
	return r.db.WithContext(ctx).Model(&domain.CheckoutSession{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// MarkExpired не трогает завершённые сессии.
func (r *CheckoutRepository) MarkExpired(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Model(&domain.CheckoutSession{}).
		Where("id = ? AND status IN ?", id, []domain.SessionStatus{domain.SessionCreated, domain.SessionCancelled}).
		Updates(map[string]interface{}{
			"status":     domain.SessionExpired,
			"active_key": nil,
		}).Error
}

func (r *CheckoutRepository) Cancel(ctx context.Context, id string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&domain.CheckoutSession{}).
		Where("id = ? AND status = ?", id, domain.SessionCreated).
		Updates(map[string]interface{}{
			"status":     domain.SessionCancelled,
			"active_key": nil,
		})
	return res.RowsAffected == 1, res.Error
}
