package repository

import (
	"context"
	"errors"

	"courseplatform/services/enrollment-service/internal/domain"
	"courseplatform/services/enrollment-service/internal/infrastructure/cache"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CourseRepository читает каталог. cache может быть nil.
type CourseRepository struct {
	db    *gorm.DB
	cache *cache.CourseCache
}

func NewCourseRepository(db *gorm.DB, cache *cache.CourseCache) *CourseRepository {
	return &CourseRepository{db: db, cache: cache}
}

func (r *CourseRepository) GetWithLessons(ctx context.Context, id uuid.UUID) (*domain.Course, error) {
	// 1. Кеш
	if r.cache != nil {
		if c, ok := r.cache.Get(ctx, id); ok {
			return c, nil
		}
	}

	// 2. БД
	var course domain.Course
	err := r.db.WithContext(ctx).
		Preload("Lessons", func(db *gorm.DB) *gorm.DB {
			return db.Order("\"order\" asc")
		}).
		First(&course, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrCourseNotFound
	}
	if err != nil {
		return nil, err
	}

	// 3. Кеш на 10 минут, ошибка записи не критична
	if r.cache != nil {
		_ = r.cache.Save(ctx, &course)
	}
	return &course, nil
}

// Create используется импортом каталога и тестами.
func (r *CourseRepository) Create(ctx context.Context, c *domain.Course) error {
	if err := r.db.WithContext(ctx).Create(c).Error; err != nil {
		return err
	}
	if r.cache != nil {
		_ = r.cache.Delete(ctx, c.ID)
	}
	return nil
}
