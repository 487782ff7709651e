package cache

import (
	"context"
	"encoding/json"
	"time"

	"courseplatform/services/enrollment-service/internal/domain"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const courseTTL = 10 * time.Minute

// CourseCache держит карточки курсов с уроками, чтобы не ходить в каталог
// на каждый запрос к контенту.
type CourseCache struct {
	client *redis.Client
}

func NewCourseCache(client *redis.Client) *CourseCache {
	return &CourseCache{client: client}
}

func courseKey(id uuid.UUID) string {
	return "course:detail:" + id.String()
}

func (c *CourseCache) Get(ctx context.Context, id uuid.UUID) (*domain.Course, bool) {
	val, err := c.client.Get(ctx, courseKey(id)).Bytes()
	if err != nil {
		return nil, false
	}
	var course domain.Course
	if json.Unmarshal(val, &course) != nil {
		return nil, false
	}
	return &course, true
}

func (c *CourseCache) Save(ctx context.Context, course *domain.Course) error {
	data, err := json.Marshal(course)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, courseKey(course.ID), data, courseTTL).Err()
}

func (c *CourseCache) Delete(ctx context.Context, id uuid.UUID) error {
	return c.client.Del(ctx, courseKey(id)).Err()
}
