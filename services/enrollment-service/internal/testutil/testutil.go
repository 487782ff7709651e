package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"courseplatform/services/enrollment-service/internal/domain"
	"courseplatform/services/enrollment-service/internal/infrastructure/logger"
	"courseplatform/services/enrollment-service/internal/infrastructure/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

func Logger(tb testing.TB) *logger.Logger {
	tb.Helper()
	return logger.Nop()
}

// DB открывает отдельную in-memory sqlite базу на каждый тест.
func DB(tb testing.TB) *gorm.DB {
	tb.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
	})
	if err != nil {
		tb.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		tb.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	tb.Cleanup(func() { _ = sqlDB.Close() })

	if err := repository.Migrate(db); err != nil {
		tb.Fatalf("migrate: %v", err)
	}
	return db
}

type CourseOpts struct {
	Lessons  int
	Previews []int // порядковые номера уроков с превью, с 1
	Price    string
	Premium  bool
	Draft    bool
}

func SeedCourse(tb testing.TB, ctx context.Context, db *gorm.DB, opts CourseOpts) *domain.Course {
	tb.Helper()
	price := decimal.Zero
	if opts.Price != "" {
		price = decimal.RequireFromString(opts.Price)
	}
	c := &domain.Course{
		ID:          uuid.New(),
		Title:       "course",
		Price:       price,
		IsPublished: !opts.Draft,
		IsPremium:   opts.Premium,
	}
	previews := map[int]bool{}
	for _, p := range opts.Previews {
		previews[p] = true
	}
	for i := 1; i <= opts.Lessons; i++ {
		c.Lessons = append(c.Lessons, domain.Lesson{
			ID:        uuid.New(),
			CourseID:  c.ID,
			Title:     fmt.Sprintf("lesson %d", i),
			FileLink:  fmt.Sprintf("https://cdn.example.com/%d.mp4", i),
			Order:     i,
			IsPreview: previews[i],
		})
	}
	if err := db.WithContext(ctx).Create(c).Error; err != nil {
		tb.Fatalf("seed course: %v", err)
	}
	return c
}

func SeedSession(tb testing.TB, ctx context.Context, db *gorm.DB, userID uuid.UUID, course *domain.Course, createdAt time.Time, ttl time.Duration) *domain.CheckoutSession {
	tb.Helper()
	key := domain.ActiveKey(userID, course.ID)
	s := &domain.CheckoutSession{
		ID:        "cs_test_" + uuid.NewString(),
		UserID:    userID,
		CourseID:  course.ID,
		Amount:    course.Price,
		Currency:  "usd",
		Status:    domain.SessionCreated,
		ActiveKey: &key,
		CreatedAt: createdAt,
		ExpiresAt: createdAt.Add(ttl),
	}
	if err := db.WithContext(ctx).Create(s).Error; err != nil {
		tb.Fatalf("seed session: %v", err)
	}
	return s
}

func PtrString(s string) *string { return &s }
