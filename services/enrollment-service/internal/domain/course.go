package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Каталог принадлежит другому сервису, здесь только чтение.
type Course struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	Title       string          `gorm:"index" json:"title"`
	Description string          `json:"description"`
	Price       decimal.Decimal `gorm:"type:numeric(10,2)" json:"price"`
	IsPublished bool            `gorm:"default:false" json:"is_published"`
	IsPremium   bool            `gorm:"default:false" json:"is_premium"`
	CoverURL    string          `json:"cover_url"`

	// Связь один-ко-многим: у курса много уроков
	Lessons []Lesson `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE;" json:"lessons"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Lesson struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CourseID  uuid.UUID `gorm:"type:uuid;index" json:"course_id"`
	Title     string    `json:"title"`
	FileLink  string    `json:"file_link,omitempty"`
	Order     int       `json:"order"` // Для сортировки (1, 2, 3...)
	IsPreview bool      `gorm:"default:false" json:"is_preview"`

	CreatedAt time.Time `json:"created_at"`
}

// Purchasable: опубликован и стоит денег.
func (c *Course) Purchasable() bool {
	return c.IsPublished && c.Price.IsPositive()
}

func (c *Course) IsFree() bool {
	return c.Price.IsZero()
}

func (c *Course) Lesson(id uuid.UUID) (*Lesson, bool) {
	for i := range c.Lessons {
		if c.Lessons[i].ID == id {
			return &c.Lessons[i], true
		}
	}
	return nil, false
}

func (c *Course) LessonIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(c.Lessons))
	for _, l := range c.Lessons {
		ids = append(ids, l.ID)
	}
	return ids
}
