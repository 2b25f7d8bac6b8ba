package models

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/mailtemp/tempmail/internal/enum"
	"github.com/mailtemp/tempmail/internal/parser"
	"github.com/mailtemp/tempmail/internal/utils"
)

// Email is one received message, stored with its rendered body.
type Email struct {
	ID          string `gorm:"column:id;type:varchar(50);primaryKey"`
	Address     string `gorm:"column:address;type:varchar(255);index:idx_emails_address_received,priority:1;not null"`
	FromAddress string `gorm:"column:from_address;type:varchar(512)"`
	Subject     string `gorm:"column:subject;type:varchar(1000)"`

	ReceivedAt time.Time `gorm:"column:received_at;type:timestamp;index:idx_emails_address_received,priority:2,sort:desc;not null"`
	ExpiresAt  time.Time `gorm:"column:expires_at;type:timestamp;index;not null"`

	// Content, already sanitized or linkified
	BodyType parser.Kind `gorm:"column:body_type;type:varchar(10);not null"`
	Body     string      `gorm:"column:body;type:text"`
	Preview  string      `gorm:"column:preview;type:varchar(255)"`

	// Diagnostics
	ParseNotes   pq.StringArray   `gorm:"column:parse_notes;type:text[]"`
	Headers      JSONMap          `gorm:"column:headers;type:jsonb"`
	Source       enum.EmailSource `gorm:"column:source;type:varchar(20)"`
	RawObjectKey string           `gorm:"column:raw_object_key;type:varchar(255)"`

	CreatedAt time.Time `gorm:"column:created_at;type:timestamp;default:current_timestamp"`
}

func (Email) TableName() string {
	return "emails"
}

func (e *Email) BeforeCreate(tx *gorm.DB) error {
	if e.ReceivedAt.IsZero() {
		e.ReceivedAt = time.Now().UTC()
	}
	if e.ID == "" {
		e.ID = utils.GenerateEmailID(e.ReceivedAt)
	}
	e.CreatedAt = time.Now().UTC()
	return nil
}

func (e *Email) Expired(now time.Time) bool {
	return !e.ExpiresAt.After(now)
}

// ParsedBody returns the stored body in the shape the parser produced it.
func (e *Email) ParsedBody() parser.ParsedBody {
	return parser.ParsedBody{Kind: e.BodyType, Content: e.Body}
}
