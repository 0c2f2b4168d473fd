// Package drafts keeps in-progress form values so a failed submission can
// be retried without re-entering data.
package drafts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/goliatone/go-docfill/pkg/model"
	"github.com/goliatone/go-docfill/pkg/session"
)

// Draft is one saved set of form values for an owner and template. Payload
// holds the values as a JSON object.
type Draft struct {
	ID         string `gorm:"primaryKey;size:36"`
	Owner      string `gorm:"size:128;not null;uniqueIndex:idx_form_drafts_owner_template"`
	TemplateID string `gorm:"size:128;not null;uniqueIndex:idx_form_drafts_owner_template"`
	Payload    string `gorm:"type:text;not null"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// TableName pins the table name.
func (Draft) TableName() string {
	return "form_drafts"
}

// Store persists drafts through gorm.
type Store struct {
	db  *gorm.DB
	now func() time.Time
}

var _ session.DraftStore = (*Store)(nil)

// Open connects to the sqlite database at path and migrates the schema.
// Use ":memory:" for an ephemeral store.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("drafts: sqlite path is required")
	}
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("drafts: open sqlite: %w", err)
	}
	if strings.Contains(path, ":memory:") {
		// sqlite memory databases are per connection
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("drafts: open sqlite: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}
	return New(db)
}

// New wraps an existing connection and migrates the schema.
func New(db *gorm.DB) (*Store, error) {
	if db == nil {
		return nil, errors.New("drafts: db is required")
	}
	if err := db.AutoMigrate(&Draft{}); err != nil {
		return nil, fmt.Errorf("drafts: migrate: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

// Save creates or replaces the draft for owner and templateID.
func (s *Store) Save(ctx context.Context, owner, templateID string, values model.FormValues) error {
	if templateID == "" {
		return errors.New("drafts: template id is required")
	}
	if values == nil {
		values = model.FormValues{}
	}
	encoded, err := json.Marshal(values)
	if err != nil {
		return fmt.Errorf("drafts: encode values: %w", err)
	}

	now := s.now()
	draft := Draft{
		ID:         uuid.NewString(),
		Owner:      owner,
		TemplateID: templateID,
		Payload:    string(encoded),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "owner"}, {Name: "template_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"payload", "updated_at"}),
	}).Create(&draft).Error
	if err != nil {
		return fmt.Errorf("drafts: save: %w", err)
	}
	return nil
}

// Load returns the saved values, or nil when no draft exists.
func (s *Store) Load(ctx context.Context, owner, templateID string) (model.FormValues, error) {
	var draft Draft
	err := s.db.WithContext(ctx).
		Where("owner = ? AND template_id = ?", owner, templateID).
		First(&draft).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("drafts: load: %w", err)
	}

	values := model.FormValues{}
	if err := json.Unmarshal([]byte(draft.Payload), &values); err != nil {
		return nil, fmt.Errorf("drafts: decode values: %w", err)
	}
	return values, nil
}

// Delete removes the draft. Missing drafts are not an error.
func (s *Store) Delete(ctx context.Context, owner, templateID string) error {
	err := s.db.WithContext(ctx).
		Where("owner = ? AND template_id = ?", owner, templateID).
		Delete(&Draft{}).Error
	if err != nil {
		return fmt.Errorf("drafts: delete: %w", err)
	}
	return nil
}

// Close releases the underlying connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
