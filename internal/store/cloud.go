package store

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"mistakebook/internal/ctxkeys"
	"mistakebook/internal/model"
	"mistakebook/internal/storage"
)

// CloudStore mirrors the collections to a single relational table keyed by
// record id, with inline images uploaded to object storage. Every operation
// maps to one query. Errors propagate to the caller; there are no retries.
//
// The store is scoped to the signed-in user carried in the request context.
type CloudStore struct {
	db        *sqlx.DB
	objects   storage.Storage
	timestamp func() int64
}

func NewCloudStore(db *sqlx.DB, objects storage.Storage) *CloudStore {
	return &CloudStore{
		db:        db,
		objects:   objects,
		timestamp: func() int64 { return time.Now().UnixMilli() },
	}
}

func userID(ctx context.Context) (string, error) {
	user := ctxkeys.User(ctx)
	if user == nil {
		return "", ErrNotAuthenticated
	}
	return user.ID, nil
}

func (s *CloudStore) LoadActive(ctx context.Context) ([]*model.Mistake, error) {
	uid, err := userID(ctx)
	if err != nil {
		return nil, err
	}

	var list []*model.Mistake
	query := `SELECT * FROM mistakes WHERE user_id = $1 AND deleted_at IS NULL ORDER BY created_at DESC`
	err = s.db.SelectContext(ctx, &list, query, uid)
	if err != nil {
		return nil, fmt.Errorf("failed to load mistakes: %w", err)
	}
	if list == nil {
		list = []*model.Mistake{}
	}
	return list, nil
}

func (s *CloudStore) LoadTrashed(ctx context.Context) ([]*model.Mistake, error) {
	uid, err := userID(ctx)
	if err != nil {
		return nil, err
	}

	var list []*model.Mistake
	query := `SELECT * FROM mistakes WHERE user_id = $1 AND deleted_at IS NOT NULL ORDER BY deleted_at DESC`
	err = s.db.SelectContext(ctx, &list, query, uid)
	if err != nil {
		return nil, fmt.Errorf("failed to load trash: %w", err)
	}
	if list == nil {
		list = []*model.Mistake{}
	}
	return list, nil
}

func (s *CloudStore) Add(ctx context.Context, m *model.Mistake) (*model.Mistake, error) {
	uid, err := userID(ctx)
	if err != nil {
		return nil, err
	}

	stored := m.Clone()
	stored.UserID = uid
	stored.ImageURL = s.uploadInline(ctx, stored.ID, stored.ImageURL)

	query := `INSERT INTO mistakes (id, user_id, subject, semester, question_text, image_url, ai_analysis, tags, created_at, deleted_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err = s.db.ExecContext(ctx, query,
		stored.ID,
		stored.UserID,
		stored.Subject,
		stored.Semester,
		stored.QuestionText,
		stored.ImageURL,
		stored.AIAnalysis,
		stored.Tags,
		stored.CreatedAt,
		stored.DeletedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert mistake: %w", err)
	}

	return stored, nil
}

func (s *CloudStore) Update(ctx context.Context, m *model.Mistake) (*model.Mistake, error) {
	uid, err := userID(ctx)
	if err != nil {
		return nil, err
	}

	stored := m.Clone()
	stored.UserID = uid
	if IsInline(stored.ImageURL) {
		stored.ImageURL = s.uploadInline(ctx, stored.ID, stored.ImageURL)
	}

	query := `UPDATE mistakes
	          SET subject = $1, semester = $2, question_text = $3, image_url = $4, ai_analysis = $5, tags = $6
	          WHERE id = $7 AND user_id = $8`

	result, err := s.db.ExecContext(ctx, query,
		stored.Subject,
		stored.Semester,
		stored.QuestionText,
		stored.ImageURL,
		stored.AIAnalysis,
		stored.Tags,
		stored.ID,
		stored.UserID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update mistake: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, ErrMistakeNotFound
	}

	return stored, nil
}

func (s *CloudStore) MoveToTrash(ctx context.Context, id string) error {
	uid, err := userID(ctx)
	if err != nil {
		return err
	}

	query := `UPDATE mistakes SET deleted_at = $1 WHERE id = $2 AND user_id = $3`
	result, err := s.db.ExecContext(ctx, query, s.timestamp(), id, uid)
	if err != nil {
		return fmt.Errorf("failed to trash mistake: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrMistakeNotFound
	}
	return nil
}

func (s *CloudStore) Restore(ctx context.Context, id string) error {
	uid, err := userID(ctx)
	if err != nil {
		return err
	}

	query := `UPDATE mistakes SET deleted_at = NULL WHERE id = $1 AND user_id = $2`
	result, err := s.db.ExecContext(ctx, query, id, uid)
	if err != nil {
		return fmt.Errorf("failed to restore mistake: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrMistakeNotFound
	}
	return nil
}

func (s *CloudStore) Purge(ctx context.Context, id string) error {
	uid, err := userID(ctx)
	if err != nil {
		return err
	}

	// Deleting an id that is already gone affects zero rows, which is fine:
	// purge is idempotent.
	query := `DELETE FROM mistakes WHERE id = $1 AND user_id = $2`
	_, err = s.db.ExecContext(ctx, query, id, uid)
	if err != nil {
		return fmt.Errorf("failed to purge mistake: %w", err)
	}
	return nil
}

func (s *CloudStore) EmptyTrash(ctx context.Context) error {
	uid, err := userID(ctx)
	if err != nil {
		return err
	}

	query := `DELETE FROM mistakes WHERE user_id = $1 AND deleted_at IS NOT NULL`
	_, err = s.db.ExecContext(ctx, query, uid)
	if err != nil {
		return fmt.Errorf("failed to empty trash: %w", err)
	}
	return nil
}

// uploadInline pushes an inline data: image to object storage and returns its
// public URL with a cache-busting timestamp, so an overwritten image is not
// served stale from a CDN. Any failure falls back to keeping the inline
// payload in the row rather than failing the whole write: the user's data is
// never lost, at the cost of a large inline value persisting.
func (s *CloudStore) uploadInline(ctx context.Context, mistakeID, imageURL string) string {
	if imageURL == "" || !IsInline(imageURL) {
		return imageURL
	}
	if s.objects == nil {
		slog.Warn("object storage not configured, keeping inline image", "mistake_id", mistakeID)
		return imageURL
	}

	img, err := ParseInline(imageURL)
	if err != nil {
		slog.Error("inline image is malformed, keeping as-is", "error", err, "mistake_id", mistakeID)
		return imageURL
	}

	key := fmt.Sprintf("%s.%s", mistakeID, img.Extension())
	err = s.objects.Save(ctx, key, bytes.NewReader(img.Data), img.MIMEType)
	if err != nil {
		slog.Error("image upload failed, keeping inline image", "error", err, "mistake_id", mistakeID)
		return imageURL
	}

	return fmt.Sprintf("%s?t=%d", s.objects.PublicURL(key), s.timestamp())
}

func (s *CloudStore) LoadSettings(ctx context.Context, uid string) (*model.AppSettings, error) {
	var raw string
	query := `SELECT settings FROM user_settings WHERE user_id = $1`
	err := s.db.GetContext(ctx, &raw, query, uid)
	if errors.Is(err, sql.ErrNoRows) {
		// First login or settings never synced.
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user settings: %w", err)
	}

	var settings model.AppSettings
	err = json.Unmarshal([]byte(raw), &settings)
	if err != nil {
		return nil, fmt.Errorf("failed to parse user settings: %w", err)
	}
	return &settings, nil
}

func (s *CloudStore) SaveSettings(ctx context.Context, uid string, settings model.AppSettings) error {
	// The cloud coordinates stay local only: persisting them into the cloud
	// they point at would be circular.
	settings.Cloud = model.CloudConfig{}

	raw, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to encode user settings: %w", err)
	}

	query := `INSERT INTO user_settings (user_id, settings, updated_at) VALUES ($1, $2, $3)
	          ON CONFLICT (user_id) DO UPDATE SET settings = excluded.settings, updated_at = excluded.updated_at`
	_, err = s.db.ExecContext(ctx, query, uid, string(raw), time.Now())
	if err != nil {
		return fmt.Errorf("failed to save user settings: %w", err)
	}
	return nil
}

// CheckConnection verifies cloud coordinates by connecting and probing the
// mistakes table, returning a user-presentable message. Used by the settings
// screen before cloud mode may be enabled.
func CheckConnection(ctx context.Context, driver, dsn, key string) (bool, string) {
	if dsn == "" || key == "" {
		return false, "URL or key is empty"
	}

	db, err := sqlx.ConnectContext(ctx, driver, dsn)
	if err != nil {
		return false, fmt.Sprintf("connection failed: %v", err)
	}
	defer db.Close()

	var count int
	err = db.GetContext(ctx, &count, `SELECT COUNT(*) FROM mistakes`)
	if err != nil {
		if strings.Contains(err.Error(), "no such table") || strings.Contains(err.Error(), "does not exist") {
			return false, "table missing: run migrations to create the 'mistakes' table"
		}
		return false, fmt.Sprintf("connection failed: %v", err)
	}

	return true, "connection successful"
}
