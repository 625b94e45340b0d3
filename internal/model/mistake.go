package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Subject values match the fixed enumeration users pick from.
const (
	SubjectMath      = "Mathematics"
	SubjectEnglish   = "English"
	SubjectChinese   = "Chinese"
	SubjectScience   = "Science"
	SubjectPhysics   = "Physics"
	SubjectChemistry = "Chemistry"
	SubjectOther     = "Other"
)

// Subjects lists every valid subject in display order.
var Subjects = []string{
	SubjectMath,
	SubjectEnglish,
	SubjectChinese,
	SubjectScience,
	SubjectPhysics,
	SubjectChemistry,
	SubjectOther,
}

// ValidSubject reports whether s is one of the fixed subjects.
func ValidSubject(s string) bool {
	for _, subject := range Subjects {
		if s == subject {
			return true
		}
	}
	return false
}

// Sync status of a record relative to its durable copy. Pending means an
// optimistic in-memory mutation has not been confirmed yet; Failed means the
// background write errored and the in-memory copy is ahead of the store until
// the next full reload.
const (
	SyncConfirmed = "confirmed"
	SyncPending   = "pending"
	SyncFailed    = "failed"
)

// Tags is an ordered set of free-text labels. Duplicates are suppressed when
// tags are added, not retroactively. Stored as a JSON array in both the local
// collection files and the mistakes table.
type Tags []string

// Contains reports whether the tag is already present.
func (t Tags) Contains(tag string) bool {
	for _, existing := range t {
		if existing == tag {
			return true
		}
	}
	return false
}

// Value implements driver.Valuer so sqlx can write tags as a JSON column.
func (t Tags) Value() (driver.Value, error) {
	if t == nil {
		return "[]", nil
	}
	b, err := json.Marshal(t)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner for the JSON tags column.
func (t *Tags) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*t = nil
		return nil
	case []byte:
		return json.Unmarshal(v, t)
	case string:
		return json.Unmarshal([]byte(v), t)
	default:
		return fmt.Errorf("tags: cannot scan %T", src)
	}
}

// Mistake is one archived wrong answer. Timestamps are epoch milliseconds to
// match the persisted collection format. DeletedAt nil means the record is in
// the main collection; non-nil means it lives in the trash until purged.
type Mistake struct {
	ID           string `db:"id" json:"id"`
	UserID       string `db:"user_id" json:"user_id,omitempty"`
	Subject      string `db:"subject" json:"subject"`
	Semester     string `db:"semester" json:"semester"`
	QuestionText string `db:"question_text" json:"questionText,omitempty"`
	ImageURL     string `db:"image_url" json:"imageUrl,omitempty"`
	AIAnalysis   string `db:"ai_analysis" json:"aiAnalysis,omitempty"`
	Tags         Tags   `db:"tags" json:"tags,omitempty"`
	CreatedAt    int64  `db:"created_at" json:"createdAt"`
	DeletedAt    *int64 `db:"deleted_at" json:"deletedAt,omitempty"`
}

// Trashed reports whether the record is soft-deleted.
func (m *Mistake) Trashed() bool {
	return m.DeletedAt != nil
}

// Clone returns a deep copy so optimistic in-memory state never aliases the
// caller's value.
func (m *Mistake) Clone() *Mistake {
	dup := *m
	if m.DeletedAt != nil {
		at := *m.DeletedAt
		dup.DeletedAt = &at
	}
	if m.Tags != nil {
		dup.Tags = append(Tags{}, m.Tags...)
	}
	return &dup
}
