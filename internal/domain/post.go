package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Tags is the ordered tag list of a post. It is stored as a JSON array but Scan also
// accepts legacy comma-joined text and Postgres array literals, so callers only ever
// see a []string.
type Tags []string

// NewTags trims each tag, drops empties and keeps the original order.
func NewTags(raw []string) Tags {
	out := make(Tags, 0, len(raw))
	for _, t := range raw {
		t = strings.TrimSpace(t)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// Contains reports whether name is one of the tags (exact match).
func (t Tags) Contains(name string) bool {
	for _, tag := range t {
		if tag == name {
			return true
		}
	}
	return false
}

func (t Tags) MarshalJSON() ([]byte, error) {
	if t == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(t))
}

// UnmarshalJSON accepts either an array or a comma-joined string from request bodies.
func (t *Tags) UnmarshalJSON(data []byte) error {
	var arr []string
	if err := json.Unmarshal(data, &arr); err == nil {
		*t = NewTags(arr)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*t = parseTagText(s)
	return nil
}

// Scan implements sql.Scanner.
func (t *Tags) Scan(value interface{}) error {
	if value == nil {
		*t = Tags{}
		return nil
	}
	switch v := value.(type) {
	case []byte:
		*t = parseTagText(string(v))
		return nil
	case string:
		*t = parseTagText(v)
		return nil
	default:
		return errors.New("unsupported type for Tags")
	}
}

// Value implements driver.Valuer. Always writes a JSON array.
func (t Tags) Value() (driver.Value, error) {
	b, err := json.Marshal(NewTags(t))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func parseTagText(s string) Tags {
	s = strings.TrimSpace(s)
	if s == "" {
		return Tags{}
	}
	if strings.HasPrefix(s, "[") {
		var arr []string
		if err := json.Unmarshal([]byte(s), &arr); err == nil {
			return NewTags(arr)
		}
	}
	if strings.HasPrefix(s, "{") && strings.HasSuffix(s, "}") {
		return NewTags(parseArrayLiteral(s[1 : len(s)-1]))
	}
	return NewTags(strings.Split(s, ","))
}

// parseArrayLiteral splits the body of a one-dimensional Postgres text[] literal.
// Quoted elements may contain commas and backslash escapes; unquoted NULL is skipped.
func parseArrayLiteral(body string) []string {
	var (
		out     []string
		cur     strings.Builder
		quoted  bool
		inQuote bool
	)
	flush := func() {
		elem := cur.String()
		if !quoted {
			elem = strings.TrimSpace(elem)
		}
		if quoted || !strings.EqualFold(elem, "NULL") {
			out = append(out, elem)
		}
		cur.Reset()
		quoted = false
	}
	for i := 0; i < len(body); i++ {
		ch := body[i]
		switch {
		case inQuote && ch == '\\' && i+1 < len(body):
			i++
			cur.WriteByte(body[i])
		case ch == '"':
			inQuote = !inQuote
			quoted = true
		case !inQuote && ch == ',':
			flush()
		default:
			cur.WriteByte(ch)
		}
	}
	if cur.Len() > 0 || quoted {
		flush()
	}
	return out
}

// Post is a global forum post. Organization association is derived from tags.
type Post struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"column:user_id;type:uuid;not null;index" json:"user_id"`
	Title     string    `gorm:"column:title;not null" json:"title"`
	Content   string    `gorm:"column:content" json:"content"`
	Tags      Tags      `gorm:"column:tags;type:text" json:"tags"`
	CreatedAt time.Time `gorm:"column:created_at;index" json:"created_at"`
}

func (Post) TableName() string {
	return "posts"
}

func (p *Post) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

type Comment struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"column:user_id;type:uuid;not null" json:"user_id"`
	PostID    uuid.UUID `gorm:"column:post_id;type:uuid;not null;index" json:"post_id"`
	Text      string    `gorm:"column:text;not null" json:"text"`
	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
}

func (Comment) TableName() string {
	return "comments"
}

func (c *Comment) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// PostOrganization pins a post to a nonprofit by id. Rows are written when a post is
// created with a tag equal to an existing nonprofit name, so the association survives renames.
type PostOrganization struct {
	PostID      uuid.UUID `gorm:"column:post_id;type:uuid;primaryKey" json:"post_id"`
	NonprofitID uuid.UUID `gorm:"column:nonprofit_id;type:uuid;primaryKey;index" json:"nonprofit_id"`
	CreatedAt   time.Time `gorm:"column:created_at" json:"created_at"`
}

func (PostOrganization) TableName() string {
	return "post_organizations"
}
