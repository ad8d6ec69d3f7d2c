package database

import (
	"sort"
	"strings"

	"serviceloop-backend/internal/pkg/apperr"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// Readiness records which tables existed when the service started. A nil *Readiness
// treats every table as present.
type Readiness struct {
	missing map[string]bool
}

// CheckReadiness inspects the schema once and logs every missing table.
func CheckReadiness(db *gorm.DB) *Readiness {
	r := &Readiness{missing: map[string]bool{}}
	for _, m := range Models() {
		if db.Migrator().HasTable(m) {
			continue
		}
		name := tableName(db, m)
		r.missing[name] = true
		log.Warn().Str("table", name).Msg("readiness: table not provisioned")
	}
	return r
}

// NewReadiness builds a readiness result from a list of missing tables.
func NewReadiness(missing ...string) *Readiness {
	r := &Readiness{missing: map[string]bool{}}
	for _, t := range missing {
		r.missing[t] = true
	}
	return r
}

func tableName(db *gorm.DB, model interface{}) string {
	if t, ok := model.(schema.Tabler); ok {
		return t.TableName()
	}
	stmt := &gorm.Statement{DB: db}
	if err := stmt.Parse(model); err != nil {
		return "unknown"
	}
	return stmt.Schema.Table
}

// Ready reports whether all tables exist.
func (r *Readiness) Ready(tables ...string) bool {
	if r == nil {
		return true
	}
	for _, t := range tables {
		if r.missing[t] {
			return false
		}
	}
	return true
}

// Require returns a NotProvisioned error naming the missing tables, or nil.
func (r *Readiness) Require(tables ...string) error {
	if r.Ready(tables...) {
		return nil
	}
	var missing []string
	for _, t := range tables {
		if r.missing[t] {
			missing = append(missing, t)
		}
	}
	return apperr.NotProvisioned("Database not provisioned: missing " + strings.Join(missing, ", ") + ". Run the database migrations.")
}

// Missing lists missing tables in name order.
func (r *Readiness) Missing() []string {
	if r == nil {
		return []string{}
	}
	out := make([]string, 0, len(r.missing))
	for t := range r.missing {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// NotProvisioned builds the typed error for a runtime undefined-table failure.
func NotProvisioned(tables ...string) error {
	return NewReadiness(tables...).Require(tables...)
}
