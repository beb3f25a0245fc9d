// Package specification holds composable gorm query filters for the context store.
package specification

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Specification interface {
	Apply(db *gorm.DB) *gorm.DB
}

// Compose applies specs in order.
func Compose(db *gorm.DB, specs ...Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

// BySession selects the context row of one session within a team.
type BySession struct {
	SessionID      string
	OrganizationID string
}

func (s BySession) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("session_id = ? AND organization_id = ?", s.SessionID, s.OrganizationID)
}

// ForUpdate locks the selected rows until the surrounding transaction ends.
type ForUpdate struct{}

func (ForUpdate) Apply(db *gorm.DB) *gorm.DB {
	return db.Clauses(clause.Locking{Strength: "UPDATE"})
}
