package specification

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type contextRow struct {
	SessionID      string
	OrganizationID string
}

func (contextRow) TableName() string { return "conversation_contexts" }

func TestCompose_BuildsLockedSessionQuery(t *testing.T) {
	db, err := gorm.Open(postgres.New(postgres.Config{DSN: "host=localhost"}), &gorm.Config{DryRun: true, DisableAutomaticPing: true})
	if err != nil {
		t.Skipf("dry-run dialector unavailable: %v", err)
	}

	stmt := Compose(db.Model(&contextRow{}), BySession{SessionID: "s1", OrganizationID: "team"}, ForUpdate{}).
		Find(&[]contextRow{}).Statement

	sql := stmt.SQL.String()
	assert.Contains(t, sql, "session_id = $1 AND organization_id = $2")
	assert.Contains(t, sql, "FOR UPDATE")
	assert.Equal(t, []interface{}{"s1", "team"}, stmt.Vars)
}
