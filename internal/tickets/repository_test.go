package tickets

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"campusq/internal/stations"
)

// dryRunSession opens a connectionless gorm session that renders SQL
// without executing it, so the generated statements can be inspected.
func dryRunSession(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN: "host=localhost user=queue dbname=queue",
	}), &gorm.Config{
		DryRun:               true,
		DisableAutomaticPing: true,
		Logger:               logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open dry-run session: %v", err)
	}
	return db
}

// The sequence row must be selected FOR UPDATE so concurrent joins for
// one purpose serialize and numbers stay contiguous.
func TestSequenceLockEmitsForUpdate(t *testing.T) {
	db := dryRunSession(t)

	var seq SequenceCounter
	stmt := forUpdate(db).Model(&SequenceCounter{}).
		Where("purpose = ?", stations.PurposePayment).
		First(&seq).Statement

	sql := stmt.SQL.String()
	if !strings.Contains(sql, "FOR UPDATE") {
		t.Fatalf("sequence lock query does not emit FOR UPDATE: %s", sql)
	}
}

// The claim pick must skip rows another transaction holds so two
// counters claiming concurrently never receive the same ticket, while
// still selecting in arrival order.
func TestClaimPickEmitsSkipLocked(t *testing.T) {
	db := dryRunSession(t)

	var ticket Ticket
	stmt := oldestPendingForUpdate(db, uuid.New()).First(&ticket).Statement

	sql := stmt.SQL.String()
	if !strings.Contains(sql, "FOR UPDATE SKIP LOCKED") {
		t.Fatalf("claim pick query does not emit FOR UPDATE SKIP LOCKED: %s", sql)
	}
	if !strings.Contains(sql, "created_at ASC, id ASC") {
		t.Fatalf("claim pick query does not order by arrival: %s", sql)
	}
}

// Counter and ticket row locks share the forUpdate builder; pin its
// output on a plain row select too.
func TestCounterLockEmitsForUpdate(t *testing.T) {
	db := dryRunSession(t)

	var counter stations.Counter
	stmt := forUpdate(db).
		Where("id = ? AND station_id = ?", uuid.New(), uuid.New()).
		First(&counter).Statement

	sql := stmt.SQL.String()
	if !strings.Contains(sql, "FOR UPDATE") {
		t.Fatalf("counter lock query does not emit FOR UPDATE: %s", sql)
	}
}
