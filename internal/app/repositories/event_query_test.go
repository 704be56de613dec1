package repositories

import (
	"strings"
	"testing"
	"time"

	"github.com/gatherly/gatherly/internal/app/models"
)

func TestEventQueryBaseStatement(t *testing.T) {
	sql, args, err := NewEventQuery().ToSql()
	if err != nil {
		t.Fatalf("ToSql() error = %v", err)
	}
	if len(args) != 0 {
		t.Fatalf("expected no args, got %v", args)
	}

	for _, want := range []string{
		"FROM events e LEFT JOIN (",
		"COUNT(*) FILTER (WHERE status = 'going') AS going",
		"GROUP BY event_id",
		"COALESCE(rc.not_going, 0)",
		"ORDER BY e.start_time ASC, e.id ASC",
	} {
		if !strings.Contains(sql, want) {
			t.Errorf("statement missing %q:\n%s", want, sql)
		}
	}
	if strings.Contains(sql, "WHERE e.") {
		t.Errorf("unfiltered query must not have event predicates:\n%s", sql)
	}
}

func TestEventQueryFiltersComposeInOrder(t *testing.T) {
	from := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)

	sql, args, err := NewEventQuery().
		Search("jazz").
		StartsFrom(from).
		StartsUntil(to).
		CreatedBy(7).
		CreatedBy(9).
		WithRSVP(7, models.RSVPGoing).
		ToSql()
	if err != nil {
		t.Fatalf("ToSql() error = %v", err)
	}

	for _, want := range []string{
		"e.title ILIKE $1",
		"e.address ILIKE $5",
		"e.start_time >= $6",
		"e.start_time <= $7",
		"e.created_by = $8",
		"e.created_by = $9",
		"EXISTS (SELECT 1 FROM rsvps r WHERE r.event_id = e.id AND r.user_id = $10 AND r.status = $11)",
	} {
		if !strings.Contains(sql, want) {
			t.Errorf("statement missing %q:\n%s", want, sql)
		}
	}

	if len(args) != 11 {
		t.Fatalf("expected 11 args, got %d: %v", len(args), args)
	}
	if args[0] != "%jazz%" || args[7] != int64(7) || args[8] != int64(9) || args[10] != "going" {
		t.Fatalf("unexpected args %v", args)
	}
}

func TestEventQuerySearchEscapesWildcards(t *testing.T) {
	_, args, err := NewEventQuery().Search(`50%_off\`).ToSql()
	if err != nil {
		t.Fatalf("ToSql() error = %v", err)
	}
	if want := `%50\%\_off\\%`; args[0] != want {
		t.Fatalf("pattern = %q, want %q", args[0], want)
	}
}

func TestCountsQueryGroupsOnce(t *testing.T) {
	sql, args, err := countsQuery([]int64{1, 2, 3}).ToSql()
	if err != nil {
		t.Fatalf("ToSql() error = %v", err)
	}
	if strings.Count(sql, "FROM rsvps") != 1 || !strings.Contains(sql, "GROUP BY event_id") {
		t.Fatalf("expected a single grouped aggregation:\n%s", sql)
	}
	if !strings.Contains(sql, "event_id IN ($1,$2,$3)") || len(args) != 3 {
		t.Fatalf("unexpected filter %s %v", sql, args)
	}
}
