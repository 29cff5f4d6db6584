package syncx

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mind-engage/mindengage-exam/internal/db"
)

// Event types recorded by the portal.
const (
	TypeUserRegistered  = "UserRegistered"
	TypeExamSubmitted   = "ExamSubmitted"
	TypeQuestionCreated = "QuestionCreated"
	TypeQuestionDeleted = "QuestionDeleted"
	TypeSettingChanged  = "SettingChanged"
)

type Event struct {
	Offset    int64  `json:"offset"`
	SiteID    string `json:"site_id"`
	Type      string `json:"type"`
	Key       string `json:"key"`
	DataJSON  string `json:"data"`
	CreatedAt int64  `json:"created_at"`
}

// EventRepo appends to event_log. Pass a *sql.Tx to record the event in the
// same transaction as the write it describes.
type EventRepo struct {
	site string
}

func NewEventRepo(siteID string) *EventRepo {
	if siteID == "" {
		siteID = "local"
	}
	return &EventRepo{site: siteID}
}

// Append marshals data and writes one event row.
func (r *EventRepo) Append(ctx context.Context, q db.Querier, typ, key string, data any) error {
	buf, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("event %s: marshal: %w", typ, err)
	}
	_, err = q.ExecContext(ctx,
		`INSERT INTO event_log (site_id, typ, key, data, created_at)
		 VALUES ($1,$2,$3,$4,$5)`,
		r.site, typ, key, string(buf), time.Now().Unix())
	if err != nil {
		return fmt.Errorf("event %s: %w", typ, err)
	}
	return nil
}

// List returns events of the given type (all types when typ is empty),
// oldest first.
func (r *EventRepo) List(ctx context.Context, q db.Querier, typ string, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := q.QueryContext(ctx,
		`SELECT "offset", site_id, typ, key, data, created_at FROM event_log
		 WHERE ($1 = '' OR typ = $1) ORDER BY "offset" LIMIT $2`, typ, limit)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()
	var out []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.Offset, &e.SiteID, &e.Type, &e.Key, &e.DataJSON, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
