package store

import (
	"context"
	"fmt"
	"time"
)

// View is one change of the active timeline card in a live session.
type View struct {
	SessionID string    `json:"session_id"`
	RegionID  string    `json:"region_id"`
	Source    string    `json:"source"`
	Timestamp time.Time `json:"timestamp"`
}

// RegionCount is how often a timeline card became active.
type RegionCount struct {
	RegionID string `json:"region_id"`
	Views    int64  `json:"views"`
	Manual   int64  `json:"manual"`
}

// RecordView stores an active-card change. Source is "auto" or "manual".
func (d *DB) RecordView(ctx context.Context, v View) error {
	if v.Timestamp.IsZero() {
		v.Timestamp = time.Now()
	}
	_, err := d.db.ExecContext(ctx, `
		INSERT INTO timeline_views (session_id, region_id, source, timestamp)
		VALUES (?, ?, ?, ?)`,
		v.SessionID, v.RegionID, v.Source, v.Timestamp.UTC())
	if err != nil {
		return fmt.Errorf("recording view: %w", err)
	}
	return nil
}

// TopRegions returns the most viewed timeline cards.
func (d *DB) TopRegions(ctx context.Context, limit int) ([]RegionCount, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT region_id,
			COUNT(*) AS views,
			SUM(CASE WHEN source = 'manual' THEN 1 ELSE 0 END) AS manual
		FROM timeline_views
		GROUP BY region_id
		ORDER BY views DESC, region_id ASC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying top regions: %w", err)
	}
	defer rows.Close()

	var out []RegionCount
	for rows.Next() {
		var rc RegionCount
		if err := rows.Scan(&rc.RegionID, &rc.Views, &rc.Manual); err != nil {
			return nil, fmt.Errorf("scanning region count: %w", err)
		}
		out = append(out, rc)
	}
	return out, rows.Err()
}

// Message is a contact form submission.
type Message struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Message   string    `json:"message"`
	Delivered bool      `json:"delivered"`
	CreatedAt time.Time `json:"created_at"`
}

// SaveMessage stores a contact message and returns its id.
func (d *DB) SaveMessage(ctx context.Context, m Message) (int64, error) {
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}
	res, err := d.db.ExecContext(ctx, `
		INSERT INTO contact_messages (name, email, message, delivered, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		m.Name, m.Email, m.Message, m.Delivered, m.CreatedAt.UTC())
	if err != nil {
		return 0, fmt.Errorf("saving message: %w", err)
	}
	return res.LastInsertId()
}

// MarkDelivered flags a stored message as mailed.
func (d *DB) MarkDelivered(ctx context.Context, id int64) error {
	if _, err := d.db.ExecContext(ctx, `UPDATE contact_messages SET delivered = 1 WHERE id = ?`, id); err != nil {
		return fmt.Errorf("marking message %d delivered: %w", id, err)
	}
	return nil
}

// Messages returns contact messages, newest first.
func (d *DB) Messages(ctx context.Context, limit int) ([]Message, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT id, name, email, message, delivered, created_at
		FROM contact_messages
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying messages: %w", err)
	}
	defer rows.Close()

	var out []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.Name, &m.Email, &m.Message, &m.Delivered, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning message: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
