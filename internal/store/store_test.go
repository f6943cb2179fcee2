package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTest(t *testing.T) *DB {
	t.Helper()
	db, err := OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestOpenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "folio.db")
	db, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, db.RecordVisit(context.Background(), Visitor{HashedIP: "abc", Path: "/"}))
	require.NoError(t, db.Close())

	// Reopening keeps data and reruns migrations harmlessly.
	db, err = Open(path)
	require.NoError(t, err)
	defer db.Close()
	visitors, err := db.RecentVisitors(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, visitors, 1)
}

func TestVisitorsAndCleanup(t *testing.T) {
	db := openTest(t)
	ctx := context.Background()
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, db.RecordVisit(ctx, Visitor{HashedIP: "a", Path: "/", Timestamp: now.AddDate(-2, 0, 0)}))
	require.NoError(t, db.RecordVisit(ctx, Visitor{HashedIP: "b", Path: "/work-content", UserAgent: "test", Timestamp: now.Add(-time.Hour)}))
	require.NoError(t, db.RecordVisit(ctx, Visitor{HashedIP: "a", Path: "/", Timestamp: now}))

	recent, err := db.RecentVisitors(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.True(t, recent[0].Timestamp.Equal(now))
	assert.Equal(t, "/work-content", recent[1].Path)
	assert.Equal(t, "test", recent[1].UserAgent)

	n, err := db.CleanupVisitors(ctx, now.AddDate(-1, 0, 0))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestTopRegions(t *testing.T) {
	db := openTest(t)
	ctx := context.Background()

	for _, v := range []View{
		{SessionID: "s1", RegionID: "exp-1", Source: "auto"},
		{SessionID: "s1", RegionID: "exp-2", Source: "manual"},
		{SessionID: "s2", RegionID: "exp-2", Source: "auto"},
		{SessionID: "s2", RegionID: "exp-3", Source: "auto"},
	} {
		require.NoError(t, db.RecordView(ctx, v))
	}
	assert.Error(t, db.RecordView(ctx, View{SessionID: "s3", RegionID: "exp-1", Source: "bogus"}))

	top, err := db.TopRegions(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, []RegionCount{
		{RegionID: "exp-2", Views: 2, Manual: 1},
		{RegionID: "exp-1", Views: 1, Manual: 0},
	}, top)
}

func TestMessages(t *testing.T) {
	db := openTest(t)
	ctx := context.Background()

	id, err := db.SaveMessage(ctx, Message{Name: "Ada", Email: "ada@example.com", Message: "Hello"})
	require.NoError(t, err)
	require.NoError(t, db.MarkDelivered(ctx, id))

	msgs, err := db.Messages(ctx, 10)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "Ada", msgs[0].Name)
	assert.True(t, msgs[0].Delivered)
}

func TestStats(t *testing.T) {
	db := openTest(t)
	ctx := context.Background()
	now := time.Date(2024, 6, 10, 15, 0, 0, 0, time.UTC)

	require.NoError(t, db.RecordVisit(ctx, Visitor{HashedIP: "a", Timestamp: now.Add(-time.Hour)}))
	require.NoError(t, db.RecordVisit(ctx, Visitor{HashedIP: "a", Timestamp: now.Add(-48 * time.Hour)}))
	require.NoError(t, db.RecordVisit(ctx, Visitor{HashedIP: "b", Timestamp: now.Add(-30 * 24 * time.Hour)}))
	require.NoError(t, db.RecordView(ctx, View{SessionID: "s", RegionID: "exp-1", Source: "auto"}))
	_, err := db.SaveMessage(ctx, Message{Name: "n", Email: "e", Message: "m"})
	require.NoError(t, err)

	s, err := db.Stats(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(3), s.TotalVisitors)
	assert.Equal(t, int64(2), s.UniqueVisitors)
	assert.Equal(t, int64(1), s.VisitorsToday)
	assert.Equal(t, int64(2), s.VisitorsThisWeek)
	assert.Equal(t, int64(1), s.TotalViews)
	assert.Equal(t, int64(1), s.Messages)
	assert.Len(t, s.TopRegions, 1)
	assert.Len(t, s.RecentVisitors, 3)
}
