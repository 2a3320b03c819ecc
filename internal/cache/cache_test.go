package cache

import (
	"context"
	"io"
	"testing"
	"time"

	"lumina/internal/schedule"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testDate = time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

func newTestCache(t *testing.T) (*AvailabilityCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	logger := zerolog.New(io.Discard)
	return New(client, time.Minute, &logger), mr
}

func TestCacheRoundTrip(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()
	staffID := uuid.New()

	windows := []schedule.WindowInfo{
		{Start: "09:00", End: "09:45"},
		{Start: "09:15", End: "10:00"},
	}

	_, ok := c.Get(ctx, staffID, testDate, 45)
	assert.False(t, ok)

	c.Set(ctx, staffID, testDate, 45, windows)

	got, ok := c.Get(ctx, staffID, testDate, 45)
	require.True(t, ok)
	assert.Equal(t, windows, got)

	// A different duration is a different entry.
	_, ok = c.Get(ctx, staffID, testDate, 30)
	assert.False(t, ok)
}

func TestCacheInvalidateDay(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()
	staffID := uuid.New()
	otherDate := testDate.AddDate(0, 0, 1)

	c.Set(ctx, staffID, testDate, 30, []schedule.WindowInfo{{Start: "09:00", End: "09:30"}})
	c.Set(ctx, staffID, testDate, 60, []schedule.WindowInfo{{Start: "09:00", End: "10:00"}})
	c.Set(ctx, staffID, otherDate, 30, []schedule.WindowInfo{{Start: "11:00", End: "11:30"}})

	c.InvalidateDay(ctx, staffID, testDate)

	_, ok := c.Get(ctx, staffID, testDate, 30)
	assert.False(t, ok)
	_, ok = c.Get(ctx, staffID, testDate, 60)
	assert.False(t, ok)

	// Entries for other days survive.
	_, ok = c.Get(ctx, staffID, otherDate, 30)
	assert.True(t, ok)
}

func TestCacheDisabled(t *testing.T) {
	logger := zerolog.New(io.Discard)
	ctx := context.Background()

	for _, c := range []*AvailabilityCache{nil, New(nil, time.Minute, &logger)} {
		c.Set(ctx, uuid.New(), testDate, 30, []schedule.WindowInfo{{Start: "09:00", End: "09:30"}})
		_, ok := c.Get(ctx, uuid.New(), testDate, 30)
		assert.False(t, ok)
		c.InvalidateDay(ctx, uuid.New(), testDate)
	}
}
