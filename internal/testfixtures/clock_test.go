package testfixtures

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClock(t *testing.T) {
	t.Run("Should default to the reference time", func(t *testing.T) {
		assert.True(t, NewClock(time.Time{}).Now().Equal(ReferenceTime()))
		assert.Equal(t, time.Monday, ReferenceTime().Weekday())
	})

	t.Run("Should advance and set", func(t *testing.T) {
		clock := NewClock(time.Time{})
		now := clock.NowFunc()

		updated := clock.Advance(90 * time.Minute)
		assert.True(t, updated.Equal(ReferenceTime().Add(90*time.Minute)))
		assert.True(t, now().Equal(updated))

		clock.Set(ReferenceTime())
		assert.True(t, now().Equal(ReferenceTime()))
	})

	t.Run("Should build wall-clock instants", func(t *testing.T) {
		got := ClubTime(nil, 2026, time.October, 19, 9, 30)
		assert.Equal(t, time.UTC, got.Location())
		assert.Equal(t, 9, got.Hour())
		assert.Equal(t, 30, got.Minute())
	})
}
