package attendance

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestOpenBreak(t *testing.T) {
	now := time.Now().UTC()
	end := now.Add(15 * time.Minute)

	att := Attendance{
		Breaks: []Break{
			{ID: "b1", Start: now.Add(-2 * time.Hour), End: &end},
			{ID: "b2", Start: now},
		},
	}

	open := att.OpenBreak()
	assert.NotNil(t, open)
	assert.Equal(t, "b2", open.ID)

	att.Breaks = att.Breaks[:1]
	assert.Nil(t, att.OpenBreak())
}

func TestClosed(t *testing.T) {
	now := time.Now().UTC()

	att := Attendance{Status: StatusWorking}
	assert.False(t, att.Closed())

	att.Status = StatusOutOfOffice
	assert.True(t, att.Closed())

	att = Attendance{Status: StatusWorking, TimeOut: &now}
	assert.True(t, att.Closed())
}

func TestActiveAt(t *testing.T) {
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	end := start.Add(8 * time.Hour)
	att := Attendance{ShiftStart: start, ShiftEnd: end}

	assert.True(t, att.ActiveAt(start))
	assert.True(t, att.ActiveAt(start.Add(4*time.Hour)))
	assert.True(t, att.ActiveAt(end))
	assert.False(t, att.ActiveAt(start.Add(-time.Minute)))
	assert.False(t, att.ActiveAt(end.Add(time.Minute)))
}

func TestSumClosedBreaks(t *testing.T) {
	now := time.Now().UTC()
	end := now.Add(30 * time.Minute)
	d1 := int64(30 * 60 * 1000)
	d2 := int64(10 * 60 * 1000)

	breaks := []Break{
		{Start: now, End: &end, DurationMs: &d1},
		{Start: now, End: &end, DurationMs: &d2},
		{Start: now}, // open, must not count
	}

	assert.Equal(t, d1+d2, SumClosedBreaks(breaks))
	assert.Equal(t, int64(0), SumClosedBreaks(nil))
}

func TestWorkedIntervalDuration(t *testing.T) {
	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	in := now.Add(-3 * time.Hour)
	out := now.Add(-time.Hour)

	closed := WorkedInterval{TimeIn: in, TimeOut: &out}
	assert.Equal(t, 2*time.Hour, closed.Duration(now))

	open := WorkedInterval{TimeIn: in}
	assert.Equal(t, 3*time.Hour, open.Duration(now))

	// Clock skew: an interval that starts after its end clamps to zero.
	future := WorkedInterval{TimeIn: now.Add(time.Hour)}
	assert.Equal(t, time.Duration(0), future.Duration(now))
}
