package interaction

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kitchenrush/internal/models"
)

const frame = time.Second / 60

func newTrigger() (*Trigger, *models.KitchenLayout) {
	layout := models.DefaultLayout()
	return NewTrigger(layout.Stations, 100, 400*time.Millisecond), layout
}

func TestNearestStation(t *testing.T) {
	trig, _ := newTrigger()

	s, ok := trig.Nearest(models.Point{X: 112, Y: 400})
	require.True(t, ok)
	assert.Equal(t, "fridge", s.ID)

	// between the ticket board and the fridge, closer to the ticket board
	s, ok = trig.Nearest(models.Point{X: 112, Y: 260})
	require.True(t, ok)
	assert.Equal(t, "ticket-board", s.ID)

	_, ok = trig.Nearest(models.Point{X: 640, Y: 450})
	assert.False(t, ok)
}

func TestDwellFiresExactlyOnce(t *testing.T) {
	trig, _ := newTrigger()
	pos := models.Point{X: 112, Y: 400}

	fired := 0
	for i := 0; i < 300; i++ {
		if s := trig.Update(pos, frame); s != nil {
			fired++
			assert.Equal(t, "fridge", s.ID)
		}
	}
	assert.Equal(t, 1, fired)
	assert.Equal(t, "fridge", trig.Current())
}

func TestDwellWaitsForDelay(t *testing.T) {
	trig, _ := newTrigger()
	pos := models.Point{X: 112, Y: 400}

	for i := 0; i < 24; i++ {
		require.Nil(t, trig.Update(pos, frame), "frame %d", i)
	}
	// the 25th frame of 1/60s crosses 400ms
	assert.NotNil(t, trig.Update(pos, frame))
}

func TestBriefVisitDoesNotFire(t *testing.T) {
	trig, _ := newTrigger()

	// 10px per frame crosses the stove's range in fewer than 24 frames
	for x := 560.0; x <= 720; x += 10 {
		assert.Nil(t, trig.Update(models.Point{X: x, Y: 400}, frame), "x=%v", x)
	}
}

func TestWalkingThroughRangeFiresOnce(t *testing.T) {
	trig, _ := newTrigger()

	// at walking speed the stove stays nearest for about 60 frames
	var fired []string
	for x := 560.0; x <= 720; x += 2.5 {
		if s := trig.Update(models.Point{X: x, Y: 400}, frame); s != nil {
			fired = append(fired, s.ID)
		}
	}
	assert.Equal(t, []string{"stove"}, fired)
}

func TestMovingWithinRangeKeepsDwell(t *testing.T) {
	trig, _ := newTrigger()

	for i := 0; i < 24; i++ {
		p := models.Point{X: 112 + float64(i%4), Y: 400}
		require.Nil(t, trig.Update(p, frame), "frame %d", i)
	}
	s := trig.Update(models.Point{X: 120, Y: 400}, frame)
	require.NotNil(t, s)
	assert.Equal(t, "fridge", s.ID)
}

func TestLeavingCancelsDwell(t *testing.T) {
	trig, _ := newTrigger()
	near := models.Point{X: 112, Y: 400}
	away := models.Point{X: 640, Y: 500}

	for i := 0; i < 20; i++ {
		trig.Update(near, frame)
	}
	trig.Update(away, frame)
	assert.Equal(t, "", trig.Current())

	// dwell restarts from zero on return
	for i := 0; i < 24; i++ {
		require.Nil(t, trig.Update(near, frame))
	}
	assert.NotNil(t, trig.Update(near, frame))
}

func TestReentryFiresAgain(t *testing.T) {
	trig, _ := newTrigger()
	near := models.Point{X: 112, Y: 400}

	fired := 0
	for visit := 0; visit < 3; visit++ {
		for i := 0; i < 60; i++ {
			if trig.Update(near, frame) != nil {
				fired++
			}
		}
		trig.Update(models.Point{X: 640, Y: 500}, frame)
	}
	assert.Equal(t, 3, fired)
}

func TestRearm(t *testing.T) {
	trig, _ := newTrigger()
	near := models.Point{X: 112, Y: 400}

	assert.False(t, trig.Rearm())
	for i := 0; i < 30; i++ {
		trig.Update(near, frame)
	}
	require.True(t, trig.Rearm())
	assert.Equal(t, 400*time.Millisecond, trig.Pending())

	var fired bool
	for i := 0; i < 30; i++ {
		fired = fired || trig.Update(near, frame) != nil
	}
	assert.True(t, fired)
}
