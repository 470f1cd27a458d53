package actors

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivlev/carrytales/internal/scene"
	"github.com/ivlev/carrytales/internal/task"
)

// stepUntil advances s in 10ms frames until t resolves or limit passes,
// and returns the scene time spent.
func stepUntil(t *testing.T, s *scene.Scene, tk *task.Task, limit time.Duration) time.Duration {
	t.Helper()
	start := s.Now()
	for !tk.IsResolved() {
		require.Less(t, s.Now()-start, limit, "task did not resolve")
		s.Step(10 * time.Millisecond)
	}
	return s.Now() - start
}

func TestHouseSlideIn(t *testing.T) {
	s := scene.New(1280, 720)
	h := NewHouse(s, 900, 600, HouseOptions{Label: "ONES"})

	done := h.SlideIn(FromRight, time.Second)
	assert.InDelta(t, 1280+300, h.Root.X, 1e-9)
	elapsed := stepUntil(t, s, done, 2*time.Second)
	assert.Equal(t, time.Second, elapsed)
	assert.InDelta(t, 900, h.Root.X, 1e-9)
}

func TestHouseGeometry(t *testing.T) {
	s := scene.New(1280, 720)
	h := NewHouse(s, 300, 600, HouseOptions{})
	assert.Equal(t, "HOUSE", h.Label)

	x, y := h.DoorFrontPos()
	assert.Equal(t, [2]float64{300, 610}, [2]float64{x, y})
	x, y = h.RoofOpeningPos()
	assert.Equal(t, [2]float64{300, 600 - 220 - 70 + 20}, [2]float64{x, y})
}

func TestHouseDoorAndRoof(t *testing.T) {
	s := scene.New(1280, 720)
	h := NewHouse(s, 300, 600, HouseOptions{})

	// Three plays of 200ms there and back.
	assert.Equal(t, 1200*time.Millisecond, stepUntil(t, s, h.FlashDoor(), 2*time.Second))
	assert.InDelta(t, 1, h.door.Alpha, 1e-9)

	stepUntil(t, s, h.OpenDoor(), time.Second)
	assert.InDelta(t, 0.15, h.door.ScaleX, 1e-9)
	stepUntil(t, s, h.CloseDoor(), time.Second)
	assert.InDelta(t, 1, h.door.ScaleX, 1e-9)

	stepUntil(t, s, h.ShowRoofOpening(), time.Second)
	assert.InDelta(t, 1, h.roofOpening.Alpha, 1e-9)
	stepUntil(t, s, h.HideRoofOpening(), time.Second)
	assert.InDelta(t, 0, h.roofOpening.Alpha, 1e-9)

	h.ShowDoorSign()
	s.Step(300 * time.Millisecond)
	assert.InDelta(t, 1, h.doorSign.Alpha, 1e-9)

	d := h.AddDigitInside("7", 0)
	assert.Equal(t, h.Root, d.Parent())
	assert.Len(t, h.Digits(), 1)
}

func TestCharacterWalkAndShrink(t *testing.T) {
	s := scene.New(1280, 720)
	c := NewCharacter(s, -60, 600, "9", 0)
	assert.Equal(t, 36.0, c.Radius)
	assert.Equal(t, Happy, c.Emotion())

	stepUntil(t, s, c.WalkTo(840, 600, 1500*time.Millisecond), 2*time.Second)
	x, y := c.Position()
	assert.InDelta(t, 840, x, 1e-9)
	assert.InDelta(t, 600, y, 1e-9)

	c.ShowEmotion(Sad)
	assert.Equal(t, Sad, c.Emotion())

	stepUntil(t, s, c.Shrink(300*time.Millisecond), time.Second)
	assert.InDelta(t, 0, c.Root.Alpha, 1e-9)
	assert.Empty(t, s.Snapshot().Sprites, "a faded character draws nothing")
}

func TestCharacterPopInAndBounce(t *testing.T) {
	s := scene.New(1280, 720)
	c := NewCharacter(s, 100, 600, "17", 0)

	stepUntil(t, s, c.PopIn(400*time.Millisecond), time.Second)
	assert.InDelta(t, 1, c.Root.ScaleX, 1e-9)

	assert.Equal(t, 1000*time.Millisecond, stepUntil(t, s, c.Bounce(2), 2*time.Second))
	_, y := c.Position()
	assert.InDelta(t, 600, y, 1e-9)

	stepUntil(t, s, c.Shake(600*time.Millisecond), 2*time.Second)
	x, _ := c.Position()
	assert.InDelta(t, 100, x, 1e-9)
}

func TestCharacterFlyToLeavesNoTrail(t *testing.T) {
	s := scene.New(1280, 720)
	c := NewCharacter(s, 640, 600, "1", 0)
	base := len(s.Snapshot().Sprites)

	done := c.FlyTo(300, 330, 2*time.Second)
	s.Step(time.Second)
	x, y := c.Position()
	assert.InDelta(t, (640+300)/2.0, x, 1, "half way along the arc")
	assert.Less(t, y, 330.0, "arc rises above both endpoints")
	assert.Greater(t, len(s.Snapshot().Sprites), base)

	stepUntil(t, s, done, 2*time.Second)
	x, y = c.Position()
	assert.InDelta(t, 300, x, 1e-9)
	assert.InDelta(t, 330, y, 1e-9)

	s.Step(500 * time.Millisecond)
	assert.Len(t, s.Snapshot().Sprites, base)
}

func TestReplayCard(t *testing.T) {
	s := scene.New(1280, 720)
	card, err := NewReplayCard(s, 640, 640, "https://example.com/carry")
	require.NoError(t, err)
	require.NotNil(t, card.QR)
	assert.Equal(t, qrSize, card.QR.Img.Bounds().Dx())
	assert.Equal(t, 1, s.ActiveTweens())

	plain, err := NewReplayCard(scene.New(10, 10), 0, 0, "")
	require.NoError(t, err)
	assert.Nil(t, plain.QR)
}
