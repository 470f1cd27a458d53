package story

import (
	"context"
	"math"
	"math/rand/v2"
	"time"

	"github.com/ivlev/carrytales/internal/actors"
	"github.com/ivlev/carrytales/internal/scene"
	"github.com/ivlev/carrytales/internal/task"
	"github.com/ivlev/carrytales/internal/tween"
)

// CarryTale returns the nine phases of 9 + 8 = 17 with a carry.
func CarryTale() []Phase {
	return []Phase{
		{
			Name: "INTRO",
			Narration: "Welcome to Carry Tales! See these two houses? " +
				"The one on the right is the Ones house, and the one on the left is the Tens house. " +
				"Each house has a small door. Only a single-digit number can fit through!",
			Animate: intro,
		},
		{
			Name:      "ADDITION",
			Narration: "Let's try adding nine plus eight! Here they come, walking up to the ones house.",
			Animate:   addition,
		},
		{
			Name: "DOOR_ATTEMPT",
			Narration: "Nine plus eight equals seventeen! Seventeen tries to enter the ones house door. " +
				"But oh no, seventeen is a two-digit number! It is too big for the small door!",
			Animate: doorAttempt,
		},
		{
			Name: "SPLIT",
			Narration: "Seventeen can't fit! So one and seven have a little argument and decide to split apart. " +
				"Seven says, I'll go into the ones house. One says, but where will I go?",
			Animate: split,
		},
		{
			Name: "SEVEN_ENTERS",
			Narration: "Seven walks up to the door. Seven is just one digit, so it fits perfectly! " +
				"The door opens and seven happily walks inside the ones house!",
			Animate: sevenEnters,
		},
		{
			Name: "ONE_SAD",
			Narration: "Poor number one! One doesn't belong in the ones house because the seven already took the spot. " +
				"One feels sad and looks around. Then one spots the tens house on the other side! " +
				"Maybe one can go there instead!",
			Animate: oneSad,
		},
		{
			Name: "CARRY_FLY",
			Narration: "Number one decides to fly up to the roof of the tens house! " +
				"This is called carrying! When a sum is too big for the ones house, " +
				"the extra digit carries over to the tens house. Whoooosh!",
			Animate: carryFly,
		},
		{
			Name: "TENS_WELCOME",
			Narration: "Four and five were already inside the tens house. They welcome number one! " +
				"Four plus five plus one equals ten! Now the tens house has ten in it!",
			Animate: tensWelcome,
		},
		{
			Name: "CELEBRATION",
			Narration: "And that's how carrying works in addition! " +
				"Nine plus eight equals seventeen. " +
				"Seven goes in the ones place, and one carries over to the tens place. " +
				"The final answer is one hundred and seven! " +
				"Great job! Click Play Again to try once more!",
			Animate: celebration,
		},
	}
}

func await(ctx context.Context, tasks ...*task.Task) error {
	return task.All(tasks...).Wait(ctx)
}

func pause(ctx context.Context, s *scene.Scene, d time.Duration) error {
	return s.Delay(d).Wait(ctx)
}

func houses(c *Context) (ones, tens *actors.House, err error) {
	if ones, err = handle[*actors.House](c, KeyOnesHouse); err != nil {
		return nil, nil, err
	}
	if tens, err = handle[*actors.House](c, KeyTensHouse); err != nil {
		return nil, nil, err
	}
	return ones, tens, nil
}

func intro(ctx context.Context, s *scene.Scene, c *Context) error {
	ones, tens, err := houses(c)
	if err != nil {
		return err
	}
	if err := await(ctx,
		ones.SlideIn(actors.FromRight, time.Second),
		tens.SlideIn(actors.FromLeft, time.Second),
	); err != nil {
		return err
	}
	if err := await(ctx, ones.FlashDoor()); err != nil {
		return err
	}
	if err := await(ctx, tens.FlashDoor()); err != nil {
		return err
	}
	ones.ShowDoorSign()
	tens.ShowDoorSign()
	return pause(ctx, s, 500*time.Millisecond)
}

func addition(ctx context.Context, s *scene.Scene, c *Context) error {
	ones, err := handle[*actors.House](c, KeyOnesHouse)
	if err != nil {
		return err
	}
	groundY, err := handle[float64](c, KeyGroundY)
	if err != nil {
		return err
	}

	nine := actors.NewCharacter(s, -60, groundY, "9", 0)
	nine.SetDepth(10)
	eight := actors.NewCharacter(s, float64(s.Width)+60, groundY, "8", 0)
	eight.SetDepth(10)
	c.Set(KeyChar9, nine)
	c.Set(KeyChar8, eight)

	doorX, _ := ones.DoorFrontPos()
	return await(ctx,
		nine.WalkTo(doorX-60, groundY, 1500*time.Millisecond),
		eight.WalkTo(doorX+60, groundY, 1500*time.Millisecond),
	)
}

func doorAttempt(ctx context.Context, s *scene.Scene, c *Context) error {
	ones, err := handle[*actors.House](c, KeyOnesHouse)
	if err != nil {
		return err
	}
	groundY, err := handle[float64](c, KeyGroundY)
	if err != nil {
		return err
	}
	nine, err := handle[*actors.Character](c, KeyChar9)
	if err != nil {
		return err
	}
	eight, err := handle[*actors.Character](c, KeyChar8)
	if err != nil {
		return err
	}
	doorX, doorY := ones.DoorFrontPos()

	eq := scene.NewText("9 + 8 = 17", 48, actors.RGB(0xffff00))
	eq.X, eq.Y, eq.Depth = float64(s.Width)/2, 80, 20
	eq.ScaleX, eq.ScaleY = 0, 0
	s.Add(eq)
	c.Set(KeyEquation, eq)
	if err := await(ctx, s.Await(tween.Config{
		Targets:  []tween.Target{eq},
		Props:    map[string]float64{"scaleX": 1, "scaleY": 1},
		Duration: 500 * time.Millisecond,
		Ease:     "Back.easeOut",
	})); err != nil {
		return err
	}
	if err := pause(ctx, s, 400*time.Millisecond); err != nil {
		return err
	}

	if err := await(ctx, nine.Shrink(300*time.Millisecond), eight.Shrink(300*time.Millisecond)); err != nil {
		return err
	}

	seventeen := actors.NewCharacter(s, doorX, groundY, "17", 36)
	seventeen.SetDepth(10)
	c.Set(KeyChar17, seventeen)
	if err := await(ctx, seventeen.PopIn(400*time.Millisecond)); err != nil {
		return err
	}
	if err := pause(ctx, s, 300*time.Millisecond); err != nil {
		return err
	}
	if err := await(ctx, seventeen.WalkTo(doorX, doorY-30, 600*time.Millisecond)); err != nil {
		return err
	}

	seventeen.ShowEmotion(actors.Surprised)
	if err := await(ctx, seventeen.Shake(600*time.Millisecond)); err != nil {
		return err
	}
	if err := await(ctx, seventeen.WalkTo(doorX, groundY, 400*time.Millisecond)); err != nil {
		return err
	}
	seventeen.ShowEmotion(actors.Sad)
	return nil
}

func split(ctx context.Context, s *scene.Scene, c *Context) error {
	ones, err := handle[*actors.House](c, KeyOnesHouse)
	if err != nil {
		return err
	}
	groundY, err := handle[float64](c, KeyGroundY)
	if err != nil {
		return err
	}
	seventeen, err := handle[*actors.Character](c, KeyChar17)
	if err != nil {
		return err
	}
	doorX, _ := ones.DoorFrontPos()

	if err := await(ctx, seventeen.Shake(800*time.Millisecond)); err != nil {
		return err
	}
	if err := await(ctx, seventeen.Shrink(300*time.Millisecond)); err != nil {
		return err
	}

	seven := actors.NewCharacter(s, doorX+20, groundY, "7", 0)
	seven.SetDepth(10)
	seven.ShowEmotion(actors.Happy)
	one := actors.NewCharacter(s, doorX-20, groundY, "1", 0)
	one.SetDepth(10)
	one.ShowEmotion(actors.Neutral)
	c.Set(KeyChar7, seven)
	c.Set(KeyChar1, one)

	if err := await(ctx, seven.PopIn(400*time.Millisecond), one.PopIn(400*time.Millisecond)); err != nil {
		return err
	}
	return await(ctx,
		seven.WalkTo(doorX+50, groundY, 500*time.Millisecond),
		one.WalkTo(doorX-80, groundY, 500*time.Millisecond),
	)
}

func sevenEnters(ctx context.Context, s *scene.Scene, c *Context) error {
	ones, err := handle[*actors.House](c, KeyOnesHouse)
	if err != nil {
		return err
	}
	seven, err := handle[*actors.Character](c, KeyChar7)
	if err != nil {
		return err
	}
	doorX, doorY := ones.DoorFrontPos()

	seven.ShowEmotion(actors.Happy)
	if err := await(ctx, seven.WalkTo(doorX, doorY-30, 600*time.Millisecond)); err != nil {
		return err
	}
	if err := await(ctx, ones.OpenDoor()); err != nil {
		return err
	}
	if err := pause(ctx, s, 200*time.Millisecond); err != nil {
		return err
	}
	if err := await(ctx,
		seven.WalkTo(doorX, doorY-80, 500*time.Millisecond),
		s.Await(tween.Config{
			Targets:  []tween.Target{seven.Root},
			Props:    map[string]float64{"scaleX": 0.3, "scaleY": 0.3, "alpha": 0},
			Duration: 500 * time.Millisecond,
		}),
	); err != nil {
		return err
	}
	if err := await(ctx, ones.CloseDoor()); err != nil {
		return err
	}
	ones.AddDigitInside("7", 0)
	return nil
}

func oneSad(ctx context.Context, s *scene.Scene, c *Context) error {
	groundY, err := handle[float64](c, KeyGroundY)
	if err != nil {
		return err
	}
	one, err := handle[*actors.Character](c, KeyChar1)
	if err != nil {
		return err
	}

	one.ShowEmotion(actors.Sad)
	if err := await(ctx, one.Shake(400*time.Millisecond)); err != nil {
		return err
	}
	if err := pause(ctx, s, 500*time.Millisecond); err != nil {
		return err
	}
	one.ShowEmotion(actors.Surprised)
	if err := await(ctx, one.Bounce(2)); err != nil {
		return err
	}
	if err := pause(ctx, s, 300*time.Millisecond); err != nil {
		return err
	}
	if err := await(ctx, one.WalkTo(float64(s.Width)/2, groundY, 800*time.Millisecond)); err != nil {
		return err
	}
	one.ShowEmotion(actors.Happy)
	return nil
}

func carryFly(ctx context.Context, s *scene.Scene, c *Context) error {
	tens, err := handle[*actors.House](c, KeyTensHouse)
	if err != nil {
		return err
	}
	one, err := handle[*actors.Character](c, KeyChar1)
	if err != nil {
		return err
	}

	if err := await(ctx, tens.ShowRoofOpening()); err != nil {
		return err
	}
	if err := pause(ctx, s, 300*time.Millisecond); err != nil {
		return err
	}
	one.ShowEmotion(actors.Happy)
	roofX, roofY := tens.RoofOpeningPos()
	if err := await(ctx, one.FlyTo(roofX, roofY, 2*time.Second)); err != nil {
		return err
	}
	if err := await(ctx, one.Shrink(400*time.Millisecond)); err != nil {
		return err
	}
	return await(ctx, tens.HideRoofOpening())
}

func tensWelcome(ctx context.Context, s *scene.Scene, c *Context) error {
	tens, err := handle[*actors.House](c, KeyTensHouse)
	if err != nil {
		return err
	}

	digits := []*scene.Element{
		tens.AddDigitInside("4", -35),
		tens.AddDigitInside("5", 0),
		tens.AddDigitInside("1", 35),
	}
	if err := pause(ctx, s, 300*time.Millisecond); err != nil {
		return err
	}
	for _, d := range digits {
		var y float64
		s.Edit(func() { y = d.Y })
		if err := await(ctx, s.Await(tween.Config{
			Targets:  []tween.Target{d},
			Props:    map[string]float64{"y": y - 15},
			Duration: 200 * time.Millisecond,
			Yoyo:     true,
			Ease:     "Sine.easeOut",
		})); err != nil {
			return err
		}
	}
	if err := pause(ctx, s, 400*time.Millisecond); err != nil {
		return err
	}

	sum := scene.NewText("4 + 5 + 1 = 10", 28, actors.RGB(0x00ff88))
	sum.X, sum.Y, sum.Depth = tens.HomeX(), tens.TopY()-55, 20
	sum.ScaleX, sum.ScaleY = 0, 0
	s.Add(sum)
	c.Set(KeySumText, sum)
	return await(ctx, s.Await(tween.Config{
		Targets:  []tween.Target{sum},
		Props:    map[string]float64{"scaleX": 1, "scaleY": 1},
		Duration: 400 * time.Millisecond,
		Ease:     "Back.easeOut",
	}))
}

func celebration(ctx context.Context, s *scene.Scene, c *Context) error {
	if eq, ok := Lookup[*scene.Element](c, KeyEquation); ok {
		s.Edit(func() {
			eq.Text = "Answer: 107"
			eq.Color = actors.RGB(0x00ff00)
		})
		if err := await(ctx, s.Await(tween.Config{
			Targets:  []tween.Target{eq},
			Props:    map[string]float64{"scaleX": 1.3, "scaleY": 1.3},
			Duration: 300 * time.Millisecond,
			Yoyo:     true,
			Ease:     "Sine.easeOut",
		})); err != nil {
			return err
		}
	}

	confetti(s, 60)
	if err := pause(ctx, s, 1500*time.Millisecond); err != nil {
		return err
	}

	url, _ := Lookup[string](c, KeyReplayURL)
	card, err := actors.NewReplayCard(s, float64(s.Width)/2, float64(s.Height)-80, url)
	if err != nil {
		return err
	}
	c.Set(KeyReplay, card)
	return nil
}

var confettiColors = []uint32{0xff0000, 0x00ff00, 0x0000ff, 0xffff00, 0xff00ff, 0x00ffff, 0xffa500}

// confetti drops n pieces from above the screen. Each piece is destroyed
// when it lands.
func confetti(s *scene.Scene, n int) {
	between := func(lo, hi int) float64 {
		if hi <= lo {
			return float64(lo)
		}
		return float64(lo + rand.IntN(hi-lo+1))
	}
	for i := 0; i < n; i++ {
		x := between(50, s.Width-50)
		size := between(4, 10)
		spin := rand.Float64() * 2 * math.Pi
		piece := scene.NewRect(size, size*1.5, actors.RGB(confettiColors[rand.IntN(len(confettiColors))]))
		piece.X, piece.Y, piece.Depth = x, between(-200, -20), 30
		piece.Rotation = spin
		s.Add(piece)

		s.Tween(tween.Config{
			Targets: []tween.Target{piece},
			Props: map[string]float64{
				"y":        float64(s.Height) + 50,
				"x":        x + between(-80, 80),
				"rotation": spin + rand.Float64()*6 - 3,
			},
			Duration:   time.Duration(between(1500, 3000)) * time.Millisecond,
			Delay:      time.Duration(between(0, 800)) * time.Millisecond,
			Ease:       "Quad.easeIn",
			OnComplete: func() { s.Destroy(piece) },
		})
	}
}
