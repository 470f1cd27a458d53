package actors

import (
	"fmt"
	"time"

	qrcode "github.com/skip2/go-qrcode"

	"github.com/ivlev/carrytales/internal/scene"
	"github.com/ivlev/carrytales/internal/tween"
)

const qrSize = 96

// ReplayCard is the closing "Play Again?" button. When a replay URL is set
// a QR code for it is shown beside the button, since an exported video has
// nothing to click.
type ReplayCard struct {
	Button *scene.Element
	Text   *scene.Element
	QR     *scene.Element
}

// NewReplayCard places the card centred at (x, y) and starts its pulse.
func NewReplayCard(s *scene.Scene, x, y float64, url string) (*ReplayCard, error) {
	card := &ReplayCard{}

	bg := scene.NewRect(240, 60, RGB(0x4444ff))
	bg.X, bg.Y, bg.Depth = x, y, 25
	card.Button = s.Add(bg)

	txt := scene.NewText("Play Again?", 28, RGB(0xffffff))
	txt.X, txt.Y, txt.Depth = x, y, 26
	card.Text = s.Add(txt)

	if url != "" {
		q, err := qrcode.New(url, qrcode.Medium)
		if err != nil {
			return nil, fmt.Errorf("encode replay url: %w", err)
		}
		q.DisableBorder = true
		img := scene.NewImage(q.Image(qrSize), qrSize, qrSize)
		img.X, img.Y, img.Depth = x+120+24+qrSize/2, y, 26
		card.QR = s.Add(img)
	}

	s.Tween(tween.Config{
		Targets:  []tween.Target{bg, txt},
		Props:    map[string]float64{"scaleX": 1.05, "scaleY": 1.05},
		Duration: 600 * time.Millisecond,
		Yoyo:     true,
		Repeat:   -1,
		Ease:     "Sine.easeInOut",
	})
	return card, nil
}
