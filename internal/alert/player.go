package alert

import (
	"context"
	"io"

	"github.com/jmhodges/clock"
)

// Player renders a tone sequence.
type Player interface {
	Play(ctx context.Context, tones []Tone) error
}

// BellPlayer rings the terminal bell once per audible tone and waits out each
// tone's duration.
type BellPlayer struct {
	out   io.Writer
	clock clock.Clock
}

func NewBellPlayer(out io.Writer, clk clock.Clock) *BellPlayer {
	return &BellPlayer{out: out, clock: clk}
}

func (p *BellPlayer) Play(ctx context.Context, tones []Tone) error {
	for _, t := range tones {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !t.Silent() {
			if _, err := io.WriteString(p.out, "\a"); err != nil {
				return err
			}
		}
		p.clock.Sleep(t.Duration)
	}
	return nil
}

type NopPlayer struct{}

func (NopPlayer) Play(context.Context, []Tone) error { return nil }
