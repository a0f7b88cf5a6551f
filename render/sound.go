package render

import (
	"io"
	"time"

	"github.com/gen2brain/beeep"
	"github.com/jpalmerr/alertpop"
)

var beep = beeep.Beep

// Tone is one step of a [Chime].
type Tone struct {
	Freq     float64
	Duration time.Duration
}

// DefaultChime is a short falling two-tone cue.
var DefaultChime = []Tone{
	{Freq: 800, Duration: 150 * time.Millisecond},
	{Freq: 600, Duration: 150 * time.Millisecond},
}

// Chime returns a [alertpop.Sound] that plays tones through the system
// speaker. The first failing tone aborts the chime.
func Chime(tones ...Tone) alertpop.Sound {
	if len(tones) == 0 {
		tones = DefaultChime
	}
	return alertpop.SoundFunc(func() error {
		for _, t := range tones {
			if err := beep(t.Freq, int(t.Duration/time.Millisecond)); err != nil {
				return err
			}
		}
		return nil
	})
}

// Bell returns a [alertpop.Sound] that writes the terminal bell to w.
func Bell(w io.Writer) alertpop.Sound {
	return alertpop.SoundFunc(func() error {
		_, err := io.WriteString(w, "\a")
		return err
	})
}
