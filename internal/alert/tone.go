package alert

import (
	"bytes"
	"encoding/binary"
	"math"
	"time"
)

const DefaultSampleRate = 22050

// Tone is one step of an alarm pattern. A zero frequency is silence.
type Tone struct {
	Frequency float64
	Duration  time.Duration
}

func (t Tone) Silent() bool {
	return t.Frequency <= 0
}

var patterns = map[string][]Tone{
	"beep": {
		{880, 200 * time.Millisecond}, {0, 100 * time.Millisecond},
		{880, 200 * time.Millisecond}, {0, 100 * time.Millisecond},
		{880, 200 * time.Millisecond},
	},
	"chime": {
		{1047, 250 * time.Millisecond},
		{1319, 250 * time.Millisecond},
		{1568, 400 * time.Millisecond},
	},
	"bell": {
		{660, 600 * time.Millisecond}, {0, 150 * time.Millisecond},
		{660, 600 * time.Millisecond},
	},
	"digital": {
		{1200, 80 * time.Millisecond}, {0, 60 * time.Millisecond},
		{1200, 80 * time.Millisecond}, {0, 60 * time.Millisecond},
		{1200, 80 * time.Millisecond}, {0, 60 * time.Millisecond},
		{1200, 80 * time.Millisecond},
	},
}

// Synthesize returns the tone sequence for sound. Unknown names fall back to
// beep.
func Synthesize(sound string) []Tone {
	p, ok := patterns[sound]
	if !ok {
		p = patterns["beep"]
	}
	out := make([]Tone, len(p))
	copy(out, p)
	return out
}

// TotalDuration sums the tone lengths.
func TotalDuration(tones []Tone) time.Duration {
	var d time.Duration
	for _, t := range tones {
		d += t.Duration
	}
	return d
}

// EncodeWAV renders tones as a 16-bit mono PCM RIFF file. Each tone gets a
// short linear fade at both ends to avoid clicks.
func EncodeWAV(tones []Tone, sampleRate int) []byte {
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}

	samples := make([]int16, 0, int(TotalDuration(tones).Seconds()*float64(sampleRate))+len(tones))
	fade := sampleRate / 200
	for _, t := range tones {
		n := int(t.Duration.Seconds() * float64(sampleRate))
		for i := 0; i < n; i++ {
			if t.Silent() {
				samples = append(samples, 0)
				continue
			}
			amp := 0.3
			if i < fade {
				amp *= float64(i) / float64(fade)
			} else if n-i < fade {
				amp *= float64(n-i) / float64(fade)
			}
			v := amp * math.Sin(2*math.Pi*t.Frequency*float64(i)/float64(sampleRate))
			samples = append(samples, int16(v*math.MaxInt16))
		}
	}

	dataLen := uint32(len(samples) * 2)
	var buf bytes.Buffer
	buf.Grow(44 + int(dataLen))
	buf.WriteString("RIFF")
	_ = binary.Write(&buf, binary.LittleEndian, 36+dataLen)
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(16))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(1)) // PCM
	_ = binary.Write(&buf, binary.LittleEndian, uint16(1)) // mono
	_ = binary.Write(&buf, binary.LittleEndian, uint32(sampleRate))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(sampleRate*2))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(2))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(16))
	buf.WriteString("data")
	_ = binary.Write(&buf, binary.LittleEndian, dataLen)
	_ = binary.Write(&buf, binary.LittleEndian, samples)
	return buf.Bytes()
}
