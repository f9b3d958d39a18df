package audio

import (
	"math"
	"time"
)

type VADState int

const (
	VADQuiet VADState = iota
	VADStarting
	VADSpeaking
	VADStopping
)

func (s VADState) String() string {
	switch s {
	case VADQuiet:
		return "quiet"
	case VADStarting:
		return "starting"
	case VADSpeaking:
		return "speaking"
	case VADStopping:
		return "stopping"
	default:
		return "unknown"
	}
}

// VADParams tunes voice activity detection. Durations are measured in
// audio time, not wall time.
type VADParams struct {
	Confidence float64 `yaml:"confidence"`
	StartSecs  float64 `yaml:"start_secs"`
	StopSecs   float64 `yaml:"stop_secs"`
	MinVolume  float64 `yaml:"min_volume"`
}

func DefaultVADParams() VADParams {
	return VADParams{
		Confidence: 0.5,
		StartSecs:  0.2,
		StopSecs:   0.8,
		MinVolume:  0.01,
	}
}

const smoothing = 0.3

// VAD is an energy detector: RMS volume with exponential smoothing, mapped
// onto a speech probability.
type VAD struct {
	params       VADParams
	startSamples int
	stopSamples  int

	state    VADState
	volume   float64
	startRun int
	stopRun  int
}

func NewVAD(params VADParams, sampleRate int) *VAD {
	if params == (VADParams{}) {
		params = DefaultVADParams()
	}
	return &VAD{
		params:       params,
		startSamples: int(math.Round(params.StartSecs * float64(sampleRate))),
		stopSamples:  int(math.Round(params.StopSecs * float64(sampleRate))),
	}
}

func (v *VAD) State() VADState {
	return v.state
}

func (v *VAD) Reset() {
	v.state = VADQuiet
	v.volume = 0
	v.startRun = 0
	v.stopRun = 0
}

// Process feeds one frame of mono samples. ended is true on the frame where
// a speech segment finishes.
func (v *VAD) Process(frame []int16) (state VADState, ended bool) {
	if len(frame) == 0 {
		return v.state, false
	}

	v.volume = smoothing*rms(frame) + (1-smoothing)*v.volume
	voiced := v.probability() >= v.params.Confidence
	n := len(frame)

	switch v.state {
	case VADQuiet:
		if voiced {
			v.state = VADStarting
			v.startRun = n
			if v.startRun >= v.startSamples {
				v.state = VADSpeaking
			}
		}
	case VADStarting:
		if !voiced {
			v.state = VADQuiet
			v.startRun = 0
			break
		}
		v.startRun += n
		if v.startRun >= v.startSamples {
			v.state = VADSpeaking
		}
	case VADSpeaking:
		if !voiced {
			v.state = VADStopping
			v.stopRun = n
			if v.stopRun >= v.stopSamples {
				v.state = VADQuiet
				return v.state, true
			}
		}
	case VADStopping:
		if voiced {
			v.state = VADSpeaking
			v.stopRun = 0
			break
		}
		v.stopRun += n
		if v.stopRun >= v.stopSamples {
			v.state = VADQuiet
			v.stopRun = 0
			return v.state, true
		}
	}
	return v.state, false
}

func (v *VAD) probability() float64 {
	p := (v.volume - v.params.MinVolume) / (0.5 - v.params.MinVolume)
	return math.Max(0, math.Min(1, p))
}

func rms(frame []int16) float64 {
	var sum float64
	for _, s := range frame {
		f := float64(s) / 32768
		sum += f * f
	}
	return math.Sqrt(sum / float64(len(frame)))
}

// Segmenter cuts a frame stream into utterances. A few frames before the
// detected start are kept so the first syllable is not clipped.
type Segmenter struct {
	vad        *VAD
	preRoll    int
	maxSamples int

	pending [][]int16
	current []int16
	active  bool
}

func NewSegmenter(vad *VAD, preRollFrames, maxSamples int) *Segmenter {
	return &Segmenter{vad: vad, preRoll: preRollFrames, maxSamples: maxSamples}
}

// Push feeds one frame and returns a finished utterance, or nil.
func (s *Segmenter) Push(frame []int16) []int16 {
	state, ended := s.vad.Process(frame)

	if !s.active {
		if state == VADStarting || state == VADSpeaking {
			s.active = true
			for _, f := range s.pending {
				s.current = append(s.current, f...)
			}
			s.pending = nil
			s.current = append(s.current, frame...)
			return nil
		}
		s.pending = append(s.pending, append([]int16(nil), frame...))
		if len(s.pending) > s.preRoll {
			s.pending = s.pending[len(s.pending)-s.preRoll:]
		}
		return nil
	}

	s.current = append(s.current, frame...)

	switch {
	case ended:
		return s.finish()
	case state == VADQuiet:
		// false start
		s.active = false
		s.current = nil
		return nil
	case s.maxSamples > 0 && len(s.current) >= s.maxSamples:
		s.vad.Reset()
		return s.finish()
	}
	return nil
}

func (s *Segmenter) finish() []int16 {
	out := s.current
	s.current = nil
	s.active = false
	return out
}

// MicrophoneConfig configures capture and endpointing.
type MicrophoneConfig struct {
	SampleRate   int
	FrameSize    int
	VAD          VADParams
	PreRoll      int
	MaxUtterance time.Duration
}

func (c MicrophoneConfig) withDefaults() MicrophoneConfig {
	if c.SampleRate <= 0 {
		c.SampleRate = 16000
	}
	if c.FrameSize <= 0 {
		c.FrameSize = 1024
	}
	if c.VAD == (VADParams{}) {
		c.VAD = DefaultVADParams()
	}
	if c.PreRoll <= 0 {
		c.PreRoll = 8
	}
	if c.MaxUtterance <= 0 {
		c.MaxUtterance = 15 * time.Second
	}
	return c
}
