package application

import "context"

type AudioSource interface {
	Start(ctx context.Context) error
	Stop() error
	NextCommand(ctx context.Context) ([]byte, error)
	Name() string
}

// Encodings of synthesized audio. The zero value is raw PCM.
const (
	EncodingPCM = ""
	EncodingMP3 = "mp3"
)

type AudioFormat struct {
	SampleRate int
	Channels   int
	BitDepth   int
	Encoding   string
}

func DefaultAudioFormat() AudioFormat {
	return AudioFormat{
		SampleRate: 16000,
		Channels:   1,
		BitDepth:   16,
	}
}

// AudioPlayer plays raw little-endian PCM, or the compressed encoding
// named by the format when the player supports it.
type AudioPlayer interface {
	Play(ctx context.Context, pcm []byte, format AudioFormat) error
}

type NoopPlayer struct{}

func (n *NoopPlayer) Play(_ context.Context, _ []byte, _ AudioFormat) error {
	return nil
}
