package application

import "errors"

var (
	// ErrQuit is returned once the session has been told to stop.
	ErrQuit = errors.New("session quit")

	ErrGoBack    = errors.New("go back")
	ErrSkip      = errors.New("skip question")
	ErrStartOver = errors.New("start over")

	// ErrSourceClosed means the listener stopped delivering utterances.
	ErrSourceClosed = errors.New("utterance source closed")
)

func isNavigation(err error) bool {
	return errors.Is(err, ErrGoBack) || errors.Is(err, ErrSkip) || errors.Is(err, ErrStartOver)
}
