package application

import "docketvoice/internal/domain"

type IntentRecognizer interface {
	Recognize(text string, vctx domain.VoiceContext) domain.IntentResult
}
