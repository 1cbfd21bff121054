package call

import (
	"context"
	"fmt"
	"log"
	"strings"
)

// Chain is the default turn pipeline: transcribe the utterance, generate an
// answer grounded in the bound document, synthesize the answer. Synthesis
// soft-fails: a turn without audio still carries the text answer.
type Chain struct {
	transcriber Transcriber
	answerer    Answerer
	gateway     SpeechGateway
}

// NewChain wires the three collaborators into one pipeline.
func NewChain(transcriber Transcriber, answerer Answerer, gateway SpeechGateway) *Chain {
	return &Chain{transcriber: transcriber, answerer: answerer, gateway: gateway}
}

// RunTurn implements Pipeline.
func (p *Chain) RunTurn(ctx context.Context, audioBytes []byte, fileID, language, voiceID string) (TurnResult, error) {
	recognized, err := p.transcriber.Transcribe(ctx, audioBytes, language)
	if err != nil {
		return TurnResult{}, fmt.Errorf("transcribe: %w", err)
	}
	recognized = strings.TrimSpace(recognized)
	if recognized == "" {
		return TurnResult{}, ErrNoSpeech
	}

	answer, err := p.answerer.Answer(ctx, recognized, fileID, language)
	if err != nil {
		return TurnResult{}, fmt.Errorf("answer: %w", err)
	}

	out := TurnResult{RecognizedText: recognized, ResponseText: answer}

	profile := p.gateway.ResolveVoice(ctx, language)
	if voiceID != "" {
		profile.VoiceID = voiceID
	}
	res, err := p.gateway.Synthesize(ctx, answer, profile)
	if err != nil {
		// Contract violations or cancellation; either way this turn has a
		// valid text answer, so only cancellation aborts it.
		if ctx.Err() != nil {
			return TurnResult{}, ctx.Err()
		}
		log.Printf("call: synthesis error, continuing text-only: %v", err)
		return out, nil
	}
	if res.NoAudio {
		log.Printf("call: no audio for turn (%s), continuing text-only", res.Reason)
		return out, nil
	}
	out.AudioRef = res.AudioRef
	return out, nil
}
