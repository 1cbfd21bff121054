package httpserver

import (
	"context"
	"log"

	"github.com/chadiek/talkpdf/internal/call"
	"github.com/chadiek/talkpdf/internal/docs"
)

// Answerer adapts the chat LLM and the document registry into the call
// pipeline's answer step.
type Answerer struct {
	llm  ChatLLM
	docs *docs.Service
}

// NewAnswerer builds the adapter used for call turns.
func NewAnswerer(llm ChatLLM, docsSvc *docs.Service) *Answerer {
	return &Answerer{llm: llm, docs: docsSvc}
}

var _ call.Answerer = (*Answerer)(nil)

// Answer implements call.Answerer. An unknown file id degrades to answering
// without document context.
func (a *Answerer) Answer(ctx context.Context, message, fileID, language string) (string, error) {
	docContext := ""
	if fileID != "" {
		text, err := a.docs.Context(fileID)
		if err != nil {
			log.Printf("httpserver: no context for document %s: %v", fileID, err)
		} else {
			docContext = text
		}
	}
	return a.llm.Chat(ctx, message, docContext, language, nil)
}
