package httpserver

import (
	"errors"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/chadiek/talkpdf/internal/call"
	"github.com/chadiek/talkpdf/internal/chat"
	"github.com/chadiek/talkpdf/internal/docs"
	"github.com/chadiek/talkpdf/internal/llm"
	"github.com/chadiek/talkpdf/internal/voice"
)

type chatRequest struct {
	Message  string `json:"message"`
	FileID   string `json:"file_id"`
	Language string `json:"language"`
	VoiceID  string `json:"voice_id"`
}

type errorBody struct {
	Detail string `json:"detail"`
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleLanguages(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{"languages": voice.SupportedLanguages})
}

func (s *Server) handleVoices(c echo.Context) error {
	voices := s.deps.Catalog.Voices(c.Request().Context(), c.QueryParam("language"))
	return c.JSON(http.StatusOK, map[string]any{"voices": voices})
}

func (s *Server) handleUploadPDF(c echo.Context) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorBody{Detail: "missing file field"})
	}
	f, err := fh.Open()
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorBody{Detail: "unreadable file"})
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, docs.MaxFileSize+1))
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorBody{Detail: "unreadable file"})
	}

	info, err := s.deps.Docs.Upload(c.Request().Context(), fh.Filename, data)
	switch {
	case errors.Is(err, docs.ErrTooLarge), errors.Is(err, docs.ErrNotPDF), errors.Is(err, docs.ErrEmpty):
		return c.JSON(http.StatusBadRequest, errorBody{Detail: err.Error()})
	case err != nil:
		return c.JSON(http.StatusBadGateway, errorBody{Detail: err.Error()})
	}

	bound := false
	bindErr := s.deps.Chat.BindDocument(chat.Document{
		FileID:          info.FileID,
		Filename:        info.Filename,
		ExtractedLength: info.ExtractedLength,
		Summary:         info.Summary,
	})
	if bindErr != nil {
		log.Printf("httpserver: document %s not bound: %v", info.FileID, bindErr)
	} else {
		bound = true
	}

	return c.JSON(http.StatusOK, map[string]any{
		"file_id":     info.FileID,
		"filename":    info.Filename,
		"text_length": info.ExtractedLength,
		"summary":     info.Summary,
		"status":      "processed",
		"bound":       bound,
	})
}

// answer runs the text chat flow: history from the active session, user
// message appended first, then the generated response.
func (s *Server) answer(c echo.Context, req chatRequest) (string, error) {
	docContext := ""
	if req.FileID != "" {
		text, err := s.deps.Docs.Context(req.FileID)
		if err != nil {
			return "", echo.NewHTTPError(http.StatusNotFound, "document not found: "+req.FileID)
		}
		docContext = text
	}

	var history []llm.Turn
	if active := s.deps.Chat.Active(); active != nil {
		for _, m := range active.Messages {
			history = append(history, llm.Turn{Role: string(m.Role), Content: m.Content})
		}
	}

	s.deps.Chat.AppendMessage(chat.RoleUser, req.Message, "")

	response, err := s.deps.LLM.Chat(c.Request().Context(), req.Message, docContext, req.Language, history)
	if err != nil {
		return "", echo.NewHTTPError(http.StatusBadGateway, "answer generation failed: "+err.Error())
	}
	return response, nil
}

func (s *Server) handleChat(c echo.Context) error {
	var req chatRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody{Detail: "invalid request body"})
	}
	if strings.TrimSpace(req.Message) == "" {
		return c.JSON(http.StatusBadRequest, errorBody{Detail: "empty message"})
	}
	if req.Language == "" {
		req.Language = "en-US"
	}

	response, err := s.answer(c, req)
	if err != nil {
		return err
	}
	s.deps.Chat.AppendMessage(chat.RoleAssistant, response, "")

	return c.JSON(http.StatusOK, map[string]any{
		"response": response,
		"language": req.Language,
		"file_id":  req.FileID,
	})
}

func (s *Server) handleVoiceChat(c echo.Context) error {
	var req chatRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody{Detail: "invalid request body"})
	}
	if strings.TrimSpace(req.Message) == "" {
		return c.JSON(http.StatusBadRequest, errorBody{Detail: "empty message"})
	}
	if req.Language == "" {
		req.Language = "en-US"
	}

	response, err := s.answer(c, req)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	profile := s.deps.Gateway.ResolveVoice(ctx, req.Language)
	if req.VoiceID != "" {
		profile.VoiceID = req.VoiceID
	}
	res, synthErr := s.deps.Gateway.Synthesize(ctx, response, profile)
	if synthErr != nil || res.NoAudio {
		// Synthesis soft-fails: the turn is still recorded text-only.
		s.deps.Chat.AppendMessage(chat.RoleAssistant, response, "")
		reason := res.Reason
		if synthErr != nil {
			reason = synthErr.Error()
		}
		return c.JSON(http.StatusOK, map[string]any{
			"text_response": response,
			"audio_url":     nil,
			"status":        "voice_synthesis_failed",
			"error":         reason,
			"language":      req.Language,
			"voice_id":      profile.VoiceID,
		})
	}

	s.deps.Chat.AppendMessage(chat.RoleAssistant, response, res.AudioRef)
	return c.JSON(http.StatusOK, map[string]any{
		"text_response": response,
		"audio_url":     res.AudioRef,
		"status":        "success",
		"language":      req.Language,
		"voice_id":      profile.VoiceID,
	})
}

func (s *Server) handleSynthesizeVoice(c echo.Context) error {
	var req struct {
		Text     string `json:"text"`
		Language string `json:"language"`
		VoiceID  string `json:"voice_id"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody{Detail: "invalid request body"})
	}
	text := req.Text
	if req.Language == "" {
		req.Language = "en-US"
	}

	ctx := c.Request().Context()
	profile := s.deps.Gateway.ResolveVoice(ctx, req.Language)
	if req.VoiceID != "" {
		profile.VoiceID = req.VoiceID
	}

	res, err := s.deps.Gateway.Synthesize(ctx, text, profile)
	switch {
	case errors.Is(err, voice.ErrEmptyText), errors.Is(err, voice.ErrNoProfile):
		return c.JSON(http.StatusBadRequest, errorBody{Detail: err.Error()})
	case err != nil:
		return c.JSON(http.StatusBadGateway, errorBody{Detail: err.Error()})
	case res.NoAudio:
		return c.JSON(http.StatusBadGateway, map[string]any{
			"status":   "error",
			"message":  res.Reason,
			"voice_id": profile.VoiceID,
			"language": req.Language,
		})
	}
	return c.JSON(http.StatusOK, map[string]any{
		"audio_url": res.AudioRef,
		"status":    "success",
		"voice_id":  profile.VoiceID,
		"language":  req.Language,
	})
}

func (s *Server) handleTranscribeAudio(c echo.Context) error {
	fh, err := c.FormFile("audio")
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorBody{Detail: "missing audio field"})
	}
	f, err := fh.Open()
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorBody{Detail: "unreadable audio"})
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil || len(data) == 0 {
		return c.JSON(http.StatusBadRequest, errorBody{Detail: "empty audio"})
	}
	language := c.FormValue("language")
	if language == "" {
		language = "en-US"
	}

	text, err := s.deps.Transcriber.Transcribe(c.Request().Context(), data, language)
	if err != nil {
		return c.JSON(http.StatusBadGateway, errorBody{Detail: "transcription failed: " + err.Error()})
	}
	return c.JSON(http.StatusOK, map[string]string{
		"transcription": text,
		"status":        "success",
	})
}

func (s *Server) handleCallWithPDF(c echo.Context) error {
	fh, err := c.FormFile("audio")
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorBody{Detail: "missing audio field"})
	}
	f, err := fh.Open()
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorBody{Detail: "unreadable audio"})
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil || len(data) == 0 {
		return c.JSON(http.StatusBadRequest, errorBody{Detail: "empty audio"})
	}

	fileID := c.QueryParam("file_id")
	language := c.QueryParam("language")
	if language == "" {
		language = "en-US"
	}
	voiceID := c.QueryParam("voice_id")

	chain := call.NewChain(s.deps.Transcriber, NewAnswerer(s.deps.LLM, s.deps.Docs), s.deps.Gateway)
	res, err := chain.RunTurn(c.Request().Context(), data, fileID, language, voiceID)
	switch {
	case errors.Is(err, call.ErrNoSpeech):
		return c.JSON(http.StatusBadRequest, errorBody{Detail: "could not transcribe audio or audio is empty"})
	case err != nil:
		return c.JSON(http.StatusBadGateway, errorBody{Detail: err.Error()})
	}

	status := "success"
	var audioURL any = res.AudioRef
	if res.AudioRef == "" {
		status = "voice_synthesis_failed"
		audioURL = nil
	}
	return c.JSON(http.StatusOK, map[string]any{
		"user_message": res.RecognizedText,
		"ai_response":  res.ResponseText,
		"audio_url":    audioURL,
		"status":       status,
		"language":     language,
		"voice_id":     voiceID,
	})
}

func (s *Server) handleCreateSession(c echo.Context) error {
	id := s.deps.Chat.CreateSession()
	session, err := s.deps.Chat.Get(id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, errorBody{Detail: err.Error()})
	}
	return c.JSON(http.StatusCreated, session)
}

func (s *Server) handleListSessions(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{"sessions": s.deps.Chat.List()})
}

func (s *Server) handleActiveSession(c echo.Context) error {
	active := s.deps.Chat.Active()
	if active == nil {
		return c.JSON(http.StatusNotFound, errorBody{Detail: "no active session"})
	}
	return c.JSON(http.StatusOK, active)
}

func (s *Server) handleGetSession(c echo.Context) error {
	session, err := s.deps.Chat.Get(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusNotFound, errorBody{Detail: err.Error()})
	}
	return c.JSON(http.StatusOK, session)
}

func (s *Server) handleActivateSession(c echo.Context) error {
	if err := s.deps.Chat.SetActive(c.Param("id")); err != nil {
		return c.JSON(http.StatusNotFound, errorBody{Detail: err.Error()})
	}
	session, _ := s.deps.Chat.Get(c.Param("id"))
	return c.JSON(http.StatusOK, session)
}

func (s *Server) handleDeleteSession(c echo.Context) error {
	if err := s.deps.Chat.DeleteSession(c.Param("id")); err != nil {
		return c.JSON(http.StatusNotFound, errorBody{Detail: err.Error()})
	}
	activeID := ""
	if active := s.deps.Chat.Active(); active != nil {
		activeID = active.ID
	}
	return c.JSON(http.StatusOK, map[string]string{
		"status":    "deleted",
		"active_id": activeID,
	})
}
