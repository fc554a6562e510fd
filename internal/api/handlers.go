package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/BTreeMap/ShopMarketer/internal/identity"
	"github.com/BTreeMap/ShopMarketer/internal/models"
	"github.com/BTreeMap/ShopMarketer/internal/prompt"
)

// sessionHandler returns the stored suggestion of the caller's session.
func (s *Server) sessionHandler(w http.ResponseWriter, r *http.Request) {
	st, err := s.sessions.Load(r.Context(), identity.SessionIDFromContext(r.Context()))
	if err != nil {
		slog.Error("Server.sessionHandler: failed to load session", "error", err)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to load session"))
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(models.SuggestionResult{Suggestion: st.Suggestion}))
}

func (s *Server) ideaHandler(w http.ResponseWriter, r *http.Request) {
	slog.Debug("Server.ideaHandler: processing idea request", "method", r.Method, "path", r.URL.Path)
	out := s.runIdea(r.Context(), identity.SessionIDFromContext(r.Context()))
	switch {
	case out.err != nil:
		writeJSONResponse(w, http.StatusBadGateway, models.ErrorWithHint(fmt.Sprintf(msgIdeaError, out.err), msgIdeaHint))
	case out.saveErr != nil:
		writeJSONResponse(w, http.StatusOK, models.SuccessWithMessage(msgIdeaNotKept, models.SuggestionResult{Suggestion: out.state.Suggestion}))
	default:
		writeJSONResponse(w, http.StatusOK, models.Success(models.SuggestionResult{Suggestion: out.state.Suggestion}))
	}
}

func (s *Server) modelsHandler(w http.ResponseWriter, r *http.Request) {
	slog.Debug("Server.modelsHandler: processing probe request", "method", r.Method, "path", r.URL.Path)
	res, err := s.runProbe(r.Context(), identity.SessionIDFromContext(r.Context()))
	if err != nil {
		writeJSONResponse(w, http.StatusBadGateway, models.Error(fmt.Sprintf(msgProbeError, err)))
		return
	}
	if res.Models == nil {
		res.Models = []string{}
	}
	writeJSONResponse(w, http.StatusOK, models.SuccessWithMessage(probeBanner(res), res))
}

func (s *Server) postHandler(w http.ResponseWriter, r *http.Request) {
	if r.Body != nil {
		defer r.Body.Close()
	}
	slog.Debug("Server.postHandler: processing post request", "method", r.Method, "path", r.URL.Path)

	var req models.PostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("Server.postHandler: failed to decode JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}

	pc, err := prompt.NewPostContext(req.ProductInfo, req.Audience, req.Platform)
	if err != nil {
		slog.Warn("Server.postHandler: validation failed", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Invalid(postValidationMessage(err)))
		return
	}

	text, err := s.runPost(r.Context(), identity.SessionIDFromContext(r.Context()), pc)
	if err != nil {
		writeJSONResponse(w, http.StatusBadGateway, models.Error(fmt.Sprintf(msgPostError, err)))
		return
	}
	writeJSONResponse(w, http.StatusOK, models.SuccessWithMessage(msgPostDone, models.PostResult{Text: text}))
}
