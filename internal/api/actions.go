package api

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/BTreeMap/ShopMarketer/internal/genai"
	"github.com/BTreeMap/ShopMarketer/internal/prompt"
	"github.com/BTreeMap/ShopMarketer/internal/store"
)

// User-facing messages.
const (
	msgIdeaError     = "에러 발생: %v"
	msgIdeaHint      = "왼쪽 사이드바의 '내 사용 가능 모델 조회'를 눌러서 모델명이 정확한지 확인해보세요."
	msgIdeaNotKept   = "아이디어는 생성했지만 세션에 저장하지 못했습니다."
	msgProbeFound    = "✅ %s 연결 성공!"
	msgProbeMissing  = "⚠️ %s를 찾을 수 없습니다. 위 목록에 있는 이름을 복사해서 GENAI_MODEL 설정을 수정해주세요."
	msgProbeError    = "연결 실패: %v"
	msgPostDone      = "작성 완료!"
	msgPostEmpty     = "상품 특징을 입력해주세요!"
	msgPostBadOption = "타겟 고객과 업로드 플랫폼을 목록에서 선택해주세요."
	msgPostError     = "오류가 발생했습니다: %v"
)

// ideaOutcome is the result of one idea action.
type ideaOutcome struct {
	state   *store.State // session state after the action
	err     error        // generation failed; the stored suggestion is unchanged
	saveErr error        // the suggestion was generated but could not be kept
}

// runIdea generates today's marketing ideas and keeps them as the session's
// suggestion. On failure the previous suggestion stays in place.
func (s *Server) runIdea(ctx context.Context, sessionID string) ideaOutcome {
	unlock, err := s.locks.Lock(ctx, sessionID)
	if err != nil {
		return ideaOutcome{err: err}
	}
	defer unlock()

	st, err := s.sessions.Load(ctx, sessionID)
	if err != nil {
		slog.Error("Server.runIdea: failed to load session", "error", err)
		return ideaOutcome{err: fmt.Errorf("load session: %w", err)}
	}

	ic := prompt.NewIdeaContext(s.now().In(s.loc))
	slog.Debug("Server.runIdea: requesting ideas", "date", prompt.FormatDate(ic.Date), "weekday", ic.Weekday)
	text, err := s.models.Generate(ctx, s.models.Model(), ic.Prompt())
	if err != nil {
		slog.Warn("Server.runIdea: generation failed", "error", err)
		return ideaOutcome{state: st, err: err}
	}

	st.Suggestion = text
	if err := s.sessions.Save(ctx, st); err != nil {
		slog.Error("Server.runIdea: failed to save session", "error", err)
		return ideaOutcome{state: st, saveErr: err}
	}
	slog.Info("Server.runIdea: suggestion stored", "length", len(text))
	return ideaOutcome{state: st}
}

// runProbe lists the generation-capable models for the configured credentials.
func (s *Server) runProbe(ctx context.Context, sessionID string) (genai.ProbeResult, error) {
	unlock, err := s.locks.Lock(ctx, sessionID)
	if err != nil {
		return genai.ProbeResult{Model: s.models.Model()}, err
	}
	defer unlock()

	res, err := s.models.Probe(ctx)
	if err != nil {
		slog.Warn("Server.runProbe: probe failed", "error", err)
		return res, err
	}
	slog.Info("Server.runProbe: probe finished", "models", len(res.Models), "found", res.Found)
	return res, nil
}

// runPost writes a promotional post. The caller validates pc first; the
// result is returned to the caller only and never stored.
func (s *Server) runPost(ctx context.Context, sessionID string, pc prompt.PostContext) (string, error) {
	unlock, err := s.locks.Lock(ctx, sessionID)
	if err != nil {
		return "", err
	}
	defer unlock()

	slog.Debug("Server.runPost: requesting post", "audience", pc.Audience, "platform", pc.Platform)
	text, err := s.models.Generate(ctx, s.models.Model(), pc.Prompt())
	if err != nil {
		slog.Warn("Server.runPost: generation failed", "error", err)
		return "", err
	}
	return text, nil
}

// probeBanner renders the aggregate status line of a probe.
func probeBanner(res genai.ProbeResult) string {
	if res.Found {
		return fmt.Sprintf(msgProbeFound, res.Model)
	}
	return fmt.Sprintf(msgProbeMissing, res.Model)
}
