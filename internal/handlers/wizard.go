package handlers

import (
	"errors"
	"net/http"

	"github.com/nkiryanov/evote/internal/apperrors"
	"github.com/nkiryanov/evote/internal/handlers/clientip"
	"github.com/nkiryanov/evote/internal/handlers/render"
	"github.com/nkiryanov/evote/internal/handlers/sessionctx"
	"github.com/nkiryanov/evote/internal/logger"
	"github.com/nkiryanov/evote/internal/models"
	"github.com/nkiryanov/evote/internal/service/vote"
)

// Vote wizard goes strictly forward: token entry -> candidate selection -> success
// The only state between steps is the session marker

type tokenStep struct {
	Code  string
	Error string
}

type selectStep struct {
	Candidates []models.Candidate
	Selected   string
	Error      string
}

func renderTokenStep(w http.ResponseWriter, step tokenStep, code int) {
	render.HTML(w, "vote_token", step, code)
}

func renderSelectStep(w http.ResponseWriter, r *http.Request, candidates candidateService, logger logger.Logger, step selectStep, code int) {
	list, err := candidates.List(r.Context())
	if err != nil {
		logger.Error("can't list candidates", "error", err)
		renderError(w, http.StatusInternalServerError)
		return
	}

	step.Candidates = list
	render.HTML(w, "vote_select", step, code)
}

func handleVotePage(tokens tokenService, candidates candidateService, sessions sessionManager, logger logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenID, ok := sessionctx.TokenFromContext(r.Context())
		if !ok {
			renderTokenStep(w, tokenStep{}, http.StatusOK)
			return
		}

		// Marker may outlive the token: it could be redeemed in another tab or expire
		err := tokens.Rejection(r.Context(), tokenID)
		switch {
		case err == nil:
			renderSelectStep(w, r, candidates, logger, selectStep{}, http.StatusOK)
		case vote.IsTokenRejected(err):
			sessions.Clear(w)
			renderTokenStep(w, tokenStep{}, http.StatusOK)
		default:
			logger.Error("can't check token", "error", err)
			renderTokenStep(w, tokenStep{Error: msgTokenError}, http.StatusInternalServerError)
		}
	})
}

func handleVoteToken(tokens tokenService, sessions sessionManager, logger logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		code := r.PostFormValue("token_code")

		v, err := tokens.Validate(r.Context(), code)
		switch {
		case errors.Is(err, apperrors.ErrTokenCodeEmpty):
			renderTokenStep(w, tokenStep{Code: code, Error: msgTokenEmpty}, http.StatusUnprocessableEntity)
			return
		case err != nil:
			logger.Error("can't validate token", "error", err)
			renderTokenStep(w, tokenStep{Code: code, Error: msgTokenError}, http.StatusInternalServerError)
			return
		case !v.Valid:
			logger.Info("token rejected", "reason", v.Reason, "ip", clientip.FromRequest(r), logTokenCode, code)
			renderTokenStep(w, tokenStep{Code: code, Error: reasonMessage(v.Reason)}, http.StatusUnprocessableEntity)
			return
		}

		if err := sessions.Set(w, v.TokenID); err != nil {
			logger.Error("can't set session marker", "error", err)
			renderTokenStep(w, tokenStep{Code: code, Error: msgTokenError}, http.StatusInternalServerError)
			return
		}

		http.Redirect(w, r, "/vote", http.StatusSeeOther)
	})
}

func handleVoteSubmit(votes voteService, candidates candidateService, sessions sessionManager, logger logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		candidateID := r.PostFormValue("candidate_id")
		tokenID, _ := sessionctx.TokenFromContext(r.Context())

		_, err := votes.Submit(r.Context(), vote.Ballot{
			TokenID:     tokenID,
			CandidateID: candidateID,
			ClientIP:    clientip.FromRequest(r),
		})
		if err == nil {
			sessions.Clear(w)
			render.HTML(w, "vote_success", nil, http.StatusOK)
			return
		}

		out := submitFailure(err)
		if out.internal {
			logger.Error("can't submit vote", "error", err)
		} else {
			logger.Info("vote rejected", "reason", err.Error())
		}

		// Without usable token the wizard starts over
		if out.clearSession || errors.Is(err, apperrors.ErrNotValidated) {
			if out.clearSession {
				sessions.Clear(w)
			}
			renderTokenStep(w, tokenStep{Error: out.message}, out.status)
			return
		}

		renderSelectStep(w, r, candidates, logger, selectStep{Selected: candidateID, Error: out.message}, out.status)
	})
}

func handleVoteRateLimited() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		renderTokenStep(w, tokenStep{Code: r.PostFormValue("token_code"), Error: msgRateLimited}, http.StatusTooManyRequests)
	})
}
