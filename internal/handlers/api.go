package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/nkiryanov/evote/internal/apperrors"
	"github.com/nkiryanov/evote/internal/handlers/clientip"
	"github.com/nkiryanov/evote/internal/handlers/render"
	"github.com/nkiryanov/evote/internal/handlers/sessionctx"
	"github.com/nkiryanov/evote/internal/logger"
	"github.com/nkiryanov/evote/internal/models"
	"github.com/nkiryanov/evote/internal/service/token"
	"github.com/nkiryanov/evote/internal/service/vote"
)

// Masked by the logger
const logTokenCode = logger.SecretKey

type candidateResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	PhotoURL    *string   `json:"photo_url"`
	Vision      string    `json:"vision"`
	Mission     []string  `json:"mission"`
	OrderNumber int       `json:"order_number"`
	ClassName   string    `json:"class_name"`
}

func newCandidateResponse(c models.Candidate) candidateResponse {
	mission := c.Mission
	if mission == nil {
		mission = []string{}
	}

	return candidateResponse{
		ID:          c.ID,
		Name:        c.Name,
		PhotoURL:    c.PhotoURL,
		Vision:      c.Vision,
		Mission:     mission,
		OrderNumber: c.OrderNumber,
		ClassName:   c.ClassName,
	}
}

func handleAPIListCandidates(candidates candidateService, logger logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		list, err := candidates.List(r.Context())
		if err != nil {
			logger.Error("can't list candidates", "error", err)
			render.ServiceError(w, msgInternalError, http.StatusInternalServerError)
			return
		}

		res := make([]candidateResponse, 0, len(list))
		for _, c := range list {
			res = append(res, newCandidateResponse(c))
		}
		render.JSON(w, res)
	})
}

func handleAPIGetCandidate(candidates candidateService, logger logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := candidates.Get(r.Context(), r.PathValue("id"))
		switch {
		case err == nil:
			render.JSON(w, newCandidateResponse(c))
		case errors.Is(err, apperrors.ErrCandidateNotFound):
			render.ServiceError(w, msgCandidateNotFound, http.StatusNotFound)
		default:
			logger.Error("can't get candidate", "error", err)
			render.ServiceError(w, msgInternalError, http.StatusInternalServerError)
		}
	})
}

func handleAPIResults(results resultsService, logger logger.Logger) http.Handler {
	type resultResponse struct {
		CandidateID uuid.UUID   `json:"candidate_id"`
		Name        string      `json:"name"`
		PhotoURL    *string     `json:"photo_url"`
		OrderNumber int         `json:"order_number"`
		VoteCount   int         `json:"vote_count"`
		Percentage  json.Number `json:"percentage"`
	}
	type response struct {
		Total   int              `json:"total"`
		Results []resultResponse `json:"results"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tally, err := results.List(r.Context())
		if err != nil {
			logger.Error("can't list results", "error", err)
			render.ServiceError(w, msgInternalError, http.StatusInternalServerError)
			return
		}

		res := response{Total: tally.Total, Results: make([]resultResponse, 0, len(tally.Results))}
		for _, vr := range tally.Results {
			res.Results = append(res.Results, resultResponse{
				CandidateID: vr.CandidateID,
				Name:        vr.Name,
				PhotoURL:    vr.PhotoURL,
				OrderNumber: vr.OrderNumber,
				VoteCount:   vr.Votes,
				Percentage:  json.Number(vr.Percentage.String()),
			})
		}
		render.JSON(w, res)
	})
}

func handleAPITotalVotes(results resultsService, logger logger.Logger) http.Handler {
	type response struct {
		Total int `json:"total"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		total, err := results.TotalVotes(r.Context())
		if err != nil {
			logger.Error("can't count votes", "error", err)
			render.ServiceError(w, msgInternalError, http.StatusInternalServerError)
			return
		}
		render.JSON(w, response{Total: total})
	})
}

func handleAPIValidateToken(tokens tokenService, sessions sessionManager, logger logger.Logger) http.Handler {
	type request struct {
		TokenCode string `json:"token_code"`
	}
	type response struct {
		Valid   bool                 `json:"valid"`
		TokenID *uuid.UUID           `json:"token_id,omitempty"`
		Reason  models.InvalidReason `json:"reason,omitempty"`
		Message string               `json:"message,omitempty"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		v, err := tokens.Validate(r.Context(), data.TokenCode)
		switch {
		case errors.Is(err, apperrors.ErrTokenCodeEmpty):
			render.ServiceError(w, msgTokenEmpty, http.StatusBadRequest)
			return
		case err != nil:
			logger.Error("can't validate token", "error", err)
			render.ServiceError(w, msgTokenError, http.StatusInternalServerError)
			return
		}

		if !v.Valid {
			logger.Info("token rejected", "reason", v.Reason, "ip", clientip.FromRequest(r), logTokenCode, data.TokenCode)
			render.JSON(w, response{Valid: false, Reason: v.Reason, Message: reasonMessage(v.Reason)})
			return
		}

		if err := sessions.Set(w, v.TokenID); err != nil {
			logger.Error("can't set session marker", "error", err)
			render.ServiceError(w, msgTokenError, http.StatusInternalServerError)
			return
		}

		render.JSON(w, response{Valid: true, TokenID: &v.TokenID})
	})
}

func handleAPISubmitVote(votes voteService, sessions sessionManager, logger logger.Logger) http.Handler {
	// Candidate is checked by vote service, after the session marker
	type request struct {
		CandidateID string `json:"candidate_id"`
	}
	type response struct {
		VoteID uuid.UUID `json:"vote_id"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		tokenID, _ := sessionctx.TokenFromContext(r.Context())
		v, err := votes.Submit(r.Context(), vote.Ballot{
			TokenID:     tokenID,
			CandidateID: data.CandidateID,
			ClientIP:    clientip.FromRequest(r),
		})
		if err != nil {
			out := submitFailure(err)
			if out.internal {
				logger.Error("can't submit vote", "error", err)
			} else {
				logger.Info("vote rejected", "reason", err.Error())
			}
			if out.clearSession {
				sessions.Clear(w)
			}
			render.ServiceError(w, out.message, out.status)
			return
		}

		sessions.Clear(w)
		render.JSONWithStatus(w, response{VoteID: v.ID}, http.StatusCreated)
	})
}

func handleAPIVotedMe(votes voteService, logger logger.Logger) http.Handler {
	type response struct {
		Voted bool `json:"voted"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenID, ok := sessionctx.TokenFromContext(r.Context())
		if !ok {
			render.ServiceError(w, msgNotValidated, http.StatusUnauthorized)
			return
		}

		voted, err := votes.HasVoted(r.Context(), tokenID)
		if err != nil {
			logger.Error("can't check vote", "error", err)
			render.ServiceError(w, msgInternalError, http.StatusInternalServerError)
			return
		}
		render.JSON(w, response{Voted: voted})
	})
}

func handleAPIClearSession(sessions sessionManager) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sessions.Clear(w)
		w.WriteHeader(http.StatusNoContent)
	})
}

func handleAPIIssueTokens(tokens tokenService, logger logger.Logger) http.Handler {
	type request struct {
		Count       int    `json:"count" validate:"required,min=1,max=10000"`
		Prefix      string `json:"prefix" validate:"omitempty,max=32"`
		ExpiresIn   string `json:"expires_in"` // Go duration like "72h", never expires if empty
		Description string `json:"description" validate:"max=255"`
	}
	type tokenResponse struct {
		ID        uuid.UUID  `json:"id"`
		Code      string     `json:"code"`
		ExpiresAt *time.Time `json:"expires_at"`
	}
	type response struct {
		Tokens []tokenResponse `json:"tokens"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		var expiresIn time.Duration
		if data.ExpiresIn != "" {
			expiresIn, err = time.ParseDuration(data.ExpiresIn)
			if err != nil || expiresIn < 0 {
				render.ServiceError(w, "expires_in harus berupa durasi, contoh: 72h", http.StatusBadRequest)
				return
			}
		}

		issued, err := tokens.Issue(r.Context(), token.IssueParams{
			Count:       data.Count,
			Prefix:      data.Prefix,
			ExpiresIn:   expiresIn,
			Description: data.Description,
		})
		if err != nil {
			logger.Error("can't issue tokens", "error", err)
			render.ServiceError(w, msgInternalError, http.StatusInternalServerError)
			return
		}

		logger.Info("tokens issued", "count", len(issued), "description", data.Description)

		res := response{Tokens: make([]tokenResponse, 0, len(issued))}
		for _, t := range issued {
			res.Tokens = append(res.Tokens, tokenResponse{ID: t.ID, Code: t.Code, ExpiresAt: t.ExpiresAt})
		}
		render.JSONWithStatus(w, res, http.StatusCreated)
	})
}

func handleAPIRateLimited() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		render.ServiceError(w, msgRateLimited, http.StatusTooManyRequests)
	})
}

func handleHealth(db pinger, logger logger.Logger) http.Handler {
	type response struct {
		Status string `json:"status"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := db.Ping(r.Context()); err != nil {
			logger.Error("database ping failed", "error", err)
			render.JSONWithStatus(w, response{Status: "unavailable"}, http.StatusServiceUnavailable)
			return
		}
		render.JSON(w, response{Status: "ok"})
	})
}
