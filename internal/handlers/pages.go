package handlers

import (
	"errors"
	"net/http"

	"github.com/nkiryanov/evote/internal/apperrors"
	"github.com/nkiryanov/evote/internal/handlers/render"
	"github.com/nkiryanov/evote/internal/logger"
	"github.com/nkiryanov/evote/internal/models"
)

// Results page reloads itself so votes show up without user action
const resultsRefreshSeconds = 10

type errorPage struct {
	Title   string
	Message string
}

func renderError(w http.ResponseWriter, code int) {
	page := errorPage{Title: "Terjadi Kesalahan", Message: msgInternalError}
	if code == http.StatusNotFound {
		page = errorPage{Title: "404", Message: msgPageNotFound}
	}
	render.HTML(w, "error", page, code)
}

func handleNotFound() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		renderError(w, http.StatusNotFound)
	})
}

func handleHome(candidates candidateService, results resultsService, logger logger.Logger) http.Handler {
	type page struct {
		CandidateCount int
		TotalVotes     int
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		count, err := candidates.Count(r.Context())
		if err != nil {
			logger.Error("can't count candidates", "error", err)
			renderError(w, http.StatusInternalServerError)
			return
		}

		total, err := results.TotalVotes(r.Context())
		if err != nil {
			logger.Error("can't count votes", "error", err)
			renderError(w, http.StatusInternalServerError)
			return
		}

		render.HTML(w, "home", page{CandidateCount: count, TotalVotes: total}, http.StatusOK)
	})
}

func handleCandidates(candidates candidateService, logger logger.Logger) http.Handler {
	type page struct {
		Candidates []models.Candidate
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		list, err := candidates.List(r.Context())
		if err != nil {
			logger.Error("can't list candidates", "error", err)
			renderError(w, http.StatusInternalServerError)
			return
		}

		render.HTML(w, "candidates", page{Candidates: list}, http.StatusOK)
	})
}

func handleCandidate(candidates candidateService, logger logger.Logger) http.Handler {
	type page struct {
		Candidate models.Candidate
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := candidates.Get(r.Context(), r.PathValue("id"))
		switch {
		case err == nil:
			render.HTML(w, "candidate", page{Candidate: c}, http.StatusOK)
		case errors.Is(err, apperrors.ErrCandidateNotFound):
			renderError(w, http.StatusNotFound)
		default:
			logger.Error("can't get candidate", "error", err)
			renderError(w, http.StatusInternalServerError)
		}
	})
}

func handleResults(results resultsService, logger logger.Logger) http.Handler {
	type page struct {
		RefreshSeconds int
		Tally          models.Tally
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tally, err := results.List(r.Context())
		if err != nil {
			logger.Error("can't list results", "error", err)
			renderError(w, http.StatusInternalServerError)
			return
		}

		render.HTML(w, "results", page{RefreshSeconds: resultsRefreshSeconds, Tally: tally}, http.StatusOK)
	})
}
