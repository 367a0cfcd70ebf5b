package handlers

import (
	"errors"
	"net/http"

	"github.com/nkiryanov/evote/internal/apperrors"
	"github.com/nkiryanov/evote/internal/models"
	"github.com/nkiryanov/evote/internal/service/vote"
)

// User facing messages
const (
	msgTokenEmpty    = "Token tidak boleh kosong"
	msgTokenNotFound = "Token tidak ditemukan"
	msgTokenUsed     = "Token sudah digunakan"
	msgTokenExpired  = "Token sudah kadaluarsa"
	msgTokenError    = "Terjadi kesalahan saat validasi token"

	msgNotValidated     = "Silakan validasi token terlebih dahulu"
	msgCandidateInvalid = "Kandidat tidak valid"
	msgVoteFailed       = "Gagal submit vote"
	msgVoteError        = "Terjadi kesalahan saat submit vote"

	msgRateLimited       = "Terlalu banyak percobaan. Coba lagi nanti."
	msgCandidateNotFound = "Kandidat tidak ditemukan"
	msgPageNotFound      = "Halaman tidak ditemukan"
	msgInternalError     = "Terjadi kesalahan pada server"
)

func reasonMessage(reason models.InvalidReason) string {
	switch reason {
	case models.ReasonExpired:
		return msgTokenExpired
	case models.ReasonUsed:
		return msgTokenUsed
	default:
		return msgTokenNotFound
	}
}

// How failed submission is shown to the user
type submitOutcome struct {
	message string
	status  int

	// Token can't be used anymore, session marker has to go
	clearSession bool

	// Not a user mistake, has to be logged as error
	internal bool
}

func submitFailure(err error) submitOutcome {
	switch {
	case errors.Is(err, apperrors.ErrNotValidated):
		return submitOutcome{message: msgNotValidated, status: http.StatusUnauthorized}
	case errors.Is(err, apperrors.ErrCandidateInvalid):
		return submitOutcome{message: msgCandidateInvalid, status: http.StatusUnprocessableEntity}
	case errors.Is(err, apperrors.ErrTokenExpired):
		return submitOutcome{message: msgTokenExpired, status: http.StatusConflict, clearSession: true}
	case errors.Is(err, apperrors.ErrTokenUsed):
		return submitOutcome{message: msgTokenUsed, status: http.StatusConflict, clearSession: true}
	case errors.Is(err, apperrors.ErrTokenNotFound):
		return submitOutcome{message: msgTokenNotFound, status: http.StatusConflict, clearSession: true}
	case vote.IsTokenRejected(err):
		return submitOutcome{message: msgVoteFailed, status: http.StatusConflict, clearSession: true}
	default:
		return submitOutcome{message: msgVoteError, status: http.StatusInternalServerError, internal: true}
	}
}
