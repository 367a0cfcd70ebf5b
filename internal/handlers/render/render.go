// Package render writes JSON answers of the evote API.
//
// Every failure shares one envelope:
//
//	{"error": "<kind>", "message": "<text for the voter>", "fields": {"<json field>": "<problem>"}}
//
// where kind is one of ValidationErrorType, DecodingErrorType or ServiceErrorType.
// Messages are in Indonesian, they are shown to voters as is.
package render

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-playground/validator/v10"
)

// Kinds of the error envelope
const (
	ValidationErrorType = "validation_failed"
	DecodingErrorType   = "decoding_failed"
	ServiceErrorType    = "service_error"
)

// Requests of the API are tiny: a token code or a candidate id at most
const maxBodySize = 64 << 10

var validate = validator.New()

func init() {
	configureValidator(validate)
}

type ErrorResponse struct {
	Error   string            `json:"error"`
	Message string            `json:"message,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func JSON(w http.ResponseWriter, data any) {
	JSONWithStatus(w, data, http.StatusOK)
}

// JSONWithStatus encodes data before touching the response, so encoding failure still ends with a clean 500
func JSONWithStatus(w http.ResponseWriter, data any, code int) {
	buf := &bytes.Buffer{}
	if err := json.NewEncoder(buf).Encode(data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_, _ = w.Write(buf.Bytes())
}

// Business rejection or internal failure, message goes to the voter
func ServiceError(w http.ResponseWriter, message string, code int) {
	JSONWithStatus(w, ErrorResponse{Error: ServiceErrorType, Message: message}, code)
}

// Body that is not JSON of the expected shape
// Oversized body answers 413, everything else 400
func DecodeError(w http.ResponseWriter, err error) {
	var (
		typeErr *json.UnmarshalTypeError
		sizeErr *http.MaxBytesError
	)

	code := http.StatusBadRequest
	var message string

	switch {
	case errors.As(err, &sizeErr):
		code = http.StatusRequestEntityTooLarge
		message = fmt.Sprintf("Data terlalu besar (maksimum %d byte)", sizeErr.Limit)
	case errors.Is(err, io.EOF):
		message = "Data kosong"
	case errors.As(err, &typeErr):
		message = fmt.Sprintf("Tipe data salah untuk field '%s'", typeErr.Field)
	default:
		message = fmt.Sprintf("Gagal membaca JSON: %s", err.Error())
	}

	JSONWithStatus(w, ErrorResponse{Error: DecodingErrorType, Message: message}, code)
}

// Failed struct tags, one message per field
func ValidationErrors(w http.ResponseWriter, errs validator.ValidationErrors) {
	response := ErrorResponse{
		Error:   ValidationErrorType,
		Message: "Data tidak valid",
		Fields:  make(map[string]string, len(errs)),
	}

	for _, fe := range errs {
		response.Fields[fe.Field()] = fieldMessage(fe)
	}

	JSONWithStatus(w, response, http.StatusBadRequest)
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "notblank":
		return "Wajib diisi"
	case "uuid":
		return "Format tidak valid"
	case "min":
		return fmt.Sprintf("Nilai terlalu kecil (minimum %s)", fe.Param())
	case "max":
		return fmt.Sprintf("Nilai terlalu besar (maksimum %s)", fe.Param())
	default:
		return "Nilai tidak valid"
	}
}

// BindAndValidate decodes the body into T and checks its validate tags
// On failure the error envelope is already written and the caller just returns
func BindAndValidate[T any](w http.ResponseWriter, r *http.Request) (T, error) {
	var value T

	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(&value); err != nil {
		DecodeError(w, err)
		return value, err
	}

	err := validate.Struct(value)
	var errs validator.ValidationErrors
	switch {
	case err == nil:
		return value, nil
	case errors.As(err, &errs):
		ValidationErrors(w, errs)
	default:
		// T is not a struct, programming error
		ServiceError(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}

	return value, err
}
