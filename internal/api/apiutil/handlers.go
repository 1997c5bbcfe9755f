// internal/api/apiutil/handlers.go
package apiutil

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/hnvivek/game-management-sub002/internal/booking"
)

type FieldError struct {
	Field  string
	Reason string
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

type HandlerError struct {
	Status  int
	Message string
	Err     error
}

func (e HandlerError) Error() string {
	return e.Message
}

func (e HandlerError) Unwrap() error {
	return e.Err
}

func IsJSONRequest(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Content-Type"), "application/json")
}

func DecodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return fmt.Errorf("missing request body")
	}
	defer r.Body.Close()

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		return err
	}
	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		return fmt.Errorf("invalid JSON body")
	}
	return nil
}

func WriteJSON(w http.ResponseWriter, status int, payload any) error {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	if err := encoder.Encode(payload); err != nil {
		return err
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err := w.Write(buf.Bytes())
	return err
}

// WriteEngineError maps the engine's error taxonomy onto response codes:
// validation errors are 400, conflicts are 409 (the user-facing "this
// slot is no longer available"), anything else is an opaque 500 that
// gets logged but not echoed to the client.
func WriteEngineError(w http.ResponseWriter, r *http.Request, err error, fallbackMessage string) {
	var invalid booking.ValidationError
	if errors.As(err, &invalid) {
		http.Error(w, invalid.Error(), http.StatusBadRequest)
		return
	}

	var conflict booking.ConflictError
	if errors.As(err, &conflict) {
		http.Error(w, "This slot is no longer available", http.StatusConflict)
		return
	}

	var fieldErr FieldError
	if errors.As(err, &fieldErr) {
		http.Error(w, fieldErr.Error(), http.StatusBadRequest)
		return
	}

	log.Ctx(r.Context()).Error().Err(err).Msg(fallbackMessage)
	http.Error(w, fallbackMessage, http.StatusInternalServerError)
}
