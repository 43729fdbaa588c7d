package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrGameFinished      = errors.New("game is already finished")
	ErrGameIsNotStarted  = errors.New("game is not started")
	ErrNotYourTurn       = errors.New("it's not your turn")
	ErrCellOccupied      = errors.New("cell is already occupied")
	ErrInvalidCell       = errors.New("invalid cell index")
	ErrUnknownDifficulty = errors.New("unknown difficulty level")
	ErrGameNotJoinable   = errors.New("game cannot be joined")
	ErrRoundInProgress   = errors.New("round is still in progress")
)

// AI subsystem errors.
var (
	ErrConfigFetch            = errors.New("failed to fetch ai config")
	ErrConfigValidation       = errors.New("invalid ai config")
	ErrNotLoaded              = errors.New("ai config is not loaded")
	ErrUnknownProvider        = errors.New("unknown ai provider")
	ErrProviderHTTP           = errors.New("ai provider http error")
	ErrProviderResponseShape  = errors.New("unexpected ai provider response shape")
	ErrProviderNotImplemented = errors.New("ai provider is not implemented")
	ErrRateLimited            = errors.New("ai provider rate limit exceeded")
	ErrMoveParse              = errors.New("failed to parse move")
	ErrNoMovesAvailable       = errors.New("no moves available")
)

// ConfigValidationError names the ai config field that failed validation.
type ConfigValidationError struct {
	Field  string
	Reason string
}

func (that *ConfigValidationError) Error() string {
	return fmt.Sprintf("%s: field %q: %s", ErrConfigValidation, that.Field, that.Reason)
}

func (that *ConfigValidationError) Unwrap() error {
	return ErrConfigValidation
}

// ProviderHTTPError is returned when a provider answers with a non-2xx status.
type ProviderHTTPError struct {
	Provider   string
	StatusCode int
	Status     string
}

func (that *ProviderHTTPError) Error() string {
	return fmt.Sprintf("%s: %s responded with status %d (%s)", ErrProviderHTTP, that.Provider, that.StatusCode, that.Status)
}

func (that *ProviderHTTPError) Unwrap() error {
	return ErrProviderHTTP
}

// Transient reports whether the request may succeed if sent again.
func (that *ProviderHTTPError) Transient() bool {
	return that.StatusCode == 429 || that.StatusCode >= 500
}
