package services

import "errors"

// Общие ошибки, используемые в сервисах и маппинге HTTP.
var (
	ErrNotFound           = errors.New("requested resource not found")
	ErrValidationFailed   = errors.New("validation failed")
	ErrForbiddenOperation = errors.New("operation not allowed for the current user")

	// Жизненный цикл матча
	ErrAddMatch           = errors.New("match cannot be added")
	ErrMatchAlreadyExists = errors.New("a pending result already exists between these players")
	ErrConfirmMatch       = errors.New("match cannot be confirmed or rejected")
	ErrCancelMatch        = errors.New("match cannot be cancelled")
	ErrMatchConflict      = errors.New("match was modified by another request, reload and retry")

	// Фазы
	ErrPhaseNotReady = errors.New("phase still has unconfirmed matches")
)
