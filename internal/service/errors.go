package service

import (
	"errors"
	"fmt"

	"github.com/asesorame/asesorame/internal/payment"
	"github.com/asesorame/asesorame/internal/repo"
	pkghash "github.com/asesorame/asesorame/pkg/hash"
	"gorm.io/gorm"
)

var (
	ErrValidation   = errors.New("validation")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrUpstream     = errors.New("upstream")
)

// translate maps storage and gateway errors onto the service taxonomy while
// keeping the original error in the chain.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound), errors.Is(err, repo.ErrItemNotFound):
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	case errors.Is(err, repo.ErrEmailTaken),
		errors.Is(err, repo.ErrSessionInCart),
		errors.Is(err, repo.ErrSlotInCart),
		errors.Is(err, repo.ErrBadTransition),
		errors.Is(err, repo.ErrNotRateable),
		errors.Is(err, repo.ErrAlreadyRated):
		return fmt.Errorf("%w: %w", ErrConflict, err)
	case errors.Is(err, repo.ErrNotOwner):
		return fmt.Errorf("%w: %w", ErrForbidden, err)
	case errors.Is(err, repo.ErrUnpriced), errors.Is(err, pkghash.ErrPasswordTooShort):
		return fmt.Errorf("%w: %w", ErrValidation, err)
	case errors.Is(err, payment.ErrUpstream):
		return fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	return err
}

// UpstreamBody returns the processor's error body carried by err, if any.
func UpstreamBody(err error) string {
	var ue *payment.UpstreamError
	if errors.As(err, &ue) {
		if ue.Body != "" {
			return ue.Body
		}
		if ue.Err != nil {
			return ue.Err.Error()
		}
	}
	return ""
}
