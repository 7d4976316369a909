package repository

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/aryan0dhankhar/natours/internal/domain"
)

// ErrNoDocument is the client message for a missing id.
const ErrNoDocument = "No document found with that ID"

var duplicateDetail = regexp.MustCompile(`Key \((.+)\)=\((.+)\) already exists`)

// classify maps driver failures onto domain kinds. Unrecognized errors are
// wrapped and left unclassified.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var appErr *domain.AppError
	if errors.As(err, &appErr) {
		return err
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.NotFound(ErrNoDocument).Wrap(err)
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23505":
			value := pqErr.Detail
			if m := duplicateDetail.FindStringSubmatch(pqErr.Detail); m != nil {
				value = m[2]
			}
			return domain.Errorf(domain.KindDuplicateKey, "Duplicate field value: %s. Please use another value!", value).Wrap(err)
		case "22P02", "22007", "22008", "22003":
			return domain.Errorf(domain.KindMalformedReference, "Invalid input: %s", pqErr.Message).Wrap(err)
		case "23503":
			return domain.NewError(domain.KindMalformedReference, "Referenced document does not exist").Wrap(err)
		case "23502", "23514":
			return domain.Errorf(domain.KindValidation, "Invalid input data. %s", pqErr.Message).Wrap(err)
		}
	}
	return fmt.Errorf("database: %w", err)
}

// ParseID validates an identifier taken from a URL or payload.
func ParseID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, domain.Errorf(domain.KindMalformedReference, "Invalid id: %s", raw)
	}
	return id, nil
}
