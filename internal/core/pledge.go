package core

import (
	"errors"
	"strings"
	"time"
)

// Categorical fields of a pledge record the store can group by.
const (
	FieldState   Field = "state"
	FieldSource  Field = "source"
	FieldConsent Field = "consent_type"
	FieldGender  Field = "gender"
)

type (
	Field string

	// PledgeRecord is the read-only view over a persisted pledge. Records are
	// written by the intake workflow; the statistics engine never mutates them.
	// CreatedAt is stored in UTC and is the sole temporal anchor for bucketing.
	PledgeRecord struct {
		ID              int64
		ReferenceNumber string
		CreatedAt       time.Time
		State           string
		District        string
		Source          string
		ConsentType     string
		Gender          string
		DateOfBirth     BirthDate
		Active          bool
	}

	// BirthDate is an optional date of birth. Age bands derive from it at
	// report time; an invalid one counts under the "Unknown" band.
	BirthDate struct {
		Valid bool
		Date  time.Time
	}

	// FieldCount is one pre-counted group-by row from the store.
	FieldCount struct {
		Value string
		Count int64
	}
)

var (
	ErrEmptyReference  = errors.New("empty reference number")
	ErrZeroCreatedAt   = errors.New("created_at cannot be zero")
	ErrFutureBirthDate = errors.New("date of birth in the future")
)

func (p PledgeRecord) Validate() error {
	if strings.TrimSpace(p.ReferenceNumber) == "" {
		return ErrEmptyReference
	}
	if p.CreatedAt.IsZero() {
		return ErrZeroCreatedAt
	}
	if p.DateOfBirth.Valid && p.DateOfBirth.Date.After(p.CreatedAt) {
		return ErrFutureBirthDate
	}
	return nil
}
