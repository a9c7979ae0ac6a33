package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Booking-flow failures. Every operation of the booking core returns one of
// these (possibly wrapped) so callers can render a specific message.
var (
	ErrInvalidDates          = errors.New("selected range must cover at least one night")
	ErrUnavailableRange      = errors.New("selected range overlaps a booked or blocked date")
	ErrMinStayNotMet         = errors.New("selected range is shorter than the minimum stay")
	ErrRequiredFieldsMissing = errors.New("required contact fields are missing")
	ErrGateSequenceViolation = errors.New("previous settlement step is not completed")
	ErrConfirmationRequired  = errors.New("action must be confirmed a second time")
	ErrReasonRequired        = errors.New("a reason is required to delete a confirmed booking")
	ErrContractNotYetSent    = errors.New("the owner has not sent the contract yet")
	ErrReviewWindowClosed    = errors.New("reviews are not open for this booking")
	ErrPriceChanged          = errors.New("the price changed since the quote was made")
	ErrStorageFailure        = errors.New("storage failure")
	ErrBlobFailure           = errors.New("file storage failure")
	ErrNotFound              = errors.New("resource not found")
	ErrForbidden             = errors.New("caller is not allowed to perform this action")
	ErrInvalidInput          = errors.New("invalid input")
)

// MinStayError carries the minimum number of nights the range needed.
type MinStayError struct {
	Required int
}

func (e *MinStayError) Error() string {
	return fmt.Sprintf("minimum stay is %d nights", e.Required)
}

func (e *MinStayError) Is(target error) bool { return target == ErrMinStayNotMet }

// FieldsError lists the contact fields that were empty at submission.
type FieldsError struct {
	Fields []string
}

func (e *FieldsError) Error() string {
	return "missing required fields: " + strings.Join(e.Fields, ", ")
}

func (e *FieldsError) Is(target error) bool { return target == ErrRequiredFieldsMissing }

// StorageError wraps a record store failure verbatim.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string { return fmt.Sprintf("storage: %s: %v", e.Op, e.Err) }

func (e *StorageError) Unwrap() error { return e.Err }

func (e *StorageError) Is(target error) bool { return target == ErrStorageFailure }

// BlobError wraps a blob store failure verbatim.
type BlobError struct {
	Op  string
	Err error
}

func (e *BlobError) Error() string { return fmt.Sprintf("blob: %s: %v", e.Op, e.Err) }

func (e *BlobError) Unwrap() error { return e.Err }

func (e *BlobError) Is(target error) bool { return target == ErrBlobFailure }

// Storage wraps err as a StorageError unless it already belongs to the
// taxonomy (not found, overlap), in which case it is returned unchanged.
func Storage(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrUnavailableRange) || errors.Is(err, ErrStorageFailure) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}

// Blob wraps err as a BlobError.
func Blob(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrBlobFailure) {
		return err
	}
	return &BlobError{Op: op, Err: err}
}

type classification struct {
	target error
	status int
	code   string
}

var classifications = []classification{
	{ErrInvalidDates, http.StatusUnprocessableEntity, "invalid_dates"},
	{ErrUnavailableRange, http.StatusConflict, "unavailable_range"},
	{ErrMinStayNotMet, http.StatusUnprocessableEntity, "min_stay_not_met"},
	{ErrRequiredFieldsMissing, http.StatusUnprocessableEntity, "required_fields_missing"},
	{ErrGateSequenceViolation, http.StatusConflict, "gate_sequence_violation"},
	{ErrConfirmationRequired, http.StatusConflict, "confirmation_required"},
	{ErrReasonRequired, http.StatusUnprocessableEntity, "reason_required"},
	{ErrContractNotYetSent, http.StatusConflict, "contract_not_yet_sent"},
	{ErrReviewWindowClosed, http.StatusConflict, "review_window_closed"},
	{ErrPriceChanged, http.StatusConflict, "price_changed"},
	{ErrNotFound, http.StatusNotFound, "not_found"},
	{ErrForbidden, http.StatusForbidden, "forbidden"},
	{ErrInvalidInput, http.StatusBadRequest, "invalid_input"},
	{ErrBlobFailure, http.StatusBadGateway, "blob_failure"},
	{ErrStorageFailure, http.StatusInternalServerError, "storage_failure"},
}

// Classify returns the HTTP status and stable code for a taxonomy error.
// ok is false for errors outside the taxonomy.
func Classify(err error) (status int, code string, ok bool) {
	for _, c := range classifications {
		if errors.Is(err, c.target) {
			return c.status, c.code, true
		}
	}
	return http.StatusInternalServerError, "internal", false
}
