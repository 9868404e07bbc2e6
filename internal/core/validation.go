package core

// validation.go checks a decoded row before insertion.
//
// Rules run in a fixed order and the first failure wins:
//  1. Required fields: first name, last name and email must be non-empty
//  2. Email format
//  3. Email already present in the store from an earlier import
//  4. Email already inserted earlier in the same file
//
// Phone is never validated. Emails are compared exactly as parsed.

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Row-level rejection messages.
const (
	MsgMissingRequired = "missing required fields"
	MsgInvalidEmail    = "invalid email format"
	MsgExistsInStore   = "email already exists in store"
	MsgDuplicateInFile = "duplicate within file"
	MsgInsertionPrefix = "insertion error: "
	MsgLookupPrefix    = "email lookup error: "
	MsgMalformedPrefix = "malformed row: "
)

// EmailChecker is the part of the store the validator needs.
type EmailChecker interface {
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}

// Validator validates decoded rows against the store and the current batch.
type Validator struct {
	store    EmailChecker
	validate *validator.Validate
}

// validate is shared by every Validator; it caches tag parsing and is safe for concurrent use.
var validate = validator.New(validator.WithRequiredStructEnabled())

// NewValidator creates a Validator backed by store for cross-batch duplicate checks.
func NewValidator(store EmailChecker) *Validator {
	return &Validator{
		store:    store,
		validate: validate,
	}
}

// Validate returns nil when the row may be inserted, or the RowError explaining
// why it must be skipped. It never modifies batch.
func (v *Validator) Validate(ctx context.Context, f Fields, line int, batch EmailSet) *RowError {
	if f.FirstName == "" || f.LastName == "" || f.Email == "" {
		return &RowError{Line: line, Message: MsgMissingRequired}
	}

	if !v.ValidEmail(f.Email) {
		return &RowError{Line: line, Message: MsgInvalidEmail}
	}

	exists, err := v.store.ExistsByEmail(ctx, f.Email)
	if err != nil {
		return &RowError{Line: line, Message: MsgLookupPrefix + err.Error()}
	}
	// A store hit for an email in batch is this call's own insert, not a prior one.
	if exists && !batch.Has(f.Email) {
		return &RowError{Line: line, Message: MsgExistsInStore}
	}

	if batch.Has(f.Email) {
		return &RowError{Line: line, Message: MsgDuplicateInFile}
	}

	return nil
}

// ValidEmail reports whether email is a syntactically valid address with a
// dotted domain part.
func (v *Validator) ValidEmail(email string) bool {
	if err := v.validate.Var(email, "required,email"); err != nil {
		return false
	}
	at := strings.LastIndexByte(email, '@')
	if at <= 0 {
		return false
	}
	domain := email[at+1:]
	return strings.Contains(strings.TrimSuffix(domain, "."), ".")
}
