package core

import (
	"time"

	"github.com/google/uuid"
)

// Column positions of the fixed contact CSV layout.
const (
	ColFirstName = iota
	ColLastName
	ColEmail
	ColPhone
)

// Columns is the expected header of a contact CSV file.
// The header row is never validated; this is informational only.
var Columns = []string{"first_name", "last_name", "email", "phone"}

// Fields is one decoded CSV record.
// Phone is nil when the record has no fourth column.
type Fields struct {
	FirstName string
	LastName  string
	Email     string
	Phone     *string
}

// Contact is a contact ready to be persisted.
// Only built from Fields that passed validation.
type Contact struct {
	ID        uuid.UUID
	ImportID  uuid.UUID
	FirstName string
	LastName  string
	Email     string
	Phone     *string
	CreatedAt time.Time
}

// NewContact builds a Contact from validated fields.
func NewContact(f Fields, importID uuid.UUID) Contact {
	return Contact{
		ID:        uuid.New(),
		ImportID:  importID,
		FirstName: f.FirstName,
		LastName:  f.LastName,
		Email:     f.Email,
		Phone:     f.Phone,
	}
}

// RowError describes why a single data row was skipped.
// Line is 1-based with the header counted as line 1.
type RowError struct {
	Line    int    `json:"line"`
	Message string `json:"message"`
}

func (e RowError) Error() string {
	return e.Message
}

// Outcome is the summary of one import call.
//
// Inserted + Skipped equals the number of data rows processed and
// len(Errors) always equals Skipped.
type Outcome struct {
	Inserted int        `json:"inserted"`
	Skipped  int        `json:"skipped"`
	Errors   []RowError `json:"errors"`
}

// newOutcome returns an Outcome whose Errors serializes as [] rather than null.
func newOutcome() Outcome {
	return Outcome{Errors: []RowError{}}
}

func (o *Outcome) skip(line int, message string) {
	o.Skipped++
	o.Errors = append(o.Errors, RowError{Line: line, Message: message})
}

// EmailSet tracks emails inserted during a single import call.
// It is never shared between calls.
type EmailSet map[string]struct{}

// Has reports whether email was already inserted in this batch.
func (s EmailSet) Has(email string) bool {
	_, ok := s[email]
	return ok
}

// Add records email as inserted in this batch.
func (s EmailSet) Add(email string) {
	s[email] = struct{}{}
}

// ImportPhase indicates the current stage of an import call.
type ImportPhase string

const (
	PhaseComplete  ImportPhase = "complete"
	PhaseFailed    ImportPhase = "failed"
	PhaseCancelled ImportPhase = "cancelled"
)

// ImportResult wraps an Outcome with bookkeeping the service keeps for logs and metrics.
type ImportResult struct {
	ImportID  uuid.UUID
	FileName  string
	Phase     ImportPhase
	Outcome   Outcome
	BytesRead int64
	Duration  time.Duration
}
