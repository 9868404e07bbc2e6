package core

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubChecker struct {
	existing map[string]bool
	err      error
	calls    int
}

func (s *stubChecker) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	s.calls++
	if s.err != nil {
		return false, s.err
	}
	return s.existing[email], nil
}

func TestValidator_ValidEmail(t *testing.T) {
	v := NewValidator(&stubChecker{})

	tests := []struct {
		email string
		want  bool
	}{
		{"a@b.com", true},
		{"jane.doe+tag@example.co.uk", true},
		{"not-an-email", false},
		{"a@b", false},
		{"@domain.com", false},
		{"jane@", false},
		{"jane doe@example.com", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			assert.Equal(t, tt.want, v.ValidEmail(tt.email))
		})
	}
}

func TestValidator_RuleOrder(t *testing.T) {
	ctx := context.Background()
	valid := Fields{FirstName: "Jane", LastName: "Doe", Email: "jane@example.com"}

	tests := []struct {
		name     string
		fields   Fields
		existing map[string]bool
		batch    EmailSet
		wantMsg  string
	}{
		{
			name:    "valid row",
			fields:  valid,
			wantMsg: "",
		},
		{
			name:    "missing first name",
			fields:  Fields{LastName: "Doe", Email: "jane@example.com"},
			wantMsg: MsgMissingRequired,
		},
		{
			name:    "missing last name",
			fields:  Fields{FirstName: "Jane", Email: "jane@example.com"},
			wantMsg: MsgMissingRequired,
		},
		{
			name:    "missing email beats everything",
			fields:  Fields{FirstName: "Jane", LastName: "Doe"},
			wantMsg: MsgMissingRequired,
		},
		{
			name:     "missing field beats existing email",
			fields:   Fields{LastName: "Doe", Email: "jane@example.com"},
			existing: map[string]bool{"jane@example.com": true},
			wantMsg:  MsgMissingRequired,
		},
		{
			name:    "invalid email",
			fields:  Fields{FirstName: "Jane", LastName: "Doe", Email: "not-an-email"},
			wantMsg: MsgInvalidEmail,
		},
		{
			name:     "existing email",
			fields:   valid,
			existing: map[string]bool{"jane@example.com": true},
			wantMsg:  MsgExistsInStore,
		},
		{
			name:     "own insert is a batch duplicate",
			fields:   valid,
			existing: map[string]bool{"jane@example.com": true},
			batch:    EmailSet{"jane@example.com": {}},
			wantMsg:  MsgDuplicateInFile,
		},
		{
			name:    "batch duplicate",
			fields:  valid,
			batch:   EmailSet{"jane@example.com": {}},
			wantMsg: MsgDuplicateInFile,
		},
		{
			name:    "email comparison is case sensitive",
			fields:  valid,
			batch:   EmailSet{"JANE@example.com": {}},
			wantMsg: "",
		},
		{
			name:    "phone is never validated",
			fields:  Fields{FirstName: "Jane", LastName: "Doe", Email: "jane@example.com", Phone: ptr("not a phone")},
			wantMsg: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewValidator(&stubChecker{existing: tt.existing})
			batch := tt.batch
			if batch == nil {
				batch = make(EmailSet)
			}

			rowErr := v.Validate(ctx, tt.fields, 7, batch)
			if tt.wantMsg == "" {
				assert.Nil(t, rowErr)
				return
			}
			require.NotNil(t, rowErr)
			assert.Equal(t, 7, rowErr.Line)
			assert.Equal(t, tt.wantMsg, rowErr.Message)
		})
	}
}

func TestValidator_DoesNotModifyBatch(t *testing.T) {
	v := NewValidator(&stubChecker{})
	batch := make(EmailSet)

	rowErr := v.Validate(context.Background(), Fields{FirstName: "Jane", LastName: "Doe", Email: "jane@example.com"}, 2, batch)

	assert.Nil(t, rowErr)
	assert.Empty(t, batch)
}

func TestValidator_SkipsLookupForInvalidRows(t *testing.T) {
	checker := &stubChecker{}
	v := NewValidator(checker)

	v.Validate(context.Background(), Fields{FirstName: "Jane", LastName: "Doe", Email: "nope"}, 2, make(EmailSet))
	v.Validate(context.Background(), Fields{FirstName: "Jane", Email: "jane@example.com"}, 3, make(EmailSet))

	assert.Zero(t, checker.calls)
}

func TestValidator_LookupFailure(t *testing.T) {
	v := NewValidator(&stubChecker{err: errors.New("connection reset by peer")})

	rowErr := v.Validate(context.Background(), Fields{FirstName: "Jane", LastName: "Doe", Email: "jane@example.com"}, 4, make(EmailSet))

	require.NotNil(t, rowErr)
	assert.Equal(t, 4, rowErr.Line)
	assert.Equal(t, "email lookup error: connection reset by peer", rowErr.Message)
}

func TestNewValidator_SharesValidate(t *testing.T) {
	a := NewValidator(&stubChecker{})
	b := NewImporter(NewMemoryStore(), nil).validator

	assert.Same(t, a.validate, b.validate)
}
