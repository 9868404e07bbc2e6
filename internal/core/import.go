package core

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/google/uuid"
)

// ContextCheckInterval is how often, in records, the import checks for cancellation.
var ContextCheckInterval = 100

// Importer runs the decode, validate, persist loop over one CSV stream.
type Importer struct {
	store     Store
	validator *Validator
	logger    *slog.Logger
}

// NewImporter creates an Importer persisting into store.
func NewImporter(store Store, logger *slog.Logger) *Importer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Importer{
		store:     store,
		validator: NewValidator(store),
		logger:    logger,
	}
}

// Import reads src to the end and returns the per-row outcome.
//
// The first record is the header and is skipped unconditionally. Every other
// record is decoded, validated and, if valid, persisted. Row failures are
// recorded in the Outcome and never stop the loop. An error is returned only
// when the stream cannot be read or ctx is cancelled; the partial Outcome is
// returned alongside it. src is always closed.
func (im *Importer) Import(ctx context.Context, src io.ReadCloser) (Outcome, error) {
	return im.ImportWithID(ctx, uuid.Nil, src)
}

// ImportWithID is Import with the import ID stamped on every inserted contact.
func (im *Importer) ImportWithID(ctx context.Context, importID uuid.UUID, src io.ReadCloser) (Outcome, error) {
	defer src.Close()

	outcome := newOutcome()

	lines := &lineCounter{r: src}
	r := csv.NewReader(lines)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.ReuseRecord = true

	// nextLine is the physical line a record would start on if no blank line
	// came before it. The csv reader drops blank lines silently.
	var nextLine int
	head, err := r.Read()
	switch {
	case errors.Is(err, io.EOF):
		return outcome, nil
	case err == nil:
		nextLine = recordEnd(r, head) + 1
	default:
		var parseErr *csv.ParseError
		if !errors.As(err, &parseErr) {
			return outcome, fmt.Errorf("read header: %w", err)
		}
		nextLine = parseErr.Line + 1
	}

	batch := make(EmailSet)

	for records := 0; ; records++ {
		if records%ContextCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return outcome, fmt.Errorf("import cancelled at line %d: %w", nextLine, err)
			}
		}

		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				skipBlankLines(&outcome, nextLine, parseErr.StartLine)
				outcome.skip(parseErr.StartLine, MsgMalformedPrefix+parseErr.Err.Error())
				nextLine = parseErr.Line + 1
				continue
			}
			return outcome, fmt.Errorf("read line %d: %w", nextLine, err)
		}

		line, _ := r.FieldPos(0)
		skipBlankLines(&outcome, nextLine, line)
		nextLine = recordEnd(r, record) + 1

		fields := DecodeRow(record)

		if rowErr := im.validator.Validate(ctx, fields, line, batch); rowErr != nil {
			// A lookup that failed because the call ran out of time is not a row problem.
			if err := ctx.Err(); err != nil {
				return outcome, fmt.Errorf("import cancelled at line %d: %w", line, err)
			}
			outcome.skip(rowErr.Line, rowErr.Message)
			continue
		}

		if err := im.store.Create(ctx, NewContact(fields, importID)); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return outcome, fmt.Errorf("import cancelled at line %d: %w", line, ctxErr)
			}
			outcome.skip(line, MsgInsertionPrefix+err.Error())
			im.logger.Error("contact insert failed",
				"line", line,
				"error", err,
			)
			continue
		}

		outcome.Inserted++
		batch.Add(fields.Email)
	}

	skipBlankLines(&outcome, nextLine, lines.Lines()+1)
	return outcome, nil
}

// skipBlankLines records every line in [from, to) as an empty row.
// Blank lines have no fields, so they fail the required-field rule.
func skipBlankLines(o *Outcome, from, to int) {
	for line := from; line < to; line++ {
		o.skip(line, MsgMissingRequired)
	}
}

// recordEnd returns the physical line the record just read ends on.
// A quoted last field may span several lines.
func recordEnd(r *csv.Reader, record []string) int {
	last := len(record) - 1
	line, _ := r.FieldPos(last)
	return line + strings.Count(record[last], "\n")
}

// lineCounter counts the physical lines of everything read through it.
type lineCounter struct {
	r        io.Reader
	newlines int
	read     int64
	last     byte
}

func (c *lineCounter) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	if n > 0 {
		c.newlines += bytes.Count(p[:n], []byte{'\n'})
		c.read += int64(n)
		c.last = p[n-1]
	}
	return n, err
}

// Lines returns the number of lines read so far. A final line without a
// trailing newline still counts.
func (c *lineCounter) Lines() int {
	if c.read == 0 {
		return 0
	}
	if c.last != '\n' {
		return c.newlines + 1
	}
	return c.newlines
}
