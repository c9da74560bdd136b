package finance

import (
	"context"
	"fmt"
	"time"
)

// DocumentKind is the prefix of a generated document number
type DocumentKind string

const (
	DocumentKindInvoice DocumentKind = "INV"
	DocumentKindReceipt DocumentKind = "RCP"
)

// SequenceAllocator hands out strictly increasing numbers per scope.
// Two callers never receive the same value for the same scope.
type SequenceAllocator interface {
	Next(ctx context.Context, scope string) (int64, error)
}

// SequenceScope is the counter key for a kind of document in the calendar month of t
func SequenceScope(kind DocumentKind, t time.Time) string {
	t = t.UTC()
	return fmt.Sprintf("%s-%04d%02d", kind, t.Year(), int(t.Month()))
}

// FormatDocumentNumber renders e.g. INV-202501-0007
func FormatDocumentNumber(kind DocumentKind, t time.Time, seq int64) string {
	return fmt.Sprintf("%s-%04d", SequenceScope(kind, t), seq)
}

// NextDocumentNumber allocates and formats the next number for the month of t
func NextDocumentNumber(ctx context.Context, alloc SequenceAllocator, kind DocumentKind, t time.Time) (string, error) {
	seq, err := alloc.Next(ctx, SequenceScope(kind, t))
	if err != nil {
		return "", fmt.Errorf("allocate %s number: %w", kind, err)
	}
	return FormatDocumentNumber(kind, t, seq), nil
}
