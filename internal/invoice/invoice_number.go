package invoice

import (
	"context"
	"fmt"

	"github.com/AshapuriCRM/backend/internal/shared/counter"
)

const (
	PrefixInvoice = "INV"
	PrefixMerged  = "MINV"
)

// FormatInvoiceNumber renders PREFIX-YEAR-SEQ with the sequence padded to at
// least three digits.
func FormatInvoiceNumber(prefix string, year int, seq int64) string {
	return fmt.Sprintf("%s-%d-%03d", prefix, year, seq)
}

// NumberGenerator hands out invoice numbers per prefix and calendar year.
// The sequence never goes below 1 + the invoices already stored for the
// year: every invoice for INV, merged ones only for MINV.
type NumberGenerator struct {
	repo    Repository
	counter counter.Repository
}

func NewNumberGenerator(repo Repository, counter counter.Repository) *NumberGenerator {
	return &NumberGenerator{repo: repo, counter: counter}
}

func (g *NumberGenerator) Next(ctx context.Context, prefix string, year int) (string, error) {
	existing, err := g.repo.CountByYear(ctx, year, prefix == PrefixMerged)
	if err != nil {
		return "", fmt.Errorf("count invoices: %w", err)
	}

	seq, err := g.counter.NextValue(ctx, fmt.Sprintf("%s-%d", prefix, year), existing+1)
	if err != nil {
		return "", fmt.Errorf("next invoice sequence: %w", err)
	}
	return FormatInvoiceNumber(prefix, year, seq), nil
}
