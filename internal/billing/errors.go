package billing

import "errors"

var (
	ErrInvalidRate      = errors.New("billing: rate must be non-negative")
	ErrInvalidOvertime  = errors.New("billing: overtime rate must be at least 1")
	ErrInvalidTaxType   = errors.New("billing: tax type must be gst or igst")
	ErrInvalidGSTPayer  = errors.New("billing: gst paid by must be principal-employer or ashapuri")
	ErrNotEnoughSources = errors.New("billing: at least two invoices are required to merge")
)
