package events

import "time"

const (
	InvoiceDocumentRequestedTopic = "billing.invoice.document.requested.v1"
	InvoiceDocumentRequestedType  = "invoice_document_requested"
)

type InvoiceDocumentRequestedEvent struct {
	EventType     string    `json:"event_type"`
	RequestID     string    `json:"request_id,omitempty"`
	InvoiceID     string    `json:"invoice_id"`
	InvoiceNumber string    `json:"invoice_number"`
	OccurredAt    time.Time `json:"occurred_at"`
}
