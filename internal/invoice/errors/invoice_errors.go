package invoiceerrors

import (
	"net/http"

	"github.com/AshapuriCRM/backend/internal/shared/apperror"
)

var (
	ErrInvoiceNotFound = apperror.New(
		apperror.CodeNotFound,
		"Invoice not found",
		http.StatusNotFound,
	)
	ErrInvalidInvoiceID = apperror.New(
		apperror.CodeInvalidInput,
		"Invalid invoice ID",
		http.StatusBadRequest,
	)
	ErrInvalidCompanyID = apperror.New(
		apperror.CodeInvalidInput,
		"Invalid company ID",
		http.StatusBadRequest,
	)
	ErrInvalidRates = apperror.New(
		apperror.CodeInvalidInput,
		"Invalid rate configuration",
		http.StatusBadRequest,
	)
	ErrInvalidPaymentDate = apperror.New(
		apperror.CodeInvalidInput,
		"Invalid payment date, expected YYYY-MM-DD",
		http.StatusBadRequest,
	)
	ErrNotEnoughInvoices = apperror.New(
		apperror.CodeInvalidInput,
		"At least two invoices are required to merge",
		http.StatusBadRequest,
	)
	ErrDuplicateInvoiceIDs = apperror.New(
		apperror.CodeInvalidInput,
		"Each invoice can only be merged once per request",
		http.StatusBadRequest,
	)
	ErrMergedInvoiceAsSource = apperror.New(
		apperror.CodeInvalidInput,
		"A merged invoice cannot be merged again",
		http.StatusBadRequest,
	)
	ErrCancelledInvoiceAsSource = apperror.New(
		apperror.CodeInvalidInput,
		"A cancelled invoice cannot be merged",
		http.StatusBadRequest,
	)
	ErrInvalidStatusTransition = apperror.New(
		apperror.CodeInvalidState,
		"Invoice status change is not allowed",
		http.StatusUnprocessableEntity,
	)
	ErrInvoiceReferenced = apperror.New(
		apperror.CodeConflict,
		"Invoice is part of a merged invoice",
		http.StatusConflict,
	)
	ErrInvoiceNumberConflict = apperror.New(
		apperror.CodeConflict,
		"Invoice number already exists",
		http.StatusConflict,
	)
	ErrDocumentNotReady = apperror.New(
		apperror.CodeNotFound,
		"Invoice document has not been generated yet",
		http.StatusNotFound,
	)
	ErrDocumentFailed = apperror.New(
		apperror.CodeServiceUnavailable,
		"Invoice document could not be generated",
		http.StatusServiceUnavailable,
	)
)
