package domain

import "errors"

var (
	ErrDuplicatePaymentHash    = errors.New("incoming payment with same hash already exists")
	ErrDuplicatePaymentId      = errors.New("outgoing payment with same id already exists")
	ErrDuplicatePartId         = errors.New("outgoing part with same id already exists")
	ErrPaymentNotFound         = errors.New("payment not found")
	ErrPaymentAlreadyCompleted = errors.New("payment already completed")
	ErrUnknownEncoding         = errors.New("unknown record encoding")
)
