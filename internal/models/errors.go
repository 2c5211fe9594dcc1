package models

import "errors"

var (
	ErrNotFound            = errors.New("not found")
	ErrUnauthenticated     = errors.New("unauthenticated")
	ErrForbidden           = errors.New("forbidden")
	ErrInvalidInput        = errors.New("invalid input")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrNothingToTransfer   = errors.New("no revenue available to transfer")
	ErrInventoryExhausted  = errors.New("ad inventory exhausted")
	ErrInvalidTransition   = errors.New("invalid status transition")
	ErrDuplicateImpression = errors.New("duplicate impression")
)
