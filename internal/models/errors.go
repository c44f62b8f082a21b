package models

import "errors"

// Domain errors carry no infrastructure dependency. NotFound conditions
// are generally reported as nil results rather than errors so idempotent
// client retries stay cheap; the sentinels below are the precondition,
// validation and authorization failures that must reach the caller by name.
var (
	// Validation
	ErrInvalidShareCode = errors.New("share code must be 6 digits")
	ErrUnknownItem      = errors.New("unknown item key")
	ErrNoIdentity       = errors.New("caller identity required")
	ErrEmptyReceipt     = errors.New("receipt must have at least one item")

	// Precondition violations
	ErrClaimsLocked            = errors.New("claims are locked for submitted participants")
	ErrAlreadyFinalized        = errors.New("receipt is already finalized")
	ErrNotFinalized            = errors.New("receipt is not finalized yet")
	ErrReceiptInactive         = errors.New("receipt is no longer active")
	ErrUnclaimedItems          = errors.New("all items must be fully claimed")
	ErrNotAllSubmitted         = errors.New("all participants must submit before finalizing")
	ErrNoParticipants          = errors.New("receipt has no participants")
	ErrNoHostPaymentOption     = errors.New("host has no payment option configured")
	ErrNoPaymentDue            = errors.New("participant owes nothing")
	ErrCodeGenerationExhausted = errors.New("could not generate a unique share code")

	// Authorization
	ErrNotHost        = errors.New("only the host may perform this action")
	ErrHostNotPayable = errors.New("the host cannot be targeted by this action")
)
