package models

// User represents a registered account. Accounts are optional (guests join
// receipts with just a device token) but only registered users can host
// from multiple devices and keep receipt history across them.
type User struct {
	// ID is the unique identifier for the user (UUID format).
	ID string

	// Name is the display name of the user.
	Name string

	// Email is the user's email address (unique). Used for login.
	Email string

	// PasswordHash is the bcrypt hash of the user's password.
	PasswordHash string

	// CreatedAt is the Unix timestamp when the account was created.
	CreatedAt int64
}

// PaymentOption is one way a host can receive money, e.g. venmo + "@alice".
// Finalize requires the host to have at least one configured.
type PaymentOption struct {
	// ParticipantKey is the derived key of the owner. Options are keyed by
	// participant key rather than user id so guest hosts can configure them
	// too.
	ParticipantKey string

	// Method is the payment channel.
	Method PaymentMethod

	// Handle is the method-specific address ("@alice", an email, etc.).
	// Empty for cash.
	Handle string
}
