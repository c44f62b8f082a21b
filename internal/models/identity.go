package models

// Identity is a caller's platform identity, resolved at the API edge.
// Exactly one of UserID or DeviceID is set: authenticated users carry a
// user id, guests carry a device token.
type Identity struct {
	UserID   string
	DeviceID string
}

// ParticipantKey derives the stable key used for all identity comparison in
// the core. The derivation makes join idempotent: the same identity always
// maps to the same participant row.
func (id Identity) ParticipantKey() string {
	if id.UserID != "" {
		return "auth:" + id.UserID
	}
	if id.DeviceID != "" {
		return "guest:" + id.DeviceID
	}
	return ""
}

// IsZero reports whether no identity was provided.
func (id Identity) IsZero() bool {
	return id.UserID == "" && id.DeviceID == ""
}
