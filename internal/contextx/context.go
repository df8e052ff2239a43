package contextx

// Key is a private type to avoid collisions in request context keys.
type Key string

// AccountIDKey is the context key used to store the authenticated account's ID (string).
const AccountIDKey Key = "accountID"

// RoleKey is the context key used to store the authenticated account's role (string).
const RoleKey Key = "role"

// SessionTokenKey is the context key used to store the current opaque session token (string).
const SessionTokenKey Key = "sessionToken"
