package session

// Session is the persisted state of one authenticated session. The
// identifier doubles as the bearer credential, so it is never derived from
// user data; see ident.NewSessionID.
//
// LastActivityAt is the only field mutated after creation: every
// successful read stamps it and resets the expiration window.
type Session struct {
	SessionID string
	UserID    string

	Email     string
	FirstName string
	LastName  string

	IP        string
	UserAgent string

	LoginAt        int64
	LastActivityAt int64
}
