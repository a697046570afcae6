package dispatcher

// Session is either unauthenticated or authenticated as exactly one account.
// The zero value is unauthenticated.
type Session struct {
	accountID     string
	authenticated bool
}

func Unauthenticated() Session {
	return Session{}
}

func Authenticated(accountID string) Session {
	return Session{accountID: accountID, authenticated: true}
}

func (s Session) AccountID() (string, bool) {
	return s.accountID, s.authenticated
}

func (s Session) String() string {
	if !s.authenticated {
		return "unauthenticated"
	}
	return "authenticated(" + s.accountID + ")"
}
