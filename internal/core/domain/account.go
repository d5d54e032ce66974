package domain

import "time"

// Account is the auth core's view of a back-office account. The directory
// owning the full record lives outside this service; the core only relies on
// the identifier set, the active flag, and role names.
type Account struct {
	ID             string
	FirstName      string
	LastName       string
	Email          *string
	Mobile         *string
	EmailVerified  bool
	MobileVerified bool
	Active         bool
	Roles          []string
	LastLogin      *time.Time
}

// HasRole reports whether the account carries the named role.
func (a Account) HasRole(name string) bool {
	for _, role := range a.Roles {
		if role == name {
			return true
		}
	}
	return false
}

// RegistrationDetails is the validated payload required to create an account
// during an OTP registration flow. Unknown or missing fields are rejected at
// the transport boundary before the orchestrator sees them.
type RegistrationDetails struct {
	FirstName string
	LastName  string
	Role      string
	Email     string
	Mobile    string
}
