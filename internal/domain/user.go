package domain

// User is a registered account. The password is stored as a hex SHA-256
// of password+salt; the session returned from login is this value, passed
// explicitly by callers — there is no ambient current user.
type User struct {
	ID               int
	Username         string
	HashedPassword   string
	Salt             string
	RegistrationDate string // TimeFormat
}
