package domain

// User represents a registered account. PasswordHash never leaves the service layer.
type User struct {
	ID           string `json:"id"`
	Username     string `json:"username"`
	PasswordHash string `json:"password_hash"`
}
