package models

// UserInfo contains the attributes of the signed-in user
type UserInfo struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Sub      string `json:"sub"`
}

// IsValid returns true if the user has an identifier
func (u UserInfo) IsValid() bool {
	return u.Sub != ""
}
