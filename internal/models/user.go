package models

const (
	RoleOwner = "owner"
	RoleBuyer = "buyer"
)

type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"` // "owner" ou "buyer"
}

// Session représente l'identité authentifiée côté client : l'utilisateur
// et son jeton bearer opaque. Une seule session vivante par store.
type Session struct {
	User  User   `json:"user"`
	Token string `json:"token"`
}
