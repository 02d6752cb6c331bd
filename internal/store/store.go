package store

import "errors"

// Clés utilisées par le client. Le contenu est toujours réécrit en entier
// (snapshot), jamais patché.
const (
	KeyToken = "auth_token"
	KeyUser  = "auth_user"
	KeyCart  = "shopping_cart"
)

// ErrNotFound est retourné par Get quand la clé n'existe pas.
var ErrNotFound = errors.New("store: key not found")

// Store est le stockage clé/valeur local du client (jeton, identité, panier).
// Set écrase la valeur entière de façon synchrone avant de rendre la main.
type Store interface {
	Get(key string) ([]byte, error)
	Set(key string, value []byte) error
	Delete(key string) error
}
