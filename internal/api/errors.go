package api

import "errors"

// Taxonomie des erreurs réseau du client. Les messages sont ceux affichés
// tels quels par l'UI.
var (
	// ErrSessionExpired : tout 401 du backend, y compris un login refusé — la
	// session locale est purgée avant que l'erreur ne remonte.
	ErrSessionExpired = errors.New("Session expired. Please login again.")

	// ErrPermissionDenied : 403 — la session reste intacte.
	ErrPermissionDenied = errors.New("You do not have permission to perform this action.")

	// ErrRateLimited : 429 sur le lookup QR public uniquement.
	ErrRateLimited = errors.New("Too many requests. Please wait a moment and try again.")
)

// RequestError porte le message d'erreur renvoyé par le backend pour tout
// autre statut non-2xx.
type RequestError struct {
	Status  int
	Message string
}

func (e *RequestError) Error() string {
	return e.Message
}
