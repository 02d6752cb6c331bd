package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"
)

// Gateway enveloppe tous les appels sortants vers le backend : il attache le
// jeton bearer quand il existe et normalise les statuts d'erreur (401 → purge
// de session, 403 → permission refusée, autre non-2xx → message serveur).
type Gateway struct {
	baseURL string
	client  *http.Client

	token            func() string
	onSessionExpired func()
}

func New(baseURL string) *Gateway {
	return &Gateway{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// Bind branche le gestionnaire de session sur le gateway : source du jeton et
// callback de purge sur 401. Appelé par session.New.
func (g *Gateway) Bind(token func() string, onSessionExpired func()) {
	g.token = token
	g.onSessionExpired = onSessionExpired
}

// do exécute une requête JSON authentifiée et décode la réponse dans out.
func (g *Gateway) do(ctx context.Context, method, endpoint string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+endpoint, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if g.token != nil {
		if tok := g.token(); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	// Tout 401 se traite pareil, jeton rejeté ou identifiants refusés : purge
	// de la session locale avant de remonter.
	if resp.StatusCode == http.StatusUnauthorized {
		if g.onSessionExpired != nil {
			g.onSessionExpired()
		}
		return ErrSessionExpired
	}
	if resp.StatusCode == http.StatusForbidden {
		return ErrPermissionDenied
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &RequestError{Status: resp.StatusCode, Message: serverMessage(data, "An error occurred")}
	}

	if out == nil {
		return nil
	}
	return json.Unmarshal(data, out)
}

// serverMessage extrait {"error": "..."} du corps, avec message de repli.
func serverMessage(data []byte, fallback string) string {
	var body struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(data, &body); err == nil && body.Error != "" {
		return body.Error
	}
	return fallback
}
