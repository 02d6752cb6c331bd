package session

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"qrstock_client/internal/api"
	"qrstock_client/internal/models"
	"qrstock_client/internal/store"
)

// Manager détient l'identité authentifiée et le jeton bearer. L'état est
// injecté par constructeur (pas de globals) ; le cycle de vie est explicite :
// Initialize au démarrage, Logout ou rejet du jeton (401) pour détruire.
type Manager struct {
	mu    sync.RWMutex
	st    store.Store
	gw    *api.Gateway
	user  *models.User
	token string
}

// New construit le manager et branche le gateway dessus : source de jeton et
// purge de session sur 401.
func New(st store.Store, gw *api.Gateway) *Manager {
	m := &Manager{st: st, gw: gw}
	gw.Bind(m.Token, m.ForceLogout)
	return m
}

// Initialize restaure la session depuis le store sans revalider le jeton
// auprès du serveur (restauration optimiste : un jeton révoqué ne sera
// découvert qu'au premier appel qui répond 401). Un état local corrompu est
// traité comme absence de session, jamais comme une erreur fatale.
func (m *Manager) Initialize() {
	token, err := m.st.Get(store.KeyToken)
	if err != nil || len(token) == 0 {
		return
	}
	raw, err := m.st.Get(store.KeyUser)
	if err != nil {
		return
	}
	var user models.User
	if err := json.Unmarshal(raw, &user); err != nil || user.ID == "" {
		return
	}

	m.mu.Lock()
	m.token = string(token)
	m.user = &user
	m.mu.Unlock()
}

func (m *Manager) Login(ctx context.Context, email, password string) (*models.User, error) {
	sess, err := m.gw.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	if err := m.adopt(sess); err != nil {
		return nil, err
	}
	return &sess.User, nil
}

// Register crée un compte acheteur puis ouvre la session directement.
func (m *Manager) Register(ctx context.Context, name, email, password string) (*models.User, error) {
	sess, err := m.gw.Register(ctx, name, email, password)
	if err != nil {
		return nil, err
	}
	if err := m.adopt(sess); err != nil {
		return nil, err
	}
	return &sess.User, nil
}

// adopt persiste le jeton et l'identité puis rend la session vivante.
func (m *Manager) adopt(sess *models.Session) error {
	raw, err := json.Marshal(sess.User)
	if err != nil {
		return err
	}
	if err := m.st.Set(store.KeyToken, []byte(sess.Token)); err != nil {
		return err
	}
	if err := m.st.Set(store.KeyUser, raw); err != nil {
		// Un jeton sans identité ne doit pas traîner dans le store.
		_ = m.st.Delete(store.KeyToken)
		return err
	}

	m.mu.Lock()
	m.token = sess.Token
	user := sess.User
	m.user = &user
	m.mu.Unlock()
	return nil
}

// Logout détruit la session : état mémoire et store. Le retour à l'écran de
// connexion est l'affaire de l'appelant.
func (m *Manager) Logout() {
	m.ForceLogout()
}

// ForceLogout est appelé par le gateway quand un appel répond 401.
func (m *Manager) ForceLogout() {
	m.mu.Lock()
	m.token = ""
	m.user = nil
	m.mu.Unlock()

	_ = m.st.Delete(store.KeyToken)
	_ = m.st.Delete(store.KeyUser)
}

func (m *Manager) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token
}

// CurrentUser retourne une copie de l'identité, ou nil hors session.
func (m *Manager) CurrentUser() *models.User {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.user == nil {
		return nil
	}
	u := *m.user
	return &u
}

func (m *Manager) IsAuthenticated() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.user != nil && m.token != ""
}

// IsOwner ne protège que l'affichage : l'autorisation réelle est côté serveur.
func (m *Manager) IsOwner() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.user != nil && m.user.Role == models.RoleOwner
}

// ExpiresAt lit la claim exp du jeton sans vérifier la signature, pour
// affichage uniquement. La restauration de session ne s'en sert pas.
func (m *Manager) ExpiresAt() (time.Time, bool) {
	m.mu.RLock()
	token := m.token
	m.mu.RUnlock()
	if token == "" {
		return time.Time{}, false
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}
