package session

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qrstock_client/internal/api"
	"qrstock_client/internal/models"
	"qrstock_client/internal/store"
)

func newStore(t *testing.T) store.Store {
	t.Helper()
	fs, err := store.NewFileStore(t.TempDir())
	require.NoError(t, err)
	return fs
}

// fakeAuthServer répond aux routes /auth/* avec un utilisateur fixe.
func fakeAuthServer(t *testing.T, token string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/login", "/auth/register":
			json.NewEncoder(w).Encode(map[string]any{
				"message": "ok",
				"user":    models.User{ID: "u1", Name: "Alice", Email: "alice@example.com", Role: models.RoleBuyer},
				"token":   token,
			})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	claims := jwt.MapClaims{"user_id": "u1", "exp": exp.Unix(), "iat": time.Now().Unix()}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	require.NoError(t, err)
	return s
}

func TestLoginPersistsCredentialAndIdentity(t *testing.T) {
	srv := fakeAuthServer(t, "tok-1")
	st := newStore(t)
	m := New(st, api.New(srv.URL))

	user, err := m.Login(context.Background(), "alice@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "Alice", user.Name)
	assert.True(t, m.IsAuthenticated())
	assert.False(t, m.IsOwner())
	assert.Equal(t, "tok-1", m.Token())

	raw, err := st.Get(store.KeyToken)
	require.NoError(t, err)
	assert.Equal(t, "tok-1", string(raw))

	raw, err = st.Get(store.KeyUser)
	require.NoError(t, err)
	var stored models.User
	require.NoError(t, json.Unmarshal(raw, &stored))
	assert.Equal(t, "u1", stored.ID)
}

func TestInitialize_OptimisticRestore(t *testing.T) {
	st := newStore(t)
	require.NoError(t, st.Set(store.KeyToken, []byte("stored-token")))
	user, _ := json.Marshal(models.User{ID: "u1", Name: "Alice", Role: models.RoleOwner})
	require.NoError(t, st.Set(store.KeyUser, user))

	// Aucun serveur : la restauration ne fait pas de round-trip.
	m := New(st, api.New("http://127.0.0.1:0"))
	m.Initialize()

	assert.True(t, m.IsAuthenticated())
	assert.True(t, m.IsOwner())
	assert.Equal(t, "stored-token", m.Token())
}

func TestInitialize_MissingPieces(t *testing.T) {
	// Jeton sans identité : pas de session.
	st := newStore(t)
	require.NoError(t, st.Set(store.KeyToken, []byte("tok")))
	m := New(st, api.New("http://127.0.0.1:0"))
	m.Initialize()
	assert.False(t, m.IsAuthenticated())

	// Identité sans jeton : pas de session non plus.
	st2 := newStore(t)
	user, _ := json.Marshal(models.User{ID: "u1", Name: "Alice"})
	require.NoError(t, st2.Set(store.KeyUser, user))
	m2 := New(st2, api.New("http://127.0.0.1:0"))
	m2.Initialize()
	assert.False(t, m2.IsAuthenticated())
}

func TestInitialize_CorruptIdentityIsEmptySession(t *testing.T) {
	st := newStore(t)
	require.NoError(t, st.Set(store.KeyToken, []byte("tok")))
	require.NoError(t, st.Set(store.KeyUser, []byte("{broken")))

	m := New(st, api.New("http://127.0.0.1:0"))
	m.Initialize()
	assert.False(t, m.IsAuthenticated())
	assert.Nil(t, m.CurrentUser())
}

// failingStore refuse l'écriture d'une clé donnée.
type failingStore struct {
	store.Store
	failKey string
}

func (f *failingStore) Set(key string, value []byte) error {
	if key == f.failKey {
		return errors.New("disk full")
	}
	return f.Store.Set(key, value)
}

func TestLoginIdentityWriteFailureLeavesNoDanglingToken(t *testing.T) {
	srv := fakeAuthServer(t, "tok-1")
	inner := newStore(t)
	st := &failingStore{Store: inner, failKey: store.KeyUser}
	m := New(st, api.New(srv.URL))

	_, err := m.Login(context.Background(), "alice@example.com", "secret1")
	require.Error(t, err)
	assert.False(t, m.IsAuthenticated())

	// Le jeton déjà écrit est retiré : pas de credential orphelin.
	_, err = inner.Get(store.KeyToken)
	assert.True(t, errors.Is(err, store.ErrNotFound))
}

func TestLogoutClearsEverything(t *testing.T) {
	srv := fakeAuthServer(t, "tok-1")
	st := newStore(t)
	m := New(st, api.New(srv.URL))
	_, err := m.Login(context.Background(), "alice@example.com", "secret1")
	require.NoError(t, err)

	m.Logout()

	assert.False(t, m.IsAuthenticated())
	assert.Empty(t, m.Token())
	_, err = st.Get(store.KeyToken)
	assert.True(t, errors.Is(err, store.ErrNotFound))
	_, err = st.Get(store.KeyUser)
	assert.True(t, errors.Is(err, store.ErrNotFound))
}

func TestGatewayPurgesSessionOn401(t *testing.T) {
	st := newStore(t)

	// Un serveur qui accepte le login puis répond 401 sur tout le reste.
	rejecting := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/login":
			json.NewEncoder(w).Encode(map[string]any{
				"user":  models.User{ID: "u1", Name: "Alice", Role: models.RoleBuyer},
				"token": "tok-1",
			})
		default:
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"error": "Token has expired"})
		}
	}))
	defer rejecting.Close()

	gw := api.New(rejecting.URL)
	m := New(st, gw)
	_, err := m.Login(context.Background(), "alice@example.com", "secret1")
	require.NoError(t, err)
	require.True(t, m.IsAuthenticated())

	_, err = gw.Items(context.Background())
	assert.True(t, errors.Is(err, api.ErrSessionExpired))
	assert.False(t, m.IsAuthenticated())
}

func TestExpiresAt(t *testing.T) {
	exp := time.Now().Add(2 * time.Hour).Truncate(time.Second)
	srv := fakeAuthServer(t, signedToken(t, exp))
	m := New(newStore(t), api.New(srv.URL))
	_, err := m.Login(context.Background(), "alice@example.com", "secret1")
	require.NoError(t, err)

	got, ok := m.ExpiresAt()
	require.True(t, ok)
	assert.True(t, got.Equal(exp))
}

func TestExpiresAt_OpaqueToken(t *testing.T) {
	srv := fakeAuthServer(t, "not-a-jwt")
	m := New(newStore(t), api.New(srv.URL))
	_, err := m.Login(context.Background(), "alice@example.com", "secret1")
	require.NoError(t, err)

	_, ok := m.ExpiresAt()
	assert.False(t, ok)
}
