package devserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qrstock_client/internal/api"
	"qrstock_client/internal/cart"
	"qrstock_client/internal/checkout"
	"qrstock_client/internal/models"
	"qrstock_client/internal/session"
	"qrstock_client/internal/store"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(New(Options{
		JWTSecret:     "test-secret",
		OwnerEmail:    "owner@example.com",
		OwnerPassword: "ownerpass123",
	}).Engine())
	t.Cleanup(srv.Close)
	return srv
}

// client assemble la pile cliente complète contre le serveur de test.
type client struct {
	gw   *api.Gateway
	sess *session.Manager
	st   store.Store
}

func newClient(t *testing.T, baseURL string) *client {
	t.Helper()
	fs, err := store.NewFileStore(t.TempDir())
	require.NoError(t, err)
	gw := api.New(baseURL)
	return &client{gw: gw, sess: session.New(fs, gw), st: fs}
}

func loginOwner(t *testing.T, c *client) {
	t.Helper()
	_, err := c.sess.Login(context.Background(), "owner@example.com", "ownerpass123")
	require.NoError(t, err)
}

func registerBuyer(t *testing.T, c *client, name, email string) {
	t.Helper()
	_, err := c.sess.Register(context.Background(), name, email, "buyerpass")
	require.NoError(t, err)
}

func createItem(t *testing.T, owner *client, name string, qty int, price float64) *models.InventoryItem {
	t.Helper()
	item, err := owner.gw.CreateItem(context.Background(), api.ItemInput{
		Name: name, Category: "Grains", Quantity: qty, Price: price,
	})
	require.NoError(t, err)
	return item
}

func TestRegisterAndLogin(t *testing.T) {
	srv := newServer(t)
	c := newClient(t, srv.URL)

	user, err := c.sess.Register(context.Background(), "Alice", "alice@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, models.RoleBuyer, user.Role)
	assert.True(t, c.sess.IsAuthenticated())
	assert.False(t, c.sess.IsOwner())

	exp, ok := c.sess.ExpiresAt()
	assert.True(t, ok)
	assert.False(t, exp.IsZero())

	// Même email : refusé.
	other := newClient(t, srv.URL)
	_, err = other.sess.Register(context.Background(), "Alice Bis", "alice@example.com", "secret2")
	var reqErr *api.RequestError
	require.True(t, errors.As(err, &reqErr))
	assert.Equal(t, 409, reqErr.Status)
	assert.Equal(t, "Email already registered", reqErr.Message)

	// Reconnexion avec le même compte.
	again := newClient(t, srv.URL)
	logged, err := again.sess.Login(context.Background(), "alice@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, user.ID, logged.ID)
}

func TestRegisterValidation(t *testing.T) {
	srv := newServer(t)
	c := newClient(t, srv.URL)
	ctx := context.Background()

	_, err := c.sess.Register(ctx, "A", "a@example.com", "secret1")
	assert.EqualError(t, err, "Name must be at least 2 characters")

	_, err = c.sess.Register(ctx, "Alice", "not-an-email", "secret1")
	assert.EqualError(t, err, "Invalid email address")

	_, err = c.sess.Register(ctx, "Alice", "alice@example.com", "short")
	assert.EqualError(t, err, "Password must be at least 6 characters")

	assert.False(t, c.sess.IsAuthenticated())
}

func TestOwnerRegistrationForbidden(t *testing.T) {
	srv := newServer(t)

	// Le client n'envoie jamais de rôle, mais une requête forgée demandant
	// "owner" doit être rejetée : le compte owner est pré-ensemencé.
	body := strings.NewReader(`{"name":"Bob","email":"bob@example.com","password":"buyerpass","role":"owner"}`)
	resp, err := http.Post(srv.URL+"/auth/register", "application/json", body)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	var payload map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	assert.Equal(t, "Owner registration is not allowed", payload["error"])
}

func TestLoginFailure(t *testing.T) {
	srv := newServer(t)
	c := newClient(t, srv.URL)

	// Mauvais mot de passe : le backend répond 401 et le gateway traite tout
	// 401 pareil, credential rejeté ou pas. Rien ne reste dans le store.
	_, err := c.sess.Login(context.Background(), "owner@example.com", "wrongpass")
	assert.True(t, errors.Is(err, api.ErrSessionExpired))
	assert.False(t, c.sess.IsAuthenticated())

	_, err = c.st.Get(store.KeyToken)
	assert.True(t, errors.Is(err, store.ErrNotFound))
}

func TestSessionRestoreAcrossRestart(t *testing.T) {
	srv := newServer(t)
	c := newClient(t, srv.URL)
	registerBuyer(t, c, "Alice", "alice@example.com")

	// Nouveau processus : même store, restauration optimiste sans round-trip.
	gw := api.New(srv.URL)
	restored := session.New(c.st, gw)
	restored.Initialize()
	require.True(t, restored.IsAuthenticated())
	assert.Equal(t, "Alice", restored.CurrentUser().Name)

	// Le jeton restauré fonctionne sur un appel réel.
	_, err := gw.Items(context.Background())
	assert.NoError(t, err)
}

func TestUnauthorizedCallClearsSession(t *testing.T) {
	srv := newServer(t)
	c := newClient(t, srv.URL)
	registerBuyer(t, c, "Alice", "alice@example.com")

	// Jeton corrompu dans le store : le prochain appel répond 401, la
	// session est purgée et l'erreur est SessionExpired.
	require.NoError(t, c.st.Set(store.KeyToken, []byte("not-a-jwt")))
	gw := api.New(srv.URL)
	sess := session.New(c.st, gw)
	sess.Initialize()
	require.True(t, sess.IsAuthenticated())

	_, err := gw.Items(context.Background())
	assert.True(t, errors.Is(err, api.ErrSessionExpired))
	assert.False(t, sess.IsAuthenticated())

	_, err = c.st.Get(store.KeyToken)
	assert.True(t, errors.Is(err, store.ErrNotFound))
}

func TestItemCRUDAndPermissions(t *testing.T) {
	srv := newServer(t)
	owner := newClient(t, srv.URL)
	loginOwner(t, owner)
	ctx := context.Background()

	item := createItem(t, owner, "Basmati Rice", 45, 60)
	assert.True(t, strings.HasPrefix(item.QRCode, "INV-"))
	assert.Len(t, item.QRCode, 16)
	assert.False(t, item.LowStock)

	// Mise à jour partielle.
	qty := 5
	updated, err := owner.gw.UpdateItem(ctx, item.ID, api.ItemUpdate{Quantity: &qty})
	require.NoError(t, err)
	assert.Equal(t, 5, updated.Quantity)
	assert.True(t, updated.LowStock)
	assert.Equal(t, "Basmati Rice", updated.Name)

	// Un acheteur lit mais n'écrit pas.
	buyer := newClient(t, srv.URL)
	registerBuyer(t, buyer, "Alice", "alice@example.com")

	items, err := buyer.gw.Items(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)

	_, err = buyer.gw.CreateItem(ctx, api.ItemInput{Name: "Salt", Category: "Spices", Quantity: 3, Price: 2})
	assert.True(t, errors.Is(err, api.ErrPermissionDenied))
	assert.True(t, buyer.sess.IsAuthenticated(), "403 ne doit pas toucher la session")

	// Suppression.
	require.NoError(t, owner.gw.DeleteItem(ctx, item.ID))
	_, err = owner.gw.Item(ctx, item.ID)
	var reqErr *api.RequestError
	require.True(t, errors.As(err, &reqErr))
	assert.Equal(t, "Item not found", reqErr.Message)
}

func TestItemListingIsDeterministic(t *testing.T) {
	srv := newServer(t)
	owner := newClient(t, srv.URL)
	loginOwner(t, owner)
	ctx := context.Background()

	// Créés dans la même seconde : l'horodatage seul ne suffit pas à les
	// ordonner, la liste doit quand même être stable d'un appel à l'autre.
	for i := 0; i < 8; i++ {
		createItem(t, owner, fmt.Sprintf("Item %d", i), 20, 5)
	}

	first, err := owner.gw.Items(ctx)
	require.NoError(t, err)
	require.Len(t, first, 8)

	for i := 0; i < 5; i++ {
		again, err := owner.gw.Items(ctx)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestQRLookups(t *testing.T) {
	srv := newServer(t)
	owner := newClient(t, srv.URL)
	loginOwner(t, owner)
	ctx := context.Background()

	item := createItem(t, owner, "Basmati Rice", 45, 60)

	// Variante authentifiée : détails complets.
	full, err := owner.gw.ItemByQR(ctx, item.QRCode)
	require.NoError(t, err)
	assert.Equal(t, item.ID, full.ID)
	assert.Equal(t, owner.sess.CurrentUser().ID, full.CreatedBy)

	// Variante publique : sans session, champs réduits.
	anon := api.New(srv.URL)
	info, err := anon.PublicItemByQRToken(ctx, item.QRCode)
	require.NoError(t, err)
	assert.Equal(t, item.ID, info.ID)
	assert.True(t, info.InStock)

	_, err = anon.PublicItemByQRToken(ctx, "INV-000000000000")
	var reqErr *api.RequestError
	require.True(t, errors.As(err, &reqErr))
	assert.Equal(t, "Item not found", reqErr.Message)

	// Image QR en data-URI.
	img, err := owner.gw.QRImage(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, item.QRCode, img.QRCode)
	assert.True(t, strings.HasPrefix(img.QRImage, "data:image/png;base64,"))
}

func TestPublicLookupRateLimit(t *testing.T) {
	srv := newServer(t)
	anon := api.New(srv.URL)
	ctx := context.Background()

	// On épuise la fenêtre ; même les 404 comptent.
	var err error
	for i := 0; i < publicLookupLimit; i++ {
		_, err = anon.PublicItemByQRToken(ctx, "INV-000000000000")
		require.False(t, errors.Is(err, api.ErrRateLimited))
	}

	_, err = anon.PublicItemByQRToken(ctx, "INV-000000000000")
	assert.True(t, errors.Is(err, api.ErrRateLimited))
	assert.EqualError(t, err, "Too many requests. Please wait a moment and try again.")
}

func TestCheckoutEndToEnd(t *testing.T) {
	srv := newServer(t)
	owner := newClient(t, srv.URL)
	loginOwner(t, owner)
	ctx := context.Background()

	riceItem := createItem(t, owner, "Basmati Rice", 45, 60)
	saltItem := createItem(t, owner, "Salt", 20, 2.5)

	buyer := newClient(t, srv.URL)
	registerBuyer(t, buyer, "Alice", "alice@example.com")

	basket := cart.New(buyer.st)
	require.NoError(t, basket.AddItem(cart.ProductFromItem(*riceItem), 2))
	require.NoError(t, basket.AddItem(cart.ProductFromItem(*saltItem), 4))

	flow := checkout.New(basket, buyer.gw)
	order, err := flow.Checkout(ctx)
	require.NoError(t, err)

	// Totaux serveur, panier vidé, flow confirmé.
	assert.InDelta(t, 60*2+2.5*4, order.TotalAmount, 1e-9)
	assert.Equal(t, models.OrderStatusCompleted, order.Status)
	assert.Equal(t, "Alice", order.BuyerName)
	assert.Empty(t, basket.Lines())
	assert.Equal(t, checkout.StatusConfirmed, flow.Status())

	// Le stock a été déduit côté serveur.
	after, err := buyer.gw.Item(ctx, riceItem.ID)
	require.NoError(t, err)
	assert.Equal(t, 43, after.Quantity)

	// La commande apparaît pour l'acheteur et pour l'owner.
	mine, err := buyer.gw.Orders(ctx)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, order.ID, mine[0].ID)

	all, err := owner.gw.Orders(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestCheckoutInsufficientStock(t *testing.T) {
	srv := newServer(t)
	owner := newClient(t, srv.URL)
	loginOwner(t, owner)
	ctx := context.Background()

	item := createItem(t, owner, "Basmati Rice", 5, 60)

	buyer := newClient(t, srv.URL)
	registerBuyer(t, buyer, "Alice", "alice@example.com")

	basket := cart.New(buyer.st)
	require.NoError(t, basket.AddItem(cart.ProductFromItem(*item), 5))

	// Le stock bouge entre l'ajout au panier et la commande : le serveur
	// reste l'arbitre final.
	qty := 2
	_, err := owner.gw.UpdateItem(ctx, item.ID, api.ItemUpdate{Quantity: &qty})
	require.NoError(t, err)

	flow := checkout.New(basket, buyer.gw)
	_, err = flow.Checkout(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Insufficient stock for Basmati Rice")
	assert.Equal(t, checkout.StatusFailed, flow.Status())

	// Panier intact après l'échec.
	lines := basket.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, 5, lines[0].Quantity)
}

func TestOwnerCannotPlaceOrders(t *testing.T) {
	srv := newServer(t)
	owner := newClient(t, srv.URL)
	loginOwner(t, owner)

	_, err := owner.gw.CreateOrder(context.Background(), []models.OrderItemRequest{{ProductID: "x", Quantity: 1}})
	assert.True(t, errors.Is(err, api.ErrPermissionDenied))
}

func TestOrderAccessAndStatus(t *testing.T) {
	srv := newServer(t)
	owner := newClient(t, srv.URL)
	loginOwner(t, owner)
	ctx := context.Background()

	item := createItem(t, owner, "Basmati Rice", 45, 60)

	buyer := newClient(t, srv.URL)
	registerBuyer(t, buyer, "Alice", "alice@example.com")
	order, err := buyer.gw.CreateOrder(ctx, []models.OrderItemRequest{{ProductID: item.ID, Quantity: 1}})
	require.NoError(t, err)

	// Un autre acheteur ne voit pas cette commande.
	stranger := newClient(t, srv.URL)
	registerBuyer(t, stranger, "Mallory", "mallory@example.com")
	_, err = stranger.gw.Order(ctx, order.ID)
	var reqErr *api.RequestError
	require.True(t, errors.As(err, &reqErr))
	assert.Equal(t, "Order not found", reqErr.Message)

	// Seul l'owner change le statut.
	_, err = buyer.gw.UpdateOrderStatus(ctx, order.ID, models.OrderStatusCancelled)
	assert.True(t, errors.Is(err, api.ErrPermissionDenied))

	updated, err := owner.gw.UpdateOrderStatus(ctx, order.ID, models.OrderStatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCancelled, updated.Status)

	_, err = owner.gw.UpdateOrderStatus(ctx, order.ID, "shipped")
	require.True(t, errors.As(err, &reqErr))
	assert.Equal(t, "Invalid status. Must be: pending, completed, or cancelled", reqErr.Message)
}
