package server_test

import (
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (a *testApp) userID(t *testing.T, email string) string {
	t.Helper()
	var id string
	require.NoError(t, a.db.Get(&id, `SELECT id FROM users WHERE email = ?`, email))
	return id
}

func TestAdmin_AccessControl(t *testing.T) {
	app := newTestApp(t, nil)

	resp := app.get(t, "/admin", "")
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/account/login", resp.Header.Get("Location"))

	alice := app.login(t, "alice@petshop.test", "alice123")
	assert.Equal(t, http.StatusForbidden, app.get(t, "/admin", alice).StatusCode)
	assert.Equal(t, http.StatusForbidden, app.post(t, "/admin/pets/1/toggle-active", alice, nil).StatusCode)

	resp = app.post(t, "/account/login", "", url.Values{"email": {"admin@petshop.test"}, "password": {"admin123"}})
	require.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/admin", resp.Header.Get("Location"))
	admin := cookie(resp, "sid")

	for _, p := range []string{"/admin", "/admin/pets", "/admin/orders", "/admin/categories", "/admin/users", "/admin/statistics"} {
		assert.Equal(t, http.StatusOK, app.get(t, p, admin).StatusCode, p)
	}
}

func TestAdmin_TogglePetActiveHidesFromCatalog(t *testing.T) {
	app := newTestApp(t, nil)
	petID, _ := app.anyPet(t)
	admin := app.login(t, "admin@petshop.test", "admin123")

	resp := app.post(t, "/admin/pets/"+itoa(petID)+"/toggle-active", admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	out := decode(t, resp)
	assert.Equal(t, true, out["success"])
	assert.Equal(t, false, out["isActive"])

	assert.Equal(t, http.StatusNotFound, app.get(t, "/pets/"+itoa(petID), "").StatusCode)

	resp = app.post(t, "/admin/pets/999999/toggle-active", admin, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAdmin_SetStock(t *testing.T) {
	app := newTestApp(t, nil)
	petID, _ := app.anyPet(t)
	admin := app.login(t, "admin@petshop.test", "admin123")

	resp := app.post(t, "/admin/pets/"+itoa(petID)+"/stock", admin, url.Values{"qty": {"7"}})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 7, app.stock(t, petID))

	resp = app.post(t, "/admin/pets/"+itoa(petID)+"/stock", admin, url.Values{"qty": {"-1"}})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, 7, app.stock(t, petID))
}

func TestAdmin_OrderStatusBlocksCustomerCancel(t *testing.T) {
	app := newTestApp(t, nil)
	petID, before := app.anyPet(t)

	alice := app.login(t, "alice@petshop.test", "alice123")
	app.addToCart(t, alice, petID, "1")
	resp := app.post(t, "/orders/checkout", alice, checkoutForm())
	require.Equal(t, http.StatusFound, resp.StatusCode)
	orderPath := strings.TrimSuffix(resp.Header.Get("Location"), "?placed=1")
	orderID := strings.TrimPrefix(orderPath, "/orders/")

	admin := app.login(t, "admin@petshop.test", "admin123")
	assert.Equal(t, http.StatusOK, app.get(t, "/admin/orders/"+orderID, admin).StatusCode)

	resp = app.post(t, "/admin/orders/"+orderID+"/status", admin, url.Values{"status": {"Shipping"}})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, decode(t, resp)["success"])

	resp = app.post(t, "/admin/orders/"+orderID+"/status", admin, url.Values{"status": {"Lost"}})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = app.post(t, orderPath+"/cancel", alice, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, before-1, app.stock(t, petID))
}

func TestAdmin_Users(t *testing.T) {
	app := newTestApp(t, nil)
	admin := app.login(t, "admin@petshop.test", "admin123")
	alice := app.login(t, "alice@petshop.test", "alice123")
	aliceID := app.userID(t, "alice@petshop.test")
	adminID := app.userID(t, "admin@petshop.test")

	resp := app.get(t, "/admin/users/"+aliceID, admin)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	out := decode(t, resp)
	user, ok := out["user"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "alice@petshop.test", user["email"])
	assert.NotContains(t, user, "passwordHash")

	resp = app.post(t, "/admin/users/"+adminID+"/delete", admin, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp = app.post(t, "/admin/users/"+adminID+"/active", admin, url.Values{"active": {"false"}})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = app.post(t, "/admin/users/"+aliceID+"/active", admin, url.Values{"active": {"false"}})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = app.get(t, "/account/profile", alice)
	assert.Equal(t, http.StatusFound, resp.StatusCode, "a disabled account loses its session")
}
