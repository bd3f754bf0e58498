package router

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sokosnap/internal/authz"
	"github.com/sokosnap/internal/config"
	"github.com/sokosnap/internal/constants"
	"github.com/sokosnap/internal/logger"
	"github.com/sokosnap/internal/models"
	"github.com/sokosnap/internal/provider"
	"github.com/sokosnap/internal/queue"
	"github.com/sokosnap/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type envelope struct {
	StatusCode int             `json:"status_code"`
	Msg        string          `json:"msg"`
	Data       json.RawMessage `json:"data"`
}

type routerFixture struct {
	engine    *gin.Engine
	container *provider.Container
	product   *models.Product
}

func setupRouterTest(t *testing.T) *routerFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger.L = zap.NewNop()

	dsn := fmt.Sprintf("file:router_%s_%d?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"), time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := models.Migrate(db); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
	queueClient, _ := queue.NewClient(nil)
	cfg := config.Default()
	cfg.JWT.SecretKey = "router-test-secret"
	c := provider.NewContainerWithDB(cfg, db, queueClient)

	product, err := c.ProductService.Create(context.Background(), service.CreateProductInput{
		SellerID:   "s1",
		SellerName: "Nairobi Crafts",
		Name:       "Maasai Shuka",
		Price:      1500,
		MediaURL:   "https://cdn.example.com/shuka.jpg",
	})
	if err != nil {
		t.Fatalf("seed product failed: %v", err)
	}
	return &routerFixture{engine: SetupRouter(cfg, c), container: c, product: product}
}

func (f *routerFixture) token(t *testing.T, userID, role string) string {
	t.Helper()
	token, _, err := f.container.AuthService.GenerateJWT(service.Identity{UserID: userID, Name: userID, Role: role})
	if err != nil {
		t.Fatalf("generate token failed: %v", err)
	}
	return token
}

func (f *routerFixture) do(t *testing.T, method, path string, body interface{}, headers map[string]string) (envelope, *httptest.ResponseRecorder) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body failed: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}
	w := httptest.NewRecorder()
	f.engine.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("%s %s http status want 200 got %d", method, path, w.Code)
	}
	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope failed: %v (%s)", err, w.Body.String())
	}
	return env, w
}

func bearer(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

func TestHealthRoute(t *testing.T) {
	f := setupRouterTest(t)
	env, _ := f.do(t, http.MethodGet, "/health", nil, nil)
	if env.StatusCode != 0 {
		t.Fatalf("health status_code want 0 got %d", env.StatusCode)
	}
}

func TestFeedAndProductRoutes(t *testing.T) {
	f := setupRouterTest(t)

	env, _ := f.do(t, http.MethodGet, "/api/v1/public/feed?deeplink="+f.product.Slug, nil, nil)
	var feed struct {
		Items []models.Product `json:"items"`
	}
	if err := json.Unmarshal(env.Data, &feed); err != nil {
		t.Fatalf("decode feed failed: %v", err)
	}
	if len(feed.Items) != 1 || feed.Items[0].ID != f.product.ID {
		t.Fatalf("unexpected feed: %+v", feed.Items)
	}

	env, _ = f.do(t, http.MethodGet, "/api/v1/public/products/"+f.product.Slug, nil, nil)
	if env.StatusCode != 0 {
		t.Fatalf("product by slug want 0 got %d (%s)", env.StatusCode, env.Msg)
	}
	env, _ = f.do(t, http.MethodGet, "/api/v1/public/products/missing", nil, nil)
	if env.StatusCode != 404 {
		t.Fatalf("missing product want 404 got %d", env.StatusCode)
	}

	env, _ = f.do(t, http.MethodPost, "/api/v1/public/products/"+f.product.ID+"/like", gin.H{"liked": false, "likes": 0}, nil)
	var like service.LikeState
	if err := json.Unmarshal(env.Data, &like); err != nil {
		t.Fatalf("decode like failed: %v", err)
	}
	if !like.Liked || like.Count != 1 {
		t.Fatalf("like toggle want liked=1 got %+v", like)
	}

	env, _ = f.do(t, http.MethodGet, "/api/v1/public/delivery/quote?courier=express&location=Kilimani", nil, nil)
	var quote struct {
		Fee int64 `json:"fee"`
	}
	if err := json.Unmarshal(env.Data, &quote); err != nil {
		t.Fatalf("decode quote failed: %v", err)
	}
	if quote.Fee != 300 {
		t.Fatalf("express quote want 300 got %d", quote.Fee)
	}
	env, _ = f.do(t, http.MethodGet, "/api/v1/public/delivery/quote?courier=drone&location=Kilimani", nil, nil)
	if env.StatusCode != 400 {
		t.Fatalf("unknown courier want 400 got %d", env.StatusCode)
	}
}

func TestGuestCartIssuesToken(t *testing.T) {
	f := setupRouterTest(t)

	env, w := f.do(t, http.MethodPost, "/api/v1/cart/items", gin.H{"product_id": f.product.ID, "quantity": 2}, nil)
	if env.StatusCode != 0 {
		t.Fatalf("add to cart want 0 got %d (%s)", env.StatusCode, env.Msg)
	}
	token := w.Header().Get(constants.CartTokenHeader)
	if token == "" {
		t.Fatalf("guest add should issue a cart token")
	}

	env, _ = f.do(t, http.MethodGet, "/api/v1/cart", nil, map[string]string{constants.CartTokenHeader: token})
	var cart service.CartView
	if err := json.Unmarshal(env.Data, &cart); err != nil {
		t.Fatalf("decode cart failed: %v", err)
	}
	if len(cart.Lines) != 1 || cart.Lines[0].Quantity != 2 {
		t.Fatalf("unexpected cart: %+v", cart)
	}

	env, _ = f.do(t, http.MethodGet, "/api/v1/cart", nil, nil)
	if err := json.Unmarshal(env.Data, &cart); err != nil {
		t.Fatalf("decode cart failed: %v", err)
	}
	if len(cart.Lines) != 0 {
		t.Fatalf("request without token must not see the guest cart")
	}
}

func TestBuyNowCheckoutAndOrderHistory(t *testing.T) {
	f := setupRouterTest(t)
	buyer := bearer(f.token(t, "u1", constants.RoleBuyer))

	env, _ := f.do(t, http.MethodPost, "/api/v1/checkout/sessions", gin.H{"product_id": f.product.ID, "courier": "standard"}, buyer)
	var view service.CheckoutView
	if err := json.Unmarshal(env.Data, &view); err != nil || view.ID == "" {
		t.Fatalf("open checkout failed: %v (%s)", err, env.Msg)
	}
	base := "/api/v1/checkout/sessions/" + view.ID

	env, _ = f.do(t, http.MethodPost, base+"/submit", nil, buyer)
	if env.StatusCode != 400 {
		t.Fatalf("empty form submit want 400 got %d", env.StatusCode)
	}

	env, _ = f.do(t, http.MethodPatch, base, gin.H{"phone": "0712 345 678", "location": "Westlands, Nairobi"}, buyer)
	if env.StatusCode != 0 {
		t.Fatalf("edit want 0 got %d (%s)", env.StatusCode, env.Msg)
	}

	env, _ = f.do(t, http.MethodGet, base, nil, bearer(f.token(t, "u2", constants.RoleBuyer)))
	if env.StatusCode != 404 {
		t.Fatalf("foreign buyer must not see the session, got %d", env.StatusCode)
	}

	env, _ = f.do(t, http.MethodPost, base+"/submit", nil, buyer)
	if err := json.Unmarshal(env.Data, &view); err != nil {
		t.Fatalf("decode submit failed: %v", err)
	}
	if env.StatusCode != 0 || view.State != service.CheckoutStateConfirmed || len(view.ReleaseCode) != 4 || view.OrderID == "" {
		t.Fatalf("unexpected submit result: code=%d view=%+v", env.StatusCode, view)
	}
	if view.Total.Int64() != 1650 {
		t.Fatalf("total want 1650 got %d", view.Total.Int64())
	}

	env, _ = f.do(t, http.MethodPost, base+"/submit", nil, buyer)
	if env.StatusCode != 409 {
		t.Fatalf("second submit want 409 got %d", env.StatusCode)
	}

	var history struct {
		Items []models.Order `json:"items"`
	}
	env, _ = f.do(t, http.MethodGet, "/api/v1/orders?phase=ongoing", nil, buyer)
	if err := json.Unmarshal(env.Data, &history); err != nil {
		t.Fatalf("decode history failed: %v", err)
	}
	if len(history.Items) != 1 || history.Items[0].ID != view.OrderID {
		t.Fatalf("ongoing history want the new order, got %+v", history.Items)
	}
	env, _ = f.do(t, http.MethodGet, "/api/v1/orders?phase=completed", nil, buyer)
	if err := json.Unmarshal(env.Data, &history); err != nil {
		t.Fatalf("decode history failed: %v", err)
	}
	if len(history.Items) != 0 {
		t.Fatalf("completed history should be empty, got %d", len(history.Items))
	}
	env, _ = f.do(t, http.MethodGet, "/api/v1/orders?phase=later", nil, buyer)
	if env.StatusCode != 400 {
		t.Fatalf("unknown phase want 400 got %d", env.StatusCode)
	}

	env, _ = f.do(t, http.MethodGet, "/api/v1/orders/"+view.OrderID, nil, bearer(f.token(t, "s1", constants.RoleSeller)))
	if env.StatusCode != 0 {
		t.Fatalf("owning seller should see the order, got %d", env.StatusCode)
	}
	env, _ = f.do(t, http.MethodGet, "/api/v1/orders/"+view.OrderID, nil, bearer(f.token(t, "u2", constants.RoleBuyer)))
	if env.StatusCode != 404 {
		t.Fatalf("foreign buyer want 404 got %d", env.StatusCode)
	}
}

func TestOrderEventsRequireRole(t *testing.T) {
	f := setupRouterTest(t)

	env, _ := f.do(t, http.MethodPost, "/api/v1/orders/any/events", gin.H{"status": "escrow_held"}, nil)
	if env.StatusCode != 401 {
		t.Fatalf("anonymous event want 401 got %d", env.StatusCode)
	}
	env, _ = f.do(t, http.MethodPost, "/api/v1/orders/any/events", gin.H{"status": "escrow_held"}, bearer(f.token(t, "u1", constants.RoleBuyer)))
	if env.StatusCode != 403 {
		t.Fatalf("buyer event want 403 got %d", env.StatusCode)
	}
	env, _ = f.do(t, http.MethodPost, "/api/v1/orders/any/events", gin.H{"status": "escrow_held"}, bearer(f.token(t, "ops", constants.RoleSupport)))
	if env.StatusCode != 404 {
		t.Fatalf("support event on a missing order want 404 got %d", env.StatusCode)
	}
}

func TestSellerPublishAndArchive(t *testing.T) {
	f := setupRouterTest(t)
	seller := bearer(f.token(t, "s2", constants.RoleSeller))

	env, _ := f.do(t, http.MethodPost, "/api/v1/seller/products", gin.H{
		"name":      "Kiondo Basket",
		"price":     2400,
		"media_url": "https://cdn.example.com/kiondo.mp4",
	}, seller)
	var product models.Product
	if err := json.Unmarshal(env.Data, &product); err != nil || product.ID == "" {
		t.Fatalf("publish failed: code=%d msg=%s err=%v", env.StatusCode, env.Msg, err)
	}
	if product.SellerID != "s2" || product.Type != constants.MediaTypeVideo {
		t.Fatalf("unexpected product: %+v", product)
	}

	env, _ = f.do(t, http.MethodPost, "/api/v1/seller/products", gin.H{"name": "Free", "price": 0, "media_url": "x.jpg"}, seller)
	if env.StatusCode != 400 {
		t.Fatalf("zero price want 400 got %d", env.StatusCode)
	}

	env, _ = f.do(t, http.MethodPost, "/api/v1/seller/products/"+f.product.ID+"/archive", nil, seller)
	if env.StatusCode != 403 {
		t.Fatalf("archiving another seller's product want 403 got %d", env.StatusCode)
	}
	env, _ = f.do(t, http.MethodPost, "/api/v1/seller/products/"+product.ID+"/archive", nil, seller)
	if env.StatusCode != 0 {
		t.Fatalf("archive own product want 0 got %d (%s)", env.StatusCode, env.Msg)
	}

	env, _ = f.do(t, http.MethodGet, "/api/v1/seller/products", nil, seller)
	if env.StatusCode != 0 {
		t.Fatalf("list seller products want 0 got %d", env.StatusCode)
	}

	env, _ = f.do(t, http.MethodPost, "/api/v1/seller/products", gin.H{"name": "X", "price": 10, "media_url": "x.jpg"}, bearer(f.token(t, "u1", constants.RoleBuyer)))
	if env.StatusCode != 403 {
		t.Fatalf("buyer publishing want 403 got %d", env.StatusCode)
	}
}

func TestPermissionCatalogCoveredBySupport(t *testing.T) {
	f := setupRouterTest(t)
	items := buildPermissionCatalog(f.engine)
	if len(items) != 7 {
		t.Fatalf("protected route count want 7 got %d: %+v", len(items), items)
	}
	for _, item := range items {
		allowed, err := f.container.AuthzService.EnforceRole(constants.RoleSupport, item.Object, item.Method)
		if err != nil {
			t.Fatalf("enforce %s failed: %v", item.Permission, err)
		}
		if !allowed {
			t.Fatalf("support should reach %s", item.Permission)
		}
	}
}

func TestSupportPermissionsEndpoint(t *testing.T) {
	f := setupRouterTest(t)
	env, _ := f.do(t, http.MethodGet, "/api/v1/support/permissions", nil, bearer(f.token(t, "desk-1", constants.RoleSupport)))
	if env.StatusCode != 0 {
		t.Fatalf("support permissions want 0 got %d (%s)", env.StatusCode, env.Msg)
	}
	var data struct {
		Routes []permissionCatalogItem   `json:"routes"`
		Roles  map[string][]authz.Policy `json:"roles"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("decode permissions failed: %v", err)
	}
	if len(data.Routes) != 7 || len(data.Roles["seller"]) != 3 {
		t.Fatalf("unexpected catalog: routes=%d roles=%+v", len(data.Routes), data.Roles)
	}

	env, _ = f.do(t, http.MethodGet, "/api/v1/support/permissions", nil, bearer(f.token(t, "s1", constants.RoleSeller)))
	if env.StatusCode != 403 {
		t.Fatalf("seller permissions want 403 got %d", env.StatusCode)
	}
}
