package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"storefront/internal/auth"
	"storefront/internal/cache"
	"storefront/internal/cart"
	"storefront/internal/catalog"
	"storefront/internal/checkout"
	"storefront/internal/models"
	"storefront/internal/payment"
	"storefront/internal/seed"
	"storefront/internal/storefront"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
)

type stubAuthorizer struct {
	err error
}

func (s *stubAuthorizer) Authorize(ctx context.Context, req payment.Request) (payment.Authorization, error) {
	if s.err != nil {
		return payment.Authorization{}, s.err
	}
	return payment.Authorization{ID: "auth", Reference: req.Reference, Amount: req.Amount}, nil
}

type testServer struct {
	mux        *http.ServeMux
	engine     *storefront.Engine
	authorizer *stubAuthorizer
	token      string
}

func newTestServer(t *testing.T, opts Options) *testServer {
	t.Helper()
	data, err := seed.Default()
	require.NoError(t, err)

	repo, err := catalog.NewRepository(data.Products)
	require.NoError(t, err)
	session := auth.NewStore(auth.NewRegistry(data.Users), auth.NewMemoryRecordStore())
	authorizer := &stubAuthorizer{}
	engine := storefront.New(repo, cart.NewStore(repo), session, checkout.DefaultPricing(), authorizer)

	tokens := auth.NewTokenIssuer("test-secret", time.Hour)
	mux := http.NewServeMux()
	NewHandler(engine, tokens, opts).Register(mux, auth.NewMiddleware(tokens, session))

	return &testServer{mux: mux, engine: engine, authorizer: authorizer}
}

func (s *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
	rec := httptest.NewRecorder()
	s.mux.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) login(t *testing.T) {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/login", map[string]string{"email": "john@example.com", "password": "password123"})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp models.SessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.True(t, resp.Authenticated)
	require.NotEmpty(t, resp.Token)
	s.token = resp.Token
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestCatalogRoutes(t *testing.T) {
	s := newTestServer(t, Options{ArrivalsSeed: 1})

	t.Run("ListFiltersAndSorts", func(t *testing.T) {
		rec := s.do(t, http.MethodGet, "/api/products?category=lighting&sort=price-desc", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		products := decode[[]models.Product](t, rec)
		require.NotEmpty(t, products)
		for i, p := range products {
			require.Equal(t, "lighting", p.Category)
			if i > 0 {
				require.GreaterOrEqual(t, products[i-1].Price, p.Price)
			}
		}
	})

	t.Run("RejectsBadQuery", func(t *testing.T) {
		rec := s.do(t, http.MethodGet, "/api/products?sort=cheapest", nil)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Equal(t, "sort", decode[errorBody](t, rec).Field)
	})

	t.Run("GetProduct", func(t *testing.T) {
		rec := s.do(t, http.MethodGet, "/api/products/1", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, 1, decode[models.Product](t, rec).ID)

		require.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/api/products/999", nil).Code)
		require.Equal(t, http.StatusBadRequest, s.do(t, http.MethodGet, "/api/products/lamp", nil).Code)
	})

	t.Run("Recommendations", func(t *testing.T) {
		rec := s.do(t, http.MethodGet, "/api/products/1/recommendations?limit=2", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		require.Len(t, decode[[]models.Product](t, rec), 2)
	})

	t.Run("Categories", func(t *testing.T) {
		rec := s.do(t, http.MethodGet, "/api/categories", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		require.Contains(t, decode[[]string](t, rec), "lighting")
	})

	t.Run("NewArrivalsAreReproducible", func(t *testing.T) {
		a := decode[[]models.Product](t, s.do(t, http.MethodGet, "/api/new-arrivals?limit=3&seed=9", nil))
		b := decode[[]models.Product](t, s.do(t, http.MethodGet, "/api/new-arrivals?limit=3&seed=9", nil))
		require.Len(t, a, 3)
		require.Equal(t, a, b)
	})
}

func TestCartRoutes(t *testing.T) {
	s := newTestServer(t, Options{})

	rec := s.do(t, http.MethodPost, "/api/cart/items", map[string]int{"productId": 1, "quantity": 2})
	require.Equal(t, http.StatusOK, rec.Code)
	summary := decode[models.CartSummary](t, rec)
	require.Equal(t, 2, summary.LineCount)

	rec = s.do(t, http.MethodPost, "/api/cart/items", map[string]int{"productId": 1, "quantity": 1000})
	require.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/cart/items", map[string]int{"productId": 1, "quantity": 0})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/cart/items", map[string]int{"productId": 999})
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodPatch, "/api/cart/items/1", map[string]int{"quantity": 5})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 5, decode[models.CartSummary](t, rec).LineCount)

	rec = s.do(t, http.MethodPatch, "/api/cart/items/2", map[string]int{"quantity": 1})
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodDelete, "/api/cart/items/1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Zero(t, decode[models.CartSummary](t, rec).LineCount)

	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/api/cart/items", map[string]int{"productId": 3}).Code)
	rec = s.do(t, http.MethodDelete, "/api/cart", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Empty(t, decode[models.CartSummary](t, rec).Items)
}

func TestSessionRoutes(t *testing.T) {
	s := newTestServer(t, Options{})

	rec := s.do(t, http.MethodPost, "/api/login", map[string]string{"email": "john@example.com", "password": "nope"})
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/register", map[string]string{"name": "Jane", "email": "jane@example.com", "password": "x"})
	require.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/register", map[string]string{"name": "Sam", "email": "sam@example.com", "password": "secret"})
	require.Equal(t, http.StatusCreated, rec.Code)
	resp := decode[models.SessionResponse](t, rec)
	require.Equal(t, 3, resp.User.ID)
	require.NotContains(t, rec.Body.String(), "secret")

	rec = s.do(t, http.MethodGet, "/api/session", nil)
	require.True(t, decode[models.SessionResponse](t, rec).Authenticated)

	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/api/logout", nil).Code)
	rec = s.do(t, http.MethodGet, "/api/session", nil)
	require.False(t, decode[models.SessionResponse](t, rec).Authenticated)

	rec = s.do(t, http.MethodPost, "/api/login", "not an object")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLoginRateLimit(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client, err := cache.NewClient(mr.Addr())
	require.NoError(t, err)
	defer client.Close()

	s := newTestServer(t, Options{Limiter: client, LoginLimit: 2, LoginWindow: time.Minute})
	creds := map[string]string{"email": "john@example.com", "password": "wrong"}

	require.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodPost, "/api/login", creds).Code)
	require.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodPost, "/api/login", creds).Code)
	require.Equal(t, http.StatusTooManyRequests, s.do(t, http.MethodPost, "/api/login", creds).Code)
}

func TestReviewRoute(t *testing.T) {
	s := newTestServer(t, Options{})
	review := map[string]any{"rating": 4, "comment": "Solid"}

	require.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodPost, "/api/products/1/reviews", review).Code)

	s.login(t)
	rec := s.do(t, http.MethodPost, "/api/products/1/reviews", review)
	require.Equal(t, http.StatusCreated, rec.Code)
	product := decode[models.Product](t, rec)
	require.Equal(t, "Solid", product.Reviews[0].Comment)
	require.Equal(t, "John Doe", product.Reviews[0].Username)

	rec = s.do(t, http.MethodPost, "/api/products/1/reviews", map[string]any{"rating": 0, "comment": "x"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "rating", decode[errorBody](t, rec).Field)
}

func TestCheckoutRoutes(t *testing.T) {
	address := models.ShippingAddress{
		FirstName: "John", LastName: "Doe", Address: "123 Main Street", City: "Springfield",
		State: "IL", PostalCode: "62701", Country: "USA", Phone: "5551234567",
	}
	card := checkout.PaymentDetails{
		CardNumber: "4242 4242 4242 4242", CardholderName: "John Doe", Expiry: "12/29", CVV: "123",
	}

	t.Run("RequiresToken", func(t *testing.T) {
		s := newTestServer(t, Options{})
		require.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodPost, "/api/checkout", nil).Code)
	})

	t.Run("EmptyCart", func(t *testing.T) {
		s := newTestServer(t, Options{})
		s.login(t)
		require.Equal(t, http.StatusConflict, s.do(t, http.MethodPost, "/api/checkout", nil).Code)
		require.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/api/checkout", nil).Code)
	})

	t.Run("FullFlow", func(t *testing.T) {
		s := newTestServer(t, Options{})
		s.login(t)
		require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/api/cart/items", map[string]int{"productId": 1, "quantity": 1}).Code)

		rec := s.do(t, http.MethodPost, "/api/checkout", nil)
		require.Equal(t, http.StatusCreated, rec.Code)
		require.Equal(t, "shipping_info", decode[map[string]any](t, rec)["state"])

		rec = s.do(t, http.MethodPost, "/api/checkout/payment", card)
		require.Equal(t, http.StatusConflict, rec.Code)

		bad := address
		bad.PostalCode = "1"
		rec = s.do(t, http.MethodPost, "/api/checkout/shipping", bad)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Equal(t, "postalCode", decode[errorBody](t, rec).Field)

		rec = s.do(t, http.MethodPost, "/api/checkout/shipping", address)
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "payment", decode[map[string]any](t, rec)["state"])

		s.authorizer.err = models.ErrPaymentAuthorizationFailed
		rec = s.do(t, http.MethodPost, "/api/checkout/payment", card)
		require.Equal(t, http.StatusPaymentRequired, rec.Code)
		require.False(t, s.engine.Cart.IsEmpty())

		s.authorizer.err = nil
		rec = s.do(t, http.MethodPost, "/api/checkout/payment", card)
		require.Equal(t, http.StatusCreated, rec.Code)

		var snap struct {
			State string       `json:"state"`
			Order models.Order `json:"order"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
		require.Equal(t, "confirmed", snap.State)
		require.Equal(t, models.OrderPending, snap.Order.Status)
		require.True(t, s.engine.Cart.IsEmpty())

		rec = s.do(t, http.MethodGet, "/api/session", nil)
		require.Len(t, decode[models.SessionResponse](t, rec).User.Orders, 1)
	})
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, Options{})
	rec := s.do(t, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}
