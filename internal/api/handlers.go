package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"storefront/internal/auth"
	"storefront/internal/catalog"
	"storefront/internal/checkout"
	"storefront/internal/models"
	"storefront/internal/storefront"
)

// RateLimiter counts hits per key; *cache.Client satisfies it.
type RateLimiter interface {
	IsRateLimited(ctx context.Context, key string, maxRequests int, window time.Duration) bool
}

type Options struct {
	// Limiter throttles login attempts per client address. Nil disables
	// throttling.
	Limiter     RateLimiter
	LoginLimit  int
	LoginWindow time.Duration
	// ArrivalsSeed drives new arrivals when the request carries no seed.
	ArrivalsSeed uint64
}

type Handler struct {
	engine *storefront.Engine
	tokens *auth.TokenIssuer
	opts   Options
}

func NewHandler(engine *storefront.Engine, tokens *auth.TokenIssuer, opts Options) *Handler {
	return &Handler{
		engine: engine,
		tokens: tokens,
		opts:   opts,
	}
}

// Register mounts every route on mux. Routes that act for the logged-in
// user go through mw.
func (h *Handler) Register(mux *http.ServeMux, mw *auth.Middleware) {
	mux.HandleFunc("GET /api/products", h.ListProducts)
	mux.HandleFunc("GET /api/products/{id}", h.GetProduct)
	mux.HandleFunc("GET /api/products/{id}/recommendations", h.Recommendations)
	mux.HandleFunc("POST /api/products/{id}/reviews", mw.ValidateToken(h.SubmitReview))
	mux.HandleFunc("GET /api/categories", h.Categories)
	mux.HandleFunc("GET /api/new-arrivals", h.NewArrivals)

	mux.HandleFunc("GET /api/cart", h.GetCart)
	mux.HandleFunc("DELETE /api/cart", h.ClearCart)
	mux.HandleFunc("POST /api/cart/items", h.AddCartItem)
	mux.HandleFunc("PATCH /api/cart/items/{id}", h.UpdateCartItem)
	mux.HandleFunc("DELETE /api/cart/items/{id}", h.RemoveCartItem)

	mux.HandleFunc("POST /api/login", h.Login)
	mux.HandleFunc("POST /api/register", h.Register)
	mux.HandleFunc("POST /api/logout", h.Logout)
	mux.HandleFunc("GET /api/session", h.Session)

	mux.HandleFunc("POST /api/checkout", mw.ValidateToken(h.BeginCheckout))
	mux.HandleFunc("GET /api/checkout", mw.ValidateToken(h.GetCheckout))
	mux.HandleFunc("POST /api/checkout/shipping", mw.ValidateToken(h.SubmitShipping))
	mux.HandleFunc("POST /api/checkout/payment", mw.ValidateToken(h.SubmitPayment))

	mux.HandleFunc("GET /health", h.Health)
}

func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	q, err := catalog.ParseQuery(r.URL.Query())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.engine.Query(q))
}

func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	product, err := h.engine.Catalog.Get(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, product)
}

func (h *Handler) Recommendations(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	limit, err := queryInt(r, "limit", 4)
	if err != nil {
		writeError(w, err)
		return
	}
	products, err := h.engine.Recommendations(id, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, products)
}

func (h *Handler) SubmitReview(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var body struct {
		Rating  int    `json:"rating"`
		Comment string `json:"comment"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	product, err := h.engine.SubmitReview(id, body.Rating, body.Comment)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, product)
}

func (h *Handler) Categories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.engine.Catalog.Categories())
}

func (h *Handler) NewArrivals(w http.ResponseWriter, r *http.Request) {
	n, err := queryInt(r, "limit", 4)
	if err != nil {
		writeError(w, err)
		return
	}
	seed := h.opts.ArrivalsSeed
	if s := r.URL.Query().Get("seed"); s != "" {
		if seed, err = strconv.ParseUint(s, 10, 64); err != nil {
			writeError(w, models.NewValidationError("seed", "must be a non-negative integer"))
			return
		}
	}
	writeJSON(w, http.StatusOK, h.engine.NewArrivals(n, seed))
}

func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.engine.Cart.Summary())
}

func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	h.engine.Cart.Clear()
	writeJSON(w, http.StatusOK, h.engine.Cart.Summary())
}

func (h *Handler) AddCartItem(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ProductID int `json:"productId"`
		Quantity  int `json:"quantity"`
	}
	body.Quantity = 1
	if !decodeJSON(w, r, &body) {
		return
	}
	if err := h.engine.Cart.Add(body.ProductID, body.Quantity); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.engine.Cart.Summary())
}

func (h *Handler) UpdateCartItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var body struct {
		Quantity int `json:"quantity"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	if err := h.engine.Cart.SetQuantity(id, body.Quantity); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.engine.Cart.Summary())
}

func (h *Handler) RemoveCartItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	h.engine.Cart.Remove(id)
	writeJSON(w, http.StatusOK, h.engine.Cart.Summary())
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	clientIP := r.RemoteAddr
	if idx := strings.LastIndex(clientIP, ":"); idx != -1 {
		clientIP = clientIP[:idx]
	}

	if h.opts.Limiter != nil && h.opts.Limiter.IsRateLimited(ctx, "login:"+clientIP, h.opts.LoginLimit, h.opts.LoginWindow) {
		slog.Warn("Rate limit exceeded", "ip", clientIP)
		writeJSON(w, http.StatusTooManyRequests, errorBody{Error: "Too many requests"})
		return
	}

	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	user, err := h.engine.Session.Login(ctx, body.Email, body.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	h.writeSession(w, http.StatusOK, user)
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	user, err := h.engine.Session.Register(r.Context(), body.Email, body.Password, body.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	h.writeSession(w, http.StatusCreated, user)
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.engine.Logout(r.Context())
	writeJSON(w, http.StatusOK, models.SessionResponse{})
}

func (h *Handler) Session(w http.ResponseWriter, r *http.Request) {
	user, ok := h.engine.Session.Current()
	if !ok {
		writeJSON(w, http.StatusOK, models.SessionResponse{})
		return
	}
	writeJSON(w, http.StatusOK, models.SessionResponse{User: &user, Authenticated: true})
}

func (h *Handler) writeSession(w http.ResponseWriter, status int, user models.User) {
	token, err := h.tokens.Issue(user)
	if err != nil {
		slog.Error("Failed to sign token", "user_id", user.ID, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "Internal Server Error"})
		return
	}
	writeJSON(w, status, models.SessionResponse{User: &user, Authenticated: true, Token: token})
}

func (h *Handler) BeginCheckout(w http.ResponseWriter, r *http.Request) {
	o, err := h.engine.BeginCheckout()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, o.Snapshot())
}

func (h *Handler) GetCheckout(w http.ResponseWriter, r *http.Request) {
	o, ok := h.activeCheckout(w)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, o.Snapshot())
}

func (h *Handler) SubmitShipping(w http.ResponseWriter, r *http.Request) {
	o, ok := h.activeCheckout(w)
	if !ok {
		return
	}
	var addr models.ShippingAddress
	if !decodeJSON(w, r, &addr) {
		return
	}
	if err := o.SubmitShipping(addr); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, o.Snapshot())
}

func (h *Handler) SubmitPayment(w http.ResponseWriter, r *http.Request) {
	o, ok := h.activeCheckout(w)
	if !ok {
		return
	}
	var details checkout.PaymentDetails
	if !decodeJSON(w, r, &details) {
		return
	}
	if _, err := o.SubmitPayment(r.Context(), details); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, o.Snapshot())
}

func (h *Handler) activeCheckout(w http.ResponseWriter) (*checkout.Orchestrator, bool) {
	o, ok := h.engine.ActiveCheckout()
	if !ok {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "no checkout in progress"})
		return nil, false
	}
	return o, true
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type errorBody struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrValidationFailed), errors.Is(err, models.ErrInvalidQuantity):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrInvalidCredentials), errors.Is(err, models.ErrNotAuthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, models.ErrPaymentAuthorizationFailed):
		return http.StatusPaymentRequired
	case errors.Is(err, models.ErrEmailTaken),
		errors.Is(err, models.ErrOutOfStock),
		errors.Is(err, models.ErrEmptyCart),
		errors.Is(err, models.ErrInvalidTransition),
		errors.Is(err, models.ErrPaymentInProgress):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	body := errorBody{Error: err.Error()}

	var verr *models.ValidationError
	if errors.As(err, &verr) {
		body.Field = verr.Field
	}
	if status == http.StatusInternalServerError {
		slog.Error("Request failed", "error", err)
		body.Error = "Internal Server Error"
	}
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	responseBytes, err := json.Marshal(v)
	if err != nil {
		slog.Error("JSON marshal error", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(responseBytes)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid JSON body"})
		return false
	}
	return true
}

func pathID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		writeError(w, models.NewValidationError("id", "must be an integer"))
		return 0, false
	}
	return id, true
}

func queryInt(r *http.Request, key string, fallback int) (int, error) {
	s := r.URL.Query().Get(key)
	if s == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, models.NewValidationError(key, "must be a non-negative integer")
	}
	return n, nil
}
