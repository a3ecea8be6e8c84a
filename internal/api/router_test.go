package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/exousia/storefront/internal/config"
	"github.com/exousia/storefront/internal/domain"
	"github.com/exousia/storefront/internal/identity"
	"github.com/exousia/storefront/internal/paystack"
	"github.com/exousia/storefront/internal/repository"
	"github.com/exousia/storefront/internal/repository/memory"
	"github.com/exousia/storefront/internal/service"
)

const (
	jwtSecret      = "jwt-test-secret"
	paystackSecret = "sk_test_webhook"
	adminKey       = "operator-key"
)

type stubGateway struct {
	lastInit paystack.InitializeTransactionRequest
	initErr  error
	verify   map[string]*paystack.VerifyTransactionResponse
}

func (g *stubGateway) InitializeTransaction(_ context.Context, req paystack.InitializeTransactionRequest) (*paystack.InitializeTransactionResponse, error) {
	g.lastInit = req
	if g.initErr != nil {
		return nil, g.initErr
	}
	resp := &paystack.InitializeTransactionResponse{Status: true}
	resp.Data.AuthorizationURL = "https://checkout.paystack.com/" + req.Reference
	resp.Data.Reference = req.Reference
	return resp, nil
}

func (g *stubGateway) VerifyTransaction(_ context.Context, reference string) (*paystack.VerifyTransactionResponse, error) {
	resp, ok := g.verify[reference]
	if !ok {
		return nil, &paystack.APIError{StatusCode: http.StatusNotFound, Message: "Transaction reference not found"}
	}
	return resp, nil
}

type testServer struct {
	router  *gin.Engine
	repos   *repository.Repositories
	gateway *stubGateway
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hash, err := bcrypt.GenerateFromPassword([]byte(adminKey), bcrypt.MinCost)
	require.NoError(t, err)

	cfg := &config.Config{
		Environment: "test",
		AppURL:      "https://shop.example.com",
		Paystack:    config.PaystackConfig{SecretKey: paystackSecret, ReferencePrefix: "exousia"},
		Auth:        config.AuthConfig{JWTSecret: jwtSecret},
		Admin:       config.AdminConfig{APIKeyHash: string(hash)},
	}

	logger := zap.NewNop()
	repos := memory.NewRepositories()
	gateway := &stubGateway{verify: map[string]*paystack.VerifyTransactionResponse{}}
	reconciler := service.NewReconcileService(repos, logger)

	router := NewRouter(cfg, Dependencies{
		Repos:      repos,
		Payments:   service.NewPaymentService(cfg, gateway, repos, reconciler, logger),
		Reconciler: reconciler,
		Verifier:   identity.NewVerifier(jwtSecret, ""),
	}, logger)

	return &testServer{router: router, repos: repos, gateway: gateway}
}

func userToken(t *testing.T, userID string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, identity.Claims{
		Email: userID + "@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte(jwtSecret))
	require.NoError(t, err)
	return token
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case []byte:
			buf.Write(b)
		default:
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func bearer(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

func checkoutBody() gin.H {
	return gin.H{
		"email": "ada@example.com",
		"items": []gin.H{
			{"product_id": "tee", "name": "Tee", "unit_price": "29.00", "quantity": 2, "size": "M", "color": "black"},
			{"product_id": "hoodie", "name": "Hoodie", "unit_price": "76.00", "quantity": 1},
		},
		"shipping": gin.H{
			"first_name": "Ada", "last_name": "Obi", "address": "1 Marina", "city": "Lagos",
			"state": "Lagos", "postal_code": "100001", "country": "Nigeria", "phone": "0800",
		},
	}
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	w := s.do(t, http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestQuote(t *testing.T) {
	s := newTestServer(t)
	body := gin.H{"items": []gin.H{
		{"unit_price": "29.00", "quantity": 2},
		{"unit_price": "76.00", "quantity": 1},
	}}

	guest := decode(t, s.do(t, http.MethodPost, "/v1/checkout/quote", body, nil))
	assert.Equal(t, "134.00", guest["total"])
	assert.Equal(t, false, guest["discount_applied"])

	member := decode(t, s.do(t, http.MethodPost, "/v1/checkout/quote", body, bearer(userToken(t, "u1"))))
	assert.Equal(t, "13.40", member["discount"])
	assert.Equal(t, "120.60", member["total"])
	assert.Equal(t, float64(12060), member["amount"])

	small := decode(t, s.do(t, http.MethodPost, "/v1/checkout/quote", gin.H{"items": []gin.H{{"unit_price": "45", "quantity": 1}}}, nil))
	assert.Equal(t, "10.00", small["shipping"])
	assert.Equal(t, "55.00", small["total"])

	w := s.do(t, http.MethodPost, "/v1/checkout/quote", gin.H{"items": []gin.H{{"unit_price": "5", "quantity": 0}}}, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestInvalidTokenRejected(t *testing.T) {
	s := newTestServer(t)
	w := s.do(t, http.MethodPost, "/v1/checkout/quote", gin.H{"items": []gin.H{}}, bearer("garbage"))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestInitializePayment(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/v1/payment/initialize", checkoutBody(), bearer(userToken(t, "u1")))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	resp := decode(t, w)
	assert.NotEmpty(t, resp["authorization_url"])
	assert.Equal(t, int64(12060), s.gateway.lastInit.Amount)
	assert.Equal(t, "u1", s.gateway.lastInit.Metadata.UserID)
	assert.Equal(t, resp["order_id"], s.gateway.lastInit.Metadata.OrderID)
}

func TestInitializePayment_Validation(t *testing.T) {
	s := newTestServer(t)

	body := checkoutBody()
	delete(body, "email")
	w := s.do(t, http.MethodPost, "/v1/payment/initialize", body, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	body = checkoutBody()
	body["items"] = []gin.H{}
	w = s.do(t, http.MethodPost, "/v1/payment/initialize", body, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestInitializePayment_GatewayDown(t *testing.T) {
	s := newTestServer(t)
	s.gateway.initErr = &paystack.APIError{StatusCode: http.StatusServiceUnavailable, Message: "down"}

	w := s.do(t, http.MethodPost, "/v1/payment/initialize", checkoutBody(), nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func initialize(t *testing.T, s *testServer, headers map[string]string) (orderID uuid.UUID, reference string) {
	t.Helper()
	w := s.do(t, http.MethodPost, "/v1/payment/initialize", checkoutBody(), headers)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode(t, w)
	return uuid.MustParse(resp["order_id"].(string)), resp["reference"].(string)
}

func webhookBody(t *testing.T, event, reference string, orderID uuid.UUID, userID string) []byte {
	t.Helper()
	body, err := json.Marshal(gin.H{
		"event": event,
		"data": gin.H{
			"reference": reference,
			"amount":    13400,
			"metadata":  gin.H{"orderId": orderID.String(), "userId": userID},
		},
	})
	require.NoError(t, err)
	return body
}

func TestWebhook(t *testing.T) {
	s := newTestServer(t)
	orderID, reference := initialize(t, s, nil)
	body := webhookBody(t, paystack.EventChargeSuccess, reference, orderID, "")

	t.Run("bad signature", func(t *testing.T) {
		w := s.do(t, http.MethodPost, "/v1/webhooks/paystack", body, map[string]string{
			paystack.SignatureHeader: paystack.Sign(body, "wrong-secret"),
		})
		assert.Equal(t, http.StatusUnauthorized, w.Code)

		order, err := s.repos.Order.GetByID(context.Background(), orderID)
		require.NoError(t, err)
		assert.Equal(t, domain.PaymentStatusPending, order.PaymentStatus)
	})

	t.Run("valid signature", func(t *testing.T) {
		w := s.do(t, http.MethodPost, "/v1/webhooks/paystack", body, map[string]string{
			paystack.SignatureHeader: paystack.Sign(body, paystackSecret),
		})
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, true, decode(t, w)["received"])

		order, err := s.repos.Order.GetByID(context.Background(), orderID)
		require.NoError(t, err)
		assert.Equal(t, domain.PaymentStatusPaid, order.PaymentStatus)
		assert.Equal(t, domain.OrderStatusProcessing, order.Status)
	})

	t.Run("redelivery", func(t *testing.T) {
		w := s.do(t, http.MethodPost, "/v1/webhooks/paystack", body, map[string]string{
			paystack.SignatureHeader: paystack.Sign(body, paystackSecret),
		})
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, string(service.OutcomeDuplicate), decode(t, w)["outcome"])
	})

	t.Run("malformed payload", func(t *testing.T) {
		bad := []byte(`{"event":`)
		w := s.do(t, http.MethodPost, "/v1/webhooks/paystack", bad, map[string]string{
			paystack.SignatureHeader: paystack.Sign(bad, paystackSecret),
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestVerifyPayment(t *testing.T) {
	s := newTestServer(t)
	token := userToken(t, "u1")
	orderID, reference := initialize(t, s, bearer(token))

	resp := &paystack.VerifyTransactionResponse{Status: true}
	resp.Data.Status = paystack.TransactionFailed
	resp.Data.Reference = reference
	resp.Data.Metadata = []byte(`{"orderId":"` + orderID.String() + `","userId":"u1"}`)
	s.gateway.verify[reference] = resp

	w := s.do(t, http.MethodGet, "/v1/payment/verify/"+reference, nil, bearer(token))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	out := decode(t, w)
	assert.Equal(t, "failed", out["payment_status"])
	assert.Equal(t, string(service.OutcomeApplied), out["outcome"])

	order, err := s.repos.Order.GetByID(context.Background(), orderID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusPaymentFailed, order.Status)

	w = s.do(t, http.MethodGet, "/v1/payment/verify/unknown-ref", nil, nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestGetOrder(t *testing.T) {
	s := newTestServer(t)
	guestOrder, _ := initialize(t, s, nil)
	memberOrder, _ := initialize(t, s, bearer(userToken(t, "u1")))

	w := s.do(t, http.MethodGet, "/v1/orders/"+guestOrder.String()+"?email=ADA@example.com", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	out := decode(t, w)
	assert.Equal(t, "134.00", out["total"])
	assert.Len(t, out["items"], 2)

	w = s.do(t, http.MethodGet, "/v1/orders/"+guestOrder.String(), nil, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, http.MethodGet, "/v1/orders/"+memberOrder.String(), nil, bearer(userToken(t, "u1")))
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodGet, "/v1/orders/"+memberOrder.String(), nil, bearer(userToken(t, "u2")))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, http.MethodGet, "/v1/orders/"+memberOrder.String()+"?email=ada@example.com", nil, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, http.MethodGet, "/v1/orders/"+uuid.NewString(), nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodGet, "/v1/orders/not-a-uuid", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdminRoutes(t *testing.T) {
	s := newTestServer(t)
	orderID, reference := initialize(t, s, nil)
	admin := map[string]string{"X-Admin-Key": adminKey}

	// fail the payment through the webhook
	body := webhookBody(t, paystack.EventChargeFailed, reference, orderID, "")
	w := s.do(t, http.MethodPost, "/v1/webhooks/paystack", body, map[string]string{
		paystack.SignatureHeader: paystack.Sign(body, paystackSecret),
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodGet, "/v1/admin/orders?status=payment_failed", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, http.MethodGet, "/v1/admin/orders?status=payment_failed", nil, admin)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["orders"], 1)

	w = s.do(t, http.MethodGet, "/v1/admin/orders?status=bogus", nil, admin)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPost, "/v1/admin/orders/"+orderID.String()+"/status", gin.H{"status": "shipped"}, admin)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPost, "/v1/admin/orders/"+orderID.String()+"/status", gin.H{"status": "cancelled", "reason": "customer request"}, admin)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "cancelled", decode(t, w)["status"])
}
