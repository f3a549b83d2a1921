package api

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Domenick1991/travelbooking/internal/domain"
	"github.com/Domenick1991/travelbooking/internal/lifecycle"
	"github.com/Domenick1991/travelbooking/internal/payment"
	"github.com/Domenick1991/travelbooking/internal/repository"
	"github.com/Domenick1991/travelbooking/internal/service/booking"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

// newSQLiteRouter serves the real booking service over an in-memory database.
func newSQLiteRouter(t *testing.T) (*gin.Engine, int64) {
	t.Helper()
	ctx := context.Background()

	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)
	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, repository.CreateBunSchema(ctx, db))

	products := repository.NewBunProductRepository(db)
	product := &domain.Product{
		Kind:                 domain.ProductKindResort,
		Name:                 "Lagoon villa",
		PriceCents:           25000,
		Currency:             "usd",
		FullRefundWindowDays: 14,
		HalfRefundWindowDays: 7,
		Active:               true,
	}
	require.NoError(t, products.Create(ctx, product))

	service := booking.NewBookingService(
		repository.NewBunBookingRepository(db),
		products,
		nil,
		payment.NewMockProcessor(""),
		lifecycle.DefaultPolicy(),
		"booking-events",
	)

	gin.SetMode(gin.TestMode)
	router := NewRouter(RouterConfig{
		Bookings:  NewBookingHandler(service),
		JWTSecret: testSecret,
	})
	return router, product.ID
}

func doJSON(t *testing.T, router *gin.Engine, method, target string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func createViaAPI(t *testing.T, router *gin.Engine, productID int64) string {
	t.Helper()
	w := doJSON(t, router, http.MethodPost, "/api/v1/bookings", gin.H{
		"user_ref":        "u-1",
		"product_id":      productID,
		"email":           "u1@example.com",
		"occurrence_date": time.Now().UTC().AddDate(0, 0, 30).Format(dateLayout),
	}, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, "Requested", body["status"])
	return body["id"].(string)
}

func TestBookingFlow_ApproveThenConfirm(t *testing.T) {
	router, productID := newSQLiteRouter(t)
	id := createViaAPI(t, router, productID)
	admin := signToken(t, "admin")

	w := doJSON(t, router, http.MethodPost, "/api/v1/admin/bookings/"+id+"/decision", gin.H{"decision": "Approved"}, admin)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Approved", decode(t, w)["status"])

	w = doJSON(t, router, http.MethodPost, "/api/v1/bookings/"+id+"/payments/confirm",
		gin.H{"amount": 25000, "reference": "pi_1"}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, "Confirmed", body["status"])
	assert.Equal(t, []any{"cancel"}, body["allowed_actions"])
}

func TestBookingFlow_Decline(t *testing.T) {
	router, productID := newSQLiteRouter(t)
	id := createViaAPI(t, router, productID)
	admin := signToken(t, "admin")

	w := doJSON(t, router, http.MethodPost, "/api/v1/admin/bookings/"+id+"/decision", gin.H{"decision": "Declined"}, admin)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(t, router, http.MethodGet, "/api/v1/bookings/"+id, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Declined", decode(t, w)["status"])

	w = doJSON(t, router, http.MethodPost, "/api/v1/admin/bookings/"+id+"/decision", gin.H{"decision": "Approved"}, admin)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestBookingFlow_LowercaseDecisionRejected(t *testing.T) {
	router, productID := newSQLiteRouter(t)
	id := createViaAPI(t, router, productID)

	w := doJSON(t, router, http.MethodPost, "/api/v1/admin/bookings/"+id+"/decision", gin.H{"decision": "approved"}, signToken(t, "admin"))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/v1/bookings/"+id, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Requested", decode(t, w)["status"])
}
