package cancellation

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"tablewise/internal/shared/identity"
	"tablewise/internal/shared/middleware"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func asUser(req identity.Requester) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.ContextUserID, req.UserID.String())
		c.Set(middleware.ContextUserRole, req.Role)
		c.Next()
	}
}

func serve(engine *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func TestCancelEndpoint(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := newHarness(t, 0)
	b := h.book(48*time.Hour, 2)

	owner := gin.New()
	SetupCancellationRoutes(owner.Group("/api/v1"), NewController(h.svc), asUser(h.owner))
	stranger := gin.New()
	SetupCancellationRoutes(stranger.Group("/api/v1"), NewController(h.svc),
		asUser(identity.Requester{UserID: uuid.New(), Role: identity.RoleCustomer}))

	path := "/api/v1/bookings/" + b.ID.String() + "/cancel"

	rec := serve(stranger, http.MethodPost, path, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = serve(owner, http.MethodPost, path, `{"reason":"sick"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Booking cancelled successfully")

	rec = serve(owner, http.MethodPost, path, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"already_cancelled":true`)
	assert.Equal(t, 2, h.bookings.released)

	rec = serve(owner, http.MethodGet, "/api/v1/bookings/"+b.ID.String()+"/cancellation", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "sick")

	rec = serve(owner, http.MethodGet, "/api/v1/users/cancellations", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"total_count":1`)

	rec = serve(owner, http.MethodPost, "/api/v1/bookings/not-a-uuid/cancel", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
