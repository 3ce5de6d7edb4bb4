package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMiddleware(t *testing.T) {
	handler := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/tick", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRecordTick(t *testing.T) {
	assert.NotPanics(t, func() {
		RecordTick(25 * time.Millisecond)
	})
}

func TestRecordKernelInvocation(t *testing.T) {
	assert.NotPanics(t, func() {
		RecordKernelInvocation("lightning")
	})
}

func TestRecordKernelPropagation(t *testing.T) {
	assert.NotPanics(t, func() {
		RecordKernelPropagation("sand_slide")
	})
}

func TestSetIlluminationWorkers(t *testing.T) {
	assert.NotPanics(t, func() {
		SetIlluminationWorkers(4)
	})
}

func TestHandler(t *testing.T) {
	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()

	Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}
