package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddlewareRecordsRequests(t *testing.T) {
	gin.SetMode(gin.TestMode)
	reg := prometheus.NewRegistry()
	m := NewWithRegistry(reg)

	r := gin.New()
	r.Use(Middleware(m))
	r.GET("/api/projects/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/projects/42", nil))
	require.Equal(t, http.StatusOK, w.Code)

	count := testutil.ToFloat64(m.httpRequestsTotal.WithLabelValues("GET", "/api/projects/:id", "200"))
	assert.Equal(t, 1.0, count)
}

func TestRecordPipelineOperation(t *testing.T) {
	m := NewWithRegistry(prometheus.NewRegistry())

	m.RecordPipelineOperation("extract_audio", nil, 1.5)
	m.RecordPipelineOperation("extract_audio", errors.New("boom"), 0.2)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.pipelineOperationsTotal.WithLabelValues("extract_audio", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.pipelineOperationsTotal.WithLabelValues("extract_audio", "error")))
}

func TestRecordExternalCall(t *testing.T) {
	m := NewWithRegistry(prometheus.NewRegistry())

	m.RecordExternalCall("openai", nil)
	m.RecordExternalCall("chatterbox", errors.New("down"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.externalCallsTotal.WithLabelValues("openai", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.externalCallsTotal.WithLabelValues("chatterbox", "error")))
}
