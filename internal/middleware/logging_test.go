package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestLogRequest(t *testing.T) {
	buf := &bytes.Buffer{}
	origOut, origLevel := log.StandardLogger().Out, log.GetLevel()
	log.SetOutput(buf)
	log.SetLevel(log.TraceLevel)
	defer func() {
		log.SetOutput(origOut)
		log.SetLevel(origLevel)
	}()

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	handler := RequestID()(LogRequest()(next))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest("GET", "/activities/weekly_mileage_trend", nil))

	out := buf.String()
	assert.Contains(t, out, "path=/activities/weekly_mileage_trend")
	assert.Contains(t, out, "status=418")
	assert.Contains(t, out, "request_id="+rr.Header().Get(RequestIDHeader))
}
