package middleware

import (
	"net/http"
	"time"
)

// RequestRecorder принимает результат каждого HTTP-запроса
type RequestRecorder interface {
	RecordRequest(status int, duration time.Duration)
}

// Metrics передает код ответа и длительность запроса в recorder
func Metrics(recorder RequestRecorder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			recorder.RecordRequest(rec.status, time.Since(start))
		})
	}
}
