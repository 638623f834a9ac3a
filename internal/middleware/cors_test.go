package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestCORS(t *testing.T) {
	tests := []struct {
		name       string
		allowed    []string
		method     string
		origin     string
		wantStatus int
		wantOrigin string
	}{
		{
			name:       "no origin header passes through",
			allowed:    nil,
			method:     http.MethodGet,
			wantStatus: http.StatusOK,
		},
		{
			name:       "listed origin gets headers",
			allowed:    []string{"http://localhost:5173"},
			method:     http.MethodGet,
			origin:     "http://localhost:5173",
			wantStatus: http.StatusOK,
			wantOrigin: "http://localhost:5173",
		},
		{
			name:       "trailing slash in config still matches",
			allowed:    []string{" http://localhost:5173/ "},
			method:     http.MethodGet,
			origin:     "http://localhost:5173",
			wantStatus: http.StatusOK,
			wantOrigin: "http://localhost:5173",
		},
		{
			name:       "listed origin preflight",
			allowed:    []string{"http://localhost:5173"},
			method:     http.MethodOptions,
			origin:     "http://localhost:5173",
			wantStatus: http.StatusNoContent,
			wantOrigin: "http://localhost:5173",
		},
		{
			name:       "unlisted origin preflight is rejected",
			allowed:    []string{"http://localhost:5173"},
			method:     http.MethodOptions,
			origin:     "https://evil.example.com",
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "unlisted origin gets no headers",
			allowed:    nil,
			method:     http.MethodGet,
			origin:     "https://evil.example.com",
			wantStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.Use(CORS(tt.allowed))
			router.GET("/api/v1/intake/today", func(c *gin.Context) { c.Status(http.StatusOK) })
			router.OPTIONS("/api/v1/intake/today", func(c *gin.Context) { c.Status(http.StatusOK) })

			req := httptest.NewRequest(tt.method, "/api/v1/intake/today", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if got := w.Header().Get("Access-Control-Allow-Origin"); got != tt.wantOrigin {
				t.Errorf("Access-Control-Allow-Origin = %q, want %q", got, tt.wantOrigin)
			}
		})
	}
}
