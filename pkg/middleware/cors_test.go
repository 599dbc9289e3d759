package middleware

import (
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func corsHandler(cfg CORSConfig) http.Handler {
	return CORS(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
}

func frontendCORS() CORSConfig {
	return CORSConfig{
		AllowedOrigins:        []string{"http://localhost:5173", "https://chat.example.com/"},
		AllowedOriginPatterns: []*regexp.Regexp{regexp.MustCompile(`^https://.*\.vercel\.app$`)},
		AllowCredentials:      true,
	}
}

func TestCORS_ExactOrigin(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/chat/logs", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rr := httptest.NewRecorder()
	corsHandler(frontendCORS()).ServeHTTP(rr, req)

	assert.Equal(t, "http://localhost:5173", rr.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rr.Header().Get("Access-Control-Allow-Credentials"))
	assert.Equal(t, "Origin", rr.Header().Get("Vary"))
}

func TestCORS_TrailingSlashInConfigIgnored(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://chat.example.com")
	rr := httptest.NewRecorder()
	corsHandler(frontendCORS()).ServeHTTP(rr, req)

	assert.Equal(t, "https://chat.example.com", rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORS_PatternOrigin(t *testing.T) {
	tests := []struct {
		origin  string
		allowed bool
	}{
		{"https://my-app-git-main.vercel.app", true},
		{"http://my-app.vercel.app", false},
		{"https://vercel.app.evil.com", false},
	}

	for _, tc := range tests {
		t.Run(tc.origin, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set("Origin", tc.origin)
			rr := httptest.NewRecorder()
			corsHandler(frontendCORS()).ServeHTTP(rr, req)

			if tc.allowed {
				assert.Equal(t, tc.origin, rr.Header().Get("Access-Control-Allow-Origin"))
			} else {
				assert.Empty(t, rr.Header().Get("Access-Control-Allow-Origin"))
			}
			assert.Equal(t, http.StatusOK, rr.Code)
		})
	}
}

func TestCORS_Preflight(t *testing.T) {
	req := httptest.NewRequest(http.MethodOptions, "/chat", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rr := httptest.NewRecorder()
	corsHandler(frontendCORS()).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, "GET, POST, OPTIONS", rr.Header().Get("Access-Control-Allow-Methods"))
	assert.Contains(t, rr.Header().Get("Access-Control-Allow-Headers"), "Authorization")
	assert.Equal(t, "600", rr.Header().Get("Access-Control-Max-Age"))
}

func TestCORS_WildcardWithoutCredentials(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://anything.test")
	rr := httptest.NewRecorder()
	corsHandler(CORSConfig{AllowedOrigins: []string{"*"}}).ServeHTTP(rr, req)

	assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, rr.Header().Get("Access-Control-Allow-Credentials"))
}

func TestCompileOriginPatterns(t *testing.T) {
	res, err := CompileOriginPatterns([]string{`^https://.*\.vercel\.app$`, " "})
	require.NoError(t, err)
	assert.Len(t, res, 1)

	_, err = CompileOriginPatterns([]string{"("})
	assert.Error(t, err)
}

func TestCORS_AnyHeaderEchoesRequest(t *testing.T) {
	cfg := frontendCORS()
	cfg.AllowedHeaders = []string{"*"}

	req := httptest.NewRequest(http.MethodOptions, "/chat", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "authorization,content-type,x-custom")
	rr := httptest.NewRecorder()
	corsHandler(cfg).ServeHTTP(rr, req)

	assert.Equal(t, "authorization,content-type,x-custom", rr.Header().Get("Access-Control-Allow-Headers"))
}
