package middleware

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/go-user-relations/pkg/helpers"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestAuth(t *testing.T) {
	jwt := helpers.NewJWTManager("secret", time.Hour)
	token, _, err := jwt.Sign("u1", "u1@example.com")
	require.NoError(t, err)

	r := gin.New()
	r.GET("/me", Auth(jwt), func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(CtxUserIDKey))
	})

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantBody   string
	}{
		{name: "valid token", header: "Bearer " + token, wantStatus: http.StatusOK, wantBody: "u1"},
		{name: "missing header", header: "", wantStatus: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic abc", wantStatus: http.StatusUnauthorized},
		{name: "empty token", header: "Bearer ", wantStatus: http.StatusUnauthorized},
		{name: "garbage token", header: "Bearer 123", wantStatus: http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantBody != "" {
				assert.Equal(t, tt.wantBody, rec.Body.String())
				return
			}
			var env struct {
				Success bool              `json:"success"`
				Error   map[string]string `json:"error"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
			assert.False(t, env.Success)
			assert.Equal(t, "UNAUTHORIZED", env.Error["code"])
		})
	}
}

func TestRealIPAndPrivateGate(t *testing.T) {
	newEngine := func(trustCloudflare bool) *gin.Engine {
		r := gin.New()
		r.Use(RealIP(trustCloudflare))
		r.GET("/internal", RequirePrivateIP(), func(c *gin.Context) {
			c.String(http.StatusOK, c.GetString("real_ip"))
		})
		return r
	}

	tests := []struct {
		name       string
		trustCF    bool
		remote     string
		xff        string
		cf         string
		wantStatus int
		wantIP     string
	}{
		{name: "loopback peer", remote: "127.0.0.1:5000", wantStatus: http.StatusOK, wantIP: "127.0.0.1"},
		{name: "public peer", remote: "8.8.8.8:5000", wantStatus: http.StatusNotFound},
		{name: "public peer cannot spoof", remote: "8.8.8.8:5000", xff: "10.0.0.1", wantStatus: http.StatusNotFound},
		{name: "proxy forwards public client", remote: "10.0.0.2:5000", xff: "10.9.9.9, 1.2.3.4", wantStatus: http.StatusNotFound},
		{name: "proxy forwards private client", remote: "10.0.0.2:5000", xff: "10.0.0.7", wantStatus: http.StatusOK, wantIP: "10.0.0.7"},
		{name: "cloudflare header ignored by default", remote: "10.0.0.2:5000", xff: "1.2.3.4", cf: "127.0.0.1", wantStatus: http.StatusNotFound},
		{name: "cloudflare header ignored from public peer", trustCF: true, remote: "8.8.8.8:5000", cf: "127.0.0.1", wantStatus: http.StatusNotFound},
		{name: "cloudflare header trusted when enabled", trustCF: true, remote: "10.0.0.2:5000", xff: "1.2.3.4", cf: "10.0.0.9", wantStatus: http.StatusOK, wantIP: "10.0.0.9"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/internal", nil)
			req.RemoteAddr = tt.remote
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.cf != "" {
				req.Header.Set("CF-Connecting-IP", tt.cf)
			}
			rec := httptest.NewRecorder()
			newEngine(tt.trustCF).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantIP != "" {
				assert.Equal(t, tt.wantIP, rec.Body.String())
			}
		})
	}
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString("request_id")) })

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, rec.Body.String())
	assert.Equal(t, rec.Body.String(), rec.Header().Get(RequestIDHeader))

	const incoming = "5b0e6c1e-8a43-4a5e-9d59-3f1b1c0b8f11"
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, incoming)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, incoming, rec.Body.String())
}

func multipartBody(t *testing.T, field, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.WriteField("email", "a@example.com"))
	if field != "" {
		fw, err := w.CreateFormFile(field, filename)
		require.NoError(t, err)
		_, err = fw.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func TestSingleFile(t *testing.T) {
	png := append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 24)...)

	r := gin.New()
	r.POST("/upload", SingleFile("avatar", 64), func(c *gin.Context) {
		up := UploadFrom(c, "avatar")
		if up == nil {
			c.String(http.StatusOK, "none")
			return
		}
		c.String(http.StatusOK, up.ContentType+" "+up.Filename+" "+c.PostForm("email"))
	})

	tests := []struct {
		name       string
		field      string
		filename   string
		content    []byte
		wantStatus int
		wantBody   string
	}{
		{name: "png accepted", field: "avatar", filename: "me.png", content: png, wantStatus: http.StatusOK, wantBody: "image/png me.png a@example.com"},
		{name: "no file", wantStatus: http.StatusOK, wantBody: "none"},
		{name: "text rejected", field: "avatar", filename: "me.txt", content: []byte("hello there"), wantStatus: http.StatusBadRequest},
		{name: "oversize rejected", field: "avatar", filename: "big.png", content: append(png, bytes.Repeat([]byte{0}, 64)...), wantStatus: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, ct := multipartBody(t, tt.field, tt.filename, tt.content)
			req := httptest.NewRequest(http.MethodPost, "/upload", body)
			req.Header.Set("Content-Type", ct)
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantBody != "" {
				assert.Equal(t, tt.wantBody, rec.Body.String())
			}
		})
	}
}

func TestRateLimitDisabledWithoutRedis(t *testing.T) {
	r := gin.New()
	r.GET("/", RateLimit(nil, Limit{Max: 1, Window: time.Second, Key: KeyByIPAndPath()}, nil), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusNoContent, rec.Code)
	}
}
