package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestHealthHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)

	okPing := func() error { return nil }
	badPing := func() error { return assertErr{} }
	okCache := func(context.Context) error { return nil }
	badCache := func(context.Context) error { return assertErr{} }

	cases := []struct {
		name      string
		dbPing    func() error
		cachePing func(context.Context) error
		path      string
		want      int
		wantCache string
	}{
		{name: "healthz ok", path: "/healthz", want: 200},
		{name: "readyz ok", dbPing: okPing, cachePing: okCache, path: "/readyz", want: 200, wantCache: "ok"},
		{name: "readyz db down", dbPing: badPing, cachePing: okCache, path: "/readyz", want: 503},
		{name: "readyz cache down", dbPing: okPing, cachePing: badCache, path: "/readyz", want: 200, wantCache: "unavailable"},
		{name: "readyz no cache", dbPing: okPing, path: "/readyz", want: 200, wantCache: "unavailable"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := gin.New()
			NewHealthHandler(tc.dbPing, tc.cachePing).Register(r)
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, tc.path, nil)
			r.ServeHTTP(w, req)
			if w.Code != tc.want {
				t.Fatalf("want %d got %d", tc.want, w.Code)
			}
			if tc.wantCache != "" {
				var out map[string]string
				if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
					t.Fatalf("invalid json: %v", err)
				}
				if out["cache"] != tc.wantCache {
					t.Fatalf("want cache %q got %q", tc.wantCache, out["cache"])
				}
			}
		})
	}
}

type assertErr struct{}

func (assertErr) Error() string { return "err" }
