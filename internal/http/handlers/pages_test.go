package handlers_test

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/geocoder89/gatekeeper/internal/http/handlers"
	"github.com/gin-gonic/gin"
)

func TestProfilePage_UnknownIDFallsBackToFirst(t *testing.T) {
	r := gin.New()
	r.GET("/home/:id", handlers.ProfilePage)
	r.GET("/home/:id/contact", handlers.ContactPage)

	tests := []struct {
		path string
		want string
	}{
		{path: "/home/2", want: "Priya Singh"},
		{path: "/home/3", want: "Amit Patel"},
		{path: "/home/99", want: "Ravi Kumar"},
		{path: "/home/abc", want: "Ravi Kumar"},
		{path: "/home/3/contact", want: `"back":"/home/3"`},
	}

	for _, tt := range tests {
		w := doJSON(r, http.MethodGet, tt.path, "")

		if w.Code != http.StatusOK {
			t.Fatalf("%s: got %d", tt.path, w.Code)
		}
		if !strings.Contains(w.Body.String(), tt.want) {
			t.Fatalf("%s: body %s missing %s", tt.path, w.Body.String(), tt.want)
		}
	}
}

func TestReadyz(t *testing.T) {
	ok := handlers.NewHealthHandler(func(context.Context) error { return nil })
	down := handlers.NewHealthHandler(func(context.Context) error { return errors.New("down") })

	r := gin.New()
	r.GET("/ok/readyz", ok.Readyz)
	r.GET("/down/readyz", down.Readyz)
	r.GET("/healthz", down.Healthz)

	if w := doJSON(r, http.MethodGet, "/ok/readyz", ""); w.Code != http.StatusOK {
		t.Fatalf("ready: got %d", w.Code)
	}
	if w := doJSON(r, http.MethodGet, "/down/readyz", ""); w.Code != http.StatusServiceUnavailable {
		t.Fatalf("not ready: got %d", w.Code)
	}
	// liveness does not depend on the store
	if w := doJSON(r, http.MethodGet, "/healthz", ""); w.Code != http.StatusOK {
		t.Fatalf("healthz: got %d", w.Code)
	}
}

func TestOpenAPISpecIsServed(t *testing.T) {
	r := gin.New()
	r.GET("/docs/openapi.yaml", handlers.OpenAPISpec)

	w := doJSON(r, http.MethodGet, "/docs/openapi.yaml", "")

	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "/auth/login:") {
		t.Fatalf("got %d body=%.80s", w.Code, w.Body.String())
	}
}
