package observability

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
)

func TestRegisterMountsPprofWhenEnabled(t *testing.T) {
	router := mux.NewRouter()
	Register(router, Config{EnablePprofTrace: true})

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/debug/pprof/", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected pprof index, got %d", resp.Code)
	}
}

func TestRegisterSkipsWhenDisabled(t *testing.T) {
	router := mux.NewRouter()
	Register(router, Config{})

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/debug/pprof/", nil))
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected pprof to stay unmounted, got %d", resp.Code)
	}
}
