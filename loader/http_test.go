package loader

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestHTTPSource(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/profiles/patient":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"path":"Patient","children":[{"path":"Patient.name"}]}`))
		case "/profiles/obs":
			w.Header().Set("Content-Type", "application/yaml")
			_, _ = w.Write([]byte("path: Observation\n"))
		case "/profiles/broken":
			http.Error(w, "boom", http.StatusInternalServerError)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	src := NewHTTPSource(srv.URL+"/profiles/", WithTimeout(5*time.Second))
	ctx := context.Background()

	raw, err := src.FetchDocument(ctx, "patient")
	if err != nil {
		t.Fatalf("FetchDocument(patient) error = %v", err)
	}
	if raw.Path != "Patient" || len(raw.Children) != 1 {
		t.Errorf("raw = %+v", raw)
	}

	raw, err = src.FetchDocument(ctx, "obs")
	if err != nil || raw.Path != "Observation" {
		t.Errorf("FetchDocument(obs) = %v, %v", raw, err)
	}

	if _, err := src.FetchDocument(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing error = %v; want ErrNotFound", err)
	}

	_, err = src.FetchDocument(ctx, "broken")
	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.Status != http.StatusInternalServerError {
		t.Errorf("broken error = %v; want StatusError 500", err)
	}
}

func TestHTTPSource_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := NewHTTPSource(srv.URL).FetchDocument(ctx, "slow"); err == nil {
		t.Error("expected error for cancelled request")
	}
}
