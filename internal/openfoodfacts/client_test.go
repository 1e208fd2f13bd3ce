package openfoodfacts

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestLookupFound(t *testing.T) {
	var gotPath string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"code":"3017620422003","status":1,"product":{"product_name":"Milk","brands":"Acme","nutriments":{"energy_100g":250,"proteins_100g":"3.2"}}}`))
	}))
	defer ts.Close()

	c := New(ts.URL+"/", 0)
	p, err := c.Lookup(context.Background(), "3017620422003")
	if err != nil {
		t.Fatalf("Lookup error: %v", err)
	}
	if gotPath != "/product/3017620422003.json" {
		t.Fatalf("path mismatch: %q", gotPath)
	}
	if p.Name != "Milk" || p.Brands != "Acme" {
		t.Fatalf("product mismatch: %+v", p)
	}
	if p.Nutriments == nil || p.Nutriments.Proteins == nil || p.Nutriments.Proteins.Value != 3.2 {
		t.Fatalf("proteins mismatch: %+v", p.Nutriments)
	}
	if p.Nutriments.Fat != nil {
		t.Fatalf("expected fat absent, got %v", *p.Nutriments.Fat)
	}
}

func TestLookupNonNumericNutrimentKeepsProduct(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"status":1,"product":{"product_name":"Salt","nutriments":{"energy_100g":"traces","fat_100g":0.2}}}`))
	}))
	defer ts.Close()

	p, err := New(ts.URL, 0).Lookup(context.Background(), "3017620422003")
	if err != nil {
		t.Fatalf("Lookup error: %v", err)
	}
	if p.Name != "Salt" {
		t.Fatalf("name mismatch: %q", p.Name)
	}
	if p.Nutriments.Energy == nil || p.Nutriments.Energy.String() != "traces" {
		t.Fatalf("energy mismatch: %+v", p.Nutriments.Energy)
	}
	if p.Nutriments.Fat == nil || p.Nutriments.Fat.Value != 0.2 {
		t.Fatalf("fat mismatch: %+v", p.Nutriments.Fat)
	}
}

func TestLookupNotFoundOn404(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"code":"0000000000000","status":0,"status_verbose":"product not found"}`))
	}))
	defer ts.Close()

	_, err := New(ts.URL, 0).Lookup(context.Background(), "0000000000000")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestLookupStatusOneWithoutProduct(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"status":1}`))
	}))
	defer ts.Close()

	_, err := New(ts.URL, 0).Lookup(context.Background(), "96385074")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestLookupMalformedBody(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`<html>bad gateway</html>`))
	}))
	defer ts.Close()

	_, err := New(ts.URL, 0).Lookup(context.Background(), "96385074")
	if err == nil {
		t.Fatalf("expected error")
	}
	if errors.Is(err, ErrNotFound) {
		t.Fatalf("malformed body must not be reported as not found: %v", err)
	}
}

func TestLookupTransportError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {}))
	url := ts.URL
	ts.Close()

	if _, err := New(url, 0).Lookup(context.Background(), "96385074"); err == nil {
		t.Fatalf("expected transport error")
	}
}

func TestLookupEmptyBarcode(t *testing.T) {
	if _, err := New("http://127.0.0.1:1", 0).Lookup(context.Background(), "  "); err == nil {
		t.Fatalf("expected error for empty barcode")
	}
}
