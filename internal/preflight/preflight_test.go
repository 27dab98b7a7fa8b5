package preflight

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"stylus/internal/config"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckSlskd_OK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v0/session" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if r.Header.Get("X-API-Key") != "good-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	result := CheckSlskd(context.Background(), srv.URL, "good-key")
	if !result.Passed {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}
}

func TestCheckSlskd_BadKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	result := CheckSlskd(context.Background(), srv.URL, "bad-key")
	if result.Passed {
		t.Fatal("expected failure for bad key")
	}
	if result.Detail != "auth failed (invalid api key)" {
		t.Fatalf("unexpected detail: %s", result.Detail)
	}
}

func TestCheckSlskd_MissingURL(t *testing.T) {
	result := CheckSlskd(context.Background(), "", "key")
	if result.Passed {
		t.Fatal("expected failure for missing URL")
	}
}

func TestCheckSlskd_MissingKey(t *testing.T) {
	result := CheckSlskd(context.Background(), "http://localhost", "")
	if result.Passed {
		t.Fatal("expected failure for missing key")
	}
}

func TestCheckSpotify_OK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "id" || pass != "secret" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"tok","expires_in":3600}`))
	}))
	defer srv.Close()

	result := CheckSpotify(context.Background(), config.Spotify{
		ClientID:     "id",
		ClientSecret: "secret",
		TokenURL:     srv.URL,
	})
	if !result.Passed {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}
}

func TestCheckSpotify_BadCredentials(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	result := CheckSpotify(context.Background(), config.Spotify{
		ClientID:     "id",
		ClientSecret: "wrong",
		TokenURL:     srv.URL,
	})
	if result.Passed {
		t.Fatal("expected failure for rejected credentials")
	}
	if result.Detail != "auth failed (invalid client credentials)" {
		t.Fatalf("unexpected detail: %s", result.Detail)
	}
}

func TestCheckSpotify_IncompletePair(t *testing.T) {
	result := CheckSpotify(context.Background(), config.Spotify{ClientID: "id"})
	if result.Passed {
		t.Fatal("expected failure for half-configured credentials")
	}
}

func TestCheckTelegram_OK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/bot123:abc/getMe" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true,"result":{"id":123,"is_bot":true}}`))
	}))
	defer srv.Close()

	result := CheckTelegram(context.Background(), srv.URL, "123:abc")
	if !result.Passed {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}
}

func TestCheckTelegram_BadToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	result := CheckTelegram(context.Background(), srv.URL, "bad")
	if result.Passed {
		t.Fatal("expected failure for rejected token")
	}
}

func TestCheckTelegram_MissingToken(t *testing.T) {
	result := CheckTelegram(context.Background(), "", "")
	if result.Passed {
		t.Fatal("expected failure for missing token")
	}
}

func TestRunAll_NilConfig(t *testing.T) {
	results := RunAll(context.Background(), nil)
	if results != nil {
		t.Fatal("expected nil results for nil config")
	}
}

func TestRunAll_SkipsUnconfiguredFeatures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	cfg := config.Default()
	cfg.Paths.StagingDir = t.TempDir()
	cfg.Paths.LibraryDir = t.TempDir()
	cfg.Paths.ReviewDir = ""
	cfg.Paths.DownloadDir = ""
	cfg.Slskd.URL = srv.URL
	cfg.Slskd.APIKey = "key"
	cfg.Spotify.ClientID = ""
	cfg.Spotify.ClientSecret = ""
	cfg.Telegram.Enabled = false
	cfg.Analysis.Enabled = false

	results := RunAll(context.Background(), &cfg)
	// Staging + library directories + slskd
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d: %+v", len(results), results)
	}
	for _, r := range results {
		if !r.Passed {
			t.Errorf("check %q failed: %s", r.Name, r.Detail)
		}
	}
}

func TestRunAll_IncludesSpotifyWhenConfigured(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/token" {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"access_token":"tok","expires_in":3600}`))
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	cfg := config.Default()
	cfg.Paths.StagingDir = t.TempDir()
	cfg.Paths.LibraryDir = ""
	cfg.Paths.ReviewDir = ""
	cfg.Paths.DownloadDir = ""
	cfg.Slskd.URL = srv.URL
	cfg.Slskd.APIKey = "key"
	cfg.Spotify.ClientID = "id"
	cfg.Spotify.ClientSecret = "secret"
	cfg.Spotify.TokenURL = srv.URL + "/token"
	cfg.Telegram.Enabled = false
	cfg.Analysis.Enabled = false

	results := RunAll(context.Background(), &cfg)
	found := false
	for _, r := range results {
		if r.Name == "Spotify" {
			found = true
			if !r.Passed {
				t.Errorf("Spotify check failed: %s", r.Detail)
			}
		}
	}
	if !found {
		t.Fatal("expected Spotify check in results")
	}
}

func TestCheckNtfyFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = ""
	result := CheckNtfyFromConfig(&cfg)
	if !result.Passed || result.Detail != "Disabled" {
		t.Fatalf("expected quiet pass when unconfigured, got %+v", result)
	}

	cfg.Notifications.NtfyTopic = "https://ntfy.sh/stylus"
	result = CheckNtfyFromConfig(&cfg)
	if !result.Passed {
		t.Fatalf("expected pass for configured topic, got %+v", result)
	}
}
