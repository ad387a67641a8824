package backend

import (
	"context"
	"testing"

	"golang.org/x/oauth2"

	"budgetwise/internal/api"
	"budgetwise/internal/backend/memory"
	"budgetwise/internal/config"
)

func TestConfigValidate(t *testing.T) {
	cases := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"memory", Config{Type: MemoryBackend}, false},
		{"remote", Config{Type: RemoteBackend, APIBaseURL: "http://localhost:8081/api"}, false},
		{"remote without url", Config{Type: RemoteBackend}, true},
		{"remote relative url", Config{Type: RemoteBackend, APIBaseURL: "/api"}, true},
		{"unknown", Config{Type: "sheets"}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if (err != nil) != tc.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestFromAppConfig(t *testing.T) {
	if _, err := FromAppConfig(nil); err == nil {
		t.Fatal("expected error for nil config")
	}
	cfg, err := FromAppConfig(&config.Config{DataBackend: "remote", APIBaseURL: "https://api.example.com/api"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Type != RemoteBackend || cfg.APIBaseURL != "https://api.example.com/api" {
		t.Fatalf("cfg = %+v", cfg)
	}
}

func TestCreateProvider(t *testing.T) {
	f := NewFactory(nil)
	ctx := context.Background()

	res, err := f.CreateProvider(ctx, Config{Type: RemoteBackend, APIBaseURL: "http://localhost:8081/api"})
	if err != nil {
		t.Fatalf("remote: %v", err)
	}
	tokens := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "t"})
	if _, ok := res.Provider.For(Principal{Subject: "s", Tokens: tokens}).(*api.Client); !ok {
		t.Fatalf("remote provider should hand out api clients")
	}
	if err := res.Cleanup(); err != nil {
		t.Fatalf("cleanup: %v", err)
	}

	res, err = f.CreateProvider(ctx, Config{Type: MemoryBackend})
	if err != nil {
		t.Fatalf("memory: %v", err)
	}
	if _, ok := res.Provider.For(Principal{Subject: "s"}).(*memory.UserStore); !ok {
		t.Fatalf("memory provider should hand out user stores")
	}
}
