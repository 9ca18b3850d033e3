package types

import (
	"errors"
	"testing"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr error
	}{
		{
			name:    "empty backend returns ErrBackendEmpty",
			config:  Config{Backend: "", DataDir: "/tmp/data"},
			wantErr: ErrBackendEmpty,
		},
		{
			name:    "unknown backend returns ErrBackendUnknown",
			config:  Config{Backend: "postgres", DataDir: "/tmp/data"},
			wantErr: ErrBackendUnknown,
		},
		{
			name:    "valid sqlite config",
			config:  Config{Backend: "sqlite", DataDir: "/tmp/data"},
			wantErr: nil,
		},
		{
			name:    "in-memory sqlite config",
			config:  Config{Backend: "sqlite", DataDir: MemoryDataDir},
			wantErr: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("expected nil error, got %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error %v, got nil", tt.wantErr)
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected error %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestConfigDatabaseFileName(t *testing.T) {
	if got := (Config{}).DatabaseFileName(); got != DefaultDatabaseFile {
		t.Fatalf("expected %q, got %q", DefaultDatabaseFile, got)
	}
	if got := (Config{DatabaseFile: "other.db"}).DatabaseFileName(); got != "other.db" {
		t.Fatalf("expected other.db, got %q", got)
	}
	if !(Config{DataDir: MemoryDataDir}).InMemory() {
		t.Fatal("expected in-memory config")
	}
}
