package store

import (
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestFactoryDrivers(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	tests := []struct {
		name    string
		cfg     Config
		deps    Dependencies
		wantErr bool
	}{
		{name: "default is memory", cfg: Config{}, wantErr: false},
		{name: "memory", cfg: Config{Driver: DriverMemory}, wantErr: false},
		{name: "sqlite", cfg: Config{Driver: DriverSQLite}, deps: Dependencies{SQLiteDB: db}, wantErr: false},
		{name: "sqlite without handle", cfg: Config{Driver: DriverSQLite}, wantErr: true},
		{name: "unknown driver", cfg: Config{Driver: "etcd"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := New(tt.cfg, tt.deps)
			if (err != nil) != tt.wantErr {
				t.Fatalf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && s == nil {
				t.Fatal("expected store instance")
			}
		})
	}
}
