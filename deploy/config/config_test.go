package config

import (
	"strings"
	"testing"
	"time"
)

func TestReadDefaults(t *testing.T) {
	cfg, err := Read()
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Storage.Driver != DriverPostgres {
		t.Errorf("driver = %q", cfg.Storage.Driver)
	}
	if cfg.Dashboard.DefaultMetal != "gold" || cfg.Dashboard.Window != 365*24*time.Hour {
		t.Errorf("dashboard = %+v", cfg.Dashboard)
	}
	if !cfg.Dashboard.IgnoreNull {
		t.Error("ignore null should default to true")
	}
	if cfg.HTTPServer.Port != "12000" {
		t.Errorf("port = %q", cfg.HTTPServer.Port)
	}
	start, err := cfg.Fetcher.Start()
	if err != nil || start.Year() != 2000 {
		t.Errorf("start = %v, %v", start, err)
	}
}

func TestReadOverrides(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", "/tmp/rates.sqlite")
	t.Setenv("DASHBOARD_DEFAULT_METAL", "palladium")
	t.Setenv("FETCHER_SCHEDULE", "0 */6 * * *")

	cfg, err := Read()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Storage.Driver != DriverSQLite || cfg.Storage.SQLitePath != "/tmp/rates.sqlite" {
		t.Errorf("storage = %+v", cfg.Storage)
	}
	if cfg.Dashboard.DefaultMetal != "palladium" {
		t.Errorf("metal = %q", cfg.Dashboard.DefaultMetal)
	}
}

func TestValidate(t *testing.T) {
	tests := map[string]string{
		"STORAGE_DRIVER":          "mysql",
		"DASHBOARD_DEFAULT_METAL": "copper",
		"FETCHER_SCHEDULE":        "every tuesday",
		"FETCHER_START_DATE":      "01.01.2000",
	}
	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			if _, err := Read(); err == nil {
				t.Errorf("%s=%q accepted", key, value)
			}
		})
	}
}

func TestStringMasksSecrets(t *testing.T) {
	cfg := Config{}
	cfg.Storage.Password = "hunter2"
	cfg.Fetcher.Cookies = "__ddg1=secret"

	s := cfg.String()
	if strings.Contains(s, "hunter2") || strings.Contains(s, "secret") {
		t.Errorf("secrets leaked: %s", s)
	}
}

func TestDSN(t *testing.T) {
	s := Storage{Host: "db", Port: 5432, User: "u", Password: "p", DBName: "metals", SSLMode: "disable", Schema: "public"}
	want := "host=db port=5432 user=u password=p dbname=metals sslmode=disable search_path=public"
	if got := s.DSN(); got != want {
		t.Errorf("DSN() = %q", got)
	}
}
