package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestConfig_DefaultsAndValidate(t *testing.T) {
	dir := t.TempDir()
	f := filepath.Join(dir, "c.yaml")
	_ = os.WriteFile(f, []byte("DATA_PATH: ./crawl\nCACHE_TTL: 5s\n"), 0644)
	c, err := Load(f)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.DataSource != "auto" || c.Listen != ":3000" {
		t.Fatalf("defaults not applied: %+v", c)
	}
	if c.CacheTTL.Std() != 5*time.Second {
		t.Fatalf("ttl=%v want 5s", c.CacheTTL.Std())
	}
	if c.Database.RowLimit != 100 {
		t.Fatalf("row limit=%d want 100", c.Database.RowLimit)
	}
	if c.LogFormat == "" || c.LogLocale == "" || c.LogColor == "" {
		t.Fatalf("log defaults missing")
	}
}

func TestConfig_PlainSecondsTTL(t *testing.T) {
	f := filepath.Join(t.TempDir(), "c.yaml")
	_ = os.WriteFile(f, []byte("CACHE_TTL: 12\n"), 0644)
	c, err := Load(f)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.CacheTTL.Std() != 12*time.Second {
		t.Fatalf("ttl=%v want 12s", c.CacheTTL.Std())
	}
}

func TestConfig_MissingFileFallsBackToDefaults(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.CacheTTL.Std() != 30*time.Second || c.DataPath != "./data" {
		t.Fatalf("unexpected defaults: %+v", c)
	}
}

func TestConfig_Rejects(t *testing.T) {
	f := filepath.Join(t.TempDir(), "c.yaml")
	cases := []string{
		"DATA_SOURCE: redis\n",
		"DATA_SOURCE: postgres\n",
		"DATA_SOURCE: feed\n",
		"CACHE_TTL: soon\n",
	}
	for _, body := range cases {
		_ = os.WriteFile(f, []byte(body), 0644)
		if _, err := Load(f); err == nil {
			t.Fatalf("expect error for %q", body)
		}
	}
}

func TestDatabase_Tables(t *testing.T) {
	d := Database{TableList: " xhs_note, ,dy_aweme "}
	got := d.Tables()
	if len(got) != 2 || got[0] != "xhs_note" || got[1] != "dy_aweme" {
		t.Fatalf("tables=%v", got)
	}
}
