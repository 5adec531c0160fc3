package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Broker.ClassifyQueue != "classify" || cfg.Broker.TrainQueue != "train" {
		t.Fatalf("unexpected default queues: %+v", cfg.Broker)
	}
	if cfg.Crawler.StaleThreshold() != 30*time.Minute {
		t.Fatalf("unexpected stale threshold: %v", cfg.Crawler.StaleThreshold())
	}
	if cfg.Classifier.AutoPublish {
		t.Fatal("auto-publish must default to off")
	}
	if cfg.Classifier.NotReadyBackoff != 10*time.Second {
		t.Fatalf("unexpected backoff default: %v", cfg.Classifier.NotReadyBackoff)
	}
}

func TestLoadMergesFileOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `broker:
  url: nats://broker:4222
  classifyQueue: classify-v2
crawler:
  staleMinutes: 60
classifier:
  autoPublish: true
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("SENTIFEED_CONFIG", path)

	cfg := Load()

	if cfg.Broker.URL != "nats://broker:4222" {
		t.Fatalf("broker url not merged: %s", cfg.Broker.URL)
	}
	if cfg.Broker.ClassifyQueue != "classify-v2" {
		t.Fatalf("classify queue not merged: %s", cfg.Broker.ClassifyQueue)
	}
	if cfg.Broker.TrainQueue != "train" {
		t.Fatalf("unset file field must keep its default: %s", cfg.Broker.TrainQueue)
	}
	if cfg.Crawler.StaleMinutes != 60 {
		t.Fatalf("stale minutes not merged: %d", cfg.Crawler.StaleMinutes)
	}
	if !cfg.Classifier.AutoPublish {
		t.Fatal("auto-publish not merged")
	}
}

func TestLoadEnvOverridesWin(t *testing.T) {
	t.Setenv("DATABASE_DSN", "postgres://env/db")
	t.Setenv("BROKER_URL", "nats://env:4222")
	t.Setenv("AUTO_PUBLISH", "true")
	t.Setenv("CLASSIFIER_SNAPSHOT", "/var/lib/sentifeed/model.gob")

	cfg := Load()

	if cfg.Database.DSN != "postgres://env/db" {
		t.Fatalf("dsn override ignored: %s", cfg.Database.DSN)
	}
	if cfg.Broker.URL != "nats://env:4222" {
		t.Fatalf("broker override ignored: %s", cfg.Broker.URL)
	}
	if !cfg.Classifier.AutoPublish {
		t.Fatal("auto-publish override ignored")
	}
	if cfg.Classifier.SnapshotPath != "/var/lib/sentifeed/model.gob" {
		t.Fatalf("snapshot override ignored: %s", cfg.Classifier.SnapshotPath)
	}
}

func TestLoadUnreadableFileFallsBack(t *testing.T) {
	t.Setenv("SENTIFEED_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))

	cfg := Load()

	if cfg.Broker.URL != "nats://localhost:4222" {
		t.Fatalf("expected defaults on unreadable config, got %s", cfg.Broker.URL)
	}
}
