package cfg

import (
	"errors"
	"testing"
	"time"

	"github.com/DRSN-tech/storefront/pkg/e"
	"github.com/DRSN-tech/storefront/pkg/logger"
)

func TestLoadMemoryDefaults(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("REDIS_ADDR", "")
	t.Setenv("MINIO_ENDPOINT", "")
	t.Setenv("KAFKA_BROKERS", "")
	t.Setenv("BOT_TOKEN", "")
	t.Setenv("ADMIN_TOKEN", "")

	c, err := Load(logger.NewNopLogger())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if c.Storage.Driver != StorageDriverMemory || c.Db != nil {
		t.Fatalf("expected memory storage without postgres config, got %+v / %+v", c.Storage, c.Db)
	}
	if c.Redis != nil || c.Minio != nil || c.Kafka != nil || c.Telegram != nil {
		t.Fatalf("optional subsystems must be disabled by default")
	}
	if c.Admin.Enabled() {
		t.Fatalf("admin routes must be disabled without a token")
	}
	if c.Http.Port != "8080" || c.Grpc.Port != "8091" {
		t.Fatalf("unexpected ports %q %q", c.Http.Port, c.Grpc.Port)
	}
	if c.Notifier.MaxRetries != 3 || c.Notifier.Timeout != 30*time.Second {
		t.Fatalf("unexpected notifier defaults %+v", c.Notifier)
	}
}

func TestLoadPostgresRequiresCredentials(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "postgres")
	t.Setenv("POSTGRES_USER", "")
	t.Setenv("POSTGRES_PASSWORD", "")
	t.Setenv("POSTGRES_DB", "")

	if _, err := Load(logger.NewNopLogger()); err == nil {
		t.Fatalf("expected error without POSTGRES_USER")
	}
}

func TestLoadOptionalSubsystems(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "postgres")
	t.Setenv("POSTGRES_USER", "shop")
	t.Setenv("POSTGRES_PASSWORD", "secret")
	t.Setenv("POSTGRES_DB", "shop")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("CATALOG_TTL", "30s")
	t.Setenv("MINIO_ENDPOINT", "minio:9000")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("BOT_TOKEN", "123:abc")
	t.Setenv("ADMIN_TOKEN", "root")
	t.Setenv("PUBLIC_BASE_URL", "https://shop.example/")

	c, err := Load(logger.NewNopLogger())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if c.Db == nil || c.Db.DBName != "shop" {
		t.Fatalf("postgres config missing: %+v", c.Db)
	}
	if c.Redis == nil || c.Redis.CatalogTTL != 30*time.Second {
		t.Fatalf("redis config: %+v", c.Redis)
	}
	if c.Minio == nil || c.Minio.BucketName != "product-images" {
		t.Fatalf("minio config: %+v", c.Minio)
	}
	if c.Kafka == nil || len(c.Kafka.Brokers) != 2 || c.Kafka.Topic != "orders.placed" {
		t.Fatalf("kafka config: %+v", c.Kafka)
	}
	if c.Telegram == nil || c.Telegram.APIURL != "https://api.telegram.org" {
		t.Fatalf("telegram config: %+v", c.Telegram)
	}
	if !c.Admin.Enabled() {
		t.Fatalf("admin must be enabled")
	}
	if c.Http.PublicBaseURL != "https://shop.example" {
		t.Fatalf("public base url = %q", c.Http.PublicBaseURL)
	}
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "sqlite")

	_, err := Load(logger.NewNopLogger())
	if !errors.Is(err, e.ErrIncorrectEnvVariable) {
		t.Fatalf("expected ErrIncorrectEnvVariable, got %v", err)
	}
}

func TestLoadRejectsBadDuration(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("NOTIFY_TIMEOUT", "soon")

	if _, err := Load(logger.NewNopLogger()); err == nil {
		t.Fatalf("expected error for invalid NOTIFY_TIMEOUT")
	}
}
