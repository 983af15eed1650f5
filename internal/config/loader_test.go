package config_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/okian/nameswap/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()
		defer clearConfigEnvVars()

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.BaselineRating, convey.ShouldEqual, 1200)
				convey.So(cfg.SamplerMaxAttempts, convey.ShouldEqual, 5)
				convey.So(cfg.FallbackLimit, convey.ShouldEqual, 100)
				convey.So(cfg.StorageDriver, convey.ShouldEqual, "memory")
				convey.So(cfg.StorageDSN, convey.ShouldBeEmpty)
				convey.So(cfg.LogFormat, convey.ShouldEqual, "text")
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("NAMESWAP_ADDR", ":8080")
			_ = os.Setenv("NAMESWAP_BASELINE_RATING", "1500")
			_ = os.Setenv("NAMESWAP_STORAGE_DRIVER", "sqlite")
			_ = os.Setenv("NAMESWAP_STORAGE_DSN", "file:test.db")
			_ = os.Setenv("NAMESWAP_DEDUPE_SIZE", "10")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.BaselineRating, convey.ShouldEqual, 1500)
				convey.So(cfg.StorageDriver, convey.ShouldEqual, "sqlite")
				convey.So(cfg.StorageDSN, convey.ShouldEqual, "file:test.db")
				convey.So(cfg.DedupeSize, convey.ShouldEqual, 10)
			})
		})

		convey.Convey("When only the postgres driver is selected", func() {
			_ = os.Setenv("NAMESWAP_STORAGE_DRIVER", "postgres")

			cfg, err := config.Load(ctx)

			convey.Convey("Then no sqlite path should leak into the DSN", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.StorageDriver, convey.ShouldEqual, "postgres")
				convey.So(cfg.StorageDSN, convey.ShouldBeEmpty)
			})
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			tmpFile := createTempConfigFile(t, `
addr: ":9090"
fallback_limit: 25
storage_driver: redis
redis_addr: "cache:6379"
redis_db: 3
`)
			_ = os.Setenv("NAMESWAP_CONFIG", tmpFile)
			_ = os.Setenv("NAMESWAP_ADDR", ":7070")

			cfg, err := config.Load(ctx)

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":7070")
				convey.So(cfg.FallbackLimit, convey.ShouldEqual, 25)
				convey.So(cfg.StorageDriver, convey.ShouldEqual, "redis")
				convey.So(cfg.RedisAddr, convey.ShouldEqual, "cache:6379")
				convey.So(cfg.RedisDB, convey.ShouldEqual, 3)
				convey.So(cfg.MaxLeaderboardLimit, convey.ShouldEqual, 100)
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			_ = os.Setenv("NAMESWAP_CONFIG", createTempConfigFile(t, `invalid: yaml: content: [`))

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv("NAMESWAP_CONFIG", "/non/existent/file.yaml")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with invalid numeric environment variables", func() {
			_ = os.Setenv("NAMESWAP_PERSIST_QUEUE_SIZE", "invalid")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with empty addr", func() {
			_ = os.Setenv("NAMESWAP_ADDR", "")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "addr must not be empty")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}

func TestConfigValidate(t *testing.T) {
	convey.Convey("Given the default config", t, func() {
		cfg := config.New()

		convey.Convey("Then it should be valid", func() {
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})

		convey.Convey("When the storage driver is unknown", func() {
			cfg.StorageDriver = "mongo"

			convey.Convey("Then validation should fail", func() {
				convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When a SQL driver has no DSN", func() {
			cfg.StorageDriver = "postgres"
			cfg.StorageDSN = ""

			convey.Convey("Then validation should leave the default to the storage layer", func() {
				convey.So(cfg.Validate(), convey.ShouldBeNil)
			})
		})

		convey.Convey("When the sampler may not draw at all", func() {
			cfg.SamplerMaxAttempts = 0

			convey.Convey("Then validation should fail", func() {
				convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the log level is unknown", func() {
			cfg.LogLevel = "loud"

			convey.Convey("Then validation should fail", func() {
				convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(cfg.Validate().Error(), convey.ShouldContainSubstring, "log_level")
			})
		})

		convey.Convey("When the log format is unknown", func() {
			cfg.LogFormat = "xml"

			convey.Convey("Then validation should fail", func() {
				convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})
	})
}

// Helper functions.

func clearConfigEnvVars() {
	envVars := []string{
		"NAMESWAP_CONFIG",
		"NAMESWAP_ADDR",
		"NAMESWAP_BASELINE_RATING",
		"NAMESWAP_STORAGE_DRIVER",
		"NAMESWAP_STORAGE_DSN",
		"NAMESWAP_DEDUPE_SIZE",
		"NAMESWAP_PERSIST_QUEUE_SIZE",
	}
	for _, envVar := range envVars {
		_ = os.Unsetenv(envVar)
	}
}

func createTempConfigFile(t *testing.T, content string) string {
	tmpFile, err := os.CreateTemp(t.TempDir(), "nameswap-config-*.yaml")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := tmpFile.WriteString(content); err != nil {
		t.Fatal(err)
	}
	if err := tmpFile.Close(); err != nil {
		t.Fatal(err)
	}
	return tmpFile.Name()
}
