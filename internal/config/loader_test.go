package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/festboard/internal/config"
	"github.com/okian/festboard/internal/domain/fanout"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()
		// Keep a stray .env in the package directory out of the picture.
		_ = os.Setenv(config.EnvDotenv, filepath.Join(t.TempDir(), "missing.env"))
		defer clearConfigEnvVars()

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.APIBaseURL, convey.ShouldEqual, config.DefaultAPIBaseURL)
				convey.So(cfg.RequestTimeoutMS, convey.ShouldEqual, 10_000)
				convey.So(cfg.FanoutPolicy, convey.ShouldEqual, "fail_fast")
				convey.So(cfg.OTelEndpoint, convey.ShouldBeEmpty)
				convey.So(cfg.MetricsNamespace, convey.ShouldEqual, "festboard")
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("FESTBOARD_ADDR", ":8080")
			_ = os.Setenv("FESTBOARD_API_BASE_URL", "http://localhost:5000/api")
			_ = os.Setenv("FESTBOARD_FANOUT_LIMIT", "4")
			_ = os.Setenv("FESTBOARD_FANOUT_POLICY", "collect_all")
			_ = os.Setenv("FESTBOARD_REQUEST_TIMEOUT_MS", "0")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.APIBaseURL, convey.ShouldEqual, "http://localhost:5000/api")
				convey.So(cfg.FanoutLimit, convey.ShouldEqual, 4)
				convey.So(cfg.RequestTimeout(), convey.ShouldEqual, 0)
				p, err := cfg.Policy()
				convey.So(err, convey.ShouldBeNil)
				convey.So(p, convey.ShouldEqual, fanout.CollectAll)
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			tmpFile := createTempConfigFile(t, `
addr: ":9090"
log_format: json
fanout_limit: 8
service_name: festboard-staging
`)
			_ = os.Setenv(config.EnvConfig, tmpFile)

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from YAML file and keep other defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.LogFormat, convey.ShouldEqual, "json")
				convey.So(cfg.FanoutLimit, convey.ShouldEqual, 8)
				convey.So(cfg.ServiceName, convey.ShouldEqual, "festboard-staging")
				convey.So(cfg.APIBaseURL, convey.ShouldEqual, config.DefaultAPIBaseURL)
			})
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			tmpFile := createTempConfigFile(t, "addr: \":9090\"\nfanout_limit: 8\n")
			_ = os.Setenv(config.EnvConfig, tmpFile)
			_ = os.Setenv("FESTBOARD_ADDR", ":8080") // This should override the file

			cfg, err := config.Load(ctx)

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.FanoutLimit, convey.ShouldEqual, 8)
			})
		})

		convey.Convey("When a .env file is present", func() {
			dotenv := filepath.Join(t.TempDir(), ".env")
			convey.So(os.WriteFile(dotenv, []byte("FESTBOARD_LOG_LEVEL=debug\nFESTBOARD_ADDR=:7070\n"), 0o600), convey.ShouldBeNil)
			_ = os.Setenv(config.EnvDotenv, dotenv)
			_ = os.Setenv("FESTBOARD_ADDR", ":6060")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it fills unset variables without overriding the environment", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.LogLevel, convey.ShouldEqual, "debug")
				convey.So(cfg.Addr, convey.ShouldEqual, ":6060")
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			tmpFile := createTempConfigFile(t, "addr: [unterminated\n")
			_ = os.Setenv(config.EnvConfig, tmpFile)

			_, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv(config.EnvConfig, "/non/existent/file.yaml")

			_, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When loading config with invalid numeric environment variables", func() {
			_ = os.Setenv("FESTBOARD_FANOUT_LIMIT", "not_a_number")

			_, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
			})
		})
	})
}

func TestConfigValidate(t *testing.T) {
	convey.Convey("Given a default config", t, func() {
		cfg := config.New()

		convey.Convey("Then it is valid", func() {
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})

		convey.Convey("When addr is empty", func() {
			cfg.Addr = ""
			convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
		})

		convey.Convey("When the base URL is relative", func() {
			cfg.APIBaseURL = "/api"
			convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
		})

		convey.Convey("When the policy is unknown", func() {
			cfg.FanoutPolicy = "sometimes"
			err := cfg.Validate()
			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			convey.So(errors.Is(err, fanout.ErrUnknownPolicy), convey.ShouldBeTrue)
		})

		convey.Convey("When limits are negative", func() {
			cfg.FanoutLimit = -1
			convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
		})

		convey.Convey("When the log format is unknown", func() {
			cfg.LogFormat = "xml"
			convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
		})

		convey.Convey("When the metrics namespace is not a metric name", func() {
			for _, ns := range []string{"", "fest-board", "9fest"} {
				cfg.MetricsNamespace = ns
				convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
			}
			cfg.MetricsNamespace = "fest_board_eu"
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

func clearConfigEnvVars() {
	envVars := []string{
		config.EnvConfig,
		config.EnvDotenv,
		"FESTBOARD_ADDR",
		"FESTBOARD_LOG_LEVEL",
		"FESTBOARD_LOG_FORMAT",
		"FESTBOARD_API_BASE_URL",
		"FESTBOARD_REQUEST_TIMEOUT_MS",
		"FESTBOARD_METRICS_NAMESPACE",
		"FESTBOARD_FANOUT_LIMIT",
		"FESTBOARD_FANOUT_POLICY",
		"FESTBOARD_OTEL_ENDPOINT",
		"FESTBOARD_SERVICE_NAME",
	}
	for _, envVar := range envVars {
		_ = os.Unsetenv(envVar)
	}
}

func createTempConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "festboard.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}
