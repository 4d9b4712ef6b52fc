package config_test

import (
	"testing"
	"time"

	"github.com/okian/sniped/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.HistoryLimit, convey.ShouldEqual, 100)
			convey.So(cfg.SelfFallback, convey.ShouldEqual, config.SelfFallbackProceed)
			convey.So(cfg.CacheBackend, convey.ShouldEqual, config.CacheMemory)
			convey.So(cfg.RateLimitPerSecond, convey.ShouldEqual, 15)
			convey.So(cfg.RateLimitPerTwoMinutes, convey.ShouldEqual, 90)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})

		convey.Convey("Then duration helpers convert units", func() {
			convey.So(cfg.RequestTimeout(), convey.ShouldEqual, 10*time.Second)
			convey.So(cfg.SearchTimeout(), convey.ShouldEqual, 2*time.Minute)
			convey.So(cfg.CacheTTL(), convey.ShouldEqual, 10*time.Minute)
			convey.So(cfg.ChampionRefreshInterval(), convey.ShouldEqual, 6*time.Hour)
			convey.So(cfg.MetricsRefreshInterval(), convey.ShouldEqual, 10*time.Second)
		})

		convey.Convey("Then metrics are on under the sniped namespace", func() {
			convey.So(cfg.MetricsEnabled, convey.ShouldBeTrue)
			convey.So(cfg.MetricsNamespace, convey.ShouldEqual, "sniped")
			convey.So(cfg.MetricsLabels, convey.ShouldBeEmpty)
		})

		convey.Convey("Then the write timeout outlasts both search stages", func() {
			convey.So(cfg.WriteTimeout(), convey.ShouldBeGreaterThan, 2*cfg.SearchTimeout())

			cfg.SearchTimeoutMS = 1_000
			convey.So(cfg.WriteTimeout(), convey.ShouldEqual, 12*time.Second)
		})
	})
}
