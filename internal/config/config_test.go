package config_test

import (
	"testing"

	"github.com/okian/helium/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.LogLevel, convey.ShouldEqual, "info")
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.DBPath, convey.ShouldEqual, "helium.db")
			convey.So(cfg.TokenTTLDays, convey.ShouldEqual, 365)
			convey.So(cfg.EventQueueSize, convey.ShouldEqual, 10_000)
			convey.So(cfg.SubscriberBuffer, convey.ShouldEqual, 256)
			convey.So(cfg.FeedRetrySeconds, convey.ShouldEqual, 5)
		})

		convey.Convey("Then it should leave the secret and feed unset", func() {
			convey.So(cfg.JWTSecret, convey.ShouldEqual, "")
			convey.So(cfg.FeedURL, convey.ShouldEqual, "")
			convey.So(cfg.DisableRegistration, convey.ShouldBeFalse)
		})
	})
}
