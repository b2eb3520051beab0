package qgrad

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestLoadConfig(t *testing.T) {
	Convey("Given no config file", t, func() {
		cfg, err := LoadConfig("")
		So(err, ShouldBeNil)

		Convey("Defaults are used", func() {
			def := NewConfig()
			So(cfg.Pool, ShouldResemble, def.Pool)
			So(cfg.Estimator.Seed, ShouldEqual, uint64(0))
			So(cfg.Precision, ShouldBeNil)
		})
	})

	Convey("Given a config file and environment overrides", t, func() {
		path := filepath.Join(t.TempDir(), "qgrad.yaml")
		So(os.WriteFile(path, []byte(`
precision: 0.02
pool:
  workers: 2
  task_timeout: 5s
estimator:
  seed: 7
  default_precision: 0.01
`), 0o600), ShouldBeNil)

		t.Setenv("QGRAD_POOL_WORKERS", "8")

		cfg, err := LoadConfig(path)
		So(err, ShouldBeNil)

		Convey("File values and environment are merged over the defaults", func() {
			So(cfg.Pool.Workers, ShouldEqual, 8)
			So(cfg.Pool.TaskTimeout, ShouldEqual, 5*time.Second)
			So(cfg.Pool.SchedulingTimeout, ShouldEqual, NewConfig().Pool.SchedulingTimeout)
			So(cfg.Estimator.Seed, ShouldEqual, uint64(7))
			So(cfg.Estimator.DefaultPrecision, ShouldEqual, 0.01)
			So(*cfg.Precision, ShouldEqual, 0.02)
		})
	})

	Convey("Given a negative precision", t, func() {
		path := filepath.Join(t.TempDir(), "qgrad.yaml")
		So(os.WriteFile(path, []byte("precision: -1\n"), 0o600), ShouldBeNil)

		_, err := LoadConfig(path)
		So(err, ShouldNotBeNil)
	})

	Convey("Given a missing config file", t, func() {
		_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
		So(err, ShouldNotBeNil)
	})
}
