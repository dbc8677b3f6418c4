package chart

import (
	"github.com/go-echarts/statsview"
	"github.com/go-echarts/statsview/viewer"
	"go.uber.org/zap"
)

// DefaultMonitorAddr is where the runtime monitor listens by default.
const DefaultMonitorAddr = "localhost:12600"

// LaunchMonitor serves live runtime charts (heap, goroutines, GC) at
// http://<addr>/debug/statsview while a long run is in progress.
// The returned function stops the server.
func LaunchMonitor(addr string, log *zap.Logger) (stop func()) {
	if addr == "" {
		addr = DefaultMonitorAddr
	}
	viewer.SetConfiguration(viewer.WithAddr(addr))
	mgr := statsview.New()
	go mgr.Start()

	log.Info("runtime monitor available", zap.String("url", "http://"+addr+"/debug/statsview"))
	return mgr.Stop
}
