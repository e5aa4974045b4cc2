package metrics

import (
	"os"
	"runtime"
	"time"

	"github.com/dustin/go-humanize"
)

var startedAt = time.Now()

// SysHealth is a snapshot of process health for the /status command.
type SysHealth struct {
	Alloc      string
	Sys        string
	NumGC      uint32
	Goroutines int
	Uptime     time.Duration
	DBSize     string
}

// GetSysHealth collects real-time health data. dbPath may be empty.
func GetSysHealth(dbPath string) SysHealth {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	h := SysHealth{
		Alloc:      humanize.Bytes(m.Alloc),
		Sys:        humanize.Bytes(m.Sys),
		NumGC:      m.NumGC,
		Goroutines: runtime.NumGoroutine(),
		Uptime:     time.Since(startedAt).Round(time.Second),
		DBSize:     "n/a",
	}
	if dbPath != "" {
		if info, err := os.Stat(dbPath); err == nil {
			h.DBSize = humanize.Bytes(uint64(info.Size()))
		}
	}
	return h
}
