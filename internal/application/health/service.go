package health

import (
	"context"
	"encoding/json"
	"runtime"
	"strconv"
	"time"

	"serviceloop-backend/internal/infrastructure/database"
	"serviceloop-backend/internal/middleware"

	"github.com/redis/go-redis/v9"
)

// DBPinger is optional. If nil, database is reported as disconnected.
type DBPinger interface {
	Ping() error
}

type Report struct {
	Status       string               `json:"status"`
	Runtime      RuntimeInfo          `json:"runtime"`
	Traffic      TrafficInfo          `json:"traffic"`
	Dependencies map[string]DepStatus `json:"dependencies"`
	Schema       SchemaInfo           `json:"schema"`
}

type RuntimeInfo struct {
	UptimeSeconds int64  `json:"uptimeSeconds"`
	HeapMB        int    `json:"heapMb"`
	Goroutines    int    `json:"goroutines"`
	Platform      string `json:"platform"`
	GoVersion     string `json:"goVersion"`
}

type TrafficInfo struct {
	TotalRequests   int         `json:"totalRequests"`
	SuccessCount    int         `json:"successCount"`
	FailedCount     int         `json:"failedCount"`
	SuccessRate     string      `json:"successRate"`
	AvgResponseTime interface{} `json:"avgResponseTime"`
	LastRequest     interface{} `json:"lastRequest"`
}

type DepStatus struct {
	Status string `json:"status"`
	PingMs *int64 `json:"pingMs"`
}

// SchemaInfo lists tables that were missing when the service started.
type SchemaInfo struct {
	Ready   bool     `json:"ready"`
	Missing []string `json:"missing"`
}

// Collect gathers dependency pings, Redis traffic counters and schema readiness.
func Collect(ctx context.Context, rdb *redis.Client, db DBPinger, ready *database.Readiness) Report {
	report := Report{Dependencies: make(map[string]DepStatus)}

	report.Dependencies["database"] = pingDB(db)

	redisDep := DepStatus{Status: "disconnected"}
	traffic := TrafficInfo{AvgResponseTime: 0, SuccessRate: "100"}
	startMs := time.Now().UnixMilli()
	if rdb != nil {
		start := time.Now()
		if err := rdb.Ping(ctx).Err(); err == nil {
			ms := time.Since(start).Milliseconds()
			redisDep = DepStatus{Status: "connected", PingMs: &ms}
			startMs = readTraffic(ctx, rdb, &traffic, startMs)
		} else {
			redisDep.Status = "error"
		}
	}
	report.Dependencies["redis"] = redisDep
	report.Traffic = traffic

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	uptime := (time.Now().UnixMilli() - startMs) / 1000
	if uptime < 0 {
		uptime = 0
	}
	report.Runtime = RuntimeInfo{
		UptimeSeconds: uptime,
		HeapMB:        int(m.HeapInuse / 1024 / 1024),
		Goroutines:    runtime.NumGoroutine(),
		Platform:      runtime.GOOS + " (" + runtime.GOARCH + ")",
		GoVersion:     runtime.Version(),
	}

	missing := ready.Missing()
	report.Schema = SchemaInfo{Ready: len(missing) == 0, Missing: missing}

	if report.Dependencies["database"].Status == "connected" && redisDep.Status == "connected" && report.Schema.Ready {
		report.Status = "ok"
	} else {
		report.Status = "issue"
	}
	return report
}

func pingDB(db DBPinger) DepStatus {
	if db == nil {
		return DepStatus{Status: "disconnected"}
	}
	start := time.Now()
	if err := db.Ping(); err != nil {
		return DepStatus{Status: "error"}
	}
	ms := time.Since(start).Milliseconds()
	return DepStatus{Status: "connected", PingMs: &ms}
}

// readTraffic fills t from the counters written by middleware.HealthMarker and
// returns the recorded start time, seeding it when absent.
func readTraffic(ctx context.Context, rdb *redis.Client, t *TrafficInfo, startMs int64) int64 {
	vals, err := rdb.MGet(ctx,
		middleware.KeyReqTotal, middleware.KeyReqErrors, middleware.KeyResTime,
		middleware.KeyResCount, middleware.KeyStartTime, middleware.KeyLastReq,
	).Result()
	if err != nil {
		return startMs
	}
	str := func(i int) string {
		if s, ok := vals[i].(string); ok {
			return s
		}
		return ""
	}

	if s := str(4); s != "" {
		if v, err := strconv.ParseInt(s, 10, 64); err == nil {
			startMs = v
		}
	} else {
		rdb.Set(ctx, middleware.KeyStartTime, startMs, 0)
	}

	t.TotalRequests, _ = strconv.Atoi(str(0))
	t.FailedCount, _ = strconv.Atoi(str(1))
	t.SuccessCount = t.TotalRequests - t.FailedCount
	if t.TotalRequests > 0 {
		t.SuccessRate = strconv.FormatFloat(float64(t.SuccessCount)/float64(t.TotalRequests)*100, 'f', 1, 64)
	}
	timeSum, _ := strconv.ParseFloat(str(2), 64)
	count, _ := strconv.Atoi(str(3))
	if count > 0 {
		t.AvgResponseTime = strconv.FormatFloat(timeSum/float64(count), 'f', 2, 64)
	}
	if s := str(5); s != "" {
		var last map[string]interface{}
		if json.Unmarshal([]byte(s), &last) == nil {
			t.LastRequest = last
		}
	}
	return startMs
}

// ResetTraffic clears the counters and restarts the uptime clock.
func ResetTraffic(ctx context.Context, rdb *redis.Client) error {
	keys := []string{
		middleware.KeyReqTotal, middleware.KeyReqErrors, middleware.KeyResTime,
		middleware.KeyResCount, middleware.KeyStartTime, middleware.KeyLastReq, middleware.KeyErrorLog,
	}
	if err := rdb.Del(ctx, keys...).Err(); err != nil {
		return err
	}
	return rdb.Set(ctx, middleware.KeyStartTime, strconv.FormatInt(time.Now().UnixMilli(), 10), 0).Err()
}

// RecentErrors returns up to limit entries from the error log, newest first.
func RecentErrors(ctx context.Context, rdb *redis.Client, limit int64) ([]map[string]interface{}, error) {
	entries, err := rdb.LRange(ctx, middleware.KeyErrorLog, 0, limit-1).Result()
	if err != nil {
		return nil, err
	}
	out := make([]map[string]interface{}, 0, len(entries))
	for _, s := range entries {
		var m map[string]interface{}
		if json.Unmarshal([]byte(s), &m) == nil && m != nil {
			out = append(out, m)
		}
	}
	return out, nil
}
