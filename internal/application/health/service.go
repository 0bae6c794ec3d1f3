package health

import (
	"context"
	"encoding/json"
	"net/http"
	"runtime"
	"strconv"
	"sync"
	"time"

	"petadopt-backend/internal/middleware"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

const ServiceName = "petadopt-api"

// DBPinger is optional. If nil, the database is reported as disconnected.
type DBPinger interface {
	Ping() error
}

// Report is the body of /health/json and the data behind the dashboard.
type Report struct {
	Service      string               `json:"service"`
	Status       string               `json:"status"`
	Runtime      RuntimeInfo          `json:"runtime"`
	Traffic      TrafficInfo          `json:"traffic"`
	Dependencies map[string]DepStatus `json:"dependencies"`
}

type RuntimeInfo struct {
	UptimeSeconds int64  `json:"uptimeSeconds"`
	HeapMB        int    `json:"heapMB"`
	AllocMB       int    `json:"allocMB"`
	Goroutines    int    `json:"goroutines"`
	Platform      string `json:"platform"`
	GoVersion     string `json:"goVersion"`
}

type TrafficInfo struct {
	TotalRequests   int                    `json:"totalRequests"`
	SuccessCount    int                    `json:"successCount"`
	FailedCount     int                    `json:"failedCount"`
	SuccessRate     string                 `json:"successRate"`
	AvgResponseTime string                 `json:"avgResponseTime"`
	LastRequest     map[string]interface{} `json:"lastRequest"`
}

type DepStatus struct {
	Status string `json:"status"`
	PingMs *int64 `json:"pingMs"`
}

// Collector gathers the report. External maps a dependency name to a URL that
// answers a plain GET (e.g. the image host).
type Collector struct {
	Rdb      *redis.Client
	DB       DBPinger
	External map[string]string
	Client   *http.Client
}

// Collect never fails; unreachable dependencies are reported as such.
func (c *Collector) Collect(ctx context.Context) Report {
	report := Report{
		Service:      ServiceName,
		Dependencies: make(map[string]DepStatus),
		Traffic:      TrafficInfo{SuccessRate: "100", AvgResponseTime: "0"},
	}

	dbStatus := DepStatus{Status: "disconnected"}
	if c.DB != nil {
		start := time.Now()
		if err := c.DB.Ping(); err == nil {
			dbStatus = DepStatus{Status: "connected", PingMs: since(start)}
		} else {
			dbStatus.Status = "error"
		}
	}
	report.Dependencies["database"] = dbStatus

	startMs := time.Now().UnixMilli()
	redisStatus := DepStatus{Status: "disconnected"}
	if c.Rdb != nil {
		start := time.Now()
		if err := c.Rdb.Ping(ctx).Err(); err == nil {
			redisStatus = DepStatus{Status: "connected", PingMs: since(start)}
			startMs = c.readTraffic(ctx, &report.Traffic, startMs)
		} else {
			redisStatus.Status = "error"
		}
	}
	report.Dependencies["redis"] = redisStatus

	for name, st := range c.pingExternal(ctx) {
		report.Dependencies[name] = st
	}

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	uptime := (time.Now().UnixMilli() - startMs) / 1000
	if uptime < 0 {
		uptime = 0
	}
	report.Runtime = RuntimeInfo{
		UptimeSeconds: uptime,
		HeapMB:        int(m.HeapInuse / 1024 / 1024),
		AllocMB:       int(m.Alloc / 1024 / 1024),
		Goroutines:    runtime.NumGoroutine(),
		Platform:      runtime.GOOS + " (" + runtime.GOARCH + ")",
		GoVersion:     runtime.Version(),
	}

	report.Status = "issue"
	if dbStatus.Status == "connected" && redisStatus.Status == "connected" {
		report.Status = "ok"
	}
	return report
}

// readTraffic fills stats from the counters HealthMarker maintains and returns the stats start time.
func (c *Collector) readTraffic(ctx context.Context, stats *TrafficInfo, startMs int64) int64 {
	pipe := c.Rdb.Pipeline()
	total := pipe.Get(ctx, middleware.KeyReqTotal)
	failed := pipe.Get(ctx, middleware.KeyReqErrors)
	timeSum := pipe.Get(ctx, middleware.KeyResTime)
	count := pipe.Get(ctx, middleware.KeyResCount)
	started := pipe.Get(ctx, middleware.KeyStartTime)
	last := pipe.Get(ctx, middleware.KeyLastReq)
	_, _ = pipe.Exec(ctx) // missing keys surface as redis.Nil per command

	if t, err := strconv.ParseInt(started.Val(), 10, 64); err == nil {
		startMs = t
	} else {
		c.Rdb.SetNX(ctx, middleware.KeyStartTime, startMs, 0)
	}

	stats.TotalRequests, _ = strconv.Atoi(total.Val())
	stats.FailedCount, _ = strconv.Atoi(failed.Val())
	stats.SuccessCount = stats.TotalRequests - stats.FailedCount
	if stats.TotalRequests > 0 {
		stats.SuccessRate = strconv.FormatFloat(float64(stats.SuccessCount)/float64(stats.TotalRequests)*100, 'f', 1, 64)
	}
	sum, _ := strconv.ParseFloat(timeSum.Val(), 64)
	n, _ := strconv.Atoi(count.Val())
	if n > 0 {
		stats.AvgResponseTime = strconv.FormatFloat(sum/float64(n), 'f', 2, 64)
	}
	if s := last.Val(); s != "" {
		_ = json.Unmarshal([]byte(s), &stats.LastRequest)
	}
	return startMs
}

func (c *Collector) pingExternal(ctx context.Context) map[string]DepStatus {
	out := make(map[string]DepStatus, len(c.External))
	if len(c.External) == 0 {
		return out
	}
	client := c.Client
	if client == nil {
		client = &http.Client{Timeout: 3 * time.Second}
	}
	var mu sync.Mutex
	var g errgroup.Group
	for name, url := range c.External {
		g.Go(func() error {
			st := DepStatus{Status: "unreachable"}
			if ms := httpPing(ctx, client, url); ms != nil {
				st = DepStatus{Status: "reachable", PingMs: ms}
			}
			mu.Lock()
			out[name] = st
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func httpPing(ctx context.Context, client *http.Client, url string) *int64 {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil
	}
	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return nil
	}
	resp.Body.Close()
	return since(start)
}

func since(start time.Time) *int64 {
	ms := time.Since(start).Milliseconds()
	return &ms
}

// ResetStats clears the traffic counters and restarts the uptime clock.
func ResetStats(ctx context.Context, rdb *redis.Client) error {
	keys := []string{middleware.KeyReqTotal, middleware.KeyReqErrors, middleware.KeyResTime,
		middleware.KeyResCount, middleware.KeyStartTime, middleware.KeyLastReq, middleware.KeyErrorLog}
	pipe := rdb.TxPipeline()
	pipe.Del(ctx, keys...)
	pipe.Set(ctx, middleware.KeyStartTime, strconv.FormatInt(time.Now().UnixMilli(), 10), 0)
	_, err := pipe.Exec(ctx)
	return err
}

// RecentErrors returns the newest logged 5xx entries.
func RecentErrors(ctx context.Context, rdb *redis.Client) ([]map[string]interface{}, error) {
	entries, err := rdb.LRange(ctx, middleware.KeyErrorLog, 0, 49).Result()
	if err != nil {
		return []map[string]interface{}{}, err
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
