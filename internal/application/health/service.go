package health

import (
	"context"
	"encoding/json"
	"runtime"
	"strconv"
	"time"

	"nhadat-backend/internal/middleware"

	"github.com/redis/go-redis/v9"
)

// Pinger is a dependency that can report whether it is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// CollectResult is the /health/json payload.
type CollectResult struct {
	Status       string               `json:"status"`
	Runtime      RuntimeInfo          `json:"runtime"`
	Traffic      TrafficInfo          `json:"traffic"`
	Dependencies map[string]DepStatus `json:"dependencies"`
}

type RuntimeInfo struct {
	UptimeSeconds int64      `json:"uptimeSeconds"`
	Memory        MemoryInfo `json:"memory"`
	Goroutines    int        `json:"goroutines"`
	Platform      string     `json:"platform"`
	GoVersion     string     `json:"goVersion"`
}

type MemoryInfo struct {
	AllocMB  int `json:"allocMb"`
	HeapInMB int `json:"heapInUseMb"`
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

// Checker collects health data. Nil dependencies are reported as disconnected.
type Checker struct {
	Redis   *redis.Client
	DB      Pinger
	Storage Pinger
	Timeout time.Duration
}

func (h *Checker) ping(ctx context.Context, p Pinger) DepStatus {
	if p == nil {
		return DepStatus{Status: "disconnected"}
	}
	timeout := h.Timeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	start := time.Now()
	if err := p.Ping(ctx); err != nil {
		return DepStatus{Status: "error"}
	}
	ms := time.Since(start).Milliseconds()
	return DepStatus{Status: "connected", PingMs: &ms}
}

// Collect gathers dependency status, runtime figures and the request counters
// kept in Redis by middleware.HealthMarker.
func (h *Checker) Collect(ctx context.Context) CollectResult {
	result := CollectResult{Dependencies: make(map[string]DepStatus)}
	result.Dependencies["database"] = h.ping(ctx, h.DB)
	result.Dependencies["storage"] = h.ping(ctx, h.Storage)

	var redisPinger Pinger
	if h.Redis != nil {
		redisPinger = PingFunc(func(ctx context.Context) error { return h.Redis.Ping(ctx).Err() })
	}
	redisStatus := h.ping(ctx, redisPinger)
	result.Dependencies["redis"] = redisStatus

	stats := TrafficInfo{AvgResponseTime: 0, SuccessRate: "100"}
	startTimeMs := time.Now().UnixMilli()
	if redisStatus.Status == "connected" {
		startTimeMs = h.readTraffic(ctx, &stats, startTimeMs)
	}
	result.Traffic = stats

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	uptimeSec := (time.Now().UnixMilli() - startTimeMs) / 1000
	if uptimeSec < 0 {
		uptimeSec = 0
	}
	result.Runtime = RuntimeInfo{
		UptimeSeconds: uptimeSec,
		Memory:        MemoryInfo{AllocMB: int(m.Alloc / 1024 / 1024), HeapInMB: int(m.HeapInuse / 1024 / 1024)},
		Goroutines:    runtime.NumGoroutine(),
		Platform:      runtime.GOOS + " (" + runtime.GOARCH + ")",
		GoVersion:     runtime.Version(),
	}

	// Redis only carries counters and rate limits, so it does not degrade the status.
	result.Status = "ok"
	for _, name := range []string{"database", "storage"} {
		if result.Dependencies[name].Status != "connected" {
			result.Status = "issue"
		}
	}
	return result
}

func (h *Checker) readTraffic(ctx context.Context, stats *TrafficInfo, startTimeMs int64) int64 {
	vals, err := h.Redis.MGet(ctx, middleware.KeyReqTotal, middleware.KeyReqErrors, middleware.KeyResTime,
		middleware.KeyResCount, middleware.KeyStartTime, middleware.KeyLastReq).Result()
	if err != nil {
		return startTimeMs
	}
	str := func(i int) string {
		s, _ := vals[i].(string)
		return s
	}
	if t, err := strconv.ParseInt(str(4), 10, 64); err == nil {
		startTimeMs = t
	} else {
		h.Redis.SetNX(ctx, middleware.KeyStartTime, startTimeMs, 0)
	}

	stats.TotalRequests, _ = strconv.Atoi(str(0))
	stats.FailedCount, _ = strconv.Atoi(str(1))
	stats.SuccessCount = stats.TotalRequests - stats.FailedCount
	if stats.TotalRequests > 0 {
		stats.SuccessRate = strconv.FormatFloat(float64(stats.SuccessCount)/float64(stats.TotalRequests)*100, 'f', 1, 64)
	}
	timeSum, _ := strconv.ParseFloat(str(2), 64)
	countSum, _ := strconv.Atoi(str(3))
	if countSum > 0 {
		stats.AvgResponseTime = strconv.FormatFloat(timeSum/float64(countSum), 'f', 2, 64)
	}
	if last := str(5); last != "" {
		var lastReq map[string]interface{}
		_ = json.Unmarshal([]byte(last), &lastReq)
		stats.LastRequest = lastReq
	}
	return startTimeMs
}

// Reset clears the request counters and restarts the uptime clock.
func (h *Checker) Reset(ctx context.Context) error {
	if err := h.Redis.Del(ctx, middleware.HealthKeys...).Err(); err != nil {
		return err
	}
	return h.Redis.Set(ctx, middleware.KeyStartTime, strconv.FormatInt(time.Now().UnixMilli(), 10), 0).Err()
}

// RecentErrors returns up to the last 50 logged server errors, newest first.
func (h *Checker) RecentErrors(ctx context.Context) ([]map[string]interface{}, error) {
	entries, err := h.Redis.LRange(ctx, middleware.KeyErrorLog, 0, 49).Result()
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
