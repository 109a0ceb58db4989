package logger

import (
	"context"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/aws/aws-sdk-go-v2/aws"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
)

type queryStat struct {
	requests int64
	bytes    int64
}

var (
	errorsGateway  int64
	errorsEngine   int64
	warnsGateway   int64
	warnsEngine    int64
	gatewayFetches int64
	gatewayRetries int64
	rateLimited    int64
	cacheHits      int64
	cacheMisses    int64
	scansCompleted int64
	signalsEmitted int64
	noSignals      int64
	queries        sync.Map // map[string]*queryStat keyed by upstream query type
)

func recordWarn(component string) {
	if strings.Contains(component, "gateway") {
		atomic.AddInt64(&warnsGateway, 1)
	} else if strings.Contains(component, "engine") {
		atomic.AddInt64(&warnsEngine, 1)
	}
}

func recordError(component string) {
	if strings.Contains(component, "gateway") {
		atomic.AddInt64(&errorsGateway, 1)
	} else if strings.Contains(component, "engine") {
		atomic.AddInt64(&errorsEngine, 1)
	}
}

// IncrementFetch records one completed upstream query of the given type along
// with the response payload size.
func IncrementFetch(queryType string, size int) {
	atomic.AddInt64(&gatewayFetches, 1)
	recordQuery(queryType, size)
}

func IncrementRetry() {
	atomic.AddInt64(&gatewayRetries, 1)
}

func IncrementRateLimited() {
	atomic.AddInt64(&rateLimited, 1)
}

func IncrementCacheHit() {
	atomic.AddInt64(&cacheHits, 1)
}

func IncrementCacheMiss() {
	atomic.AddInt64(&cacheMisses, 1)
}

func IncrementScan() {
	atomic.AddInt64(&scansCompleted, 1)
}

func IncrementSignal() {
	atomic.AddInt64(&signalsEmitted, 1)
}

func IncrementNoSignal() {
	atomic.AddInt64(&noSignals, 1)
}

func recordQuery(name string, size int) {
	v, _ := queries.LoadOrStore(name, &queryStat{})
	qs := v.(*queryStat)
	atomic.AddInt64(&qs.requests, 1)
	atomic.AddInt64(&qs.bytes, int64(size))
}

func startReport(ctx context.Context, log *Log, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		for {
			select {
			case <-ctx.Done():
				ticker.Stop()
				return
			case <-ticker.C:
				logReport(ctx, log)
			}
		}
	}()
}

// StartReport begins periodic logging of system and gateway statistics.
// It exposes the internal startReport function for use by other packages.
func StartReport(ctx context.Context, log *Log, interval time.Duration) {
	startReport(ctx, log, interval)
}

func logReport(ctx context.Context, log *Log) {
	cpuPercent, _ := cpu.Percent(0, false)
	memStats, _ := mem.VirtualMemory()
	queryData := map[string]map[string]int64{}
	queries.Range(func(k, v any) bool {
		name := k.(string)
		qs := v.(*queryStat)
		queryData[name] = map[string]int64{
			"requests": atomic.LoadInt64(&qs.requests),
			"bytes":    atomic.LoadInt64(&qs.bytes),
		}
		return true
	})

	cpuPct := 0.0
	if len(cpuPercent) > 0 {
		cpuPct = cpuPercent[0]
	}

	fields := Fields{
		"errors_gateway":  atomic.LoadInt64(&errorsGateway),
		"errors_engine":   atomic.LoadInt64(&errorsEngine),
		"warns_gateway":   atomic.LoadInt64(&warnsGateway),
		"warns_engine":    atomic.LoadInt64(&warnsEngine),
		"gateway_fetches": atomic.LoadInt64(&gatewayFetches),
		"gateway_retries": atomic.LoadInt64(&gatewayRetries),
		"rate_limited":    atomic.LoadInt64(&rateLimited),
		"cache_hits":      atomic.LoadInt64(&cacheHits),
		"cache_misses":    atomic.LoadInt64(&cacheMisses),
		"scans_completed": atomic.LoadInt64(&scansCompleted),
		"signals_emitted": atomic.LoadInt64(&signalsEmitted),
		"no_signals":      atomic.LoadInt64(&noSignals),
		"goroutines":      runtime.NumGoroutine(),
		"cpu_percent":     cpuPct,
		"memory_mb":       int64(memStats.Used) / 1024 / 1024,
		"queries":         queryData,
	}

	log.WithComponent("report").WithFields(fields).Info("runtime report")

	var data []cwtypes.MetricDatum
	data = append(data,
		cwtypes.MetricDatum{MetricName: aws.String("CPUPercent"), Unit: cwtypes.StandardUnitPercent, Value: aws.Float64(cpuPct)},
		cwtypes.MetricDatum{MetricName: aws.String("MemoryMB"), Unit: cwtypes.StandardUnitMegabytes, Value: aws.Float64(float64(memStats.Used) / 1024 / 1024)},
		cwtypes.MetricDatum{MetricName: aws.String("GatewayErrors"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(fields["errors_gateway"].(int64)))},
		cwtypes.MetricDatum{MetricName: aws.String("EngineErrors"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(fields["errors_engine"].(int64)))},
		cwtypes.MetricDatum{MetricName: aws.String("GatewayRequests"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(fields["gateway_fetches"].(int64)))},
		cwtypes.MetricDatum{MetricName: aws.String("GatewayRetries"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(fields["gateway_retries"].(int64)))},
		cwtypes.MetricDatum{MetricName: aws.String("GatewayRateLimited"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(fields["rate_limited"].(int64)))},
		cwtypes.MetricDatum{MetricName: aws.String("CacheHits"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(fields["cache_hits"].(int64)))},
		cwtypes.MetricDatum{MetricName: aws.String("CacheMisses"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(fields["cache_misses"].(int64)))},
		cwtypes.MetricDatum{MetricName: aws.String("ScansCompleted"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(fields["scans_completed"].(int64)))},
		cwtypes.MetricDatum{MetricName: aws.String("SignalsEmitted"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(fields["signals_emitted"].(int64)))},
		cwtypes.MetricDatum{MetricName: aws.String("NoSignals"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(fields["no_signals"].(int64)))},
	)

	for name, stats := range queryData {
		data = append(data,
			cwtypes.MetricDatum{
				MetricName: aws.String("QueryRequests"),
				Unit:       cwtypes.StandardUnitCount,
				Dimensions: []cwtypes.Dimension{{Name: aws.String("QueryType"), Value: aws.String(name)}},
				Value:      aws.Float64(float64(stats["requests"])),
			},
			cwtypes.MetricDatum{
				MetricName: aws.String("QueryBytes"),
				Unit:       cwtypes.StandardUnitBytes,
				Dimensions: []cwtypes.Dimension{{Name: aws.String("QueryType"), Value: aws.String(name)}},
				Value:      aws.Float64(float64(stats["bytes"])),
			},
		)
	}

	publishMetrics(ctx, data)
}
