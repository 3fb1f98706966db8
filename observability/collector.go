// Package observability 以 Prometheus 指标导出分发器、链路与路由器统计
package observability

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/uniyakcom/wirebeat/dispatch"
	"github.com/uniyakcom/wirebeat/link"
	"github.com/uniyakcom/wirebeat/message"
	"github.com/uniyakcom/wirebeat/router"
)

const namespace = "wirebeat"

// DispatchSource 任意实例化的 *dispatch.Dispatcher 都满足
type DispatchSource interface {
	Stats() dispatch.Stats
}

// LinkSource *link.Link 满足
type LinkSource interface {
	Stats() link.Stats
}

var (
	dispatchedDesc = desc("dispatch", "dispatched_total", "Values offered to the dispatcher.", "dispatcher")
	deliveredDesc  = desc("dispatch", "delivered_total", "Values handed to consumers.", "dispatcher")
	droppedDesc    = desc("dispatch", "dropped_total", "Values discarded by a delivery policy.", "dispatcher")
	unroutedDesc   = desc("dispatch", "unrouted_total", "Values with no live subscriber.", "dispatcher")
	failedDesc     = desc("dispatch", "failed_channels_total", "Channels terminated by overflow.", "dispatcher")
	retainedDesc   = desc("dispatch", "retained", "Values held by policies awaiting a consumer.", "dispatcher")
	channelsDesc   = desc("dispatch", "channels", "Live channels.", "dispatcher")

	receivedDesc     = desc("link", "received_total", "Frames decoded and dispatched.", "link")
	sentDesc         = desc("link", "sent_total", "Frames written to the port.", "link")
	linkUnroutedDesc = desc("link", "unrouted_total", "Decoded frames with no subscriber.", "link")
	decodeErrorsDesc = desc("link", "decode_errors_total", "Frames that failed to decode.", "link", "reason")

	processedDesc = desc("router", "processed_total", "Messages handled successfully.", "handler")
	handlerFailed = desc("router", "failed_total", "Messages whose handler failed or panicked.", "handler")
)

func desc(subsystem, name, help string, labels ...string) *prometheus.Desc {
	return prometheus.NewDesc(prometheus.BuildFQName(namespace, subsystem, name), help, labels, nil)
}

// Collector 在每次抓取时读取已登记来源的快照
type Collector struct {
	mu          sync.RWMutex
	dispatchers map[string]DispatchSource
	links       map[string]LinkSource
	router      *router.Router

	duration *prometheus.HistogramVec
}

// NewCollector 创建空 Collector
func NewCollector() *Collector {
	return &Collector{
		dispatchers: make(map[string]DispatchSource),
		links:       make(map[string]LinkSource),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "router",
				Name:      "handle_duration_seconds",
				Help:      "Consumer handler duration in seconds.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"type", "result"},
		),
	}
}

// AddDispatcher 以 name 登记分发器
func (c *Collector) AddDispatcher(name string, d DispatchSource) *Collector {
	c.mu.Lock()
	c.dispatchers[name] = d
	c.mu.Unlock()
	return c
}

// AddLink 以 name 登记链路
func (c *Collector) AddLink(name string, l LinkSource) *Collector {
	c.mu.Lock()
	c.links[name] = l
	c.mu.Unlock()
	return c
}

// SetRouter 登记路由器（按 handler 导出计数）
func (c *Collector) SetRouter(r *router.Router) *Collector {
	c.mu.Lock()
	c.router = r
	c.mu.Unlock()
	return c
}

// Describe 实现 prometheus.Collector
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	for _, d := range []*prometheus.Desc{
		dispatchedDesc, deliveredDesc, droppedDesc, unroutedDesc, failedDesc, retainedDesc, channelsDesc,
		receivedDesc, sentDesc, linkUnroutedDesc, decodeErrorsDesc,
		processedDesc, handlerFailed,
	} {
		ch <- d
	}
	c.duration.Describe(ch)
}

// Collect 实现 prometheus.Collector
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, name := range sortedKeys(c.dispatchers) {
		s := c.dispatchers[name].Stats()
		counter(ch, dispatchedDesc, s.Dispatched, name)
		counter(ch, deliveredDesc, s.Delivered, name)
		counter(ch, droppedDesc, s.Dropped, name)
		counter(ch, unroutedDesc, s.Unrouted, name)
		counter(ch, failedDesc, s.Failed, name)
		gauge(ch, retainedDesc, float64(s.Retained), name)
		gauge(ch, channelsDesc, float64(s.Channels), name)
	}

	for _, name := range sortedKeys(c.links) {
		s := c.links[name].Stats()
		counter(ch, receivedDesc, s.Received, name)
		counter(ch, sentDesc, s.Sent, name)
		counter(ch, linkUnroutedDesc, s.Unrouted, name)
		counter(ch, decodeErrorsDesc, s.Unknown, name, "unknown")
		counter(ch, decodeErrorsDesc, s.Invalid, name, "invalid")
	}

	if c.router != nil {
		for _, h := range c.router.Handlers() {
			counter(ch, processedDesc, h.Processed(), h.Name())
			counter(ch, handlerFailed, h.Failed(), h.Name())
		}
	}

	c.duration.Collect(ch)
}

// Middleware 记录 handler 耗时，按消息类型与结果分组
func (c *Collector) Middleware(h router.HandlerFunc) router.HandlerFunc {
	return func(ctx context.Context, msg message.Message) ([]message.Message, error) {
		start := time.Now()
		out, err := h(ctx, msg)
		result := "ok"
		if err != nil {
			result = "error"
		}
		c.duration.WithLabelValues(typeLabel(msg), result).Observe(time.Since(start).Seconds())
		return out, err
	}
}

func typeLabel(msg message.Message) string {
	if t := msg.Type(); t != nil {
		return t.Name()
	}
	return "untyped"
}

func counter(ch chan<- prometheus.Metric, d *prometheus.Desc, v int64, labels ...string) {
	ch <- prometheus.MustNewConstMetric(d, prometheus.CounterValue, float64(v), labels...)
}

func gauge(ch chan<- prometheus.Metric, d *prometheus.Desc, v float64, labels ...string) {
	ch <- prometheus.MustNewConstMetric(d, prometheus.GaugeValue, v, labels...)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
