package observability

import (
	"context"
	"errors"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/uniyakcom/wirebeat/router"
)

// Plugin 在路由器运行期间把 Collector 注册到 Registerer
//
// OnStart 同时登记路由器并挂上耗时中间件；OnStop 注销。
type Plugin struct {
	reg       prometheus.Registerer
	collector *Collector
	hookOnce  sync.Once
}

// NewPlugin reg 为 nil 时使用 prometheus.DefaultRegisterer
func NewPlugin(reg prometheus.Registerer, c *Collector) *Plugin {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if c == nil {
		c = NewCollector()
	}
	return &Plugin{reg: reg, collector: c}
}

// Collector 返回被注册的 Collector
func (p *Plugin) Collector() *Collector { return p.collector }

// OnStart 实现 router.RouterPlugin
func (p *Plugin) OnStart(_ context.Context, r *router.Router) error {
	p.collector.SetRouter(r)
	p.hookOnce.Do(func() { r.AddMiddleware(p.collector.Middleware) })
	if err := p.reg.Register(p.collector); err != nil {
		var already prometheus.AlreadyRegisteredError
		if !errors.As(err, &already) {
			return err
		}
	}
	return nil
}

// OnStop 实现 router.RouterPlugin
func (p *Plugin) OnStop(*router.Router) {
	p.reg.Unregister(p.collector)
}
