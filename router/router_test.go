package router_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/uniyakcom/wirebeat/codec"
	"github.com/uniyakcom/wirebeat/dispatch"
	"github.com/uniyakcom/wirebeat/message"
	"github.com/uniyakcom/wirebeat/platform"
	"github.com/uniyakcom/wirebeat/router"
)

var (
	num  = message.Define("num", codec.Int(platform.Native()))
	echo = message.Define("echo", codec.Int(platform.Native()))
	nop  = zerolog.Nop()
)

func newDispatcher(p dispatch.Policy) *dispatch.Dispatcher[message.Type, message.Message] {
	return dispatch.New(message.Topic, dispatch.WithPolicy(p), dispatch.WithLogger(nop))
}

func newRouter(d router.Dispatcher) *router.Router {
	return router.NewRouter(d, router.Config{Logger: &nop, Workers: 8})
}

// start 后台运行路由器，返回停止函数
func start(t *testing.T, r *router.Router) func() {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()
	select {
	case <-r.Running():
	case <-time.After(2 * time.Second):
		t.Fatal("router did not start")
	}
	return func() {
		cancel()
		if err := <-done; err != nil {
			t.Errorf("Run() = %v", err)
		}
	}
}

func eventually(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(time.Millisecond)
	}
}

func TestRouterOn(t *testing.T) {
	d := newDispatcher(dispatch.Unbounded())
	r := newRouter(d)

	var sum atomic.Int64
	h := r.On("sum", num, router.Typed(num, func(_ context.Context, v int32) error {
		sum.Add(int64(v))
		return nil
	}))

	stop := start(t, r)
	for i := 1; i <= 10; i++ {
		if !d.Dispatch(num.New(int32(i))) {
			t.Fatal("Dispatch after Running() should be routed")
		}
	}
	eventually(t, "10 messages", func() bool { return h.Processed() == 10 })
	stop()

	if sum.Load() != 55 {
		t.Errorf("sum = %d, want 55", sum.Load())
	}
	<-r.Closed()
	if r.IsRunning() {
		t.Error("IsRunning() after stop")
	}
}

// TestRouterAddHandler 测试产出消息重新分发
func TestRouterAddHandler(t *testing.T) {
	d := newDispatcher(dispatch.Unbounded())
	r := newRouter(d)

	r.AddHandler("double", num, router.Redispatch(d),
		func(_ context.Context, msg message.Message) ([]message.Message, error) {
			v, err := num.Value(msg)
			if err != nil {
				return nil, err
			}
			return []message.Message{echo.New(v * 2)}, nil
		})

	got := make(chan int32, 1)
	r.On("sink", echo, router.Typed(echo, func(_ context.Context, v int32) error {
		got <- v
		return nil
	}))

	stop := start(t, r)
	defer stop()

	d.Dispatch(num.New(21))
	select {
	case v := <-got:
		if v != 42 {
			t.Errorf("echo = %d, want 42", v)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("produced message not delivered")
	}
}

func TestRouterMiddlewareOrder(t *testing.T) {
	d := newDispatcher(dispatch.Unbounded())
	r := newRouter(d)

	var (
		mu    sync.Mutex
		order []string
	)
	mark := func(name string) router.Middleware {
		return func(next router.HandlerFunc) router.HandlerFunc {
			return func(ctx context.Context, msg message.Message) ([]message.Message, error) {
				mu.Lock()
				order = append(order, name)
				mu.Unlock()
				return next(ctx, msg)
			}
		}
	}
	r.AddMiddleware(mark("global1"), mark("global2"))
	h := r.On("h", num, func(context.Context, message.Message) error {
		mu.Lock()
		order = append(order, "handler")
		mu.Unlock()
		return nil
	}).AddMiddleware(mark("local"))

	stop := start(t, r)
	d.Dispatch(num.New(1))
	eventually(t, "processing", func() bool { return h.Processed() == 1 })
	stop()

	want := []string{"global1", "global2", "local", "handler"}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
}

// TestRouterSequentialBackpressure 测试顺序 Handler 的背压由投递策略处置
func TestRouterSequentialBackpressure(t *testing.T) {
	d := newDispatcher(dispatch.Unbounded())
	r := newRouter(d)

	started := make(chan int32, 4)
	gate := make(chan struct{})
	var (
		mu   sync.Mutex
		seen []int32
	)
	h := r.On("slow", num, router.Typed(num, func(_ context.Context, v int32) error {
		started <- v
		<-gate
		mu.Lock()
		seen = append(seen, v)
		mu.Unlock()
		return nil
	})).Policy(dispatch.Latest())

	stop := start(t, r)
	defer stop()

	d.Dispatch(num.New(1))
	<-started
	for i := int32(2); i <= 4; i++ {
		d.Dispatch(num.New(i))
	}
	close(gate)
	eventually(t, "two messages", func() bool { return h.Processed() == 2 })

	mu.Lock()
	defer mu.Unlock()
	if len(seen) != 2 || seen[0] != 1 || seen[1] != 4 {
		t.Errorf("seen = %v, want [1 4]", seen)
	}
}

func TestRouterWorkersParallel(t *testing.T) {
	d := newDispatcher(dispatch.Unbounded())
	r := newRouter(d)

	var inFlight, peak atomic.Int64
	gate := make(chan struct{})
	h := r.On("par", num, func(context.Context, message.Message) error {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		<-gate
		inFlight.Add(-1)
		return nil
	}).Workers(4)

	stop := start(t, r)
	defer stop()

	for i := 0; i < 8; i++ {
		d.Dispatch(num.New(int32(i)))
	}
	eventually(t, "4 in flight", func() bool { return inFlight.Load() == 4 })
	close(gate)
	eventually(t, "all processed", func() bool { return h.Processed() == 8 })
	if peak.Load() != 4 {
		t.Errorf("peak concurrency = %d, want 4", peak.Load())
	}
}

// TestRouterDLQ 测试失败消息送往死信
func TestRouterDLQ(t *testing.T) {
	d := newDispatcher(dispatch.Unbounded())
	r := newRouter(d)

	var dead atomic.Int64
	dlq := router.PublisherFunc(func(_ context.Context, msgs ...message.Message) error {
		dead.Add(int64(len(msgs)))
		return nil
	})
	h := r.On("flaky", num, router.Typed(num, func(_ context.Context, v int32) error {
		switch v {
		case 1:
			return errors.New("bad reading")
		case 2:
			panic("boom")
		}
		return nil
	})).DLQ(router.DLQConfig{Publisher: dlq})

	stop := start(t, r)
	defer stop()

	for i := int32(1); i <= 3; i++ {
		d.Dispatch(num.New(i))
	}
	eventually(t, "all handled", func() bool { return h.Processed()+h.Failed() == 3 })
	if h.Failed() != 2 || dead.Load() != 2 {
		t.Errorf("failed = %d, dead = %d; want 2, 2", h.Failed(), dead.Load())
	}
}

// TestRouterResubscribes 测试通道溢出失败后自动重新订阅
func TestRouterResubscribes(t *testing.T) {
	d := newDispatcher(dispatch.Unbounded())
	r := newRouter(d)

	gate := make(chan struct{})
	started := make(chan struct{}, 8)
	var last atomic.Int32
	h := r.On("strict", num, router.Typed(num, func(_ context.Context, v int32) error {
		started <- struct{}{}
		if v == 1 {
			<-gate
		}
		last.Store(v)
		return nil
	})).Policy(dispatch.Error())

	stop := start(t, r)
	defer stop()

	// 消费者挂起前到达的值会直接终止通道，反复发送直到第一条被接收
	eventually(t, "first delivery", func() bool {
		d.Dispatch(num.New(1))
		time.Sleep(time.Millisecond)
		return len(started) > 0
	})
	d.Dispatch(num.New(2)) // 消费者忙，ERROR 策略终止通道
	close(gate)

	eventually(t, "resubscribed delivery", func() bool {
		d.Dispatch(num.New(3))
		return last.Load() == 3
	})
	if h.Processed() < 2 {
		t.Errorf("Processed = %d, want >= 2", h.Processed())
	}
	if d.Stats().Failed < 1 {
		t.Errorf("Failed = %d, want >= 1", d.Stats().Failed)
	}
}

func TestRouterRunTwice(t *testing.T) {
	r := newRouter(newDispatcher(dispatch.Unbounded()))
	stop := start(t, r)
	defer stop()
	if err := r.Run(context.Background()); !errors.Is(err, router.ErrRunning) {
		t.Errorf("second Run() = %v, want ErrRunning", err)
	}
}

// TestRouterDuplicateTopic 测试同一消息类型注册两个处理器时 Run 拒绝启动
func TestRouterDuplicateTopic(t *testing.T) {
	d := newDispatcher(dispatch.Unbounded())
	r := newRouter(d)
	p := &recordPlugin{}
	r.AddPlugin(p)
	r.On("first", num, func(context.Context, message.Message) error { return nil })
	r.On("second", num, func(context.Context, message.Message) error { return nil })

	done := make(chan error, 1)
	go func() { done <- r.Run(context.Background()) }()

	select {
	case err := <-done:
		if !errors.Is(err, router.ErrDuplicateTopic) {
			t.Fatalf("Run() = %v, want ErrDuplicateTopic", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run should fail before subscribing")
	}
	if p.started.Load() {
		t.Error("plugins must not start when handlers conflict")
	}
	if n := len(d.Topics()); n != 0 {
		t.Errorf("Topics() len = %d, want 0", n)
	}
}

func TestRouterStopsWhenDispatcherClosed(t *testing.T) {
	d := newDispatcher(dispatch.Unbounded())
	r := newRouter(d)
	r.On("h", num, func(context.Context, message.Message) error { return nil })

	done := make(chan error, 1)
	go func() { done <- r.Run(context.Background()) }()
	<-r.Running()
	d.Close()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run should return once all subscriptions close")
	}
}

type recordPlugin struct {
	started, stopped atomic.Bool
	fail             error
}

func (p *recordPlugin) OnStart(context.Context, *router.Router) error {
	p.started.Store(true)
	return p.fail
}

func (p *recordPlugin) OnStop(*router.Router) { p.stopped.Store(true) }

func TestRouterPlugins(t *testing.T) {
	r := newRouter(newDispatcher(dispatch.Unbounded()))
	p := &recordPlugin{}
	r.AddPlugin(p)
	stop := start(t, r)
	if !p.started.Load() {
		t.Error("OnStart not called")
	}
	stop()
	if !p.stopped.Load() {
		t.Error("OnStop not called")
	}

	bad := newRouter(newDispatcher(dispatch.Unbounded()))
	errStart := errors.New("no metrics")
	bad.AddPlugin(&recordPlugin{fail: errStart})
	if err := bad.Run(context.Background()); !errors.Is(err, errStart) {
		t.Errorf("Run() = %v, want plugin error", err)
	}
}

func TestTypedMismatch(t *testing.T) {
	fn := router.Typed(num, func(context.Context, int32) error { return nil })
	if err := fn(context.Background(), echo.New(1)); !errors.Is(err, message.ErrTypeMismatch) {
		t.Errorf("err = %v, want ErrTypeMismatch", err)
	}
}
