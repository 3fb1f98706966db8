package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/uniyakcom/wirebeat/devices/rover"
	"github.com/uniyakcom/wirebeat/dispatch"
	"github.com/uniyakcom/wirebeat/link"
	"github.com/uniyakcom/wirebeat/marshal"
	"github.com/uniyakcom/wirebeat/message"
	"github.com/uniyakcom/wirebeat/router"
)

type replayOptions struct {
	profile  string
	policy   string
	withTime bool
}

func newReplayCmd(a *app) *cobra.Command {
	var o replayOptions
	cmd := &cobra.Command{
		Use:   "replay FILE",
		Short: "Replay captured rover frames (one hex frame per line) and print them as JSON",
		Long: `replay reads hex frames from FILE ("-" for stdin), decodes each with the
rover protocol on the given profile, dispatches it and prints one JSON
object per delivered message. Lines that are blank or start with '#' are
skipped; frames that fail to decode are logged and counted.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := openInput(cmd, args[0])
			if err != nil {
				return err
			}
			return a.replay(cmd.Context(), in, cmd.OutOrStdout(), o)
		},
	}
	cmd.Flags().StringVarP(&o.profile, "profile", "p", "", "device profile (default: device.profile from config)")
	cmd.Flags().StringVar(&o.policy, "policy", "", "delivery policy override (default: dispatch.policy from config)")
	cmd.Flags().BoolVar(&o.withTime, "time", false, "include receive timestamps")
	return cmd
}

func openInput(cmd *cobra.Command, name string) (io.Reader, error) {
	if name == "-" {
		return cmd.InOrStdin(), nil
	}
	return os.Open(name)
}

// replay 端口 → 链路 → 分发器 → 路由器 → JSON 输出
func (a *app) replay(ctx context.Context, in io.Reader, out io.Writer, o replayOptions) error {
	p, err := a.profile(o.profile)
	if err != nil {
		return err
	}
	policy, err := a.cfg.Policy()
	if err != nil {
		return err
	}
	if o.policy != "" {
		if policy, err = dispatch.Parse(o.policy, a.cfg.Dispatch.Capacity, a.cfg.Dispatch.Overflow); err != nil {
			return err
		}
	}

	reg := rover.Protocol(p)
	d := dispatch.New(message.Topic, dispatch.WithPolicy(policy), dispatch.WithLogger(a.log))
	r := router.NewRouter(d, router.Config{Logger: &a.log, Workers: a.cfg.Router.Workers})

	var types []message.Type
	for _, b := range reg.Types() {
		types = append(types, b.Type)
	}
	enc := marshal.NewJSON(types...)
	if o.withTime {
		enc = enc.WithTime()
	}
	var mu sync.Mutex
	for _, t := range types {
		r.On(t.Name(), t, func(_ context.Context, m message.Message) error {
			b, err := enc.Marshal(m)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			_, err = fmt.Fprintf(out, "%s\n", b)
			return err
		})
	}

	port := link.NewHexPort(in, nil)
	l := link.New(port, reg, d, link.WithLogger(a.log))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return r.Run(gctx) })
	g.Go(func() error {
		select {
		case <-r.Running():
		case <-gctx.Done():
			return nil
		}
		defer l.Close()
		if err := l.Run(gctx); err != nil {
			d.Close()
			return err
		}
		// 输入读完：等保留的值全部交付后关闭分发器，路由器随之退出
		if err := drained(gctx, d); err != nil {
			return err
		}
		d.Close()
		return nil
	})
	err = g.Wait()

	s := l.Stats()
	a.log.Info().
		Str("profile", p.Name).
		Int64("received", s.Received).
		Int64("unknown", s.Unknown).
		Int64("invalid", s.Invalid).
		Int64("dropped", d.Stats().Dropped).
		Msg("replay finished")
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// drained 轮询直到分发器不再保留任何值
func drained(ctx context.Context, d *dispatch.Dispatcher[message.Type, message.Message]) error {
	tick := time.NewTicker(time.Millisecond)
	defer tick.Stop()
	for d.Stats().Retained > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-tick.C:
		}
	}
	return nil
}
