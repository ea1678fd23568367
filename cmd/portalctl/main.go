// Command portalctl drives a captive portal from the terminal: ticket login,
// session status and mobile-money ticket purchase.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrymomot/captiveportal/pkg/config"
	"github.com/dmitrymomot/captiveportal/pkg/fingerprint"
	"github.com/dmitrymomot/captiveportal/pkg/logger"
	"github.com/dmitrymomot/captiveportal/pkg/payment"
	"github.com/dmitrymomot/captiveportal/pkg/portalapi"
	"github.com/dmitrymomot/captiveportal/pkg/portalerr"
	"github.com/dmitrymomot/captiveportal/pkg/requestid"
	"github.com/dmitrymomot/captiveportal/pkg/session"
)

type appConfig struct {
	Log     logger.Config
	API     portalapi.Config
	Session session.Config
	Store   session.StoreConfig
	Payment payment.Config
}

// app holds the wired dependencies shared by every command.
type app struct {
	cfg     appConfig
	log     *slog.Logger
	out     io.Writer
	client  *portalapi.Client
	store   session.Store
	manager *session.Manager
}

type command struct {
	name  string
	usage string
	run   func(ctx context.Context, a *app, args []string) error
}

var commands = []command{
	{"login", "login -u USER -p PASS [device flags]", runLogin},
	{"status", "status", runStatus},
	{"logout", "logout", runLogout},
	{"refresh", "refresh", runRefresh},
	{"watch", "watch", runWatch},
	{"plans", "plans [-id N]", runPlans},
	{"buy", "buy -plan N -phone NUMBER [-qr FILE] [-login=false] [device flags]", runBuy},
	{"verify", "verify -ref CODE [-plan N] [-qr FILE] [-login=false] [device flags]", runVerify},
	{"fingerprint", "fingerprint [device flags]", runFingerprint},
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdout)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "portalctl:", err)
		os.Exit(exitCode(err))
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	if len(args) == 0 {
		usage(out)
		return errors.New("missing command")
	}
	var cmd *command
	for i := range commands {
		if commands[i].name == args[0] {
			cmd = &commands[i]
		}
	}
	if cmd == nil {
		usage(out)
		return fmt.Errorf("unknown command %q", args[0])
	}

	a, err := newApp(ctx, out)
	if err != nil {
		return err
	}
	defer a.close()

	// one correlation id per invocation, sent with every portal call
	ctx, _ = requestid.Ensure(ctx)
	return cmd.run(ctx, a, args[1:])
}

func newApp(ctx context.Context, out io.Writer) (*app, error) {
	a := &app{out: out}
	if err := config.Load(&a.cfg); err != nil {
		return nil, err
	}

	log, err := logger.NewFromConfig(a.cfg.Log,
		logger.WithOutput(os.Stderr),
		logger.WithContextExtractors(
			logger.StringExtractor("request_id", requestid.FromContext),
			logger.StringExtractor("fingerprint", fingerprint.FromContext),
		),
	)
	if err != nil {
		return nil, err
	}
	a.log = log

	store, err := session.NewStore(ctx, a.cfg.Store)
	if err != nil {
		return nil, err
	}
	a.store = store

	a.client = portalapi.NewFromConfig(a.cfg.API, portalapi.WithLogger(log))
	a.manager = session.NewFromConfig(a.cfg.Session,
		session.WithClient(a.client),
		session.WithStore(store),
		session.WithLogger(log),
	)
	return a, nil
}

func (a *app) close() {
	if c, ok := a.store.(io.Closer); ok {
		if err := c.Close(); err != nil {
			a.log.Warn("failed to close credential store", logger.Error(err))
		}
	}
}

func (a *app) newEngine(opts ...payment.Option) (*payment.Engine, error) {
	return payment.NewFromConfig(a.cfg.Payment, append([]payment.Option{
		payment.WithClient(a.client),
		payment.WithLogger(a.log),
	}, opts...)...)
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "usage: portalctl <command> [flags]")
	for _, c := range commands {
		fmt.Fprintf(w, "  %s\n", c.usage)
	}
}

// exitCode maps error kinds to distinct statuses for scripts.
func exitCode(err error) int {
	switch {
	case errors.Is(err, portalerr.Auth), errors.Is(err, session.ErrNoSession), errors.Is(err, session.ErrSessionInactive):
		return 2
	case errors.Is(err, portalerr.DeviceConflict):
		return 3
	case errors.Is(err, portalerr.Validation), errors.Is(err, portalerr.InvalidReference):
		return 4
	case errors.Is(err, portalerr.Network), errors.Is(err, portalerr.Server), errors.Is(err, portalerr.TransactionTimeout):
		return 5
	default:
		return 1
	}
}
