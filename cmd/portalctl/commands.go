package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/captiveportal/pkg/fingerprint"
	"github.com/dmitrymomot/captiveportal/pkg/payment"
	"github.com/dmitrymomot/captiveportal/pkg/portalapi"
	"github.com/dmitrymomot/captiveportal/pkg/qrcode"
	"github.com/dmitrymomot/captiveportal/pkg/session"
)

// deviceFlags collects the environment a fingerprint is derived from.
func deviceFlags(fs *flag.FlagSet) *fingerprint.Environment {
	env := &fingerprint.Environment{}
	fs.StringVar(&env.UserAgent, "ua", "portalctl", "user agent")
	fs.StringVar(&env.Language, "lang", "fr", "primary language")
	fs.StringVar(&env.ScreenResolution, "screen", "1920x1080", "screen resolution")
	fs.IntVar(&env.TimezoneOffset, "tz", 0, "timezone offset from UTC in minutes")
	fs.StringVar(&env.CanvasSignature, "canvas", "", "canvas signature")
	return env
}

func runFingerprint(_ context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("fingerprint", flag.ContinueOnError)
	env := deviceFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	fmt.Fprintln(a.out, fingerprint.Generate(*env))
	return nil
}

func runLogin(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	username := fs.String("u", "", "ticket username")
	password := fs.String("p", "", "ticket password")
	env := deviceFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	fp := fingerprint.Generate(*env)
	ctx = fingerprint.WithContext(ctx, fp)
	sess, err := a.manager.Login(ctx, *username, *password, fp)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "logged in as %s (session %s)\n", sess.User.Username, sess.ID)
	printSubscription(a, sess)
	return nil
}

func runStatus(ctx context.Context, a *app, _ []string) error {
	sess, st, err := a.manager.Restore(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "session %s active, %s remaining\n", sess.ID, st.Remaining.Truncate(time.Minute))
	printSubscription(a, sess)
	return nil
}

func runLogout(ctx context.Context, a *app, _ []string) error {
	sess, err := a.manager.Current(ctx)
	if err != nil {
		return err
	}
	if err := a.manager.Logout(ctx, sess.ID, sess.AccessToken); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "logged out")
	return nil
}

func runRefresh(ctx context.Context, a *app, _ []string) error {
	sess, err := a.manager.Refresh(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "access token refreshed for session %s\n", sess.ID)
	return nil
}

// runWatch keeps checking the stored session until it ends or the process is interrupted.
func runWatch(ctx context.Context, a *app, _ []string) error {
	sess, _, err := a.manager.Restore(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "watching session %s every %s\n", sess.ID, a.cfg.Session.StatusCheckInterval)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(a.manager.Run(ctx))
	g.Go(func() error {
		ticker := time.NewTicker(a.cfg.Session.StatusCheckInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				if _, err := a.manager.Current(ctx); errors.Is(err, session.ErrNoSession) {
					fmt.Fprintln(a.out, "session ended")
					cancel()
					return nil
				}
			}
		}
	})
	return g.Wait()
}

func runPlans(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("plans", flag.ContinueOnError)
	id := fs.Int("id", 0, "show a single plan")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *id > 0 {
		plan, err := a.client.GetPlan(ctx, *id)
		if err != nil {
			return err
		}
		fmt.Fprintln(a.out, plan)
		return nil
	}

	plans, err := a.client.ListPlans(ctx)
	if err != nil {
		return err
	}
	for _, p := range plans {
		if p.IsActive {
			fmt.Fprintf(a.out, "%d\t%s\n", p.ID, p)
		}
	}
	return nil
}

func runBuy(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("buy", flag.ContinueOnError)
	planID := fs.Int("plan", 0, "plan id")
	phone := fs.String("phone", "", "mobile money phone number")
	qrFile := fs.String("qr", "", "write the ticket QR code PNG to this file")
	login := fs.Bool("login", true, "log in with the purchased ticket")
	env := deviceFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	outcome := make(chan payment.Event, 1)
	engine, err := a.newEngine(payment.WithObserver(func(ev payment.Event) {
		switch ev.Type {
		case payment.EventCountdown:
			if ev.Remaining%time.Minute == 0 {
				fmt.Fprintf(a.out, "waiting for confirmation, %s left\n", ev.Remaining)
			}
		case payment.EventExpired, payment.EventFailed, payment.EventTimeout:
			select {
			case outcome <- ev:
			default:
			}
		}
	}))
	if err != nil {
		return err
	}
	defer engine.Close()

	tx, err := engine.Initiate(ctx, *planID, *phone)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "dial %s to pay (reference %s)\n", tx.USSDCode, tx.Reference)

	if err := engine.BeginPolling(ctx, tx.ID); err != nil {
		return err
	}

	select {
	case creds := <-engine.Credentials():
		if err := printTicket(a, creds, *qrFile); err != nil {
			return err
		}
		return loginWithTicket(ctx, a, creds, *env, *login)
	case ev := <-outcome:
		if ev.Err != nil {
			return ev.Err
		}
		return fmt.Errorf("payment %s: %s", tx.ID, ev.Type)
	case <-ctx.Done():
		return ctx.Err()
	}
}

func runVerify(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("verify", flag.ContinueOnError)
	ref := fs.String("ref", "", "payment reference")
	planID := fs.Int("plan", 0, "plan id")
	qrFile := fs.String("qr", "", "write the ticket QR code PNG to this file")
	login := fs.Bool("login", true, "log in with the ticket")
	env := deviceFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	engine, err := a.newEngine()
	if err != nil {
		return err
	}
	defer engine.Close()

	creds, err := engine.VerifyReference(ctx, *ref, *planID)
	if err != nil {
		return err
	}
	if err := printTicket(a, creds, *qrFile); err != nil {
		return err
	}
	return loginWithTicket(ctx, a, creds, *env, *login)
}

// loginWithTicket starts a session with freshly delivered credentials.
func loginWithTicket(ctx context.Context, a *app, creds portalapi.WiFiCredentials, env fingerprint.Environment, enabled bool) error {
	if !enabled {
		return nil
	}
	fp := fingerprint.Generate(env)
	sess, err := a.manager.Login(fingerprint.WithContext(ctx, fp), creds.Username, creds.Password, fp)
	if err != nil {
		return fmt.Errorf("ticket delivered but login failed: %w", err)
	}
	fmt.Fprintf(a.out, "logged in as %s (session %s)\n", sess.User.Username, sess.ID)
	return nil
}

func printTicket(a *app, creds portalapi.WiFiCredentials, qrFile string) error {
	fmt.Fprintf(a.out, "username: %s\npassword: %s\n", creds.Username, creds.Password)
	if !creds.ExpirationDate.IsZero() {
		fmt.Fprintf(a.out, "expires: %s\n", creds.ExpirationDate.Format(time.DateOnly))
	}
	if qrFile == "" || creds.QRCode == "" {
		return nil
	}
	png, err := qrcode.Decode(creds.QRCode)
	if err != nil {
		return err
	}
	if err := os.WriteFile(qrFile, png, 0o600); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "qr code written to %s\n", qrFile)
	return nil
}

func printSubscription(a *app, sess *session.Session) {
	sub := sess.Subscription()
	if sub == nil {
		return
	}
	fmt.Fprintf(a.out, "plan %s until %s\n", sub.PlanName, sub.EndDate.Format(time.DateOnly))
}
