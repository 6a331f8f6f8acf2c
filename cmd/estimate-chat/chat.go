package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"estimate_portal_backend/internal/estimate"
	"estimate_portal_backend/internal/estimate/chat"
	"estimate_portal_backend/internal/estimate/classifier"
	"estimate_portal_backend/internal/estimate/conversation"
	"estimate_portal_backend/internal/events"
	"estimate_portal_backend/internal/leads"
	"estimate_portal_backend/platform/apperr"
	"estimate_portal_backend/platform/config"
	"estimate_portal_backend/platform/db"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
)

const urgencyCommand = "/urgency"

func runChat(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	f := cmd.Flags()
	noDelay, _ := f.GetBool("no-delay")
	persist, _ := f.GetBool("persist")
	if path, _ := f.GetString("catalog"); path != "" {
		cfg.CatalogPath = path
	}

	cat, err := estimate.LoadCatalog(cfg, log)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}

	var saver conversation.LeadSaver
	if persist {
		s, closeStore, err := openSaver(ctx)
		if err != nil {
			return err
		}
		defer closeStore()
		saver = s
	}

	engine := conversation.NewEngine(conversation.Deps{
		Classifier:     classifier.New(cat),
		Saver:          saver,
		Log:            log,
		PersistTimeout: cfg.GetPersistTimeout(),
	})

	sleep := time.Sleep
	if noDelay {
		sleep = func(time.Duration) {}
	}

	t := newTerminal(engine, chat.NewScript(estimate.BusinessContacts(cfg)), cmd.OutOrStdout(), sleep)
	return t.run(ctx, cmd.InOrStdin())
}

// openSaver connects to the configured lead store. The returned func
// releases it.
func openSaver(ctx context.Context) (conversation.LeadSaver, func(), error) {
	var pool *pgxpool.Pool
	if cfg.GetLeadStore() == config.LeadStorePostgres {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("connect database: %w", err)
		}
		if err := db.RunMigrations(ctx, p, log); err != nil {
			p.Close()
			return nil, nil, fmt.Errorf("run migrations: %w", err)
		}
		pool = p
	}

	store, err := leads.OpenStore(ctx, cfg, pool)
	if err != nil {
		if pool != nil {
			pool.Close()
		}
		return nil, nil, fmt.Errorf("open lead store: %w", err)
	}

	bus := events.NewInMemoryBus(log)
	saver := leads.NewModule(store, bus, log).Saver()
	return saver, func() {
		bus.Wait()
		if pool != nil {
			pool.Close()
		}
	}, nil
}

// terminal drives one controller from lines of text.
type terminal struct {
	ctrl   *conversation.Controller
	script *chat.Script
	out    io.Writer
	sleep  func(time.Duration)
}

func newTerminal(engine *conversation.Engine, script *chat.Script, out io.Writer, sleep func(time.Duration)) *terminal {
	return &terminal{
		ctrl:   engine.Start(conversation.ModeChat),
		script: script,
		out:    out,
		sleep:  sleep,
	}
}

func (t *terminal) run(ctx context.Context, in io.Reader) error {
	t.show(t.script.Greeting())

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(t.out, "you> ")
		if !scanner.Scan() {
			fmt.Fprintln(t.out)
			return scanner.Err()
		}
		if ctx.Err() != nil {
			return nil
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.EqualFold(line, "quit") || strings.EqualFold(line, "exit") {
			t.say("Thanks for stopping by!")
			return nil
		}

		ev, ok := t.eventFor(line)
		if !ok {
			t.say("Type 'restart' for a new estimate or 'quit' to leave.")
			continue
		}

		out, err := t.ctrl.Handle(ctx, ev)
		if err != nil {
			t.say(errorText(err))
			continue
		}
		if ev.Type == conversation.EventSelectUrgency && out.Accepted() {
			t.say(urgencyText(out.View))
			continue
		}
		t.show(t.script.Reveal(out))
	}
}

// eventFor maps a line to the event the current state expects.
func (t *terminal) eventFor(line string) (conversation.Event, bool) {
	lower := strings.ToLower(line)
	switch {
	case lower == "restart":
		return conversation.Restart(), true
	case lower == "cancel":
		return conversation.Cancel(), true
	case strings.HasPrefix(lower, urgencyCommand):
		return conversation.SelectUrgency(strings.TrimSpace(line[len(urgencyCommand):])), true
	}

	switch t.ctrl.View().State {
	case conversation.StateCollectingProblem:
		return conversation.SubmitProblem(line), true
	case conversation.StateCollectingName:
		return conversation.SubmitName(line), true
	case conversation.StateCollectingEmail:
		return conversation.SubmitEmail(line), true
	case conversation.StateCollectingPhone:
		return conversation.SubmitPhone(line), true
	case conversation.StateCollectingContactPreference:
		return conversation.SubmitContactPreference(line), true
	default:
		return conversation.Event{}, false
	}
}

func (t *terminal) show(msgs []chat.Message) {
	for _, m := range msgs {
		t.sleep(m.Delay)
		t.say(m.Text)
	}
}

func (t *terminal) say(text string) {
	fmt.Fprintf(t.out, "bot> %s\n", text)
}

func urgencyText(v conversation.View) string {
	text := "Urgency set to " + string(v.Urgency) + "."
	if v.Quote != nil {
		text += " Current estimate: " + v.Quote.String()
	}
	return text
}

func errorText(err error) string {
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}
