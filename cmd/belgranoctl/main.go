// Command belgranoctl inspects a running deployment from its database: the
// outbox of either service, the active tickets and the courier workload.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/belgrano/backend/internal/application/outbox"
	"github.com/belgrano/backend/internal/application/ticketing"
	"github.com/belgrano/backend/internal/domain/identity"
	"github.com/belgrano/backend/internal/domain/ticket"
	"github.com/belgrano/backend/internal/infrastructure/config"
	"github.com/belgrano/backend/internal/infrastructure/event"
	"github.com/belgrano/backend/internal/infrastructure/logger"
	"github.com/belgrano/backend/internal/infrastructure/persistence"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const commandTimeout = 30 * time.Second

// cli holds what the subcommands need; tickets and fleet are nil when the
// selected service is the storefront.
type cli struct {
	out     io.Writer
	outbox  *outbox.Service
	tickets *ticketing.TicketService
	fleet   *ticketing.FleetService
}

// operator is the identity the CLI acts as; it sees every ticket
var operator = ticketing.Actor{Username: "belgranoctl", Role: identity.RoleAdmin}

func main() {
	var (
		service  string
		logLevel string
	)
	flag.StringVar(&service, "service", config.ServiceTickets, "Service database to open (storefront, tickets)")
	flag.StringVar(&logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{Level: logLevel, Format: "console", Output: "stderr", Service: "belgranoctl"})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	cfg, err := config.Load(service)
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}
	db, err := persistence.NewDatabase(&cfg.Database, persistence.Options{})
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() { _ = db.Close() }()

	c := &cli{out: os.Stdout, outbox: outbox.NewService(event.NewGormOutboxRepository(db.DB), nil, log)}
	if service == config.ServiceTickets {
		pool := ticket.NewCourierPool(cfg.Couriers.Names...)
		tickets := persistence.NewGormTicketRepository(db.DB)
		registro := persistence.NewGormRegistroRepository(db.DB)
		serializer := event.NewEventSerializer()
		event.RegisterTicketingEvents(serializer)
		scope := persistence.NewTicketingTransactionScope(db.DB, event.NewOutboxPublisher(serializer, cfg.Outbox.MaxRetries))
		c.tickets = ticketing.NewTicketService(scope, tickets, registro, pool, log)
		c.fleet = ticketing.NewFleetService(tickets, registro, pool, log)
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()
	if err := c.run(ctx, args); err != nil {
		fmt.Fprintln(os.Stderr, "belgranoctl:", err)
		os.Exit(1)
	}
}

var errUsage = errors.New("unknown command, run without arguments for usage")

func (c *cli) run(ctx context.Context, args []string) error {
	switch args[0] {
	case "outbox":
		if len(args) < 2 {
			return errUsage
		}
		return c.runOutbox(ctx, args[1], args[2:])
	case "tickets":
		if c.tickets == nil {
			return errors.New("tickets requires -service tickets")
		}
		rest := args[1:]
		if len(rest) > 0 && rest[0] == "list" {
			rest = rest[1:]
		}
		estado := ""
		if len(rest) > 0 {
			estado = rest[0]
		}
		list, err := c.tickets.Panel(ctx, operator, estado)
		if err != nil {
			return err
		}
		return renderTickets(c.out, list)
	case "flota":
		if c.fleet == nil {
			return errors.New("flota requires -service tickets")
		}
		couriers, err := c.fleet.Couriers(ctx, operator)
		if err != nil {
			return err
		}
		return renderFleet(c.out, couriers)
	}
	return errUsage
}

func (c *cli) runOutbox(ctx context.Context, sub string, args []string) error {
	switch sub {
	case "stats":
		stats, err := c.outbox.Stats(ctx)
		if err != nil {
			return err
		}
		return renderOutboxStats(c.out, stats)
	case "dead":
		page := 1
		if len(args) > 0 {
			n, err := strconv.Atoi(args[0])
			if err != nil || n < 1 {
				return fmt.Errorf("invalid page %q", args[0])
			}
			page = n
		}
		dead, err := c.outbox.DeadLetters(ctx, page, 20)
		if err != nil {
			return err
		}
		if err := renderOutboxEntries(c.out, dead.Items); err != nil {
			return err
		}
		_, err = fmt.Fprintf(c.out, "page %d of %d, %d dead entries\n", dead.Page, dead.TotalPages, dead.Total)
		return err
	case "retry":
		if len(args) == 0 {
			return errors.New("retry needs an entry id or \"all\"")
		}
		if args[0] == "all" {
			n, err := c.outbox.RequeueAll(ctx)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(c.out, "requeued %d entries\n", n)
			return err
		}
		id, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid entry id %q", args[0])
		}
		entry, err := c.outbox.Requeue(ctx, id)
		if err != nil {
			return err
		}
		return renderOutboxEntries(c.out, []outbox.EntryDTO{*entry})
	}
	return errUsage
}

func printUsage() {
	fmt.Println(`belgranoctl inspects the Belgrano databases

Usage:
  belgranoctl [flags] <command> [arguments]

Commands:
  outbox stats          Entry counts per status
  outbox dead [page]    Dead letter entries, 20 per page
  outbox retry <id|all> Move dead entries back to pending
  tickets [list] [estado]
                        Active tickets, optionally filtered by estado
  flota                 Ticket counts per courier

Flags:
  -service string       storefront or tickets (default: tickets)
  -log-level string     Log level (default: warn)

Requeued entries are picked up by the running server on its next poll.`)
}
