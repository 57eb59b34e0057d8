package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/belgrano/backend/internal/application/outbox"
	"github.com/belgrano/backend/internal/application/ticketing"
	"github.com/olekukonko/tablewriter"
)

const timeLayout = "2006-01-02 15:04"

func renderOutboxStats(w io.Writer, s *outbox.StatsDTO) error {
	table := tablewriter.NewWriter(w)
	table.Header("Status", "Entries")
	rows := [][]string{
		{"pending", itoa(s.Pending)},
		{"processing", itoa(s.Processing)},
		{"sent", itoa(s.Sent)},
		{"failed", itoa(s.Failed)},
		{"dead", itoa(s.Dead)},
		{"total", itoa(s.Total)},
	}
	if err := table.Bulk(rows); err != nil {
		return err
	}
	return table.Render()
}

func renderOutboxEntries(w io.Writer, entries []outbox.EntryDTO) error {
	table := tablewriter.NewWriter(w)
	table.Header("ID", "Event", "Aggregate", "Status", "Retries", "Created", "Last error")
	for _, e := range entries {
		row := []string{
			e.ID.String(),
			e.EventType,
			e.AggregateID,
			e.Status,
			fmt.Sprintf("%d/%d", e.RetryCount, e.MaxRetries),
			e.CreatedAt.Local().Format(timeLayout),
			truncate(e.LastError, 60),
		}
		if err := table.Append(row); err != nil {
			return err
		}
	}
	return table.Render()
}

func renderTickets(w io.Writer, tickets []*ticketing.TicketDTO) error {
	table := tablewriter.NewWriter(w)
	table.Header("ID", "Numero", "Cliente", "Estado", "Prioridad", "Repartidor", "Total", "Creado")
	for _, t := range tickets {
		row := []string{
			strconv.FormatUint(uint64(t.ID), 10),
			t.Numero,
			t.ClienteNombre,
			t.Estado,
			t.Prioridad,
			orDash(t.Repartidor),
			"$" + t.Total.StringFixed(2),
			t.FechaCreacion.Local().Format(timeLayout),
		}
		if err := table.Append(row); err != nil {
			return err
		}
	}
	return table.Render()
}

func renderFleet(w io.Writer, couriers []ticketing.CourierStatsDTO) error {
	table := tablewriter.NewWriter(w)
	table.Header("Repartidor", "Total", "Pendientes", "En preparacion", "En camino", "Entregados", "Cancelados", "Alta abiertos")
	for _, c := range couriers {
		row := []string{
			c.Repartidor,
			itoa(c.Total),
			itoa(c.Pendientes),
			itoa(c.EnPreparacion),
			itoa(c.EnCamino),
			itoa(c.Entregados),
			itoa(c.Cancelados),
			itoa(c.AltaAbiertos),
		}
		if err := table.Append(row); err != nil {
			return err
		}
	}
	return table.Render()
}

func itoa(n int64) string { return strconv.FormatInt(n, 10) }

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

