package ticket

import (
	"time"

	"github.com/shopspring/decimal"
)

// Registro is the archived copy of a closed ticket
type Registro struct {
	ID               uint
	TicketID         uint
	Numero           string
	ClienteNombre    string
	ClienteDireccion string
	ClienteTelefono  string
	ClienteEmail     string
	Productos        []Producto
	Total            decimal.Decimal
	EstadoFinal      Estado
	EstadoEnvioFinal EstadoEnvio
	Prioridad        Prioridad
	Indicaciones     string
	Repartidor       string
	FechaCreacion    time.Time
	FechaEnvio       *time.Time
	FechaEntrega     *time.Time
	FechaRegistro    time.Time
}

// NewRegistro snapshots a ticket
func NewRegistro(t *Ticket) *Registro {
	return &Registro{
		TicketID:         t.ID,
		Numero:           t.Numero,
		ClienteNombre:    t.ClienteNombre,
		ClienteDireccion: t.ClienteDireccion,
		ClienteTelefono:  t.ClienteTelefono,
		ClienteEmail:     t.ClienteEmail,
		Productos:        t.Productos,
		Total:            t.Total,
		EstadoFinal:      t.Estado,
		EstadoEnvioFinal: t.EstadoEnvio,
		Prioridad:        t.Prioridad,
		Indicaciones:     t.Indicaciones,
		Repartidor:       t.Repartidor,
		FechaCreacion:    t.CreatedAt,
		FechaEnvio:       t.FechaEnvio,
		FechaEntrega:     t.FechaEntrega,
		FechaRegistro:    time.Now(),
	}
}
