package ticket

// Prioridad is the dispatch priority of a ticket
type Prioridad string

const (
	PrioridadNormal Prioridad = "normal"
	PrioridadAlta   Prioridad = "alta"
)

// IsValid checks if the prioridad is known
func (p Prioridad) IsValid() bool {
	return p == PrioridadNormal || p == PrioridadAlta
}

// String returns the string representation of Prioridad
func (p Prioridad) String() string {
	return string(p)
}

// TipoCliente distinguishes retail customers from merchants
type TipoCliente string

const (
	TipoClienteMinorista   TipoCliente = "cliente"
	TipoClienteComerciante TipoCliente = "comerciante"
)

// ParseTipoCliente normalizes the wire value, defaulting to cliente
func ParseTipoCliente(s string) TipoCliente {
	if TipoCliente(s) == TipoClienteComerciante {
		return TipoClienteComerciante
	}
	return TipoClienteMinorista
}

// DerivePrioridad computes the effective priority of an incoming ticket.
// Merchants always get alta; otherwise the requested priority is kept when
// valid and normal is used as fallback.
func DerivePrioridad(requested string, tipo TipoCliente) Prioridad {
	if tipo == TipoClienteComerciante {
		return PrioridadAlta
	}
	if p := Prioridad(requested); p.IsValid() {
		return p
	}
	return PrioridadNormal
}
