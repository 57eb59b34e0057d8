package ticket

// Estado is the lifecycle state of a ticket
type Estado string

const (
	EstadoPendiente     Estado = "pendiente"
	EstadoEnPreparacion Estado = "en-preparacion"
	EstadoEnCamino      Estado = "en-camino"
	EstadoEntregado     Estado = "entregado"
	EstadoCancelado     Estado = "cancelado"
)

// Estados lists every state in lifecycle order
var Estados = []Estado{
	EstadoPendiente,
	EstadoEnPreparacion,
	EstadoEnCamino,
	EstadoEntregado,
	EstadoCancelado,
}

// rank orders the forward path; cancelado is off the path.
var rank = map[Estado]int{
	EstadoPendiente:     0,
	EstadoEnPreparacion: 1,
	EstadoEnCamino:      2,
	EstadoEntregado:     3,
}

// IsValid checks if the estado is known
func (e Estado) IsValid() bool {
	switch e {
	case EstadoPendiente, EstadoEnPreparacion, EstadoEnCamino, EstadoEntregado, EstadoCancelado:
		return true
	}
	return false
}

// String returns the string representation of Estado
func (e Estado) String() string {
	return string(e)
}

// IsTerminal reports whether no further transition is allowed
func (e Estado) IsTerminal() bool {
	return e == EstadoEntregado || e == EstadoCancelado
}

// IsOpen reports whether the ticket still needs work
func (e Estado) IsOpen() bool {
	return e.IsValid() && !e.IsTerminal()
}

// CanTransitionTo checks if the estado can move to target. Moves go forward
// along pendiente → en-preparacion → en-camino → entregado (steps may be
// skipped), any open state may be cancelled, and terminal states are final.
func (e Estado) CanTransitionTo(target Estado) bool {
	if !e.IsOpen() || !target.IsValid() || e == target {
		return false
	}
	if target == EstadoCancelado {
		return true
	}
	return rank[target] > rank[e]
}

// EstadoEnvio is the shipping sub-state derived from Estado
type EstadoEnvio string

const (
	EnvioPendiente EstadoEnvio = "pendiente"
	EnvioEnEnvio   EstadoEnvio = "en-envio"
	EnvioEntregado EstadoEnvio = "entregado"
	EnvioCancelado EstadoEnvio = "cancelado"
)

// EnvioFor returns the shipping sub-state that corresponds to an estado
func EnvioFor(e Estado) EstadoEnvio {
	switch e {
	case EstadoEnCamino:
		return EnvioEnEnvio
	case EstadoEntregado:
		return EnvioEntregado
	case EstadoCancelado:
		return EnvioCancelado
	default:
		return EnvioPendiente
	}
}
