// Package models contains the GORM persistence models of both services.
// Domain entities carry no ORM tags; each model maps to one table and
// converts to and from its entity with ToDomain / FromDomain.
//
// Storefront (belgrano_ahorro): usuarios, comerciantes, pedidos,
// pedido_items, tickets_sync, outbox_events.
//
// Ticketing (belgrano_tickets): tickets, registro_tickets, staff_users,
// outbox_events.
package models

// StorefrontModels lists the storefront tables, in creation order
func StorefrontModels() []any {
	return []any{
		&UsuarioModel{},
		&ComercianteModel{},
		&PedidoModel{},
		&PedidoItemModel{},
		&TicketSyncModel{},
		&OutboxEntryModel{},
	}
}

// TicketingModels lists the ticketing tables, in creation order
func TicketingModels() []any {
	return []any{
		&TicketModel{},
		&RegistroModel{},
		&StaffUserModel{},
		&OutboxEntryModel{},
	}
}
