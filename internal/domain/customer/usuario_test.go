package customer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUsuario(t *testing.T) {
	u, err := NewUsuario(NewUsuarioParams{Nombre: " ana ", Apellido: "perez", Email: "ANA@mail.com", PasswordHash: "h"})
	require.NoError(t, err)
	assert.Equal(t, RolCliente, u.Rol)
	assert.Equal(t, "ana@mail.com", u.Email)
	assert.True(t, u.Activo)
	assert.Equal(t, "Ana Perez", u.NombreCompleto())

	_, err = NewUsuario(NewUsuarioParams{Nombre: "x", Email: "no-at", PasswordHash: "h"})
	assert.Error(t, err)

	_, err = NewUsuario(NewUsuarioParams{Nombre: "x", Email: "x@y", PasswordHash: "h", Rol: "admin"})
	assert.Error(t, err)
}

func TestUsuario_ClienteNombreAndIndicaciones(t *testing.T) {
	cliente := &Usuario{Nombre: "Ana", Rol: RolCliente}
	assert.Equal(t, "Ana", cliente.ClienteNombre(nil))
	assert.Equal(t, "Sin indicaciones especiales", cliente.Indicaciones("  ", nil))
	assert.Equal(t, "Timbre 2B", cliente.Indicaciones("Timbre 2B", nil))

	merchant := &Usuario{Nombre: "Luis", Apellido: "Gomez", Rol: RolComerciante}
	c := &Comerciante{NombreNegocio: "Almacen Luis", TipoNegocio: "almacen", CUIT: "20-12345678-9"}

	assert.Equal(t, "Almacen Luis - Luis Gomez", merchant.ClienteNombre(c))
	assert.Equal(t,
		"COMERCIANTE - Negocio: Almacen Luis, Tipo: almacen, CUIT: 20-12345678-9. Dejar en deposito",
		merchant.Indicaciones("Dejar en deposito", c))
	assert.Equal(t,
		"COMERCIANTE - Negocio: Almacen Luis. Sin indicaciones especiales",
		merchant.Indicaciones("", &Comerciante{NombreNegocio: "Almacen Luis"}))
	assert.Equal(t, "COMERCIANTE - Sin indicaciones especiales", merchant.Indicaciones("", nil))
}

func TestNewComerciante(t *testing.T) {
	c, err := NewComerciante(1, " Kiosco ", "", "", "", "kiosco")
	require.NoError(t, err)
	assert.Equal(t, "Kiosco", c.NombreNegocio)

	_, err = NewComerciante(1, "", "", "", "", "")
	assert.Error(t, err)
}
