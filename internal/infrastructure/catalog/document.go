// Package catalog loads the product document (productos.json) from disk or
// S3-compatible object storage.
package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/belgrano/backend/internal/domain/catalog"
	"github.com/shopspring/decimal"
)

type productDoc struct {
	ID          flexID          `json:"id"`
	Nombre      string          `json:"nombre"`
	Precio      decimal.Decimal `json:"precio"`
	Categoria   string          `json:"categoria"`
	Negocio     string          `json:"negocio"`
	Descripcion string          `json:"descripcion"`
	Imagen      string          `json:"imagen"`
	Stock       int             `json:"stock"`
	Destacado   bool            `json:"destacado"`
	Activo      *bool           `json:"activo"`
}

type namedDoc struct {
	ID          flexID `json:"id"`
	Nombre      string `json:"nombre"`
	Descripcion string `json:"descripcion"`
	Imagen      string `json:"imagen"`
}

type document struct {
	Productos  []productDoc    `json:"productos"`
	Negocios   json.RawMessage `json:"negocios"`
	Categorias json.RawMessage `json:"categorias"`
}

// flexID accepts both numeric and string ids
type flexID string

func (f *flexID) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("id must be a string or number: %w", err)
	}
	*f = flexID(n.String())
	return nil
}

// Parse decodes a productos.json document. Negocios and categorias may be a
// list or an object keyed by id. Products without "activo" are active.
func Parse(data []byte) (*catalog.Catalog, error) {
	var doc document
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("invalid catalog document: %w", err)
	}

	products := make([]catalog.Product, 0, len(doc.Productos))
	seen := make(map[string]bool, len(doc.Productos))
	for i, p := range doc.Productos {
		id := strings.TrimSpace(string(p.ID))
		if id == "" {
			return nil, fmt.Errorf("producto %d has no id", i)
		}
		if seen[id] {
			return nil, fmt.Errorf("duplicate producto id %q", id)
		}
		seen[id] = true
		activo := p.Activo == nil || *p.Activo
		products = append(products, catalog.Product{
			ID:          id,
			Nombre:      p.Nombre,
			Precio:      p.Precio,
			Categoria:   p.Categoria,
			Negocio:     p.Negocio,
			Descripcion: p.Descripcion,
			Imagen:      p.Imagen,
			Stock:       p.Stock,
			Destacado:   p.Destacado,
			Activo:      activo,
		})
	}

	negocios, err := parseNamed(doc.Negocios)
	if err != nil {
		return nil, fmt.Errorf("negocios: %w", err)
	}
	categorias, err := parseNamed(doc.Categorias)
	if err != nil {
		return nil, fmt.Errorf("categorias: %w", err)
	}

	ns := make([]catalog.Negocio, len(negocios))
	for i, n := range negocios {
		ns[i] = catalog.Negocio{ID: string(n.ID), Nombre: n.Nombre, Descripcion: n.Descripcion, Imagen: n.Imagen}
	}
	cs := make([]catalog.Categoria, len(categorias))
	for i, c := range categorias {
		cs[i] = catalog.Categoria{ID: string(c.ID), Nombre: c.Nombre, Descripcion: c.Descripcion}
	}
	return catalog.New(products, ns, cs), nil
}

func parseNamed(raw json.RawMessage) ([]namedDoc, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}
	if raw[0] == '[' {
		var list []namedDoc
		if err := json.Unmarshal(raw, &list); err != nil {
			return nil, err
		}
		return list, nil
	}

	var byKey map[string]namedDoc
	if err := json.Unmarshal(raw, &byKey); err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(byKey))
	for k := range byKey {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]namedDoc, 0, len(keys))
	for _, k := range keys {
		n := byKey[k]
		if n.ID == "" {
			n.ID = flexID(k)
		}
		out = append(out, n)
	}
	return out, nil
}
