package printing

import (
	"bytes"
	"context"
	"html/template"
	"strings"
	"time"

	"github.com/belgrano/backend/internal/domain/ticket"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var spanishTitle = cases.Title(language.Spanish)

var remitoFuncs = template.FuncMap{
	"money": FormatMoney,
	"date": func(t time.Time) string {
		return t.Format("02/01/2006 15:04")
	},
	"datePtr": func(t *time.Time) string {
		if t == nil {
			return "-"
		}
		return t.Format("02/01/2006 15:04")
	},
	"title": func(s string) string {
		return spanishTitle.String(strings.ReplaceAll(s, "-", " "))
	},
	"upper": strings.ToUpper,
}

const remitoTemplate = `<!DOCTYPE html>
<html lang="es">
<head>
<meta charset="UTF-8">
<title>Remito {{.Ticket.Numero}}</title>
<style>
body { font-family: "DejaVu Sans", Arial, sans-serif; font-size: {{if .Compact}}10px{{else}}12px{{end}}; color: #222; }
h1 { font-size: 1.4em; margin: 0 0 4px 0; }
table { width: 100%; border-collapse: collapse; margin-top: 8px; }
th, td { padding: 3px 4px; border-bottom: 1px solid #ccc; text-align: left; }
td.num, th.num { text-align: right; }
.alta { color: #b00020; font-weight: bold; }
.muted { color: #666; }
</style>
</head>
<body>
<h1>Belgrano Ahorro</h1>
<div class="muted">Remito {{.Ticket.Numero}} · {{date .GeneratedAt}}</div>
<p>
<strong>{{title .Ticket.ClienteNombre}}</strong>{{if eq .Ticket.TipoCliente "comerciante"}} (comerciante){{end}}<br>
{{.Ticket.ClienteDireccion}}<br>
{{if .Ticket.ClienteTelefono}}Tel: {{.Ticket.ClienteTelefono}}<br>{{end}}
{{if .Ticket.ClienteEmail}}{{.Ticket.ClienteEmail}}<br>{{end}}
</p>
<p>
Estado: {{title (print .Ticket.Estado)}}<br>
Prioridad: <span{{if eq .Ticket.Prioridad "alta"}} class="alta"{{end}}>{{upper (print .Ticket.Prioridad)}}</span><br>
Repartidor: {{if .Ticket.Repartidor}}{{.Ticket.Repartidor}}{{else}}sin asignar{{end}}<br>
Pago: {{if .Ticket.MetodoPago}}{{title .Ticket.MetodoPago}}{{else}}-{{end}}<br>
Envío: {{datePtr .Ticket.FechaEnvio}} · Entrega: {{datePtr .Ticket.FechaEntrega}}
</p>
<table>
<thead><tr><th>Producto</th><th class="num">Cant.</th><th class="num">Precio</th><th class="num">Subtotal</th></tr></thead>
<tbody>
{{range .Ticket.Productos}}<tr><td>{{.Nombre}}</td><td class="num">{{if .Cantidad}}{{.Cantidad}}{{else}}-{{end}}</td><td class="num">{{money .Precio}}</td><td class="num">{{money .Subtotal}}</td></tr>
{{end}}</tbody>
<tfoot><tr><th colspan="3">Total</th><th class="num">{{money .Ticket.Total}}</th></tr></tfoot>
</table>
{{if .Ticket.Indicaciones}}<p><strong>Indicaciones:</strong> {{.Ticket.Indicaciones}}</p>{{end}}
<p class="muted">Firma y aclaración: ______________________</p>
</body>
</html>`

type remitoData struct {
	Ticket      *ticket.Ticket
	GeneratedAt time.Time
	Compact     bool
}

// RemitoRenderer produces the delivery slip handed to couriers
type RemitoRenderer struct {
	tmpl   *template.Template
	pdf    PDFRenderer
	paper  PaperSize
	logger *zap.Logger
	now    func() time.Time
}

// NewRemitoRenderer parses the slip template. pdf may be nil when printing
// is disabled, in which case only HTML output is available.
func NewRemitoRenderer(pdf PDFRenderer, paper PaperSize, logger *zap.Logger) (*RemitoRenderer, error) {
	tmpl, err := template.New("remito").Funcs(remitoFuncs).Parse(remitoTemplate)
	if err != nil {
		return nil, NewRenderError(ErrCodeTemplateFailed, "parse remito template", err)
	}
	if !paper.IsValid() {
		paper = PaperA4
	}
	return &RemitoRenderer{
		tmpl:   tmpl,
		pdf:    pdf,
		paper:  paper,
		logger: logger,
		now:    time.Now,
	}, nil
}

// RenderHTML renders the slip of t as an HTML document
func (r *RemitoRenderer) RenderHTML(t *ticket.Ticket) (string, error) {
	if t == nil {
		return "", NewRenderError(ErrCodeInvalidHTML, "ticket is nil", nil)
	}
	var buf bytes.Buffer
	data := remitoData{Ticket: t, GeneratedAt: r.now(), Compact: r.paper == PaperReceipt}
	if err := r.tmpl.Execute(&buf, data); err != nil {
		return "", NewRenderError(ErrCodeTemplateFailed, "execute remito template", err)
	}
	return buf.String(), nil
}

// RenderPDF renders the slip of t as a PDF document
func (r *RemitoRenderer) RenderPDF(ctx context.Context, t *ticket.Ticket) ([]byte, error) {
	if r.pdf == nil {
		return nil, NewRenderError(ErrCodeDisabled, "PDF printing is disabled", nil)
	}
	doc, err := r.RenderHTML(t)
	if err != nil {
		return nil, err
	}
	margin := 10.0
	if r.paper == PaperReceipt {
		margin = 3
	}
	res, err := r.pdf.Render(ctx, &RenderRequest{
		HTML:      doc,
		PaperSize: r.paper,
		MarginMM:  margin,
		Title:     "Remito " + t.Numero,
	})
	if err != nil {
		r.logger.Warn("remito rendering failed", zap.String("numero", t.Numero), zap.Error(err))
		return nil, err
	}
	return res.PDFData, nil
}

// FormatMoney formats an amount the way Argentine receipts do: "$ 1.234,50"
func FormatMoney(d decimal.Decimal) string {
	neg := d.IsNegative()
	s := d.Abs().StringFixed(2)
	intPart, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	for i, c := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(c)
	}
	out := "$ " + b.String() + "," + frac
	if neg {
		return "-" + out
	}
	return out
}
