// Package printing renders delivery slips (remitos) to PDF with headless Chrome.
package printing

import (
	"context"
	"time"
)

// PaperSize selects the sheet a remito is printed on
type PaperSize string

const (
	PaperA4 PaperSize = "A4"
	// PaperReceipt is the 80mm thermal roll the couriers carry
	PaperReceipt PaperSize = "RECEIPT_80MM"
)

var paperMM = map[PaperSize][2]float64{
	PaperA4:      {210, 297},
	PaperReceipt: {80, 0},
}

// Dimensions is width and height in millimeters. A height of 0 is a
// continuous roll. Unknown sizes fall back to A4.
func (p PaperSize) Dimensions() (width, height float64) {
	d, ok := paperMM[p]
	if !ok {
		d = paperMM[PaperA4]
	}
	return d[0], d[1]
}

func (p PaperSize) IsValid() bool {
	_, ok := paperMM[p]
	return ok
}

type RenderRequest struct {
	HTML      string
	Title     string
	PaperSize PaperSize
	MarginMM  float64 // all four sides
	// Timeout replaces the renderer default when > 0
	Timeout time.Duration
}

type RenderResult struct {
	PDFData        []byte
	RenderDuration time.Duration
}

// PDFRenderer turns a rendered remito page into PDF bytes
type PDFRenderer interface {
	Render(ctx context.Context, req *RenderRequest) (*RenderResult, error)
	Close() error
}

const (
	ErrCodeDisabled         = "PRINTING_DISABLED"
	ErrCodeInvalidHTML      = "INVALID_HTML"
	ErrCodeInvalidPaperSize = "INVALID_PAPER_SIZE"
	ErrCodeTemplateFailed   = "TEMPLATE_FAILED"
	ErrCodeRenderFailed     = "RENDER_FAILED"
	ErrCodeRenderTimeout    = "RENDER_TIMEOUT"
)

// RenderError carries one of the ErrCode values so the handler can tell a
// bad request from a browser failure.
type RenderError struct {
	Code    string
	Message string
	Cause   error
}

func NewRenderError(code, message string, cause error) *RenderError {
	return &RenderError{Code: code, Message: message, Cause: cause}
}

func (e *RenderError) Error() string {
	if e.Cause == nil {
		return e.Message
	}
	return e.Message + ": " + e.Cause.Error()
}

func (e *RenderError) Unwrap() error { return e.Cause }
