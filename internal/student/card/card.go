// Package card assembles the render-ready payload for the ID card and
// validation screens: the record's display fields plus the matricula barcode
// and the usage-code QR, both as PNG bytes.
package card

import (
	"bytes"
	"fmt"
	"image/png"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/code128"
	"github.com/boombuler/barcode/qr"

	"carteirinha/internal/student/models"
)

// Rendered dimensions in pixels.
const (
	barcodeWidth  = 400
	barcodeHeight = 80
	qrSize        = 256
)

// Payload is everything the card screen renders. The images are PNG-encoded
// so the transport can ship them as-is.
type Payload struct {
	Student    models.Student `json:"student"`
	BarcodePNG []byte         `json:"barcodePng"`
	QRCodePNG  []byte         `json:"qrCodePng"`
}

// Build renders the barcode and QR for a record. The barcode encodes the
// matricula, the QR encodes the usage code.
func Build(st models.Student) (Payload, error) {
	bar, err := matriculaBarcode(st.Matricula)
	if err != nil {
		return Payload{}, err
	}
	code, err := usageCodeQR(st.UsageCode)
	if err != nil {
		return Payload{}, err
	}
	return Payload{Student: st, BarcodePNG: bar, QRCodePNG: code}, nil
}

func matriculaBarcode(matricula string) ([]byte, error) {
	bc, err := code128.Encode(matricula)
	if err != nil {
		return nil, fmt.Errorf("encode matricula barcode: %w", err)
	}
	scaled, err := barcode.Scale(bc, barcodeWidth, barcodeHeight)
	if err != nil {
		return nil, fmt.Errorf("scale matricula barcode: %w", err)
	}
	return encodePNG(scaled)
}

func usageCodeQR(code string) ([]byte, error) {
	qc, err := qr.Encode(code, qr.M, qr.Auto)
	if err != nil {
		return nil, fmt.Errorf("encode usage-code qr: %w", err)
	}
	scaled, err := barcode.Scale(qc, qrSize, qrSize)
	if err != nil {
		return nil, fmt.Errorf("scale usage-code qr: %w", err)
	}
	return encodePNG(scaled)
}

func encodePNG(bc barcode.Barcode) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, bc); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}
