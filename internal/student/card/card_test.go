package card

import (
	"bytes"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carteirinha/internal/student/models"
)

func TestBuild(t *testing.T) {
	st := models.Student{
		Name:      "ANA SILVA",
		Matricula: "123456",
		UsageCode: "AB12CD34",
	}

	payload, err := Build(st)
	require.NoError(t, err)
	assert.Equal(t, st, payload.Student)

	bar, err := png.Decode(bytes.NewReader(payload.BarcodePNG))
	require.NoError(t, err, "barcode must be a valid png")
	assert.Equal(t, barcodeWidth, bar.Bounds().Dx())
	assert.Equal(t, barcodeHeight, bar.Bounds().Dy())

	code, err := png.Decode(bytes.NewReader(payload.QRCodePNG))
	require.NoError(t, err, "qr must be a valid png")
	assert.Equal(t, qrSize, code.Bounds().Dx())
	assert.Equal(t, qrSize, code.Bounds().Dy())
}

func TestBuildRejectsUnencodableMatricula(t *testing.T) {
	_, err := Build(models.Student{Matricula: "12345ÿ6", UsageCode: "AB12CD34"})
	require.Error(t, err)
}
