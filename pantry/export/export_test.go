package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

var sample = Table{
	Headers: []string{"Nom", "Email", "Message"},
	Rows: [][]string{
		{"Zoé", "zoe@example.fr", "Bonjour, je souhaite un rendez-vous."},
		{"Marc", "marc@example.fr"},
	},
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, "Contacts", sample))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Contacts")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, sample.Headers, rows[0])
	assert.Equal(t, "Zoé", rows[1][0])
	require.GreaterOrEqual(t, len(rows[2]), 2)
	assert.Equal(t, []string{"Marc", "marc@example.fr"}, rows[2][:2])
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sample))
	assert.Equal(t,
		"Nom,Email,Message\r\n"+
			"Zoé,zoe@example.fr,\"Bonjour, je souhaite un rendez-vous.\"\r\n"+
			"Marc,marc@example.fr,\r\n",
		buf.String())
}

func TestEmptyHeaders(t *testing.T) {
	var buf bytes.Buffer
	assert.ErrorIs(t, WriteXLSX(&buf, "", Table{}), ErrEmptyHeaders)
	assert.ErrorIs(t, WriteCSV(&buf, Table{}), ErrEmptyHeaders)
}
