package contactio

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/elit-parking/campaign-cli/internal/model"
)

func createTestXLSX(t *testing.T, sheets map[string][][]string) string {
	t.Helper()
	f := xlsx.NewFile()
	for name, rows := range sheets {
		sheet, err := f.AddSheet(name)
		require.NoError(t, err)
		for _, rowData := range rows {
			row := sheet.AddRow()
			for _, cellData := range rowData {
				cell := row.AddCell()
				cell.SetString(cellData)
			}
		}
	}
	path := filepath.Join(t.TempDir(), "contacts.xlsx")
	require.NoError(t, f.Save(path))
	return path
}

func TestReadXLSX(t *testing.T) {
	path := createTestXLSX(t, map[string][][]string{
		"Export": {
			{"Client_Name ", "client_phone", "client_email"},
			{"Jean Dupont", "+33612345678", "j@x.com"},
			{"", "", ""},
			{"Marie Curie", "33698765432"},
		},
	})

	got, err := ReadXLSX(path, XLSXOptions{})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, model.RawContact{Phone: "+33612345678", Name: "Jean Dupont", Email: "j@x.com"}, got[0])
	assert.Equal(t, model.RawContact{Phone: "33698765432", Name: "Marie Curie"}, got[1])
}

func TestReadXLSX_MissingColumn(t *testing.T) {
	path := createTestXLSX(t, map[string][][]string{
		"Export": {{"name", "email"}, {"Jean", "j@x.com"}},
	})

	_, err := ReadXLSX(path, XLSXOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing column")
}

func TestReadXLSX_SheetSelection(t *testing.T) {
	path := createTestXLSX(t, map[string][][]string{
		"Export": {{"client_phone", "client_name"}, {"+33612345678", "Jean Dupont"}},
	})

	got, err := ReadXLSX(path, XLSXOptions{SheetName: "Export"})
	require.NoError(t, err)
	assert.Len(t, got, 1)

	_, err = ReadXLSX(path, XLSXOptions{SheetName: "Nope"})
	assert.Error(t, err)

	_, err = ReadXLSX(path, XLSXOptions{SheetIndex: 3})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of range")
}

func TestReadContacts_XLSX(t *testing.T) {
	path := createTestXLSX(t, map[string][][]string{
		"Sheet1": {{"client_phone", "client_name"}, {"+33612345678", "Jean Dupont"}},
	})

	got, err := ReadContacts(path)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Jean Dupont", got[0].Name)
}
