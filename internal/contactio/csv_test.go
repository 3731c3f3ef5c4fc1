package contactio

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elit-parking/campaign-cli/internal/model"
)

func TestReadCSV(t *testing.T) {
	in := "client_phone,client_name,client_email,notes\n" +
		"+33612345678,Jean Dupont,j@x.com,vip\n" +
		"33698765432,Marie CURIE,,\n"

	got, err := ReadCSV(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, model.RawContact{Phone: "+33612345678", Name: "Jean Dupont", Email: "j@x.com"}, got[0])
	assert.Equal(t, model.RawContact{Phone: "33698765432", Name: "Marie CURIE"}, got[1])
}

func TestReadCSV_BOMAndColumnOrder(t *testing.T) {
	in := "\xEF\xBB\xBFclient_name,client_phone\n" +
		"Jean Dupont,+33612345678\n"

	got, err := ReadCSV(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "+33612345678", got[0].Phone)
	assert.Empty(t, got[0].Email)
}

func TestReadCSV_MissingColumn(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("phone,name\n+33612345678,Jean\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `missing column "client_phone"`)
}

func TestReadCSV_Empty(t *testing.T) {
	_, err := ReadCSV(strings.NewReader(""))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty csv")
}

func TestReadCSV_HeaderOnly(t *testing.T) {
	got, err := ReadCSV(strings.NewReader("client_phone,client_name,client_email\n"))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestWriteCSV_RoundTrip(t *testing.T) {
	contacts := []model.CleanContact{
		{Phone: "+33612345678", Name: "Jean Dupont", Email: "j@x.com", FirstName: "Jean", TestGroup: "A"},
		{Phone: "+33698765432", Name: "Marie Curie", FirstName: "Marie", TestGroup: "C"},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, contacts))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "client_phone,client_name,client_email,first_name,test_group", lines[0])

	path := filepath.Join(t.TempDir(), "prepared.csv")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))

	got, err := ReadPrepared(path)
	require.NoError(t, err)
	assert.Equal(t, contacts, got)
}

func TestWriteCSV_EmptyWritesHeader(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, nil))
	assert.Equal(t, "client_phone,client_name,client_email,first_name,test_group\n", buf.String())
}

func TestReadContacts_Dispatch(t *testing.T) {
	dir := t.TempDir()

	csvPath := filepath.Join(dir, "contacts.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte("client_phone,client_name\n+33612345678,Jean Dupont\n"), 0o644))
	got, err := ReadContacts(csvPath)
	require.NoError(t, err)
	assert.Len(t, got, 1)

	_, err = ReadContacts(filepath.Join(dir, "contacts.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported file type")

	_, err = ReadContacts(filepath.Join(dir, "missing.csv"))
	assert.Error(t, err)
}
