// Package contactio reads contact exports and writes prepared contact lists
// and campaign results.
package contactio

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"

	"github.com/elit-parking/campaign-cli/internal/model"
)

// Column names shared by raw exports and prepared files.
const (
	ColumnPhone = "client_phone"
	ColumnName  = "client_name"
	ColumnEmail = "client_email"
)

var requiredColumns = []string{ColumnPhone, ColumnName}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ReadContacts loads raw contacts from a .csv or .xlsx export.
func ReadContacts(path string) ([]model.RawContact, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return ReadXLSX(path, XLSXOptions{})
	case ".csv", "":
		f, err := os.Open(path)
		if err != nil {
			return nil, eris.Wrapf(err, "contactio: open %s", path)
		}
		defer f.Close() //nolint:errcheck
		return ReadCSV(f)
	default:
		return nil, eris.Errorf("contactio: unsupported file type %q", filepath.Ext(path))
	}
}

// ReadCSV decodes raw contacts from CSV with a header row. Columns other than
// client_phone, client_name and client_email are ignored.
func ReadCSV(r io.Reader) ([]model.RawContact, error) {
	var out []model.RawContact
	if err := decodeCSV(r, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ReadPrepared loads a prepared contact file written by WritePrepared.
func ReadPrepared(path string) ([]model.CleanContact, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "contactio: open %s", path)
	}
	defer f.Close() //nolint:errcheck

	var out []model.CleanContact
	if err := decodeCSV(f, &out); err != nil {
		return nil, eris.Wrapf(err, "contactio: read %s", path)
	}
	return out, nil
}

func decodeCSV[T any](r io.Reader, out *[]T) error {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		br.Discard(len(utf8BOM)) //nolint:errcheck
	}

	cr := csv.NewReader(br)
	dec, err := csvutil.NewDecoder(cr)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return eris.New("contactio: empty csv")
		}
		return eris.Wrap(err, "contactio: read header")
	}

	header := dec.Header()
	for _, col := range requiredColumns {
		if !slices.Contains(header, col) {
			return eris.Errorf("contactio: missing column %q", col)
		}
	}

	for {
		var v T
		if err := dec.Decode(&v); err == io.EOF {
			break
		} else if err != nil {
			return eris.Wrap(err, "contactio: decode row")
		}
		*out = append(*out, v)
	}
	return nil
}

// WriteCSV encodes contacts with a header row.
func WriteCSV(w io.Writer, contacts []model.CleanContact) error {
	cw := csv.NewWriter(w)
	enc := csvutil.NewEncoder(cw)

	if len(contacts) == 0 {
		if err := enc.EncodeHeader(model.CleanContact{}); err != nil {
			return eris.Wrap(err, "contactio: encode header")
		}
	} else if err := enc.Encode(contacts); err != nil {
		return eris.Wrap(err, "contactio: encode contacts")
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return eris.Wrap(err, "contactio: flush csv")
	}
	return nil
}
