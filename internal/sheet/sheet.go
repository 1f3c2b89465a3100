// Package sheet is the spreadsheet boundary: it turns an uploaded
// contact sheet into registry rows and renders the referrer case book
// back out as CSV. Nothing here touches state; callers hand the results
// to the store.
package sheet

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/alexisq/pastracker/internal/domain"
	"github.com/alexisq/pastracker/internal/store"
)

// ReadRows streams a CSV sheet and returns its data rows with the
// header line dropped. Rows may have fewer columns than the header;
// downstream parsing pads them.
func ReadRows(r io.Reader) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	if _, err := cr.Read(); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("read sheet header: %w", err)
	}

	var rows [][]string
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read sheet row %d: %w", len(rows)+2, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// Import parses an uploaded sheet into the contact registry.
func Import(r io.Reader) ([]domain.Contact, error) {
	rows, err := ReadRows(r)
	if err != nil {
		return nil, err
	}
	return domain.ParseContacts(rows), nil
}

// exportHeader matches the columns of the case-book spreadsheet.
var exportHeader = []string{
	"PAS", "Mail", "Asegurado", "Estado", "Fecha derivación",
	"Monto ofrecimiento", "Cobré yo", "Cobró asegurado", "Comisión PAS", "Nota",
}

// ExportRows builds the case book: one row per referrer and case, in
// registry order. A referrer without cases still gets one row with the
// case columns blank, so the export always lists every partner.
func ExportRows(snap *store.Snapshot) [][]string {
	rows := [][]string{exportHeader}
	for _, p := range snap.Contacts {
		if !snap.Referrers[p.ID] {
			continue
		}
		cases := snap.Cases[p.ID]
		if len(cases) == 0 {
			rows = append(rows, []string{p.Name, p.Mail, "", "", "", "", "", "", "", ""})
			continue
		}
		for _, c := range cases {
			rows = append(rows, []string{
				p.Name, p.Mail, c.Insured, c.Status.Label(), c.ReferralDate,
				money(c.OfferAmount), money(c.MyFee), money(c.InsuredPayout),
				money(c.PASCommission), c.Note,
			})
		}
	}
	return rows
}

// WriteCSV renders the case book to w.
func WriteCSV(w io.Writer, snap *store.Snapshot) error {
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(ExportRows(snap)); err != nil {
		return fmt.Errorf("write case export: %w", err)
	}
	return nil
}

// ExportFilename names the download with the export date.
func ExportFilename(now time.Time) string {
	return fmt.Sprintf("pastracker_casos_%s.csv", now.Format("2006-01-02"))
}

func money(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
