package export

import (
	"bytes"
	"strings"

	"padelcentar/internal/models"
)

// CSVHeader is the fixed, unquoted first line of every CSV export.
const CSVHeader = "Ime,Prezime,Email,Datum Rođenja,Spol,Padel Iskustvo"

// CSVFilename is the attachment name offered to the browser.
const CSVFilename = "registrirani_korisnici.csv"

// CSV renders users as a Croatian-labelled CSV document. Every data field
// is double-quoted with embedded quotes doubled, and every row ends in a
// newline. It returns ErrNoRecords when users is empty.
func CSV(users []models.User) ([]byte, error) {
	if len(users) == 0 {
		return nil, ErrNoRecords
	}

	var buf bytes.Buffer
	buf.WriteString(CSVHeader)
	buf.WriteByte('\n')
	for i := range users {
		writeCSVRow(&buf, csvFields(&users[i]))
	}
	return buf.Bytes(), nil
}

func csvFields(u *models.User) []string {
	first, last := splitName(u.Name)
	return []string{
		first,
		last,
		u.Email,
		formatDateHR(u.BirthDate),
		genderLabelHR(u.Gender),
		experienceLabelHR(u.PadelExperience),
	}
}

// writeCSVRow quotes every field unconditionally; encoding/csv only quotes
// when a field needs it.
func writeCSVRow(buf *bytes.Buffer, fields []string) {
	for i, field := range fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteByte('"')
		buf.WriteString(strings.ReplaceAll(field, `"`, `""`))
		buf.WriteByte('"')
	}
	buf.WriteByte('\n')
}
