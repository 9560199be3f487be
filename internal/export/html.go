package export

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"padelcentar/internal/models"
)

// HTMLTitle is the page and heading title of the HTML report.
const HTMLTitle = "Registered Users - Padel Center Umag"

type htmlRow struct {
	FirstName  string
	LastName   string
	Email      string
	BirthDate  string
	Gender     string
	Experience string
}

type htmlReport struct {
	Title      string
	ExportedAt string
	Total      int
	Rows       []htmlRow
}

var reportTemplate = template.Must(template.New("report").Parse(reportHTML))

// HTML renders users as a self-contained English HTML report stamped with
// exportedAt. It returns ErrNoRecords when users is empty.
func HTML(users []models.User, exportedAt time.Time) ([]byte, error) {
	if len(users) == 0 {
		return nil, ErrNoRecords
	}

	report := htmlReport{
		Title:      HTMLTitle,
		ExportedAt: formatTimestampEN(exportedAt),
		Total:      len(users),
		Rows:       make([]htmlRow, 0, len(users)),
	}
	for i := range users {
		u := &users[i]
		first, last := splitName(u.Name)
		report.Rows = append(report.Rows, htmlRow{
			FirstName:  first,
			LastName:   last,
			Email:      u.Email,
			BirthDate:  formatDateEN(u.BirthDate),
			Gender:     genderLabelEN(u.Gender),
			Experience: experienceLabelEN(u.PadelExperience),
		})
	}

	var buf bytes.Buffer
	if err := reportTemplate.Execute(&buf, report); err != nil {
		return nil, fmt.Errorf("failed to render html export: %w", err)
	}
	return buf.Bytes(), nil
}

const reportHTML = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <title>{{.Title}}</title>
  <style>
    body { font-family: Arial, sans-serif; margin: 20px; line-height: 1.6; }
    table { border-collapse: collapse; width: 100%; margin: 20px 0; }
    th, td { border: 1px solid #ddd; padding: 12px; text-align: left; }
    th { background-color: #f8f9fa; font-weight: bold; }
    tr:nth-child(even) { background-color: #f8f9fa; }
    tr:hover { background-color: #f2f2f2; }
    .export-info { color: #666; margin-bottom: 20px; }
    .export-buttons { margin: 20px 0; }
    .export-btn { background-color: #4CAF50; color: white; padding: 10px 20px; border: none; border-radius: 4px; cursor: pointer; font-size: 16px; margin-right: 10px; }
    .export-btn:hover { background-color: #45a049; }
  </style>
</head>
<body>
  <div class="export-info">
    <h1>{{.Title}}</h1>
    <p>Exported: {{.ExportedAt}}</p>
    <p>Total users: {{.Total}}</p>
  </div>

  <div class="export-buttons">
    <button onclick="exportTableToCSV('registered_users.csv')" class="export-btn">Export to CSV</button>
  </div>

  <table id="usersTable">
    <thead>
      <tr>
        <th>First Name</th>
        <th>Last Name</th>
        <th>Email</th>
        <th>Birth Date</th>
        <th>Gender</th>
        <th>Padel Experience</th>
      </tr>
    </thead>
    <tbody>
{{- range .Rows}}
      <tr>
        <td>{{.FirstName}}</td>
        <td>{{.LastName}}</td>
        <td>{{.Email}}</td>
        <td>{{.BirthDate}}</td>
        <td>{{.Gender}}</td>
        <td>{{.Experience}}</td>
      </tr>
{{- end}}
    </tbody>
  </table>

  <script>
    function exportTableToCSV(filename) {
      var rows = document.getElementById('usersTable').querySelectorAll('tr');
      var csv = [];
      for (var i = 0; i < rows.length; i++) {
        var cells = rows[i].querySelectorAll('th, td');
        var rowData = [];
        for (var j = 0; j < cells.length; j++) {
          var text = cells[j].textContent;
          if (text.indexOf('"') !== -1 || text.indexOf(',') !== -1) {
            text = '"' + text.split('"').join('""') + '"';
          }
          rowData.push(text);
        }
        csv.push(rowData.join(','));
      }
      var blob = new Blob([csv.join('\n')], { type: 'text/csv;charset=utf-8;' });
      if (navigator.msSaveBlob) {
        navigator.msSaveBlob(blob, filename);
        return;
      }
      var link = document.createElement('a');
      if (link.download !== undefined) {
        link.setAttribute('href', URL.createObjectURL(blob));
        link.setAttribute('download', filename);
        link.style.visibility = 'hidden';
        document.body.appendChild(link);
        link.click();
        document.body.removeChild(link);
      }
    }

    window.onload = function () {
      try {
        var range = document.createRange();
        range.selectNode(document.querySelector('table'));
        window.getSelection().removeAllRanges();
        window.getSelection().addRange(range);
      } catch (error) {
        console.error('Error selecting table:', error);
      }
    };
  </script>
</body>
</html>
`
