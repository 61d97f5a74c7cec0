package reportserver

import (
	"context"
	"io"
	"strconv"
	"strings"

	"github.com/a-h/templ"

	"stepgrade/internal/stats"
	"stepgrade/internal/store"
)

const pageHead = `<!doctype html>
<html lang="en">
  <head>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <title>`

const tableHead = `
    <table>
      <thead>
        <tr><th>Difficulty</th><th>Sub-questions</th><th>Shortcut</th><th>Mean score</th><th>Answers</th><th>Accuracy</th></tr>
      </thead>
      <tbody>
`

const pageFoot = `    <p><a href="/api/summary">JSON</a> · <a href="/data/results.db">database</a> · <a href="/metrics">metrics</a></p>
  </body>
</html>
`

// indexPage renders the per-difficulty summary table.
func indexPage(title string, rows []store.DifficultySummary) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString(pageHead)
		b.WriteString(templ.EscapeString(title))
		b.WriteString("</title>\n  </head>\n  <body>\n    <h1>")
		b.WriteString(templ.EscapeString(title))
		b.WriteString("</h1>")
		if len(rows) == 0 {
			b.WriteString("\n    <p>No results stored yet.</p>\n")
		} else {
			b.WriteString(tableHead)
			for _, row := range rows {
				b.WriteString("        <tr>")
				cell(&b, stats.Capitalize(row.Difficulty))
				cell(&b, strconv.Itoa(row.SubQuestions))
				cell(&b, strconv.Itoa(row.Shortcut))
				cell(&b, strconv.FormatFloat(row.MeanScore, 'f', 3, 64))
				cell(&b, strconv.Itoa(row.Correct)+"/"+strconv.Itoa(row.Answered))
				cell(&b, strconv.FormatFloat(row.AnswerAccuracy(), 'f', 1, 64)+"%")
				b.WriteString("</tr>\n")
			}
			b.WriteString("      </tbody>\n    </table>\n")
		}
		b.WriteString(pageFoot)
		_, err := io.WriteString(w, b.String())
		return err
	})
}

func cell(b *strings.Builder, text string) {
	b.WriteString("<td>")
	b.WriteString(templ.EscapeString(text))
	b.WriteString("</td>")
}
