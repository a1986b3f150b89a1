package export

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/template"

	"github.com/mitlibraries/ccslips/pkg/models/domain"
)

const summaryTemplate = `Credit card slips for {{.Date}}
Slips: {{.Slips}}
Recipients: {{join .Recipients ", "}}
SES message ID: {{.MessageID}}
Elapsed: {{.Elapsed}}
`

// Reporter writes run summaries to the console.
type Reporter struct {
	writer io.Writer
	tmpl   *template.Template
}

func NewReporter(writer io.Writer) *Reporter {
	if writer == nil {
		writer = os.Stdout
	}
	tmpl := template.Must(template.New("summary").
		Funcs(template.FuncMap{"join": strings.Join}).
		Parse(summaryTemplate))
	return &Reporter{writer: writer, tmpl: tmpl}
}

func (r *Reporter) Handle(summary *domain.RunSummary) error {
	if err := r.tmpl.Execute(r.writer, summary); err != nil {
		return fmt.Errorf("failed to write summary: %w", err)
	}
	return nil
}
