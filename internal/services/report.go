package services

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"io"
	"text/tabwriter"
	"text/template"
	"time"

	. "confluence-lifecycle/internal/common"
	. "confluence-lifecycle/internal/interfaces"
	"confluence-lifecycle/internal/lifecycle"
	"confluence-lifecycle/internal/models"

	"github.com/dustin/go-humanize"
	"github.com/ternarybob/arbor"
)

// reportBody is the Confluence storage-format template for the summary
// page, following the layout of the report this tool has always written.
const reportBody = `<h2>Warning!</h2>
<p>This page is <strong>automated!</strong> Do not edit it directly or manually. Your work will be lost when the automated process next runs.</p>

<h2>The Latest Run</h2>
<ol>
  <li>The last run was on {{.RunDate}}</li>
  <li>Space: {{.Space}}</li>
  <li>Total number of pages managed: {{.Total}}</li>
{{- if .PreviousRun}}
  <li>The previous run was on {{.PreviousRun}}</li>
{{- end}}
</ol>

<h2>Latest Figures</h2>
<p>Here are the latest figures from the latest run:</p>
<table>
  <tbody>
    <tr>
      <th>Fresh</th>
      <th>Stale</th>
      <th>Rotten</th>
    </tr>
    <tr>
      <td>{{.Stats.Pages.Fresh}}</td>
      <td>{{.Stats.Pages.Stale}}</td>
      <td>{{.Stats.Pages.Rotten}}</td>
    </tr>
  </tbody>
</table>

<h2>Change Statistics</h2>
<p>Below we list statistics about how many changes were made in each category:</p>
<table>
  <tbody>
    <tr>
      <th>Fresh</th>
      <th>Stale</th>
      <th>Rotten</th>
    </tr>
    <tr>
      <td>{{.Stats.Changed.Fresh}}</td>
      <td>{{.Stats.Changed.Stale}}</td>
      <td>{{.Stats.Changed.Rotten}}</td>
    </tr>
  </tbody>
</table>

<h2>Lifecycle Statistics</h2>
<p>These counters are the number of pages with lifecycle_ignore labels that resulted in no change, even if change was desired by the algorithm.</p>
<table>
  <tbody>
    <tr>
      <th>Fresh</th>
      <th>Stale</th>
      <th>Rotten</th>
    </tr>
    <tr>
      <td>{{.Stats.Ignored.Fresh}}</td>
      <td>{{.Stats.Ignored.Stale}}</td>
      <td>{{.Stats.Ignored.Rotten}}</td>
    </tr>
  </tbody>
</table>

<h2>Pages</h2>
<p>One row per processed page, in the order the space listing returned them:</p>
<table>
  <tbody>
    <tr>
      <th>Title</th>
      <th>Previous Label</th>
      <th>New Label</th>
      <th>Error</th>
    </tr>
{{- range .Results}}
    <tr>
      <td>{{escape .Title}}</td>
      <td>{{escape .PreviousLabel}}</td>
      <td>{{escape .NewLabel}}</td>
      <td>{{escape .Error}}</td>
    </tr>
{{- end}}
  </tbody>
</table>
`

var reportTemplate = template.Must(template.New("report").
	Funcs(template.FuncMap{"escape": html.EscapeString}).
	Parse(reportBody))

type reportData struct {
	RunDate     string
	Space       string
	Total       int
	PreviousRun string
	Stats       models.RunStats
	Results     []models.ProcessResult
}

// ReportRenderer turns a completed run into a report page body and
// pushes it to the configured report page.
type ReportRenderer struct {
	client ConfluenceClient
	logger arbor.ILogger
}

func NewReportRenderer(client ConfluenceClient) *ReportRenderer {
	return &ReportRenderer{
		client: client,
		logger: GetLogger(),
	}
}

// Render produces the report page body. It is a pure function of the
// run records supplied; prev may be nil when no earlier run is known.
func (r *ReportRenderer) Render(run *models.RunRecord, prev *models.RunRecord) (string, error) {
	data := reportData{
		RunDate: run.FinishedAt.Format(time.RFC1123),
		Space:   run.Space,
		Total:   run.Stats.Pages.Total(),
		Stats:   run.Stats,
		Results: run.Results,
	}
	if prev != nil {
		data.PreviousRun = prev.FinishedAt.Format(time.RFC1123)
	}

	var buf bytes.Buffer
	if err := reportTemplate.Execute(&buf, data); err != nil {
		return "", WrapError(err, ErrorTypeReport, "RENDER", "failed to render report body")
	}

	return buf.String(), nil
}

// Publish overwrites the report page and labels it lifecycle_ignore so
// the walker never classifies the report itself.
func (r *ReportRenderer) Publish(ctx context.Context, pageID, title, body string) error {
	if err := r.client.UpdatePage(ctx, pageID, title, body); err != nil {
		return WrapError(err, ErrorTypeReport, "PUBLISH",
			fmt.Sprintf("failed to update report page %s", pageID))
	}

	if err := r.client.AddPageLabel(ctx, pageID, lifecycle.IgnoreLabel); err != nil {
		return WrapError(err, ErrorTypeReport, "PUBLISH_LABEL",
			fmt.Sprintf("failed to label report page %s", pageID))
	}

	r.logger.Info().
		Str("page", pageID).
		Msg("Report page updated")

	return nil
}

// RenderTable writes a console summary of the run, one row per page in
// listing order.
func RenderTable(out io.Writer, run *models.RunRecord) {
	tw := tabwriter.NewWriter(out, 0, 8, 2, ' ', 0)

	fmt.Fprintf(tw, "Space %s scanned at %s (%d pages, %d errors)\n",
		run.Space,
		run.FinishedAt.Format("2006-01-02 15:04:05"),
		len(run.Results),
		run.Stats.Errors)

	fmt.Fprintln(tw, "TITLE\tPHASE\tLAST MODIFIED\tPREVIOUS\tNEW\tCHANGED\tERROR")

	for _, result := range run.Results {
		age := ""
		if !result.LastModified.IsZero() {
			age = humanize.Time(result.LastModified)
		}

		changed := ""
		switch {
		case result.Changed:
			changed = "yes"
		case result.Ignored:
			changed = "ignored"
		}

		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			result.Title,
			result.Phase,
			age,
			result.PreviousLabel,
			result.NewLabel,
			changed,
			result.Error)
	}

	fmt.Fprintf(tw, "Fresh: %d  Stale: %d  Rotten: %d  Total: %d\n",
		run.Stats.Pages.Fresh,
		run.Stats.Pages.Stale,
		run.Stats.Pages.Rotten,
		run.Stats.Pages.Total())

	tw.Flush()
}
