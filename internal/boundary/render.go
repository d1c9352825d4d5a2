package boundary

import (
	"bytes"
	"fmt"
	"strconv"
	"text/template"

	"github.com/Masterminds/sprig/v3"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"stagehand/internal/api"
)

// maxErrorWidth bounds the error column of the status table.
const maxErrorWidth = 60

const failureTemplate = `{{- if .Unit -}}
The {{ .Unit | replace "_" " " | title }} subsystem failed to start: {{ .Cause | default "unknown error" | trunc 300 }}
{{- if gt .Attempts 1 }} (after {{ .Attempts }} attempts){{ end }}
{{- else -}}
Startup failed.
{{- end }}
{{- if .Others }}
Also failing: {{ .Others | join ", " }}
{{- end }}
`

// failureView is the data handed to the failure template.
type failureView struct {
	Unit     string
	Cause    string
	Attempts int
	Others   []string
}

// Renderer turns snapshots into text.
type Renderer struct {
	failure *template.Template
}

// NewRenderer creates a renderer.
func NewRenderer() *Renderer {
	return &Renderer{
		failure: template.Must(template.New("failure").Funcs(sprig.TxtFuncMap()).Parse(failureTemplate)),
	}
}

// Failure renders the message naming the subsystem that halted startup. The
// first failed eager unit is named, other failed units are listed after it.
func (r *Renderer) Failure(snapshot api.Snapshot) (string, error) {
	var view failureView
	if first, ok := snapshot.FirstEagerFailure(); ok {
		view.Unit = string(first.ID)
		view.Attempts = first.Attempts
		if cause := api.Cause(first.Error); cause != nil {
			view.Cause = cause.Error()
		}
	}
	for _, u := range snapshot.Failed() {
		if string(u.ID) != view.Unit {
			view.Others = append(view.Others, string(u.ID))
		}
	}

	var buf bytes.Buffer
	if err := r.failure.Execute(&buf, view); err != nil {
		return "", fmt.Errorf("failed to render failure message: %w", err)
	}
	return text.FgRed.Sprint(buf.String()), nil
}

// Status renders the unit table followed by the global state.
func (r *Renderer) Status(snapshot api.Snapshot) string {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"UNIT", "MODE", "STATE", "ATTEMPTS", "ERROR"})

	for _, u := range snapshot.Units {
		errText := ""
		if cause := api.Cause(u.Error); cause != nil {
			errText = text.Trim(cause.Error(), maxErrorWidth)
		}
		t.AppendRow(table.Row{
			string(u.ID),
			string(u.Mode),
			colorState(u.State),
			strconv.Itoa(u.Attempts),
			errText,
		})
	}

	return t.Render() + "\n" + fmt.Sprintf("Global state: %s\n", colorGlobal(snapshot.Global))
}

// RecentLog renders log lines below the status table. It returns an empty
// string when there are none.
func (r *Renderer) RecentLog(lines []string) string {
	if len(lines) == 0 {
		return ""
	}
	var buf bytes.Buffer
	buf.WriteString("Recent log:\n")
	for _, line := range lines {
		buf.WriteString("  " + text.FgHiBlack.Sprint(line) + "\n")
	}
	return buf.String()
}

func colorState(state api.State) string {
	switch state {
	case api.StateReady:
		return text.FgGreen.Sprint(state)
	case api.StateLoading:
		return text.FgYellow.Sprint(state)
	case api.StateError:
		return text.FgRed.Sprint(state)
	default:
		return text.FgHiBlack.Sprint(state)
	}
}

func colorGlobal(state api.GlobalState) string {
	switch state {
	case api.GlobalReady:
		return text.FgGreen.Sprint(state)
	case api.GlobalLoading:
		return text.FgYellow.Sprint(state)
	case api.GlobalError:
		return text.FgRed.Sprint(state)
	default:
		return text.FgHiBlack.Sprint(state)
	}
}
