// Package output renders reports, transcripts and company data as text,
// JSON, YAML or tables.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/bimmerbailey/aura/internal/chat"
	"github.com/bimmerbailey/aura/internal/company"
	"github.com/bimmerbailey/aura/internal/config"
	"github.com/bimmerbailey/aura/internal/predict"
	"github.com/bimmerbailey/aura/internal/prompt"
	"github.com/bimmerbailey/aura/internal/report"
)

// Format represents an output format type.
type Format string

const (
	FormatText  Format = "text"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
	FormatTable Format = "table"
)

// ParseFormat converts a string to a Format, defaulting to text.
func ParseFormat(s string) Format {
	switch strings.ToLower(s) {
	case "json":
		return FormatJSON
	case "yaml", "yml":
		return FormatYAML
	case "table":
		return FormatTable
	default:
		return FormatText
	}
}

// Writer handles writing formatted output.
type Writer struct {
	w        io.Writer
	format   Format
	colorize bool
}

// New creates a new output Writer.
func New(w io.Writer, format Format, mode ColorMode) *Writer {
	return &Writer{w: w, format: format, colorize: shouldColorize(mode, w)}
}

// Format returns the writer's format.
func (wr *Writer) Format() Format { return wr.format }

// Structured reports whether the format is machine readable.
func (wr *Writer) Structured() bool {
	return wr.format == FormatJSON || wr.format == FormatYAML
}

// WriteJSON outputs any value as indented JSON.
func (wr *Writer) WriteJSON(v interface{}) error {
	enc := json.NewEncoder(wr.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteYAML outputs any value as YAML.
func (wr *Writer) WriteYAML(v interface{}) error {
	enc := yaml.NewEncoder(wr.w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

// WriteStructured handles the JSON and YAML formats. It reports false for
// the human-readable ones.
func (wr *Writer) WriteStructured(v interface{}) (bool, error) {
	switch wr.format {
	case FormatJSON:
		return true, wr.WriteJSON(v)
	case FormatYAML:
		return true, wr.WriteYAML(v)
	}
	return false, nil
}

// Errorf prints a single error line.
func (wr *Writer) Errorf(format string, args ...any) {
	fmt.Fprintln(wr.w, Paint(wr.colorize, colorRed, fmt.Sprintf(format, args...)))
}

// Notef prints a dimmed informational line in the human formats.
func (wr *Writer) Notef(format string, args ...any) {
	if wr.Structured() {
		return
	}
	fmt.Fprintln(wr.w, Paint(wr.colorize, colorGray, fmt.Sprintf(format, args...)))
}

// WriteResult renders one analysis result.
func (wr *Writer) WriteResult(r predict.Result) error {
	if ok, err := wr.WriteStructured(r); ok {
		return err
	}
	table := wr.format == FormatTable

	fmt.Fprintln(wr.w, Paint(wr.colorize, colorBold, r.Kind().Title()))
	switch r := r.(type) {
	case *predict.RoiForecastResult:
		return wr.writeROI(r, table)
	case *predict.SkillGapsResult:
		return wr.writeSkillGaps(r, table)
	case *predict.DevPlanResult:
		return wr.writeDevPlan(r, table)
	default:
		return fmt.Errorf("cannot render result of type %T", r)
	}
}

func (wr *Writer) writeROI(r *predict.RoiForecastResult, table bool) error {
	fmt.Fprintf(wr.w, "Predicted ROI: %s%%\n\n", number(r.PredictedRoiPercentage))
	fmt.Fprintln(wr.w, r.Summary)

	fmt.Fprintln(wr.w, "\nQuarterly impact:")
	if table {
		tw := tabwriter.NewWriter(wr.w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "QUARTER\tUPLIFT")
		fmt.Fprintln(tw, "-------\t------")
		for _, q := range r.QuarterlyImpact {
			fmt.Fprintf(tw, "%s\t%s%%\n", q.Quarter, number(q.UpliftPercentage))
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	} else {
		for _, q := range r.QuarterlyImpact {
			fmt.Fprintf(wr.w, "  %s  +%s%%\n", q.Quarter, number(q.UpliftPercentage))
		}
	}

	fmt.Fprintln(wr.w, "\nKey factors:")
	for _, f := range r.KeyFactors {
		fmt.Fprintf(wr.w, "  - %s\n", f)
	}
	return nil
}

func (wr *Writer) writeSkillGaps(r *predict.SkillGapsResult, table bool) error {
	fmt.Fprintln(wr.w, r.AnalysisSummary)

	sections := []struct {
		title  string
		skills []predict.Skill
	}{
		{"Future skills", r.FutureSkills},
		{"Declining skills", r.DecliningSkills},
	}
	for _, s := range sections {
		fmt.Fprintf(wr.w, "\n%s:\n", s.title)
		if table {
			tw := tabwriter.NewWriter(wr.w, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "SKILL\tIMPORTANCE")
			fmt.Fprintln(tw, "-----\t----------")
			for _, sk := range s.skills {
				fmt.Fprintf(tw, "%s\t%s\n", sk.Skill, number(sk.Importance))
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			continue
		}
		for _, sk := range s.skills {
			fmt.Fprintf(wr.w, "  %-30s %s/10\n", sk.Skill, number(sk.Importance))
		}
	}
	return nil
}

func (wr *Writer) writeDevPlan(r *predict.DevPlanResult, table bool) error {
	fmt.Fprintf(wr.w, "%s: %s -> %s\n\n", r.EmployeeName, r.CurrentRole, r.TargetRole)
	fmt.Fprintln(wr.w, r.Summary)
	fmt.Fprintln(wr.w, "\nDevelopment steps:")

	steps := r.SortedSteps()
	if table {
		tw := tabwriter.NewWriter(wr.w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "STEP\tACTION\tRESOURCES\tTIMELINE")
		fmt.Fprintln(tw, "----\t------\t---------\t--------")
		for _, s := range steps {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", number(s.Step), s.Action, s.Resources, s.Timeline)
		}
		return tw.Flush()
	}
	for _, s := range steps {
		fmt.Fprintf(wr.w, "  %s. %s\n", number(s.Step), s.Action)
		fmt.Fprintf(wr.w, "     Resources: %s\n", s.Resources)
		fmt.Fprintf(wr.w, "     Timeline:  %s\n", s.Timeline)
	}
	return nil
}

// WriteReports lists saved reports with their age relative to now.
func (wr *Writer) WriteReports(reports []report.Report, now time.Time) error {
	if ok, err := wr.WriteStructured(reports); ok {
		return err
	}
	if len(reports) == 0 {
		fmt.Fprintln(wr.w, "No reports saved yet.")
		return nil
	}

	tw := tabwriter.NewWriter(wr.w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tCOMPANY\tCREATED")
	fmt.Fprintln(tw, "--\t-----\t-------\t-------")
	for _, r := range reports {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.ShortID(), truncate(r.Title, 50), r.CompanyName, config.FormatRelative(r.Timestamp, now))
	}
	return tw.Flush()
}

// WriteReport renders a saved report with its heading and any transcript.
func (wr *Writer) WriteReport(r report.Report, now time.Time) error {
	if ok, err := wr.WriteStructured(r); ok {
		return err
	}
	result, err := r.Decode()
	if err != nil {
		return fmt.Errorf("decoding report %s: %w", r.ShortID(), err)
	}

	wr.Notef("%s · %s · %s", r.ShortID(), r.CompanyName, config.FormatRelative(r.Timestamp, now))
	if err := wr.WriteResult(result); err != nil {
		return err
	}
	if len(r.Transcript) > 0 {
		fmt.Fprintln(wr.w)
		return wr.WriteTranscript(r.Transcript)
	}
	return nil
}

// WriteTranscript renders chat messages one per paragraph.
func (wr *Writer) WriteTranscript(messages []chat.Message) error {
	if ok, err := wr.WriteStructured(messages); ok {
		return err
	}
	for _, m := range messages {
		fmt.Fprintf(wr.w, "%s %s\n", wr.RoleLabel(m.Role), m.Text)
	}
	return nil
}

// RoleLabel returns the colored prefix shown before a chat message.
func (wr *Writer) RoleLabel(role chat.Role) string {
	if role == chat.RoleUser {
		return Paint(wr.colorize, colorCyan, "you>")
	}
	return Paint(wr.colorize, colorGreen, "aura>")
}

// WriteCompanies lists companies, marking the selected one.
func (wr *Writer) WriteCompanies(companies []company.Company, selectedID int) error {
	if ok, err := wr.WriteStructured(companies); ok {
		return err
	}
	tw := tabwriter.NewWriter(wr.w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "\tID\tNAME\tLOGO\tEMPLOYEES")
	fmt.Fprintln(tw, "\t--\t----\t----\t---------")
	for _, c := range companies {
		mark := ""
		if c.ID == selectedID {
			mark = "*"
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%d\n", mark, c.ID, c.Name, c.LogoID, len(c.Employees))
	}
	return tw.Flush()
}

// WriteEmployees lists the employees of c.
func (wr *Writer) WriteEmployees(c company.Company) error {
	if ok, err := wr.WriteStructured(c.Employees); ok {
		return err
	}
	if len(c.Employees) == 0 {
		fmt.Fprintf(wr.w, "%s has no employees.\n", c.Name)
		return nil
	}
	tw := tabwriter.NewWriter(wr.w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tROLE\tDEPARTMENT")
	fmt.Fprintln(tw, "--\t----\t----\t----------")
	for _, e := range c.Employees {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", e.ID, e.Name, e.Role, e.Department)
	}
	return tw.Flush()
}

// WriteKinds lists the analysis catalog.
func (wr *Writer) WriteKinds(entries []prompt.Entry) error {
	type kind struct {
		Kind        prompt.Kind `json:"kind" yaml:"kind"`
		Title       string      `json:"title" yaml:"title"`
		Description string      `json:"description" yaml:"description"`
	}
	out := make([]kind, len(entries))
	for i, e := range entries {
		out[i] = kind{Kind: e.Kind, Title: e.Title, Description: e.Description}
	}
	if ok, err := wr.WriteStructured(out); ok {
		return err
	}

	tw := tabwriter.NewWriter(wr.w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "KIND\tTITLE\tDESCRIPTION")
	fmt.Fprintln(tw, "----\t-----\t-----------")
	for _, k := range out {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", k.Kind, k.Title, k.Description)
	}
	return tw.Flush()
}

func number(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func truncate(s string, n int) string {
	if len([]rune(s)) <= n {
		return s
	}
	return string([]rune(s)[:n-3]) + "..."
}
