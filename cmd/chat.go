package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/bimmerbailey/aura/internal/chat"
	"github.com/bimmerbailey/aura/internal/output"
	"github.com/bimmerbailey/aura/internal/predict"
	"github.com/bimmerbailey/aura/internal/report"
)

var chatCmd = &cobra.Command{
	Use:   "chat [report-id]",
	Short: "Ask follow-up questions about a saved report",
	Long: `Start an interactive conversation grounded in a saved report. Without an
id the most recent report is used. Replies stream as they are generated and
the transcript is saved with the report when the chat ends.

Type /exit or press Ctrl-D to finish.

Examples:
  aura chat
  aura chat 3f2b8c1a`,
	Args: cobra.MaximumNArgs(1),
	RunE: withApp(runChat),
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, a *app, args []string) error {
	ctx := cmd.Context()

	var r report.Report
	if len(args) == 1 {
		found, err := a.reports.Get(ctx, args[0])
		if err != nil {
			return err
		}
		r = found
	} else {
		reports, err := a.reports.List(ctx, zeroTime)
		if err != nil {
			return err
		}
		if len(reports) == 0 {
			return errors.New("no saved reports; generate one first with 'aura generate'")
		}
		r = reports[0]
	}

	result, err := r.Decode()
	if err != nil {
		return fmt.Errorf("report %s cannot be read: %w", r.ShortID(), err)
	}
	return a.chatAbout(ctx, result, &r)
}

// chatAbout runs the follow-up conversation for result. When saved is set
// the conversation continues its transcript and stores it afterwards.
func (a *app) chatAbout(ctx context.Context, result predict.Result, saved *report.Report) error {
	instruction, err := chat.SystemInstruction(result.Kind(), result)
	if err != nil {
		return err
	}
	p, err := a.llmProvider(ctx)
	if err != nil {
		return err
	}

	var history []chat.Message
	if saved != nil {
		history = saved.Transcript
	}

	structured := a.out.Structured()
	opts := []chat.Option{chat.WithLogger(a.logger), chat.WithModel(a.cfg.LLM.ModelOverride), chat.WithHistory(history)}
	if !structured {
		printer := newStreamPrinter(a.w, a.out.RoleLabel, len(history))
		opts = append(opts, chat.OnUpdate(printer.update))
		if len(history) > 0 {
			if err := a.out.WriteTranscript(history); err != nil {
				return err
			}
		}
	}

	session, err := chat.New(p, instruction, opts...)
	if err != nil {
		return err
	}
	defer session.Close()

	a.out.Notef("Chatting about %q. Type /exit to finish.", result.Kind().Title())
	if err := session.Start(ctx); err != nil {
		return err
	}
	a.waitTurn(session, structured)

	interactive := false
	if f, ok := a.in.(*os.File); ok {
		interactive = output.IsTerminal(f)
	}

	readCtx, stopReading := context.WithCancel(ctx)
	defer stopReading()
	lines := readLines(readCtx, a.in)
	for ctx.Err() == nil {
		if interactive && !structured {
			fmt.Fprint(a.w, a.out.RoleLabel(chat.RoleUser)+" ")
		}
		line, ok := <-lines
		if !ok {
			break
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if line == "/exit" || line == "/quit" {
			break
		}
		if err := session.Send(ctx, line); err != nil {
			a.out.Errorf("%v", err)
			continue
		}
		a.waitTurn(session, structured)
	}
	session.Close()

	transcript := session.Messages()
	if saved != nil {
		if err := a.reports.SaveTranscript(context.WithoutCancel(ctx), saved.ID.String(), transcript); err != nil {
			a.logger.Warn("failed to save chat transcript", "report", saved.ID, "error", err)
		}
	}
	if structured {
		return a.out.WriteTranscript(transcript)
	}
	return nil
}

func (a *app) waitTurn(s *chat.Session, structured bool) {
	s.Wait()
	if !structured {
		fmt.Fprintln(a.w)
	}
}

// readLines feeds lines from r until EOF or until ctx is done.
func readLines(ctx context.Context, r io.Reader) <-chan string {
	ch := make(chan string)
	go func() {
		defer close(ch)
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			select {
			case ch <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch
}

// streamPrinter echoes the growing trailing model message of a transcript.
type streamPrinter struct {
	mu    sync.Mutex
	w     io.Writer
	label func(chat.Role) string
	index int
	shown string
}

// newStreamPrinter skips the first skip messages, which are already shown.
func newStreamPrinter(w io.Writer, label func(chat.Role) string, skip int) *streamPrinter {
	return &streamPrinter{w: w, label: label, index: skip - 1}
}

func (p *streamPrinter) update(msgs []chat.Message) {
	p.mu.Lock()
	defer p.mu.Unlock()

	i := len(msgs) - 1
	if i < 0 || (i == p.index && msgs[i].Text == p.shown) {
		return
	}
	last := msgs[i]
	if last.Role != chat.RoleModel {
		return
	}

	if i != p.index {
		p.index = i
		p.shown = ""
		fmt.Fprint(p.w, p.label(chat.RoleModel)+" ")
	}
	if strings.HasPrefix(last.Text, p.shown) {
		fmt.Fprint(p.w, last.Text[len(p.shown):])
	} else {
		// The partial reply was replaced, e.g. by the failure notice.
		fmt.Fprint(p.w, "\n"+last.Text)
	}
	p.shown = last.Text
}
