// Package uiout provides spinner-aware, leveled output for the synchronizer
// CLI: a single lock arbitrates between an interactive spinner and logrus
// log lines so the two never interleave on the same terminal.
package uiout

import (
	"context"
	"fmt"
	"math"
	"os"
	"sync"
	"time"

	"github.com/briandowns/spinner"
	"github.com/sirupsen/logrus"
	"golang.org/x/term"
)

// There is one and only one standard out, which is used for logging and for the spinner.
// Using a spinner will lock this for the entire time it's active, and writes to standard out
// will lock this to avoid stepping on each other, on the spinner, or on logs queued while the
// spinner is active being printed when the spinner context is cancelled.
var stdOutLock sync.Mutex

// isStdoutTerminal returns true iff standard output is an interactive terminal.
func isStdoutTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// isStderrTerminal returns true iff standard err is an interactive terminal.
func isStderrTerminal() bool {
	return term.IsTerminal(int(os.Stderr.Fd()))
}

// EchoLogsToStdErr returns true iff messages sent to standard out should
// also be echoed to standard error.
func EchoLogsToStdErr() bool {
	return (isStdoutTerminal() != isStderrTerminal()) || (!isStdoutTerminal() && !isStderrTerminal())
}

// ShowTerminalCursor emits the escape code needed to show the cursor on standard out,
// iff standard out is a terminal.
func ShowTerminalCursor() {
	if !isStdoutTerminal() {
		return
	}
	fmt.Print("\033[?25h")
}

type contextKey string

func (c contextKey) String() string {
	return "uiout context key " + string(c)
}

// Config carries the spinner/log state threaded through a context.Context.
type Config struct {
	logger        *logrus.Logger
	isVerbose     bool
	spinner       *spinner.Spinner
	spinLogBuffer *spinningLogBuffer
	lastProgress  *int64
}

var outMgrContextKey = contextKey("uiOutMgr")

// Out retrieves the Config stored in ctx, or a zero-value Config backed by
// logrus's standard logger if none was installed.
func Out(ctx context.Context) Config {
	out, ok := ctx.Value(outMgrContextKey).(Config)
	if ok {
		return out
	}
	return Config{logger: logrus.StandardLogger()}
}

// WithLogger installs logger and verbosity into ctx.
func WithLogger(ctx context.Context, logger *logrus.Logger, verbose bool) context.Context {
	out, ok := ctx.Value(outMgrContextKey).(Config)
	if !ok {
		out = Config{}
	}
	out.logger = logger
	out.isVerbose = verbose
	return context.WithValue(ctx, outMgrContextKey, out)
}

func initSpinner(ctx context.Context) (context.Context, context.CancelFunc) {
	out, ok := ctx.Value(outMgrContextKey).(Config)
	if !ok {
		out = Config{logger: logrus.StandardLogger()}
	}

	if out.isVerbose || !isStdoutTerminal() {
		return context.WithCancel(context.WithValue(ctx, outMgrContextKey, out))
	}

	if out.spinner != nil {
		// never start a second spinner.
		return context.WithCancel(context.WithValue(ctx, outMgrContextKey, out))
	}

	stdOutLock.Lock()
	out.spinner = spinner.New(spinner.CharSets[14], 50*time.Millisecond)
	out.spinLogBuffer = &spinningLogBuffer{}
	_ = out.spinner.Color("reset")
	out.spinner.HideCursor = true
	out.spinner.Start()

	ctx, cancel := context.WithCancel(ctx)

	go func() {
		<-ctx.Done()
		out.spinner.Stop()
		ShowTerminalCursor()
		stdOutLock.Unlock()
		if out.spinLogBuffer != nil && len(out.spinLogBuffer.logs) > 0 {
			out.LogMulti(out.spinLogBuffer.logs)
			out.spinLogBuffer.logs = nil
		}
	}()

	return context.WithValue(ctx, outMgrContextKey, out), cancel
}

// WithSpinner starts (or reuses) a spinner, returning an updater for its
// suffix text and a cancel func that must be called when the phase ends.
func WithSpinner(ctx context.Context, initialMsg string) (context.Context, func(string), context.CancelFunc) {
	ctx, cancel := initSpinner(ctx)
	out, ok := ctx.Value(outMgrContextKey).(Config)
	if !ok {
		panic("initSpinner must set outMgrContextKey")
	}
	if out.spinner == nil {
		if out.isVerbose {
			return ctx, func(s string) { out.Verbose(s) }, cancel
		}
		return ctx, func(s string) {}, cancel
	}

	update := func(msg string) {
		maxWidth, _, err := term.GetSize(int(os.Stdout.Fd()))
		if err != nil || maxWidth == 0 {
			maxWidth = int(math.Round(80.0 * 0.75))
		} else {
			maxWidth = int(math.Round(float64(maxWidth) * 0.75))
		}

		suffix := " " + msg
		if len(suffix) > maxWidth {
			suffix = suffix[:maxWidth-3] + "..."
		}
		if out.spinner != nil {
			out.spinner.Suffix = suffix
		}
	}
	update(initialMsg)

	return ctx, update, cancel
}

// WithProgress starts (or reuses) a spinner/verbose progress reporter over a
// known total.
func WithProgress(ctx context.Context, verb string, progressTotal int64) (context.Context, func(int64), context.CancelFunc) {
	ctx, cancel := initSpinner(ctx)
	out, ok := ctx.Value(outMgrContextKey).(Config)
	if !ok {
		panic("initSpinner must set outMgrContextKey")
	}
	if out.lastProgress == nil {
		p := int64(0)
		out.lastProgress = &p
	}
	if out.spinner == nil {
		if out.isVerbose {
			return ctx, func(progress int64) {
				oldProgress := 10 * float64(*out.lastProgress) / float64(progressTotal)
				newProgress := 10 * float64(progress) / float64(progressTotal)
				if math.Abs(math.Floor(newProgress)-math.Floor(oldProgress)) > 0.01 {
					out.Verbose(fmt.Sprintf("%s %d / %d (%.f%%)", verb, progress, progressTotal, math.Round(10*newProgress)))
				}
				*out.lastProgress = progress
			}, cancel
		}
		return ctx, func(progress int64) {
			oldProgress := float64(*out.lastProgress) / float64(progressTotal)
			newProgress := float64(progress) / float64(progressTotal)
			if (oldProgress < 0.25 && newProgress >= 0.25) || (oldProgress < 0.5 && newProgress >= 0.5) || (oldProgress < 0.75 && newProgress >= 0.75) || (oldProgress < 1.0 && newProgress >= 1.0) {
				out.Log(fmt.Sprintf("%s %d / %d (%.f%%)", verb, progress, progressTotal, math.Round(100*newProgress)))
			}
			*out.lastProgress = progress
		}, cancel
	}

	if len(verb) > 0 {
		verb = " " + verb
	}

	update := func(progress int64) {
		if progressTotal > 0 {
			out.spinner.Suffix = fmt.Sprintf("%s %d / %d (%.f%%)", verb, progress, progressTotal, math.Round(100*float64(progress)/float64(progressTotal)))
		} else {
			out.spinner.Suffix = fmt.Sprintf("%s #%d ...", verb, progress)
		}
	}
	update(0)

	return ctx, update, cancel
}

type spinningLogBuffer struct {
	logs []string
}

// HasSpinner reports whether an active spinner currently owns standard out.
func (c Config) HasSpinner() bool {
	return c.spinner != nil
}

// Warning logs msg at warn level directly through the logger. Only when no
// logger is set does it go through Log (and so through the spinner buffer).
func (c Config) Warning(msg string) {
	if c.logger != nil {
		c.logger.Warn(msg)
		return
	}
	c.Log("[warning] " + msg)
}

// Log emits msg at info level (so the logger's level decides whether it is
// shown), buffering it if a spinner currently owns the terminal.
func (c Config) Log(msg string) {
	if c.isVerbose && EchoLogsToStdErr() {
		c.Verbose(msg)
	}
	if c.spinner != nil && c.spinner.Active() && c.spinLogBuffer != nil {
		c.spinLogBuffer.logs = append(c.spinLogBuffer.logs, msg)
		return
	}
	stdOutLock.Lock()
	defer stdOutLock.Unlock()
	if c.logger != nil {
		c.logger.Info(msg)
	} else {
		fmt.Println(msg)
	}
}

// LogMulti logs each message in msgs, in order.
func (c Config) LogMulti(msgs []string) {
	for _, msg := range msgs {
		c.Log(msg)
	}
}

// Verbose logs msg only when verbose output is enabled.
func (c Config) Verbose(msg string) {
	if !c.isVerbose {
		return
	}
	if c.logger != nil {
		c.logger.Debug(msg)
		return
	}
	logrus.Debug(msg)
}

// VerboseMulti logs each message in msgs via Verbose.
func (c Config) VerboseMulti(msgs []string) {
	if !c.isVerbose {
		return
	}
	for _, msg := range msgs {
		c.Verbose(msg)
	}
}
