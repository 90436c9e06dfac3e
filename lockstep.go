// This file is part of Lockstep.
//
// Lockstep is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Lockstep is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Lockstep.  If not, see <https://www.gnu.org/licenses/>.

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"

	"github.com/bradleyjkemp/memviz"
	"github.com/golang/glog"
	"github.com/lockstep-emu/lockstep/board"
	"github.com/lockstep-emu/lockstep/comparison"
	"github.com/lockstep-emu/lockstep/debugger"
	"github.com/lockstep-emu/lockstep/debugger/govern"
	"github.com/lockstep-emu/lockstep/debugger/terminal"
	"github.com/lockstep-emu/lockstep/debugger/terminal/colorterm"
	"github.com/lockstep-emu/lockstep/debugger/terminal/plainterm"
	"github.com/lockstep-emu/lockstep/hardware/clocks"
	"github.com/lockstep-emu/lockstep/hardware/instance"
	"github.com/lockstep-emu/lockstep/hardware/preferences"
	"github.com/lockstep-emu/lockstep/modalflag"
	"github.com/lockstep-emu/lockstep/paths"
	"github.com/lockstep-emu/lockstep/prefs"
	"github.com/lockstep-emu/lockstep/statsview"
	"github.com/lockstep-emu/lockstep/version"
	"github.com/lockstep-emu/lockstep/wavwriter"
	"github.com/schollz/progressbar/v3"
	"golang.org/x/term"
)

const prefsFile = "preferences"

const modesHelp = `RUN     run the board for a number of ticks or until interrupted
VERIFY  run the board with different quantum values and compare the results
STEP    run the board under control of the debugger
DUMP    print a summary of the board after a number of ticks`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	exitVal := launch(ctx, os.Args[1:], os.Stdout)
	stop()
	glog.Flush()
	os.Exit(exitVal)
}

// launch returns the value to be used with os.Exit().
func launch(ctx context.Context, args []string, output io.Writer) int {
	md := &modalflag.Modes{Output: output}
	md.NewArgs(args)
	md.AddSubModes(govern.ModeRun.String(), govern.ModeVerify.String(), govern.ModeStep.String(), govern.ModeDump.String())
	md.AdditionalHelp(modesHelp)
	showVersion := md.AddBool("version", false, "print version information and exit")

	p, err := md.Parse()
	switch p {
	case modalflag.ParseHelp:
		return 0
	case modalflag.ParseError:
		fmt.Fprintf(output, "* %s\n", err)
		return 10
	}

	if *showVersion {
		fmt.Fprintln(output, version.String())
		return 0
	}

	mode, err := govern.ParseMode(md.Mode())
	if err != nil {
		fmt.Fprintf(output, "* %s\n", err)
		return 10
	}

	switch mode {
	case govern.ModeRun:
		err = run(ctx, md)
	case govern.ModeVerify:
		err = verify(ctx, md)
	case govern.ModeStep:
		err = step(ctx, md)
	case govern.ModeDump:
		err = dump(ctx, md)
	}

	if err != nil {
		fmt.Fprintf(output, "* error in %s mode: %s\n", md, err)
		if errors.Is(err, comparison.ErrMismatch) {
			return 30
		}
		return 20
	}

	return 0
}

// flags common to the modes that build a single machine.
type common struct {
	quantum *int
	prefs   *string
	glog    *bool
	load    *string
}

func addCommon(md *modalflag.Modes) common {
	return common{
		quantum: md.AddInt("quantum", 0, "quantum in reference ticks. overrides the board description"),
		prefs:   md.AddString("prefs", "", "preferences to apply for this run only. eg. scheduler.maxcascade::16"),
		glog:    md.AddBool("glog", false, "echo the machine log to glog"),
		load:    md.AddString("load", "", "load machine state from file before running"),
	}
}

// pushPrefs adds the preferences from the command line. The returned function
// must be called once the machine, and anything else that reads preferences,
// has been created.
func (c common) pushPrefs(output io.Writer) (func(), error) {
	if *c.prefs == "" {
		return func() {}, nil
	}
	if err := prefs.PushCommandLineStack(*c.prefs); err != nil {
		prefs.PopCommandLineStack()
		return nil, err
	}
	return func() {
		if unused := prefs.PopCommandLineStack(); unused != "" {
			fmt.Fprintf(output, "* unused preferences: %s\n", unused)
		}
	}, nil
}

// glogWriter forwards echoed log entries to glog.
type glogWriter struct{}

var glogOnce sync.Once

// glog reads its configuration from the flags of the standard library. the
// flags are never parsed by lockstep so they are set directly
func enableGlog() {
	glogOnce.Do(func() {
		_ = flag.Set("logtostderr", "true")
		_ = flag.CommandLine.Parse(nil)
	})
}

func (glogWriter) Write(p []byte) (int, error) {
	glog.Info(strings.TrimSuffix(string(p), "\n"))
	return len(p), nil
}

func loadBoard(md *modalflag.Modes) (*board.Board, error) {
	switch len(md.RemainingArgs()) {
	case 0:
		return nil, fmt.Errorf("board description required")
	case 1:
	default:
		return nil, fmt.Errorf("too many arguments for %s mode", md)
	}
	return board.Load(md.GetArg(0))
}

// preferencesPath is the preferences file shared by the kernel preferences
// and the rewind preferences.
func preferencesPath() (string, error) {
	return paths.ResourcePath("", prefsFile)
}

func build(md *modalflag.Modes, c common) (*board.Machine, error) {
	b, err := loadBoard(md)
	if err != nil {
		return nil, err
	}

	pth, err := preferencesPath()
	if err != nil {
		return nil, err
	}

	p, err := preferences.NewPreferences(pth)
	if err != nil {
		return nil, err
	}

	ins, err := instance.NewInstance(instance.Main, p)
	if err != nil {
		return nil, err
	}

	if *c.quantum < 0 {
		return nil, fmt.Errorf("invalid quantum %d", *c.quantum)
	}
	if *c.quantum > 0 {
		if err := ins.Prefs.Quantum.Set(*c.quantum); err != nil {
			return nil, err
		}
	}

	if *c.glog {
		enableGlog()
		ins.Log.SetEcho(glogWriter{}, false)
	}

	m, err := b.Build(ins)
	if err != nil {
		return nil, err
	}

	if *c.load != "" {
		f, err := os.Open(*c.load)
		if err != nil {
			return nil, errors.Join(err, m.Close())
		}
		defer f.Close()
		if err := m.Load(f); err != nil {
			return nil, errors.Join(err, m.Close())
		}
	}

	return m, nil
}

func save(m *board.Machine, filename string) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	if err := m.Save(f); err != nil {
		return errors.Join(err, f.Close())
	}
	return f.Close()
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// runTicks runs the machine for the number of ticks. A progress bar is shown
// on stderr if it is a terminal.
func runTicks(ctx context.Context, m *board.Machine, ticks clocks.Time, progress bool) error {
	if !progress || !isTerminal(os.Stderr) {
		return m.RunFor(ctx, ticks)
	}

	bar := progressbar.NewOptions64(int64(ticks),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription(m.Board.String()),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
	defer bar.Close()

	chunk := max(ticks/100, 1)
	start := m.Now()
	end := start + ticks
	for m.Now() < end {
		if err := m.RunUntil(ctx, min(m.Now()+chunk, end)); err != nil {
			return err
		}
		_ = bar.Set64(int64(m.Now() - start))
	}

	return bar.Finish()
}

func run(ctx context.Context, md *modalflag.Modes) (rerr error) {
	md.NewMode()

	c := addCommon(md)
	ticks := md.AddTicks("ticks", 0, "number of reference ticks to run for. zero runs until interrupted")
	progress := md.AddBool("progress", true, "show progress bar when running for a number of ticks")
	wav := md.AddString("wav", "", "record the first DAC of the board to a wav file")
	wavRate := md.AddInt("wavrate", 44100, "sample rate of the wav file")
	stats := md.AddBool("statsview", false, fmt.Sprintf("run stats server (%s)", statsview.DefaultAddress))
	saveFile := md.AddString("save", "", "save machine state to file at the end of the run")

	p, err := md.Parse()
	if err != nil || p != modalflag.ParseContinue {
		return err
	}

	popPrefs, err := c.pushPrefs(md.Output)
	if err != nil {
		return err
	}
	defer popPrefs()

	m, err := build(md, c)
	if err != nil {
		return err
	}
	defer func() {
		rerr = errors.Join(rerr, m.Close())
	}()

	if *stats {
		if err := statsview.Launch(md.Output, statsview.DefaultAddress); err != nil {
			return err
		}
	}

	if *wav != "" {
		if len(m.DACs) == 0 {
			return fmt.Errorf("board %s has no DAC to record", m.Board)
		}
		if *wav == "AUTO" {
			*wav = paths.UniqueFilename("audio", m.Board.Name, "wav")
		}
		aw, err := wavwriter.New(*wav, m.Machine, m.DACs[0], *wavRate)
		if err != nil {
			return err
		}
		defer func() {
			rerr = errors.Join(rerr, aw.Close())
		}()
	}

	if *ticks == 0 {
		err = m.Run(ctx, nil)
		if !errors.Is(err, context.Canceled) {
			return err
		}
	} else if err := runTicks(ctx, m, *ticks, *progress); err != nil {
		return err
	}

	fmt.Fprintf(md.Output, "time %d\n", m.Now())

	if *saveFile != "" {
		if *saveFile == "AUTO" {
			*saveFile = paths.UniqueFilename("state", m.Board.Name, "")
		}
		if err := save(m, *saveFile); err != nil {
			return err
		}
		fmt.Fprintf(md.Output, "state saved to %s\n", *saveFile)
	}

	return nil
}

func verify(ctx context.Context, md *modalflag.Modes) error {
	md.NewMode()

	quanta := md.AddQuanta("quanta", []int{1, 16}, "quantum values to compare")
	ticks := md.AddTicks("ticks", 100000, "number of reference ticks for each run")
	showLog := md.AddBool("log", false, "print the log of each run")

	p, err := md.Parse()
	if err != nil || p != modalflag.ParseContinue {
		return err
	}

	b, err := loadBoard(md)
	if err != nil {
		return err
	}

	cmp, err := comparison.NewComparison(b, *ticks, *quanta...)
	if err != nil {
		return err
	}

	var crit sync.Mutex
	cmp.Done = func(r comparison.Result) {
		crit.Lock()
		defer crit.Unlock()
		fmt.Fprintln(md.Output, r)
		if *showLog && r.Log != "" {
			io.WriteString(md.Output, r.Log)
		}
	}

	if err := cmp.Compare(ctx); err != nil {
		return err
	}

	fmt.Fprintf(md.Output, "%s: %d runs agree\n", b, len(cmp.Results))

	return nil
}

func step(ctx context.Context, md *modalflag.Modes) (rerr error) {
	md.NewMode()

	c := addCommon(md)
	termType := md.AddString("term", "AUTO", "terminal type to use: AUTO, COLOR, PLAIN")

	p, err := md.Parse()
	if err != nil || p != modalflag.ParseContinue {
		return err
	}

	popPrefs, err := c.pushPrefs(md.Output)
	if err != nil {
		return err
	}
	defer popPrefs()

	var t terminal.Terminal
	switch strings.ToUpper(*termType) {
	case "COLOR":
		t = &colorterm.ColorTerminal{}
	case "PLAIN":
		t = plainterm.NewPlainTerminal(os.Stdin, md.Output)
	case "AUTO":
		if isTerminal(os.Stdin) && isTerminal(os.Stdout) {
			t = &colorterm.ColorTerminal{}
		} else {
			t = plainterm.NewPlainTerminal(os.Stdin, md.Output)
		}
	default:
		return fmt.Errorf("unknown terminal type: %s", *termType)
	}

	m, err := build(md, c)
	if err != nil {
		return err
	}
	defer func() {
		rerr = errors.Join(rerr, m.Close())
	}()

	pth, err := preferencesPath()
	if err != nil {
		return err
	}

	dbg, err := debugger.NewDebugger(m.Machine, t, pth)
	if err != nil {
		return err
	}

	return dbg.Start(ctx)
}

func dump(ctx context.Context, md *modalflag.Modes) (rerr error) {
	md.NewMode()

	c := addCommon(md)
	ticks := md.AddTicks("ticks", 0, "number of reference ticks to run before the dump")
	dot := md.AddString("dot", "", "write a graphviz diagram of the machine state to file")

	p, err := md.Parse()
	if err != nil || p != modalflag.ParseContinue {
		return err
	}

	popPrefs, err := c.pushPrefs(md.Output)
	if err != nil {
		return err
	}
	defer popPrefs()

	m, err := build(md, c)
	if err != nil {
		return err
	}
	defer func() {
		rerr = errors.Join(rerr, m.Close())
	}()

	if *ticks > 0 {
		if err := m.RunFor(ctx, *ticks); err != nil {
			return err
		}
	}

	fmt.Fprintf(md.Output, "time %d\n", m.Now())
	io.WriteString(md.Output, m.Summary())

	st := m.Stats()
	fmt.Fprintf(md.Output, "timeslices %d: steps %d: interrupts %d: resyncs %d: faults %d\n",
		st.Timeslices, st.Steps, st.Interrupts, st.Resyncs, st.Faults)

	if *dot != "" {
		s, err := m.Snapshot()
		if err != nil {
			return err
		}
		f, err := os.Create(*dot)
		if err != nil {
			return err
		}
		memviz.Map(f, s)
		if err := f.Close(); err != nil {
			return err
		}
		fmt.Fprintf(md.Output, "state diagram written to %s\n", *dot)
	}

	return nil
}
