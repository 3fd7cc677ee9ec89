package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/chzyer/readline"
	"github.com/jmhodges/clock"
	"go.uber.org/zap"

	"dashboard/backend/internal/alert"
	"dashboard/backend/internal/client"
	"dashboard/backend/internal/countdown"
	"dashboard/backend/internal/events"
	"dashboard/backend/internal/model"
	"dashboard/backend/internal/timer"
	"dashboard/backend/internal/widget"
)

type mounted struct {
	view   *countdown.Countdown
	cancel context.CancelFunc
}

type shell struct {
	api      *client.Client
	clock    clock.Clock
	logger   *zap.Logger
	rl       *readline.Instance
	bus      *events.Bus
	overview *widget.Widget
	tick     time.Duration
	refresh  time.Duration

	ctx context.Context

	mu    sync.Mutex
	views map[string]*mounted
	order []string
}

func newShell(api *client.Client, clk clock.Clock, logger *zap.Logger, tick, refresh time.Duration) (*shell, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "timers> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}

	return &shell{
		api:      api,
		clock:    clk,
		logger:   logger,
		rl:       rl,
		bus:      events.NewBus(),
		overview: widget.New(api, clk, widget.DefaultMaxRows, logger),
		tick:     tick,
		refresh:  refresh,
		views:    map[string]*mounted{},
	}, nil
}

// Run mounts the views and reads commands until quit, EOF or ctx ends.
func (s *shell) Run(ctx context.Context, cancel context.CancelFunc) {
	defer s.rl.Close()
	s.ctx = ctx

	permission := alert.NewPollingPermission(notificationPermission)
	go permission.Run(ctx, 30*time.Second)

	dispatcher := alert.NewDispatcher(
		alert.NewBellPlayer(s.rl.Stdout(), s.clock),
		alert.NewWriterNotifier(s.rl.Stdout()),
		permission,
		nil,
		s.logger,
	)
	defer dispatcher.Attach(s.bus)()

	go s.overview.Run(ctx, s.tick, s.refresh)
	s.sync()
	s.printHelp()

	for {
		select {
		case <-ctx.Done():
			s.unmountAll()
			return
		default:
		}

		line, err := s.rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			fmt.Fprintln(s.rl.Stdout(), "Exiting...")
			s.unmountAll()
			cancel()
			return
		}

		parts := strings.Fields(strings.TrimSpace(line))
		if len(parts) == 0 {
			continue
		}
		cmd, args := strings.ToLower(parts[0]), parts[1:]

		switch cmd {
		case "help", "?":
			s.printHelp()
		case "list", "ls", "l":
			s.cmdList()
		case "summary", "s":
			s.cmdSummary()
		case "new", "n":
			s.cmdNew(args)
		case "start", "pause", "reset":
			s.cmdControl(cmd, args)
		case "delete", "rm":
			s.cmdDelete(args)
		case "edit", "e":
			s.cmdEdit(args)
		case "quit", "exit", "q":
			fmt.Fprintln(s.rl.Stdout(), "Exiting...")
			s.unmountAll()
			cancel()
			return
		default:
			fmt.Fprintf(s.rl.Stdout(), "Unknown command: %s (type 'help' for commands)\n", cmd)
		}
	}
}

func (s *shell) printHelp() {
	fmt.Fprintln(s.rl.Stdout(), `Commands:
  list                 Show every timer with its live countdown
  summary              Show the sorted overview
  new <name> <time>    Create a timer, e.g. new Tea 3:00
  start <n>            Start timer n
  pause <n>            Pause timer n
  reset <n>            Reset timer n
  edit <n> <time>      Set the full duration of a stopped or paused timer
  delete <n>           Delete timer n (asks for confirmation)
  quit                 Exit`)
}

// sync reloads the list and mounts, re-seeds or unmounts countdowns to match.
func (s *shell) sync() {
	timers, err := s.api.ListTimers(s.ctx)
	if err != nil {
		fmt.Fprintf(s.rl.Stdout(), "Refresh failed: %v\n", err)
		return
	}
	_ = s.overview.Refresh(s.ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]struct{}, len(timers))
	s.order = s.order[:0]
	for _, t := range timers {
		seen[t.ID] = struct{}{}
		s.order = append(s.order, t.ID)
		if m, ok := s.views[t.ID]; ok {
			m.view.SetSnapshot(t)
			continue
		}
		s.views[t.ID] = s.mount(t)
	}
	for id, m := range s.views {
		if _, ok := seen[id]; !ok {
			m.cancel()
			delete(s.views, id)
		}
	}
}

func (s *shell) mount(t model.Timer) *mounted {
	ctx, cancel := context.WithCancel(s.ctx)
	view := countdown.New(t, s.api, s.bus, s.clock, func() { go s.sync() }, s.logger)
	go view.Run(ctx, s.tick)
	return &mounted{view: view, cancel: cancel}
}

func (s *shell) unmountAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, m := range s.views {
		m.cancel()
		delete(s.views, id)
	}
}

// lookup resolves a 1-based position from the last list.
func (s *shell) lookup(arg string) (*countdown.Countdown, bool) {
	n, err := strconv.Atoi(arg)
	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil || n < 1 || n > len(s.order) {
		fmt.Fprintf(s.rl.Stdout(), "No timer %q (see 'list')\n", arg)
		return nil, false
	}
	m, ok := s.views[s.order[n-1]]
	if !ok {
		return nil, false
	}
	return m.view, true
}

func (s *shell) cmdList() {
	s.mu.Lock()
	views := make([]countdown.View, 0, len(s.order))
	for _, id := range s.order {
		if m, ok := s.views[id]; ok {
			views = append(views, m.view.View())
		}
	}
	s.mu.Unlock()

	if len(views) == 0 {
		fmt.Fprintln(s.rl.Stdout(), "No timers yet. Create one with: new <name> <time>")
		return
	}
	for i, v := range views {
		line := fmt.Sprintf("%2d. %-24s %9s  %-9s %5.1f%%", i+1, v.Name, v.Display, v.State, v.Progress)
		if v.EndLabel != "" {
			line += "  ends " + v.EndLabel
		}
		fmt.Fprintln(s.rl.Stdout(), line)
	}
}

func (s *shell) cmdSummary() {
	summary := s.overview.Summary()
	if len(summary.Rows) == 0 {
		fmt.Fprintln(s.rl.Stdout(), "No timers.")
		return
	}
	for _, row := range summary.Rows {
		name := row.Name
		if row.Dimmed {
			name = "(" + name + ")"
		}
		fmt.Fprintf(s.rl.Stdout(), "  %-26s %9s  %s\n", name, row.Display, row.State)
	}
	if summary.MoreLabel != "" {
		fmt.Fprintf(s.rl.Stdout(), "  %s\n", summary.MoreLabel)
	}
}

func (s *shell) cmdNew(args []string) {
	if len(args) < 2 {
		fmt.Fprintln(s.rl.Stdout(), "Usage: new <name> <time>")
		return
	}
	name := strings.Join(args[:len(args)-1], " ")
	seconds, ok := timer.ParseTime(args[len(args)-1])
	if !ok {
		fmt.Fprintf(s.rl.Stdout(), "Invalid time %q; use M:SS or H:MM:SS\n", args[len(args)-1])
		return
	}
	if _, err := s.api.CreateTimer(s.ctx, name, seconds); err != nil {
		fmt.Fprintf(s.rl.Stdout(), "Create failed: %v\n", err)
		return
	}
	s.sync()
	s.cmdList()
}

func (s *shell) cmdControl(cmd string, args []string) {
	if len(args) != 1 {
		fmt.Fprintf(s.rl.Stdout(), "Usage: %s <n>\n", cmd)
		return
	}
	view, ok := s.lookup(args[0])
	if !ok {
		return
	}

	var err error
	switch cmd {
	case "start":
		err = view.Start(s.ctx)
	case "pause":
		err = view.Pause(s.ctx)
	case "reset":
		err = view.Reset(s.ctx)
	}
	if err != nil {
		fmt.Fprintf(s.rl.Stdout(), "%s failed: %v\n", cmd, err)
	}
}

func (s *shell) cmdEdit(args []string) {
	if len(args) != 2 {
		fmt.Fprintln(s.rl.Stdout(), "Usage: edit <n> <time>")
		return
	}
	view, ok := s.lookup(args[0])
	if !ok {
		return
	}
	if !view.Activate() {
		fmt.Fprintln(s.rl.Stdout(), "Timer is running; pause or reset it first")
		return
	}
	view.SetDraft(args[1])
	if err := view.HandleKey(s.ctx, countdown.KeyEnter); err != nil {
		fmt.Fprintf(s.rl.Stdout(), "Edit failed: %v\n", err)
	}
}

func (s *shell) cmdDelete(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(s.rl.Stdout(), "Usage: delete <n>")
		return
	}
	view, ok := s.lookup(args[0])
	if !ok {
		return
	}
	name := view.View().Name
	deleted := view.Delete(s.ctx, func() bool {
		return s.confirm(fmt.Sprintf("Delete %q? [y/N] ", name))
	})
	if !deleted {
		fmt.Fprintln(s.rl.Stdout(), "Not deleted.")
	}
}

func (s *shell) confirm(prompt string) bool {
	s.rl.SetPrompt(prompt)
	defer s.rl.SetPrompt("timers> ")
	line, err := s.rl.Readline()
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

// notificationPermission treats TIMERWATCH_NOTIFY=off as a revoked permission.
func notificationPermission(context.Context) (alert.Permission, error) {
	if strings.EqualFold(os.Getenv("TIMERWATCH_NOTIFY"), "off") {
		return alert.PermissionDenied, nil
	}
	return alert.PermissionGranted, nil
}
