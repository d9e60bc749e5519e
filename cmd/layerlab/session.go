package main

import (
	"bufio"
	"context"
	"fmt"
	"image"
	"io"
	"strconv"
	"strings"

	"github.com/setanarut/layerlab"
	"github.com/setanarut/layerlab/logger"
	"github.com/setanarut/layerlab/store"
	"github.com/setanarut/layerlab/utils"
	"go.uber.org/zap"
)

// session drives a Stack from a line-oriented script, one command per
// line. It stands in for the interactive canvas: every user gesture maps
// to one command.
type session struct {
	stack  *layerlab.Stack
	comp   layerlab.Compositor
	width  int
	height int
	pass   float64
	target []layerlab.Layer
	out    io.Writer
}

func newSession(cfg Config, out io.Writer) *session {
	return &session{
		stack:  layerlab.NewStack(),
		comp:   cfg.Compositor(),
		width:  cfg.Canvas.Width,
		height: cfg.Canvas.Height,
		pass:   cfg.PassThreshold,
		out:    out,
	}
}

// run executes every line of r. It stops at the first failing command.
func (s *session) run(ctx context.Context, r io.Reader) error {
	s.stack.SetLogger(logger.L(ctx).Named("stack"))
	sc := bufio.NewScanner(r)
	lineno := 0
	for sc.Scan() {
		lineno++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if err := s.exec(strings.Fields(line)); err != nil {
			return fmt.Errorf("line %d: %s: %w", lineno, line, err)
		}
		logger.L(ctx).Debug("command", zap.Int("line", lineno), zap.String("cmd", line))
	}
	return sc.Err()
}

func (s *session) exec(f []string) error {
	cmd, args := f[0], f[1:]
	switch cmd {
	case "add":
		// add #rrggbb opacity MODE x y width height
		if len(args) != 7 {
			return fmt.Errorf("want 7 arguments, got %d", len(args))
		}
		c, err := layerlab.ParseHex(args[0])
		if err != nil {
			return err
		}
		opacity, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return fmt.Errorf("bad opacity: %w", err)
		}
		mode, err := layerlab.ParseBlendMode(strings.ToUpper(args[2]))
		if err != nil {
			return err
		}
		n, err := atoi(args[3:]...)
		if err != nil {
			return err
		}
		s.stack.Add(layerlab.NewLayer(c, opacity, mode, layerlab.Rect{X: n[0], Y: n[1], Width: n[2], Height: n[3]}))
	case "remove", "select":
		n, err := atoiN(args, 1)
		if err != nil {
			return err
		}
		if cmd == "remove" {
			s.stack.Remove(n[0])
		} else {
			s.stack.Select(n[0])
		}
	case "pick":
		n, err := atoiN(args, 2)
		if err != nil {
			return err
		}
		s.stack.SelectAt(image.Pt(n[0], n[1]))
	case "move":
		n, err := atoiN(args, 2)
		if err != nil {
			return err
		}
		s.stack.MoveSelected(n[0], n[1])
	case "resize":
		if len(args) != 3 {
			return fmt.Errorf("want 3 arguments, got %d", len(args))
		}
		h, ok := layerlab.ParseHandle(args[0])
		if !ok {
			return fmt.Errorf("unknown handle %q", args[0])
		}
		n, err := atoi(args[1:]...)
		if err != nil {
			return err
		}
		s.stack.ResizeSelected(h, n[0], n[1])
	case "drag":
		// drag x y dx dy: press at (x,y) and move by (dx,dy). A press on a
		// handle of the selected layer resizes it, anywhere else picks.
		n, err := atoiN(args, 4)
		if err != nil {
			return err
		}
		p := image.Pt(n[0], n[1])
		if h := s.stack.HandleAt(p); h != layerlab.HandleNone {
			s.stack.ResizeSelected(h, n[2], n[3])
			return nil
		}
		s.stack.SelectAt(p)
		s.stack.MoveSelected(n[2], n[3])
	case "handle":
		n, err := atoiN(args, 2)
		if err != nil {
			return err
		}
		fmt.Fprintln(s.out, s.stack.HandleAt(image.Pt(n[0], n[1])))
	case "delete":
		s.stack.DeleteSelected()
	case "undo":
		s.stack.Undo()
	case "clear":
		s.stack.Clear()
	case "list":
		sel := s.stack.SelectedIndex()
		for i, l := range s.stack.Layers() {
			mark := " "
			if i == sel {
				mark = "*"
			}
			fmt.Fprintf(s.out, "%s%d %s\n", mark, i, l)
		}
	case "load", "save", "render", "target":
		if len(args) != 1 {
			return fmt.Errorf("want a path")
		}
		return s.file(cmd, args[0])
	case "score":
		if len(s.target) == 0 {
			return fmt.Errorf("no target loaded")
		}
		printScore(s.out, layerlab.Compare(s.target, s.stack.Layers()), s.pass, false)
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
	return nil
}

func (s *session) file(cmd, path string) error {
	switch cmd {
	case "load":
		return store.LoadInto(s.stack, path)
	case "save":
		return store.Save(path, s.stack.Layers())
	case "render":
		return utils.SaveImage(s.comp.Render(s.stack.Layers(), s.width, s.height), path)
	case "target":
		t, err := store.Load(path)
		if err != nil {
			return err
		}
		s.target = t
	}
	return nil
}

func atoiN(args []string, n int) ([]int, error) {
	if len(args) != n {
		return nil, fmt.Errorf("want %d arguments, got %d", n, len(args))
	}
	return atoi(args...)
}

func atoi(args ...string) ([]int, error) {
	out := make([]int, len(args))
	for i, a := range args {
		v, err := strconv.Atoi(a)
		if err != nil {
			return nil, fmt.Errorf("bad integer %q", a)
		}
		out[i] = v
	}
	return out, nil
}

func printScore(w io.Writer, rep layerlab.Report, pass float64, verbose bool) {
	score := rep.Score()
	if verbose {
		for _, l := range rep.Layers {
			fmt.Fprintf(w, "layer %d: color=%.3f position=%.3f blend=%.0f total=%.3f\n",
				l.Index, l.Color, l.Position, l.Blend, l.Total())
		}
	}
	verdict := "keep trying"
	if score >= pass {
		verdict = "good match"
	}
	fmt.Fprintf(w, "score %.3f (%d%%): %s\n", score, int(score*100), verdict)
}
