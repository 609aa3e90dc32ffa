package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"

	"github.com/warpdl/ambiance/pkg/ambiance"
)

// keyController maps single key presses to host calls.
type keyController struct {
	host     *ambiance.Host
	selected int
}

func newKeyController(h *ambiance.Host) *keyController {
	return &keyController{host: h}
}

// handleKey applies key and returns the line to show, and whether the
// player must quit.
func (k *keyController) handleKey(key byte) (string, bool) {
	switch {
	case key == 'q' || key == 3 || key == 4:
		return "quitting", true
	case key >= '1' && key <= '9':
		i := int(key - '1')
		cfg, err := k.host.Layer(i)
		if err != nil {
			return fmt.Sprintf("no layer %d", i+1), false
		}
		k.selected = i
		return fmt.Sprintf("selected %d: %s", i+1, cfg.Name), false
	case key == 'm' || key == 's':
		cfg, err := k.host.Layer(k.selected)
		if err != nil {
			return err.Error(), false
		}
		if key == 'm' {
			err = k.host.SetMute(k.selected, !cfg.Mute)
			return k.flagLine(cfg.Name, "mute", !cfg.Mute, err), false
		}
		err = k.host.SetSolo(k.selected, !cfg.Solo)
		return k.flagLine(cfg.Name, "solo", !cfg.Solo, err), false
	case key == ' ':
		if k.host.IsPlaying() {
			if err := k.host.Stop(); err != nil {
				return err.Error(), false
			}
			return "stopped", false
		}
		if err := k.host.Play(); err != nil {
			return err.Error(), false
		}
		return "playing", false
	}
	return "", false
}

func (k *keyController) flagLine(name, flag string, on bool, err error) string {
	if err != nil {
		return err.Error()
	}
	state := "off"
	if on {
		state = "on"
	}
	return fmt.Sprintf("%s: %s %s", name, flag, state)
}

// run reads keys from r until ctx is done, r fails or a quit key is read.
// quit is called on a quit key.
func (k *keyController) run(ctx context.Context, r io.Reader, w io.Writer, quit func()) {
	keys := make(chan byte)
	go func() {
		defer close(keys)
		buf := make([]byte, 1)
		for {
			if _, err := r.Read(buf); err != nil {
				return
			}
			select {
			case keys <- buf[0]:
			case <-ctx.Done():
				return
			}
		}
	}()
	for {
		select {
		case <-ctx.Done():
			return
		case key, ok := <-keys:
			if !ok {
				return
			}
			line, done := k.handleKey(key)
			if line != "" {
				// Raw mode does not translate \n.
				fmt.Fprintf(w, "%s\r\n", line)
			}
			if done {
				quit()
				return
			}
		}
	}
}

// runTerminal puts stdin in raw mode and drives k from it in the background.
// The returned func restores the terminal; it is nil when stdin is not a
// terminal.
func runTerminal(ctx context.Context, k *keyController, quit func()) func() {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return nil
	}
	state, err := term.MakeRaw(fd)
	if err != nil {
		return nil
	}
	go k.run(ctx, os.Stdin, os.Stderr, quit)
	return func() { _ = term.Restore(fd, state) }
}
