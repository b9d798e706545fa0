package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gordonklaus/portaudio"
	"github.com/j-04/gocui-component"
	"github.com/jroimartin/gocui"

	"thermodo"
)

// App is the terminal UI of the measure command.
type App struct {
	ctx     context.Context
	session *thermodo.Session

	gui   *gocui.Gui
	vinfo *gocui.View
	vmain *gocui.View
	vcmd  *gocui.View

	startTime time.Time

	mu      sync.Mutex
	last    thermodo.EventReading
	status  string
	plugged bool
}

func (app *App) Layout(g *gocui.Gui) (err error) {
	maxX, maxY := g.Size()

	app.vinfo, err = g.SetView("info", 0, 0, maxX-1, 2)
	if err != nil {
		if err != gocui.ErrUnknownView {
			return err
		}

		app.vinfo.Title = "Thermodo"
	}

	app.vmain, err = g.SetView("main", 0, 3, maxX-1, maxY-4)
	if err != nil {
		if err != gocui.ErrUnknownView {
			return err
		}

		app.vmain.Title = "Readings"
		app.vmain.Wrap = true
		app.vmain.Autoscroll = true
	}

	app.vcmd, err = g.SetView("cmdline", 0, maxY-3, maxX-1, maxY-1)
	if err != nil {
		if err != gocui.ErrUnknownView {
			return err
		}

		app.vcmd.Title = "Available commands"
		fmt.Fprintf(app.vcmd, "^C/^Q: quit  c: clear  m: toggle mode  p: plug/unplug  s: start/stop")
	}

	app.mu.Lock()
	last, status := app.last, app.status
	app.mu.Unlock()

	d := time.Since(app.startTime)
	app.vinfo.Clear()
	app.vinfo.SetOrigin(0, 0)

	temp := "  --.--°C"
	switch r := last.Result; {
	case r.NumberOfFrames == 0:
	case r.Undetermined():
		temp = "  range!"
	default:
		temp = fmt.Sprintf("%7.2f°C", r.Temperature)
	}

	fmt.Fprintf(app.vinfo,
		"[%v] %s  R:%8.3f  Frames:%2d  Peak:%5d  Tone:%4dhz  Mode: %-10s  %8v  %s",
		string(last.Level.Bars[:]),
		temp,
		last.Result.Resistance,
		last.Result.NumberOfFrames,
		last.Level.Peak,
		int(last.Level.Tone),
		app.session.Mode(),
		d.Truncate(time.Second).String(),
		status,
	)

	return nil
}

func (app *App) SetKeyBinding() error {

	//
	// quit application: CtrlC / CtrlQ
	//

	quit := func(g *gocui.Gui, v *gocui.View) error {
		return gocui.ErrQuit
	}

	if err := app.gui.SetKeybinding("", gocui.KeyCtrlC, gocui.ModNone, quit); err != nil {
		return err
	}
	if err := app.gui.SetKeybinding("", gocui.KeyCtrlQ, gocui.ModNone, quit); err != nil {
		return err
	}

	//
	// clear screen: c
	//

	clearscreen := func(g *gocui.Gui, v *gocui.View) error {
		app.vmain.Clear()
		return nil
	}

	if err := app.gui.SetKeybinding("", 'c', gocui.ModNone, clearscreen); err != nil {
		return err
	}

	//
	// toggle mode: m
	//
	// session calls wait for the capture to wind down, keep them off the
	// gui goroutine
	//

	toggleMode := func(g *gocui.Gui, v *gocui.View) error {
		next := thermodo.ModeSimplified
		if app.session.Mode() == thermodo.ModeSimplified {
			next = thermodo.ModeDefault
		}

		go app.session.SetMode(next)
		return nil
	}

	if err := app.gui.SetKeybinding("", 'm', gocui.ModNone, toggleMode); err != nil {
		return err
	}

	//
	// plug / unplug: p
	//

	togglePlug := func(g *gocui.Gui, v *gocui.View) error {
		app.mu.Lock()
		plugged := !app.plugged
		app.mu.Unlock()

		go app.session.Plugged(plugged)
		return nil
	}

	if err := app.gui.SetKeybinding("", 'p', gocui.ModNone, togglePlug); err != nil {
		return err
	}

	//
	// start / stop: s
	//

	toggleRun := func(g *gocui.Gui, v *gocui.View) error {
		if app.session.IsRunning() {
			go app.session.Stop()
			app.setStatus("stopped")
		} else {
			go app.session.Start(app.ctx)
			app.setStatus("running")
		}
		return nil
	}

	if err := app.gui.SetKeybinding("", 's', gocui.ModNone, toggleRun); err != nil {
		return err
	}

	return nil
}

func (app *App) setStatus(s string) {
	app.mu.Lock()
	app.status = s
	app.mu.Unlock()
}

func (app *App) addText(s string) {
	app.gui.Update(func(g *gocui.Gui) error {
		if app.vmain != nil {
			fmt.Fprintln(app.vmain, s)
		}
		return nil
	})
}

// EventLoop forwards session events to the views until ctx is done.
func (app *App) EventLoop() {
	for {
		select {
		case <-app.ctx.Done():
			app.gui.Update(func(g *gocui.Gui) error {
				return gocui.ErrQuit
			})
			return

		case ev, ok := <-app.session.Events():
			if !ok {
				return
			}

			app.mu.Lock()
			switch e := ev.(type) {
			case thermodo.EventReading:
				app.last = e
			case thermodo.EventPlugged:
				app.plugged = e.Plugged
			case thermodo.EventStarted:
				app.status = "measuring"
			case thermodo.EventStopped:
				app.status = "idle"
			case thermodo.EventError:
				app.status = "capture failed"
			}
			app.mu.Unlock()

			if _, ok := ev.(thermodo.EventReading); !ok {
				app.addText(time.Now().Format("15:04:05 ") + describe(ev))
			} else {
				app.gui.Update(func(g *gocui.Gui) error { return nil })
			}
		}
	}
}

func runUI(ctx context.Context, session *thermodo.Session) error {
	g, err := gocui.NewGui(gocui.OutputNormal)
	if err != nil {
		return err
	}
	defer g.Close()

	app := &App{
		ctx:       ctx,
		session:   session,
		gui:       g,
		startTime: time.Now(),
		plugged:   true,
		status:    "running",
	}

	g.SetManagerFunc(app.Layout)
	if err := app.SetKeyBinding(); err != nil {
		return err
	}

	go app.EventLoop()

	if err := g.MainLoop(); err != nil && err != gocui.ErrQuit {
		return err
	}

	return nil
}

var (
	FormSelect = errors.New("form-selected")
	FormCancel = errors.New("form-cancel")
)

// selectDevice asks for the capture device. It returns false when the user
// cancels.
func selectDevice() (dev string, ok bool, err error) {
	if err := portaudio.Initialize(); err != nil {
		return "", false, fmt.Errorf("initialize portaudio: %w", err)
	}
	defer portaudio.Terminate()

	list, err := thermodo.ListAudioDevices(thermodo.AudioIn)
	if err != nil {
		return "", false, err
	}
	if len(list) == 0 {
		return "", false, thermodo.ErrDeviceNotFound
	}

	g, err := gocui.NewGui(gocui.OutputNormal)
	if err != nil {
		return "", false, err
	}
	defer g.Close()

	form := component.NewForm(g, "Select input device", 8, len(list), 0, 0)
	sel := form.AddSelect("Device:", 8, 40).AddOptions(list...)

	form.AddButton("Select", func(g *gocui.Gui, v *gocui.View) error {
		// entries are "<index>: <name>"
		dev, _, _ = strings.Cut(sel.GetSelected(), ":")
		ok = true

		form.Close(g, v)
		return FormSelect
	})

	form.AddButton("Cancel", func(g *gocui.Gui, v *gocui.View) error {
		form.Close(g, v)
		return FormCancel
	})

	form.Draw()

	if err := g.MainLoop(); err != FormSelect && err != FormCancel {
		return "", false, err
	}

	return dev, ok, nil
}
