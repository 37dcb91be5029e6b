package ui

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"github.com/skobkin/dsrelay/internal/command"
)

const dispatchTimeout = 5 * time.Second

type controlPanel struct {
	dep RuntimeDependencies

	relayIndex  *widget.Select
	relayPeriod *widget.Entry
	outputIndex *widget.Select
	status      *widget.Label

	content fyne.CanvasObject
}

func newControlPanel(dep RuntimeDependencies) *controlPanel {
	p := &controlPanel{
		dep:         dep,
		relayIndex:  widget.NewSelect(indexOptions(), nil),
		relayPeriod: widget.NewEntry(),
		outputIndex: widget.NewSelect(indexOptions(), nil),
		status:      widget.NewLabel(""),
	}
	p.relayIndex.SetSelected("1")
	p.outputIndex.SetSelected("1")
	p.relayPeriod.SetPlaceHolder("0")

	relayOn := widget.NewButton("On", func() { p.sendRelay(command.StateOn) })
	relayOff := widget.NewButton("Off", func() { p.sendRelay(command.StateOff) })
	outputOn := widget.NewButton("On", func() { p.sendOutput(command.StateOn) })
	outputOff := widget.NewButton("Off", func() { p.sendOutput(command.StateOff) })

	relayForm := widget.NewForm(
		widget.NewFormItem("Relay", p.relayIndex),
		widget.NewFormItem("On time (ms)", p.relayPeriod),
		widget.NewFormItem("", container.NewGridWithColumns(2, relayOn, relayOff)),
	)
	outputForm := widget.NewForm(
		widget.NewFormItem("Output", p.outputIndex),
		widget.NewFormItem("", container.NewGridWithColumns(2, outputOn, outputOff)),
	)

	p.content = container.NewVBox(
		widget.NewCard("Set Relay State", "", relayForm),
		widget.NewCard("Set Output State", "", outputForm),
		p.status,
	)

	return p
}

func (p *controlPanel) Content() fyne.CanvasObject {
	return p.content
}

func (p *controlPanel) sendRelay(state command.State) {
	index, err := strconv.Atoi(p.relayIndex.Selected)
	if err != nil {
		p.status.SetText("Select a relay")

		return
	}
	period := 0
	if raw := strings.TrimSpace(p.relayPeriod.Text); raw != "" {
		period, err = strconv.Atoi(raw)
		if err != nil {
			p.status.SetText("On time must be a number of milliseconds")

			return
		}
	}

	p.dispatch(func(ctx context.Context, d Dispatcher) error {
		return d.SetRelay(ctx, index, state, period)
	})
}

func (p *controlPanel) sendOutput(state command.State) {
	index, err := strconv.Atoi(p.outputIndex.Selected)
	if err != nil {
		p.status.SetText("Select an output")

		return
	}

	p.dispatch(func(ctx context.Context, d Dispatcher) error {
		return d.SetOutput(ctx, index, state)
	})
}

func (p *controlPanel) dispatch(send func(ctx context.Context, d Dispatcher) error) {
	dispatcher := p.dep.Actions.Dispatcher
	if dispatcher == nil {
		p.status.SetText("Relay board is not available")

		return
	}

	p.dep.runAsync(func() {
		ctx, cancel := context.WithTimeout(context.Background(), dispatchTimeout)
		defer cancel()
		err := send(ctx, dispatcher)
		p.dep.runOnUI(func() {
			switch {
			case err == nil:
				p.status.SetText("")
			case errors.Is(err, command.ErrValidation):
				p.status.SetText("Invalid command: " + err.Error())
			default:
				p.status.SetText("Send failed: " + err.Error())
			}
		})
	})
}

func indexOptions() []string {
	options := make([]string, 0, command.MaxIndex-command.MinIndex+1)
	for i := command.MinIndex; i <= command.MaxIndex; i++ {
		options = append(options, strconv.Itoa(i))
	}

	return options
}
