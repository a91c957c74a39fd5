package gomidi

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	"gitlab.com/gomidi/midi/v2/drivers/rtmididrv"
)

type (
	// RTMIDIContext owns the rtmidi driver and at most one open output
	// port, used for auditioning pads by sending short notes.
	RTMIDIContext struct {
		driver             *rtmididrv.Driver
		currentOut         drivers.Out
		send               func(midi.Message) error
		outputDevices      []RTMIDIDevice
		devicesInitialized bool
	}

	RTMIDIDevice struct {
		context *RTMIDIContext
		out     drivers.Out
	}
)

// Open the driver.
func NewContext() *RTMIDIContext {
	m := RTMIDIContext{}
	// there's not much we can do if this fails, so just use m.driver = nil to
	// indicate no driver available
	m.driver, _ = rtmididrv.New()
	return &m
}

func (m *RTMIDIContext) OutputDevices(yield func(RTMIDIDevice) bool) {
	if m.devicesInitialized {
		m.yieldCachedOutputDevices(yield)
	} else {
		m.initOutputDevices(yield)
	}
}

func (m *RTMIDIContext) yieldCachedOutputDevices(yield func(RTMIDIDevice) bool) {
	for _, device := range m.outputDevices {
		if !yield(device) {
			break
		}
	}
}

func (m *RTMIDIContext) initOutputDevices(yield func(RTMIDIDevice) bool) {
	if m.driver == nil {
		return
	}
	outs, err := m.driver.Outs()
	if err != nil {
		return
	}
	for i := 0; i < len(outs); i++ {
		device := RTMIDIDevice{context: m, out: outs[i]}
		m.outputDevices = append(m.outputDevices, device)
		if !yield(device) {
			break
		}
	}
	m.devicesInitialized = true
}

// Open an output device while closing the currently open if necessary.
func (d RTMIDIDevice) Open() error {
	if d.context.currentOut == d.out {
		return nil
	}
	if d.context.driver == nil {
		return errors.New("no driver available")
	}
	if d.context.HasDeviceOpen() {
		d.context.currentOut.Close()
		d.context.send = nil
	}
	d.context.currentOut = d.out
	send, err := midi.SendTo(d.out)
	if err != nil {
		d.context.currentOut = nil
		return fmt.Errorf("opening MIDI output failed: %v", err)
	}
	d.context.send = send
	return nil
}

func (d RTMIDIDevice) String() string {
	return d.out.String()
}

func (c *RTMIDIContext) HasDeviceOpen() bool {
	return c.currentOut != nil && c.currentOut.IsOpen()
}

// TryToOpenBy opens the first output whose name starts with namePrefix,
// or just the first output when takeFirst is set.
func (c *RTMIDIContext) TryToOpenBy(namePrefix string, takeFirst bool) error {
	if namePrefix == "" && !takeFirst {
		return nil
	}
	for output := range c.OutputDevices {
		if takeFirst || strings.HasPrefix(output.String(), namePrefix) {
			return output.Open()
		}
	}
	if takeFirst {
		return errors.New("could not find any MIDI output")
	}
	return fmt.Errorf("could not find a MIDI output starting with %q", namePrefix)
}

// Preview sends a note on the given channel and releases it after the
// duration, blocking until the note off has been sent.
func (c *RTMIDIContext) Preview(channel, pitch, velocity uint8, duration time.Duration) error {
	if c.send == nil {
		return errors.New("no MIDI output open")
	}
	if err := c.send(midi.NoteOn(channel, pitch, velocity)); err != nil {
		return fmt.Errorf("sending note on failed: %v", err)
	}
	time.Sleep(duration)
	if err := c.send(midi.NoteOff(channel, pitch)); err != nil {
		return fmt.Errorf("sending note off failed: %v", err)
	}
	return nil
}

func (c *RTMIDIContext) Close() {
	if c.driver == nil {
		return
	}
	if c.currentOut != nil && c.currentOut.IsOpen() {
		c.currentOut.Close()
	}
	c.driver.Close()
}
