//go:build cgo

package gomidi

import (
	"errors"
	"fmt"
	"strings"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	"gitlab.com/gomidi/midi/v2/drivers/rtmididrv"
)

// Context owns the rtmidi driver and at most one open input device.
type Context struct {
	driver    *rtmididrv.Driver
	currentIn drivers.In
	stop      func()
}

// NewContext opens the driver. Without a driver, the context lists no
// devices.
func NewContext() *Context {
	c := &Context{}
	// there's not much we can do if this fails, so just use driver = nil to
	// indicate no driver available
	c.driver, _ = rtmididrv.New()
	return c
}

// InputDevices returns the names of the available input devices.
func (c *Context) InputDevices() []string {
	if c.driver == nil {
		return nil
	}
	ins, err := c.driver.Ins()
	if err != nil {
		return nil
	}
	ret := make([]string, len(ins))
	for i, in := range ins {
		ret[i] = in.String()
	}
	return ret
}

// Open starts listening to the first input device whose name starts with
// namePrefix, closing the currently open device. An empty prefix takes the
// first device.
func (c *Context) Open(namePrefix string, input *Input) error {
	if c.driver == nil {
		return errors.New("no MIDI driver available")
	}
	ins, err := c.driver.Ins()
	if err != nil {
		return fmt.Errorf("listing MIDI inputs failed: %w", err)
	}
	for _, in := range ins {
		if !strings.HasPrefix(in.String(), namePrefix) {
			continue
		}
		c.closeInput()
		if err := in.Open(); err != nil {
			return fmt.Errorf("opening MIDI input failed: %w", err)
		}
		stop, err := midi.ListenTo(in, input.HandleMessage)
		if err != nil {
			in.Close()
			return fmt.Errorf("listening to MIDI input failed: %w", err)
		}
		c.currentIn, c.stop = in, stop
		return nil
	}
	if namePrefix == "" {
		return errors.New("could not find any MIDI input")
	}
	return fmt.Errorf("could not find any MIDI input starting with %q", namePrefix)
}

func (c *Context) closeInput() {
	if c.stop != nil {
		c.stop()
		c.stop = nil
	}
	if c.currentIn != nil && c.currentIn.IsOpen() {
		c.currentIn.Close()
	}
	c.currentIn = nil
}

func (c *Context) Close() {
	if c.driver == nil {
		return
	}
	c.closeInput()
	c.driver.Close()
}
