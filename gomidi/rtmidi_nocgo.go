//go:build !cgo

package gomidi

import "errors"

// Context is a null context: without cgo, there is no MIDI driver.
type Context struct{}

func NewContext() *Context { return &Context{} }

func (c *Context) InputDevices() []string { return nil }

func (c *Context) Open(namePrefix string, input *Input) error {
	return errors.New("MIDI input needs a build with cgo")
}

func (c *Context) Close() {}
