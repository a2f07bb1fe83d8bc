package protocol

import (
	"errors"
	"strings"
)

var (
	// ErrInvalidCommand is returned for requests that are not a non-empty
	// array of bulk strings
	ErrInvalidCommand = errors.New("protocol: invalid command format")
)

// Command represents a Redis command parsed from a RESP array
type Command struct {
	Name string
	Args [][]byte
}

// ParseCommand parses a request frame into a Command. The name is
// upper-cased.
func ParseCommand(f Frame) (*Command, error) {
	arr, ok := f.(Array)
	if !ok || len(arr) == 0 {
		return nil, ErrInvalidCommand
	}

	name, ok := arr[0].(BulkString)
	if !ok {
		return nil, ErrInvalidCommand
	}

	cmd := &Command{
		Name: strings.ToUpper(string(name)),
		Args: make([][]byte, len(arr)-1),
	}
	for i, elem := range arr[1:] {
		arg, ok := elem.(BulkString)
		if !ok {
			return nil, ErrInvalidCommand
		}
		cmd.Args[i] = arg
	}

	return cmd, nil
}

// NewCommand builds the request frame for a command
func NewCommand(name string, args ...string) Array {
	arr := make(Array, 0, 1+len(args))
	arr = append(arr, BulkString(name))
	for _, arg := range args {
		arr = append(arr, BulkString(arg))
	}
	return arr
}

// Frame returns the request frame for the command
func (c *Command) Frame() Array {
	arr := make(Array, 0, 1+len(c.Args))
	arr = append(arr, BulkString(c.Name))
	for _, arg := range c.Args {
		arr = append(arr, BulkString(arg))
	}
	return arr
}

// Arg returns argument i as a string, or "" if it does not exist
func (c *Command) Arg(i int) string {
	if i < 0 || i >= len(c.Args) {
		return ""
	}
	return string(c.Args[i])
}

// String returns a string representation of the command
func (c *Command) String() string {
	args := make([]string, len(c.Args))
	for i, arg := range c.Args {
		args[i] = string(arg)
	}
	return strings.TrimSpace(c.Name + " " + strings.Join(args, " "))
}
