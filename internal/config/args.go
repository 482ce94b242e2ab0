package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/pflag"
)

// ErrNoCommand is returned when neither a lock nor an unlock command is configured.
var ErrNoCommand = errors.New("at least one command is required")

// MissingValueError is returned when an option is the last argument and its value is absent.
type MissingValueError struct {
	Flag string
}

func (e *MissingValueError) Error() string {
	return fmt.Sprintf("missing command for %s event", e.Flag)
}

// Args holds the result of parsing the command line.
type Args struct {
	Lock   string
	Unlock string
	Help   bool
	// Unknown lists the arguments that were not recognized, in order.
	Unknown []string
}

// Flags returns the options of the watcher. program names the flag set.
func Flags(program string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(program, pflag.ContinueOnError)
	fs.StringP("lock", "l", "", "Run `COMMAND` when the screen is locked (password required)")
	fs.StringP("unlock", "u", "", "Run `COMMAND` when the screen is unlocked")
	fs.BoolP("help", "h", false, "Show this help")
	fs.SortFlags = false
	return fs
}

// ParseArgs parses the arguments that follow the program name.
//
// Options take the next argument as their value, even when it starts with a dash.
// When an option is repeated the last value wins.
// Unrecognized arguments do not stop parsing, they are returned in Args.Unknown.
// On error, the returned Args holds the unknown arguments seen before the failing option.
func ParseArgs(args []string) (*Args, error) {
	fs := Flags("lockwatch")
	result := &Args{}

	for i := 0; i < len(args); i++ {
		arg := args[i]

		flag, value, hasValue := lookup(fs, arg)
		if flag == nil {
			result.Unknown = append(result.Unknown, arg)
			continue
		}

		if !hasValue {
			if flag.Value.Type() == "bool" {
				value = "true"
			} else if i+1 < len(args) {
				i++
				value = args[i]
			} else {
				return result, &MissingValueError{Flag: flag.Name}
			}
		}

		if err := fs.Set(flag.Name, value); err != nil {
			return result, fmt.Errorf("invalid value %q for --%s: %w", value, flag.Name, err)
		}
	}

	result.Lock, _ = fs.GetString("lock")
	result.Unlock, _ = fs.GetString("unlock")
	result.Help, _ = fs.GetBool("help")

	return result, nil
}

// lookup finds the option named by arg. Supported forms are -l, --lock and --lock=value.
func lookup(fs *pflag.FlagSet, arg string) (flag *pflag.Flag, value string, hasValue bool) {
	switch {
	case strings.HasPrefix(arg, "--") && len(arg) > 2:
		name, v, found := strings.Cut(arg[2:], "=")
		return fs.Lookup(name), v, found
	case strings.HasPrefix(arg, "-") && len(arg) == 2 && arg[1] != '-':
		return fs.ShorthandLookup(arg[1:]), "", false
	}

	return nil, "", false
}

// Usage returns the usage text for program.
func Usage(program string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Usage: %s [options]\n", program)
	b.WriteString("Options:\n")
	b.WriteString(Flags(program).FlagUsages())
	b.WriteString("At least one command is required.\n")
	return b.String()
}
