package main

import (
	"regexp"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// negativeNumber matches arguments such as -90, -.5 or -1e3 that pflag would
// otherwise read as shorthand flags.
var negativeNumber = regexp.MustCompile(`^-(\d|\.\d)`)

// execute runs root with args, letting `move` take negative angles without
// an explicit "--".
func execute(root *cobra.Command, args []string) error {
	root.SetArgs(protectNegativeArgs(root.PersistentFlags(), args))
	return root.Execute()
}

// protectNegativeArgs inserts "--" before the first negative number that
// follows the move subcommand. Values of flags are left alone, and args
// that already carry a "--" are returned unchanged.
func protectNegativeArgs(flags *pflag.FlagSet, args []string) []string {
	seenMove := false
	for i := 0; i < len(args); i++ {
		a := args[i]
		switch {
		case a == "--":
			return args
		case seenMove && negativeNumber.MatchString(a):
			out := make([]string, 0, len(args)+1)
			out = append(out, args[:i]...)
			out = append(out, "--")
			return append(out, args[i:]...)
		case strings.HasPrefix(a, "-"):
			if takesValue(flags, a) {
				i++
			}
		case !seenMove && a == "move":
			seenMove = true
		}
	}
	return args
}

// takesValue reports whether a is a flag whose value is the next argument.
func takesValue(flags *pflag.FlagSet, a string) bool {
	if strings.Contains(a, "=") {
		return false
	}
	var f *pflag.Flag
	switch {
	case strings.HasPrefix(a, "--"):
		f = flags.Lookup(a[2:])
	case len(a) == 2:
		f = flags.ShorthandLookup(a[1:])
	}
	return f != nil && f.NoOptDefVal == ""
}
