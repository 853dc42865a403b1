package cli

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/term"
)

type Value interface {
	String() string
	Set(string) error
}

type stringValue struct{ p *string }

func (v *stringValue) Set(s string) error { *v.p = s; return nil }
func (v *stringValue) String() string     { return *v.p }

type boolValue struct{ p *bool }

func (v *boolValue) Set(s string) error {
	if s == "" {
		*v.p = true
		return nil
	}
	val, err := strconv.ParseBool(s)
	if err != nil {
		return fmt.Errorf("invalid boolean value '%s': %w", s, err)
	}
	*v.p = val
	return nil
}
func (v *boolValue) String() string { return strconv.FormatBool(*v.p) }

type listValue struct{ p *[]string }

func (v *listValue) Set(s string) error { *v.p = append(*v.p, s); return nil }
func (v *listValue) String() string     { return strings.Join(*v.p, ", ") }

type Flag struct {
	Name         string
	Shorthand    string
	Usage        string
	Value        Value
	DefValue     string
	ExpectedType string
	Changed      bool
}

func (f *Flag) set(s string) error {
	f.Changed = true
	return f.Value.Set(s)
}

// FlagGroupEntry documents one value accepted by a prefix flag, e.g. -Woverflow.
type FlagGroupEntry struct {
	Name    string
	Usage   string
	Enabled bool
}

type FlagGroup struct {
	Name    string
	Prefix  string
	Entries []FlagGroupEntry
}

type FlagSet struct {
	name          string
	flags         map[string]*Flag
	shorthands    map[string]*Flag
	specialPrefix map[string]*Flag
	args          []string
	groups        []FlagGroup
}

func NewFlagSet(name string) *FlagSet {
	return &FlagSet{
		name:          name,
		flags:         make(map[string]*Flag),
		shorthands:    make(map[string]*Flag),
		specialPrefix: make(map[string]*Flag),
	}
}

func (f *FlagSet) Args() []string { return f.args }

func (f *FlagSet) Lookup(name string) *Flag { return f.flags[name] }

// Changed reports whether the named flag was given on the command line, even
// with an empty value.
func (f *FlagSet) Changed(name string) bool {
	flag, ok := f.flags[name]
	return ok && flag.Changed
}

func (f *FlagSet) String(p *string, name, shorthand, value, usage, expectedType string) {
	*p = value
	f.Var(&stringValue{p}, name, shorthand, usage, value, expectedType)
}

func (f *FlagSet) Bool(p *bool, name, shorthand string, value bool, usage string) {
	*p = value
	f.Var(&boolValue{p}, name, shorthand, usage, strconv.FormatBool(value), "")
}

func (f *FlagSet) List(p *[]string, name, shorthand, usage, expectedType string) {
	*p = []string{}
	f.Var(&listValue{p}, name, shorthand, usage, "", expectedType)
}

// Special registers a flag whose value is glued to its prefix, as in -Wall.
func (f *FlagSet) Special(p *[]string, prefix, usage, expectedType string) {
	f.List(p, prefix, "", usage, expectedType)
	f.specialPrefix[prefix] = f.flags[prefix]
}

func (f *FlagSet) AddFlagGroup(group FlagGroup) { f.groups = append(f.groups, group) }

func (f *FlagSet) Var(value Value, name, shorthand, usage, defValue, expectedType string) {
	if name == "" {
		panic("flag name cannot be empty")
	}
	if _, ok := f.flags[name]; ok {
		panic(fmt.Sprintf("flag redefined: %s", name))
	}
	flag := &Flag{Name: name, Shorthand: shorthand, Usage: usage, Value: value, DefValue: defValue, ExpectedType: expectedType}
	f.flags[name] = flag
	if shorthand != "" {
		if _, ok := f.shorthands[shorthand]; ok {
			panic(fmt.Sprintf("shorthand flag redefined: %s", shorthand))
		}
		f.shorthands[shorthand] = flag
	}
}

func (f *FlagSet) Parse(arguments []string) error {
	f.args = []string{}
	for i := 0; i < len(arguments); i++ {
		arg := arguments[i]
		switch {
		case len(arg) < 2 || arg[0] != '-':
			f.args = append(f.args, arg)
		case arg == "--":
			f.args = append(f.args, arguments[i+1:]...)
			return nil
		case strings.HasPrefix(arg, "--"):
			if err := f.parseLong(arg[2:], "--", arguments, &i); err != nil {
				return err
			}
		default:
			name, _, _ := strings.Cut(arg[1:], "=")
			if _, ok := f.flags[name]; ok {
				if err := f.parseLong(arg[1:], "-", arguments, &i); err != nil {
					return err
				}
				continue
			}
			if err := f.parseShort(arg, arguments, &i); err != nil {
				return err
			}
		}
	}
	return nil
}

func (f *FlagSet) parseLong(spec, dashes string, arguments []string, i *int) error {
	name, value, hasValue := strings.Cut(spec, "=")
	if name == "" {
		return fmt.Errorf("empty flag name")
	}
	flag, ok := f.flags[name]
	if !ok {
		return fmt.Errorf("unknown flag: %s%s", dashes, name)
	}
	if hasValue {
		return flag.set(value)
	}
	if _, isBool := flag.Value.(*boolValue); isBool {
		return flag.set("")
	}
	if *i+1 >= len(arguments) {
		return fmt.Errorf("flag needs an argument: %s%s", dashes, name)
	}
	*i++
	return flag.set(arguments[*i])
}

func (f *FlagSet) parseShort(arg string, arguments []string, i *int) error {
	for prefix, flag := range f.specialPrefix {
		if strings.HasPrefix(arg, "-"+prefix) && len(arg) > len(prefix)+1 {
			return flag.set(arg[len(prefix)+1:])
		}
	}

	shorthand := arg[1:2]
	flag, ok := f.shorthands[shorthand]
	if !ok {
		return fmt.Errorf("unknown shorthand flag: -%s", shorthand)
	}
	if _, isBool := flag.Value.(*boolValue); isBool {
		return flag.set("")
	}
	value := arg[2:]
	if value == "" {
		if *i+1 >= len(arguments) {
			return fmt.Errorf("flag needs an argument: -%s", shorthand)
		}
		*i++
		value = arguments[*i]
	}
	return flag.set(value)
}

type App struct {
	Name        string
	Synopsis    string
	Description string
	Authors     []string
	Repository  string
	FlagSet     *FlagSet
	Action      func(args []string) error
	Stdout      io.Writer
	Stderr      io.Writer
}

func NewApp(name string) *App {
	return &App{Name: name, FlagSet: NewFlagSet(name), Stdout: os.Stdout, Stderr: os.Stderr}
}

func (a *App) Run(arguments []string) error {
	help := false
	a.FlagSet.Bool(&help, "help", "h", false, "Display this information")

	if err := a.FlagSet.Parse(arguments); err != nil {
		fmt.Fprintln(a.Stderr, err)
		fmt.Fprintf(a.Stderr, "Usage: %s %s\nRun '%s --help' for all available options.\n", a.Name, a.Synopsis, a.Name)
		return err
	}
	if help {
		fmt.Fprint(a.Stdout, a.HelpPage(getTerminalWidth()))
		return nil
	}
	if a.Action != nil {
		return a.Action(a.FlagSet.Args())
	}
	return nil
}

func (a *App) optionFlags() []*Flag {
	var flags []*Flag
	for _, flag := range a.FlagSet.flags {
		flags = append(flags, flag)
	}
	sort.Slice(flags, func(i, j int) bool { return flags[i].Name < flags[j].Name })
	return flags
}

func (a *App) formatFlagString(flag *Flag) string {
	var sb strings.Builder
	_, isBool := flag.Value.(*boolValue)
	if _, isSpecial := a.FlagSet.specialPrefix[flag.Name]; isSpecial {
		fmt.Fprintf(&sb, "-%s<%s>", flag.Name, flag.ExpectedType)
		return sb.String()
	}
	if flag.Shorthand != "" {
		fmt.Fprintf(&sb, "-%s, ", flag.Shorthand)
	}
	fmt.Fprintf(&sb, "--%s", flag.Name)
	if !isBool && flag.ExpectedType != "" {
		fmt.Fprintf(&sb, " <%s>", flag.ExpectedType)
	}
	return sb.String()
}

// HelpPage renders the full help text wrapped to width columns.
func (a *App) HelpPage(width int) string {
	var sb strings.Builder
	const indent1, indent2 = "    ", "        "

	flags := a.optionFlags()
	leftWidth := 0
	for _, flag := range flags {
		leftWidth = max(leftWidth, len(a.formatFlagString(flag)))
	}
	for _, group := range a.FlagSet.groups {
		for _, e := range group.Entries {
			leftWidth = max(leftWidth, len(group.Prefix+e.Name))
		}
	}

	if len(a.Authors) > 0 {
		fmt.Fprintf(&sb, "\n%sCopyright (c): %s and contributors\n", indent1, strings.Join(a.Authors, ", "))
	}
	if a.Repository != "" {
		fmt.Fprintf(&sb, "%sFor more details refer to %s\n", indent1, a.Repository)
	}
	if a.Synopsis != "" {
		fmt.Fprintf(&sb, "\n%sSynopsis\n%s%s %s\n", indent1, indent2, a.Name, a.Synopsis)
	}
	if a.Description != "" {
		fmt.Fprintf(&sb, "\n%sDescription\n", indent1)
		for _, line := range wrapText(a.Description, width-len(indent2)) {
			fmt.Fprintf(&sb, "%s%s\n", indent2, line)
		}
	}

	usageWidth := width - len(indent2) - leftWidth - 1
	writeEntry := func(left, usage, right string) {
		lines := wrapText(usage, usageWidth-len(right)-1)
		if len(lines) == 0 {
			lines = []string{""}
		}
		first := lines[0]
		if right != "" {
			first = fmt.Sprintf("%-*s %s", max(usageWidth-len(right)-1, len(first)), first, right)
		}
		fmt.Fprintf(&sb, "%s%-*s %s\n", indent2, leftWidth, left, strings.TrimRight(first, " "))
		for _, line := range lines[1:] {
			fmt.Fprintf(&sb, "%s%s %s\n", indent2, strings.Repeat(" ", leftWidth), line)
		}
	}

	if len(flags) > 0 {
		fmt.Fprintf(&sb, "\n%sOptions\n", indent1)
		for _, flag := range flags {
			right := ""
			if _, isBool := flag.Value.(*boolValue); !isBool && flag.DefValue != "" {
				right = fmt.Sprintf("|%s|", flag.DefValue)
			}
			writeEntry(a.formatFlagString(flag), flag.Usage, right)
		}
	}

	for _, group := range a.FlagSet.groups {
		fmt.Fprintf(&sb, "\n%s%s\n", indent1, group.Name)
		entries := append([]FlagGroupEntry(nil), group.Entries...)
		sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
		for _, e := range entries {
			right := "|-|"
			if e.Enabled {
				right = "|x|"
			}
			writeEntry(group.Prefix+e.Name, e.Usage, right)
		}
	}
	return sb.String()
}

func getTerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		return 80
	}
	return max(width, 40)
}

func wrapText(text string, maxWidth int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	if maxWidth < 10 {
		maxWidth = 10
	}

	var lines []string
	var line strings.Builder
	for _, word := range words {
		if line.Len() > 0 && line.Len()+1+len(word) > maxWidth {
			lines = append(lines, line.String())
			line.Reset()
		}
		if line.Len() > 0 {
			line.WriteByte(' ')
		}
		line.WriteString(word)
	}
	return append(lines, line.String())
}
