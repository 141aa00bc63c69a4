package autostart

import (
	"fmt"
	"strings"

	"howett.net/plist"
)

// renderDesktopEntry produces an XDG autostart entry.
func renderDesktopEntry(d Descriptor) ([]byte, error) {
	var b strings.Builder
	b.WriteString("[Desktop Entry]\n")
	b.WriteString("Type=Application\n")
	b.WriteString("Name=" + d.Name + "\n")
	b.WriteString("Exec=" + desktopExec(d) + "\n")
	b.WriteString("Terminal=false\n")
	b.WriteString("X-GNOME-Autostart-enabled=true\n")
	return []byte(b.String()), nil
}

// desktopExec quotes arguments per the Desktop Entry Exec key rules.
func desktopExec(d Descriptor) string {
	parts := make([]string, 0, len(d.Args)+1)
	parts = append(parts, desktopQuote(d.Program))
	for _, arg := range d.Args {
		parts = append(parts, desktopQuote(arg))
	}
	return strings.Join(parts, " ")
}

func desktopQuote(arg string) string {
	if arg != "" && !strings.ContainsAny(arg, " \t\n\"'\\><~|&;$*?#()`%") {
		return arg
	}
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range arg {
		switch r {
		case '"', '`', '$', '\\':
			b.WriteByte('\\')
		case '%':
			b.WriteByte('%')
		}
		b.WriteRune(r)
	}
	b.WriteByte('"')
	return b.String()
}

// launchAgent is the launchd job description written for the login item.
type launchAgent struct {
	Label            string   `plist:"Label"`
	ProgramArguments []string `plist:"ProgramArguments"`
	RunAtLoad        bool     `plist:"RunAtLoad"`
	ProcessType      string   `plist:"ProcessType"`
}

// renderLaunchAgent produces a launchd property list.
func renderLaunchAgent(d Descriptor) ([]byte, error) {
	job := launchAgent{
		Label:            d.Label,
		ProgramArguments: append([]string{d.Program}, d.Args...),
		RunAtLoad:        true,
		ProcessType:      "Interactive",
	}
	out, err := plist.MarshalIndent(job, plist.XMLFormat, "\t")
	if err != nil {
		return nil, fmt.Errorf("encode launch agent: %w", err)
	}
	return out, nil
}

// renderStartupScript produces a batch file for the Startup folder.
func renderStartupScript(d Descriptor) ([]byte, error) {
	var b strings.Builder
	b.WriteString("@echo off\r\n")
	b.WriteString(`start "" ` + cmdQuote(d.Program))
	for _, arg := range d.Args {
		b.WriteString(" " + cmdQuote(arg))
	}
	b.WriteString("\r\n")
	return []byte(b.String()), nil
}

func cmdQuote(arg string) string {
	if arg != "" && !strings.ContainsAny(arg, " \t&|<>^\"%") {
		return arg
	}
	arg = strings.ReplaceAll(arg, `"`, `""`)
	arg = strings.ReplaceAll(arg, "%", "%%")
	return `"` + arg + `"`
}
