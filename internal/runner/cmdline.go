package runner

import "strings"

// splitCommand breaks a command string into arguments:
//  1. Arguments are delimited by white space, either a space or a tab.
//  2. A string surrounded by double or single quotes is one argument,
//     regardless of white space contained within. A quoted string can be
//     embedded in an argument.
//  3. A quote preceded by a backslash is kept literally.
//
// Empty arguments produced by repeated white space are dropped.
func splitCommand(cmd string) []string {
	var cmdParts []string
	var inQuote rune

	var b strings.Builder
	flush := func() {
		if b.Len() > 0 {
			cmdParts = append(cmdParts, b.String())
			b.Reset()
		}
	}
	for i, ch := range cmd {
		if (ch == '"' || ch == '\'') && (i == 0 || cmd[i-1] != '\\') {
			switch inQuote {
			case rune(0):
				inQuote = ch
			case ch:
				inQuote = rune(0)
			default:
				b.WriteRune(ch)
			}
		} else if (ch == ' ' || ch == '\t') && inQuote == 0 {
			flush()
		} else if ch == '\\' && i+1 < len(cmd) && (cmd[i+1] == '"' || cmd[i+1] == '\'') {
			continue
		} else {
			b.WriteRune(ch)
		}
	}
	flush()
	return cmdParts
}
