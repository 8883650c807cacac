package vcs

import (
	"strconv"
	"strings"
)

type cmdKind int

const (
	cmdIllegal cmdKind = iota
	cmdHelp
	cmdPut
	cmdGet
	cmdList
	cmdUsageError
)

type command struct {
	kind     cmdKind
	verb     string // raw verb, for the illegal-method error
	usageErr string
	path     string
	length   int
	revision string // GET only, "" means latest
}

// parseCommand splits a command line on whitespace and classifies it per
// §4.3's grammar. It never validates paths or lengths beyond field count;
// that happens once the command reaches its handler.
func parseCommand(line string) command {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return command{kind: cmdIllegal, verb: ""}
	}

	verb := fields[0]
	switch strings.ToLower(verb) {
	case "help":
		return command{kind: cmdHelp}

	case "put":
		if len(fields) != 3 {
			return command{kind: cmdUsageError, usageErr: "usage: PUT file length newline data"}
		}
		length, err := strconv.Atoi(fields[2])
		if err != nil || length < 0 {
			length = 0
		}
		return command{kind: cmdPut, path: fields[1], length: length}

	case "get":
		if len(fields) != 2 && len(fields) != 3 {
			return command{kind: cmdUsageError, usageErr: "usage: GET file [revision]"}
		}
		rev := ""
		if len(fields) == 3 {
			rev = fields[2]
		}
		return command{kind: cmdGet, path: fields[1], revision: rev}

	case "list":
		if len(fields) != 2 {
			return command{kind: cmdUsageError, usageErr: "usage: LIST dir"}
		}
		return command{kind: cmdList, path: fields[1]}

	default:
		return command{kind: cmdIllegal, verb: verb}
	}
}
