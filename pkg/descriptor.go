package pkg

import (
	"strconv"
	"strings"
)

// DefaultTargetBufferSize bounds how much of a descriptor target is read.
// Longer targets are kept up to the bound and flagged Truncated.
const DefaultTargetBufferSize = 1024

const (
	socketToken = "socket:["
	pipeToken   = "pipe:["
)

// ClassifyTarget returns the kind of a descriptor target string. For pipes and
// sockets it also extracts the inode between the brackets; ok is false when
// there are no digits to parse.
func ClassifyTarget(target string) (kind TargetKind, inode uint64, ok bool) {
	var rest string
	switch {
	case strings.HasPrefix(target, pipeToken):
		kind, rest = KindPipe, target[len(pipeToken):]
	case strings.HasPrefix(target, socketToken):
		kind, rest = KindSocket, target[len(socketToken):]
	default:
		return KindFile, 0, false
	}

	// without a closing bracket the inode text runs to the end of the target,
	// which is never longer than the read buffer
	if i := strings.IndexByte(rest, ']'); i >= 0 {
		rest = rest[:i]
	}
	inode, ok = parseLeadingUint(rest)
	return kind, inode, ok
}

// parseLeadingUint parses the leading decimal digits of s.
func parseLeadingUint(s string) (uint64, bool) {
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, false
	}
	v, err := strconv.ParseUint(s[:end], 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
