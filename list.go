package gpib

import (
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"
)

var boardPattern = regexp.MustCompile(`^gpib(\d+)$`)

// ListBoards returns the device paths of GPIB controller boards present
// on the system (/dev/gpib0, /dev/gpib1, ...). Only character devices are
// reported.
func ListBoards() ([]string, error) {
	entries, err := filepath.Glob("/dev/gpib*")
	if err != nil {
		return nil, err
	}

	var boards []string
	for _, path := range entries {
		if !boardPattern.MatchString(filepath.Base(path)) {
			continue
		}
		if isCharacterDevice(path) {
			boards = append(boards, path)
		}
	}

	sort.Strings(boards)
	return boards, nil
}

// BoardInfo describes a GPIB controller board device node.
type BoardInfo struct {
	Name       string // Device name, e.g. "gpib0"
	Path       string // Full device path, e.g. "/dev/gpib0"
	Index      int    // Board minor number
	Accessible bool   // Current user may open the board for I/O
}

// GetBoardInfo returns details about a specific board device path.
func GetBoardInfo(path string) (*BoardInfo, error) {
	name := filepath.Base(path)
	m := boardPattern.FindStringSubmatch(name)
	if m == nil || !isCharacterDevice(path) {
		return nil, ErrBoardNotFound
	}

	index, err := strconv.Atoi(m[1])
	if err != nil {
		return nil, ErrBoardNotFound
	}

	return &BoardInfo{
		Name:       name,
		Path:       path,
		Index:      index,
		Accessible: unix.Access(path, unix.R_OK|unix.W_OK) == nil,
	}, nil
}

// ParseBoard converts a board designator string to a Board. It accepts a
// device path ("/dev/gpib0"), an interface name ("gpib0") or a bare index
// ("0").
func ParseBoard(s string) (Board, error) {
	s = filepath.Base(strings.TrimSpace(s))
	if index, err := strconv.Atoi(s); err == nil {
		if index < 0 {
			return Board{}, ErrBoardNotFound
		}
		return BoardIndex(index), nil
	}
	if boardPattern.MatchString(s) {
		return BoardName(s), nil
	}
	return Board{}, ErrBoardNotFound
}

// isCharacterDevice checks whether the given path is a character device
func isCharacterDevice(path string) bool {
	var stat unix.Stat_t
	if err := unix.Stat(path, &stat); err != nil {
		return false
	}
	return stat.Mode&unix.S_IFMT == unix.S_IFCHR
}
