package gpib

import (
	"errors"
	"testing"
)

func TestParseBoard(t *testing.T) {
	tests := []struct {
		in   string
		want string
		err  bool
	}{
		{"0", "gpib0", false},
		{"3", "gpib3", false},
		{"gpib0", "gpib0", false},
		{"gpib12", "gpib12", false},
		{"/dev/gpib1", "gpib1", false},
		{" gpib2 ", "gpib2", false},
		{"-1", "", true},
		{"gpib", "", true},
		{"ttyUSB0", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		board, err := ParseBoard(tt.in)
		if tt.err {
			if !errors.Is(err, ErrBoardNotFound) {
				t.Errorf("ParseBoard(%q): expected ErrBoardNotFound, got %v", tt.in, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseBoard(%q): unexpected error %v", tt.in, err)
			continue
		}
		if board.Name() != tt.want {
			t.Errorf("ParseBoard(%q) = %q, expected %q", tt.in, board.Name(), tt.want)
		}
	}
}

func TestGetBoardInfoRejectsNonBoards(t *testing.T) {
	for _, path := range []string{"/dev/null", "/dev/gpib-nope", "/nonexistent/gpib0"} {
		if _, err := GetBoardInfo(path); !errors.Is(err, ErrBoardNotFound) {
			t.Errorf("GetBoardInfo(%q): expected ErrBoardNotFound, got %v", path, err)
		}
	}
}

func TestListBoardsDoesNotFail(t *testing.T) {
	// Most systems have no boards; the listing must still succeed.
	boards, err := ListBoards()
	if err != nil {
		t.Fatalf("ListBoards failed: %v", err)
	}
	for _, path := range boards {
		info, err := GetBoardInfo(path)
		if err != nil {
			t.Errorf("GetBoardInfo(%q) failed: %v", path, err)
			continue
		}
		if info.Path != path {
			t.Errorf("board path mismatch: %q vs %q", info.Path, path)
		}
	}
}
