package gcode

import (
	"io"
	"strings"
)

// Parse splits data into blocks. Empty and comment-only lines are
// skipped.
func Parse(data string) ([]Block, error) {
	r := NewParser(strings.NewReader(data))
	var b []Block
	for {
		bl, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		b = append(b, bl)
	}
	return b, nil
}

// ParseBlock parses a single line.
func ParseBlock(line string) (Block, error) {
	bl, err := NewParser(strings.NewReader(line)).Read()
	if err == io.EOF {
		return nil, nil
	}
	return bl, err
}

func MustParse(data string) []Block {
	b, err := Parse(data)
	if err != nil {
		panic(err)
	}
	return b
}
