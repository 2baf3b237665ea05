package ui

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAskRun(t *testing.T) {
	tests := []struct {
		name         string
		input        string
		wantGroupID  string
		wantMaxUsers int
		wantWorkers  int
	}{
		{"all answers", "12345\n500\n4\n", "12345", 500, 4},
		{"defaults", "12345\n\n\n", "12345", 0, 1},
		{"surrounding spaces", "  777 \n 10 \n 2 \n", "777", 10, 2},
		{"non-numeric cap means all", "1\nmany\n3\n", "1", 0, 3},
		{"negative cap means all", "1\n-5\n3\n", "1", 0, 3},
		{"zero workers falls back to one", "1\n10\n0\n", "1", 10, 1},
		{"garbage workers falls back to one", "1\n10\nlots\n", "1", 10, 1},
		{"input ends early", "99\n", "99", 0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			answers, err := NewPrompter(strings.NewReader(tt.input), &out).AskRun()
			require.NoError(t, err)

			assert.Equal(t, tt.wantGroupID, answers.GroupID)
			assert.Equal(t, tt.wantMaxUsers, answers.MaxUsers)
			assert.Equal(t, tt.wantWorkers, answers.Workers)
			assert.Contains(t, out.String(), "Enter group ID: ")
		})
	}
}

func TestAskGroupIDRejectsNonDigits(t *testing.T) {
	for _, input := range []string{"abc\n", "12a\n", "\n", "-12\n", "+12\n", "١٢٣\n"} {
		var out bytes.Buffer
		p := NewPrompter(strings.NewReader(input+"10\n2\n"), &out)

		answers, err := p.AskRun()
		assert.True(t, errors.Is(err, ErrInvalidGroupID), "input %q", input)
		assert.Nil(t, answers)
		assert.NotContains(t, out.String(), "number of users", "no further questions after a bad id")
	}
}
