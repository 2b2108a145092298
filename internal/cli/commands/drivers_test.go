package commands

import (
	"bytes"
	"strings"
	"testing"

	_ "github.com/leapstack-labs/leapstore/pkg/drivers/sqlite"
)

func TestNewDriversCommand(t *testing.T) {
	cmd := NewDriversCommand()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	output := buf.String()
	for _, want := range []string{"NAME", "PLACEHOLDER", "MIGRATIONS", "sqlite"} {
		if !strings.Contains(output, want) {
			t.Errorf("output should contain %q, got: %s", want, output)
		}
	}
}
