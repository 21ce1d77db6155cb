package cli

import (
	"errors"
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

func newDispatchCmd(input string) *cobra.Command {
	cmd := &cobra.Command{}
	cmd.SetIn(strings.NewReader(input))
	return cmd
}

func TestRunDispatchEmptyInput(t *testing.T) {
	jsonPayload = ""
	t.Cleanup(func() { jsonPayload = "" })

	err := runDispatch(newDispatchCmd(""))
	if !errors.Is(err, ErrFailed) {
		t.Fatalf("expected ErrFailed for empty input, got %v", err)
	}
}

func TestRunDispatchInvalidJSON(t *testing.T) {
	jsonPayload = "{not json"
	t.Cleanup(func() { jsonPayload = "" })

	err := runDispatch(newDispatchCmd(""))
	if !errors.Is(err, ErrFailed) {
		t.Fatalf("expected ErrFailed for invalid JSON, got %v", err)
	}
}

func TestRunDispatchWhitespaceStdin(t *testing.T) {
	jsonPayload = ""
	t.Cleanup(func() { jsonPayload = "" })

	err := runDispatch(newDispatchCmd("   \n\t"))
	if !errors.Is(err, ErrFailed) {
		t.Fatalf("expected ErrFailed for blank stdin, got %v", err)
	}
}
