package cli

import (
	"bytes"
	"context"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/felixgeelhaar/feedback/internal/infrastructure/config"
	"github.com/felixgeelhaar/feedback/pkg/sdk/sdktest"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// withBackend starts a fake backend and points the configuration at it
// through the environment. The state directory is a fresh temp dir.
func withBackend(t *testing.T) (*sdktest.Backend, *httptest.Server) {
	t.Helper()
	backend := sdktest.NewBackend()
	srv := sdktest.NewServer(backend)
	t.Cleanup(srv.Close)

	t.Setenv(config.EnvHome, t.TempDir())
	t.Setenv(config.EnvConfig, "")
	t.Setenv("FEEDBACK_BASE_URL", srv.URL)
	t.Setenv("FEEDBACK_MAX_ATTEMPTS", "1")
	t.Setenv("FEEDBACK_LOG_LEVEL", "error")
	return backend, srv
}

// runCLI executes the root command with args and returns stdout.
func runCLI(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	resetFlags(RootCmd)

	var out, errOut bytes.Buffer
	RootCmd.SetOut(&out)
	RootCmd.SetErr(&errOut)
	RootCmd.SetIn(strings.NewReader(stdin))
	RootCmd.SetArgs(args)
	err := RootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

// resetFlags restores every flag to its default, since flag variables are
// package globals shared across executions.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func mustRun(t *testing.T, stdin string, args ...string) string {
	t.Helper()
	out, err := runCLI(t, stdin, args...)
	if err != nil {
		t.Fatalf("feedback %s: %v", strings.Join(args, " "), err)
	}
	return out
}
