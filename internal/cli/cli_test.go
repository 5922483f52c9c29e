package cli

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func runCommand(t *testing.T, stdin string, args ...string) string {
	t.Helper()
	cmd := NewRootCommand()
	cmd.SetArgs(args)
	cmd.SetIn(strings.NewReader(stdin))
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetContext(t.Context())
	require.NoError(t, cmd.Execute())
	return out.String()
}

func TestBuildThenLookup(t *testing.T) {
	db := filepath.Join(t.TempDir(), "sme.db")

	tsv := strings.Join([]string{
		"viessu\tviessu+N+Sg+Nom\t0.0",
		"viesut\tviessu+N+Pl+Nom\t1.5",
		"# comment line",
		"",
		"guolli\tguolli+N+Sg+Nom",
	}, "\n")
	runCommand(t, tsv, "build", db, "sme")

	out := runCommand(t, "viessu\nguolli\nxyzzy\n", "lookup", db)

	require.Contains(t, out, "viessu\tviessu+N+Sg+Nom\t0\n")
	require.Contains(t, out, "guolli\tguolli+N+Sg+Nom\t0\n")
	require.Contains(t, out, "xyzzy\t<not found>\n")
}

func TestLookup_stripsFlagDiacritics(t *testing.T) {
	db := filepath.Join(t.TempDir(), "sme.db")
	runCommand(t, "viessu\tvies@P.Pfx.ON@su+N\t0\n", "build", db, "sme")

	out := runCommand(t, "viessu\n", "lookup", db)
	require.Contains(t, out, "viessu\tviessu+N\t0\n")

	out = runCommand(t, "viessu\n", "lookup", "--keep-flags", db)
	require.Contains(t, out, "viessu\tvies@P.Pfx.ON@su+N\t0\n")
}

func TestLookup_timings(t *testing.T) {
	db := filepath.Join(t.TempDir(), "sme.db")
	runCommand(t, "viessu\tviessu+N\t0\n", "build", db, "sme")

	out := runCommand(t, "viessu\n", "lookup", "--timings", db)
	require.Contains(t, out, "# entry=")
	require.Contains(t, out, "lookup=")
}

func TestBuild_rejectsMalformedLine(t *testing.T) {
	db := filepath.Join(t.TempDir(), "sme.db")

	cmd := NewRootCommand()
	cmd.SetArgs([]string{"build", db, "sme"})
	cmd.SetIn(strings.NewReader("only-one-field\n"))
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetContext(t.Context())
	err := cmd.Execute()
	require.Error(t, err)
	require.Contains(t, err.Error(), "surface and analysis")
}
