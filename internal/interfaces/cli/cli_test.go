package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/evmosdao/paystub/internal/domain/paystub"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestFlagName(t *testing.T) {
	tests := map[paystub.Field]string{
		paystub.FieldName:            "name",
		paystub.FieldPayPeriodStart:  "pay-period-start",
		paystub.FieldYTDGross:        "ytd-gross",
		paystub.FieldTransactionHash: "transaction-hash",
		paystub.FieldSafeURL:         "safe-url",
	}
	for field, want := range tests {
		assert.Equal(t, want, flagName(field))
	}
}

func TestFieldsCommand(t *testing.T) {
	out, err := run(t, "fields")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, len(paystub.AllFields()))
	assert.Contains(t, lines[0], "name")
	assert.Contains(t, lines[1], "--pay-period-start")
	assert.Contains(t, lines[1], "date")
	assert.Contains(t, lines[4], "amount")
}

func TestRecordFlags_Resolve(t *testing.T) {
	file := filepath.Join(t.TempDir(), "jane.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`
name: Jane Doe
payDate: "2024-01-20"
grossPay: "1234.5"
`), 0o600))

	cmd := &cobra.Command{Use: "test", RunE: func(*cobra.Command, []string) error { return nil }}
	rf := addRecordFlags(cmd)
	require.NoError(t, cmd.ParseFlags([]string{"--record", file, "--gross-pay", "2000", "--safe-url", ""}))

	record, err := rf.resolve(cmd)
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", record.Name)
	assert.Equal(t, "2024-01-20", record.PayDate)
	assert.Equal(t, "2000", record.GrossPay)
	assert.Empty(t, record.SafeURL)
	assert.Empty(t, record.YTDGross)
}

func TestRecordFlags_BadFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(file, []byte("name: [unterminated"), 0o600))

	cmd := &cobra.Command{Use: "test"}
	rf := addRecordFlags(cmd)
	require.NoError(t, cmd.ParseFlags([]string{"--record", file}))

	_, err := rf.resolve(cmd)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse record")
}

func TestPreviewCommand(t *testing.T) {
	outFile := filepath.Join(t.TempDir(), "paystub.html")

	_, err := run(t, "preview", "--logo-wait", "0", "--name", "Jane Doe", "--gross-pay", "1234.5", "--out", outFile)
	require.NoError(t, err)

	html, err := os.ReadFile(outFile)
	require.NoError(t, err)
	assert.Contains(t, string(html), "Jane Doe")
	assert.Contains(t, string(html), "$1,234.50")
	assert.Contains(t, string(html), `id="paystub"`)
}
