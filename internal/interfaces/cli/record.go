package cli

import (
	"fmt"
	"os"
	"strings"
	"unicode"

	"github.com/evmosdao/paystub/internal/domain/paystub"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// recordFlags binds a record file plus one flag per record field
type recordFlags struct {
	file   string
	values map[paystub.Field]*string
}

func addRecordFlags(cmd *cobra.Command) *recordFlags {
	rf := &recordFlags{values: make(map[paystub.Field]*string)}
	cmd.Flags().StringVarP(&rf.file, "record", "r", "", "YAML or JSON file with the record fields")
	for _, f := range paystub.AllFields() {
		rf.values[f] = cmd.Flags().String(flagName(f), "", fmt.Sprintf("value of %s (overrides --record)", f))
	}
	return rf
}

// flagName turns a field name like payPeriodStart into pay-period-start
func flagName(f paystub.Field) string {
	var b strings.Builder
	for i, r := range f.String() {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('-')
			}
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}

// resolve reads the record file, then applies every field flag that was set
func (rf *recordFlags) resolve(cmd *cobra.Command) (paystub.Record, error) {
	record := paystub.NewRecord()

	if rf.file != "" {
		raw, err := os.ReadFile(rf.file)
		if err != nil {
			return record, fmt.Errorf("read record: %w", err)
		}
		if err := yaml.Unmarshal(raw, &record); err != nil {
			return record, fmt.Errorf("parse record %s: %w", rf.file, err)
		}
	}

	for _, f := range paystub.AllFields() {
		if !cmd.Flags().Changed(flagName(f)) {
			continue
		}
		if err := record.Apply(paystub.FieldUpdate{Field: f, Value: *rf.values[f]}); err != nil {
			return record, err
		}
	}
	return record, nil
}
