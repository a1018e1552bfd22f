// internal/printer/command.go
package printer

import (
	"fmt"
	"strings"

	"github.com/tamzrod/batchlink/internal/batch"
	"github.com/tamzrod/batchlink/internal/faults"
)

// External-field protocol: one LF-terminated command per field.
// Field slots on the printhead are fixed by the label template.
const (
	fieldBatchCode      = 0
	fieldDryerCode      = 1
	fieldProductionDate = 2
	fieldExpiryDate     = 3

	maxStringField = 19
)

// stringFieldCommand formats one external string field assignment.
func stringFieldCommand(index int, value string) (string, error) {
	if index < 0 || index > maxStringField {
		return "", faults.NewData("field", "string field index must be 0-%d, got %d", maxStringField, index)
	}
	return fmt.Sprintf("external_field string %d %q", index, value), nil
}

// BuildCommands renders the command set for one record. The same set
// goes to both heads. Values are sanitized first; quotes and control
// characters would break the line protocol.
func BuildCommands(rec batch.Record) ([]string, error) {
	fields := []struct {
		index int
		value string
	}{
		{fieldBatchCode, rec.BatchCode},
		{fieldDryerCode, rec.DryerCode},
		{fieldProductionDate, rec.ProductionDate},
		{fieldExpiryDate, rec.ExpiryDate},
	}

	cmds := make([]string, 0, len(fields))
	for _, f := range fields {
		cmd, err := stringFieldCommand(f.index, sanitize(f.value))
		if err != nil {
			return nil, err
		}
		cmds = append(cmds, cmd)
	}
	return cmds, nil
}

// sanitize strips the characters the printhead's parser cannot take.
func sanitize(v string) string {
	r := strings.NewReplacer(
		`"`, "'",
		"\n", " ",
		"\r", " ",
		"\t", " ",
	)
	return strings.TrimSpace(r.Replace(v))
}
