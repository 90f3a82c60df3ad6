package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/turtacn/dimpat/internal/domain/extract"
)

type extractList []extract.Spec

func (l extractList) String() string {
	var sb strings.Builder
	for _, s := range l {
		fmt.Fprintf(&sb, "%s: %s\n", s.Name, strings.Join(s.Columns, ", "))
	}
	return sb.String()
}

func (l extractList) TableHeaders() []string { return []string{"Extract", "Columns"} }

func (l extractList) TableRows() [][]string {
	rows := make([][]string, len(l))
	for i, s := range l {
		rows[i] = []string{s.Name, strings.Join(s.Columns, ", ")}
	}
	return rows
}

// NewExtractsCmd creates the extracts command, which lists every extract and
// its columns in output order.
func NewExtractsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "extracts",
		Short: "List the extracts and their columns",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return PrintResult(cmd, extractList(extract.Catalog()))
		},
	}
}

//Personal.AI order the ending
