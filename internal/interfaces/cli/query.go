package cli

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/turtacn/dimpat/pkg/client"
)

// queryView is the DSL a run would send.
type queryView struct {
	client.PatentQuery
	DSL string `json:"dsl"`
}

func (v queryView) String() string { return v.DSL + "\n" }

func (v queryView) TableHeaders() []string {
	return []string{"Grid", "From", "To", "Limit", "DSL"}
}

func (v queryView) TableRows() [][]string {
	return [][]string{{v.GridID, strconv.Itoa(v.MinYear), strconv.Itoa(v.MaxYear), strconv.Itoa(v.Limit), v.DSL}}
}

// NewQueryCmd creates the query command, which prints the DSL without
// sending it.
func NewQueryCmd() *cobra.Command {
	opts := &exportOptions{}

	cmd := &cobra.Command{
		Use:   "query",
		Short: "Print the Dimensions DSL query an export would send",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			cfg := *cliCtx.Config
			if err := opts.apply(&cfg); err != nil {
				return err
			}
			q := patentQuery(&cfg).WithDefaults()
			if err := q.Validate(); err != nil {
				return err
			}
			return PrintResult(cmd, queryView{PatentQuery: q, DSL: client.BuildPatentDSL(q)})
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.gridID, "grid", "", "GRID id of the organization (default: query.grid_id)")
	f.IntVar(&opts.minYear, "from", 0, "first publication year (default: query.min_year)")
	f.IntVar(&opts.maxYear, "to", 0, "last publication year (default: query.max_year)")
	f.IntVar(&opts.limit, "limit", 0, "maximum number of patents (1-1000)")
	return cmd
}

//Personal.AI order the ending
