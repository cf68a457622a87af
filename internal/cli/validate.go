package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"FightSync/internal/snapshot"

	"github.com/spf13/cobra"
)

// ErrInvalidSnapshot 快照未通过校验
var ErrInvalidSnapshot = errors.New("snapshot failed validation")

// ValidationResult validate 命令的输出
type ValidationResult struct {
	Valid    bool                  `json:"valid"`
	Events   int                   `json:"events"`
	Fighters int                   `json:"fighters"`
	Fights   int                   `json:"fights"`
	Errors   []snapshot.FieldError `json:"errors,omitempty"`
}

// NewValidateCommand 本地校验快照文件，不访问服务
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "validate <snapshot.json>",
		Short:         "Validate a snapshot file locally",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd.OutOrStdout())
		},
	}
}

func runValidate(opts *RootOptions, path string, w io.Writer) error {
	snap, err := loadSnapshot(path)
	if err != nil {
		return err
	}
	res := ValidationResult{
		Events:   len(snap.Events),
		Fighters: len(snap.Fighters),
		Fights:   len(snap.Fights),
		Errors:   snapshot.Validate(snap),
	}
	res.Valid = len(res.Errors) == 0

	if opts.Format == "json" {
		if err := json.NewEncoder(w).Encode(res); err != nil {
			return err
		}
	} else {
		if res.Valid {
			fmt.Fprintf(w, "OK: %d events, %d fighters, %d fights\n", res.Events, res.Fighters, res.Fights)
		}
		for _, fe := range res.Errors {
			fmt.Fprintln(w, fe.String())
		}
	}
	if !res.Valid {
		return fmt.Errorf("%w: %d error(s)", ErrInvalidSnapshot, len(res.Errors))
	}
	return nil
}

func loadSnapshot(path string) (*snapshot.Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("打开快照文件失败: %w", err)
	}
	defer f.Close()
	return snapshot.Decode(f)
}
