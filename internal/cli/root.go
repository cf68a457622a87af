// Package cli snapshotctl 命令行：本地校验爬虫快照、把快照文件重放到入库接口
package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// RootOptions 全局参数
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
	Server  string
	Secret  string
	Timeout time.Duration
}

// ValidFormats 允许的输出格式
var ValidFormats = []string{"text", "json"}

// NewRootCommand 创建 snapshotctl 根命令
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "snapshotctl",
		Short: "Validate and replay crawler snapshots",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			if opts.Secret == "" {
				opts.Secret = os.Getenv("INGEST_API_SECRET")
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Server, "server", "http://localhost:8080", "ingest service base URL")
	cmd.PersistentFlags().StringVar(&opts.Secret, "secret", "", "bearer secret (default $INGEST_API_SECRET)")
	cmd.PersistentFlags().DurationVar(&opts.Timeout, "timeout", 5*time.Minute, "request timeout")

	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewPushCommand(opts))
	return cmd
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

// newLogger 日志写 stderr，避免污染 json 输出
func newLogger(opts *RootOptions, w io.Writer) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(w)
	l.SetLevel(logrus.WarnLevel)
	if opts.Verbose {
		l.SetLevel(logrus.DebugLevel)
	}
	return l
}
