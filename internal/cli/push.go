package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"FightSync/internal/snapshot"
	"FightSync/internal/utils/httpclient"

	"github.com/spf13/cobra"
)

const ingestPath = "/api/internal/ingest"

// PushResult push 命令的输出（即入库接口的响应）
type PushResult struct {
	StatusCode int             `json:"statusCode"`
	Body       json.RawMessage `json:"body"`
}

// NewPushCommand 把快照文件 POST 到入库接口，用于重放爬虫落盘的快照
func NewPushCommand(rootOpts *RootOptions) *cobra.Command {
	var skipValidate bool
	cmd := &cobra.Command{
		Use:           "push <snapshot.json>",
		Short:         "POST a snapshot file to the ingest endpoint",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPush(cmd.Context(), rootOpts, args[0], skipValidate, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}
	cmd.Flags().BoolVar(&skipValidate, "no-validate", false, "skip local validation before sending")
	return cmd
}

func runPush(ctx context.Context, opts *RootOptions, path string, skipValidate bool, w, errW io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	logger := newLogger(opts, errW)
	if opts.Secret == "" {
		return fmt.Errorf("缺少鉴权密钥：请设置 --secret 或 INGEST_API_SECRET")
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("读取快照文件失败: %w", err)
	}
	if !skipValidate {
		snap, err := snapshot.Decode(bytes.NewReader(raw))
		if err != nil {
			return err
		}
		if errs := snapshot.Validate(snap); len(errs) > 0 {
			for _, fe := range errs {
				fmt.Fprintln(errW, fe.String())
			}
			return fmt.Errorf("%w: %d error(s)", ErrInvalidSnapshot, len(errs))
		}
	}

	url := strings.TrimRight(opts.Server, "/") + ingestPath
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+opts.Secret)

	client := httpclient.NewHTTPClient(httpclient.Options{Timeout: opts.Timeout}, logger)
	logger.WithField("url", url).Debugf("发送快照 %d 字节", len(raw))
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("请求入库接口失败: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("读取响应失败: %w", err)
	}

	if opts.Format == "json" {
		res := PushResult{StatusCode: resp.StatusCode, Body: body}
		if !json.Valid(body) {
			res.Body, _ = json.Marshal(string(body))
		}
		if err := json.NewEncoder(w).Encode(res); err != nil {
			return err
		}
	} else {
		fmt.Fprintf(w, "%d %s\n", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("入库接口返回 %d", resp.StatusCode)
	}
	return nil
}
