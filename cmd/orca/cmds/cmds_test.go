package cmds

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-go-golems/orca/pkg/classify"
	"github.com/go-go-golems/orca/pkg/config"
	"github.com/go-go-golems/orca/pkg/console"
	"github.com/go-go-golems/orca/pkg/protocol"
	"github.com/go-go-golems/orca/pkg/transport/sse"
	"github.com/go-go-golems/orca/pkg/transport/ws"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

func newRoot(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	root := &cobra.Command{Use: "orca"}
	AddRootFlags(root)
	require.NoError(t, root.PersistentFlags().Parse(args))
	return root
}

func TestGetRootOptions_Defaults(t *testing.T) {
	root := newRoot(t, "--config", filepath.Join(t.TempDir(), "missing.yaml"))
	_, err := getRootOptions(root)
	require.Error(t, err, "an explicit config path must exist")

	root = newRoot(t)
	opts, err := getRootOptions(root)
	require.NoError(t, err)
	require.Equal(t, config.TransportSSE, opts.Transport)
	require.Zero(t, opts.IdleTimeout)
}

func TestGetRootOptions_FlagsOverrideConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "orca.yaml")
	require.NoError(t, os.WriteFile(path, []byte("base_url: http://cfg:1\ntransport: ws\nidle_timeout: 1m\n"), 0o644))

	opts, err := getRootOptions(newRoot(t, "--config", path))
	require.NoError(t, err)
	require.Equal(t, "http://cfg:1", opts.BaseURL)
	require.Equal(t, config.TransportWS, opts.Transport)
	require.Equal(t, time.Minute, opts.IdleTimeout)

	opts, err = getRootOptions(newRoot(t, "--config", path, "--base-url", "http://flag:2", "--transport", "sse", "--idle-timeout", "5s"))
	require.NoError(t, err)
	require.Equal(t, "http://flag:2", opts.BaseURL)
	require.Equal(t, config.TransportSSE, opts.Transport)
	require.Equal(t, 5*time.Second, opts.IdleTimeout)
}

func TestNewTransport(t *testing.T) {
	tr, err := newTransport(rootOptions{BaseURL: "http://localhost:8000", Transport: config.TransportSSE})
	require.NoError(t, err)
	require.IsType(t, &sse.Transport{}, tr)

	tr, err = newTransport(rootOptions{BaseURL: "http://localhost:8000", Transport: config.TransportWS, Path: "/jobs"})
	require.NoError(t, err)
	require.Equal(t, "ws://localhost:8000/jobs/ws", tr.(*ws.Transport).URL(nil))

	_, err = newTransport(rootOptions{BaseURL: "http://localhost:8000", Transport: "grpc"})
	require.Error(t, err)
}

func TestSetParam(t *testing.T) {
	base := protocol.DriveParams("mnt", "all")
	got := setParam(base, "supplier", "KTC")
	require.Equal(t, protocol.DriveParams("mnt", "KTC"), got)
	require.Equal(t, "all", base.Get("supplier"))

	got = setParam(got, "site", "LGEKR")
	require.Equal(t, "product=mnt&supplier=KTC&site=LGEKR", got.Encode())
}

func TestClassifyLines(t *testing.T) {
	cl := classify.New(classify.DefaultMarkers())
	in := strings.NewReader("DB 저장 완료\n엑셀 다운로드 실패\n>>> 법인 전환 <<<\n파일 다운로드 대기 중\n")

	var out bytes.Buffer
	require.NoError(t, classifyLines(context.Background(), cl, in, &out, "pretty"))
	require.Equal(t,
		"success   DB 저장 완료\n"+
			"error     엑셀 다운로드 실패\n"+
			"highlight >>> 법인 전환 <<<\n"+
			"info      파일 다운로드 대기 중\n",
		out.String())

	out.Reset()
	require.NoError(t, classifyLines(context.Background(), cl, strings.NewReader("성공\n"), &out, "ndjson"))
	require.JSONEq(t, `{"category":"success","message":"성공"}`, out.String())
}

func TestExitCode(t *testing.T) {
	require.Equal(t, 0, ExitCode(nil))
	require.Equal(t, ExitJobError, ExitCode(&console.JobError{Message: "드라이버 실행 실패"}))
	require.Equal(t, ExitTransport, ExitCode(&console.TransportError{Op: "read", Err: console.ErrStreamEnded}))
	require.Equal(t, ExitStopped, ExitCode(console.ErrStopped))
	require.Equal(t, ExitFailure, ExitCode(errors.Wrap(context.DeadlineExceeded, "drive")))
}
