package preflight

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"golang.org/x/sys/unix"

	"ward/internal/blocklist"
)

// CheckCatalog fetches the remote catalog once and reports how many artists
// it recognizes.
func CheckCatalog(ctx context.Context, rawURL string) Result {
	const name = "Catalog"

	target := strings.TrimSpace(rawURL)
	if target == "" {
		return Result{Name: name, Detail: "missing url"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(checkCtx, http.MethodGet, target, nil)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("fetch failed (%v)", err)}
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return Result{Name: name, Detail: summarizeNetError(err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Result{Name: name, Detail: fmt.Sprintf("fetch failed (%d)", resp.StatusCode)}
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("read failed (%v)", err)}
	}
	shape := blocklist.RemoteShape(body)
	if shape == "" {
		return Result{Name: name, Detail: "unrecognized payload"}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%d artists (%s)", len(blocklist.ParseRemote(body)), shape)}
}

// CheckNtfyTopic validates that the topic is an absolute http(s) URL.
func CheckNtfyTopic(topic string) Result {
	const name = "ntfy"
	u, err := url.Parse(strings.TrimSpace(topic))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: not an http(s) topic url)", topic)}
	}
	return Result{Name: name, Passed: true, Detail: u.Host + u.Path}
}

// CheckNATS attempts a short-lived connection to the event server.
func CheckNATS(serverURL string) Result {
	const name = "NATS"
	conn, err := nats.Connect(serverURL, nats.Name("ward-preflight"), nats.Timeout(3*time.Second), nats.NoReconnect())
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("connect failed (%v)", err)}
	}
	defer conn.Close()
	return Result{Name: name, Passed: true, Detail: conn.ConnectedUrl()}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

func summarizeNetError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "fetch timed out"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "fetch timed out (unreachable)"
	}
	return fmt.Sprintf("fetch failed (%v)", err)
}
