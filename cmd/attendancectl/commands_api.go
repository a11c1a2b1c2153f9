package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/spf13/pflag"
)

// apiCommand sends a raw request with the stored access token. An expired
// token is not refreshed here; run any typed command first to refresh it.
func (c *cli) apiCommand() *Command {
	var method, data string
	return &Command{
		Name:    "api",
		Summary: "Send an authenticated request to any API path",
		Usage:   "attendancectl api [-X METHOD] [-d JSON] /api/v1/PATH",
		Flags: func() *pflag.FlagSet {
			fs := pflag.NewFlagSet("api", pflag.ContinueOnError)
			fs.StringVarP(&method, "method", "X", http.MethodGet, "HTTP method")
			fs.StringVarP(&data, "data", "d", "", "JSON request body")
			return fs
		},
		Run: func(ctx context.Context, args []string) error {
			if len(args) != 1 || !strings.HasPrefix(args[0], "/") {
				return errors.New("expected one absolute API path")
			}
			a, err := c.client(ctx)
			if err != nil {
				return err
			}
			if !a.Sessions.IsAuthenticated() {
				return errors.New("not signed in")
			}

			var body io.Reader
			if data != "" {
				body = strings.NewReader(data)
			}
			req, err := http.NewRequestWithContext(ctx, strings.ToUpper(method), a.Config.GetBaseURL()+args[0], body)
			if err != nil {
				return err
			}
			req.Header.Set("Accept", "application/json")
			if body != nil {
				req.Header.Set("Content-Type", "application/json")
			}

			resp, err := a.HTTPClient(ctx).Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()
			if _, err := io.Copy(c.stdout, resp.Body); err != nil {
				return err
			}
			if resp.StatusCode >= http.StatusBadRequest {
				return fmt.Errorf("%s %s: %s", req.Method, args[0], resp.Status)
			}
			return nil
		},
	}
}
