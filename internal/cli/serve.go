package cli

import (
	"context"
	"fmt"
	"io"
	"net"

	"github.com/rileyhilliard/trainwatch/internal/config"
	"github.com/rileyhilliard/trainwatch/internal/errors"
	"github.com/rileyhilliard/trainwatch/internal/logger"
	"github.com/rileyhilliard/trainwatch/internal/relay"
	"github.com/rileyhilliard/trainwatch/internal/ui"
)

// serveCommand runs the relay until ctx is cancelled.
func serveCommand(ctx context.Context, cfg *config.Config, log logger.Logger, w io.Writer) error {
	rc := relayConfig(cfg)

	ln, err := net.Listen("tcp", rc.Addr)
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrServe,
			fmt.Sprintf("Cannot listen on %s", rc.Addr),
			"Pick another address with --addr, or stop whatever is using the port")
	}

	return serveOn(ctx, relay.New(rc, log), ln, w)
}

func serveOn(ctx context.Context, srv *relay.Server, ln net.Listener, w io.Writer) error {
	base := "http://" + displayAddr(ln.Addr())
	ui.PrintHeader(w, ui.HeaderInfo{
		Version: formatVersion(version),
		Tagline: "metrics relay",
		Details: []string{
			"dashboard  " + base + "/",
			"webhook    POST " + base + "/webhook",
			"feed       ws://" + displayAddr(ln.Addr()) + "/ws/metrics",
		},
	})

	if err := srv.Serve(ctx, ln); err != nil {
		return errors.WrapWithCode(err, errors.ErrServe,
			"The relay stopped unexpectedly",
			"Run with --verbose for details")
	}
	fmt.Fprintln(w, ui.MutedStyle().Render("relay stopped"))
	return nil
}

// displayAddr turns a wildcard listen address into something clickable.
func displayAddr(addr net.Addr) string {
	tcp, ok := addr.(*net.TCPAddr)
	if !ok || !tcp.IP.IsUnspecified() {
		return addr.String()
	}
	return fmt.Sprintf("localhost:%d", tcp.Port)
}
