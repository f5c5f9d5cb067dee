package overdns

import (
	"context"
	"fmt"
	"net"
	"net/http"

	"github.com/miekg/dns"
)

// Server is the overdns server instance.
type Server struct {
	Metrics  *Metrics
	Resolver Resolver // The whole resolution pipeline, cache outermost.
}

// HTTPHandler is getter of http.Handler.
func (s *Server) HTTPHandler() (http.Handler, error) {
	mux := http.NewServeMux()

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, `<h1>overdns</h1><a href="/metrics">metrics</a>`)
	})

	metrics, err := s.Metrics.HTTPHandler()
	if err != nil {
		return nil, err
	}

	mux.Handle("/metrics", metrics)

	return mux, nil
}

// DNSHandler is getter of dns.Handler of package github.com/miekg/dns
func (s *Server) DNSHandler() dns.Handler {
	return NewHandler(s.Resolver, s.Metrics)
}

// ListenAndServe is starter of server.
//
// It serves until one of the listeners fails or the context is done.
func (s *Server) ListenAndServe(ctx context.Context, apiAddress *net.TCPAddr, dnsAddress *net.UDPAddr, dnsProto string) error {
	httpHandler, err := s.HTTPHandler()
	if err != nil {
		return err
	}
	httpServer := http.Server{
		Addr:    apiAddress.String(),
		Handler: httpHandler,
	}

	dnsServer := dns.Server{
		Addr:      dnsAddress.String(),
		Net:       dnsProto,
		ReusePort: true,
		Handler:   s.DNSHandler(),
	}

	errch := make(chan error, 2)

	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errch <- err
		}
	}()
	go func() {
		if err := dnsServer.ListenAndServe(); err != nil {
			errch <- err
		}
	}()

	select {
	case err = <-errch:
	case <-ctx.Done():
		err = nil
	}

	dnsServer.ShutdownContext(ctx)
	httpServer.Shutdown(ctx)

	return err
}
