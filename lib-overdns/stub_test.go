package overdns_test

import (
	"context"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/miekg/dns"

	overdns "github.com/overdns/overdns/lib-overdns"
)

type DummyResolver struct {
	Error     bool
	Recursion bool
}

func (dr DummyResolver) Resolve(w overdns.ResponseWriter, r overdns.Request) error {
	if dr.Error {
		return fmt.Errorf("test error")
	}
	return nil
}

func (dr DummyResolver) RecursionAvailable() bool {
	return dr.Recursion
}

func (dr DummyResolver) String() string {
	return "DummyResolver"
}

// CountingResolver answers from a fixed record list and counts how often
// it was consulted.
type CountingResolver struct {
	Records []overdns.Record
	Count   int
}

func (cr *CountingResolver) Resolve(w overdns.ResponseWriter, r overdns.Request) error {
	cr.Count++

	for _, record := range cr.Records {
		if record.GetQtype() == r.Qtype && record.GetName() == overdns.Domain(r.Name).Normalized() {
			w.SetNoAuthoritative()
			if err := w.Add(record); err != nil {
				return err
			}
		}
	}
	return nil
}

func (cr *CountingResolver) RecursionAvailable() bool {
	return true
}

func (cr *CountingResolver) String() string {
	return "CountingResolver"
}

// CountingSource is an OverrideSource wrapper for call-count assertions,
// with a switch to simulate an unreachable store.
type CountingSource struct {
	Inner   overdns.OverrideSource
	Broken  bool
	Lookups int
}

func (cs *CountingSource) Lookup(domain overdns.Domain) (overdns.Record, error) {
	cs.Lookups++
	if cs.Broken {
		return nil, fmt.Errorf("store unreachable")
	}
	return cs.Inner.Lookup(domain)
}

func (cs *CountingSource) String() string {
	return "CountingSource"
}

func (cs *CountingSource) Close() error {
	return nil
}

type DummyResponseWriter struct {
	Records       []overdns.Record
	Authoritative bool
	rcode         int
}

func NewDummyResponseWriter() *DummyResponseWriter {
	return &DummyResponseWriter{
		Records:       make([]overdns.Record, 0, 10),
		Authoritative: true,
		rcode:         dns.RcodeSuccess,
	}
}

func (rw *DummyResponseWriter) Add(r overdns.Record) error {
	rw.Records = append(rw.Records, r)
	return nil
}

func (rw *DummyResponseWriter) IsAuthoritative() bool {
	return rw.Authoritative
}

func (rw *DummyResponseWriter) SetNoAuthoritative() {
	rw.Authoritative = false
}

func (rw *DummyResponseWriter) Rcode() int {
	return rw.rcode
}

func (rw *DummyResponseWriter) SetRcode(rcode int) {
	rw.rcode = rcode
}

func StartDummyDNSServer(ctx context.Context, t testing.TB, resolver overdns.Resolver) *net.UDPAddr {
	t.Helper()

	addr := &net.UDPAddr{IP: net.ParseIP("127.0.0.1"), Port: FindEmptyPort()}

	server := dns.Server{
		Addr:      addr.String(),
		Net:       "udp",
		ReusePort: true,
		Handler:   overdns.NewHandler(resolver, overdns.NewMetrics("overdns")),
	}

	go func() {
		err := server.ListenAndServe()
		if ctx.Err() == nil {
			t.Errorf("failed to serve dummy DNS: %s", err)
		}
	}()

	go func() {
		<-ctx.Done()
		server.Shutdown()
	}()

	time.Sleep(10 * time.Millisecond) // Wait for start DNS server

	return addr
}
