package overdns_test

import (
	"net"
	"testing"

	"github.com/miekg/dns"

	overdns "github.com/overdns/overdns/lib-overdns"
)

func TestAlternateResolver(t *testing.T) {
	first := &CountingResolver{Records: []overdns.Record{
		overdns.AddressRecord{Name: "first.example.com.", TTL: 10, Address: net.ParseIP("127.0.0.1")},
	}}
	second := &CountingResolver{Records: []overdns.Record{
		overdns.AddressRecord{Name: "first.example.com.", TTL: 10, Address: net.ParseIP("127.0.0.9")},
		overdns.AddressRecord{Name: "second.example.com.", TTL: 10, Address: net.ParseIP("127.0.0.2")},
	}}

	resolver := overdns.AlternateResolver{first, second}

	AssertResolve(t, resolver, overdns.NewRequest("first.example.com.", dns.TypeA, true), false, "first.example.com. 10 IN A 127.0.0.1")

	if second.Count != 0 {
		t.Errorf("later stage must not run after the first answer: %d calls", second.Count)
	}

	AssertResolve(t, resolver, overdns.NewRequest("second.example.com.", dns.TypeA, true), false, "second.example.com. 10 IN A 127.0.0.2")

	if first.Count != 2 {
		t.Errorf("unexpected first stage call count: %d", first.Count)
	}
	if second.Count != 1 {
		t.Errorf("unexpected second stage call count: %d", second.Count)
	}
}

func TestAlternateResolver_error(t *testing.T) {
	second := &CountingResolver{}
	resolver := overdns.AlternateResolver{DummyResolver{true, false}, second}

	w := NewDummyResponseWriter()
	if err := resolver.Resolve(w, overdns.NewRequest("example.com.", dns.TypeA, true)); err == nil {
		t.Errorf("expected error but not occurred")
	}

	if second.Count != 0 {
		t.Errorf("later stage must not run after an error: %d calls", second.Count)
	}
}

func TestAlternateResolver_RecursionAvailable(t *testing.T) {
	CheckRecursionAvailable(t, func(rs []overdns.Resolver) overdns.Resolver {
		return overdns.AlternateResolver(rs)
	})
}
