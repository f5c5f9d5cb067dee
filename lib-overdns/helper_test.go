package overdns_test

import (
	"net"
	"sort"
	"strings"
	"testing"

	"github.com/miekg/dns"

	overdns "github.com/overdns/overdns/lib-overdns"
)

func FindEmptyPort() int {
	l, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.ParseIP("127.0.0.1"), Port: 0})
	if err != nil {
		panic(err)
	}
	defer l.Close()

	return l.LocalAddr().(*net.UDPAddr).Port
}

func AssertResolve(t testing.TB, resolver overdns.Resolver, request overdns.Request, authoritative bool, responses ...string) {
	t.Helper()

	resp := NewDummyResponseWriter()
	if err := resolver.Resolve(resp, request); err != nil {
		t.Errorf("%s <- %s: failed to resolve: %v", resolver, request, err.Error())
		return
	}

	if resp.Authoritative != authoritative {
		t.Errorf("%s <- %s: unexpected authoritive of response: expected %v but got %v", resolver, request, authoritative, resp.Authoritative)
	}

	if len(resp.Records) != len(responses) {
		t.Errorf("%s <- %s: unexpected resolve response: expected length %d but got %d", resolver, request, len(responses), len(resp.Records))
		return
	}

	sort.Slice(resp.Records, func(i, j int) bool {
		return strings.Compare(resp.Records[i].String(), resp.Records[j].String()) == 1
	})
	sort.Slice(responses, func(i, j int) bool {
		return strings.Compare(responses[i], responses[j]) == 1
	})

	for i := range responses {
		if resp.Records[i].String() != responses[i] {
			t.Errorf("%s <- %s: unexpected resolve response:\nexpected %#v\nbut got  %#v", resolver, request, responses[i], resp.Records[i].String())
		}
	}
}

func AssertExchange(t testing.TB, addr *net.UDPAddr, questions []dns.Question, rcode int, responses ...string) {
	t.Helper()

	msg := &dns.Msg{
		MsgHdr: dns.MsgHdr{
			Id:               dns.Id(),
			Opcode:           dns.OpcodeQuery,
			RecursionDesired: true,
		},
		Question: questions,
	}

	in, err := dns.Exchange(msg, addr.String())
	if err != nil {
		t.Errorf("failed to exchange: %s", err)
		return
	}

	if in.Id != msg.Id {
		t.Errorf("unexpected transaction id: expected %d but got %d", msg.Id, in.Id)
	}

	if in.Rcode != rcode {
		t.Errorf("unexpected rcode: expected %s but got %s", dns.RcodeToString[rcode], dns.RcodeToString[in.Rcode])
	}

	if len(in.Answer) != len(responses) {
		t.Errorf("unexpected answer length: expected %d but got %d: %s", len(responses), len(in.Answer), in.Answer)
		return
	}

	for i, answer := range in.Answer {
		if answer.String() != responses[i] {
			t.Errorf("unexpected answer:\nexpected %#v\nbut got  %#v", responses[i], answer.String())
		}
	}
}

func CheckRecursionAvailable(t testing.TB, makeResolver func([]overdns.Resolver) overdns.Resolver) {
	t.Helper()

	recursionResolver := DummyResolver{false, true}
	nonRecursionResolver := DummyResolver{false, false}

	resolver := makeResolver([]overdns.Resolver{nonRecursionResolver, recursionResolver, nonRecursionResolver})
	if resolver.RecursionAvailable() != true {
		t.Fatalf("unexpected recursion available: %v", resolver.RecursionAvailable())
	}

	resolver = makeResolver([]overdns.Resolver{nonRecursionResolver, nonRecursionResolver})
	if resolver.RecursionAvailable() != false {
		t.Fatalf("unexpected recursion available: %v", resolver.RecursionAvailable())
	}
}
