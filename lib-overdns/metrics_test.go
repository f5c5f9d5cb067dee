package overdns_test

import (
	"io/ioutil"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/miekg/dns"

	overdns "github.com/overdns/overdns/lib-overdns"
)

func TestMetrics(t *testing.T) {
	metrics := overdns.NewMetrics("overdns")

	request := &dns.Msg{
		MsgHdr: dns.MsgHdr{Opcode: dns.OpcodeQuery},
		Question: []dns.Question{
			{Name: "example.com.", Qtype: dns.TypeA, Qclass: dns.ClassINET},
		},
	}

	end := metrics.Start(request)

	response := new(dns.Msg).SetReply(request)
	rr, err := dns.NewRR("example.com. 100 IN A 127.0.0.2")
	if err != nil {
		t.Fatalf("failed to make record: %s", err)
	}
	response.Answer = append(response.Answer, rr)
	end(response)

	metrics.Error(overdns.NewRequest("example.com.", dns.TypeA, true), nil)
	metrics.UpstreamTime(10 * time.Millisecond)

	handler, err := metrics.HTTPHandler()
	if err != nil {
		t.Fatalf("failed to make handler: %s", err)
	}

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest("GET", "/metrics", nil))

	body, err := ioutil.ReadAll(recorder.Result().Body)
	if err != nil {
		t.Fatalf("failed to read response: %s", err)
	}

	for _, want := range []string{
		`overdns_received_message_count{type="query"} 1`,
		`overdns_resolve_count{result="hit",type="A"} 1`,
		`overdns_resolve_error_count{type="A"} 1`,
		"overdns_resolve_duration_seconds_count 1",
		"overdns_upstream_duration_seconds_count 1",
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("missing metric %q in:\n%s", want, body)
		}
	}
}
