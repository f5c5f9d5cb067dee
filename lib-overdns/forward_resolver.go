package overdns

import (
	"fmt"
	"net"
	"time"

	"github.com/miekg/dns"
)

// ForwardResolver is the pipeline stage that relays queries to the
// configured upstream resolver over UDP.
type ForwardResolver struct {
	client *dns.Client

	Upstream *net.UDPAddr
	Metrics  *Metrics
}

// NewForwardResolver is constructor of ForwardResolver.
func NewForwardResolver(upstream *net.UDPAddr, timeout time.Duration, metrics *Metrics) ForwardResolver {
	return ForwardResolver{
		client: &dns.Client{
			Timeout: timeout,
		},
		Upstream: upstream,
		Metrics:  metrics,
	}
}

func (fr ForwardResolver) String() string {
	return fmt.Sprintf("ForwardResolver[%s]", fr.Upstream)
}

// exchange sends the query, with one retransmission on timeout.
func (fr ForwardResolver) exchange(msg *dns.Msg) (*dns.Msg, time.Duration, error) {
	in, rtt, err := fr.client.Exchange(msg, fr.Upstream.String())
	if ne, ok := err.(net.Error); ok && ne.Timeout() {
		in, rtt, err = fr.client.Exchange(msg, fr.Upstream.String())
	}
	return in, rtt, err
}

func (fr ForwardResolver) Resolve(w ResponseWriter, r Request) error {
	if !r.RecursionDesired {
		return nil
	}

	msg := &dns.Msg{
		MsgHdr: dns.MsgHdr{
			Id:               dns.Id(),
			RecursionDesired: true,
		},
		Question: []dns.Question{
			{Name: r.Name, Qtype: r.Qtype, Qclass: r.Qclass},
		},
	}

	in, rtt, err := fr.exchange(msg)
	if err != nil {
		return NewError(TypeUpstreamFailure, err, "upstream exchange failed: %s", fr.Upstream)
	}

	fr.Metrics.UpstreamTime(rtt)

	if len(in.Answer) == 0 {
		// relay upstream's verdict, e.g. NXDOMAIN
		w.SetNoAuthoritative()
		w.SetRcode(in.Rcode)
		return nil
	}

	for _, answer := range in.Answer {
		record, err := NewRecordFromRR(answer)
		if err != nil {
			continue
		}
		w.SetNoAuthoritative()
		if err := w.Add(record); err != nil {
			return err
		}
	}

	return nil
}

func (fr ForwardResolver) RecursionAvailable() bool {
	return true
}
