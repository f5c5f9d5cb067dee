package overdns

import (
	"github.com/miekg/dns"

	"github.com/overdns/overdns/lib-overdns/logger"
)

// Handler is the implements of dns.Handler of package github.com/miekg/dns.
//
// Queries with an unsupported opcode or record type are answered with a
// format error before any store is consulted. A query that no stage could
// answer gets a server failure, which keeps it distinguishable from an
// upstream-relayed NXDOMAIN.
type Handler struct {
	Resolver           Resolver
	Metrics            *Metrics
	RecursionAvailable bool
}

// NewHandler is constructor of Handler.
func NewHandler(resolver Resolver, metrics *Metrics) Handler {
	return Handler{
		Resolver:           resolver,
		Metrics:            metrics,
		RecursionAvailable: resolver.RecursionAvailable(),
	}
}

// ServeDNS is the method for resolve record.
func (h Handler) ServeDNS(w dns.ResponseWriter, r *dns.Msg) {
	end := h.Metrics.Start(r)

	resp := NewMessageBuilder(r, h.RecursionAvailable)

	defer func() {
		msg := resp.Build()
		w.WriteMsg(msg)
		end(msg)
	}()

	if r.Opcode != dns.OpcodeQuery {
		err := NewError(TypeMalformedMessage, nil, "unsupported opcode: %s", dns.OpcodeToString[r.Opcode])
		logger.Debug("rejected message", logger.Fields{"error": err})
		resp.SetRcode(dns.RcodeFormatError)
		return
	}

	for _, q := range r.Question {
		req := Request{q, r.RecursionDesired}

		if req.QtypeString() == "" {
			err := NewError(TypeMalformedMessage, nil, "unsupported query type: %s", dns.TypeToString[q.Qtype])
			logger.Debug("rejected question", logger.Fields{"domain": q.Name, "error": err})
			resp.SetRcode(dns.RcodeFormatError)
			continue
		}

		if err := h.Resolver.Resolve(resp, req); err != nil {
			logger.Error("failed to resolve", logger.Fields{"request": req.String(), "error": err})
			h.Metrics.Error(req, err)
			resp.SetRcode(dns.RcodeServerFailure)
		}
	}

	if !resp.IsAnswered() && resp.Rcode() == dns.RcodeSuccess {
		resp.SetRcode(dns.RcodeServerFailure)
	}
}
