package overdns

import (
	"fmt"

	"github.com/miekg/dns"
)

// Request is a single question of a received query.
type Request struct {
	dns.Question

	RecursionDesired bool
}

// NewRequest is constructor of Request.
func NewRequest(name string, qtype uint16, recursionDesired bool) Request {
	return Request{dns.Question{Name: name, Qtype: qtype, Qclass: dns.ClassINET}, recursionDesired}
}

// QtypeString is getter of query type like "A" or "CNAME".
//
// Returns empty string if the query type is not supported by the proxy.
func (req Request) QtypeString() string {
	return QtypeToString(req.Qtype)
}

func (req Request) String() string {
	return fmt.Sprintf("%s %s", req.Name, req.QtypeString())
}

// ResponseWriter is the interface for receiving resolved records.
type ResponseWriter interface {
	Add(Record) error
	IsAuthoritative() bool
	SetNoAuthoritative()

	// Rcode is the DNS status code of the response under construction.
	Rcode() int
	SetRcode(int)
}

// ResponseCallback is a ResponseWriter that calls a function for each record.
type ResponseCallback struct {
	Callback      func(Record) error
	Authoritative bool
	rcode         int
}

// NewResponseCallback is constructor of ResponseCallback.
func NewResponseCallback(callback func(Record) error) *ResponseCallback {
	return &ResponseCallback{Callback: callback, Authoritative: true, rcode: dns.RcodeSuccess}
}

func (rc *ResponseCallback) Add(r Record) error {
	return rc.Callback(r)
}

func (rc *ResponseCallback) IsAuthoritative() bool {
	return rc.Authoritative
}

func (rc *ResponseCallback) SetNoAuthoritative() {
	rc.Authoritative = false
}

func (rc *ResponseCallback) Rcode() int {
	return rc.rcode
}

func (rc *ResponseCallback) SetRcode(rcode int) {
	rc.rcode = rcode
}

// ResponseWriterHook wraps another ResponseWriter and calls OnAdd for
// every record that passes through.
type ResponseWriterHook struct {
	Writer ResponseWriter
	OnAdd  func(Record)
}

func (h ResponseWriterHook) Add(r Record) error {
	if err := h.Writer.Add(r); err != nil {
		return err
	}
	h.OnAdd(r)
	return nil
}

func (h ResponseWriterHook) IsAuthoritative() bool {
	return h.Writer.IsAuthoritative()
}

func (h ResponseWriterHook) SetNoAuthoritative() {
	h.Writer.SetNoAuthoritative()
}

func (h ResponseWriterHook) Rcode() int {
	return h.Writer.Rcode()
}

func (h ResponseWriterHook) SetRcode(rcode int) {
	h.Writer.SetRcode(rcode)
}

// MessageBuilder is a ResponseWriter that builds the reply message.
//
// The reply reuses the transaction id and the question section of the
// received message.
type MessageBuilder struct {
	request            *dns.Msg
	records            []dns.RR
	authoritative      bool
	recursionAvailable bool
	rcode              int
}

// NewMessageBuilder is constructor of MessageBuilder.
func NewMessageBuilder(request *dns.Msg, recursionAvailable bool) *MessageBuilder {
	return &MessageBuilder{
		request:            request,
		records:            make([]dns.RR, 0, 4),
		authoritative:      true,
		recursionAvailable: recursionAvailable,
		rcode:              dns.RcodeSuccess,
	}
}

func (mb *MessageBuilder) Add(r Record) error {
	rr, err := r.ToRR()
	if err != nil {
		return err
	}

	mb.records = append(mb.records, rr)
	return nil
}

func (mb *MessageBuilder) IsAuthoritative() bool {
	return mb.authoritative
}

func (mb *MessageBuilder) SetNoAuthoritative() {
	mb.authoritative = false
}

func (mb *MessageBuilder) Rcode() int {
	return mb.rcode
}

func (mb *MessageBuilder) SetRcode(rcode int) {
	mb.rcode = rcode
}

// IsAnswered is true if at least one record was added.
func (mb *MessageBuilder) IsAnswered() bool {
	return len(mb.records) > 0
}

// Build is builder of the reply message.
func (mb *MessageBuilder) Build() *dns.Msg {
	msg := new(dns.Msg)
	msg.SetReply(mb.request)

	msg.Answer = dns.Dedup(mb.records, nil)

	msg.Authoritative = mb.authoritative
	msg.RecursionAvailable = mb.recursionAvailable
	msg.Rcode = mb.rcode

	return msg
}
