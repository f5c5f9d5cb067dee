package overdns

import (
	"fmt"
	"net"

	"github.com/miekg/dns"
)

var (
	ErrUnsupportedType = fmt.Errorf("unsupported record type")
)

// InvalidDomain is error for broken domain name.
type InvalidDomain string

func (d InvalidDomain) Error() string {
	return fmt.Sprintf("invalid domain: \"%s\"", string(d))
}

// InvalidAddress is error for value that is not an IPv4 address.
type InvalidAddress string

func (a InvalidAddress) Error() string {
	return fmt.Sprintf("invalid address: \"%s\"", string(a))
}

// Domain is fully qualified domain name.
type Domain string

func (d Domain) String() string {
	return dns.Fqdn(string(d))
}

// Normalized is getter of the FQDN formed Domain.
func (d Domain) Normalized() Domain {
	return Domain(d.String())
}

// Unqualified is getter of the domain without the trailing dot.
//
// The override table and the etcd tree are keyed by the unqualified name.
func (d Domain) Unqualified() string {
	s := d.String()
	return s[:len(s)-1]
}

func (d Domain) Validate() error {
	if len(string(d)) == 0 {
		return InvalidDomain(string(d))
	}
	if _, ok := dns.IsDomainName(string(d)); !ok {
		return InvalidDomain(string(d))
	}
	return nil
}

func (d *Domain) UnmarshalText(text []byte) error {
	*d = Domain(dns.Fqdn(string(text)))

	return d.Validate()
}

func (d Domain) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// QtypeToString is converter from query type to string like "A" or "CNAME".
func QtypeToString(qtype uint16) string {
	switch qtype {
	case dns.TypeA:
		return "A"
	case dns.TypeCNAME:
		return "CNAME"
	default:
		return ""
	}
}

// QtypeFromString is converter from string to query type.
//
// Returns dns.TypeNone if the string is not a supported type.
func QtypeFromString(qtype string) uint16 {
	switch qtype {
	case "A":
		return dns.TypeA
	case "CNAME":
		return dns.TypeCNAME
	default:
		return dns.TypeNone
	}
}

// Record is the interface of a single resolved answer.
type Record interface {
	fmt.Stringer

	GetQtype() uint16
	GetName() Domain
	GetTTL() uint32

	// GetValue is getter of the record data: an IPv4 literal for A,
	// a domain name for CNAME.
	GetValue() string

	WithTTL(uint32) Record
	ToRR() (dns.RR, error)
	Validate() error
}

// NewRecord is constructor of Record from separated type and value strings.
func NewRecord(name Domain, qtype uint16, ttl uint32, value string) (Record, error) {
	switch qtype {
	case dns.TypeA:
		ip := net.ParseIP(value)
		if ip == nil || ip.To4() == nil {
			return nil, InvalidAddress(value)
		}
		return AddressRecord{Name: name.Normalized(), TTL: ttl, Address: ip}, nil
	case dns.TypeCNAME:
		return CnameRecord{Name: name.Normalized(), TTL: ttl, Target: Domain(value).Normalized()}, nil
	default:
		return nil, ErrUnsupportedType
	}
}

// NewRecordFromRR is constructor of Record from dns.RR of package github.com/miekg/dns.
func NewRecordFromRR(rr dns.RR) (Record, error) {
	switch x := rr.(type) {
	case *dns.A:
		return AddressRecord{Name: Domain(x.Hdr.Name), TTL: x.Hdr.Ttl, Address: x.A}, nil
	case *dns.CNAME:
		return CnameRecord{Name: Domain(x.Hdr.Name), TTL: x.Hdr.Ttl, Target: Domain(x.Target)}, nil
	default:
		return nil, ErrUnsupportedType
	}
}

// AddressRecord is the Record of A.
type AddressRecord struct {
	Name    Domain
	TTL     uint32
	Address net.IP
}

func (r AddressRecord) String() string {
	return fmt.Sprintf("%s %d IN A %s", r.Name, r.TTL, r.Address)
}

func (r AddressRecord) GetName() Domain {
	return r.Name
}

func (r AddressRecord) GetQtype() uint16 {
	return dns.TypeA
}

func (r AddressRecord) GetTTL() uint32 {
	return r.TTL
}

func (r AddressRecord) GetValue() string {
	return r.Address.String()
}

func (r AddressRecord) WithTTL(ttl uint32) Record {
	r.TTL = ttl
	return r
}

func (r AddressRecord) ToRR() (dns.RR, error) {
	return dns.NewRR(r.String())
}

func (r AddressRecord) Validate() error {
	if err := r.Name.Validate(); err != nil {
		return err
	}
	if r.Address == nil || r.Address.To4() == nil {
		return InvalidAddress(fmt.Sprint(r.Address))
	}
	return nil
}

// CnameRecord is the Record of CNAME.
type CnameRecord struct {
	Name   Domain
	TTL    uint32
	Target Domain
}

func (r CnameRecord) String() string {
	return fmt.Sprintf("%s %d IN CNAME %s", r.Name, r.TTL, r.Target)
}

func (r CnameRecord) GetName() Domain {
	return r.Name
}

func (r CnameRecord) GetQtype() uint16 {
	return dns.TypeCNAME
}

func (r CnameRecord) GetTTL() uint32 {
	return r.TTL
}

func (r CnameRecord) GetValue() string {
	return r.Target.String()
}

func (r CnameRecord) WithTTL(ttl uint32) Record {
	r.TTL = ttl
	return r
}

func (r CnameRecord) ToRR() (dns.RR, error) {
	return dns.NewRR(r.String())
}

func (r CnameRecord) Validate() error {
	if err := r.Name.Validate(); err != nil {
		return err
	}
	return r.Target.Validate()
}
