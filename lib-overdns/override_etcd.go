package overdns

import (
	"context"
	"fmt"
	"strings"
	"time"

	clientv3 "go.etcd.io/etcd/client/v3"
)

// EtcdOverrides is the OverrideSource backed by etcd.
//
// Overrides live under one key per domain, value formatted "TYPE value":
//
//	/overdns/example.com = "A 127.0.0.2"
type EtcdOverrides struct {
	client  *clientv3.Client
	prefix  string
	timeout time.Duration
}

// NewEtcdOverrides is constructor of EtcdOverrides.
func NewEtcdOverrides(endpoints []string, prefix string, timeout time.Duration) (*EtcdOverrides, error) {
	client, err := clientv3.New(clientv3.Config{
		Endpoints:   endpoints,
		DialTimeout: timeout,
	})
	if err != nil {
		return nil, NewError(TypeStoreUnavailable, err, "failed to connect etcd")
	}

	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}

	return &EtcdOverrides{client: client, prefix: prefix, timeout: timeout}, nil
}

func (eo *EtcdOverrides) String() string {
	return fmt.Sprintf("EtcdOverrides[%s]", eo.prefix)
}

func (eo *EtcdOverrides) Lookup(domain Domain) (Record, error) {
	ctx, cancel := context.WithTimeout(context.Background(), eo.timeout)
	defer cancel()

	resp, err := eo.client.Get(ctx, eo.prefix+domain.Unqualified())
	if err != nil {
		return nil, NewError(TypeStoreUnavailable, err, "override query failed")
	}
	if len(resp.Kvs) == 0 {
		return nil, nil
	}

	fields := strings.SplitN(strings.TrimSpace(string(resp.Kvs[0].Value)), " ", 2)
	if len(fields) != 2 {
		return nil, NewError(TypeStoreUnavailable, nil, "broken override value for %s", domain)
	}

	record, err := NewRecord(domain, QtypeFromString(fields[0]), OverrideTTL, fields[1])
	if err != nil {
		return nil, NewError(TypeStoreUnavailable, err, "broken override value for %s", domain)
	}

	return record, nil
}

func (eo *EtcdOverrides) Close() error {
	return eo.client.Close()
}
