package overdns

import (
	"fmt"
)

// Resolver is the interface of one stage of the resolution pipeline.
type Resolver interface {
	Resolve(ResponseWriter, Request) error
	RecursionAvailable() bool
}

// AlternateResolver is an ordered list of stages.
//
// Stages run in order and the first stage that writes a record wins;
// later stages are never consulted for that request.
type AlternateResolver []Resolver

func (ar AlternateResolver) Resolve(resp ResponseWriter, req Request) error {
	resolved := false

	respWrap := ResponseWriterHook{
		Writer: resp,
		OnAdd: func(Record) {
			resolved = true
		},
	}

	for _, r := range ar {
		if err := r.Resolve(respWrap, req); err != nil {
			return err
		}

		if resolved {
			return nil
		}
	}
	return nil
}

func (ar AlternateResolver) RecursionAvailable() bool {
	for _, r := range ar {
		if r.RecursionAvailable() {
			return true
		}
	}
	return false
}

func (ar AlternateResolver) String() string {
	return fmt.Sprintf("AlternateResolver%s", []Resolver(ar))
}
