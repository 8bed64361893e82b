package externalapi

import "strings"

// BlockAttachOperationStatus is a set of flags describing the outcome of
// attaching a block to a chain.
type BlockAttachOperationStatus uint8

// StatusNone is returned when attaching changed nothing, as happens on the
// re-delivery of an already linked block.
const StatusNone BlockAttachOperationStatus = 0

// Attach status flags. StatusNotLinked never appears together with any of
// the others.
const (
	StatusNotLinked BlockAttachOperationStatus = 1 << iota
	StatusLinked
	StatusMultipleLinked
	StatusBestChainFound
)

// Has returns whether every flag of flags is set in s.
func (s BlockAttachOperationStatus) Has(flags BlockAttachOperationStatus) bool {
	return s&flags == flags
}

func (s BlockAttachOperationStatus) String() string {
	if s == StatusNone {
		return "None"
	}
	var names []string
	if s.Has(StatusNotLinked) {
		names = append(names, "NotLinked")
	}
	if s.Has(StatusLinked) {
		names = append(names, "Linked")
	}
	if s.Has(StatusMultipleLinked) {
		names = append(names, "MultipleLinked")
	}
	if s.Has(StatusBestChainFound) {
		names = append(names, "BestChainFound")
	}
	return strings.Join(names, "|")
}

// MarshalText implements encoding.TextMarshaler
func (s BlockAttachOperationStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
