package domain

import (
	"errors"
	"strings"
)

// ResourceKind selects how turn damage to the party is absorbed.
type ResourceKind int

const (
	// ResourceUnspecified represents an invalid resource kind.
	ResourceUnspecified ResourceKind = iota
	// ResourceIndividual applies damage to each actor's personal record.
	ResourceIndividual
	// ResourceSharedPool applies damage to a party-wide hit-point pool.
	ResourceSharedPool
)

func (k ResourceKind) String() string {
	switch k {
	case ResourceIndividual:
		return "individual"
	case ResourceSharedPool:
		return "shared_pool"
	default:
		return "unspecified"
	}
}

var (
	// ErrInvalidResourceKind indicates a missing or unknown resource kind.
	ErrInvalidResourceKind = errors.New("resource kind is required")
	// ErrEmptyPoolID indicates a shared-pool resource without a pool id.
	ErrEmptyPoolID = errors.New("pool id is required for shared-pool waves")
)

// ResourceModel is the tagged variant carried on a wave: either
// individual actor hearts or a shared pool identified by PoolID.
type ResourceModel struct {
	Kind   ResourceKind
	PoolID string
}

// IndividualResource returns the per-actor resource model.
func IndividualResource() ResourceModel {
	return ResourceModel{Kind: ResourceIndividual}
}

// SharedPoolResource returns a pool-backed resource model.
func SharedPoolResource(poolID string) ResourceModel {
	return ResourceModel{Kind: ResourceSharedPool, PoolID: strings.TrimSpace(poolID)}
}

// Pooled reports whether the wave draws on a shared pool.
func (r ResourceModel) Pooled() bool {
	return r.Kind == ResourceSharedPool
}

// Validate checks the variant is well formed.
func (r ResourceModel) Validate() error {
	switch r.Kind {
	case ResourceIndividual:
		return nil
	case ResourceSharedPool:
		if strings.TrimSpace(r.PoolID) == "" {
			return ErrEmptyPoolID
		}
		return nil
	default:
		return ErrInvalidResourceKind
	}
}
