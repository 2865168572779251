// Package source holds the tenant-facing routing records: sources
// (inbound endpoints), connections (filter+transform+destination rules)
// and the owners they bill against.
package source

import (
	"time"

	"github.com/ferryhook/relay/filter"
	"github.com/ferryhook/relay/plan"
	"github.com/ferryhook/relay/signature"
)

// Source is a tenant's inbound webhook endpoint
type Source struct {
	ID               string
	OwnerID          string
	Name             string
	Provider         string // provider tag: "stripe", "github", "custom", ...
	SigningSecret    string
	SigningAlgorithm signature.Algorithm
	Status           Status
	EventCount       int64
	LastEventAt      *time.Time
	CreatedAt        time.Time
}

// Ingestable reports whether the source may accept events.
// Paused and deleted sources answer exactly like missing ones upstream.
func (s *Source) Ingestable() bool {
	return s != nil && s.Status == Active
}

// Connection routes events from one source to one destination URL
type Connection struct {
	ID             string
	SourceID       string
	OwnerID        string
	Name           string
	DestinationURL string
	SigningSecret  string // per-connection outbound secret, distinct from the source's
	Filters        []filter.Rule
	Transform      *filter.Transform
	Status         Status
	DeliveryCount  int64
	FailureCount   int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Owner is the billing identity a source belongs to
type Owner struct {
	ID             string
	Plan           plan.Plan
	UsageThisMonth int64
}
