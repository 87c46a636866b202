package resolver

import (
	"context"
	"log"
)

// Owner identifies the flowerpot (and its garden) a sensor reading
// belongs to. The pot id is the broadcast topic for actuation.
type Owner struct {
	FlowerpotID int64
	GardenID    int64
}

// LinkStore is the read-only view of the pot-sensor association table
// the resolver needs. The CRUD surface that writes it is external.
type LinkStore interface {
	OwnersBySensor(ctx context.Context, sensorID int64) ([]Owner, error)
}

// Resolver maps a sensor id to the set of pots hosting it. A sensor is
// typically linked to one pot, but the association is many-to-many, so
// the full owner set is returned.
type Resolver struct {
	links LinkStore
}

func New(links LinkStore) *Resolver {
	return &Resolver{links: links}
}

// Resolve returns every pot linked to sensorID. An empty set is not an
// error: the reading is still persisted upstream and actuation is
// simply skipped. Duplicate link rows collapse to one owner.
func (r *Resolver) Resolve(ctx context.Context, sensorID int64) ([]Owner, error) {
	owners, err := r.links.OwnersBySensor(ctx, sensorID)
	if err != nil {
		return nil, err
	}
	if len(owners) <= 1 {
		return owners, nil
	}

	seen := make(map[int64]struct{}, len(owners))
	out := owners[:0]
	for _, o := range owners {
		if _, dup := seen[o.FlowerpotID]; dup {
			log.Printf("resolver: duplicate link for sensor=%d pot=%d", sensorID, o.FlowerpotID)
			continue
		}
		seen[o.FlowerpotID] = struct{}{}
		out = append(out, o)
	}
	return out, nil
}
