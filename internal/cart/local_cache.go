package cart

import (
	"sync"

	"github.com/google/uuid"
)

// LocalCache is a client-side holder of provisional cart quantities. Each
// optimistic change is stamped with a sequence number; the authoritative
// cart read that answers it replaces the local state wholesale. Answers to
// requests older than the newest applied one are dropped.
type LocalCache struct {
	mu         sync.Mutex
	issued     uint64
	applied    uint64
	quantities map[uuid.UUID]int
}

func NewLocalCache() *LocalCache {
	return &LocalCache{quantities: map[uuid.UUID]int{}}
}

// SetProvisional records an optimistic quantity and returns the sequence the
// matching server response must carry. quantity <= 0 removes the product.
func (c *LocalCache) SetProvisional(productID uuid.UUID, quantity int) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.setLocked(productID, quantity)
}

// AddProvisional bumps the local quantity by delta.
func (c *LocalCache) AddProvisional(productID uuid.UUID, delta int) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.setLocked(productID, c.quantities[productID]+delta)
}

func (c *LocalCache) setLocked(productID uuid.UUID, quantity int) uint64 {
	c.issued++
	if quantity <= 0 {
		delete(c.quantities, productID)
	} else {
		c.quantities[productID] = quantity
	}
	return c.issued
}

// Reconcile overwrites local state with the authoritative view for seq. It
// reports false and changes nothing when seq is older than the last applied
// response.
func (c *LocalCache) Reconcile(seq uint64, authoritative *View) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if seq < c.applied {
		return false
	}
	c.applied = seq
	if seq > c.issued {
		c.issued = seq
	}
	c.quantities = authoritative.Quantities()
	return true
}

func (c *LocalCache) QuantityOf(productID uuid.UUID) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.quantities[productID]
}

func (c *LocalCache) Contains(productID uuid.UUID) bool {
	return c.QuantityOf(productID) > 0
}

// Count is the sum of local quantities.
func (c *LocalCache) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	total := 0
	for _, q := range c.quantities {
		total += q
	}
	return total
}

// Applied is the sequence of the last reconciled response.
func (c *LocalCache) Applied() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.applied
}
