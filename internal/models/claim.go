package models

// Claim is a participant's reserved quantity of one item. Absence of a row
// means zero. For every item, the sum of claim quantities never exceeds the
// item quantity.
type Claim struct {
	ReceiptID      string
	ItemKey        string
	ParticipantKey string
	Quantity       int64
}

// ClaimSet indexes claims by item key, then participant key.
type ClaimSet map[string]map[string]int64

// Get returns the claimed quantity for (itemKey, participantKey), zero when
// no claim exists.
func (c ClaimSet) Get(itemKey, participantKey string) int64 {
	return c[itemKey][participantKey]
}

// ItemTotal returns the total quantity claimed on an item across all
// participants.
func (c ClaimSet) ItemTotal(itemKey string) int64 {
	var total int64
	for _, qty := range c[itemKey] {
		total += qty
	}
	return total
}

// Set records a claim quantity, deleting the entry when qty <= 0.
func (c ClaimSet) Set(itemKey, participantKey string, qty int64) {
	if qty <= 0 {
		if byParticipant, ok := c[itemKey]; ok {
			delete(byParticipant, participantKey)
			if len(byParticipant) == 0 {
				delete(c, itemKey)
			}
		}
		return
	}
	if c[itemKey] == nil {
		c[itemKey] = make(map[string]int64)
	}
	c[itemKey][participantKey] = qty
}

// FullyClaimed reports whether every item's quantity is completely claimed.
func FullyClaimed(items []Item, claims ClaimSet) bool {
	for _, item := range items {
		if claims.ItemTotal(item.Key) != item.Quantity {
			return false
		}
	}
	return true
}
