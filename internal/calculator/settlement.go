// Package calculator computes per-participant settlement breakdowns.
//
// Everything here is pure and deterministic: the same inputs always produce
// the same output, so settlements are recomputed on every read instead of
// stored. At finalize the inputs freeze (claims and items lock), which is
// what makes the finalized amounts binding.
package calculator

import (
	"sort"

	"github.com/tabsplit/tabsplit/internal/models"
	"github.com/tabsplit/tabsplit/internal/money"
)

// Participant is the minimal participant information the calculator needs.
type Participant struct {
	Key      string
	JoinedAt int64
}

// Input bundles everything ComputeSettlement consumes.
type Input struct {
	// Items are the receipt's line items.
	Items []models.Item

	// Claims is the current claim set.
	Claims models.ClaimSet

	// Participants is everyone on the receipt, host included.
	Participants []Participant

	// SubtotalBasis is the declared subtotal the fee pools are scaled
	// against. Zero means there is no per-item basis and fees split evenly.
	SubtotalBasis money.Cents

	// Tax and Gratuity are the declared fee breakdown; both nil means the
	// whole ExtraFeesTotal is one undifferentiated pool.
	Tax      *money.Cents
	Gratuity *money.Cents

	// ExtraFeesTotal is the total of all fees on the receipt.
	ExtraFeesTotal money.Cents

	// HostKey identifies the host among the participants.
	HostKey string

	// AbsorbExtraCents directs floor-rounding remainders to the host
	// instead of the largest claimant.
	AbsorbExtraCents bool
}

// ComputeSettlement turns items, claims and fee totals into a per-participant
// breakdown in integer cents.
//
// Item subtotals are allocated per item: each item's claimed portion of its
// price is split across claimants proportionally to claimed quantity, with
// floor division and the leftover cents handed out by largest fractional
// remainder. Unclaimed quantity is attributed to no one.
//
// Fee pools (tax, gratuity, remaining other fees) are first scaled by the
// claim ratio (claimed subtotal over SubtotalBasis) so fees on unclaimed
// items land on no one, then allocated proportionally to each participant's
// item subtotal with floor division. The floor-rounding slack of each pool
// goes to a single deterministically chosen recipient. Without a subtotal
// basis each pool splits evenly per head instead.
func ComputeSettlement(in Input) map[string]*models.ParticipantTotals {
	participants := make([]Participant, len(in.Participants))
	copy(participants, in.Participants)
	sort.Slice(participants, func(i, j int) bool {
		if participants[i].JoinedAt != participants[j].JoinedAt {
			return participants[i].JoinedAt < participants[j].JoinedAt
		}
		return participants[i].Key < participants[j].Key
	})

	totals := make(map[string]*models.ParticipantTotals, len(participants))
	for _, p := range participants {
		totals[p.Key] = &models.ParticipantTotals{}
	}
	if len(participants) == 0 {
		return totals
	}

	// Per-item subtotals.
	for _, item := range in.Items {
		allocateItem(item, in.Claims[item.Key], participants, totals)
	}

	var claimedSum money.Cents
	weights := make([]money.Cents, len(participants))
	for i, p := range participants {
		weights[i] = totals[p.Key].ItemSubtotal
		claimedSum += weights[i]
	}

	recipient := remainderRecipient(participants, totals, in.HostKey, in.AbsorbExtraCents)

	// Fee pools: a declared tax/gratuity breakdown yields three pools,
	// otherwise the whole fee total is one pool.
	var taxPool, gratuityPool, otherPool money.Cents
	if in.Tax != nil || in.Gratuity != nil {
		if in.Tax != nil {
			taxPool = *in.Tax
		}
		if in.Gratuity != nil {
			gratuityPool = *in.Gratuity
		}
		if rest := in.ExtraFeesTotal - taxPool - gratuityPool; rest > 0 {
			otherPool = rest
		}
	} else {
		otherPool = in.ExtraFeesTotal
	}

	taxShares := allocatePool(taxPool, in.SubtotalBasis, claimedSum, weights, len(participants), recipient)
	gratuityShares := allocatePool(gratuityPool, in.SubtotalBasis, claimedSum, weights, len(participants), recipient)
	otherShares := allocatePool(otherPool, in.SubtotalBasis, claimedSum, weights, len(participants), recipient)

	var allocatedFees money.Cents
	for i, p := range participants {
		t := totals[p.Key]
		t.TaxShare = taxShares[i]
		t.GratuityShare = gratuityShares[i]
		t.OtherShare = otherShares[i]
		allocatedFees += t.TaxShare + t.GratuityShare + t.OtherShare
	}

	evenFloor := allocatedFees / money.Cents(len(participants))
	for _, p := range participants {
		t := totals[p.Key]
		t.RoundingAdjustment = t.TaxShare + t.GratuityShare + t.OtherShare - evenFloor
		t.TotalDue = t.ItemSubtotal + t.TaxShare + t.GratuityShare + t.OtherShare
	}

	return totals
}

// allocateItem splits the claimed portion of one item's price across its
// claimants. The pot is floor(price * claimedTotal / quantity), so a fully
// claimed item conserves its price exactly; the pot itself is divided by
// claimed quantity with largest-remainder distribution of leftover cents.
func allocateItem(item models.Item, claims map[string]int64, participants []Participant, totals map[string]*models.ParticipantTotals) {
	if item.Price == nil || item.Quantity <= 0 || len(claims) == 0 {
		return
	}

	type claimant struct {
		key  string
		qty  int64
		frac int64
	}
	var claimants []claimant
	var claimedTotal int64
	for _, p := range participants {
		if qty := claims[p.Key]; qty > 0 {
			claimants = append(claimants, claimant{key: p.Key, qty: qty})
			claimedTotal += qty
		}
	}
	if claimedTotal == 0 {
		return
	}

	pot := int64(*item.Price) * claimedTotal / item.Quantity
	var allocated int64
	for i := range claimants {
		share := pot * claimants[i].qty / claimedTotal
		claimants[i].frac = pot * claimants[i].qty % claimedTotal
		totals[claimants[i].key].ItemSubtotal += money.Cents(share)
		allocated += share
	}

	// Leftover cents go to the largest fractional remainders first.
	leftover := pot - allocated
	if leftover > 0 {
		sort.SliceStable(claimants, func(i, j int) bool {
			if claimants[i].frac != claimants[j].frac {
				return claimants[i].frac > claimants[j].frac
			}
			return claimants[i].key < claimants[j].key
		})
		for i := int64(0); i < leftover; i++ {
			totals[claimants[i].key].ItemSubtotal++
		}
	}
}

// allocatePool distributes one fee pool. With a subtotal basis the pool is
// scaled by the claim ratio and split proportionally to item subtotals;
// without one it splits evenly per head. Either way the floor-rounding slack
// lands on the recipient index.
func allocatePool(pool, basis, claimedSum money.Cents, weights []money.Cents, n int, recipient int) []money.Cents {
	shares := make([]money.Cents, n)
	if pool <= 0 || n == 0 {
		return shares
	}

	if basis > 0 {
		scaled := money.Scale(pool, claimedSum, basis)
		if scaled <= 0 {
			return shares
		}
		prop, remainder := money.SplitProportional(scaled, weights)
		copy(shares, prop)
		shares[recipient] += remainder
		return shares
	}

	each, remainder := money.SplitEven(pool, n)
	for i := range shares {
		shares[i] = each
	}
	shares[recipient] += remainder
	return shares
}

// remainderRecipient picks the single participant who receives floor-rounding
// slack: the host when AbsorbExtraCents is set, otherwise the non-host with
// the largest item subtotal, ties broken by earliest join. The participants
// slice must already be sorted by (JoinedAt, Key).
func remainderRecipient(participants []Participant, totals map[string]*models.ParticipantTotals, hostKey string, absorbExtraCents bool) int {
	hostIdx := -1
	for i, p := range participants {
		if p.Key == hostKey {
			hostIdx = i
			break
		}
	}
	if absorbExtraCents && hostIdx >= 0 {
		return hostIdx
	}

	best := -1
	for i, p := range participants {
		if p.Key == hostKey {
			continue
		}
		if best < 0 || totals[p.Key].ItemSubtotal > totals[participants[best].Key].ItemSubtotal {
			best = i
		}
	}
	if best >= 0 {
		return best
	}
	if hostIdx >= 0 {
		return hostIdx
	}
	return 0
}
