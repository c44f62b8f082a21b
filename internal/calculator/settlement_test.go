package calculator

import (
	"testing"

	"github.com/tabsplit/tabsplit/internal/models"
	"github.com/tabsplit/tabsplit/internal/money"
)

const (
	hostKey = "auth:host"
	guestA  = "guest:device-a"
	guestB  = "guest:device-b"
	guestC  = "guest:device-c"
)

func claims(entries ...[3]interface{}) models.ClaimSet {
	cs := make(models.ClaimSet)
	for _, e := range entries {
		cs.Set(e[0].(string), e[1].(string), int64(e[2].(int)))
	}
	return cs
}

func TestComputeSettlement(t *testing.T) {
	tests := []struct {
		name         string
		in           Input
		validateFunc func(t *testing.T, totals map[string]*models.ParticipantTotals)
	}{
		{
			name: "unclaimed remainder is attributed to no one",
			in: Input{
				Items: []models.Item{
					{Key: "i1", Name: "Pad Thai", Quantity: 2, Price: money.Ptr(1000)},
				},
				Claims: claims([3]interface{}{"i1", guestA, 1}),
				Participants: []Participant{
					{Key: hostKey, JoinedAt: 1},
					{Key: guestA, JoinedAt: 2},
				},
				HostKey: hostKey,
			},
			validateFunc: func(t *testing.T, totals map[string]*models.ParticipantTotals) {
				if got := totals[guestA].ItemSubtotal; got != 500 {
					t.Errorf("guest subtotal = %d, want 500", got)
				}
				if got := totals[hostKey].ItemSubtotal; got != 0 {
					t.Errorf("host subtotal = %d, want 0", got)
				}
				if got := totals[guestA].TotalDue; got != 500 {
					t.Errorf("guest total due = %d, want 500", got)
				}
			},
		},
		{
			name: "tax remainder lands on one deterministic recipient",
			in: Input{
				Items: []models.Item{
					{Key: "i1", Quantity: 1, Price: money.Ptr(1000)},
					{Key: "i2", Quantity: 1, Price: money.Ptr(1000)},
					{Key: "i3", Quantity: 1, Price: money.Ptr(1000)},
				},
				Claims: claims(
					[3]interface{}{"i1", guestA, 1},
					[3]interface{}{"i2", guestB, 1},
					[3]interface{}{"i3", guestC, 1},
				),
				Participants: []Participant{
					{Key: guestA, JoinedAt: 1},
					{Key: guestB, JoinedAt: 2},
					{Key: guestC, JoinedAt: 3},
				},
				SubtotalBasis:  3000,
				Tax:            money.Ptr(100),
				ExtraFeesTotal: 100,
				HostKey:        hostKey,
			},
			validateFunc: func(t *testing.T, totals map[string]*models.ParticipantTotals) {
				// Equal $10 claims, $1.00 tax: 34/33/33, remainder on the
				// earliest-joined of the tied claimants.
				if got := totals[guestA].TaxShare; got != 34 {
					t.Errorf("guestA tax = %d, want 34", got)
				}
				if got := totals[guestB].TaxShare; got != 33 {
					t.Errorf("guestB tax = %d, want 33", got)
				}
				if got := totals[guestC].TaxShare; got != 33 {
					t.Errorf("guestC tax = %d, want 33", got)
				}
				sum := totals[guestA].TaxShare + totals[guestB].TaxShare + totals[guestC].TaxShare
				if sum != 100 {
					t.Errorf("tax shares sum = %d, want exactly 100", sum)
				}
			},
		},
		{
			name: "host absorbs remainder when configured",
			in: Input{
				Items: []models.Item{
					{Key: "i1", Quantity: 1, Price: money.Ptr(1000)},
					{Key: "i2", Quantity: 1, Price: money.Ptr(1000)},
					{Key: "i3", Quantity: 1, Price: money.Ptr(1000)},
				},
				Claims: claims(
					[3]interface{}{"i1", hostKey, 1},
					[3]interface{}{"i2", guestA, 1},
					[3]interface{}{"i3", guestB, 1},
				),
				Participants: []Participant{
					{Key: hostKey, JoinedAt: 1},
					{Key: guestA, JoinedAt: 2},
					{Key: guestB, JoinedAt: 3},
				},
				SubtotalBasis:    3000,
				Tax:              money.Ptr(100),
				ExtraFeesTotal:   100,
				HostKey:          hostKey,
				AbsorbExtraCents: true,
			},
			validateFunc: func(t *testing.T, totals map[string]*models.ParticipantTotals) {
				if got := totals[hostKey].TaxShare; got != 34 {
					t.Errorf("host tax = %d, want 34 (absorbs remainder)", got)
				}
				if got := totals[guestA].TaxShare; got != 33 {
					t.Errorf("guestA tax = %d, want 33", got)
				}
			},
		},
		{
			name: "fees scale to the claimed portion only",
			in: Input{
				Items: []models.Item{
					{Key: "i1", Quantity: 1, Price: money.Ptr(1000)},
					{Key: "i2", Quantity: 1, Price: money.Ptr(1000)},
				},
				Claims: claims([3]interface{}{"i1", guestA, 1}),
				Participants: []Participant{
					{Key: hostKey, JoinedAt: 1},
					{Key: guestA, JoinedAt: 2},
				},
				SubtotalBasis:  2000,
				Tax:            money.Ptr(200),
				Gratuity:       money.Ptr(400),
				ExtraFeesTotal: 600,
				HostKey:        hostKey,
			},
			validateFunc: func(t *testing.T, totals map[string]*models.ParticipantTotals) {
				// Half the receipt is claimed, so only half of each fee pool
				// is distributed; the unclaimed half lands on no one.
				if got := totals[guestA].TaxShare; got != 100 {
					t.Errorf("guestA tax = %d, want 100", got)
				}
				if got := totals[guestA].GratuityShare; got != 200 {
					t.Errorf("guestA gratuity = %d, want 200", got)
				}
				if got := totals[hostKey].TotalDue; got != 0 {
					t.Errorf("host total due = %d, want 0", got)
				}
			},
		},
		{
			name: "no subtotal basis splits fees evenly",
			in: Input{
				Items: []models.Item{
					{Key: "i1", Quantity: 1},
				},
				Claims: claims([3]interface{}{"i1", guestA, 1}),
				Participants: []Participant{
					{Key: hostKey, JoinedAt: 1},
					{Key: guestA, JoinedAt: 2},
					{Key: guestB, JoinedAt: 3},
				},
				Tax:            money.Ptr(99),
				ExtraFeesTotal: 99,
				HostKey:        hostKey,
			},
			validateFunc: func(t *testing.T, totals map[string]*models.ParticipantTotals) {
				sum := totals[hostKey].TaxShare + totals[guestA].TaxShare + totals[guestB].TaxShare
				if sum != 99 {
					t.Errorf("tax shares sum = %d, want 99", sum)
				}
				// 33 each; no priced claims, so the remainder tie-break falls
				// to the earliest-joined non-host.
				if got := totals[guestA].TaxShare; got != 33 {
					t.Errorf("guestA tax = %d, want 33", got)
				}
			},
		},
		{
			name: "no breakdown treats extra fees as one pool",
			in: Input{
				Items: []models.Item{
					{Key: "i1", Quantity: 1, Price: money.Ptr(3000)},
					{Key: "i2", Quantity: 1, Price: money.Ptr(1000)},
				},
				Claims: claims(
					[3]interface{}{"i1", guestA, 1},
					[3]interface{}{"i2", guestB, 1},
				),
				Participants: []Participant{
					{Key: guestA, JoinedAt: 1},
					{Key: guestB, JoinedAt: 2},
				},
				SubtotalBasis:  4000,
				ExtraFeesTotal: 400,
				HostKey:        hostKey,
			},
			validateFunc: func(t *testing.T, totals map[string]*models.ParticipantTotals) {
				if got := totals[guestA].OtherShare; got != 300 {
					t.Errorf("guestA other share = %d, want 300", got)
				}
				if got := totals[guestB].OtherShare; got != 100 {
					t.Errorf("guestB other share = %d, want 100", got)
				}
				if got := totals[guestA].TaxShare; got != 0 {
					t.Errorf("guestA tax share = %d, want 0 (no breakdown)", got)
				}
			},
		},
		{
			name: "odd price conserves cents across claimants",
			in: Input{
				Items: []models.Item{
					{Key: "i1", Quantity: 3, Price: money.Ptr(1000)},
				},
				Claims: claims(
					[3]interface{}{"i1", guestA, 1},
					[3]interface{}{"i1", guestB, 1},
					[3]interface{}{"i1", guestC, 1},
				),
				Participants: []Participant{
					{Key: guestA, JoinedAt: 1},
					{Key: guestB, JoinedAt: 2},
					{Key: guestC, JoinedAt: 3},
				},
				HostKey: hostKey,
			},
			validateFunc: func(t *testing.T, totals map[string]*models.ParticipantTotals) {
				sum := totals[guestA].ItemSubtotal + totals[guestB].ItemSubtotal + totals[guestC].ItemSubtotal
				if sum != 1000 {
					t.Errorf("item subtotals sum = %d, want exactly 1000", sum)
				}
				for _, key := range []string{guestA, guestB, guestC} {
					if got := totals[key].ItemSubtotal; got != 333 && got != 334 {
						t.Errorf("%s subtotal = %d, want 333 or 334", key, got)
					}
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			totals := ComputeSettlement(tt.in)
			if len(totals) != len(tt.in.Participants) {
				t.Fatalf("got totals for %d participants, want %d", len(totals), len(tt.in.Participants))
			}
			tt.validateFunc(t, totals)
		})
	}
}

// TestFeeConservation checks that fee shares sum to the fee total whenever
// all items are fully claimed, across a spread of awkward amounts.
func TestFeeConservation(t *testing.T) {
	items := []models.Item{
		{Key: "i1", Quantity: 2, Price: money.Ptr(1999)},
		{Key: "i2", Quantity: 1, Price: money.Ptr(750)},
		{Key: "i3", Quantity: 3, Price: money.Ptr(1001)},
	}
	cs := make(models.ClaimSet)
	cs.Set("i1", hostKey, 1)
	cs.Set("i1", guestA, 1)
	cs.Set("i2", guestB, 1)
	cs.Set("i3", guestA, 2)
	cs.Set("i3", guestB, 1)

	var subtotal money.Cents
	for _, item := range items {
		subtotal += *item.Price
	}

	for _, fees := range []struct {
		tax, gratuity money.Cents
		extra         money.Cents
	}{
		{tax: 331, gratuity: 667, extra: 998},
		{tax: 1, gratuity: 0, extra: 1},
		{tax: 97, gratuity: 103, extra: 250}, // 50 cents of "other"
	} {
		totals := ComputeSettlement(Input{
			Items:  items,
			Claims: cs,
			Participants: []Participant{
				{Key: hostKey, JoinedAt: 1},
				{Key: guestA, JoinedAt: 2},
				{Key: guestB, JoinedAt: 3},
			},
			SubtotalBasis:  subtotal,
			Tax:            money.Ptr(fees.tax),
			Gratuity:       money.Ptr(fees.gratuity),
			ExtraFeesTotal: fees.extra,
			HostKey:        hostKey,
		})

		var feeSum, itemSum money.Cents
		for _, tot := range totals {
			feeSum += tot.TaxShare + tot.GratuityShare + tot.OtherShare
			itemSum += tot.ItemSubtotal
		}
		if feeSum != fees.extra {
			t.Errorf("fees %+v: fee shares sum = %d, want %d", fees, feeSum, fees.extra)
		}
		if itemSum != subtotal {
			t.Errorf("fees %+v: item subtotals sum = %d, want %d", fees, itemSum, subtotal)
		}
	}
}

func TestComputeSettlementDeterministic(t *testing.T) {
	in := Input{
		Items: []models.Item{
			{Key: "i1", Quantity: 3, Price: money.Ptr(1000)},
		},
		Claims: claims(
			[3]interface{}{"i1", guestA, 1},
			[3]interface{}{"i1", guestB, 1},
			[3]interface{}{"i1", guestC, 1},
		),
		Participants: []Participant{
			{Key: guestC, JoinedAt: 3},
			{Key: guestA, JoinedAt: 1},
			{Key: guestB, JoinedAt: 2},
		},
		SubtotalBasis:  1000,
		Tax:            money.Ptr(100),
		ExtraFeesTotal: 100,
		HostKey:        hostKey,
	}

	first := ComputeSettlement(in)
	for i := 0; i < 50; i++ {
		again := ComputeSettlement(in)
		for key, want := range first {
			if got := *again[key]; got != *want {
				t.Fatalf("run %d: totals[%s] = %+v, want %+v", i, key, got, *want)
			}
		}
	}
}
