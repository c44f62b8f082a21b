// Package models defines the core domain models for TabSplit.
//
// # Model overview
//
//   - Receipt: a scanned receipt owned by a host, with items and fee totals
//   - Item: a priced line item with an integer quantity
//   - Participant: someone who joined a receipt via its share code
//   - Claim: a participant's reserved quantity of one item
//   - SettlementSnapshot: a point-in-time projection of who owes what
//
// Participants are identified by a derived participant key, never by raw
// platform identity: "auth:<userID>" for signed-in users and
// "guest:<deviceID>" for guest devices. The derivation makes join idempotent
// and keeps identity comparison uniform across the core.
//
// # Design principles
//
//  1. All money is integer cents (internal/money.Cents); optional amounts are
//     pointers, absence means "not declared on the receipt".
//  2. Enums are closed typed strings validated at the edge, not free text.
//  3. Models carry no behavior beyond derivation helpers; the settlement
//     algorithms live in internal/calculator and the mutation rules in
//     internal/service.
package models
