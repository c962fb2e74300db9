// Package models defines the core domain models for Housemates.
//
// # Models
//
//   - User: a registered account. Its ID is the participant id used when
//     settling a group.
//   - Group: a household sharing expenses, with its Members.
//   - Payment: an expense paid by one member and split evenly across the group.
//   - SettlementBatch: one settle-up of a group, covering every payment that
//     was unsettled at the time.
//   - Settlement: one transfer recorded in a batch.
//
// # Design Principles
//
// 1. **IDs, not pointers**: relationships use ID strings to avoid cycles
// 2. **Exact money**: amounts are decimal.Decimal, never float64
// 3. **Append-only payments**: a payment is never edited once settled
package models
