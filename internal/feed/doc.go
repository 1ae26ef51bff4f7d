// Package feed distributes committed items to live subscribers. A new
// subscriber first receives a bounded backfill of the most recent items
// in commit order, then every later item exactly once, by polling the
// store's sequence cursor. Subscribers never see an item twice and never
// see items out of commit order.
package feed
