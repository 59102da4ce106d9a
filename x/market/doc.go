/*
Package market implements the marketplace ledger.

Sellers list tokens they hold at a fixed price and pay a flat listing fee.
A listed token is kept in escrow by the ledger until a buyer pays exactly the
asking price, at which point payment goes to the seller and the token to the
buyer. A buyer may list the token again, which creates a new market item.

Every operation is atomic. It runs on a cache wrap of the ledger store that
is written only when the operation succeeds.
*/
package market
