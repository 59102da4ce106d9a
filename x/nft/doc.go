/*
Package nft provides the token registry of the marketplace.

Each minted token has a sequential identifier, a metadata URI and a holder.
A token can be placed in escrow, in which case it has no transferable holder
until it is released to a new one. The registry does not know about
listings or prices; it only guards holder transitions.
*/
package nft
