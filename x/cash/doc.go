/*
Package cash defines a simple implementation of holding and sending coins
between wallets.

There is no logic in the coins, except that the balance of a wallet may not
go below zero. Thus, this implementation is referred to as cash. Each wallet
holds a single currency, which is all the marketplace needs to settle fees
and purchases.
*/
package cash
