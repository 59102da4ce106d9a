/*

Package nftmarket defines interfaces used throughout the marketplace, such as:
storage, addresses and genesis options. Look into this package to get a brief
overview of the building blocks the extensions under x/ are composed of.

The marketplace itself lives in x/market. It relies on x/nft for token
ownership and on x/cash for moving coins between wallets. All state changes are
executed against a cache wrapped store so that every operation is applied
either completely or not at all.

*/
package nftmarket
