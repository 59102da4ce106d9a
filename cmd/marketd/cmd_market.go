package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/iov-one/nftmarket/client"
	"github.com/iov-one/nftmarket/coin"
)

// requestTimeout limits a single API call made by the client commands.
const requestTimeout = 15 * time.Second

func apiFlag(fl *flag.FlagSet) *string {
	return fl.String("api", env("MARKETD_API", "http://localhost:8000"),
		"Market API address. You can use MARKETD_API environment variable to set it.")
}

func keyFlag(fl *flag.FlagSet) *string {
	return fl.String("key", defaultKeyPath(),
		"Path to the private key file the request is signed with. You can use MARKETD_PRIV_KEY environment variable to set it.")
}

func coinFlag(fl *flag.FlagSet, name, usage string) *coin.Coin {
	var c coin.Coin
	fl.Var(&c, name, usage)
	return &c
}

func writeJSON(out io.Writer, v interface{}) error {
	raw, err := json.MarshalIndent(v, "", "\t")
	if err != nil {
		return fmt.Errorf("cannot serialize: %s", err)
	}
	_, err = fmt.Fprintln(out, string(raw))
	return err
}

func cmdList(input io.Reader, output io.Writer, args []string) error {
	fl := flag.NewFlagSet("", flag.ExitOnError)
	fl.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), `
Put a token you hold on sale. The listing fee must be attached exactly.
`)
		fl.PrintDefaults()
	}
	var (
		apiFl     = apiFlag(fl)
		keyFl     = keyFlag(fl)
		tokenFl   = fl.Uint64("token", 0, "Token ID to list.")
		priceFl   = coinFlag(fl, "price", "Sale price, for example \"100 ETH\".")
		paymentFl = coinFlag(fl, "fee", "Listing fee attached to the request.")
	)
	fl.Parse(args)

	key, err := readKey(*keyFl)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	itemID, err := client.NewClient(*apiFl).CreateListing(ctx, key, *tokenFl, *priceFl, *paymentFl)
	if err != nil {
		return err
	}
	return writeJSON(output, client.ListingResult{ItemID: itemID})
}

func cmdResell(input io.Reader, output io.Writer, args []string) error {
	fl := flag.NewFlagSet("", flag.ExitOnError)
	fl.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), `
Put a token you bought on sale again.
`)
		fl.PrintDefaults()
	}
	var (
		apiFl     = apiFlag(fl)
		keyFl     = keyFlag(fl)
		tokenFl   = fl.Uint64("token", 0, "Token ID to list.")
		priceFl   = coinFlag(fl, "price", "Sale price, for example \"100 ETH\".")
		paymentFl = coinFlag(fl, "fee", "Listing fee attached to the request.")
	)
	fl.Parse(args)

	key, err := readKey(*keyFl)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	itemID, err := client.NewClient(*apiFl).Resell(ctx, key, *tokenFl, *priceFl, *paymentFl)
	if err != nil {
		return err
	}
	return writeJSON(output, client.ListingResult{ItemID: itemID})
}

func cmdMintAndList(input io.Reader, output io.Writer, args []string) error {
	fl := flag.NewFlagSet("", flag.ExitOnError)
	fl.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), `
Mint a new token with the given metadata URI and put it on sale.
`)
		fl.PrintDefaults()
	}
	var (
		apiFl     = apiFlag(fl)
		keyFl     = keyFlag(fl)
		uriFl     = fl.String("uri", "", "Token metadata URI.")
		priceFl   = coinFlag(fl, "price", "Sale price, for example \"100 ETH\".")
		paymentFl = coinFlag(fl, "fee", "Listing fee attached to the request.")
	)
	fl.Parse(args)

	key, err := readKey(*keyFl)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	res, err := client.NewClient(*apiFl).MintAndList(ctx, key, *uriFl, *priceFl, *paymentFl)
	if err != nil {
		return err
	}
	return writeJSON(output, res)
}

func cmdBuy(input io.Reader, output io.Writer, args []string) error {
	fl := flag.NewFlagSet("", flag.ExitOnError)
	fl.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), `
Buy a listed item. The payment must equal the item price.
`)
		fl.PrintDefaults()
	}
	var (
		apiFl     = apiFlag(fl)
		keyFl     = keyFlag(fl)
		itemFl    = fl.Uint64("item", 0, "Item ID to buy.")
		paymentFl = coinFlag(fl, "pay", "Payment, for example \"100 ETH\".")
	)
	fl.Parse(args)

	key, err := readKey(*keyFl)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	c := client.NewClient(*apiFl)
	if err := c.Purchase(ctx, key, *itemFl, *paymentFl); err != nil {
		return err
	}
	item, err := c.Item(ctx, *itemFl)
	if err != nil {
		return err
	}
	return writeJSON(output, item)
}

func cmdSetFee(input io.Reader, output io.Writer, args []string) error {
	fl := flag.NewFlagSet("", flag.ExitOnError)
	fl.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), `
Change the listing fee. Only the market operator can do this.
`)
		fl.PrintDefaults()
	}
	var (
		apiFl = apiFlag(fl)
		keyFl = keyFlag(fl)
		feeFl = coinFlag(fl, "fee", "New listing fee, for example \"5 ETH\".")
	)
	fl.Parse(args)

	key, err := readKey(*keyFl)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	c := client.NewClient(*apiFl)
	if err := c.SetListingFee(ctx, key, *feeFl); err != nil {
		return err
	}
	res, err := c.ListingFee(ctx)
	if err != nil {
		return err
	}
	return writeJSON(output, res)
}

func cmdFee(input io.Reader, output io.Writer, args []string) error {
	fl := flag.NewFlagSet("", flag.ExitOnError)
	fl.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), `
Print the current listing fee and the total of fees collected.
`)
		fl.PrintDefaults()
	}
	apiFl := apiFlag(fl)
	fl.Parse(args)

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	res, err := client.NewClient(*apiFl).ListingFee(ctx)
	if err != nil {
		return err
	}
	return writeJSON(output, res)
}

func cmdItems(input io.Reader, output io.Writer, args []string) error {
	fl := flag.NewFlagSet("", flag.ExitOnError)
	fl.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), `
Print all items that are on sale, in listing order.
`)
		fl.PrintDefaults()
	}
	apiFl := apiFlag(fl)
	fl.Parse(args)

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	items, err := client.NewClient(*apiFl).ActiveItems(ctx)
	if err != nil {
		return err
	}
	return writeJSON(output, items)
}
