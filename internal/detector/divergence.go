package detector

import (
	"sort"

	"whaleflow/internal/flow"
	"whaleflow/internal/models"
)

// DivergenceDetail describes one instrument where one wallet cohort is
// exiting while a disjoint cohort builds on one side.
type DivergenceDetail struct {
	Coin     string             `json:"coin"`
	Side     models.Side        `json:"side"`
	Closers  []flow.WalletShare `json:"closers"`
	Builders []flow.WalletShare `json:"builders"`
}

// runDivergenceRadar looks for instruments where enough wallets close big
// while enough different wallets open big on one side. A wallet can never
// count as both closer and builder for the same instrument.
func runDivergenceRadar(in Input, p DivergenceRadarParams) *Result {
	type instrumentBook struct {
		closedByWallet map[string]float64
		openedBySide   map[models.Side]map[string]float64
	}

	books := make(map[string]*instrumentBook)
	for _, f := range in.Fills {
		book, ok := books[f.Coin]
		if !ok {
			book = &instrumentBook{
				closedByWallet: make(map[string]float64),
				openedBySide: map[models.Side]map[string]float64{
					models.SideLong:  {},
					models.SideShort: {},
				},
			}
			books[f.Coin] = book
		}
		if f.IsOpen() {
			book.openedBySide[f.Side][f.Wallet] += f.NotionalUSD()
		} else {
			book.closedByWallet[f.Wallet] += f.NotionalUSD()
		}
	}

	coins := make([]string, 0, len(books))
	for coin := range books {
		coins = append(coins, coin)
	}
	sort.Strings(coins)

	for _, coin := range coins {
		book := books[coin]

		closers := walletsOver(book.closedByWallet, p.CloseThresholdUSD)
		if len(closers) < p.MinClosers {
			continue
		}
		closerSet := make(map[string]bool, len(closers))
		for _, c := range closers {
			closerSet[c.Wallet] = true
		}

		for _, side := range []models.Side{models.SideLong, models.SideShort} {
			builders := walletsOver(book.openedBySide[side], p.BuildThresholdUSD)
			disjoint := builders[:0:0]
			for _, b := range builders {
				if !closerSet[b.Wallet] {
					disjoint = append(disjoint, b)
				}
			}
			if len(disjoint) < p.MinBuilders {
				continue
			}
			return signal(KindDivergenceRadar, DivergenceDetail{
				Coin:     coin,
				Side:     side,
				Closers:  closers,
				Builders: disjoint,
			})
		}
	}

	return noSignal(KindDivergenceRadar, "no closer/builder divergence found")
}

// walletsOver returns the wallets whose notional clears the threshold,
// ordered descending with address as the tie break.
func walletsOver(byWallet map[string]float64, threshold float64) []flow.WalletShare {
	shares := []flow.WalletShare{}
	for wallet, notional := range byWallet {
		if notional >= threshold {
			shares = append(shares, flow.WalletShare{Wallet: wallet, Notional: notional})
		}
	}
	sort.Slice(shares, func(i, j int) bool {
		if shares[i].Notional != shares[j].Notional {
			return shares[i].Notional > shares[j].Notional
		}
		return shares[i].Wallet < shares[j].Wallet
	})
	return shares
}
