// check-balances: reads the deployment records in the working directory,
// queries every recorded token in parallel and prints the owner's native and
// BTRD balances, the smoke-test recipient's BTRD balance and total supply.
//
// Run from the Hardhat project root:
//
//	go run ./scripts/check-balances [deployment-*-info.json ...]
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"text/tabwriter"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/bitxelroads/btrd/internal/chain"
	"github.com/bitxelroads/btrd/internal/config"
	"github.com/bitxelroads/btrd/internal/contract"
	"github.com/bitxelroads/btrd/internal/deploy"
	"github.com/bitxelroads/btrd/internal/logging"
)

const rpcTimeout = 12 * time.Second

// ── types ─────────────────────────────────────────────────────────────────────

type result struct {
	file      string
	network   string
	token     string
	native    string // owner ETH
	owner     string // owner BTRD
	recipient string // smoke recipient BTRD
	supply    string
	err       string
}

// ── main ──────────────────────────────────────────────────────────────────────

func main() {
	log := logging.New(os.Getenv("BTRD_VERBOSE") != "")
	defer func() { _ = log.Sync() }()

	if err := config.LoadDotEnv(""); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	files := os.Args[1:]
	if len(files) == 0 {
		files, _ = filepath.Glob("deployment-*-info.json")
	}
	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "no deployment records found")
		os.Exit(1)
	}

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		results []result
	)
	for _, f := range files {
		wg.Add(1)
		go func(f string) {
			defer wg.Done()
			r, err := query(cfg, f)
			if err != nil {
				log.Warn("query failed", zap.String("file", f), zap.Error(err))
			}
			mu.Lock()
			results = append(results, r)
			mu.Unlock()
		}(f)
	}
	wg.Wait()

	printTable(results)
}

func query(cfg *config.Config, file string) (result, error) {
	r := result{file: filepath.Base(file), native: "—", owner: "—", recipient: "—", supply: "—"}

	rec, err := deploy.ReadRecord(file)
	if err != nil {
		r.err = shortErr(err)
		return r, err
	}
	r.network, r.token = rec.Network, shortAddr(rec.TokenAddress)

	n, err := cfg.Network(rec.Network)
	if err != nil {
		r.err = "unknown network"
		return r, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), rpcTimeout)
	defer cancel()

	backend, err := chain.Dial(ctx, n.URL)
	if err != nil {
		r.err = "unreachable"
		return r, err
	}
	defer backend.Close()

	owner := common.HexToAddress(rec.Owner)
	if bal, err := backend.BalanceAt(ctx, owner, nil); err == nil {
		r.native = chain.FormatEther(bal)
	}

	token, err := contract.Attach(ctx, backend, common.HexToAddress(rec.TokenAddress))
	if err != nil {
		r.err = shortErr(err)
		return r, err
	}
	decimals, err := token.Decimals(ctx)
	if err != nil {
		r.err = shortErr(err)
		return r, err
	}
	if bal, err := token.BalanceOf(ctx, owner); err == nil {
		r.owner = chain.FormatUnits(bal, decimals)
	}
	if bal, err := token.BalanceOf(ctx, common.HexToAddress(config.SmokeRecipient)); err == nil {
		r.recipient = chain.FormatUnits(bal, decimals)
	}
	if supply, err := token.TotalSupply(ctx); err == nil {
		r.supply = chain.FormatUnits(supply, decimals)
	}
	return r, nil
}

// ── output ────────────────────────────────────────────────────────────────────

func printTable(results []result) {
	sort.Slice(results, func(i, j int) bool { return results[i].file < results[j].file })

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NETWORK\tTOKEN\tOWNER ETH\tOWNER BTRD\tRECIPIENT BTRD\tSUPPLY\tNOTE")
	for _, r := range results {
		network := r.network
		if network == "" {
			network = r.file
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			network, r.token, r.native, r.owner, r.recipient, r.supply, r.err)
	}
	w.Flush()
}

// ── helpers ───────────────────────────────────────────────────────────────────

func shortAddr(addr string) string {
	if len(addr) < 10 {
		return addr
	}
	return addr[:6] + "…" + addr[len(addr)-4:]
}

func shortErr(err error) string {
	s := err.Error()
	if len(s) > 30 {
		return s[:30] + "…"
	}
	return s
}
