// Command datagen writes a synthetic Lima client dataset as CSV and prints
// its summary statistics.
package main

import (
    "encoding/json"
    "flag"
    "log"
    "os"

    "rutaopt/internal/ingest"
)

func main() {
    n := flag.Int("n", 1500, "number of clients to generate")
    seed := flag.Int64("seed", 1, "random seed (same seed, same dataset)")
    out := flag.String("o", "clientes_lima.csv", "output CSV path")
    flag.Parse()

    clients := ingest.NewGenerator(*seed).Clients(*n)

    f, err := os.Create(*out)
    if err != nil {
        log.Fatalf("create %s: %v", *out, err)
    }
    defer f.Close()
    if err := ingest.WriteClientsCSV(f, clients); err != nil {
        log.Fatalf("write csv: %v", err)
    }

    stats := ingest.Summarize(clients)
    enc := json.NewEncoder(os.Stdout)
    enc.SetIndent("", "  ")
    if err := enc.Encode(stats); err != nil {
        log.Fatalf("encode stats: %v", err)
    }
    log.Printf("wrote %d clients to %s", len(clients), *out)
}
