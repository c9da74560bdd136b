// Command ledgerctl runs ledger maintenance tasks against the configured database.
package main

func main() {
	Execute()
}
