package finance

// SetScanPageSize changes the page size of full scans for the duration of a test
func SetScanPageSize(n int) (restore func()) {
	prev := scanPageSize
	scanPageSize = n
	return func() { scanPageSize = prev }
}
